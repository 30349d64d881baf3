// Package extension defines the viewer's extension mechanism: a capability
// interface plus a host-owned registry keyed by name. Extensions add UI and
// behavior to the scene without the viewer knowing their types.
package extension

import (
	"fmt"
	"log/slog"

	"github.com/scenescope/scenescope/internal/viewer"
)

// Extension is the capability set a pluggable unit must implement. Load
// receives the viewer handle and may register listeners and UI; Unload must
// release everything Load (or later activity) acquired.
type Extension interface {
	Name() string
	Load(v *viewer.Viewer) error
	Unload() error
}

// Registry owns the extension table. The host registers extensions at
// startup, loads them when the viewer is ready, and unloads on teardown.
type Registry struct {
	extensions map[string]Extension
	loaded     map[string]bool
	order      []string
	logger     *slog.Logger
}

// NewRegistry returns an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		extensions: make(map[string]Extension),
		loaded:     make(map[string]bool),
		logger:     logger,
	}
}

// Register adds an extension by name. Duplicate names are rejected.
func (r *Registry) Register(ext Extension) error {
	name := ext.Name()
	if name == "" {
		return fmt.Errorf("extension with empty name")
	}
	if _, ok := r.extensions[name]; ok {
		return fmt.Errorf("extension %s already registered", name)
	}
	r.extensions[name] = ext
	r.order = append(r.order, name)
	return nil
}

// Load runs the named extension's Load hook against the viewer.
func (r *Registry) Load(name string, v *viewer.Viewer) error {
	ext, ok := r.extensions[name]
	if !ok {
		return fmt.Errorf("unknown extension: %s", name)
	}
	if r.loaded[name] {
		return fmt.Errorf("extension %s already loaded", name)
	}
	if err := ext.Load(v); err != nil {
		return fmt.Errorf("load %s: %w", name, err)
	}
	r.loaded[name] = true
	r.logger.Info("extension loaded", slog.String("extension", name))
	return nil
}

// LoadAll loads every registered extension in registration order.
func (r *Registry) LoadAll(v *viewer.Viewer) error {
	for _, name := range r.order {
		if err := r.Load(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Unload runs the named extension's Unload hook.
func (r *Registry) Unload(name string) error {
	ext, ok := r.extensions[name]
	if !ok {
		return fmt.Errorf("unknown extension: %s", name)
	}
	if !r.loaded[name] {
		return nil
	}
	r.loaded[name] = false
	if err := ext.Unload(); err != nil {
		return fmt.Errorf("unload %s: %w", name, err)
	}
	r.logger.Info("extension unloaded", slog.String("extension", name))
	return nil
}

// UnloadAll unloads in reverse registration order. All extensions get their
// hook even if earlier ones fail; the first error is returned.
func (r *Registry) UnloadAll() error {
	var first error
	for i := len(r.order) - 1; i >= 0; i-- {
		if err := r.Unload(r.order[i]); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Get returns a registered extension by name.
func (r *Registry) Get(name string) (Extension, bool) {
	ext, ok := r.extensions[name]
	return ext, ok
}

// Loaded reports whether the named extension is currently loaded.
func (r *Registry) Loaded(name string) bool { return r.loaded[name] }

// Names lists registered extensions in registration order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}
