// Package viewer implements the in-process viewer runtime: scene model,
// camera projection onto a braille canvas, per-element theming overrides,
// a lazily created toolbar, and a typed event bus. Extensions receive a
// *Viewer handle at load time and interact only through it.
package viewer

import (
	"log/slog"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// ThemingColor is a per-element color/opacity override, applied on top of
// the base material color at render time.
type ThemingColor struct {
	Color colorful.Color
	Alpha float64
}

// ListenerID identifies a registered event listener for removal.
type ListenerID string

type eventListener struct {
	id ListenerID
	fn func(Event)
}

// Viewer is the runtime handle granted to the widget and its extensions.
// All methods must be called from the update loop; the viewer does no
// locking of its own.
type Viewer struct {
	scene     *Scene
	camera    *Camera
	theming   map[int]ThemingColor
	dirty     bool
	toolbar   *Toolbar
	listeners map[EventKind][]eventListener
	logger    *slog.Logger
}

// New builds a viewer around a loaded scene.
func New(scene *Scene, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Viewer{
		scene:     scene,
		camera:    NewCamera(),
		theming:   make(map[int]ThemingColor),
		listeners: make(map[EventKind][]eventListener),
		logger:    logger,
	}
}

// Scene returns the loaded scene.
func (v *Viewer) Scene() *Scene { return v.scene }

// Camera returns the viewer camera.
func (v *Viewer) Camera() *Camera { return v.camera }

// SetThemingColor applies a color override keyed by element id. It does not
// trigger a redraw; callers batch overrides and call Invalidate once.
func (v *Viewer) SetThemingColor(id int, tc ThemingColor) {
	v.theming[id] = tc
}

// ThemingColor returns the override for an element, if any.
func (v *Viewer) ThemingColor(id int) (ThemingColor, bool) {
	tc, ok := v.theming[id]
	return tc, ok
}

// ClearThemingColors removes all overrides.
func (v *Viewer) ClearThemingColors() {
	clear(v.theming)
}

// Invalidate marks the current frame stale.
func (v *Viewer) Invalidate() { v.dirty = true }

// ConsumeInvalidation reports whether a redraw is pending and resets the
// flag. The render path calls this once per frame.
func (v *Viewer) ConsumeInvalidation() bool {
	d := v.dirty
	v.dirty = false
	return d
}

// Toolbar returns the toolbar, or nil if it has not been created yet.
func (v *Viewer) Toolbar() *Toolbar { return v.toolbar }

// CreateToolbar builds the toolbar and fires ToolbarCreatedEvent exactly
// once. Subsequent calls return the existing toolbar without re-firing.
func (v *Viewer) CreateToolbar() *Toolbar {
	if v.toolbar != nil {
		return v.toolbar
	}
	v.toolbar = &Toolbar{}
	v.logger.Debug("toolbar created")
	v.Dispatch(ToolbarCreatedEvent{Toolbar: v.toolbar})
	return v.toolbar
}

// AddEventListener registers fn for events of the given kind and returns a
// removal handle. Failing to remove a dead listener leaks it.
func (v *Viewer) AddEventListener(kind EventKind, fn func(Event)) ListenerID {
	id := ListenerID(uuid.NewString())
	v.listeners[kind] = append(v.listeners[kind], eventListener{id: id, fn: fn})
	return id
}

// RemoveEventListener drops a listener by id. Unknown ids are ignored, so
// one-shot listeners can remove themselves defensively.
func (v *Viewer) RemoveEventListener(id ListenerID) {
	for kind, ls := range v.listeners {
		for i := range ls {
			if ls[i].id == id {
				v.listeners[kind] = append(ls[:i], ls[i+1:]...)
				return
			}
		}
	}
}

// ListenerCount reports how many listeners are registered for a kind.
func (v *Viewer) ListenerCount(kind EventKind) int {
	return len(v.listeners[kind])
}

// Dispatch delivers ev to all listeners registered for its kind. The
// listener slice is snapshotted first so handlers may remove themselves.
func (v *Viewer) Dispatch(ev Event) {
	ls := v.listeners[ev.Kind()]
	snapshot := make([]eventListener, len(ls))
	copy(snapshot, ls)
	for _, l := range snapshot {
		l.fn(ev)
	}
}

// ColorFor resolves an element's render color: the base material color
// blended toward the theming override by its alpha.
func (v *Viewer) ColorFor(id int, base lipgloss.Color) lipgloss.Color {
	tc, ok := v.theming[id]
	if !ok {
		return base
	}
	bc, err := colorful.Hex(string(base))
	if err != nil {
		return lipgloss.Color(tc.Color.Hex())
	}
	return lipgloss.Color(bc.BlendRgb(tc.Color, tc.Alpha).Hex())
}

// RenderFrame draws the scene to the canvas with theming applied.
func (v *Viewer) RenderFrame(c *Canvas, base lipgloss.Color) {
	Render(c, v.scene, v.camera, func(id int) lipgloss.Color {
		return v.ColorFor(id, base)
	})
}
