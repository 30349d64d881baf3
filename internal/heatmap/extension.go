// Package heatmap implements the heatmap extension: it subscribes to the
// data feed for the current visualization mode and paints heat colors onto
// scene elements through the viewer's theming API.
package heatmap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/scenescope/scenescope/internal/feed"
	"github.com/scenescope/scenescope/internal/viewer"
)

// ExtensionName is the registry key for this extension.
const ExtensionName = "scenescope.heatmap"

const controlGroupID = "heatmap"

// State tracks the extension lifecycle. Unloaded is terminal.
type State int

const (
	StateUnregistered State = iota
	StateLoaded
	StateUIPending
	StateUIReady
	StateUnloaded
)

func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateLoaded:
		return "loaded"
	case StateUIPending:
		return "ui-pending"
	case StateUIReady:
		return "ui-ready"
	case StateUnloaded:
		return "unloaded"
	}
	return "unknown"
}

// ErrUnloaded is returned when a terminal extension instance is loaded again.
var ErrUnloaded = errors.New("heatmap extension instance is terminal after unload")

// Options configure the extension.
type Options struct {
	// Client serves heat data. Required.
	Client feed.Client
	// Schedule queues fn onto the host's update loop. Feed pushes and
	// resolved fetches arrive on foreign goroutines and must not touch
	// extension state directly. Defaults to a direct call, which is only
	// safe in tests.
	Schedule func(fn func())
	// OnParamsChanged is invoked after every parameter mutation, letting the
	// host mirror parameters into its field bindings.
	OnParamsChanged func(Params)
	Logger          *slog.Logger
}

// Extension wires the feed to the viewer's theming API and owns the panel,
// the toolbar control group, the subscription handle, and the current
// visualization parameters.
type Extension struct {
	client   feed.Client
	schedule func(fn func())
	onParams func(Params)
	logger   *slog.Logger

	viewer *viewer.Viewer
	state  State
	params Params
	panel  *Panel

	toolbarListener    viewer.ListenerID
	hasToolbarListener bool

	sub     feed.Subscription
	subMode Mode
	// generation numbers fetches and subscriptions; only results from the
	// newest generation may paint ("most recent call wins").
	generation int
	lastItems  []feed.Item
}

// New builds an unregistered extension.
func New(opts Options) *Extension {
	if opts.Schedule == nil {
		opts.Schedule = func(fn func()) { fn() }
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	e := &Extension{
		client:   opts.Client,
		schedule: opts.Schedule,
		onParams: opts.OnParamsChanged,
		logger:   opts.Logger,
		state:    StateUnregistered,
		params:   DefaultParams(),
		panel:    &Panel{},
	}
	e.panel.OnIntensity = func(delta float64) { e.SetIntensity(e.params.Intensity + delta) }
	e.panel.OnMode = func(next Mode) { e.SetMode(next) }
	return e
}

// Name implements extension.Extension.
func (e *Extension) Name() string { return ExtensionName }

// State returns the current lifecycle state.
func (e *Extension) State() State { return e.state }

// Params returns the current visualization parameters.
func (e *Extension) Params() Params { return e.params }

// Panel returns the extension's UI panel.
func (e *Extension) Panel() *Panel { return e.panel }

// LastItems returns the most recently applied item set.
func (e *Extension) LastItems() []feed.Item { return e.lastItems }

// Load attaches the extension to the viewer. If the toolbar already exists
// the UI is built immediately; otherwise a one-shot toolbar-created listener
// builds it later and deregisters itself.
func (e *Extension) Load(v *viewer.Viewer) error {
	if e.state == StateUnloaded {
		return ErrUnloaded
	}
	if e.state != StateUnregistered {
		return fmt.Errorf("heatmap extension already loaded (state %s)", e.state)
	}
	e.viewer = v
	e.state = StateLoaded

	if v.Toolbar() != nil {
		e.buildUI(v.Toolbar())
		return nil
	}

	e.state = StateUIPending
	e.toolbarListener = v.AddEventListener(viewer.EventToolbarCreated, func(ev viewer.Event) {
		tc := ev.(viewer.ToolbarCreatedEvent)
		v.RemoveEventListener(e.toolbarListener)
		e.hasToolbarListener = false
		e.buildUI(tc.Toolbar)
	})
	e.hasToolbarListener = true
	return nil
}

func (e *Extension) buildUI(tb *viewer.Toolbar) {
	group, err := tb.AddControlGroup(controlGroupID)
	if err != nil {
		// A stale group from a crashed predecessor; take it over.
		tb.RemoveControlGroup(controlGroupID)
		group, _ = tb.AddControlGroup(controlGroupID)
	}
	group.AddButton(&viewer.Button{
		ID:      "heatmap-toggle",
		Label:   "heat",
		Tooltip: "toggle heatmap",
		Hotkey:  "h",
		OnClick: e.Toggle,
	})
	group.AddButton(&viewer.Button{
		ID:      "heatmap-panel",
		Label:   "panel",
		Tooltip: "heatmap settings",
		Hotkey:  "p",
		OnClick: e.panel.Toggle,
	})
	e.state = StateUIReady
	e.logger.Debug("heatmap ui built")
}

// Toggle flips the enabled flag. Enabling fetches and subscribes; disabling
// clears applied colors but keeps the subscription warm so re-enable is
// cheap. Pushes that arrive while disabled are dropped, not painted.
func (e *Extension) Toggle() {
	if e.state != StateUIReady {
		return
	}
	if e.params.Enabled {
		e.disable()
	} else {
		e.enable()
	}
}

func (e *Extension) enable() {
	e.params.Enabled = true
	e.setButtonState("heatmap-toggle", viewer.ButtonActive)
	e.notifyParams()
	e.refresh()
}

func (e *Extension) disable() {
	e.params.Enabled = false
	e.setButtonState("heatmap-toggle", viewer.ButtonInactive)
	e.viewer.ClearThemingColors()
	e.viewer.Invalidate()
	e.notifyParams()
}

// SetIntensity clamps and applies a new intensity. When enabled, the last
// item set is re-painted with the new alpha.
func (e *Extension) SetIntensity(v float64) {
	e.params.Intensity = clamp01(v)
	e.notifyParams()
	if e.params.Enabled && len(e.lastItems) > 0 {
		ApplyColors(e.viewer, e.lastItems, e.params.Intensity)
	}
}

// SetMode switches the visualization mode. The warm subscription belongs to
// the old mode, so it is cancelled; an enabled extension refreshes
// immediately against the new mode.
func (e *Extension) SetMode(m Mode) {
	if !ValidMode(m) || m == e.params.Mode {
		return
	}
	e.params.Mode = m
	e.cancelSubscription()
	e.notifyParams()
	if e.params.Enabled {
		e.viewer.ClearThemingColors()
		e.refresh()
	}
}

// refresh starts a fetch+subscribe cycle for the current mode under a new
// generation. The fetch runs off-loop and re-enters through Schedule.
func (e *Extension) refresh() {
	e.generation++
	gen := e.generation
	mode := e.params.Mode

	e.resubscribe(mode)

	go func() {
		items, err := e.client.Load(context.Background(), string(mode))
		e.schedule(func() {
			if err != nil {
				// Keep prior coloring; a failed fetch is non-fatal.
				e.logger.Warn("heatmap fetch failed", slog.String("mode", string(mode)), slog.String("error", err.Error()))
				return
			}
			e.applyIfCurrent(gen, items)
		})
	}()
}

// resubscribe replaces the live subscription. The prior handle is always
// cancelled before a new one is created; a warm handle for the same mode is
// reused as-is.
func (e *Extension) resubscribe(mode Mode) {
	if e.sub != nil && e.subMode == mode {
		return
	}
	e.cancelSubscription()

	sub, err := e.client.Subscribe(string(mode), feed.Handlers{
		OnChange: func(items []feed.Item) {
			e.schedule(func() { e.applyPush(mode, items) })
		},
		OnError: func(err error) {
			// Log-only, no retry: the next toggle or mode switch
			// re-establishes the stream.
			e.schedule(func() {
				e.logger.Warn("heatmap subscription error", slog.String("mode", string(mode)), slog.String("error", err.Error()))
			})
		},
	})
	if err != nil {
		e.logger.Warn("heatmap subscribe failed", slog.String("mode", string(mode)), slog.String("error", err.Error()))
		return
	}
	e.sub = sub
	e.subMode = mode
}

// applyIfCurrent paints a fetched item set unless it belongs to a
// superseded generation, the extension has been disabled, or teardown
// happened while the data was in flight.
func (e *Extension) applyIfCurrent(gen int, items []feed.Item) {
	if e.state != StateUIReady || !e.params.Enabled || gen != e.generation {
		return
	}
	e.lastItems = items
	ApplyColors(e.viewer, items, e.params.Intensity)
}

// applyPush paints a pushed item set. A push is always the newest data for
// its mode, so it also bumps the generation to orphan slower fetches.
func (e *Extension) applyPush(mode Mode, items []feed.Item) {
	if e.state != StateUIReady || !e.params.Enabled || mode != e.params.Mode {
		return
	}
	e.generation++
	e.lastItems = items
	ApplyColors(e.viewer, items, e.params.Intensity)
}

func (e *Extension) cancelSubscription() {
	if e.sub == nil {
		return
	}
	if err := e.sub.Cancel(); err != nil {
		e.logger.Warn("heatmap unsubscribe failed", slog.String("error", err.Error()))
	}
	e.sub = nil
	e.subMode = ""
}

// Unload tears the extension down: toolbar control group removed, pending
// toolbar listener deregistered, subscription cancelled, theming cleared,
// parameters reset. The instance is terminal afterwards.
func (e *Extension) Unload() error {
	if e.state == StateUnloaded || e.viewer == nil {
		e.state = StateUnloaded
		return nil
	}
	if e.hasToolbarListener {
		e.viewer.RemoveEventListener(e.toolbarListener)
		e.hasToolbarListener = false
	}
	if tb := e.viewer.Toolbar(); tb != nil {
		tb.RemoveControlGroup(controlGroupID)
	}
	e.cancelSubscription()
	e.generation++ // orphan any in-flight fetch
	e.viewer.ClearThemingColors()
	e.viewer.Invalidate()
	e.params = DefaultParams()
	e.panel.Visible = false
	e.lastItems = nil
	e.state = StateUnloaded
	return nil
}

func (e *Extension) setButtonState(id string, s viewer.ButtonState) {
	tb := e.viewer.Toolbar()
	if tb == nil {
		return
	}
	group, ok := tb.Group(controlGroupID)
	if !ok {
		return
	}
	for _, b := range group.Buttons {
		if b.ID == id {
			b.State = s
			return
		}
	}
}

func (e *Extension) notifyParams() {
	if e.onParams != nil {
		e.onParams(e.params)
	}
}
