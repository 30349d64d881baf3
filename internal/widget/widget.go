// Package widget embeds the viewer in a terminal UI: it owns the update
// loop, builds the toolbar after the first frame, routes keys to toolbar
// buttons and the heatmap panel, and renders scene, toolbar, and status.
package widget

import (
	"fmt"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/scenescope/scenescope/internal/binding"
	"github.com/scenescope/scenescope/internal/extension"
	"github.com/scenescope/scenescope/internal/field"
	"github.com/scenescope/scenescope/internal/heatmap"
	"github.com/scenescope/scenescope/internal/snapshot"
	"github.com/scenescope/scenescope/internal/viewer"
)

const (
	canvasWidth  = 72
	canvasHeight = 22
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).MarginBottom(1)
	frameStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444466"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	activeBtn   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000000")).Background(lipgloss.Color("#ffcc00")).Padding(0, 1)
	idleBtn     = lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Padding(0, 1)
)

type TickMsg time.Time

// Model is the widget's bubbletea model.
type Model struct {
	viewer    *viewer.Viewer
	registry  *extension.Registry
	heat      *heatmap.Extension
	bind      *binding.Context
	snapshots *snapshot.Store
	canvas    *viewer.Canvas
	theme     Theme
	frame     string
	frameRate int
	status    string
	logger    *slog.Logger
}

// NewModel wires the widget together. Extensions are expected to be
// registered and loaded already; the toolbar does not exist yet, so
// extensions sit in their UI-pending state until the first tick.
func NewModel(v *viewer.Viewer, reg *extension.Registry, heat *heatmap.Extension,
	bind *binding.Context, snaps *snapshot.Store, theme Theme, frameRate int, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.Default()
	}
	c := viewer.NewCanvas(canvasWidth, canvasHeight)
	v.Invalidate()
	return Model{
		viewer:    v,
		registry:  reg,
		heat:      heat,
		bind:      bind,
		snapshots: snaps,
		canvas:    c,
		theme:     theme,
		frameRate: frameRate,
		logger:    logger,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.frameRate), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input, deferred callbacks, and the frame tick.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case CallbackMsg:
		msg.Fn()
		return m, nil
	case TickMsg:
		// The toolbar exists only after the widget has started rendering;
		// creating it here releases any UI-pending extensions.
		if m.viewer.Toolbar() == nil {
			m.viewer.CreateToolbar()
			m.viewer.Invalidate()
		}
		if m.viewer.ConsumeInvalidation() {
			m.viewer.RenderFrame(m.canvas, m.theme.Element)
			m.frame = m.canvas.String()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left":
		m.viewer.Camera().RotateY(-0.1)
		m.viewer.Invalidate()
	case "right":
		m.viewer.Camera().RotateY(0.1)
		m.viewer.Invalidate()
	case "up":
		m.viewer.Camera().RotateX(0.1)
		m.viewer.Invalidate()
	case "down":
		m.viewer.Camera().RotateX(-0.1)
		m.viewer.Invalidate()
	case "z":
		m.viewer.Camera().ZoomIn()
		m.viewer.Invalidate()
	case "x":
		m.viewer.Camera().ZoomOut()
		m.viewer.Invalidate()
	case "+", "=":
		m.heat.Panel().AdjustIntensity(true)
	case "-", "_":
		m.heat.Panel().AdjustIntensity(false)
	case "m":
		m.heat.Panel().CycleMode(m.heat.Params().Mode)
		m.status = fmt.Sprintf("mode: %s", m.heat.Params().Mode)
	case "t":
		m.theme = NextTheme(m.theme.Name)
		m.viewer.Invalidate()
	case "c":
		m.captureSnapshot()
	default:
		if tb := m.viewer.Toolbar(); tb != nil {
			if btn, ok := tb.ButtonByHotkey(key); ok {
				btn.Click()
			}
		}
	}
	return m, nil
}

func (m *Model) captureSnapshot() {
	if m.snapshots == nil {
		return
	}
	items := m.heat.LastItems()
	if len(items) == 0 {
		m.status = "no feed data to capture"
		return
	}
	id, err := m.snapshots.Save(string(m.heat.Params().Mode), items)
	if err != nil {
		m.status = "capture failed: " + err.Error()
		m.logger.Warn("snapshot save failed", slog.String("error", err.Error()))
		return
	}
	m.status = "captured " + id
}

// SyncParams mirrors heatmap parameters into the platform binding fields.
// Wired as the extension's OnParamsChanged callback.
func SyncParams(bind *binding.Context, logger *slog.Logger) func(heatmap.Params) {
	return func(p heatmap.Params) {
		if err := bind.SetString(field.HeatmapMode, string(p.Mode)); err != nil {
			logger.Warn("field sync failed", slog.String("error", err.Error()))
		}
		if err := bind.SetNumber(field.Intensity, p.Intensity); err != nil {
			logger.Warn("field sync failed", slog.String("error", err.Error()))
		}
	}
}

func (m Model) View() string {
	title := titleStyle.Foreground(m.theme.Primary).Render("scenescope — " + m.viewer.Scene().Name)
	frame := frameStyle.Render(m.frame)

	main := frame
	if panel := m.heat.Panel().View(m.heat.Params(), m.heat.LastItems()); panel != "" {
		main = lipgloss.JoinHorizontal(lipgloss.Top, frame, " ", panel)
	}

	var footer string
	if m.status != "" {
		footer = statusStyle.Render(m.status) + "\n"
	}
	footer += helpStyle.Render("arrows rotate · z/x zoom · +/- intensity · m mode · t theme · c capture · q quit")

	return lipgloss.JoinVertical(lipgloss.Left, title, m.toolbarView(), main, footer)
}

func (m Model) toolbarView() string {
	tb := m.viewer.Toolbar()
	if tb == nil {
		return statusStyle.Render("loading toolbar…")
	}
	var parts []string
	for _, g := range tb.Groups() {
		for _, b := range g.Buttons {
			label := fmt.Sprintf("%s [%s]", b.Label, b.Hotkey)
			if b.State == viewer.ButtonActive {
				parts = append(parts, activeBtn.Render(label))
			} else {
				parts = append(parts, idleBtn.Render(label))
			}
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}
