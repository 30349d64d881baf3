package heatmap

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/scenescope/scenescope/internal/feed"
)

const intensityStep = 0.05

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 1).
			Width(34)
	panelTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))
	panelLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899")).Width(11)
	panelValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ccff"))
	sparkHigh       = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	sparkMid        = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	sparkLow        = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
)

// Panel is the heatmap control surface: an intensity slider and a mode
// selector. It never mutates parameters itself; every change goes through
// the callbacks the extension wires in.
type Panel struct {
	Visible     bool
	OnIntensity func(delta float64)
	OnMode      func(next Mode)
}

// AdjustIntensity reports a slider step to the extension.
func (p *Panel) AdjustIntensity(up bool) {
	if p.OnIntensity == nil {
		return
	}
	d := intensityStep
	if !up {
		d = -intensityStep
	}
	p.OnIntensity(d)
}

// CycleMode reports a mode change to the extension.
func (p *Panel) CycleMode(current Mode) {
	if p.OnMode == nil {
		return
	}
	p.OnMode(NextMode(current))
}

// Toggle flips panel visibility.
func (p *Panel) Toggle() { p.Visible = !p.Visible }

// View renders the panel for the current parameters and last item set.
func (p *Panel) View(params Params, items []feed.Item) string {
	if !p.Visible {
		return ""
	}

	status := "off"
	if params.Enabled {
		status = "on"
	}

	var b strings.Builder
	b.WriteString(panelTitleStyle.Render("Heatmap") + "\n")
	b.WriteString(panelLabelStyle.Render("status") + panelValueStyle.Render(status) + "\n")
	b.WriteString(panelLabelStyle.Render("mode") + panelValueStyle.Render(string(params.Mode)) + " (m)\n")
	b.WriteString(panelLabelStyle.Render("intensity") + intensityBar(params.Intensity, 14) +
		panelValueStyle.Render(fmt.Sprintf(" %.2f", params.Intensity)) + " (+/-)\n")
	b.WriteString(panelLabelStyle.Render("elements") + panelValueStyle.Render(fmt.Sprintf("%d", len(items))) + "\n")
	if len(items) > 0 {
		b.WriteString(panelLabelStyle.Render("heat") + heatSparkline(items, 18))
	}
	return panelStyle.Render(b.String())
}

func intensityBar(v float64, width int) string {
	filled := int(clamp01(v) * float64(width))
	return sparkMid.Render(strings.Repeat("█", filled)) +
		strings.Repeat("░", width-filled)
}

// heatSparkline renders item heat values as a colored mini bar chart.
func heatSparkline(items []feed.Item, width int) string {
	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	step := len(items) / width
	if step < 1 {
		step = 1
	}
	var b strings.Builder
	for i := 0; i < width && i*step < len(items); i++ {
		h := clamp01(items[i*step].Heat)
		c := string(chars[int(h*float64(len(chars)-1))])
		switch {
		case h > 0.7:
			b.WriteString(sparkHigh.Render(c))
		case h > 0.3:
			b.WriteString(sparkMid.Render(c))
		default:
			b.WriteString(sparkLow.Render(c))
		}
	}
	return b.String()
}
