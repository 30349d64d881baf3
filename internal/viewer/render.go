package viewer

import (
	"math"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille patterns: 2x4 dots per cell, unicode offset 0x2800.
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille pixel canvas with a per-cell foreground color, so
// theming overrides survive down to the rendered frame.
type Canvas struct {
	Width, Height int
	grid          [][]rune
	colors        [][]lipgloss.Color
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		grid:   make([][]rune, h),
		colors: make([][]lipgloss.Color, h),
	}
	for i := range c.grid {
		c.grid[i] = make([]rune, w)
		c.colors[i] = make([]lipgloss.Color, w)
		for j := range c.grid[i] {
			c.grid[i][j] = 0x2800
		}
	}
	return c
}

// Set lights the sub-pixel at (x, y). The canvas is (Width*2) x (Height*4)
// sub-pixels. The last color written to a cell wins.
func (c *Canvas) Set(x, y int, col lipgloss.Color) {
	if x < 0 || y < 0 {
		return
	}
	cx := x / 2
	cy := y / 4
	if cx >= c.Width || cy >= c.Height {
		return
	}
	c.grid[cy][cx] |= rune(pixelMap[y%4][x%2])
	c.colors[cy][cx] = col
}

// Clear resets the canvas.
func (c *Canvas) Clear() {
	for i := range c.grid {
		for j := range c.grid[i] {
			c.grid[i][j] = 0x2800
			c.colors[i][j] = ""
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for y := range c.grid {
		x := 0
		for x < c.Width {
			col := c.colors[y][x]
			run := x
			for run < c.Width && c.colors[y][run] == col {
				run++
			}
			seg := string(c.grid[y][x:run])
			if col == "" {
				b.WriteString(seg)
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(col).Render(seg))
			}
			x = run
		}
		b.WriteString("\n")
	}
	return b.String()
}

// Vec3 is a point in scene space.
type Vec3 struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	Z float64 `yaml:"z"`
}

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Length() float64      { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }

// Camera projects scene space onto the canvas.
type Camera struct {
	Distance         float64
	Near             float64
	RotX, RotY, RotZ float64
	Zoom             float64
}

func NewCamera() *Camera {
	return &Camera{Distance: 50, Near: 0.1, Zoom: 1.0, RotX: 0.4, RotY: 0.6}
}

func (c *Camera) RotateX(a float64) { c.RotX += a }
func (c *Camera) RotateY(a float64) { c.RotY += a }
func (c *Camera) ZoomIn()           { c.Zoom = math.Min(10, c.Zoom*1.2) }
func (c *Camera) ZoomOut()          { c.Zoom = math.Max(0.1, c.Zoom/1.2) }

func (c *Camera) rotate(p Vec3) Vec3 {
	cx, sx := math.Cos(c.RotX), math.Sin(c.RotX)
	p.Y, p.Z = p.Y*cx-p.Z*sx, p.Y*sx+p.Z*cx
	cy, sy := math.Cos(c.RotY), math.Sin(c.RotY)
	p.X, p.Z = p.X*cy+p.Z*sy, -p.X*sy+p.Z*cy
	cz, sz := math.Cos(c.RotZ), math.Sin(c.RotZ)
	p.X, p.Y = p.X*cz-p.Y*sz, p.X*sz+p.Y*cz
	return p
}

// Project converts a scene point to sub-pixel canvas coordinates.
// Returns x, y, depth, and whether the point is in front of the camera.
func (c *Camera) Project(p Vec3, sw, sh int) (int, int, float64, bool) {
	rot := c.rotate(p).Scale(c.Zoom)
	if rot.Z >= c.Distance-c.Near {
		return 0, 0, 0, false
	}
	scale := c.Distance / (c.Distance - rot.Z)
	minDim := math.Min(float64(sw), float64(sh))
	pScale := minDim / 12.0
	sx := int(rot.X*scale*pScale) + sw/2
	sy := int(-rot.Y*scale*pScale) + sh/2
	return sx, sy, rot.Z, true
}

type projected struct {
	x, y  int
	size  int
	depth float64
	color lipgloss.Color
}

// Render draws the scene onto the canvas using a painter's algorithm:
// far elements first, theming overrides resolved per element.
func Render(c *Canvas, s *Scene, cam *Camera, colorFor func(id int) lipgloss.Color) {
	if c == nil || s == nil || cam == nil {
		return
	}
	c.Clear()
	sw, sh := c.Width*2, c.Height*4

	proj := make([]projected, 0, len(s.Elements))
	for _, e := range s.Elements {
		x, y, depth, ok := cam.Project(e.Position, sw, sh)
		if !ok {
			continue
		}
		size := int(math.Max(1, e.Size*cam.Zoom*2))
		proj = append(proj, projected{x: x, y: y, size: size, depth: depth, color: colorFor(e.ID)})
	}
	sort.Slice(proj, func(i, j int) bool { return proj[i].depth < proj[j].depth })

	for _, p := range proj {
		for dy := -p.size; dy <= p.size; dy++ {
			for dx := -p.size; dx <= p.size; dx++ {
				c.Set(p.x+dx, p.y+dy, p.color)
			}
		}
	}
}
