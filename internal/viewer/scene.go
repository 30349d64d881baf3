package viewer

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Element is a single addressable piece of scene geometry. ID is the key
// used by theming overrides and feed items.
type Element struct {
	ID       int     `yaml:"id"`
	Label    string  `yaml:"label"`
	Position Vec3    `yaml:"position"`
	Size     float64 `yaml:"size"`
}

// Scene is the loaded model: a flat element list plus its display name.
type Scene struct {
	Name     string    `yaml:"name"`
	Elements []Element `yaml:"elements"`
}

// ElementIDs returns all element ids in scene order.
func (s *Scene) ElementIDs() []int {
	ids := make([]int, len(s.Elements))
	for i, e := range s.Elements {
		ids[i] = e.ID
	}
	return ids
}

// Element returns the element with the given id.
func (s *Scene) Element(id int) (Element, bool) {
	for _, e := range s.Elements {
		if e.ID == id {
			return e, true
		}
	}
	return Element{}, false
}

// LoadScene reads a scene description from a YAML file.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	seen := make(map[int]bool, len(s.Elements))
	for _, e := range s.Elements {
		if seen[e.ID] {
			return nil, fmt.Errorf("scene %s: duplicate element id %d", s.Name, e.ID)
		}
		seen[e.ID] = true
	}
	return &s, nil
}

// DemoScene builds the built-in demo model: a two-story grid of rooms, one
// element per room. Used when no scene file is configured.
func DemoScene() *Scene {
	s := &Scene{Name: "demo-building"}
	id := 1
	for floor := 0; floor < 2; floor++ {
		for row := 0; row < 4; row++ {
			for col := 0; col < 4; col++ {
				s.Elements = append(s.Elements, Element{
					ID:    id,
					Label: fmt.Sprintf("room-%d-%d%d", floor+1, row+1, col+1),
					Position: Vec3{
						X: float64(col)*2.5 - 3.75,
						Y: float64(floor)*2.5 - 1.25,
						Z: float64(row)*2.5 - 3.75,
					},
					Size: 1.0,
				})
				id++
			}
		}
	}
	return s
}

// Bounds returns the scene's bounding radius, used for camera framing.
func (s *Scene) Bounds() float64 {
	r := 1.0
	for _, e := range s.Elements {
		if l := e.Position.Length() + e.Size; l > r {
			r = l
		}
	}
	return math.Ceil(r)
}
