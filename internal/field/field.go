package field

import (
	"errors"
	"fmt"
)

// Direction describes which way a field's value flows between the host
// platform and the widget.
type Direction string

const (
	Input       Direction = "input"
	Output      Direction = "output"
	InputOutput Direction = "inputOutput"
)

// ValueType is the wire type of a field value.
type ValueType string

const (
	String     ValueType = "string"
	Number     ValueType = "number"
	NumberList ValueType = "numberList"
)

// Descriptor declares a single field exchanged with the host platform.
// The set is fixed at startup; the binding layer reads it, nothing mutates it.
type Descriptor struct {
	ID        string    `yaml:"id"`
	Direction Direction `yaml:"direction"`
	ValueType ValueType `yaml:"type"`
	Default   any       `yaml:"default,omitempty"`
	Label     string    `yaml:"label"`
}

// Well-known field IDs.
const (
	ModelURL      = "modelUrl"
	HeatmapMode   = "heatmapMode"
	Intensity     = "intensity"
	SelectedIDs   = "selectedIds"
	StatusMessage = "statusMessage"
)

// Fields returns the complete field configuration for the viewer widget.
// Adding a field here requires no change elsewhere except the code that
// reads or writes it.
func Fields() []Descriptor {
	return []Descriptor{
		{ID: ModelURL, Direction: Input, ValueType: String, Default: "", Label: "Model URL"},
		{ID: HeatmapMode, Direction: InputOutput, ValueType: String, Default: "temperature", Label: "Heatmap mode"},
		{ID: Intensity, Direction: InputOutput, ValueType: Number, Default: 0.5, Label: "Heatmap intensity"},
		{ID: SelectedIDs, Direction: Output, ValueType: NumberList, Default: []float64{}, Label: "Selected element ids"},
		{ID: StatusMessage, Direction: Output, ValueType: String, Default: "", Label: "Status message"},
	}
}

func (d Direction) valid() bool {
	switch d {
	case Input, Output, InputOutput:
		return true
	}
	return false
}

func (t ValueType) valid() bool {
	switch t {
	case String, Number, NumberList:
		return true
	}
	return false
}

// Validate checks a field set for duplicate or empty IDs and unknown
// direction or type values. All problems are reported, not just the first.
func Validate(set []Descriptor) error {
	var errs []error
	seen := make(map[string]bool, len(set))
	for _, d := range set {
		if d.ID == "" {
			errs = append(errs, errors.New("field with empty id"))
			continue
		}
		if seen[d.ID] {
			errs = append(errs, fmt.Errorf("duplicate field id: %s", d.ID))
		}
		seen[d.ID] = true
		if !d.Direction.valid() {
			errs = append(errs, fmt.Errorf("field %s: unknown direction %q", d.ID, d.Direction))
		}
		if !d.ValueType.valid() {
			errs = append(errs, fmt.Errorf("field %s: unknown value type %q", d.ID, d.ValueType))
		}
	}
	return errors.Join(errs...)
}

// Lookup returns the descriptor for id, if present.
func Lookup(set []Descriptor, id string) (Descriptor, bool) {
	for _, d := range set {
		if d.ID == id {
			return d, true
		}
	}
	return Descriptor{}, false
}
