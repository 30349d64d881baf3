package viewer

import "fmt"

// ButtonState mirrors the two-state toggle buttons the toolbar hosts.
type ButtonState int

const (
	ButtonInactive ButtonState = iota
	ButtonActive
)

// Button is a toolbar control. OnClick runs on the update loop when the
// button's hotkey is pressed; toggling state is the handler's job.
type Button struct {
	ID      string
	Label   string
	Tooltip string
	Hotkey  string
	State   ButtonState
	OnClick func()
}

// Click invokes the handler if one is set.
func (b *Button) Click() {
	if b.OnClick != nil {
		b.OnClick()
	}
}

// ControlGroup is a named cluster of buttons owned by one extension.
type ControlGroup struct {
	ID      string
	Buttons []*Button
}

// AddButton appends a button to the group.
func (g *ControlGroup) AddButton(b *Button) { g.Buttons = append(g.Buttons, b) }

// Toolbar holds the viewer's control groups. It does not exist until the
// widget has rendered its first frame; extensions that load earlier wait on
// the toolbar-created event.
type Toolbar struct {
	groups []*ControlGroup
}

// AddControlGroup creates and returns a new group. Duplicate ids are
// rejected so extensions cannot trample each other.
func (t *Toolbar) AddControlGroup(id string) (*ControlGroup, error) {
	for _, g := range t.groups {
		if g.ID == id {
			return nil, fmt.Errorf("control group %s already exists", id)
		}
	}
	g := &ControlGroup{ID: id}
	t.groups = append(t.groups, g)
	return g, nil
}

// RemoveControlGroup deletes the group with the given id.
func (t *Toolbar) RemoveControlGroup(id string) bool {
	for i, g := range t.groups {
		if g.ID == id {
			t.groups = append(t.groups[:i], t.groups[i+1:]...)
			return true
		}
	}
	return false
}

// Group returns the control group with the given id.
func (t *Toolbar) Group(id string) (*ControlGroup, bool) {
	for _, g := range t.groups {
		if g.ID == id {
			return g, true
		}
	}
	return nil, false
}

// Groups returns all control groups in creation order.
func (t *Toolbar) Groups() []*ControlGroup { return t.groups }

// ButtonByHotkey finds the first button bound to key across all groups.
func (t *Toolbar) ButtonByHotkey(key string) (*Button, bool) {
	for _, g := range t.groups {
		for _, b := range g.Buttons {
			if b.Hotkey == key {
				return b, true
			}
		}
	}
	return nil, false
}
