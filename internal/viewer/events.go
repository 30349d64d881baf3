package viewer

// EventKind discriminates viewer events. Payloads are tagged variants, one
// type per kind, never loose maps.
type EventKind string

const (
	EventToolbarCreated EventKind = "toolbarCreated"
	EventSelection      EventKind = "selectionChanged"
)

// Event is implemented by all viewer event payloads.
type Event interface {
	Kind() EventKind
}

// ToolbarCreatedEvent fires once, when the viewer toolbar becomes available.
type ToolbarCreatedEvent struct {
	Toolbar *Toolbar
}

func (ToolbarCreatedEvent) Kind() EventKind { return EventToolbarCreated }

// SelectionEvent reports the currently selected element ids.
type SelectionEvent struct {
	IDs []int
}

func (SelectionEvent) Kind() EventKind { return EventSelection }
