package engine

type EventKind string

const (
	EventAdded     EventKind = "added"
	EventUpdated   EventKind = "updated"
	EventDeleted   EventKind = "deleted"
	EventMoved     EventKind = "moved"
	EventSelection EventKind = "selection"
	EventSettings  EventKind = "settings"
	EventLoaded    EventKind = "loaded"
	EventReset     EventKind = "reset"
)

// Event describes one committed change. IDs lists the affected node ids; for
// EventSelection it is the new selection. Seq increases by one per event.
type Event struct {
	Kind EventKind `json:"kind"`
	IDs  []string  `json:"ids,omitempty"`
	Seq  uint64    `json:"seq"`
}

// Structural reports whether the event changed the node tree, as opposed to
// selection or settings only.
func (ev Event) Structural() bool {
	switch ev.Kind {
	case EventSelection, EventSettings:
		return false
	}
	return true
}
