package game

// EventKind names a notification emitted by a Round.
type EventKind string

const (
	EventStarted EventKind = "started" // new secret word, letters, full time
	EventTick    EventKind = "tick"    // time left changed
	EventScore   EventKind = "score"   // a guess was accepted
	EventEnded   EventKind = "ended"   // countdown reached zero
)

// Event carries the round state as of the change. Result is set for
// EventScore only.
type Event struct {
	Kind     EventKind `json:"kind"`
	Snapshot Snapshot  `json:"snapshot"`
	Result   *Result   `json:"result,omitempty"`
}

// Listener receives round events in the order the round changed. Calls
// happen outside the round lock, on whichever goroutine is draining the
// round's event queue, so a listener may read or drive the round. It must
// not block for long: the countdown waits for it.
type Listener interface {
	OnEvent(Event)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(Event)

// OnEvent calls f(e).
func (f ListenerFunc) OnEvent(e Event) { f(e) }

type subscription struct {
	id int
	l  Listener
}
