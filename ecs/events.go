package ecs

// Event is a generic ECS event payload.
type Event struct {
	Type string
	Data any
}

// EventQueue is a FIFO of this tick's events plus synchronous observers.
// Observers run inside Push, in subscription order, before Push returns.
type EventQueue struct {
	items     []Event
	observers map[string][]func(Event)
}

// Push records an event and delivers it to observers of its type.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
	for _, fn := range q.observers[evt.Type] {
		fn(evt)
	}
}

// Subscribe registers fn for events of the given type.
func (q *EventQueue) Subscribe(eventType string, fn func(Event)) {
	if q == nil || fn == nil {
		return
	}
	if q.observers == nil {
		q.observers = make(map[string][]func(Event))
	}
	q.observers[eventType] = append(q.observers[eventType], fn)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) reset() {
	if q == nil {
		return
	}
	q.items = nil
}
