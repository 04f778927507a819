package events

import "slices"

// EventCollector is embedded in aggregates to buffer the events they raise
// until a repository or publisher drains them.
type EventCollector struct {
	events []DomainEvent
}

// Record buffers events in order. Nil events are skipped.
func (c *EventCollector) Record(evts ...DomainEvent) {
	for _, e := range evts {
		if e != nil {
			c.events = append(c.events, e)
		}
	}
}

// Events returns a copy of the buffered events without draining them.
func (c *EventCollector) Events() []DomainEvent {
	return slices.Clone(c.events)
}

// ClearEvents drains the buffer.
func (c *EventCollector) ClearEvents() []DomainEvent {
	collected := c.events
	c.events = nil
	return collected
}
