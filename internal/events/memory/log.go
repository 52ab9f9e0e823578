package memory

import (
	"context"
	"sync"

	interfaces "github.com/sheikh-saqib/idea-funding-ledger/internal/interfaces"
	"github.com/sheikh-saqib/idea-funding-ledger/internal/models/events"
)

// Log is an append-only in-process event log.
type Log struct {
	mu     sync.Mutex
	events []events.Event
}

func NewLog() *Log {
	return &Log{events: make([]events.Event, 0)}
}

func (l *Log) Publish(ctx context.Context, event events.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
	return nil
}

// Events returns a copy of everything published so far, in publish order.
func (l *Log) Events() []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	copied := make([]events.Event, len(l.events))
	copy(copied, l.events)
	return copied
}

// ForIdea returns the events of one idea in publish order.
func (l *Log) ForIdea(id int64) []events.Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	var out []events.Event
	for _, e := range l.events {
		if e.IdeaID() == id {
			out = append(out, e)
		}
	}
	return out
}

var _ interfaces.EventPublisher = (*Log)(nil)
