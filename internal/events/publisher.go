// Package events carries committed style events to subscribers outside the database.
package events

import (
	"context"
	"errors"
	"sync"

	"github.com/havaxeban925-ux/scm-backend/internal/app/model"
)

// Publisher delivers one committed event. Delivery is best effort: callers log
// failures and never roll back the change that produced the event.
type Publisher interface {
	Publish(ctx context.Context, event model.StyleEvent) error
}

// Multi fans an event out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event model.StyleEvent) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, model.StyleEvent) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []model.StyleEvent
}

func (r *Recorder) Publish(_ context.Context, event model.StyleEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []model.StyleEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.StyleEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the published event types in order.
func (r *Recorder) Types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]model.EventType, 0, len(r.events))
	for _, e := range r.events {
		types = append(types, e.Type)
	}
	return types
}
