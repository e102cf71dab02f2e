package record

import (
	"context"
	"sync"
)

// Event names a lifecycle hook.
type Event string

const (
	EventSaving   Event = "saving"
	EventSaved    Event = "saved"
	EventCreating Event = "creating"
	EventCreated  Event = "created"
	EventUpdating Event = "updating"
	EventUpdated  Event = "updated"
	EventDeleting Event = "deleting"
	EventDeleted  Event = "deleted"
)

// Listener handles an event. Returning an error from a saving, creating,
// updating or deleting listener cancels the operation where it can be canceled.
type Listener func(ctx context.Context, r *Record) error

// Dispatcher delivers lifecycle events.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event, r *Record) error
}

// Hooks is a Dispatcher that calls registered listeners in order.
type Hooks struct {
	mu        sync.RWMutex
	listeners map[Event][]Listener
}

var _ Dispatcher = (*Hooks)(nil)

// NewHooks creates an empty Hooks.
func NewHooks() *Hooks {
	return &Hooks{listeners: make(map[Event][]Listener)}
}

// On registers l for event.
func (h *Hooks) On(event Event, l Listener) *Hooks {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners[event] = append(h.listeners[event], l)
	return h
}

// Dispatch calls the listeners of event in registration order and stops at
// the first error.
func (h *Hooks) Dispatch(ctx context.Context, event Event, r *Record) error {
	h.mu.RLock()
	ls := append([]Listener(nil), h.listeners[event]...)
	h.mu.RUnlock()

	for _, l := range ls {
		if err := l(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
