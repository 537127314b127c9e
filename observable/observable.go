// observable/observable.go

/* The observable package implements a named multi-listener event channel. Event names are
declared once at construction; subscribing to or notifying an undeclared event is a
programmer error. Callback failures are isolated per callback so that one misbehaving
listener never prevents the remaining listeners from running. */
package observable

import (
	"fmt"
	"sync"

	"github.com/scantheory/go-scanner-http-client/logger"
	"go.uber.org/zap"
)

// Callback is a listener attached to a named event. Arguments are passed through
// positionally from Notify.
type Callback func(args ...interface{})

// ErrUnknownEvent is returned when subscribing to or notifying an event name that was
// not declared at construction time.
type ErrUnknownEvent struct {
	Event string
}

func (e *ErrUnknownEvent) Error() string {
	return fmt.Sprintf("unknown event: %q", e.Event)
}

// ErrMissingCallback is returned when On is called without a callback.
type ErrMissingCallback struct {
	Event string
}

func (e *ErrMissingCallback) Error() string {
	return fmt.Sprintf("missing callback for event: %q", e.Event)
}

// Observable is a per-instance registry of event-name-keyed callback lists.
// All methods are safe for concurrent use.
type Observable struct {
	mu        sync.Mutex
	declared  map[string]struct{}
	observers map[string][]Callback
	log       logger.Logger
}

// New creates an Observable with the given statically declared event names.
func New(log logger.Logger, events ...string) *Observable {
	declared := make(map[string]struct{}, len(events))
	for _, event := range events {
		declared[event] = struct{}{}
	}
	return &Observable{
		declared:  declared,
		observers: make(map[string][]Callback, len(events)),
		log:       log,
	}
}

// On subscribes cb to the named event. Callbacks fire in subscription order.
func (o *Observable) On(event string, cb Callback) error {
	if cb == nil {
		return &ErrMissingCallback{Event: event}
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.declared[event]; !ok {
		return &ErrUnknownEvent{Event: event}
	}
	o.observers[event] = append(o.observers[event], cb)
	return nil
}

// Notify dispatches the named event to every subscribed callback in subscription order.
// A callback that panics does not abort dispatch of the remaining callbacks; the failure
// is logged and iteration continues.
func (o *Observable) Notify(event string, args ...interface{}) error {
	o.mu.Lock()
	if _, ok := o.declared[event]; !ok {
		o.mu.Unlock()
		return &ErrUnknownEvent{Event: event}
	}
	callbacks := make([]Callback, len(o.observers[event]))
	copy(callbacks, o.observers[event])
	o.mu.Unlock()

	for _, cb := range callbacks {
		o.guarded(event, cb, args...)
	}
	return nil
}

// Take atomically snapshots and clears the callback list of the named event, returning
// the snapshot. Callbacks subscribed after Take accumulate into a fresh list.
func (o *Observable) Take(event string) []Callback {
	o.mu.Lock()
	defer o.mu.Unlock()

	callbacks := o.observers[event]
	delete(o.observers, event)
	return callbacks
}

// Count returns the number of callbacks currently subscribed to the named event.
func (o *Observable) Count(event string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.observers[event])
}

// ClearObservers removes every subscription from every event.
func (o *Observable) ClearObservers() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.observers = make(map[string][]Callback, len(o.declared))
}

// Snapshot returns a copy of the current observer map, for later restoration via Restore.
func (o *Observable) Snapshot() map[string][]Callback {
	o.mu.Lock()
	defer o.mu.Unlock()

	snapshot := make(map[string][]Callback, len(o.observers))
	for event, callbacks := range o.observers {
		dup := make([]Callback, len(callbacks))
		copy(dup, callbacks)
		snapshot[event] = dup
	}
	return snapshot
}

// Restore replaces the current observer map with a snapshot previously taken via Snapshot.
func (o *Observable) Restore(snapshot map[string][]Callback) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.observers = make(map[string][]Callback, len(snapshot))
	for event, callbacks := range snapshot {
		dup := make([]Callback, len(callbacks))
		copy(dup, callbacks)
		o.observers[event] = dup
	}
}

// Guard runs fn, capturing and logging a panic instead of letting it unwind the caller.
func (o *Observable) Guard(context string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Warn("Callback failed",
				zap.String("context", context),
				zap.Any("panic", r))
		}
	}()
	fn()
}

func (o *Observable) guarded(event string, cb Callback, args ...interface{}) {
	o.Guard(event, func() { cb(args...) })
}
