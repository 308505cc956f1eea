package audit

import (
	"context"
	"errors"
	"sync"
)

// Observer receives audit events.
type Observer interface {
	Notify(ctx context.Context, evt Event) error
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(context.Context, Event) error

// Notify calls f.
func (f ObserverFunc) Notify(ctx context.Context, evt Event) error {
	if f == nil {
		return nil
	}
	return f(ctx, evt)
}

// Publisher broadcasts audit events.
type Publisher interface {
	Publish(ctx context.Context, evt Event)
}

// Subject delivers each event to all attached observers concurrently and
// returns once every observer has finished.
type Subject struct {
	onError   func(error)
	observers []Observer
	mu        sync.RWMutex
}

var _ Publisher = (*Subject)(nil)

// NewSubject creates a subject, skipping nil observers.
func NewSubject(observers ...Observer) *Subject {
	s := &Subject{}
	s.Attach(observers...)
	return s
}

// Attach registers more observers.
func (s *Subject) Attach(observers ...Observer) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range observers {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// Len reports how many observers are attached.
func (s *Subject) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

// SetErrorHandler installs the callback that receives the joined observer failures.
func (s *Subject) SetErrorHandler(fn func(error)) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}

// Publish fans evt out to every observer.
func (s *Subject) Publish(ctx context.Context, evt Event) {
	if s == nil {
		return
	}
	s.mu.RLock()
	observers := append([]Observer(nil), s.observers...)
	onError := s.onError
	s.mu.RUnlock()
	if len(observers) == 0 {
		return
	}

	errs := make([]error, len(observers))
	var wg sync.WaitGroup
	for i, o := range observers {
		wg.Go(func() {
			errs[i] = o.Notify(ctx, evt)
		})
	}
	wg.Wait()

	if err := errors.Join(errs...); err != nil && onError != nil {
		onError(err)
	}
}
