package checkout

import (
	"sync"
	"time"
)

// ErrorTTL is how long a raised error stays visible unless dismissed first.
const ErrorTTL = 5000 * time.Millisecond

type raised struct {
	FormError
	expires time.Time
}

// Errors is the list of form errors currently shown to the shopper. Each
// error expires on its own; expired entries are dropped when the list is read.
type Errors struct {
	mu    sync.Mutex
	items []raised

	Now func() time.Time
}

func NewErrors() *Errors {
	return &Errors{Now: time.Now}
}

// Raise replaces the visible errors with errs.
func (e *Errors) Raise(errs []FormError) {
	e.mu.Lock()
	defer e.mu.Unlock()

	expires := e.now().Add(ErrorTTL)
	e.items = e.items[:0]
	for _, formErr := range errs {
		e.items = append(e.items, raised{FormError: formErr, expires: expires})
	}
}

// Dismiss removes the error with id. It reports whether it was still visible.
func (e *Errors) Dismiss(id int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.expire()
	for i, item := range e.items {
		if item.ID == id {
			e.items = append(e.items[:i], e.items[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns the errors that are neither dismissed nor expired.
func (e *Errors) Active() []FormError {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.expire()
	active := make([]FormError, 0, len(e.items))
	for _, item := range e.items {
		active = append(active, item.FormError)
	}
	return active
}

func (e *Errors) now() time.Time {
	if e.Now == nil {
		return time.Now()
	}
	return e.Now()
}

func (e *Errors) expire() {
	now := e.now()
	kept := e.items[:0]
	for _, item := range e.items {
		if now.Before(item.expires) {
			kept = append(kept, item)
		}
	}
	e.items = kept
}
