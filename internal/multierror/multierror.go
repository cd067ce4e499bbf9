package multierror

import (
	"fmt"
	"strings"
	"sync"
)

// Error accumulates errors keyed by an identifier, typically a node ID,
// so that a fan-out call can report which peers failed and why.
type Error[T comparable] struct {
	mu     sync.Mutex
	errors map[T]error
}

// New creates an empty Error.
func New[T comparable]() *Error[T] {
	return &Error[T]{
		errors: make(map[T]error),
	}
}

// Error returns a string representation of the error.
func (m *Error[T]) Error() string {
	var msg string
	for k, v := range m.errors {
		msg += fmt.Sprintf("%v:%s; ", k, v)
	}

	return strings.TrimRight(msg, "; ")
}

// Add records an error under the given key.
func (m *Error[T]) Add(key T, err error) {
	m.mu.Lock()
	m.errors[key] = err
	m.mu.Unlock()
}

// Get returns an error by key.
func (m *Error[T]) Get(key T) (error, bool) {
	if v := m.errors[key]; v != nil {
		return v, true
	}

	return nil, false
}

// Keys returns the keys of all recorded errors.
func (m *Error[T]) Keys() []T {
	keys := make([]T, 0, len(m.errors))
	for k := range m.errors {
		keys = append(keys, k)
	}

	return keys
}

// Len returns the number of errors.
func (m *Error[T]) Len() int {
	return len(m.errors)
}

// Combined returns the Error if it contains any errors, nil otherwise.
func (m *Error[T]) Combined() error {
	if len(m.errors) == 0 {
		return nil
	}

	return m
}
