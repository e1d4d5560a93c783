// Package command provides the dispatch table the transport layer uses to
// run commands attached to completion items.
//
// Each command is registered under a fixed identifier. When a selection
// event carries that identifier, the transport calls Execute with the
// arguments stored on the item.
package command

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Errors returned by Registry.
var (
	// ErrUnknownCommand indicates no handler is registered for the identifier.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrAlreadyRegistered indicates the identifier is taken.
	ErrAlreadyRegistered = errors.New("command already registered")
)

// Handler runs a command with its arguments.
type Handler func(ctx context.Context, args []any) (any, error)

// Executor runs registered commands by identifier.
type Executor interface {
	Execute(ctx context.Context, id string, args ...any) (any, error)
}

// Registry maps command identifiers to handlers. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry creates an empty command registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[string]Handler),
	}
}

// Register adds a handler under id. Registering an id twice fails.
func (r *Registry) Register(id string, h Handler) error {
	if id == "" || h == nil {
		return fmt.Errorf("register command %q: empty id or nil handler", id)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.handlers[id]; ok {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, id)
	}
	r.handlers[id] = h
	return nil
}

// Unregister removes the handler for id, if any.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, id)
}

// Has returns true if a handler is registered for id.
func (r *Registry) Has(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.handlers[id]
	return ok
}

// List returns all registered identifiers in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.handlers))
	for id := range r.handlers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Execute runs the handler registered for id.
func (r *Registry) Execute(ctx context.Context, id string, args ...any) (any, error) {
	r.mu.RLock()
	h, ok := r.handlers[id]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return h(ctx, args)
}
