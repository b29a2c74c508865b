package verify

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry holds the handlers available to the engine. Handlers are
// registered at startup; lookups are safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	users    Users
	handlers []Handler
	byID     map[string]Handler
}

// NewRegistry returns an empty registry reading per-user state from users.
func NewRegistry(users Users) *Registry {
	return &Registry{users: users, byID: map[string]Handler{}}
}

// Register adds h. Ids must be unique.
func (r *Registry) Register(h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[h.ID()]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateHandler, h.ID())
	}
	r.byID[h.ID()] = h
	r.handlers = append(r.handlers, h)
	sort.SliceStable(r.handlers, func(i, j int) bool {
		return r.handlers[i].Position() < r.handlers[j].Position()
	})
	return nil
}

// Get returns the handler registered under id.
func (r *Registry) Get(id string) (Handler, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	h, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, id)
	}
	return h, nil
}

// List returns handlers by ascending position, ties in registration order.
func (r *Registry) List() []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Handler, len(r.handlers))
	copy(out, r.handlers)
	return out
}

// UserHandlers returns, in registry order, the handlers userID can verify
// with: non-switchable handlers and the ones the user enabled, provided the
// handler is configured for the user.
func (r *Registry) UserHandlers(ctx context.Context, userID string) ([]Handler, error) {
	var out []Handler
	for _, h := range r.List() {
		if h.Switchable() {
			v, err := r.users.Attribute(ctx, userID, EnabledAttr(h.ID()))
			if err != nil {
				return nil, err
			}
			if !Truthy(v) {
				continue
			}
		}
		ok, err := h.Configured(ctx, userID)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, h)
		}
	}
	return out, nil
}

// Enabled reports whether handler id is among userID's handlers.
func (r *Registry) Enabled(ctx context.Context, userID, id string) (bool, error) {
	handlers, err := r.UserHandlers(ctx, userID)
	if err != nil {
		return false, err
	}
	for _, h := range handlers {
		if h.ID() == id {
			return true, nil
		}
	}
	return false, nil
}
