package external

import (
	"context"
	"errors"
	"sync"

	"github.com/goliatone/go-auth-workflows"
)

// Dispatcher fans external login events out to registered handlers.
//
// GenerateUserName asks handlers in registration order and returns the first
// non-empty name. Handlers answering ErrNotImplemented are skipped.
// UpdateRoles invokes every handler; failures are logged and joined.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []ExternalLoginEventHandler
	logger   auth.Logger
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithHandler registers a handler.
func WithHandler(h ExternalLoginEventHandler) DispatcherOption {
	return func(d *Dispatcher) {
		d.Register(h)
	}
}

// WithLogger sets the dispatcher logger.
func WithLogger(logger auth.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

var _ ExternalLoginEventHandler = (*Dispatcher)(nil)

// NewDispatcher creates a dispatcher.
func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{logger: auth.DefaultLogger("EXTERNAL")}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Register adds h to the dispatcher. Nil handlers are ignored.
func (d *Dispatcher) Register(h ExternalLoginEventHandler) {
	if h == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

// Handlers returns a snapshot of the registered handlers.
func (d *Dispatcher) Handlers() []ExternalLoginEventHandler {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]ExternalLoginEventHandler(nil), d.handlers...)
}

// GenerateUserName implements ExternalLoginEventHandler.
func (d *Dispatcher) GenerateUserName(ctx context.Context, provider string, claims []ExternalUserClaim) (string, error) {
	var errs []error
	for _, h := range d.Handlers() {
		name, err := h.GenerateUserName(ctx, provider, claims)
		if err != nil {
			if errors.Is(err, ErrNotImplemented) {
				continue
			}
			errs = append(errs, err)
			continue
		}
		if name != "" {
			return name, nil
		}
	}

	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return "", ErrNotImplemented
}

// UpdateRoles implements ExternalLoginEventHandler.
func (d *Dispatcher) UpdateRoles(ctx context.Context, rc *UpdateRolesContext) error {
	var errs []error
	for i, h := range d.Handlers() {
		if err := h.UpdateRoles(ctx, rc); err != nil {
			d.logger.Error("external login handler failed to update roles", "handler", i, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
