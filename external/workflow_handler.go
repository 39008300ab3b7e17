package external

import (
	"context"

	"github.com/goliatone/go-auth-workflows/workflows"
)

// WorkflowLoginHandler forwards external logins to the workflow engine.
// It holds no state of its own and is safe for concurrent use.
type WorkflowLoginHandler struct {
	manager   workflows.Manager
	usernames UsernameStrategy
}

// HandlerOption configures a WorkflowLoginHandler.
type HandlerOption func(*WorkflowLoginHandler)

// WithUsernameStrategy sets the policy used by GenerateUserName.
func WithUsernameStrategy(s UsernameStrategy) HandlerOption {
	return func(h *WorkflowLoginHandler) {
		h.usernames = s
	}
}

var _ ExternalLoginEventHandler = (*WorkflowLoginHandler)(nil)

// NewWorkflowLoginHandler creates a handler that triggers workflows through manager.
func NewWorkflowLoginHandler(manager workflows.Manager, opts ...HandlerOption) *WorkflowLoginHandler {
	h := &WorkflowLoginHandler{manager: manager}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// GenerateUserName implements ExternalLoginEventHandler. Without a
// UsernameStrategy it always fails with ErrNotImplemented.
func (h *WorkflowLoginHandler) GenerateUserName(ctx context.Context, provider string, claims []ExternalUserClaim) (string, error) {
	if h.usernames == nil {
		return "", ErrNotImplemented
	}
	return h.usernames.GenerateUserName(ctx, provider, claims)
}

// UpdateRoles implements ExternalLoginEventHandler. It triggers
// ExternalUserLoggedInEvent once, correlated by the user ID, and returns
// the manager's error as is.
func (h *WorkflowLoginHandler) UpdateRoles(ctx context.Context, rc *UpdateRolesContext) error {
	if rc == nil || rc.User == nil {
		return ErrInvalidRolesContext
	}
	if h.manager == nil {
		return ErrWorkflowManagerMissing
	}

	return h.manager.TriggerEvent(ctx,
		workflows.ExternalUserLoggedInEvent,
		workflows.ExternalUserLoggedIn{
			User:         rc.User,
			Claims:       rc.Claims,
			CurrentRoles: rc.CurrentRoles,
		},
		rc.User.CorrelationID(),
	)
}
