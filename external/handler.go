package external

import (
	"context"

	"github.com/goliatone/go-auth-workflows"
)

// ExternalUserClaim is a claim supplied by an external identity provider.
type ExternalUserClaim = auth.ExternalUserClaim

// ExternalLoginEventHandler is invoked by the identity host after a user
// authenticates through an external provider.
type ExternalLoginEventHandler interface {
	// GenerateUserName derives a username for account creation from the
	// claims presented by provider.
	GenerateUserName(ctx context.Context, provider string, claims []ExternalUserClaim) (string, error)

	// UpdateRoles runs after a successful external login with the user's
	// claims and current roles.
	UpdateRoles(ctx context.Context, rc *UpdateRolesContext) error
}

// UpdateRolesContext is the read-only view handed to UpdateRoles.
type UpdateRolesContext struct {
	User          *auth.User
	LoginProvider string
	Claims        []ExternalUserClaim
	CurrentRoles  []string
}

// NewUpdateRolesContext creates an UpdateRolesContext.
func NewUpdateRolesContext(user *auth.User, provider string, claims []ExternalUserClaim, currentRoles []string) *UpdateRolesContext {
	return &UpdateRolesContext{
		User:          user,
		LoginProvider: provider,
		Claims:        claims,
		CurrentRoles:  currentRoles,
	}
}
