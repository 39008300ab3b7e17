package workflows

import (
	"time"

	"github.com/goliatone/go-auth-workflows"
)

// ExternalUserLoggedInEvent is triggered every time a user signs in through
// an external identity provider.
const ExternalUserLoggedInEvent = "ExternalUserLoggedInEvent"

// ExternalUserLoggedIn is the input of ExternalUserLoggedInEvent.
type ExternalUserLoggedIn struct {
	User         *auth.User               `json:"user"`
	Claims       []auth.ExternalUserClaim `json:"claims"`
	CurrentRoles []string                 `json:"current_roles"`
}

// Event is a triggered workflow event as seen by in-process subscribers.
type Event struct {
	Name          string
	Input         any
	CorrelationID string
	TriggeredAt   time.Time
}
