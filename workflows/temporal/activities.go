package temporal

import (
	"context"
	"time"

	"github.com/goliatone/go-auth-workflows"
	"github.com/goliatone/go-auth-workflows/external"
	"github.com/google/uuid"
	"go.temporal.io/sdk/activity"
	sdktemporal "go.temporal.io/sdk/temporal"
)

// RoleSyncer stores the roles granted by a source. repository.RoleStore
// implements it.
type RoleSyncer interface {
	SyncRoles(ctx context.Context, userID uuid.UUID, source string, roles []string) (auth.RoleChanges, error)
}

// RoleSyncInput is the input of Activities.SyncRoles.
type RoleSyncInput struct {
	UserID       string                   `json:"user_id"`
	Claims       []auth.ExternalUserClaim `json:"claims"`
	CurrentRoles []string                 `json:"current_roles"`
}

// RoleSyncResult is the output of Activities.SyncRoles.
type RoleSyncResult struct {
	UserID  string   `json:"user_id"`
	Roles   []string `json:"roles"`
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Activities groups the activities of the login workflow.
type Activities struct {
	Roles  RoleSyncer
	Mapper *external.ClaimRoleMapper
	// Source tags the assignments owned by the sync.
	Source string
	Sink   auth.ActivitySink
	Now    func() time.Time
}

// SyncRoles maps the login claims to local roles and stores them.
func (a *Activities) SyncRoles(ctx context.Context, input RoleSyncInput) (RoleSyncResult, error) {
	logger := activity.GetLogger(ctx)

	userID, err := uuid.Parse(input.UserID)
	if err != nil {
		return RoleSyncResult{}, sdktemporal.NewNonRetryableApplicationError("invalid user id", "InvalidUserID", err)
	}

	mapper := a.Mapper
	if mapper == nil {
		mapper = &external.ClaimRoleMapper{}
	}
	roles := mapper.Map(input.Claims)

	changes, err := a.Roles.SyncRoles(ctx, userID, a.source(), roles)
	if err != nil {
		logger.Error("failed to sync roles", "user_id", input.UserID, "error", err)
		return RoleSyncResult{}, err
	}

	result := RoleSyncResult{
		UserID:  input.UserID,
		Roles:   roles,
		Added:   changes.Added,
		Removed: changes.Removed,
	}

	if changes.Empty() {
		return result, nil
	}

	now := time.Now
	if a.Now != nil {
		now = a.Now
	}
	err = auth.NormalizeActivitySink(a.Sink).Record(ctx, auth.ActivityEvent{
		EventType:  auth.ActivityEventRolesSynced,
		Actor:      auth.ActorRef{Type: "workflow", ID: activity.GetInfo(ctx).WorkflowExecution.ID},
		UserID:     input.UserID,
		OccurredAt: now(),
		Metadata: map[string]any{
			"source":        a.source(),
			"added":         changes.Added,
			"removed":       changes.Removed,
			"current_roles": input.CurrentRoles,
		},
	})
	if err != nil {
		logger.Warn("failed to record role sync activity", "user_id", input.UserID, "error", err)
	}

	return result, nil
}

func (a *Activities) source() string {
	if a.Source == "" {
		return "external"
	}
	return a.Source
}
