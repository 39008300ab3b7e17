package temporal

import (
	"fmt"
	"time"

	"github.com/goliatone/go-auth-workflows/workflows"
	sdktemporal "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// LoginSignalName is the signal carrying workflows.ExternalUserLoggedIn.
const LoginSignalName = "external-user-logged-in"

// DefaultActivityOptions are used for the role sync activity.
var DefaultActivityOptions = workflow.ActivityOptions{
	StartToCloseTimeout: 30 * time.Second,
	RetryPolicy: &sdktemporal.RetryPolicy{
		InitialInterval:    time.Second,
		BackoffCoefficient: 2.0,
		MaximumInterval:    time.Minute,
		MaximumAttempts:    5,
	},
}

// ExternalUserLoggedInWorkflow synchronizes the roles of a user after an
// external login. It handles every login signal queued for the user and
// completes once none is pending. A failed sync does not stop the queued
// ones; the run fails after draining if any of them failed.
func ExternalUserLoggedInWorkflow(ctx workflow.Context) error {
	logger := workflow.GetLogger(ctx)
	ctx = workflow.WithActivityOptions(ctx, DefaultActivityOptions)

	ch := workflow.GetSignalChannel(ctx, LoginSignalName)

	var evt workflows.ExternalUserLoggedIn
	ch.Receive(ctx, &evt)

	handled, failed := 0, 0
	var lastErr error
	for {
		if err := syncLogin(ctx, evt); err != nil {
			failed++
			lastErr = err
		}
		handled++

		var next workflows.ExternalUserLoggedIn
		if !ch.ReceiveAsync(&next) {
			break
		}
		evt = next
	}

	logger.Info("external login workflow completed", "logins", handled, "failed", failed)
	if failed > 0 {
		return sdktemporal.NewNonRetryableApplicationError(
			fmt.Sprintf("%d of %d role syncs failed", failed, handled),
			"RoleSyncFailed",
			lastErr,
		)
	}
	return nil
}

func syncLogin(ctx workflow.Context, evt workflows.ExternalUserLoggedIn) error {
	logger := workflow.GetLogger(ctx)

	if evt.User == nil {
		logger.Warn("external login signal without user, skipping")
		return nil
	}

	input := RoleSyncInput{
		UserID:       evt.User.ID.String(),
		Claims:       evt.Claims,
		CurrentRoles: evt.CurrentRoles,
	}

	var a *Activities
	var result RoleSyncResult
	if err := workflow.ExecuteActivity(ctx, a.SyncRoles, input).Get(ctx, &result); err != nil {
		logger.Error("role sync failed", "user_id", input.UserID, "error", err)
		return err
	}

	logger.Info("roles synced",
		"user_id", input.UserID,
		"added", result.Added,
		"removed", result.Removed,
	)
	return nil
}
