package temporal

import (
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-auth-workflows"
	"github.com/goliatone/go-auth-workflows/workflows"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	sdktemporal "go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/testsuite"
)

type LoginWorkflowTestSuite struct {
	suite.Suite
	testsuite.WorkflowTestSuite
	env *testsuite.TestWorkflowEnvironment
}

func (s *LoginWorkflowTestSuite) SetupTest() {
	s.env = s.NewTestWorkflowEnvironment()
	s.env.RegisterWorkflow(ExternalUserLoggedInWorkflow)
	s.env.RegisterActivity(&Activities{})
}

func (s *LoginWorkflowTestSuite) TearDownTest() {
	s.env.AssertExpectations(s.T())
}

func TestLoginWorkflowTestSuite(t *testing.T) {
	suite.Run(t, new(LoginWorkflowTestSuite))
}

func (s *LoginWorkflowTestSuite) TestSyncsRolesForLogin() {
	user := &auth.User{ID: uuid.New(), Username: "ana"}
	claims := []auth.ExternalUserClaim{{Type: "roles", Value: "editor"}}

	var a *Activities
	s.env.OnActivity(a.SyncRoles, mock.Anything, RoleSyncInput{
		UserID:       user.ID.String(),
		Claims:       claims,
		CurrentRoles: []string{"member"},
	}).Return(RoleSyncResult{UserID: user.ID.String(), Added: []string{"editor"}}, nil).Once()

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(LoginSignalName, workflows.ExternalUserLoggedIn{
			User:         user,
			Claims:       claims,
			CurrentRoles: []string{"member"},
		})
	}, time.Millisecond)

	s.env.ExecuteWorkflow(ExternalUserLoggedInWorkflow)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *LoginWorkflowTestSuite) TestDrainsQueuedLogins() {
	user := &auth.User{ID: uuid.New()}

	var a *Activities
	s.env.OnActivity(a.SyncRoles, mock.Anything, mock.Anything).
		Return(RoleSyncResult{UserID: user.ID.String()}, nil).Times(2)

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(LoginSignalName, workflows.ExternalUserLoggedIn{User: user})
		s.env.SignalWorkflow(LoginSignalName, workflows.ExternalUserLoggedIn{User: user})
	}, time.Millisecond)

	s.env.ExecuteWorkflow(ExternalUserLoggedInWorkflow)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *LoginWorkflowTestSuite) TestSkipsSignalWithoutUser() {
	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(LoginSignalName, workflows.ExternalUserLoggedIn{})
	}, time.Millisecond)

	s.env.ExecuteWorkflow(ExternalUserLoggedInWorkflow)

	s.True(s.env.IsWorkflowCompleted())
	s.NoError(s.env.GetWorkflowError())
}

func (s *LoginWorkflowTestSuite) TestActivityFailureFailsWorkflow() {
	s.env.SetTestTimeout(10 * time.Second)
	user := &auth.User{ID: uuid.New()}

	var a *Activities
	s.env.OnActivity(a.SyncRoles, mock.Anything, mock.Anything).
		Return(RoleSyncResult{}, errors.New("db down"))

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(LoginSignalName, workflows.ExternalUserLoggedIn{User: user})
	}, time.Millisecond)

	s.env.ExecuteWorkflow(ExternalUserLoggedInWorkflow)

	s.True(s.env.IsWorkflowCompleted())
	err := s.env.GetWorkflowError()
	s.Error(err)

	var appErr *sdktemporal.ApplicationError
	s.True(errors.As(err, &appErr))
	s.Equal("RoleSyncFailed", appErr.Type())
}

func (s *LoginWorkflowTestSuite) TestFailedSyncKeepsDraining() {
	s.env.SetTestTimeout(10 * time.Second)
	user := &auth.User{ID: uuid.New()}

	var a *Activities
	s.env.OnActivity(a.SyncRoles, mock.Anything, mock.MatchedBy(func(in RoleSyncInput) bool {
		return len(in.CurrentRoles) == 1 && in.CurrentRoles[0] == "first"
	})).Return(RoleSyncResult{}, sdktemporal.NewNonRetryableApplicationError("db down", "DBDown", nil)).Once()
	s.env.OnActivity(a.SyncRoles, mock.Anything, mock.MatchedBy(func(in RoleSyncInput) bool {
		return len(in.CurrentRoles) == 1 && in.CurrentRoles[0] == "second"
	})).Return(RoleSyncResult{UserID: user.ID.String(), Added: []string{"editor"}}, nil).Once()

	s.env.RegisterDelayedCallback(func() {
		s.env.SignalWorkflow(LoginSignalName, workflows.ExternalUserLoggedIn{User: user, CurrentRoles: []string{"first"}})
		s.env.SignalWorkflow(LoginSignalName, workflows.ExternalUserLoggedIn{User: user, CurrentRoles: []string{"second"}})
	}, time.Millisecond)

	s.env.ExecuteWorkflow(ExternalUserLoggedInWorkflow)

	s.True(s.env.IsWorkflowCompleted())
	s.Error(s.env.GetWorkflowError())
	s.Contains(s.env.GetWorkflowError().Error(), "1 of 2 role syncs failed")
}
