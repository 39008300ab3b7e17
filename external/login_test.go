package external_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/goliatone/go-auth-workflows"
	"github.com/goliatone/go-auth-workflows/activitymap"
	"github.com/goliatone/go-auth-workflows/external"
	"github.com/goliatone/go-auth-workflows/workflows"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type loginFixture struct {
	logins   *stubLoginStore
	users    *stubUsers
	roles    *stubRoles
	manager  *MockManager
	events   []auth.ActivityEvent
	service  *external.LoginService
	occurred time.Time
}

func newLoginFixture(t *testing.T, opts ...external.LoginOption) *loginFixture {
	t.Helper()

	f := &loginFixture{
		logins:   &stubLoginStore{},
		users:    &stubUsers{},
		roles:    &stubRoles{roles: map[uuid.UUID][]string{}},
		manager:  &MockManager{},
		occurred: time.Date(2024, 5, 4, 12, 0, 0, 0, time.UTC),
	}

	handler := external.NewWorkflowLoginHandler(f.manager,
		external.WithUsernameStrategy(&external.ClaimsUsernameStrategy{}),
	)
	dispatcher := external.NewDispatcher(
		external.WithLogger(auth.NopLogger()),
		external.WithHandler(handler),
	)

	base := []external.LoginOption{
		external.WithRoleStore(f.roles),
		external.WithLoginLogger(auth.NopLogger()),
		external.WithLoginClock(func() time.Time { return f.occurred }),
		external.WithActivitySink(auth.ActivitySinkFunc(func(ctx context.Context, event auth.ActivityEvent) error {
			f.events = append(f.events, event)
			return nil
		})),
	}
	f.service = external.NewLoginService(dispatcher, f.logins, f.users, append(base, opts...)...)
	return f
}

func TestLoginServiceProvisionsNewUser(t *testing.T) {
	f := newLoginFixture(t, external.WithDefaultRole("guest"))
	f.manager.On("TriggerEvent", mock.Anything, workflows.ExternalUserLoggedInEvent, mock.Anything, mock.Anything).Return(nil).Once()

	claims := []external.ExternalUserClaim{
		{Type: "sub", Value: "98765"},
		{Type: "email", Value: "ana@example.com"},
		{Type: "email_verified", Value: "true"},
		{Type: "name", Value: "Ana Maria Lopez"},
	}

	res, err := f.service.Login(context.Background(), external.ExternalLoginInfo{
		Provider: "google",
		Claims:   claims,
	})
	require.NoError(t, err)

	assert.True(t, res.IsNewUser)
	require.Len(t, f.users.created, 1)
	user := f.users.created[0]
	assert.Equal(t, "ana", user.Username)
	assert.Equal(t, "ana@example.com", user.Email)
	assert.True(t, user.EmailValidated)
	assert.Equal(t, "Ana", user.FirstName)
	assert.Equal(t, "Maria Lopez", user.LastName)
	assert.Equal(t, auth.RoleGuest, user.Role)
	assert.NotEqual(t, uuid.Nil, user.ID)
	assert.Equal(t, user.ID.String(), res.Identity.ID())
	assert.Empty(t, res.CurrentRoles)

	require.Len(t, f.logins.linked, 1)
	assert.Equal(t, "98765", f.logins.linked[0].ProviderKey)
	assert.Equal(t, user.ID, f.logins.linked[0].UserID)
	assert.Equal(t, f.occurred, *f.logins.linked[0].LastLoginAt)

	call := f.manager.Calls[0]
	assert.Equal(t, user.ID.String(), call.Arguments.String(3))
	payload := call.Arguments.Get(2).(workflows.ExternalUserLoggedIn)
	assert.Same(t, user, payload.User)
	assert.Equal(t, claims, payload.Claims)

	require.Len(t, f.events, 2)
	assert.Equal(t, auth.ActivityEventExternalUserCreated, f.events[0].EventType)
	assert.Equal(t, auth.ActivityEventExternalLogin, f.events[1].EventType)
	assert.Equal(t, true, f.events[1].Metadata["is_new_user"])
	assert.Equal(t, "google", f.events[1].Actor.ID)
}

func TestLoginServiceProvisionedIDIsDeterministic(t *testing.T) {
	first := newLoginFixture(t)
	first.manager.On("TriggerEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	second := newLoginFixture(t)
	second.manager.On("TriggerEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	info := external.ExternalLoginInfo{
		Provider:    "github",
		ProviderKey: "42",
		Claims:      []external.ExternalUserClaim{{Type: "login", Value: "octocat"}},
	}

	a, err := first.service.Login(context.Background(), info)
	require.NoError(t, err)
	b, err := second.service.Login(context.Background(), info)
	require.NoError(t, err)

	assert.Equal(t, a.User.ID, b.User.ID)
}

func TestLoginServiceExistingUser(t *testing.T) {
	f := newLoginFixture(t)
	user := &auth.User{ID: uuid.New(), Username: "octocat", Role: auth.RoleMember}
	f.users.byID = map[uuid.UUID]*auth.User{user.ID: user}
	f.logins.byKey = map[string]uuid.UUID{loginKey("github", "42"): user.ID}
	f.roles.roles[user.ID] = []string{"admin", "editor"}

	f.manager.On("TriggerEvent",
		mock.Anything,
		workflows.ExternalUserLoggedInEvent,
		mock.MatchedBy(func(in workflows.ExternalUserLoggedIn) bool {
			return in.User == user && assert.ObjectsAreEqual([]string{"admin", "editor"}, in.CurrentRoles)
		}),
		user.ID.String(),
	).Return(nil).Once()

	res, err := f.service.Login(context.Background(), external.ExternalLoginInfo{
		Provider:    "github",
		ProviderKey: "42",
	})
	require.NoError(t, err)

	assert.False(t, res.IsNewUser)
	assert.Same(t, user, res.User)
	assert.Empty(t, f.users.created)
	assert.Equal(t, []string{"admin", "editor"}, res.CurrentRoles)
	assert.Equal(t, auth.RoleAdmin, res.Identity.Role())
	f.manager.AssertExpectations(t)

	require.Len(t, f.events, 1)
	assert.Equal(t, auth.ActivityEventExternalLogin, f.events[0].EventType)
}

func TestLoginServiceWorkflowErrorIsReturned(t *testing.T) {
	f := newLoginFixture(t)
	boom := errors.New("engine unavailable")
	f.manager.On("TriggerEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(boom)

	_, err := f.service.Login(context.Background(), external.ExternalLoginInfo{
		Provider:    "github",
		ProviderKey: "42",
		Claims:      []external.ExternalUserClaim{{Type: "login", Value: "octocat"}},
	})
	assert.ErrorIs(t, err, boom)

	for _, evt := range f.events {
		assert.NotEqual(t, auth.ActivityEventExternalLogin, evt.EventType)
	}
}

func TestLoginServiceValidation(t *testing.T) {
	f := newLoginFixture(t)

	_, err := f.service.Login(context.Background(), external.ExternalLoginInfo{Provider: "github"})
	assertInvalidLogin(t, err)

	_, err = f.service.Login(context.Background(), external.ExternalLoginInfo{ProviderKey: "42"})
	assertInvalidLogin(t, err)

	_, err = f.service.Login(context.Background(), external.ExternalLoginInfo{Provider: "github", ProviderKey: "   "})
	assertInvalidLogin(t, err)

	f.manager.AssertNotCalled(t, "TriggerEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginServiceSignupDisabled(t *testing.T) {
	f := newLoginFixture(t, external.WithSignup(false))

	_, err := f.service.Login(context.Background(), external.ExternalLoginInfo{
		Provider:    "github",
		ProviderKey: "42",
	})
	assert.ErrorIs(t, err, external.ErrSignupNotAllowed)
	assert.Empty(t, f.users.created)
}

func TestLoginServiceUsernameFailure(t *testing.T) {
	f := newLoginFixture(t)

	_, err := f.service.Login(context.Background(), external.ExternalLoginInfo{
		Provider:    "github",
		ProviderKey: "42",
		Claims:      []external.ExternalUserClaim{{Type: "email", Value: "@nowhere"}},
	})
	require.Error(t, err)
	assert.Empty(t, f.users.created)
}

func TestLoginServiceStoreErrors(t *testing.T) {
	storeErr := errors.New("store down")

	t.Run("find login", func(t *testing.T) {
		f := newLoginFixture(t)
		f.logins.findErr = storeErr
		_, err := f.service.Login(context.Background(), external.ExternalLoginInfo{Provider: "github", ProviderKey: "42"})
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("link login", func(t *testing.T) {
		f := newLoginFixture(t)
		f.logins.linkErr = storeErr
		_, err := f.service.Login(context.Background(), external.ExternalLoginInfo{
			Provider:    "github",
			ProviderKey: "42",
			Claims:      []external.ExternalUserClaim{{Type: "login", Value: "octocat"}},
		})
		assert.ErrorIs(t, err, storeErr)
	})

	t.Run("roles", func(t *testing.T) {
		f := newLoginFixture(t)
		f.roles.err = storeErr
		_, err := f.service.Login(context.Background(), external.ExternalLoginInfo{
			Provider:    "github",
			ProviderKey: "42",
			Claims:      []external.ExternalUserClaim{{Type: "login", Value: "octocat"}},
		})
		assert.ErrorIs(t, err, storeErr)
	})
}

func TestLoginServiceHandlerContext(t *testing.T) {
	user := &auth.User{ID: uuid.New(), Username: "octocat"}

	var gotUser *auth.User
	var gotProvider string
	handler := external.NewWorkflowLoginHandler(workflows.ManagerFunc(
		func(ctx context.Context, name string, input any, correlationID string) error {
			gotUser, _ = auth.FromContext(ctx)
			gotProvider, _ = auth.LoginProviderFromContext(ctx)
			return nil
		},
	))

	svc := external.NewLoginService(handler,
		&stubLoginStore{byKey: map[string]uuid.UUID{loginKey("github", "42"): user.ID}},
		&stubUsers{byID: map[uuid.UUID]*auth.User{user.ID: user}},
		external.WithLoginLogger(auth.NopLogger()),
	)

	_, err := svc.Login(context.Background(), external.ExternalLoginInfo{Provider: "github", ProviderKey: "42"})
	require.NoError(t, err)
	assert.Same(t, user, gotUser)
	assert.Equal(t, "github", gotProvider)
}

func TestLoginServiceNormalizedActivity(t *testing.T) {
	var records []activitymap.Normalized
	f := newLoginFixture(t, external.WithActivitySink(activitymap.Sink(
		func(ctx context.Context, record activitymap.Normalized) error {
			records = append(records, record)
			return nil
		},
	)))
	f.manager.On("TriggerEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	res, err := f.service.Login(context.Background(), external.ExternalLoginInfo{
		Provider:    "github",
		ProviderKey: "42",
		Claims:      []external.ExternalUserClaim{{Type: "login", Value: "octocat"}},
	})
	require.NoError(t, err)

	require.Len(t, records, 2)
	last := records[1]
	assert.Equal(t, string(auth.ActivityEventExternalLogin), last.Verb)
	assert.Equal(t, "github", last.ActorID)
	assert.Equal(t, res.User.ID.String(), last.ObjectID)
	assert.Equal(t, "github", last.Metadata[activitymap.MetadataKeyProvider])
}

func assertInvalidLogin(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, goerrors.IsValidation(err))

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))
	assert.Equal(t, external.TextCodeInvalidLogin, richErr.TextCode)
}

func TestLoginServiceProviderKeyIsTrimmed(t *testing.T) {
	f := newLoginFixture(t)
	f.manager.On("TriggerEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)

	claims := []external.ExternalUserClaim{{Type: "login", Value: "octocat"}}
	a, err := f.service.Login(context.Background(), external.ExternalLoginInfo{Provider: "github", ProviderKey: " 1001", Claims: claims})
	require.NoError(t, err)
	b, err := f.service.Login(context.Background(), external.ExternalLoginInfo{Provider: "github ", ProviderKey: "1001", Claims: claims})
	require.NoError(t, err)

	assert.True(t, a.IsNewUser)
	assert.False(t, b.IsNewUser)
	assert.Equal(t, a.User.ID, b.User.ID)
	require.Len(t, f.logins.linked, 2)
	assert.Equal(t, "1001", f.logins.linked[0].ProviderKey)
	assert.Len(t, f.users.created, 1)
}

func TestLoginServiceRetryAfterLinkFailure(t *testing.T) {
	f := newLoginFixture(t)
	f.manager.On("TriggerEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	info := external.ExternalLoginInfo{
		Provider:    "github",
		ProviderKey: "42",
		Claims:      []external.ExternalUserClaim{{Type: "login", Value: "octocat"}},
	}

	f.logins.linkErr = errors.New("connection reset")
	_, err := f.service.Login(context.Background(), info)
	require.Error(t, err)
	require.Len(t, f.users.created, 1)

	f.logins.linkErr = nil
	res, err := f.service.Login(context.Background(), info)
	require.NoError(t, err)

	assert.True(t, res.IsNewUser)
	assert.Equal(t, f.users.created[0].ID, res.User.ID)
	assert.Len(t, f.users.created, 1)
	require.Len(t, f.logins.linked, 1)
	assert.Equal(t, res.User.ID, f.logins.linked[0].UserID)
	f.manager.AssertExpectations(t)
}

type recordingTransactor struct {
	calls int
	err   error
}

func (r *recordingTransactor) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	r.calls++
	if err := fn(ctx); err != nil {
		return err
	}
	return r.err
}

func TestLoginServiceTransactor(t *testing.T) {
	tx := &recordingTransactor{}
	f := newLoginFixture(t, external.WithTransactor(tx))
	f.manager.On("TriggerEvent", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	info := external.ExternalLoginInfo{
		Provider:    "github",
		ProviderKey: "42",
		Claims:      []external.ExternalUserClaim{{Type: "login", Value: "octocat"}},
	}

	tx.err = errors.New("commit failed")
	_, err := f.service.Login(context.Background(), info)
	assert.ErrorIs(t, err, tx.err)
	assert.Equal(t, 1, tx.calls)
	assert.Empty(t, f.events)

	tx.err = nil
	_, err = f.service.Login(context.Background(), info)
	require.NoError(t, err)
	assert.Equal(t, 2, tx.calls)
	f.manager.AssertExpectations(t)
}
