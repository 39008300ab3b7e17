package external_test

import (
	"context"

	"github.com/goliatone/go-auth-workflows"
	"github.com/goliatone/go-auth-workflows/external"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockManager implements workflows.Manager
type MockManager struct {
	mock.Mock
}

func (m *MockManager) TriggerEvent(ctx context.Context, name string, input any, correlationID string) error {
	args := m.Called(ctx, name, input, correlationID)
	return args.Error(0)
}

// MockHandler implements external.ExternalLoginEventHandler
type MockHandler struct {
	mock.Mock
}

func (m *MockHandler) GenerateUserName(ctx context.Context, provider string, claims []external.ExternalUserClaim) (string, error) {
	args := m.Called(ctx, provider, claims)
	return args.String(0), args.Error(1)
}

func (m *MockHandler) UpdateRoles(ctx context.Context, rc *external.UpdateRolesContext) error {
	args := m.Called(ctx, rc)
	return args.Error(0)
}

type stubLoginStore struct {
	byKey   map[string]uuid.UUID
	linked  []*auth.ExternalLogin
	findErr error
	linkErr error
}

func loginKey(provider, key string) string {
	return provider + "|" + key
}

func (s *stubLoginStore) FindUserID(ctx context.Context, provider, providerKey string) (uuid.UUID, error) {
	if s.findErr != nil {
		return uuid.Nil, s.findErr
	}
	if id, ok := s.byKey[loginKey(provider, providerKey)]; ok {
		return id, nil
	}
	return uuid.Nil, external.ErrLoginNotFound
}

func (s *stubLoginStore) Link(ctx context.Context, login *auth.ExternalLogin) error {
	if s.linkErr != nil {
		return s.linkErr
	}
	if s.byKey == nil {
		s.byKey = map[string]uuid.UUID{}
	}
	s.byKey[loginKey(login.Provider, login.ProviderKey)] = login.UserID
	s.linked = append(s.linked, login)
	return nil
}

type stubUsers struct {
	byID      map[uuid.UUID]*auth.User
	created   []*auth.User
	createErr error
}

func (s *stubUsers) FindByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, auth.ErrUserNotFound
}

func (s *stubUsers) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	if s.byID == nil {
		s.byID = map[uuid.UUID]*auth.User{}
	}
	s.byID[user.ID] = user
	s.created = append(s.created, user)
	return user, nil
}

type stubRoles struct {
	roles map[uuid.UUID][]string
	err   error
}

func (s *stubRoles) RolesForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.roles[userID], nil
}

type takenUsernames map[string]bool

func (t takenUsernames) UsernameExists(ctx context.Context, username string) (bool, error) {
	return t[username], nil
}
