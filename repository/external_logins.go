package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-auth-workflows"
	"github.com/goliatone/go-auth-workflows/external"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LoginStore implements external.LoginStore using Bun.
type LoginStore struct {
	db  *bun.DB
	now func() time.Time
}

// NewLoginStore creates a new Bun login store.
func NewLoginStore(db *bun.DB) *LoginStore {
	return &LoginStore{db: db, now: time.Now}
}

var _ external.LoginStore = (*LoginStore)(nil)

// FindUserID implements external.LoginStore.
func (s *LoginStore) FindUserID(ctx context.Context, provider, providerKey string) (uuid.UUID, error) {
	provider = strings.TrimSpace(provider)
	providerKey = strings.TrimSpace(providerKey)
	if provider == "" || providerKey == "" {
		return uuid.Nil, external.ErrLoginNotFound
	}

	var model auth.ExternalLogin
	err := conn(ctx, s.db).NewSelect().
		Model(&model).
		Column("user_id").
		Where("provider = ? AND provider_key = ?", provider, providerKey).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return uuid.Nil, external.ErrLoginNotFound
		}
		return uuid.Nil, err
	}

	return model.UserID, nil
}

// FindByUserID returns every external login linked to userID.
func (s *LoginStore) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*auth.ExternalLogin, error) {
	logins := []*auth.ExternalLogin{}
	err := conn(ctx, s.db).NewSelect().
		Model(&logins).
		Where("user_id = ?", userID).
		Order("provider ASC").
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	return logins, nil
}

// Link implements external.LoginStore. Linking an existing provider key
// moves it to the given user and refreshes its last login time.
func (s *LoginStore) Link(ctx context.Context, login *auth.ExternalLogin) error {
	if login == nil {
		return ErrInvalidExternalLogin
	}

	provider := strings.TrimSpace(login.Provider)
	providerKey := strings.TrimSpace(login.ProviderKey)
	if provider == "" || providerKey == "" || login.UserID == uuid.Nil {
		return ErrInvalidExternalLogin
	}

	now := s.now()
	model := &auth.ExternalLogin{
		ID:          login.ID,
		UserID:      login.UserID,
		Provider:    provider,
		ProviderKey: providerKey,
		DisplayName: login.DisplayName,
		Metadata:    login.Metadata,
		LastLoginAt: login.LastLoginAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if model.ID == uuid.Nil {
		model.ID = uuid.New()
	}
	if model.Metadata == nil {
		model.Metadata = map[string]any{}
	}

	_, err := conn(ctx, s.db).NewInsert().
		Model(model).
		On("CONFLICT (provider, provider_key) DO UPDATE").
		Set("user_id = EXCLUDED.user_id").
		Set("display_name = EXCLUDED.display_name").
		Set("last_login_at = EXCLUDED.last_login_at").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

// Unlink removes the provider login of a user.
func (s *LoginStore) Unlink(ctx context.Context, userID uuid.UUID, provider string) error {
	_, err := conn(ctx, s.db).NewDelete().
		Model((*auth.ExternalLogin)(nil)).
		Where("user_id = ? AND provider = ?", userID, provider).
		Exec(ctx)
	return err
}
