package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goliatone/go-auth-workflows"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users loads and provisions users for external logins.
type Users struct {
	repo repository.Repository[*auth.User]
	db   *bun.DB
}

// NewUsersRepository creates a Bun backed user store.
func NewUsersRepository(db *bun.DB) *Users {
	repo := repository.NewRepository(db, repository.ModelHandlers[*auth.User]{
		NewRecord: func() *auth.User { return &auth.User{} },
		GetID: func(u *auth.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *auth.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "username"
		},
	})

	return &Users{repo: repo, db: db}
}

// FindByID returns auth.ErrUserNotFound when no user has the given ID.
func (u *Users) FindByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	user, err := u.repo.GetByIDTx(ctx, conn(ctx, u.db), id.String())
	if err != nil {
		if repository.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Create inserts a user. A nil ID is replaced with a random one.
func (u *Users) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	return u.repo.CreateTx(ctx, conn(ctx, u.db), user)
}

// UsernameExists reports whether username is taken, soft deleted users included.
func (u *Users) UsernameExists(ctx context.Context, username string) (bool, error) {
	return conn(ctx, u.db).NewSelect().
		Model((*auth.User)(nil)).
		WhereAllWithDeleted().
		Where("username = ?", username).
		Exists(ctx)
}
