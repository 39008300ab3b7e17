package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// Manager bundles the stores backing external logins.
type Manager struct {
	db     *bun.DB
	users  *Users
	logins *LoginStore
	roles  *RoleStore
}

// NewManager creates the stores for db.
func NewManager(db *bun.DB) *Manager {
	return &Manager{
		db:     db,
		users:  NewUsersRepository(db),
		logins: NewLoginStore(db),
		roles:  NewRoleStore(db),
	}
}

func (m *Manager) Validate() error {
	if m.db == nil {
		return errors.New("repository db should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.logins == nil {
		return errors.New("repository logins should be initialized")
	}

	if m.roles == nil {
		return errors.New("repository roles should be initialized")
	}

	return nil
}

func (m *Manager) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m *Manager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// InTx implements external.Transactor. Store calls made with the context
// passed to fn run inside the transaction. Nested calls join the outer one.
func (m *Manager) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(bun.Tx); ok {
		return fn(ctx)
	}
	return m.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(withTx(ctx, tx))
	})
}

func (m *Manager) Users() *Users {
	return m.users
}

func (m *Manager) Logins() *LoginStore {
	return m.logins
}

func (m *Manager) Roles() *RoleStore {
	return m.roles
}
