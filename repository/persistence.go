package repository

import (
	"embed"
	"io/fs"

	"github.com/goliatone/go-auth-workflows"
	goerrors "github.com/goliatone/go-errors"
	persistence "github.com/goliatone/go-persistence-bun"
	"github.com/uptrace/bun"
)

//go:embed data/sql/migrations
var migrationsFS embed.FS

// GetMigrationsFS returns the migration files for the stores
func GetMigrationsFS() embed.FS {
	return migrationsFS
}

// RegisterModels registers the store models with go-persistence-bun.
// Call it before persistence.New.
func RegisterModels() {
	persistence.RegisterModel(
		(*auth.User)(nil),
		(*auth.ExternalLogin)(nil),
		(*auth.UserRoleAssignment)(nil),
	)
}

// RegisterMigrations adds the embedded SQL migrations to client.
func RegisterMigrations(client *persistence.Client) error {
	sub, err := fs.Sub(migrationsFS, "data/sql/migrations")
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open embedded migrations")
	}
	client.RegisterSQLMigrations(sub)
	return nil
}

// NewManagerFromClient creates the stores on top of a persistence client.
func NewManagerFromClient(client *persistence.Client) (*Manager, error) {
	db, ok := client.DB().(*bun.DB)
	if !ok {
		return nil, goerrors.New("persistence client is not backed by a bun.DB", goerrors.CategoryInternal)
	}
	return NewManager(db), nil
}
