package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-auth-workflows"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RoleStore persists role assignments. Each assignment records the source
// that granted it so synchronizations only touch their own roles.
type RoleStore struct {
	db  *bun.DB
	now func() time.Time
}

// NewRoleStore creates a Bun role store.
func NewRoleStore(db *bun.DB) *RoleStore {
	return &RoleStore{db: db, now: time.Now}
}

// RolesForUser returns the sorted roles of a user, whatever their source.
func (s *RoleStore) RolesForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	return s.roles(ctx, conn(ctx, s.db), userID, "")
}

// AssignRoles grants roles to a user. Already granted roles keep their source.
func (s *RoleStore) AssignRoles(ctx context.Context, userID uuid.UUID, source string, roles ...string) error {
	return s.insert(ctx, s.db, userID, source, auth.NormalizeRoles(roles))
}

// RevokeRoles removes roles from a user regardless of their source.
func (s *RoleStore) RevokeRoles(ctx context.Context, userID uuid.UUID, roles ...string) error {
	roles = auth.NormalizeRoles(roles)
	if len(roles) == 0 {
		return nil
	}
	_, err := s.db.NewDelete().
		Model((*auth.UserRoleAssignment)(nil)).
		Where("user_id = ?", userID).
		Where("role IN (?)", bun.In(roles)).
		Exec(ctx)
	return err
}

// SyncRoles makes the roles granted by source equal to roles. Roles granted
// by other sources are never removed, and are not re-granted.
func (s *RoleStore) SyncRoles(ctx context.Context, userID uuid.UUID, source string, roles []string) (auth.RoleChanges, error) {
	var changes auth.RoleChanges
	desired := auth.NormalizeRoles(roles)

	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		all, err := s.roles(ctx, tx, userID, "")
		if err != nil {
			return err
		}
		owned, err := s.roles(ctx, tx, userID, source)
		if err != nil {
			return err
		}

		changes.Added = difference(desired, all)
		changes.Removed = difference(owned, desired)

		if err := s.insert(ctx, tx, userID, source, changes.Added); err != nil {
			return err
		}

		if len(changes.Removed) > 0 {
			_, err := tx.NewDelete().
				Model((*auth.UserRoleAssignment)(nil)).
				Where("user_id = ? AND source = ?", userID, source).
				Where("role IN (?)", bun.In(changes.Removed)).
				Exec(ctx)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return auth.RoleChanges{}, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sync user roles")
	}

	return changes, nil
}

func (s *RoleStore) roles(ctx context.Context, db bun.IDB, userID uuid.UUID, source string) ([]string, error) {
	var roles []string
	q := db.NewSelect().
		Model((*auth.UserRoleAssignment)(nil)).
		Column("role").
		Where("user_id = ?", userID).
		Order("role ASC")
	if source != "" {
		q = q.Where("source = ?", source)
	}

	if err := q.Scan(ctx, &roles); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if roles == nil {
		roles = []string{}
	}
	return roles, nil
}

func (s *RoleStore) insert(ctx context.Context, db bun.IDB, userID uuid.UUID, source string, roles []string) error {
	if len(roles) == 0 {
		return nil
	}

	now := s.now()
	models := make([]auth.UserRoleAssignment, 0, len(roles))
	for _, r := range roles {
		models = append(models, auth.UserRoleAssignment{
			UserID:    userID,
			Role:      r,
			Source:    source,
			CreatedAt: now,
		})
	}

	_, err := db.NewInsert().
		Model(&models).
		On("CONFLICT DO NOTHING").
		Exec(ctx)
	return err
}

// difference returns the items of a missing from b. Both must be sorted.
func difference(a, b []string) []string {
	seen := make(map[string]struct{}, len(b))
	for _, v := range b {
		seen[v] = struct{}{}
	}
	out := []string{}
	for _, v := range a {
		if _, ok := seen[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
