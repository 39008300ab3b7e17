package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UserRole is the user's role
type UserRole = string

const (
	// RoleGuest is an guest role (ie. view)
	RoleGuest UserRole = "guest"
	// RoleMember us a member (i.e. view, edit)
	RoleMember UserRole = "member"
	// RoleAdmin is an admin role (i.e. view, edit, create)
	RoleAdmin UserRole = "admin"
	// RoleOwner is an admin role (i.e. view, edit, create, delete)
	RoleOwner UserRole = "owner"
)

// User is the user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role           UserRole       `bun:"user_role,notnull" json:"user_role,omitempty"`
	FirstName      string         `bun:"first_name" json:"first_name,omitempty"`
	LastName       string         `bun:"last_name" json:"last_name,omitempty"`
	Username       string         `bun:"username,notnull,unique" json:"username,omitempty"`
	ProfilePicture string         `bun:"profile_picture" json:"profile_picture,omitempty"`
	Email          string         `bun:"email" json:"email,omitempty"`
	EmailValidated bool           `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	LoggedInAt     *time.Time     `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	Metadata       map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	CreatedAt      *time.Time     `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time     `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time     `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// AddMetadata will append information to a metadata attribute
func (u *User) AddMetadata(key string, val any) *User {
	if u.Metadata == nil {
		u.Metadata = make(map[string]any)
	}
	u.Metadata[key] = val
	return u
}

// CorrelationID returns the identifier used to correlate workflow
// executions with this user. It is the string form of the user ID.
func (u *User) CorrelationID() string {
	if u == nil {
		return ""
	}
	return u.ID.String()
}

// ExternalLogin links a local user to an identity at an external provider.
type ExternalLogin struct {
	bun.BaseModel `bun:"table:external_logins,alias:exl"`
	ID            uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID      `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Provider      string         `bun:"provider,notnull" json:"provider,omitempty"`
	ProviderKey   string         `bun:"provider_key,notnull" json:"provider_key,omitempty"`
	DisplayName   string         `bun:"display_name" json:"display_name,omitempty"`
	Metadata      map[string]any `bun:"metadata,type:jsonb" json:"metadata,omitempty"`
	LastLoginAt   *time.Time     `bun:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt     time.Time      `bun:"created_at,default:current_timestamp" json:"created_at"`
	UpdatedAt     time.Time      `bun:"updated_at,default:current_timestamp" json:"updated_at"`
}

// UserRoleAssignment is a single role granted to a user.
type UserRoleAssignment struct {
	bun.BaseModel `bun:"table:user_roles,alias:usrr"`
	UserID        uuid.UUID `bun:"user_id,pk,type:uuid" json:"user_id"`
	Role          string    `bun:"role,pk" json:"role"`
	Source        string    `bun:"source" json:"source,omitempty"`
	CreatedAt     time.Time `bun:"created_at,default:current_timestamp" json:"created_at"`
}
