package external

import (
	"context"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/goliatone/go-auth-workflows"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

// LoginStore persists the link between provider identities and local users.
type LoginStore interface {
	// FindUserID returns ErrLoginNotFound when the provider key is unknown.
	FindUserID(ctx context.Context, provider, providerKey string) (uuid.UUID, error)
	Link(ctx context.Context, login *auth.ExternalLogin) error
}

// UserStore loads and creates local users.
type UserStore interface {
	// FindByID returns auth.ErrUserNotFound when no user has the given ID.
	FindByID(ctx context.Context, id uuid.UUID) (*auth.User, error)
	Create(ctx context.Context, user *auth.User) (*auth.User, error)
}

// Transactor runs fn as a single unit of work. Store calls made with the
// context handed to fn take part in it. repository.Manager implements it.
type Transactor interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// RoleStore returns the roles currently assigned to a user.
type RoleStore interface {
	RolesForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
}

// ExternalLoginInfo describes a completed provider handshake.
type ExternalLoginInfo struct {
	Provider    string
	ProviderKey string
	DisplayName string
	Claims      []ExternalUserClaim
}

// Validate checks the login info.
func (i ExternalLoginInfo) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.Provider, validation.Required, validation.Length(1, 128)),
		validation.Field(&i.ProviderKey, validation.Required, validation.Length(1, 255)),
	)
}

// LoginResult is returned by LoginService.Login.
type LoginResult struct {
	User         *auth.User
	Identity     auth.Identity
	IsNewUser    bool
	CurrentRoles []string
}

// LoginService resolves or provisions the local user for an external login
// and then notifies the external login handlers.
type LoginService struct {
	handler      ExternalLoginEventHandler
	logins       LoginStore
	users        UserStore
	roles        RoleStore
	tx           Transactor
	activitySink auth.ActivitySink
	logger       auth.Logger
	allowSignup  bool
	defaultRole  auth.UserRole
	now          func() time.Time
}

// LoginOption configures a LoginService.
type LoginOption func(*LoginService)

// WithRoleStore sets the store used to load current roles.
func WithRoleStore(rs RoleStore) LoginOption {
	return func(s *LoginService) {
		s.roles = rs
	}
}

// WithTransactor makes user provisioning and linking atomic.
func WithTransactor(tx Transactor) LoginOption {
	return func(s *LoginService) {
		s.tx = tx
	}
}

// WithActivitySink sets the activity sink for audit logging.
func WithActivitySink(sink auth.ActivitySink) LoginOption {
	return func(s *LoginService) {
		s.activitySink = sink
	}
}

// WithLoginLogger sets the logger used by the login service.
func WithLoginLogger(logger auth.Logger) LoginOption {
	return func(s *LoginService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithSignup toggles provisioning of unknown external users.
func WithSignup(allow bool) LoginOption {
	return func(s *LoginService) {
		s.allowSignup = allow
	}
}

// WithDefaultRole sets the role given to provisioned users.
func WithDefaultRole(role string) LoginOption {
	return func(s *LoginService) {
		if parsed, ok := auth.ParseRole(role); ok {
			s.defaultRole = parsed
		}
	}
}

// WithLoginClock overrides the time source.
func WithLoginClock(now func() time.Time) LoginOption {
	return func(s *LoginService) {
		if now != nil {
			s.now = now
		}
	}
}

// NewLoginService creates a login service. handler is usually a Dispatcher.
func NewLoginService(handler ExternalLoginEventHandler, logins LoginStore, users UserStore, opts ...LoginOption) *LoginService {
	s := &LoginService{
		handler:     handler,
		logins:      logins,
		users:       users,
		logger:      auth.DefaultLogger("EXTERNAL"),
		allowSignup: true,
		defaultRole: auth.RoleMember,
		now:         time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	s.activitySink = auth.NormalizeActivitySink(s.activitySink)
	return s
}

// Login handles a completed external login.
func (s *LoginService) Login(ctx context.Context, info ExternalLoginInfo) (*LoginResult, error) {
	info.Provider = strings.TrimSpace(info.Provider)
	info.ProviderKey = strings.TrimSpace(info.ProviderKey)
	if info.ProviderKey == "" {
		info.ProviderKey = strings.TrimSpace(Claims(info.Claims).Subject())
	}
	if err := info.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid external login").
			WithTextCode(TextCodeInvalidLogin).
			WithCode(goerrors.CodeBadRequest)
	}

	user, err := s.linkedUser(ctx, info)
	if err != nil {
		return nil, err
	}

	isNew := user == nil
	var username string
	if isNew {
		if !s.allowSignup {
			return nil, ErrSignupNotAllowed
		}
		if username, err = s.handler.GenerateUserName(ctx, info.Provider, info.Claims); err != nil {
			return nil, err
		}
	}

	err = s.inTx(ctx, func(ctx context.Context) error {
		if isNew {
			if user, err = s.provision(ctx, info, username); err != nil {
				return err
			}
		}
		return s.link(ctx, user, info)
	})
	if err != nil {
		return nil, err
	}

	if isNew {
		s.logger.Info("provisioned external user", "provider", info.Provider, "user_id", user.ID, "username", user.Username)
		s.record(ctx, auth.ActivityEventExternalUserCreated, user, info, nil)
	}

	roles, err := s.currentRoles(ctx, user)
	if err != nil {
		return nil, err
	}
	user.Role = auth.HighestRole(roles, user.Role)

	rc := NewUpdateRolesContext(user, info.Provider, info.Claims, roles)
	hctx := auth.WithLoginProvider(auth.WithContext(ctx, user), info.Provider)
	if err := s.handler.UpdateRoles(hctx, rc); err != nil {
		return nil, err
	}

	s.record(ctx, auth.ActivityEventExternalLogin, user, info, map[string]any{
		"is_new_user": isNew,
		"roles":       roles,
	})

	return &LoginResult{
		User:         user,
		Identity:     auth.NewIdentityFromUser(user),
		IsNewUser:    isNew,
		CurrentRoles: roles,
	}, nil
}

// linkedUser returns the user already linked to the provider key, or nil.
func (s *LoginService) linkedUser(ctx context.Context, info ExternalLoginInfo) (*auth.User, error) {
	userID, err := s.logins.FindUserID(ctx, info.Provider, info.ProviderKey)
	if err != nil {
		if goerrors.Is(err, ErrLoginNotFound) {
			return nil, nil
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to find external login")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to find linked user")
	}
	return user, nil
}

// provision creates the user for a first login. A user left behind by an
// earlier login that failed to link is reused.
func (s *LoginService) provision(ctx context.Context, info ExternalLoginInfo, username string) (*auth.User, error) {
	user := s.newUser(info, username)

	existing, err := s.users.FindByID(ctx, user.ID)
	switch {
	case err == nil:
		s.logger.Warn("reusing unlinked external user", "provider", info.Provider, "user_id", existing.ID)
		return existing, nil
	case !goerrors.Is(err, auth.ErrUserNotFound):
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to find user")
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to create user")
	}
	return created, nil
}

func (s *LoginService) link(ctx context.Context, user *auth.User, info ExternalLoginInfo) error {
	now := s.now()
	err := s.logins.Link(ctx, &auth.ExternalLogin{
		UserID:      user.ID,
		Provider:    info.Provider,
		ProviderKey: info.ProviderKey,
		DisplayName: info.DisplayName,
		LastLoginAt: &now,
	})
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to link external login")
	}
	return nil
}

func (s *LoginService) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return s.tx.InTx(ctx, fn)
}

func (s *LoginService) newUser(info ExternalLoginInfo, username string) *auth.User {
	claims := Claims(info.Claims)

	id, err := hashid.NewUUID(info.Provider + ":" + info.ProviderKey)
	if err != nil {
		id = uuid.New()
	}

	user := &auth.User{
		ID:             id,
		Role:           s.defaultRole,
		Username:       username,
		Email:          claims.First(ClaimEmail),
		EmailValidated: strings.EqualFold(claims.First(ClaimEmailVerified), "true"),
		FirstName:      claims.First(ClaimGivenName),
		LastName:       claims.First(ClaimFamilyName),
		ProfilePicture: claims.First(ClaimPicture),
	}
	user.AddMetadata("external_provider", info.Provider)

	if user.FirstName == "" {
		if name := strings.TrimSpace(claims.First(ClaimName)); name != "" {
			parts := strings.SplitN(name, " ", 2)
			user.FirstName = parts[0]
			if len(parts) > 1 {
				user.LastName = parts[1]
			}
		}
	}

	return user
}

func (s *LoginService) currentRoles(ctx context.Context, user *auth.User) ([]string, error) {
	if s.roles == nil {
		if user.Role == "" {
			return []string{}, nil
		}
		return []string{user.Role}, nil
	}

	roles, err := s.roles.RolesForUser(ctx, user.ID)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to load user roles")
	}
	return roles, nil
}

func (s *LoginService) record(ctx context.Context, eventType auth.ActivityEventType, user *auth.User, info ExternalLoginInfo, extra map[string]any) {
	meta := map[string]any{
		"provider":     info.Provider,
		"provider_key": info.ProviderKey,
	}
	for k, v := range extra {
		meta[k] = v
	}

	err := s.activitySink.Record(ctx, auth.ActivityEvent{
		EventType:  eventType,
		UserID:     user.ID.String(),
		Actor:      auth.ActorRef{Type: "external", ID: info.Provider},
		OccurredAt: s.now(),
		Metadata:   meta,
	})
	if err != nil {
		s.logger.Error("failed to record activity", "event", eventType, "user_id", user.ID, "error", err)
	}
}
