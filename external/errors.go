package external

import "github.com/goliatone/go-errors"

const (
	TextCodeNotImplemented      = "username_generation_not_implemented"
	TextCodeUsernameUnavailable = "username_unavailable"
	TextCodeInvalidRolesContext = "external_invalid_roles_context"
	TextCodeManagerMissing      = "external_workflow_manager_missing"
	TextCodeInvalidLogin        = "external_invalid_login"
	TextCodeLoginNotFound       = "external_login_not_found"
	TextCodeSignupDisabled      = "external_signup_disabled"
)

// ErrNotImplemented is returned by GenerateUserName when no username
// strategy has been configured.
var ErrNotImplemented = errors.New("username generation is not implemented", errors.CategoryOperation).
	WithTextCode(TextCodeNotImplemented).
	WithCode(errors.CodeInternal)

// ErrUsernameUnavailable is returned when no free username can be derived from the claims.
var ErrUsernameUnavailable = errors.New("unable to derive an available username", errors.CategoryConflict).
	WithTextCode(TextCodeUsernameUnavailable).
	WithCode(errors.CodeConflict)

// ErrInvalidRolesContext is returned when UpdateRoles receives no user.
var ErrInvalidRolesContext = errors.New("update roles context requires a user", errors.CategoryBadInput).
	WithTextCode(TextCodeInvalidRolesContext).
	WithCode(errors.CodeBadRequest)

// ErrWorkflowManagerMissing is returned when a handler was built without a workflow manager.
var ErrWorkflowManagerMissing = errors.New("workflow manager not configured", errors.CategoryInternal).
	WithTextCode(TextCodeManagerMissing).
	WithCode(errors.CodeInternal)

// ErrLoginNotFound is returned by LoginStore implementations for unknown provider keys.
var ErrLoginNotFound = errors.New("external login not found", errors.CategoryNotFound).
	WithTextCode(TextCodeLoginNotFound).
	WithCode(errors.CodeNotFound)

// ErrSignupNotAllowed is returned when an unknown external user may not be provisioned.
var ErrSignupNotAllowed = errors.New("signup not allowed", errors.CategoryAuth).
	WithTextCode(TextCodeSignupDisabled).
	WithCode(errors.CodeForbidden)
