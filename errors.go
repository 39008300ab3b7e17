package auth

import "github.com/goliatone/go-errors"

const TextCodeUserNotFound = "user_not_found"

// ErrUserNotFound is returned when a user record does not exist.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)
