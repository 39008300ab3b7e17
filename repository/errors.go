package repository

import "github.com/goliatone/go-errors"

const TextCodeInvalidLogin = "repository_invalid_external_login"

// ErrInvalidExternalLogin is returned by LoginStore.Link for incomplete records.
var ErrInvalidExternalLogin = errors.New("external login requires a user, provider and provider key", errors.CategoryValidation).
	WithTextCode(TextCodeInvalidLogin).
	WithCode(errors.CodeBadRequest)
