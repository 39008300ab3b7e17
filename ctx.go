package auth

import "context"

var userCtxKey = &contextKey{"user"}
var providerCtxKey = &contextKey{"login_provider"}

type contextKey struct {
	name string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok && raw != nil
}

// WithLoginProvider sets the external provider the current login came from.
func WithLoginProvider(ctx context.Context, provider string) context.Context {
	return context.WithValue(ctx, providerCtxKey, provider)
}

// LoginProviderFromContext returns the provider set by WithLoginProvider.
func LoginProviderFromContext(ctx context.Context) (string, bool) {
	raw, ok := ctx.Value(providerCtxKey).(string)
	return raw, ok && raw != ""
}
