package external

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// UsernameStrategy derives a username from external claims.
type UsernameStrategy interface {
	GenerateUserName(ctx context.Context, provider string, claims []ExternalUserClaim) (string, error)
}

// UsernameStrategyFunc adapts a function to the UsernameStrategy interface.
type UsernameStrategyFunc func(ctx context.Context, provider string, claims []ExternalUserClaim) (string, error)

// GenerateUserName implements UsernameStrategy.
func (f UsernameStrategyFunc) GenerateUserName(ctx context.Context, provider string, claims []ExternalUserClaim) (string, error) {
	return f(ctx, provider, claims)
}

// UsernameLookup reports whether a username is already taken.
type UsernameLookup interface {
	UsernameExists(ctx context.Context, username string) (bool, error)
}

const (
	defaultUsernameMaxLength   = 64
	defaultUsernameMaxAttempts = 100
)

// DefaultUsernameClaimTypes are checked in order for a preferred username.
var DefaultUsernameClaimTypes = []string{
	"preferred_username",
	"nickname",
	"username",
	"login",
}

// ClaimsUsernameStrategy picks the first preferred username claim, then the
// local part of the email claim, then "<provider>_<subject>". The candidate
// is sanitized and, when Lookup is set, suffixed with a counter until a free
// username is found.
type ClaimsUsernameStrategy struct {
	Lookup      UsernameLookup
	ClaimTypes  []string
	MaxLength   int
	MaxAttempts int
}

var _ UsernameStrategy = (*ClaimsUsernameStrategy)(nil)

// GenerateUserName implements UsernameStrategy.
func (s *ClaimsUsernameStrategy) GenerateUserName(ctx context.Context, provider string, claims []ExternalUserClaim) (string, error) {
	base := s.sanitize(s.candidate(provider, Claims(claims)))
	if base == "" {
		return "", fmt.Errorf("%w: no usable claim from provider %q", ErrUsernameUnavailable, provider)
	}

	if s.Lookup == nil {
		return base, nil
	}

	attempts := s.MaxAttempts
	if attempts <= 0 {
		attempts = defaultUsernameMaxAttempts
	}

	for i := 0; i < attempts; i++ {
		name := base
		if i > 0 {
			name = s.withSuffix(base, strconv.Itoa(i))
		}

		taken, err := s.Lookup.UsernameExists(ctx, name)
		if err != nil {
			return "", err
		}
		if !taken {
			return name, nil
		}
	}

	return "", fmt.Errorf("%w: %q taken after %d attempts", ErrUsernameUnavailable, base, attempts)
}

func (s *ClaimsUsernameStrategy) candidate(provider string, claims Claims) string {
	types := s.ClaimTypes
	if len(types) == 0 {
		types = DefaultUsernameClaimTypes
	}
	for _, t := range types {
		if v := strings.TrimSpace(claims.First(t)); v != "" {
			return v
		}
	}

	if email := strings.TrimSpace(claims.First(ClaimEmail)); email != "" {
		if at := strings.Index(email, "@"); at > 0 {
			return email[:at]
		}
	}

	if sub := strings.TrimSpace(claims.Subject()); sub != "" {
		return fmt.Sprintf("%s_%s", strings.ToLower(strings.TrimSpace(provider)), sub)
	}

	return ""
}

func (s *ClaimsUsernameStrategy) maxLength() int {
	if s.MaxLength > 0 {
		return s.MaxLength
	}
	return defaultUsernameMaxLength
}

// sanitize keeps letters, digits, '.', '_' and '-', maps whitespace to '_'
// and lowercases the result.
func (s *ClaimsUsernameStrategy) sanitize(v string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(v) {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune('_')
		}
	}

	out := strings.Trim(b.String(), "._-")
	runes := []rune(out)
	if max := s.maxLength(); len(runes) > max {
		out = strings.TrimRight(string(runes[:max]), "._-")
	}
	return out
}

func (s *ClaimsUsernameStrategy) withSuffix(base, suffix string) string {
	runes := []rune(base)
	if room := s.maxLength() - len(suffix); len(runes) > room {
		if room < 1 {
			room = 1
		}
		runes = runes[:room]
	}
	return string(runes) + suffix
}
