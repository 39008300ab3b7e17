package external

import (
	"fmt"
	"sort"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Common claim types.
const (
	ClaimSubject           = "sub"
	ClaimNameIdentifier    = "http://schemas.xmlsoap.org/ws/2005/05/identity/claims/nameidentifier"
	ClaimEmail             = "email"
	ClaimEmailVerified     = "email_verified"
	ClaimName              = "name"
	ClaimGivenName         = "given_name"
	ClaimFamilyName        = "family_name"
	ClaimPreferredUsername = "preferred_username"
	ClaimPicture           = "picture"
	ClaimRole              = "role"
	ClaimRoles             = "roles"
	ClaimGroups            = "groups"
)

// Claims is a list of external claims. Order is preserved and keys may repeat.
type Claims []ExternalUserClaim

// First returns the value of the first claim of type t, matching case-insensitively.
func (c Claims) First(t string) string {
	for _, claim := range c {
		if strings.EqualFold(claim.Type, t) {
			return claim.Value
		}
	}
	return ""
}

// All returns every value of claims of type t.
func (c Claims) All(t string) []string {
	var out []string
	for _, claim := range c {
		if strings.EqualFold(claim.Type, t) {
			out = append(out, claim.Value)
		}
	}
	return out
}

// Subject returns the provider's stable user identifier.
func (c Claims) Subject() string {
	if sub := c.First(ClaimSubject); sub != "" {
		return sub
	}
	return c.First(ClaimNameIdentifier)
}

// ClaimsFromMap flattens a provider claim set. Slice values produce one claim
// per element; nested maps are skipped. Keys are sorted so the output is
// deterministic.
func ClaimsFromMap(raw map[string]any) Claims {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make(Claims, 0, len(raw))
	for _, k := range keys {
		switch v := raw[k].(type) {
		case nil:
		case map[string]any:
		case []any:
			for _, item := range v {
				if s, ok := claimValue(item); ok {
					out = append(out, ExternalUserClaim{Type: k, Value: s})
				}
			}
		case []string:
			for _, item := range v {
				out = append(out, ExternalUserClaim{Type: k, Value: item})
			}
		default:
			if s, ok := claimValue(v); ok {
				out = append(out, ExternalUserClaim{Type: k, Value: s})
			}
		}
	}
	return out
}

// ClaimsFromJWT flattens the claims of a provider ID token.
func ClaimsFromJWT(claims jwt.MapClaims) Claims {
	return ClaimsFromMap(map[string]any(claims))
}

func claimValue(v any) (string, bool) {
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return fmt.Sprintf("%t", t), true
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t)), true
		}
		return fmt.Sprintf("%g", t), true
	case int, int32, int64, uint, uint32, uint64:
		return fmt.Sprintf("%d", t), true
	case fmt.Stringer:
		return t.String(), true
	default:
		return "", false
	}
}
