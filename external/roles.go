package external

import (
	"strings"

	"github.com/goliatone/go-auth-workflows"
)

// DefaultRoleClaimTypes are read by ClaimRoleMapper when ClaimTypes is empty.
var DefaultRoleClaimTypes = []string{ClaimRole, ClaimRoles, ClaimGroups}

// ClaimRoleMapper turns provider role/group claims into local role names.
type ClaimRoleMapper struct {
	ClaimTypes []string
	// Mapping translates external values (case-insensitive) to local roles.
	Mapping map[string]string
	// Strict drops values that have no entry in Mapping.
	Strict       bool
	DefaultRoles []string
}

// Map returns the normalized local roles granted by claims.
func (m *ClaimRoleMapper) Map(claims []ExternalUserClaim) []string {
	types := m.ClaimTypes
	if len(types) == 0 {
		types = DefaultRoleClaimTypes
	}

	mapping := make(map[string]string, len(m.Mapping))
	for k, v := range m.Mapping {
		mapping[strings.ToLower(strings.TrimSpace(k))] = v
	}

	var roles []string
	for _, t := range types {
		for _, value := range Claims(claims).All(t) {
			for _, part := range splitRoleValue(value) {
				if mapped, ok := mapping[strings.ToLower(part)]; ok {
					roles = append(roles, mapped)
					continue
				}
				if !m.Strict {
					roles = append(roles, part)
				}
			}
		}
	}

	roles = append(roles, m.DefaultRoles...)
	return auth.NormalizeRoles(roles)
}

// splitRoleValue handles providers that send roles as one
// space or comma separated claim.
func splitRoleValue(v string) []string {
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ' ' || r == ';'
	})
}
