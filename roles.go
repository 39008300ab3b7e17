package auth

import (
	"slices"
	"sort"
	"strings"
)

// IsValidRole checks if the role is one of the predefined valid roles
func IsValidRole(r UserRole) bool {
	return slices.Contains(GetAllRoles(), r)
}

var roleHierarchy = map[UserRole]int{
	RoleGuest:  0,
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// IsAtLeast checks if role meets the minimum required level.
// Roles outside the predefined hierarchy never qualify.
func IsAtLeast(role, minRole UserRole) bool {
	currentLevel, exists := roleHierarchy[role]
	if !exists {
		return false
	}

	minLevel, exists := roleHierarchy[minRole]
	if !exists {
		return false
	}

	return currentLevel >= minLevel
}

// GetAllRoles returns all predefined roles in hierarchical order
func GetAllRoles() []UserRole {
	return []UserRole{
		RoleGuest,
		RoleMember,
		RoleAdmin,
		RoleOwner,
	}
}

// ParseRole safely parses a string into a UserRole type
func ParseRole(roleStr string) (UserRole, bool) {
	role := UserRole(strings.ToLower(strings.TrimSpace(roleStr)))
	return role, IsValidRole(role)
}

// HighestRole returns the highest predefined role in roles, falling back
// to def when none of them is part of the hierarchy.
func HighestRole(roles []string, def UserRole) UserRole {
	best := ""
	for _, r := range roles {
		role, ok := ParseRole(r)
		if !ok {
			continue
		}
		if best == "" || IsAtLeast(role, best) {
			best = role
		}
	}
	if best == "" {
		return def
	}
	return best
}

// NormalizeRoles trims, drops empty values and de-duplicates role names.
// The result is sorted. Role names are otherwise kept as given since
// applications may define roles outside the predefined hierarchy.
func NormalizeRoles(roles []string) []string {
	seen := make(map[string]struct{}, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}

// RoleChanges describes the outcome of a role synchronization.
type RoleChanges struct {
	Added   []string `json:"added,omitempty"`
	Removed []string `json:"removed,omitempty"`
}

// Empty reports whether nothing changed.
func (c RoleChanges) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}
