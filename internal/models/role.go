package models

import (
	"fmt"
	"strings"
)

// Role is the closed set of roster roles. Authorization switches over it
// exhaustively; any value outside the set is treated as having no rights.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleStandard Role = "standard"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStandard:
		return true
	default:
		return false
	}
}

// ParseRole normalises user input into a Role. The legacy client labels
// ("usuario", "user") map to RoleStandard.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "admin":
		return RoleAdmin, nil
	case "standard", "usuario", "user":
		return RoleStandard, nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}
