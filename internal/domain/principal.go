package domain

import (
	"strings"
	"time"
)

// Role enumerates hospital staff roles. The set is closed.
type Role string

const (
	RoleAdmin        Role = "ADMIN"
	RoleDoctor       Role = "DOCTOR"
	RoleNurse        Role = "NURSE"
	RoleReceptionist Role = "RECEPTIONIST"
)

// Roles lists every valid role.
var Roles = []Role{RoleAdmin, RoleDoctor, RoleNurse, RoleReceptionist}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	for _, role := range Roles {
		if r == role {
			return true
		}
	}
	return false
}

// ParseRole converts a raw value into a Role.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", ErrInvalidRole
	}
	return role, nil
}

// Principal is the stored credential record. Identifier is the primary key.
type Principal struct {
	Identifier   string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}

// NormalizeIdentifier lower-cases and trims an identifier so lookups are
// case-insensitive.
func NormalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}
