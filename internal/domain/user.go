package domain

import "time"

// Role enumerates actor roles consulted by the authorization matrix.
type Role string

const (
	RoleEngineer Role = "ENGINEER"
	RoleManager  Role = "MANAGER"
	RoleAdmin    Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleEngineer, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// User is an authenticated actor attributed to mutations.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
