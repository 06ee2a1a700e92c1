package types

import (
	"fmt"
	"strings"
	"time"
)

// Role is the user_type fixed at registration. It determines which
// results and actions are visible to the account.
type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleLabTech Role = "lab_tech"
)

// Roles lists every valid role in registration order.
var Roles = []Role{RolePatient, RoleDoctor, RoleLabTech}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleLabTech:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// ParseRole converts a raw user_type value into a Role.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown user type %q", raw)
	}
	return role, nil
}

// User represents an account in the portal.
// It contains identity, role, and creation metadata.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Username is the unique login name chosen by the user.
	Username string `json:"username" db:"username"`

	// Email is the user's unique email address.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the salted bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// Role is the account type: patient, doctor or lab_tech.
	// It cannot change after registration.
	Role Role `json:"user_type" db:"user_type"`

	// Phone is an optional contact number. When present it is used as the
	// recipient of result notifications for patients.
	Phone string `json:"phone,omitempty" db:"phone"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
