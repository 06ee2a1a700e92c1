package store

import (
	"errors"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrRoleMismatch is returned when a profile would be attached to a user
// whose user_type does not match the profile kind.
var ErrRoleMismatch = errors.New("profile does not match user type")

// Unique fields reported by DuplicateError.
const (
	FieldUsername      = "username"
	FieldEmail         = "email"
	FieldLicenseNumber = "license_number"
)

// DuplicateError reports a uniqueness violation on a single field.
type DuplicateError struct {
	Field string
}

func (e *DuplicateError) Error() string {
	return e.Field + " already exists"
}

const pqUniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		if code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY {
			return true
		}
		// primary result code only, when extended codes are off
		return code&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(liteErr.Error(), "UNIQUE")
	}
	return false
}

// duplicateFrom converts a unique violation into a DuplicateError naming
// the offending column. Constraint names follow <table>_<column>_key in
// both dialects and SQLite reports <table>.<column>, so matching the
// column name covers both.
func duplicateFrom(err error) error {
	if !isUniqueViolation(err) {
		return err
	}
	msg := err.Error()
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Constraint != "" {
		msg = pqErr.Constraint
	}
	for _, field := range []string{FieldLicenseNumber, FieldUsername, FieldEmail} {
		if strings.Contains(msg, field) {
			return &DuplicateError{Field: field}
		}
	}
	return err
}
