package services

import (
	"unicode/utf8"

	"github.com/Bekawhite/DigitalLab/internal/auth"
)

// Widths of the VARCHAR columns the inputs are stored in.
const (
	maxUsernameLen         = 80
	maxEmailLen            = 120
	maxPhoneLen            = 20
	maxNameLen             = 50
	maxEmergencyContactLen = 20
	maxSpecializationLen   = 100
	maxLicenseNumberLen    = 50
	maxHospitalLen         = 100
	maxTestTypeLen         = 100
)

type lengthCheck struct {
	field string
	value string
	limit int
}

// checkLengths returns a ValidationError for the first value longer than
// its limit in characters.
func checkLengths(checks ...lengthCheck) error {
	for _, c := range checks {
		if utf8.RuneCountInString(c.value) > c.limit {
			return invalid(c.field, "is too long")
		}
	}
	return nil
}

// checkPassword enforces the bcrypt input limit, which counts bytes.
func checkPassword(password string) error {
	if len(password) > auth.MaxPasswordBytes {
		return invalid("password", "is too long")
	}
	return nil
}
