package types

import (
	"fmt"
	"strings"
	"time"
)

// Genders accepted on patient registration.
var Genders = []string{"male", "female", "other"}

// Patient is the profile owned by a patient account.
type Patient struct {
	// ID is the unique identifier of the patient profile.
	ID int `json:"id" db:"id"`

	// UserID references the owning user. Each user has at most one
	// patient profile.
	UserID int `json:"user_id" db:"user_id"`

	// FirstName is the patient's given name.
	FirstName string `json:"first_name" db:"first_name"`

	// LastName is the patient's family name.
	LastName string `json:"last_name" db:"last_name"`

	// DateOfBirth is the patient's date of birth at midnight UTC.
	DateOfBirth time.Time `json:"date_of_birth" db:"date_of_birth"`

	// Gender is one of male, female or other.
	Gender string `json:"gender" db:"gender"`

	// Address is the optional postal address.
	Address string `json:"address,omitempty" db:"address"`

	// EmergencyContact is an optional phone number for emergencies.
	EmergencyContact string `json:"emergency_contact,omitempty" db:"emergency_contact"`
}

// FullName returns "First Last".
func (p Patient) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// Label identifies the patient in pickers without exposing
// further profile details.
func (p Patient) Label() string {
	return fmt.Sprintf("%s (DOB %s)", p.FullName(), p.DateOfBirth.Format(DateLayout))
}

// Doctor is the profile owned by a doctor account.
type Doctor struct {
	// ID is the unique identifier of the doctor profile.
	ID int `json:"id" db:"id"`

	// UserID references the owning user.
	UserID int `json:"user_id" db:"user_id"`

	// FirstName is the doctor's given name.
	FirstName string `json:"first_name" db:"first_name"`

	// LastName is the doctor's family name.
	LastName string `json:"last_name" db:"last_name"`

	// Specialization is the doctor's medical specialty.
	Specialization string `json:"specialization" db:"specialization"`

	// LicenseNumber is the professional license, unique across doctors.
	LicenseNumber string `json:"license_number" db:"license_number"`

	// Hospital is the optional hospital or clinic name.
	Hospital string `json:"hospital,omitempty" db:"hospital"`
}
