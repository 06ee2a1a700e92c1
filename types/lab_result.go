package types

import "time"

// DateLayout is the calendar-date format used on the wire.
const DateLayout = "2006-01-02"

// ResultStatus is the lifecycle state of a lab result.
type ResultStatus string

const (
	ResultPending   ResultStatus = "pending"
	ResultCompleted ResultStatus = "completed"
	ResultDelivered ResultStatus = "delivered"
)

// Valid reports whether s is a known result status.
func (s ResultStatus) Valid() bool {
	switch s {
	case ResultPending, ResultCompleted, ResultDelivered:
		return true
	default:
		return false
	}
}

// LabResult is a single test outcome recorded for a patient.
type LabResult struct {
	// ID is the unique identifier of the result.
	ID int `json:"id" db:"id"`

	// PatientID references the patient the result belongs to.
	PatientID int `json:"patient_id" db:"patient_id"`

	// TestType is a free-text description such as "CBC" or "MRI".
	TestType string `json:"test_type" db:"test_type"`

	// TestDate is the day the sample or scan was taken, at midnight UTC.
	TestDate time.Time `json:"test_date" db:"test_date"`

	// ResultDate is the day the result became available, at midnight UTC.
	ResultDate time.Time `json:"result_date" db:"result_date"`

	// Status is pending, completed or delivered. Defaults to pending.
	Status ResultStatus `json:"status" db:"status"`

	// FilePath is the stored name of the result file in the file store.
	// Empty when no file was attached.
	FilePath string `json:"file_path,omitempty" db:"file_path"`

	// Notes holds optional free-text remarks from the lab.
	Notes string `json:"notes,omitempty" db:"notes"`

	// LabTechnician is the username of the technician who uploaded the result.
	LabTechnician string `json:"lab_technician,omitempty" db:"lab_technician"`
}

// HasFile reports whether a stored file is attached to the result.
func (r LabResult) HasFile() bool {
	return r.FilePath != ""
}

// DateOnly truncates t to midnight UTC of its calendar day.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
