package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Bekawhite/DigitalLab/types"
)

// PatientRepository handles persistence for patient profiles.
type PatientRepository struct {
	db DBTX
}

func NewPatientRepository(db DBTX) *PatientRepository {
	return &PatientRepository{db: db}
}

const patientColumns = `id, user_id, first_name, last_name, date_of_birth, gender, address, emergency_contact`

func (r *PatientRepository) GetByID(ctx context.Context, id int) (types.Patient, error) {
	const query = `SELECT ` + patientColumns + ` FROM patients WHERE id = $1`
	return scanPatient(r.db.QueryRowContext(ctx, query, id))
}

func (r *PatientRepository) GetByUserID(ctx context.Context, userID int) (types.Patient, error) {
	const query = `SELECT ` + patientColumns + ` FROM patients WHERE user_id = $1`
	return scanPatient(r.db.QueryRowContext(ctx, query, userID))
}

// List returns every patient ordered by first name for stable display.
func (r *PatientRepository) List(ctx context.Context) ([]types.Patient, error) {
	const query = `SELECT ` + patientColumns + ` FROM patients ORDER BY first_name, id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := make([]types.Patient, 0)
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, patient)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return patients, nil
}

func (r *PatientRepository) Create(ctx context.Context, patient types.Patient) (types.Patient, error) {
	patient.DateOfBirth = types.DateOnly(patient.DateOfBirth)

	const query = `
		INSERT INTO patients (user_id, first_name, last_name, date_of_birth, gender, address, emergency_contact)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		patient.UserID,
		patient.FirstName,
		patient.LastName,
		patient.DateOfBirth,
		patient.Gender,
		nullString(patient.Address),
		nullString(patient.EmergencyContact),
	).Scan(&patient.ID); err != nil {
		return types.Patient{}, duplicateFrom(err)
	}
	return patient, nil
}

// DoctorRepository handles persistence for doctor profiles.
type DoctorRepository struct {
	db DBTX
}

func NewDoctorRepository(db DBTX) *DoctorRepository {
	return &DoctorRepository{db: db}
}

const doctorColumns = `id, user_id, first_name, last_name, specialization, license_number, hospital`

func (r *DoctorRepository) GetByUserID(ctx context.Context, userID int) (types.Doctor, error) {
	const query = `SELECT ` + doctorColumns + ` FROM doctors WHERE user_id = $1`
	return scanDoctor(r.db.QueryRowContext(ctx, query, userID))
}

func (r *DoctorRepository) GetByLicenseNumber(ctx context.Context, license string) (types.Doctor, error) {
	const query = `SELECT ` + doctorColumns + ` FROM doctors WHERE license_number = $1`
	return scanDoctor(r.db.QueryRowContext(ctx, query, license))
}

func (r *DoctorRepository) Create(ctx context.Context, doctor types.Doctor) (types.Doctor, error) {
	const query = `
		INSERT INTO doctors (user_id, first_name, last_name, specialization, license_number, hospital)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		doctor.UserID,
		doctor.FirstName,
		doctor.LastName,
		doctor.Specialization,
		doctor.LicenseNumber,
		nullString(doctor.Hospital),
	).Scan(&doctor.ID); err != nil {
		return types.Doctor{}, duplicateFrom(err)
	}
	return doctor, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPatient(row rowScanner) (types.Patient, error) {
	var (
		patient   types.Patient
		address   sql.NullString
		emergency sql.NullString
	)
	err := row.Scan(
		&patient.ID,
		&patient.UserID,
		&patient.FirstName,
		&patient.LastName,
		&patient.DateOfBirth,
		&patient.Gender,
		&address,
		&emergency,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Patient{}, ErrNotFound
		}
		return types.Patient{}, err
	}
	patient.DateOfBirth = types.DateOnly(patient.DateOfBirth.UTC())
	patient.Address = address.String
	patient.EmergencyContact = emergency.String
	return patient, nil
}

func scanDoctor(row rowScanner) (types.Doctor, error) {
	var (
		doctor   types.Doctor
		hospital sql.NullString
	)
	err := row.Scan(
		&doctor.ID,
		&doctor.UserID,
		&doctor.FirstName,
		&doctor.LastName,
		&doctor.Specialization,
		&doctor.LicenseNumber,
		&hospital,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Doctor{}, ErrNotFound
		}
		return types.Doctor{}, err
	}
	doctor.Hospital = hospital.String
	return doctor, nil
}
