package store

import (
	"context"
	"fmt"

	"github.com/Bekawhite/DigitalLab/types"
)

// CreatePatientAccount inserts a patient user and its profile in one
// transaction. A failure on either insert leaves no rows behind.
func (s *Store) CreatePatientAccount(ctx context.Context, user types.User, patient types.Patient) (types.User, types.Patient, error) {
	if user.Role != types.RolePatient {
		return types.User{}, types.Patient{}, fmt.Errorf("%w: %s cannot own a patient profile", ErrRoleMismatch, user.Role)
	}

	err := s.WithTx(ctx, func(tx *Store) error {
		created, err := tx.Users.Create(ctx, user)
		if err != nil {
			return err
		}
		patient.UserID = created.ID
		createdPatient, err := tx.Patients.Create(ctx, patient)
		if err != nil {
			return err
		}
		user, patient = created, createdPatient
		return nil
	})
	if err != nil {
		return types.User{}, types.Patient{}, err
	}
	return user, patient, nil
}

// CreateDoctorAccount inserts a doctor user and its profile in one
// transaction.
func (s *Store) CreateDoctorAccount(ctx context.Context, user types.User, doctor types.Doctor) (types.User, types.Doctor, error) {
	if user.Role != types.RoleDoctor {
		return types.User{}, types.Doctor{}, fmt.Errorf("%w: %s cannot own a doctor profile", ErrRoleMismatch, user.Role)
	}

	err := s.WithTx(ctx, func(tx *Store) error {
		created, err := tx.Users.Create(ctx, user)
		if err != nil {
			return err
		}
		doctor.UserID = created.ID
		createdDoctor, err := tx.Doctors.Create(ctx, doctor)
		if err != nil {
			return err
		}
		user, doctor = created, createdDoctor
		return nil
	})
	if err != nil {
		return types.User{}, types.Doctor{}, err
	}
	return user, doctor, nil
}

// CreateLabTechAccount inserts a lab technician user. Lab technicians have
// no profile row.
func (s *Store) CreateLabTechAccount(ctx context.Context, user types.User) (types.User, error) {
	if user.Role != types.RoleLabTech {
		return types.User{}, fmt.Errorf("%w: expected %s, got %s", ErrRoleMismatch, types.RoleLabTech, user.Role)
	}
	return s.Users.Create(ctx, user)
}

// CreateLabResult inserts a result and its notification log entry in one
// transaction; readers never observe one without the other.
func (s *Store) CreateLabResult(ctx context.Context, result types.LabResult, notification types.Notification) (types.LabResult, types.Notification, error) {
	err := s.WithTx(ctx, func(tx *Store) error {
		created, err := tx.LabResults.Create(ctx, result)
		if err != nil {
			return fmt.Errorf("insert lab result: %w", err)
		}
		notification.LabResultID = created.ID
		createdNotification, err := tx.Notifications.Create(ctx, notification)
		if err != nil {
			return fmt.Errorf("insert notification: %w", err)
		}
		result, notification = created, createdNotification
		return nil
	})
	if err != nil {
		return types.LabResult{}, types.Notification{}, err
	}
	return result, notification, nil
}
