package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/Bekawhite/DigitalLab/internal/auth"
	"github.com/Bekawhite/DigitalLab/internal/store"
	"github.com/Bekawhite/DigitalLab/types"
	"github.com/sirupsen/logrus"
)

// DoctorLookup finds doctor profiles by their unique keys.
type DoctorLookup interface {
	GetByLicenseNumber(ctx context.Context, license string) (types.Doctor, error)
}

// AccountCommitter persists a user and its profile atomically.
type AccountCommitter interface {
	CreatePatientAccount(ctx context.Context, user types.User, patient types.Patient) (types.User, types.Patient, error)
	CreateDoctorAccount(ctx context.Context, user types.User, doctor types.Doctor) (types.User, types.Doctor, error)
	CreateLabTechAccount(ctx context.Context, user types.User) (types.User, error)
}

// RegisterInput is everything a registration form may carry. Profile
// fields are read according to UserType.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	UserType string
	Phone    string

	FirstName string
	LastName  string

	DateOfBirth      time.Time
	Gender           string
	Address          string
	EmergencyContact string

	Specialization string
	LicenseNumber  string
	Hospital       string
}

// AuthService registers and authenticates users.
type AuthService struct {
	users     UserRepository
	doctors   DoctorLookup
	accounts  AccountCommitter
	passwords *auth.PasswordManager
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewAuthService(users UserRepository, doctors DoctorLookup, accounts AccountCommitter, passwords *auth.PasswordManager, log logrus.FieldLogger) *AuthService {
	return &AuthService{
		users:     users,
		doctors:   doctors,
		accounts:  accounts,
		passwords: passwords,
		log:       log,
		now:       time.Now,
	}
}

// Register validates in, checks every unique key, then creates the user and
// its role profile in one commit.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (types.User, error) {
	in = normalizeRegistration(in)
	role, err := s.validateRegistration(in)
	if err != nil {
		return types.User{}, err
	}
	if err := s.checkUnique(ctx, role, in); err != nil {
		return types.User{}, err
	}

	hash, err := s.passwords.HashPassword(in.Password)
	if err != nil {
		return types.User{}, err
	}
	user := types.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
		Phone:        in.Phone,
	}

	switch role {
	case types.RolePatient:
		user, _, err = s.accounts.CreatePatientAccount(ctx, user, types.Patient{
			FirstName:        in.FirstName,
			LastName:         in.LastName,
			DateOfBirth:      in.DateOfBirth,
			Gender:           in.Gender,
			Address:          in.Address,
			EmergencyContact: in.EmergencyContact,
		})
	case types.RoleDoctor:
		user, _, err = s.accounts.CreateDoctorAccount(ctx, user, types.Doctor{
			FirstName:      in.FirstName,
			LastName:       in.LastName,
			Specialization: in.Specialization,
			LicenseNumber:  in.LicenseNumber,
			Hospital:       in.Hospital,
		})
	case types.RoleLabTech:
		user, err = s.accounts.CreateLabTechAccount(ctx, user)
	}
	if err != nil {
		return types.User{}, err
	}

	s.log.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"username":  user.Username,
		"user_type": user.Role,
	}).Info("user registered")
	return user, nil
}

// Authenticate returns the user whose credentials match. Unknown usernames
// and wrong passwords fail identically with ErrAuthFailure.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (types.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return types.User{}, required("username")
	}
	if password == "" {
		return types.User{}, required("password")
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return types.User{}, fmt.Errorf("load user: %w", err)
		}
		s.passwords.BurnCompare(password)
		s.log.WithField("username", username).Info("authentication failed")
		return types.User{}, ErrAuthFailure
	}

	ok, err := s.passwords.VerifyPassword(user.PasswordHash, password)
	if err != nil {
		return types.User{}, err
	}
	if !ok {
		s.log.WithField("username", username).Info("authentication failed")
		return types.User{}, ErrAuthFailure
	}
	return user, nil
}

func normalizeRegistration(in RegisterInput) RegisterInput {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.UserType = strings.TrimSpace(in.UserType)
	in.Phone = strings.TrimSpace(in.Phone)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Gender = strings.ToLower(strings.TrimSpace(in.Gender))
	in.Address = strings.TrimSpace(in.Address)
	in.EmergencyContact = strings.TrimSpace(in.EmergencyContact)
	in.Specialization = strings.TrimSpace(in.Specialization)
	in.LicenseNumber = strings.TrimSpace(in.LicenseNumber)
	in.Hospital = strings.TrimSpace(in.Hospital)
	return in
}

func (s *AuthService) validateRegistration(in RegisterInput) (types.Role, error) {
	if in.Username == "" {
		return "", required("username")
	}
	if in.Email == "" {
		return "", required("email")
	}
	if addr, err := mail.ParseAddress(in.Email); err != nil || addr.Address != in.Email {
		return "", invalid("email", "is not a valid address")
	}
	if in.Password == "" {
		return "", required("password")
	}
	if err := checkPassword(in.Password); err != nil {
		return "", err
	}
	role, err := types.ParseRole(in.UserType)
	if err != nil {
		return "", invalid("user_type", "must be one of patient, doctor, lab_tech")
	}
	if err := checkLengths(
		lengthCheck{"username", in.Username, maxUsernameLen},
		lengthCheck{"email", in.Email, maxEmailLen},
		lengthCheck{"phone", in.Phone, maxPhoneLen},
	); err != nil {
		return "", err
	}

	switch role {
	case types.RolePatient:
		if in.FirstName == "" {
			return "", required("first_name")
		}
		if in.LastName == "" {
			return "", required("last_name")
		}
		if in.DateOfBirth.IsZero() {
			return "", required("date_of_birth")
		}
		if types.DateOnly(in.DateOfBirth).After(types.DateOnly(s.now())) {
			return "", invalid("date_of_birth", "is in the future")
		}
		if in.Gender == "" {
			return "", required("gender")
		}
		if !slices.Contains(types.Genders, in.Gender) {
			return "", invalid("gender", "must be one of male, female, other")
		}
		if err := checkLengths(
			lengthCheck{"first_name", in.FirstName, maxNameLen},
			lengthCheck{"last_name", in.LastName, maxNameLen},
			lengthCheck{"emergency_contact", in.EmergencyContact, maxEmergencyContactLen},
		); err != nil {
			return "", err
		}
	case types.RoleDoctor:
		if in.FirstName == "" {
			return "", required("first_name")
		}
		if in.LastName == "" {
			return "", required("last_name")
		}
		if in.Specialization == "" {
			return "", required("specialization")
		}
		if in.LicenseNumber == "" {
			return "", required("license_number")
		}
		if err := checkLengths(
			lengthCheck{"first_name", in.FirstName, maxNameLen},
			lengthCheck{"last_name", in.LastName, maxNameLen},
			lengthCheck{"specialization", in.Specialization, maxSpecializationLen},
			lengthCheck{"license_number", in.LicenseNumber, maxLicenseNumberLen},
			lengthCheck{"hospital", in.Hospital, maxHospitalLen},
		); err != nil {
			return "", err
		}
	case types.RoleLabTech:
	}
	return role, nil
}

func (s *AuthService) checkUnique(ctx context.Context, role types.Role, in RegisterInput) error {
	if _, err := s.users.GetByUsername(ctx, in.Username); err == nil {
		return &store.DuplicateError{Field: store.FieldUsername}
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check username: %w", err)
	}

	if _, err := s.users.GetByEmail(ctx, in.Email); err == nil {
		return &store.DuplicateError{Field: store.FieldEmail}
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check email: %w", err)
	}

	if role != types.RoleDoctor {
		return nil
	}
	if _, err := s.doctors.GetByLicenseNumber(ctx, in.LicenseNumber); err == nil {
		return &store.DuplicateError{Field: store.FieldLicenseNumber}
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check license number: %w", err)
	}
	return nil
}
