package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Bekawhite/DigitalLab/internal/access"
	"github.com/Bekawhite/DigitalLab/internal/session"
	"github.com/Bekawhite/DigitalLab/internal/storage"
	"github.com/Bekawhite/DigitalLab/internal/store"
	"github.com/Bekawhite/DigitalLab/types"
	"github.com/sirupsen/logrus"
)

// PatientRepository defines read operations for patient profiles.
type PatientRepository interface {
	GetByID(ctx context.Context, id int) (types.Patient, error)
	GetByUserID(ctx context.Context, userID int) (types.Patient, error)
	List(ctx context.Context) ([]types.Patient, error)
}

// DoctorRepository defines read operations for doctor profiles.
type DoctorRepository interface {
	GetByUserID(ctx context.Context, userID int) (types.Doctor, error)
}

// LabResultRepository defines read operations for lab results.
type LabResultRepository interface {
	Get(ctx context.Context, id int) (types.LabResult, error)
	List(ctx context.Context, filter store.LabResultFilter) ([]types.LabResult, error)
}

// NotificationRepository defines read operations for notification logs.
type NotificationRepository interface {
	ListByLabResult(ctx context.Context, labResultID int) ([]types.Notification, error)
}

// FileReader loads stored result files.
type FileReader interface {
	Get(ctx context.Context, name string) ([]byte, error)
}

// ResultView is a lab result as shown to a caller. PatientName is set only
// for roles that may see patient identity.
type ResultView struct {
	types.LabResult
	PatientName string `json:"patient_name,omitempty"`
}

// ResultDetail is a single result with its notification log.
type ResultDetail struct {
	ResultView
	Notifications []types.Notification `json:"notifications"`
}

// PatientOption labels a patient in the upload form.
type PatientOption struct {
	ID    int    `json:"id"`
	Label string `json:"label"`
}

// Download is a result file ready to be served.
type Download struct {
	Name        string
	ContentType string
	Data        []byte
}

// Dashboard is the role-specific landing projection.
type Dashboard struct {
	UserType types.Role      `json:"user_type"`
	Greeting string          `json:"greeting"`
	Profile  *PatientProfile `json:"profile,omitempty"`

	Results   []ResultView `json:"results,omitempty"`
	Pending   []ResultView `json:"pending,omitempty"`
	Completed []ResultView `json:"completed,omitempty"`
}

// PatientProfile is what a patient sees about themself.
type PatientProfile struct {
	types.Patient
	Phone string `json:"phone,omitempty"`
}

// ResultService serves role-scoped reads of lab results.
type ResultService struct {
	users         UserRepository
	patients      PatientRepository
	doctors       DoctorRepository
	results       LabResultRepository
	notifications NotificationRepository
	files         FileReader
	log           logrus.FieldLogger
}

func NewResultService(
	users UserRepository,
	patients PatientRepository,
	doctors DoctorRepository,
	results LabResultRepository,
	notifications NotificationRepository,
	files FileReader,
	log logrus.FieldLogger,
) *ResultService {
	return &ResultService{
		users:         users,
		patients:      patients,
		doctors:       doctors,
		results:       results,
		notifications: notifications,
		files:         files,
		log:           log,
	}
}

// Viewer re-loads the caller's user row and derives its policy from the
// stored role.
func (s *ResultService) Viewer(ctx context.Context, sess session.Session) (types.User, access.Policy, error) {
	return resolve(ctx, s.users, sess)
}

// Dashboard builds the landing view for the caller's role.
func (s *ResultService) Dashboard(ctx context.Context, sess session.Session) (Dashboard, error) {
	user, policy, err := resolve(ctx, s.users, sess)
	if err != nil {
		return Dashboard{}, err
	}
	dash := Dashboard{UserType: user.Role}

	switch user.Role {
	case types.RolePatient:
		patient, err := s.patients.GetByUserID(ctx, user.ID)
		if errors.Is(err, store.ErrNotFound) {
			dash.Greeting = "Welcome, " + user.Username
			dash.Results = []ResultView{}
			return dash, nil
		}
		if err != nil {
			return Dashboard{}, err
		}
		dash.Greeting = "Welcome, " + patient.FullName()
		dash.Profile = &PatientProfile{Patient: patient, Phone: user.Phone}
		results, err := s.results.List(ctx, store.LabResultFilter{PatientID: patient.ID})
		if err != nil {
			return Dashboard{}, err
		}
		dash.Results, err = s.views(ctx, policy, results)
		if err != nil {
			return Dashboard{}, err
		}
	case types.RoleDoctor:
		dash.Greeting = "Welcome, " + user.Username
		doctor, err := s.doctors.GetByUserID(ctx, user.ID)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			return Dashboard{}, err
		}
		if err == nil && doctor.LastName != "" {
			dash.Greeting = "Welcome, Dr. " + doctor.LastName
		}
		results, err := s.results.List(ctx, store.LabResultFilter{})
		if err != nil {
			return Dashboard{}, err
		}
		dash.Results, err = s.views(ctx, policy, results)
		if err != nil {
			return Dashboard{}, err
		}
	case types.RoleLabTech:
		dash.Greeting = "Welcome, " + user.Username + " (Lab Technician)"
		pending, err := s.results.List(ctx, store.LabResultFilter{Status: types.ResultPending})
		if err != nil {
			return Dashboard{}, err
		}
		completed, err := s.results.List(ctx, store.LabResultFilter{Status: types.ResultCompleted})
		if err != nil {
			return Dashboard{}, err
		}
		if dash.Pending, err = s.views(ctx, policy, pending); err != nil {
			return Dashboard{}, err
		}
		if dash.Completed, err = s.views(ctx, policy, completed); err != nil {
			return Dashboard{}, err
		}
	default:
		return Dashboard{}, ErrAccessDenied
	}
	return dash, nil
}

// ListResults returns every result within the caller's scope, newest first.
func (s *ResultService) ListResults(ctx context.Context, sess session.Session) ([]ResultView, error) {
	_, policy, err := resolve(ctx, s.users, sess)
	if err != nil {
		return nil, err
	}
	filter, err := s.scopeFilter(ctx, policy)
	if err != nil {
		return nil, err
	}
	if filter == nil {
		return []ResultView{}, nil
	}
	results, err := s.results.List(ctx, *filter)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, policy, results)
}

// GetResult returns one result with its notifications when it is within
// the caller's scope.
func (s *ResultService) GetResult(ctx context.Context, sess session.Session, id int) (ResultDetail, error) {
	_, policy, err := resolve(ctx, s.users, sess)
	if err != nil {
		return ResultDetail{}, err
	}
	result, err := s.visibleResult(ctx, policy, id)
	if err != nil {
		return ResultDetail{}, err
	}
	views, err := s.views(ctx, policy, []types.LabResult{result})
	if err != nil {
		return ResultDetail{}, err
	}
	notifications, err := s.notifications.ListByLabResult(ctx, id)
	if err != nil {
		return ResultDetail{}, err
	}
	if !policy.ShowRecipients {
		for i := range notifications {
			notifications[i].Recipient = ""
		}
	}
	return ResultDetail{ResultView: views[0], Notifications: notifications}, nil
}

// Download returns the file attached to a visible result. A result without
// a file, or whose blob is gone, fails with storage.ErrNotFound.
func (s *ResultService) Download(ctx context.Context, sess session.Session, id int) (Download, error) {
	_, policy, err := resolve(ctx, s.users, sess)
	if err != nil {
		return Download{}, err
	}
	if !policy.CanDownload {
		return Download{}, ErrAccessDenied
	}
	result, err := s.visibleResult(ctx, policy, id)
	if err != nil {
		return Download{}, err
	}
	if !result.HasFile() {
		return Download{}, storage.ErrNotFound
	}

	data, err := s.files.Get(ctx, result.FilePath)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			s.log.WithFields(logrus.Fields{
				"lab_result_id": result.ID,
				"file":          result.FilePath,
			}).Warn("result file missing from store")
		}
		return Download{}, err
	}
	return Download{
		Name:        result.FilePath,
		ContentType: storage.ContentType(result.FilePath),
		Data:        data,
	}, nil
}

// ListPatients returns picker labels for every patient, ordered by first
// name. Only roles that upload may call it.
func (s *ResultService) ListPatients(ctx context.Context, sess session.Session) ([]PatientOption, error) {
	_, policy, err := resolve(ctx, s.users, sess)
	if err != nil {
		return nil, err
	}
	if !policy.CanListPatients {
		return nil, ErrAccessDenied
	}
	patients, err := s.patients.List(ctx)
	if err != nil {
		return nil, err
	}
	options := make([]PatientOption, 0, len(patients))
	for _, p := range patients {
		options = append(options, PatientOption{ID: p.ID, Label: p.Label()})
	}
	return options, nil
}

// scopeFilter returns the listing filter for policy, or nil when a patient
// has no profile and therefore no results.
func (s *ResultService) scopeFilter(ctx context.Context, policy access.Policy) (*store.LabResultFilter, error) {
	switch policy.Scope {
	case access.ScopeAllResults:
		return &store.LabResultFilter{}, nil
	case access.ScopeOwnResults:
		patient, err := s.patients.GetByUserID(ctx, policy.UserID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &store.LabResultFilter{PatientID: patient.ID}, nil
	default:
		return nil, ErrAccessDenied
	}
}

func (s *ResultService) visibleResult(ctx context.Context, policy access.Policy, id int) (types.LabResult, error) {
	if !policy.CanReadResults() {
		return types.LabResult{}, ErrAccessDenied
	}
	result, err := s.results.Get(ctx, id)
	if err != nil {
		return types.LabResult{}, err
	}
	if policy.Scope == access.ScopeAllResults {
		return result, nil
	}

	patient, err := s.patients.GetByUserID(ctx, policy.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return types.LabResult{}, ErrAccessDenied
	}
	if err != nil {
		return types.LabResult{}, err
	}
	if result.PatientID != patient.ID {
		return types.LabResult{}, ErrAccessDenied
	}
	return result, nil
}

func (s *ResultService) views(ctx context.Context, policy access.Policy, results []types.LabResult) ([]ResultView, error) {
	views := make([]ResultView, 0, len(results))
	var names map[int]string
	if policy.ShowPatientIdentity && len(results) > 0 {
		patients, err := s.patients.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("load patients: %w", err)
		}
		names = make(map[int]string, len(patients))
		for _, p := range patients {
			names[p.ID] = p.FullName()
		}
	}
	for _, r := range results {
		views = append(views, ResultView{LabResult: r, PatientName: names[r.PatientID]})
	}
	return views, nil
}
