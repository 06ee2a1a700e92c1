package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Bekawhite/DigitalLab/internal/session"
	"github.com/Bekawhite/DigitalLab/types"
	"github.com/sirupsen/logrus"
)

// FileStore stores and removes result files.
type FileStore interface {
	Put(ctx context.Context, originalName string, data []byte) (string, error)
	Delete(ctx context.Context, name string) error
}

// ResultCommitter persists a result with its notification atomically.
type ResultCommitter interface {
	CreateLabResult(ctx context.Context, result types.LabResult, notification types.Notification) (types.LabResult, types.Notification, error)
}

// FileUpload is an uploaded file as received from the client.
type FileUpload struct {
	Name string
	Data []byte
}

// UploadInput is the lab technician's upload form.
type UploadInput struct {
	PatientID  int
	TestType   string
	TestDate   time.Time
	ResultDate time.Time
	Notes      string
	File       *FileUpload
}

// UploadService turns a filled upload form into a stored file, a completed
// lab result and its portal notification.
type UploadService struct {
	users    UserRepository
	patients PatientRepository
	files    FileStore
	commits  ResultCommitter
	log      logrus.FieldLogger
}

func NewUploadService(users UserRepository, patients PatientRepository, files FileStore, commits ResultCommitter, log logrus.FieldLogger) *UploadService {
	return &UploadService{
		users:    users,
		patients: patients,
		files:    files,
		commits:  commits,
		log:      log,
	}
}

// Upload validates in, stores the file and commits the result with a
// portal notification addressed to the patient. Nothing is written unless
// every check passes; if the commit fails after the file was stored, the
// file is deleted on a best-effort basis.
func (s *UploadService) Upload(ctx context.Context, sess session.Session, in UploadInput) (types.LabResult, types.Notification, error) {
	if sess.Role != types.RoleLabTech {
		return types.LabResult{}, types.Notification{}, ErrAccessDenied
	}
	tech, err := currentUser(ctx, s.users, sess)
	if err != nil {
		return types.LabResult{}, types.Notification{}, err
	}
	if tech.Role != types.RoleLabTech {
		return types.LabResult{}, types.Notification{}, ErrAccessDenied
	}

	testType := strings.TrimSpace(in.TestType)
	if testType == "" {
		return types.LabResult{}, types.Notification{}, required("test_type")
	}
	if err := checkLengths(lengthCheck{"test_type", testType, maxTestTypeLen}); err != nil {
		return types.LabResult{}, types.Notification{}, err
	}
	if in.File == nil || strings.TrimSpace(in.File.Name) == "" {
		return types.LabResult{}, types.Notification{}, required("file")
	}
	if in.TestDate.IsZero() {
		return types.LabResult{}, types.Notification{}, required("test_date")
	}
	if in.ResultDate.IsZero() {
		return types.LabResult{}, types.Notification{}, required("result_date")
	}
	if in.PatientID < 1 {
		return types.LabResult{}, types.Notification{}, required("patient_id")
	}

	patient, err := s.patients.GetByID(ctx, in.PatientID)
	if err != nil {
		return types.LabResult{}, types.Notification{}, fmt.Errorf("patient %d: %w", in.PatientID, err)
	}
	owner, err := s.users.GetByID(ctx, patient.UserID)
	if err != nil {
		return types.LabResult{}, types.Notification{}, fmt.Errorf("patient %d account: %w", in.PatientID, err)
	}
	recipient := owner.Phone
	if recipient == "" {
		recipient = owner.Email
	}

	stored, err := s.files.Put(ctx, in.File.Name, in.File.Data)
	if err != nil {
		return types.LabResult{}, types.Notification{}, err
	}

	result, notification, err := s.commits.CreateLabResult(ctx, types.LabResult{
		PatientID:     patient.ID,
		TestType:      testType,
		TestDate:      in.TestDate,
		ResultDate:    in.ResultDate,
		Status:        types.ResultCompleted,
		FilePath:      stored,
		Notes:         strings.TrimSpace(in.Notes),
		LabTechnician: tech.Username,
	}, types.Notification{
		Type:      types.NotificationPortal,
		Status:    types.NotificationSent,
		Recipient: recipient,
	})
	if err != nil {
		s.discard(ctx, stored, err)
		return types.LabResult{}, types.Notification{}, err
	}

	s.log.WithFields(logrus.Fields{
		"lab_result_id":  result.ID,
		"patient_id":     result.PatientID,
		"test_type":      result.TestType,
		"lab_technician": result.LabTechnician,
		"file":           result.FilePath,
		"file_bytes":     len(in.File.Data),
	}).Info("lab result uploaded")
	return result, notification, nil
}

func (s *UploadService) discard(ctx context.Context, stored string, cause error) {
	entry := s.log.WithError(cause).WithField("file", stored)
	// The request context may already be cancelled; the cleanup still runs.
	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.files.Delete(cleanupCtx, stored); err != nil {
		entry.WithField("cleanup_error", err.Error()).Warn("upload commit failed; stored file left orphaned")
		return
	}
	entry.Warn("upload commit failed; stored file removed")
}
