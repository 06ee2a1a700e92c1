package handlers

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Bekawhite/DigitalLab/internal/metrics"
	"github.com/Bekawhite/DigitalLab/internal/services"
	"github.com/Bekawhite/DigitalLab/internal/session"
	"github.com/Bekawhite/DigitalLab/types"
	"github.com/sirupsen/logrus"
)

const (
	maxMultipartMemory  = 8 << 20
	multipartOverhead   = 1 << 20
	formFieldPatientID  = "patient_id"
	formFieldTestType   = "test_type"
	formFieldTestDate   = "test_date"
	formFieldResultDate = "result_date"
	formFieldNotes      = "notes"
	formFieldFile       = "file"
)

type UploadHandler struct {
	uploadService *services.UploadService
	maxBytes      int64
	metrics       *metrics.Metrics
	log           logrus.FieldLogger
	now           func() time.Time
}

func NewUploadHandler(uploadService *services.UploadService, maxBytes int64, m *metrics.Metrics, log logrus.FieldLogger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		maxBytes:      maxBytes,
		metrics:       m,
		log:           log,
		now:           time.Now,
	}
}

type UploadResponse struct {
	Message      string             `json:"message"`
	Result       types.LabResult    `json:"result"`
	Notification types.Notification `json:"notification"`
}

// UploadResult accepts the lab technician's multipart form. Bodies larger
// than the file limit plus form overhead are cut off before parsing.
func (h *UploadHandler) UploadResult(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if sess.Role != types.RoleLabTech {
		h.metrics.RecordUpload("denied", 0)
		writeError(w, http.StatusForbidden, "access denied")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	in, err := h.parseUploadForm(r)
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}
	if err != nil {
		h.metrics.RecordUpload(outcome(err), 0)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeServiceError(w, r, h.log, err)
		return
	}

	result, notification, err := h.uploadService.Upload(r.Context(), sess, in)
	size := 0
	if in.File != nil {
		size = len(in.File.Data)
	}
	h.metrics.RecordUpload(outcome(err), size)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, UploadResponse{
		Message:      "Lab result uploaded successfully! Notification sent to patient.",
		Result:       result,
		Notification: notification,
	})
}

func (h *UploadHandler) parseUploadForm(r *http.Request) (services.UploadInput, error) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.UploadInput{}, err
		}
		return services.UploadInput{}, &services.ValidationError{Field: "form", Message: "invalid multipart form"}
	}

	var in services.UploadInput
	if raw := strings.TrimSpace(r.FormValue(formFieldPatientID)); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			return services.UploadInput{}, &services.ValidationError{Field: formFieldPatientID, Message: "must be a number"}
		}
		in.PatientID = id
	}
	in.TestType = r.FormValue(formFieldTestType)
	in.Notes = r.FormValue(formFieldNotes)

	today := types.DateOnly(h.now().UTC())
	var err error
	if in.TestDate, err = parseFormDate(r.FormValue(formFieldTestDate), formFieldTestDate, today); err != nil {
		return services.UploadInput{}, err
	}
	if in.ResultDate, err = parseFormDate(r.FormValue(formFieldResultDate), formFieldResultDate, today); err != nil {
		return services.UploadInput{}, err
	}

	file, err := h.parseResultFile(r.MultipartForm)
	if err != nil {
		return services.UploadInput{}, err
	}
	in.File = file
	return in, nil
}

// parseFormDate falls back to fallback when the field is blank.
func parseFormDate(raw, field string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(types.DateLayout, raw)
	if err != nil {
		return time.Time{}, &services.ValidationError{Field: field, Message: "must be YYYY-MM-DD"}
	}
	return t, nil
}

// parseResultFile returns nil when no file part was sent; the service
// reports the missing file in field order.
func (h *UploadHandler) parseResultFile(form *multipart.Form) (*services.FileUpload, error) {
	if form == nil {
		return nil, nil
	}
	files := form.File[formFieldFile]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, &services.ValidationError{Field: formFieldFile, Message: "only one file is allowed"}
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	data, err := readFileLimited(file, h.maxBytes)
	_ = file.Close()
	if err != nil {
		return nil, err
	}
	return &services.FileUpload{Name: header.Filename, Data: data}, nil
}
