package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Bekawhite/DigitalLab/internal/services"
	"github.com/Bekawhite/DigitalLab/internal/storage"
	"github.com/Bekawhite/DigitalLab/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is a simple error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps an error kind to its HTTP status. Unexpected errors
// are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	var (
		verr *services.ValidationError
		dup  *store.DuplicateError
	)
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	case errors.As(err, &dup):
		writeError(w, http.StatusConflict, dup.Error())
	case errors.Is(err, services.ErrAuthFailure):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, services.ErrAccessDenied):
		writeError(w, http.StatusForbidden, "access denied")
	case errors.Is(err, storage.ErrFileTooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
	case errors.Is(err, storage.ErrUnsupportedFileType):
		writeError(w, http.StatusUnsupportedMediaType, "unsupported file type")
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "file not found on server")
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		log.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// outcome labels err for metrics.
func outcome(err error) string {
	var verr *services.ValidationError
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, services.ErrAccessDenied), errors.Is(err, services.ErrAuthFailure):
		return "denied"
	case errors.As(err, &verr),
		errors.Is(err, storage.ErrFileTooLarge),
		errors.Is(err, storage.ErrUnsupportedFileType):
		return "rejected"
	case errors.Is(err, store.ErrNotFound), errors.Is(err, storage.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func parseIDParam(r *http.Request, name string) (int, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

// readFileLimited reads at most limit bytes and fails with
// storage.ErrFileTooLarge when the reader holds more.
func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, storage.ErrFileTooLarge
	}
	return data, nil
}
