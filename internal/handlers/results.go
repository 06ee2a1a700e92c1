package handlers

import (
	"mime"
	"net/http"
	"strconv"

	"github.com/Bekawhite/DigitalLab/internal/metrics"
	"github.com/Bekawhite/DigitalLab/internal/services"
	"github.com/Bekawhite/DigitalLab/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// ResultHandler serves role-scoped result reads.
type ResultHandler struct {
	resultService *services.ResultService
	metrics       *metrics.Metrics
	log           logrus.FieldLogger
}

func NewResultHandler(resultService *services.ResultService, m *metrics.Metrics, log logrus.FieldLogger) *ResultHandler {
	return &ResultHandler{resultService: resultService, metrics: m, log: log}
}

// ResultRouter registers the read routes for results. Callers mount it
// behind RequireAuth.
func ResultRouter(r chi.Router, handler *ResultHandler) {
	r.Get("/", handler.ListResults)
	r.Get("/{resultID}", handler.GetResult)
	r.Get("/{resultID}/file", handler.Download)
}

func (h *ResultHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	dash, err := h.resultService.Dashboard(r.Context(), sess)
	h.metrics.RecordResultAccess(string(sess.Role), "dashboard", outcome(err))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, dash)
}

func (h *ResultHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	views, err := h.resultService.ListResults(r.Context(), sess)
	h.metrics.RecordResultAccess(string(sess.Role), "list", outcome(err))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ResultListResponse{Results: views})
}

func (h *ResultHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "resultID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, _ := session.FromContext(r.Context())
	detail, err := h.resultService.GetResult(r.Context(), sess, id)
	h.metrics.RecordResultAccess(string(sess.Role), "get", outcome(err))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// Download streams the stored file as an attachment named after its stored
// name.
func (h *ResultHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "resultID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, _ := session.FromContext(r.Context())
	file, err := h.resultService.Download(r.Context(), sess, id)
	h.metrics.RecordResultAccess(string(sess.Role), "download", outcome(err))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	w.Header().Set("Content-Type", file.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.Name}))
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(file.Data)
}

// ListPatients returns patient labels for the upload form.
func (h *ResultHandler) ListPatients(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	options, err := h.resultService.ListPatients(r.Context(), sess)
	h.metrics.RecordResultAccess(string(sess.Role), "patients", outcome(err))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, PatientListResponse{Patients: options})
}

type ResultListResponse struct {
	Results []services.ResultView `json:"results"`
}

type PatientListResponse struct {
	Patients []services.PatientOption `json:"patients"`
}
