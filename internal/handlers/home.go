package handlers

import (
	"net/http"

	"github.com/Bekawhite/DigitalLab/internal/access"
	"github.com/Bekawhite/DigitalLab/internal/services"
	"github.com/Bekawhite/DigitalLab/internal/session"
	"github.com/sirupsen/logrus"
)

var homeFeatures = []string{
	"User registration and login",
	"Patients can view and download their own results",
	"Doctors can view all patient results",
	"Lab technicians can upload results (PDF, JPG, PNG, DOC/DOCX, TXT)",
}

type HomeResponse struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Features    []string          `json:"features"`
	Menu        []access.MenuItem `json:"menu"`
	User        *HomeUser         `json:"user,omitempty"`
}

type HomeUser struct {
	Username string `json:"username"`
	UserType string `json:"user_type"`
}

type HomeHandler struct {
	resultService *services.ResultService
	log           logrus.FieldLogger
}

func NewHomeHandler(resultService *services.ResultService, log logrus.FieldLogger) *HomeHandler {
	return &HomeHandler{resultService: resultService, log: log}
}

// Home renders the landing content. A stale or invalid session falls back
// to the anonymous menu.
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	resp := HomeResponse{
		Title:       "Welcome to Digi_Lab",
		Description: "A lightweight demo of your lab results system with patients, doctors and lab technicians.",
		Features:    homeFeatures,
		Menu:        access.Anonymous().Menu(),
	}

	if sess, ok := session.FromContext(r.Context()); ok {
		user, policy, err := h.resultService.Viewer(r.Context(), sess)
		if err != nil {
			h.log.WithError(err).WithField("user_id", sess.UserID).Debug("home: session not resolved")
		} else {
			resp.Menu = policy.Menu()
			resp.User = &HomeUser{Username: user.Username, UserType: string(user.Role)}
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
