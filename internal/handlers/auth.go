package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Bekawhite/DigitalLab/internal/metrics"
	"github.com/Bekawhite/DigitalLab/internal/services"
	"github.com/Bekawhite/DigitalLab/internal/session"
	"github.com/Bekawhite/DigitalLab/types"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
)

// AuthHandler provides registration, login and session endpoints.
type AuthHandler struct {
	authService *services.AuthService
	userService *services.UserService
	sessions    *session.Manager
	metrics     *metrics.Metrics
	log         logrus.FieldLogger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(
	authService *services.AuthService,
	userService *services.UserService,
	sessions *session.Manager,
	m *metrics.Metrics,
	log logrus.FieldLogger,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		userService: userService,
		sessions:    sessions,
		metrics:     m,
		log:         log,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, handler *AuthHandler) {
	r.Post("/register", handler.Register)
	r.Post("/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(RequireAuth(handler.sessions))
		r.Post("/logout", handler.Logout)
		r.Get("/me", handler.Me)
	})
}

// RequireAuth rejects requests without a valid bearer token and stores the
// parsed session in the request context.
func RequireAuth(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			sess, err := sessions.Parse(tokenString)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r.WithContext(session.NewContext(r.Context(), sess)))
		})
	}
}

// OptionalAuth attaches a session when a valid bearer token is present and
// otherwise lets the request through anonymously.
func OptionalAuth(sessions *session.Manager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tokenString, err := bearerToken(r); err == nil {
				if sess, err := sessions.Parse(tokenString); err == nil {
					r = r.WithContext(session.NewContext(r.Context(), sess))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Register creates a new account. The caller logs in separately.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	in := services.RegisterInput{
		Username:         req.Username,
		Email:            req.Email,
		Password:         req.Password,
		UserType:         req.UserType,
		Phone:            req.Phone,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		Gender:           req.Gender,
		Address:          req.Address,
		EmergencyContact: req.EmergencyContact,
		Specialization:   req.Specialization,
		LicenseNumber:    req.LicenseNumber,
		Hospital:         req.Hospital,
	}
	if raw := strings.TrimSpace(req.DateOfBirth); raw != "" {
		dob, err := time.Parse(types.DateLayout, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date_of_birth: must be YYYY-MM-DD")
			return
		}
		in.DateOfBirth = dob
	}

	user, err := h.authService.Register(r.Context(), in)
	h.metrics.RecordRegistration(strings.ToLower(strings.TrimSpace(req.UserType)), outcome(err))
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message: "Registration successful. You can now login.",
		User:    user,
	})
}

// Login verifies credentials and returns a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	user, err := h.authService.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		h.metrics.RecordAuthAttempt(outcome(err))
		if errors.Is(err, services.ErrAuthFailure) {
			writeError(w, http.StatusUnauthorized, services.ErrAuthFailure.Error())
			return
		}
		writeServiceError(w, r, h.log, err)
		return
	}

	token, sess, err := h.sessions.Establish(user)
	if err != nil {
		h.metrics.RecordAuthAttempt("error")
		writeServiceError(w, r, h.log, err)
		return
	}
	h.metrics.RecordAuthAttempt("success")
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, ExpiresAt: sess.ExpiresAt, User: user})
}

// Logout revokes the caller's token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	h.sessions.Clear(sess)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the current authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	user, err := h.userService.Current(r.Context(), sess)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

type RegisterRequest struct {
	Username         string `json:"username"`
	Email            string `json:"email"`
	Password         string `json:"password"`
	UserType         string `json:"user_type"`
	Phone            string `json:"phone"`
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name"`
	DateOfBirth      string `json:"date_of_birth"`
	Gender           string `json:"gender"`
	Address          string `json:"address"`
	EmergencyContact string `json:"emergency_contact"`
	Specialization   string `json:"specialization"`
	LicenseNumber    string `json:"license_number"`
	Hospital         string `json:"hospital"`
}

type RegisterResponse struct {
	Message string     `json:"message"`
	User    types.User `json:"user"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Token     string     `json:"token"`
	ExpiresAt time.Time  `json:"expires_at"`
	User      types.User `json:"user"`
}

func bearerToken(r *http.Request) (string, error) {
	auth := strings.TrimSpace(r.Header.Get("Authorization"))
	if auth == "" {
		return "", errors.New("missing authorization")
	}
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("invalid authorization")
	}
	return token, nil
}
