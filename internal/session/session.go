// Package session issues and validates bearer tokens and carries the
// resulting Session through request contexts.
package session

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/Bekawhite/DigitalLab/types"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTTL = 24 * time.Hour

var (
	// ErrInvalidToken covers malformed, expired, forged and revoked tokens.
	ErrInvalidToken  = errors.New("invalid session token")
	ErrMissingSecret = errors.New("session secret is required")
)

// Session is the authenticated identity attached to a request. Only the
// user id is authoritative; Username and Role are cached from login.
type Session struct {
	ID        string
	UserID    int
	Username  string
	Role      types.Role
	ExpiresAt time.Time
}

type claims struct {
	Username string `json:"username"`
	UserType string `json:"user_type"`
	jwt.RegisteredClaims
}

// Manager signs tokens with an HMAC secret and tracks revoked token ids.
type Manager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	revoked map[string]time.Time
}

// NewManager returns a Manager; ttl <= 0 selects DefaultTTL.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, ErrMissingSecret
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
		revoked: make(map[string]time.Time),
	}, nil
}

// Establish issues a token for user.
func (m *Manager) Establish(user types.User) (string, Session, error) {
	now := m.now()
	sess := Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: now.Add(m.ttl).Truncate(time.Second),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Username: sess.Username,
		UserType: string(sess.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sess.ID,
			Subject:   strconv.Itoa(sess.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(sess.ExpiresAt),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", Session{}, err
	}
	return signed, sess, nil
}

// Parse validates tokenString and returns its Session.
func (m *Manager) Parse(tokenString string) (Session, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil || !token.Valid {
		return Session{}, ErrInvalidToken
	}

	userID, err := strconv.Atoi(strings.TrimSpace(c.Subject))
	if err != nil || userID < 1 || c.ID == "" {
		return Session{}, ErrInvalidToken
	}
	role, err := types.ParseRole(c.UserType)
	if err != nil {
		return Session{}, ErrInvalidToken
	}
	if m.isRevoked(c.ID) {
		return Session{}, ErrInvalidToken
	}

	sess := Session{ID: c.ID, UserID: userID, Username: c.Username, Role: role}
	if c.ExpiresAt != nil {
		sess.ExpiresAt = c.ExpiresAt.Time
	}
	return sess, nil
}

// Clear revokes the session's token until it would have expired anyway.
func (m *Manager) Clear(sess Session) {
	if sess.ID == "" {
		return
	}
	expires := sess.ExpiresAt
	if expires.IsZero() {
		expires = m.now().Add(m.ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, exp := range m.revoked {
		if !exp.After(now) {
			delete(m.revoked, id)
		}
	}
	m.revoked[sess.ID] = expires
}

func (m *Manager) isRevoked(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.revoked[id]
	return ok
}

type contextKey struct{}

// NewContext returns a copy of ctx carrying sess.
func NewContext(ctx context.Context, sess Session) context.Context {
	return context.WithValue(ctx, contextKey{}, sess)
}

// FromContext returns the Session stored in ctx, if any.
func FromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(contextKey{}).(Session)
	return sess, ok
}
