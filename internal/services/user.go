package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/Bekawhite/DigitalLab/internal/access"
	"github.com/Bekawhite/DigitalLab/internal/session"
	"github.com/Bekawhite/DigitalLab/internal/store"
	"github.com/Bekawhite/DigitalLab/types"
	"github.com/sirupsen/logrus"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	Delete(ctx context.Context, id int) error
}

// UserService encapsulates account lookups and operator maintenance.
type UserService struct {
	repo UserRepository
	log  logrus.FieldLogger
}

func NewUserService(repo UserRepository, log logrus.FieldLogger) *UserService {
	return &UserService{repo: repo, log: log}
}

// Current re-loads the session's user. A session whose user has been
// removed fails with ErrAuthFailure.
func (s *UserService) Current(ctx context.Context, sess session.Session) (types.User, error) {
	return currentUser(ctx, s.repo, sess)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// DeleteByUsername removes an account together with its profile, results
// and notifications.
func (s *UserService) DeleteByUsername(ctx context.Context, username string) (types.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return types.User{}, err
	}
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return types.User{}, fmt.Errorf("delete user %d: %w", user.ID, err)
	}
	s.log.WithFields(logrus.Fields{
		"user_id":   user.ID,
		"username":  user.Username,
		"user_type": user.Role,
	}).Info("user deleted")
	return user, nil
}

func currentUser(ctx context.Context, users UserRepository, sess session.Session) (types.User, error) {
	if sess.UserID < 1 {
		return types.User{}, ErrAuthFailure
	}
	user, err := users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrAuthFailure
		}
		return types.User{}, fmt.Errorf("load user %d: %w", sess.UserID, err)
	}
	return user, nil
}

// resolve re-loads the session's user and derives its policy from the
// stored role.
func resolve(ctx context.Context, users UserRepository, sess session.Session) (types.User, access.Policy, error) {
	user, err := currentUser(ctx, users, sess)
	if err != nil {
		return types.User{}, access.Anonymous(), err
	}
	return user, access.For(user.Role, user.ID), nil
}
