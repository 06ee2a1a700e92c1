package store

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store groups the repositories over one connection pool and runs the
// multi-record commits that must be all-or-nothing.
type Store struct {
	db *sql.DB

	Users         *UserRepository
	Patients      *PatientRepository
	Doctors       *DoctorRepository
	LabResults    *LabResultRepository
	Notifications *NotificationRepository
}

func New(db *sql.DB) *Store {
	s := newStore(db)
	s.db = db
	return s
}

func newStore(conn DBTX) *Store {
	return &Store{
		Users:         NewUserRepository(conn),
		Patients:      NewPatientRepository(conn),
		Doctors:       NewDoctorRepository(conn),
		LabResults:    NewLabResultRepository(conn),
		Notifications: NewNotificationRepository(conn),
	}
}

// WithTx runs fn against repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise,
// including on panic. Nested calls reuse the outer transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) (err error) {
	if s.db == nil {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(newStore(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
