package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Bekawhite/DigitalLab/types"
)

// LabResultFilter narrows LabResultRepository.List. Zero values match all.
type LabResultFilter struct {
	PatientID int
	Status    types.ResultStatus
}

// LabResultRepository handles persistence for lab results.
type LabResultRepository struct {
	db DBTX
}

func NewLabResultRepository(db DBTX) *LabResultRepository {
	return &LabResultRepository{db: db}
}

const labResultColumns = `id, patient_id, test_type, test_date, result_date, status, file_path, notes, lab_technician`

func (r *LabResultRepository) Get(ctx context.Context, id int) (types.LabResult, error) {
	const query = `SELECT ` + labResultColumns + ` FROM lab_results WHERE id = $1`
	return scanLabResult(r.db.QueryRowContext(ctx, query, id))
}

// List returns results matching filter, newest test_date first.
func (r *LabResultRepository) List(ctx context.Context, filter LabResultFilter) ([]types.LabResult, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.PatientID != 0 {
		args = append(args, filter.PatientID)
		conditions = append(conditions, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}

	query := `SELECT ` + labResultColumns + ` FROM lab_results`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY test_date DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]types.LabResult, 0)
	for rows.Next() {
		result, err := scanLabResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *LabResultRepository) Create(ctx context.Context, result types.LabResult) (types.LabResult, error) {
	if result.Status == "" {
		result.Status = types.ResultPending
	}
	result.TestDate = types.DateOnly(result.TestDate)
	result.ResultDate = types.DateOnly(result.ResultDate)

	const query = `
		INSERT INTO lab_results (patient_id, test_type, test_date, result_date, status, file_path, notes, lab_technician)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		result.PatientID,
		result.TestType,
		result.TestDate,
		result.ResultDate,
		string(result.Status),
		nullString(result.FilePath),
		nullString(result.Notes),
		nullString(result.LabTechnician),
	).Scan(&result.ID); err != nil {
		return types.LabResult{}, err
	}
	return result, nil
}

// NotificationRepository handles persistence for notification log entries.
type NotificationRepository struct {
	db DBTX
}

func NewNotificationRepository(db DBTX) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) ListByLabResult(ctx context.Context, labResultID int) ([]types.Notification, error) {
	const query = `
		SELECT id, lab_result_id, notification_type, sent_at, status, recipient
		FROM notifications
		WHERE lab_result_id = $1
		ORDER BY sent_at, id`
	rows, err := r.db.QueryContext(ctx, query, labResultID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	notifications := make([]types.Notification, 0)
	for rows.Next() {
		var (
			n      types.Notification
			kind   string
			status string
		)
		if err := rows.Scan(&n.ID, &n.LabResultID, &kind, &n.SentAt, &status, &n.Recipient); err != nil {
			return nil, err
		}
		n.Type = types.NotificationType(kind)
		n.Status = types.NotificationStatus(status)
		notifications = append(notifications, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *NotificationRepository) Create(ctx context.Context, n types.Notification) (types.Notification, error) {
	if n.SentAt.IsZero() {
		n.SentAt = time.Now().UTC()
	}
	if n.Status == "" {
		n.Status = types.NotificationSent
	}

	const query = `
		INSERT INTO notifications (lab_result_id, notification_type, sent_at, status, recipient)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		n.LabResultID,
		string(n.Type),
		n.SentAt,
		string(n.Status),
		n.Recipient,
	).Scan(&n.ID); err != nil {
		return types.Notification{}, err
	}
	return n, nil
}

func scanLabResult(row rowScanner) (types.LabResult, error) {
	var (
		result     types.LabResult
		status     string
		filePath   sql.NullString
		notes      sql.NullString
		technician sql.NullString
	)
	err := row.Scan(
		&result.ID,
		&result.PatientID,
		&result.TestType,
		&result.TestDate,
		&result.ResultDate,
		&status,
		&filePath,
		&notes,
		&technician,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.LabResult{}, ErrNotFound
		}
		return types.LabResult{}, err
	}
	result.TestDate = result.TestDate.UTC()
	result.ResultDate = result.ResultDate.UTC()
	result.Status = types.ResultStatus(status)
	result.FilePath = filePath.String
	result.Notes = notes.String
	result.LabTechnician = technician.String
	return result, nil
}
