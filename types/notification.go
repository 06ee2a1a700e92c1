package types

import "time"

// NotificationType is the channel a notification was logged for.
type NotificationType string

const (
	NotificationSMS    NotificationType = "sms"
	NotificationEmail  NotificationType = "email"
	NotificationPortal NotificationType = "portal"
)

// NotificationStatus is the recorded delivery state.
type NotificationStatus string

const (
	NotificationSent      NotificationStatus = "sent"
	NotificationDelivered NotificationStatus = "delivered"
	NotificationFailed    NotificationStatus = "failed"
)

// Notification is a log entry recording that a patient was told about a
// lab result. Nothing is dispatched; the row is the record.
type Notification struct {
	// ID is the unique identifier of the notification.
	ID int `json:"id" db:"id"`

	// LabResultID references the result the notification is about.
	LabResultID int `json:"lab_result_id" db:"lab_result_id"`

	// Type is sms, email or portal.
	Type NotificationType `json:"notification_type" db:"notification_type"`

	// SentAt is when the notification was recorded.
	SentAt time.Time `json:"sent_at" db:"sent_at"`

	// Status is sent, delivered or failed. Defaults to sent.
	Status NotificationStatus `json:"status" db:"status"`

	// Recipient is the phone number or email address notified. Omitted
	// from views whose policy hides contact details.
	Recipient string `json:"recipient,omitempty" db:"recipient"`
}
