package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type (
	EventType string
	Status    string
)

const (
	SalesNoteCreated  EventType = "sales_note_created"
	SalesNoteUpdated  EventType = "sales_note_updated"
	SalesNotePaid     EventType = "sales_note_paid"
	SalesNoteCanceled EventType = "sales_note_canceled"

	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

func (t EventType) IsValid() bool {
	switch t {
	case SalesNoteCreated, SalesNoteUpdated, SalesNotePaid, SalesNoteCanceled:
		return true
	}
	return false
}

func (t EventType) String() string {
	return string(t)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusSent, StatusFailed:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

type Notification struct {
	ID             uuid.UUID  `json:"id"`
	Type           EventType  `json:"type"`
	Status         Status     `json:"status"`
	RecipientEmail string     `json:"recipient_email"`
	Subject        string     `json:"subject"`
	Message        string     `json:"message"`
	ResourceID     *int64     `json:"resource_id,omitempty"`
	ErrorMessage   *string    `json:"error_message,omitempty"`
	SentAt         *time.Time `json:"sent_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// CheckState reports whether status, sent_at and error_message agree:
// sent carries only sent_at, failed carries only error_message, pending carries neither.
func (n *Notification) CheckState() error {
	switch n.Status {
	case StatusPending:
		if n.SentAt != nil || n.ErrorMessage != nil {
			return fmt.Errorf("pending notification must not carry sent_at or error_message: %w", ErrInvalidData)
		}
	case StatusSent:
		if n.SentAt == nil || n.ErrorMessage != nil {
			return fmt.Errorf("sent notification requires sent_at and no error_message: %w", ErrInvalidData)
		}
	case StatusFailed:
		if n.ErrorMessage == nil || n.SentAt != nil {
			return fmt.Errorf("failed notification requires error_message and no sent_at: %w", ErrInvalidData)
		}
	default:
		return fmt.Errorf("unknown status %q: %w", n.Status, ErrInvalidData)
	}
	return nil
}

// Message is what a delivery gateway publishes.
type Message struct {
	NotificationID uuid.UUID
	Subject        string
	Body           string
	Recipient      string
}

func (n *Notification) DeliveryMessage() Message {
	return Message{
		NotificationID: n.ID,
		Subject:        n.Subject,
		Body:           n.Message,
		Recipient:      n.RecipientEmail,
	}
}

type Page struct {
	Skip  uint64
	Limit uint64
}

type ListFilter struct {
	ResourceID *int64
	Page       Page
}
