// nolint: revive,staticcheck
// swagger:meta
package httpt

import (
	"time"

	"salesnotifier/internal/entity"
)

// swagger:model CreateNotificationRequest
type CreateNotificationRequest struct {
	Type           string `json:"type"                  binding:"required"       example:"sales_note_created"`
	RecipientEmail string `json:"recipient_email"       binding:"required,email" example:"customer@example.com"`
	Subject        string `json:"subject"               binding:"required"       example:"New Sales Note Created"`
	Message        string `json:"message"               binding:"required"       example:"A new sales note has been created for you."`
	ResourceID     *int64 `json:"resource_id,omitempty" example:"42"`
}

// UpdateNotificationRequest distinguishes an omitted field from an explicit null:
// null clears error_message or sent_at, omission leaves them untouched.
//
// swagger:model UpdateNotificationRequest
type UpdateNotificationRequest struct {
	Status       *string                 `json:"status,omitempty"        example:"failed"`
	ErrorMessage entity.Field[string]    `json:"error_message"           swaggertype:"string" example:"smtp timeout"`
	SentAt       entity.Field[time.Time] `json:"sent_at"                 swaggertype:"string" example:"2024-01-01T10:00:05Z"`
}

// swagger:model SalesNoteNotificationRequest
type SalesNoteNotificationRequest struct {
	SalesNoteID   int64  `json:"sales_note_id"     binding:"required,gt=0"   example:"42"`
	CustomerEmail string `json:"customer_email"    binding:"required,email"  example:"customer@example.com"`
	PDFURL        string `json:"pdf_url,omitempty" binding:"omitempty,url"   example:"https://files.example.com/notes/42.pdf"`
}

// swagger:model ListNotificationsQuery
type ListNotificationsQuery struct {
	Skip       uint64  `form:"skip"`
	Limit      *uint64 `form:"limit"       binding:"omitempty,min=1,max=1000"`
	ResourceID *int64  `form:"resource_id"`
}

// swagger:model NotificationResponse
type NotificationResponse struct {
	ID             string     `json:"id"                      example:"0190a5b2-7c1e-7d3a-9f1e-2b3c4d5e6f70"`
	Type           string     `json:"type"                    example:"sales_note_paid"`
	Status         string     `json:"status"                  example:"sent"`
	RecipientEmail string     `json:"recipient_email"         example:"customer@example.com"`
	Subject        string     `json:"subject"                 example:"Sales Note Marked as Paid"`
	Message        string     `json:"message"                 example:"Your sales note has been marked as paid. Thank you for your payment! "`
	ResourceID     *int64     `json:"resource_id,omitempty"   example:"42"`
	ErrorMessage   *string    `json:"error_message,omitempty" example:"connection refused"`
	SentAt         *time.Time `json:"sent_at,omitempty"       example:"2024-01-01T10:00:05Z"`
	CreatedAt      time.Time  `json:"created_at"              example:"2024-01-01T10:00:00Z"`
	UpdatedAt      time.Time  `json:"updated_at"              example:"2024-01-01T10:00:05Z"`
}

// swagger:model SendNotificationResponse
type SendNotificationResponse struct {
	Message   string `json:"message"    example:"Notification sent successfully"`
	MessageID string `json:"message_id" example:"6a1b5f0e-2d1c-4b7e-9a55-0d1f3c2b4a69"`
}

// swagger:model SalesNoteNotificationResponse
type SalesNoteNotificationResponse struct {
	Message        string `json:"message"         example:"Sales note notification sent successfully"`
	NotificationID string `json:"notification_id" example:"0190a5b2-7c1e-7d3a-9f1e-2b3c4d5e6f70"`
	MessageID      string `json:"message_id"      example:"6a1b5f0e-2d1c-4b7e-9a55-0d1f3c2b4a69"`
}

// swagger:model HealthResponse
type HealthResponse struct {
	Status string `json:"status" example:"healthy"`
}

// swagger:model ErrorResponse
type ErrorResponse struct {
	Error   string `json:"error"             example:"notification not found"`
	Code    string `json:"code,omitempty"    example:"not_found"`
	Details string `json:"details,omitempty" example:"notification 0190a5b2-7c1e-7d3a-9f1e-2b3c4d5e6f70: notification not found"`
}

// swagger:model SuccessResponse
type SuccessResponse struct {
	Message string `json:"message" example:"Notification deleted successfully"`
}

func toNotificationResponse(n *entity.Notification) NotificationResponse {
	return NotificationResponse{
		ID:             n.ID.String(),
		Type:           n.Type.String(),
		Status:         n.Status.String(),
		RecipientEmail: n.RecipientEmail,
		Subject:        n.Subject,
		Message:        n.Message,
		ResourceID:     n.ResourceID,
		ErrorMessage:   n.ErrorMessage,
		SentAt:         n.SentAt,
		CreatedAt:      n.CreatedAt,
		UpdatedAt:      n.UpdatedAt,
	}
}

func toNotificationResponses(ns []entity.Notification) []NotificationResponse {
	out := make([]NotificationResponse, 0, len(ns))
	for i := range ns {
		out = append(out, toNotificationResponse(&ns[i]))
	}
	return out
}

func (r UpdateNotificationRequest) toPatch() entity.NotificationPatch {
	patch := entity.NotificationPatch{
		ErrorMessage: r.ErrorMessage,
		SentAt:       r.SentAt,
	}
	if r.Status != nil {
		status := entity.Status(*r.Status)
		patch.Status = &status
	}
	return patch
}
