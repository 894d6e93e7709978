package entity

import "errors"

var (
	ErrDataNotFound            = errors.New("data not found")
	ErrConflictingData         = errors.New("conflicting data")
	ErrInvalidData             = errors.New("invalid data")
	ErrInvalidEventType        = errors.New("invalid event type")
	ErrNotificationNotFound    = errors.New("notification not found")
	ErrNotificationAlreadySent = errors.New("notification already sent")
	ErrSalesNoteNotFound       = errors.New("sales note not found")
	ErrDelivery                = errors.New("delivery failed")
)
