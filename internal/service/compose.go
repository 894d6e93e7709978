package service

import (
	"fmt"

	"salesnotifier/internal/entity"
)

const _linkPrefix = "You can view your sales note here: "

// Compose derives the subject and body announcing a sales note event.
// The body templates end with a space so that the optional link reads as a second sentence.
func Compose(eventType entity.EventType, link string) (string, string, error) {
	var subject, body string

	switch eventType {
	case entity.SalesNoteCreated:
		subject = "New Sales Note Created"
		body = "A new sales note has been created for you. "
	case entity.SalesNoteUpdated:
		subject = "Sales Note Updated"
		body = "Your sales note has been updated. "
	case entity.SalesNotePaid:
		subject = "Sales Note Marked as Paid"
		body = "Your sales note has been marked as paid. Thank you for your payment! "
	case entity.SalesNoteCanceled:
		subject = "Sales Note Canceled"
		body = "Your sales note has been canceled. "
	default:
		return "", "", fmt.Errorf("compose %q: %w", eventType, entity.ErrInvalidEventType)
	}

	if link != "" {
		body += _linkPrefix + link
	}

	return subject, body, nil
}
