package entity

import (
	"bytes"
	"encoding/json"
	"time"
)

// Field tracks whether a JSON key was present at all, so that an explicit null
// (clear the column) can be told apart from an omitted key (leave it alone).
type Field[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: &v}
}

func Null[T any]() Field[T] {
	return Field[T]{Set: true}
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		f.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f.Value = &v
	return nil
}

// NotificationPatch is the administrative update surface.
type NotificationPatch struct {
	Status       *Status          `json:"status"`
	ErrorMessage Field[string]    `json:"error_message"`
	SentAt       Field[time.Time] `json:"sent_at"`
}

func (p NotificationPatch) IsEmpty() bool {
	return p.Status == nil && !p.ErrorMessage.Set && !p.SentAt.Set
}

// Apply returns a copy of n with the present fields of p written over it.
func (p NotificationPatch) Apply(n Notification) Notification {
	if p.Status != nil {
		n.Status = *p.Status
	}
	if p.ErrorMessage.Set {
		n.ErrorMessage = p.ErrorMessage.Value
	}
	if p.SentAt.Set {
		n.SentAt = p.SentAt.Value
	}
	return n
}
