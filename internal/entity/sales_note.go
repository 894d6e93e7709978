package entity

const (
	SalesNoteStatusPaid     = "paid"
	SalesNoteStatusCanceled = "canceled"
)

// SalesNote is the part of a sales note this service reads; the table is owned elsewhere.
type SalesNote struct {
	ID     int64
	Status string
}

// EventType picks the notification kind for the note's current status.
// Anything that is neither paid nor canceled is announced as created.
func (s SalesNote) EventType() EventType {
	switch s.Status {
	case SalesNoteStatusPaid:
		return SalesNotePaid
	case SalesNoteStatusCanceled:
		return SalesNoteCanceled
	default:
		return SalesNoteCreated
	}
}
