package events

type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusPublished EventStatus = "published"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// SeatingType distinguishes events with named seats from general admission.
type SeatingType string

const (
	SeatingReserved SeatingType = "RESERVED"
	SeatingGeneral  SeatingType = "GENERAL"
)

// IsBookable reports whether reservations may be taken against the event.
func (s EventStatus) IsBookable() bool {
	return s == EventStatusPublished
}
