package bookings

// Status is a booking's lifecycle state. HELD bookings own their units until
// they are confirmed, cancelled, or reaped after expiry.
type Status string

const (
	StatusHeld      Status = "HELD"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
)

// PaymentStatusCompleted is stamped on a booking when its charge settles.
const PaymentStatusCompleted = "COMPLETED"

var transitions = map[Status][]Status{
	StatusHeld:      {StatusConfirmed, StatusCancelled, StatusExpired},
	StatusConfirmed: {StatusCancelled},
	StatusCancelled: {},
	StatusExpired:   {},
}

func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) String() string {
	return string(s)
}

// CanTransition reports whether the move from s to next is legal.
func (s Status) CanTransition(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

func (s Status) CanBeCancelled() bool {
	return s.CanTransition(StatusCancelled)
}
