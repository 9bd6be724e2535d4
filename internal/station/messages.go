package station

import "github.com/jwmdev/busstation/internal/model"

// Status names the outcome kinds of spec.md §7 (ok, denied, teardown,
// transient). No operation in this codebase returns it: the substrate
// operations report outcomes as bools, context errors, and the Reason
// strings below.
type Status int

const (
	StatusOK Status = iota
	StatusDenied
	StatusTeardown
	StatusTransient
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusDenied:
		return "denied"
	case StatusTeardown:
		return "teardown"
	case StatusTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// TicketRequest is sent by a passenger goroutine to the ticket office
// pool, spec.md §3.
type TicketRequest struct {
	Passenger *model.Passenger
}

// TicketResponse is addressed back to the requesting passenger by pid.
type TicketResponse struct {
	Passenger *model.Passenger
	Approved  bool
	Reason    string
}

// BoardingRequest is sent by a passenger goroutine to the active
// driver. Ordinal is the priority key stamped by State.NextOrdinal: a
// VIP request's ordinal is always lower than any ordinary request's,
// whenever either was stamped, realizing spec.md I6 without requiring
// two physically separate queues.
type BoardingRequest struct {
	Passenger  *model.Passenger
	BusIDHint  int
	Ordinal    int64
}

// BoardingResponse is addressed back to the requesting passenger.
type BoardingResponse struct {
	Approved bool
	BusID    int
	Reason   string
}

// Reasons used in BoardingResponse.Reason, consulted by the passenger
// boarding loop (spec.md §4.4 step 4) to decide retry vs. give-up.
const (
	ReasonNoTicket        = "no_ticket"
	ReasonBoardingClosed  = "boarding_not_allowed"
	ReasonNotAtStation    = "not_at_station"
	ReasonBoardingNotOpen = "boarding_not_open"
	ReasonFull            = "capacity_full"
	ReasonBikeFull        = "bike_capacity_full"
	ReasonTeardown        = "teardown"
)

// Transient reports whether a denial reason should be retried by the
// passenger boarding loop rather than treated as a final give-up,
// spec.md §4.4: "denial whose reason indicates transient capacity or
// 'not at station', sleep a tick and retry; on any other denial, stop."
func Transient(reason string) bool {
	switch reason {
	case ReasonNotAtStation, ReasonBoardingNotOpen, ReasonFull, ReasonBikeFull:
		return true
	default:
		return false
	}
}
