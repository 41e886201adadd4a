package domain

// BookingState represents the lifecycle state of a booking
type BookingState string

const (
	StateDraft            BookingState = "draft"
	StateHold             BookingState = "hold"
	StatePendingProvider  BookingState = "pending_provider"
	StateConfirmed        BookingState = "confirmed"
	StateInProgress       BookingState = "in_progress"
	StateCompleted        BookingState = "completed"
	StateCanceledCustomer BookingState = "canceled_customer"
	StateCanceledProvider BookingState = "canceled_provider"
	StateNoShowCustomer   BookingState = "no_show_customer"
	StateNoShowProvider   BookingState = "no_show_provider"
	StateRefundedPartial  BookingState = "refunded_partial"
	StateRefundedFull     BookingState = "refunded_full"
	StateDispute          BookingState = "dispute"
)

// InitialState is the only state a booking may be created in
const InitialState = StateDraft

// AllStates lists every lifecycle state
var AllStates = []BookingState{
	StateDraft,
	StateHold,
	StatePendingProvider,
	StateConfirmed,
	StateInProgress,
	StateCompleted,
	StateCanceledCustomer,
	StateCanceledProvider,
	StateNoShowCustomer,
	StateNoShowProvider,
	StateRefundedPartial,
	StateRefundedFull,
	StateDispute,
}

// TerminalStates lists states with no outgoing transitions
var TerminalStates = []BookingState{
	StateRefundedPartial,
	StateRefundedFull,
	StateDispute,
}

// IsTerminal returns true if no further transitions are possible from this state
func (s BookingState) IsTerminal() bool {
	for _, t := range TerminalStates {
		if s == t {
			return true
		}
	}
	return false
}

// IsValid returns true if the state is a recognized lifecycle state
func (s BookingState) IsValid() bool {
	for _, v := range AllStates {
		if s == v {
			return true
		}
	}
	return false
}

// String returns the string representation of the state
func (s BookingState) String() string {
	return string(s)
}

// ParseBookingState converts a string to a BookingState
func ParseBookingState(s string) (BookingState, error) {
	state := BookingState(s)
	if !state.IsValid() {
		return "", ErrUnknownState
	}
	return state, nil
}
