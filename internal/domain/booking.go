package domain

import "time"

// Payment holds the monetary breakdown of an authorized booking
type Payment struct {
	Amount           float64 `json:"amount"`
	PlatformFee      float64 `json:"platformFee"`
	PayoutAmount     float64 `json:"payoutAmount"`
	GatewayReference string  `json:"gatewayReference"`
}

// Booking is the reservation aggregate driven through the lifecycle
type Booking struct {
	ID           string
	ResourceID   string // provider owning the slot
	CustomerID   string
	CurrentState BookingState
	Slot         *Slot // immutable once a hold is placed
	Payment      *Payment
	HoldID       *string // hold currently backing this booking, if any

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsTerminal returns true if the booking reached a terminal state
func (b *Booking) IsTerminal() bool {
	return b.CurrentState.IsTerminal()
}

// IsActive returns true while the booking still occupies (or may occupy) its slot
func (b *Booking) IsActive() bool {
	switch b.CurrentState {
	case StateHold, StatePendingProvider, StateConfirmed, StateInProgress:
		return true
	}
	return false
}

// HasPaymentReference returns true if a gateway reference has been captured
func (b *Booking) HasPaymentReference() bool {
	return b.Payment != nil && b.Payment.GatewayReference != ""
}

// ResourceBookingsFilter filters bookings of a single resource
type ResourceBookingsFilter struct {
	ResourceID      string
	StartDate       *time.Time    // period start, inclusive (optional)
	EndDate         *time.Time    // period end, inclusive (optional)
	State           *BookingState // exact state filter (optional)
	IncludeTerminal bool          // include refunded/disputed bookings
}
