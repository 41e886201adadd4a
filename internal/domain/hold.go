package domain

import (
	"time"

	"github.com/m04kA/SMC-LifecycleService/pkg/types"
)

// HoldStatus represents the lifecycle status of a slot hold
type HoldStatus string

const (
	HoldStatusLive      HoldStatus = "live"
	HoldStatusConverted HoldStatus = "converted"
	HoldStatusReleased  HoldStatus = "released"
	HoldStatusExpired   HoldStatus = "expired"
)

// Slot identifies a bookable interval on a resource's calendar
type Slot struct {
	Date  time.Time
	Start types.TimeString
	End   types.TimeString
}

// Validate checks that the slot times are well-formed and start precedes end
func (s Slot) Validate() error {
	if s.Date.IsZero() {
		return ErrInvalidSlot
	}
	if err := s.Start.Validate(); err != nil {
		return ErrInvalidSlot
	}
	if err := s.End.Validate(); err != nil {
		return ErrInvalidSlot
	}
	if !s.Start.Before(s.End) {
		return ErrInvalidSlot
	}
	return nil
}

// Overlaps reports whether two slots on the same date intersect.
// Intervals are half-open: [start, end), so back-to-back slots do not overlap,
// while equal slots trivially do.
func (s Slot) Overlaps(other Slot) bool {
	if !sameDay(s.Date, other.Date) {
		return false
	}
	return s.Start.Before(other.End) && other.Start.Before(s.End)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Hold is a time-bounded exclusive claim on a slot prior to confirmation.
// At most one blocking hold (live and unexpired, or converted) may exist
// per resource and overlapping slot at any instant.
type Hold struct {
	ID            string
	ResourceID    string
	Slot          Slot
	OwnerRef      string // bookingId or session id that placed the hold
	Status        HoldStatus
	ExpiresAt     time.Time
	ReleaseReason *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsLive returns true if the hold currently blocks the slot and has not expired
func (h *Hold) IsLive(now time.Time) bool {
	return h.Status == HoldStatusLive && now.Before(h.ExpiresAt)
}

// IsBlocking returns true if the hold excludes other placements on its slot.
// A converted hold is a permanent reservation and blocks forever; a live hold
// blocks until its TTL passes.
func (h *Hold) IsBlocking(now time.Time) bool {
	return h.Status == HoldStatusConverted || h.IsLive(now)
}
