package domain

import "time"

// Default lifecycle timing values
const (
	// DefaultHoldTTL is how long an uncommitted hold blocks a slot
	DefaultHoldTTL = 10 * time.Minute

	// DefaultPendingProviderTimeout bounds provider non-response
	DefaultPendingProviderTimeout = 24 * time.Hour

	// DefaultLogRetentionDays is how long transition records of terminal
	// bookings are kept before the retention sweep removes them
	DefaultLogRetentionDays = 365

	// DefaultPayoutDelayDays is how long after completion the payout is scheduled
	DefaultPayoutDelayDays = 3
)

// Time format constants
const (
	TimeFormat = "15:04"      // HH:MM
	DateFormat = "2006-01-02" // YYYY-MM-DD
)

// Business validation constants
const (
	MaxReasonLength = 500
)
