package domain

import "errors"

var (
	// ErrUnknownState is returned when a string is not a recognized lifecycle state
	ErrUnknownState = errors.New("domain: unknown booking state")

	// ErrUnknownEvent is returned when a string is not a recognized lifecycle event
	ErrUnknownEvent = errors.New("domain: unknown lifecycle event")

	// ErrUnknownActorType is returned when a string is not a recognized actor type
	ErrUnknownActorType = errors.New("domain: unknown actor type")

	// ErrInvalidSlot is returned for malformed slots (bad times, start >= end)
	ErrInvalidSlot = errors.New("domain: invalid slot")

	// ErrHistoryDiverged is returned when the transition log does not chain
	// into a consistent state sequence
	ErrHistoryDiverged = errors.New("domain: transition history diverged")
)
