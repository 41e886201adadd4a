package domain

import "time"

// Metadata is the free-form payload attached to a lifecycle event
type Metadata map[string]interface{}

// Metadata keys with guard-level meaning
const (
	MetaPaymentIntentID = "paymentIntentId"
	MetaRefundAmount    = "refundAmount"
	MetaAmount          = "amount"
	MetaPlatformFee     = "platformFee"
	MetaReason          = "reason"
)

// GetString returns a string value by key, empty if absent or not a string
func (m Metadata) GetString(key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// GetFloat returns a numeric value by key, 0 if absent.
// JSON decoding produces float64 for all numbers.
func (m Metadata) GetFloat(key string) float64 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// TransitionRecord is an immutable audit entry of one executed transition
type TransitionRecord struct {
	ID        int64
	BookingID string
	FromState BookingState
	ToState   BookingState
	Event     Event
	ActorType ActorType
	ActorID   string
	Metadata  Metadata
	CreatedAt time.Time
}

// ReplayTransitions reconstructs the final state of a booking by replaying
// its audit log from the initial state. Each record's fromState must chain
// to the previous record's toState; a broken chain means the log and the
// denormalized state have diverged.
func ReplayTransitions(records []*TransitionRecord) (BookingState, error) {
	state := InitialState
	for _, rec := range records {
		if rec.FromState != state {
			return "", ErrHistoryDiverged
		}
		state = rec.ToState
	}
	return state, nil
}
