package domain

// Event is a lifecycle event that may trigger a state transition
type Event string

const (
	EventPlaceHold         Event = "PLACE_HOLD"
	EventPaymentAuthorized Event = "PAYMENT_AUTHORIZED"
	EventHoldExpired       Event = "HOLD_EXPIRED"
	EventCustomerCancels   Event = "CUSTOMER_CANCELS"
	EventProviderAccepts   Event = "PROVIDER_ACCEPTS"
	EventProviderDeclines  Event = "PROVIDER_DECLINES"
	EventProviderTimeout   Event = "PROVIDER_TIMEOUT"
	EventProviderCancels   Event = "PROVIDER_CANCELS"
	EventSessionStarted    Event = "SESSION_STARTED"
	EventCustomerNoShow    Event = "CUSTOMER_NO_SHOW"
	EventProviderNoShow    Event = "PROVIDER_NO_SHOW"
	EventSessionCompleted  Event = "SESSION_COMPLETED"
	EventDisputeRaised     Event = "DISPUTE_RAISED"
	EventRefundPartial     Event = "REFUND_PARTIAL"
	EventRefundFull        Event = "REFUND_FULL"
)

// AllEvents lists every lifecycle event
var AllEvents = []Event{
	EventPlaceHold,
	EventPaymentAuthorized,
	EventHoldExpired,
	EventCustomerCancels,
	EventProviderAccepts,
	EventProviderDeclines,
	EventProviderTimeout,
	EventProviderCancels,
	EventSessionStarted,
	EventCustomerNoShow,
	EventProviderNoShow,
	EventSessionCompleted,
	EventDisputeRaised,
	EventRefundPartial,
	EventRefundFull,
}

// IsValid returns true if the event is a recognized lifecycle event
func (e Event) IsValid() bool {
	for _, v := range AllEvents {
		if e == v {
			return true
		}
	}
	return false
}

// String returns the string representation of the event
func (e Event) String() string {
	return string(e)
}

// ParseEvent converts a string to an Event
func ParseEvent(s string) (Event, error) {
	event := Event(s)
	if !event.IsValid() {
		return "", ErrUnknownEvent
	}
	return event, nil
}
