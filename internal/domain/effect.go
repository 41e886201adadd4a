package domain

import "time"

// EffectKind identifies one post-transition side effect
type EffectKind string

const (
	EffectNotifyCustomer   EffectKind = "notify_customer"
	EffectNotifyProvider   EffectKind = "notify_provider"
	EffectScheduleReminder EffectKind = "schedule_reminder"
	EffectCapturePayment   EffectKind = "capture_payment"
	EffectSchedulePayout   EffectKind = "schedule_payout"
	EffectRequestRefund    EffectKind = "request_refund"
	EffectRequestReview    EffectKind = "request_review"
	EffectRaiseAlert       EffectKind = "raise_alert"
)

// EffectResult is the outcome of one dispatched side effect.
// Effects are independent: one failure never blocks the others.
type EffectResult struct {
	Effect  EffectKind
	Applied bool
	Err     error
}

// EffectFailure is a journaled side-effect failure awaiting retry
type EffectFailure struct {
	ID          int64
	BookingID   string
	Effect      EffectKind
	ToState     BookingState
	Event       Event
	Metadata    Metadata
	FailReason  string
	Attempts    int
	NextRetryAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
