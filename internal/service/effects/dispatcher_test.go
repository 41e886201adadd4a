package effects

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	"github.com/m04kA/SMC-LifecycleService/internal/integrations/paymentgateway"
)

type capturedCall struct {
	kind      string
	reference string
	recipient string
	template  string
	amount    float64
}

type fakePayments struct {
	captureErr error
	refundErr  error
	calls      []capturedCall
}

func (f *fakePayments) Capture(_ context.Context, reference string, amount float64) (*paymentgateway.OperationResult, error) {
	f.calls = append(f.calls, capturedCall{kind: "capture", reference: reference, amount: amount})
	if f.captureErr != nil {
		return nil, f.captureErr
	}
	return &paymentgateway.OperationResult{}, nil
}

func (f *fakePayments) Refund(_ context.Context, reference string, amount float64) (*paymentgateway.OperationResult, error) {
	f.calls = append(f.calls, capturedCall{kind: "refund", reference: reference, amount: amount})
	if f.refundErr != nil {
		return nil, f.refundErr
	}
	return &paymentgateway.OperationResult{}, nil
}

type fakeNotify struct {
	err   error
	calls []capturedCall
}

func (f *fakeNotify) Notify(_ context.Context, recipient, template string, _ map[string]interface{}) error {
	f.calls = append(f.calls, capturedCall{kind: "notify", recipient: recipient, template: template})
	return f.err
}

type fakePayouts struct {
	err   error
	calls []capturedCall
}

func (f *fakePayouts) Schedule(_ context.Context, bookingID string, amount float64, _ int) error {
	f.calls = append(f.calls, capturedCall{kind: "payout", reference: bookingID, amount: amount})
	return f.err
}

type fakeJournal struct {
	recorded []*domain.EffectFailure
}

func (f *fakeJournal) Record(_ context.Context, failure *domain.EffectFailure) error {
	f.recorded = append(f.recorded, failure)
	return nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func paidBooking(state domain.BookingState) *domain.Booking {
	return &domain.Booking{
		ID:           "bk_1",
		ResourceID:   "res-1",
		CustomerID:   "cust-1",
		CurrentState: state,
		Slot: &domain.Slot{
			Date:  time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
			Start: "10:00",
			End:   "11:00",
		},
		Payment: &domain.Payment{
			Amount:           100,
			PlatformFee:      15,
			PayoutAmount:     85,
			GatewayReference: "pi_42",
		},
	}
}

func newTestDispatcher() (*Dispatcher, *fakePayments, *fakeNotify, *fakePayouts, *fakeJournal) {
	payments := &fakePayments{}
	notify := &fakeNotify{}
	payouts := &fakePayouts{}
	journal := &fakeJournal{}
	d := NewDispatcher(payments, notify, payouts, journal, nil, nopLogger{}, 3)
	return d, payments, notify, payouts, journal
}

func TestDispatch_CompletedRunsPaymentChain(t *testing.T) {
	d, payments, notify, payouts, journal := newTestDispatcher()

	b := paidBooking(domain.StateCompleted)
	results := d.Dispatch(context.Background(), b, domain.StateInProgress, domain.StateCompleted, domain.EventSessionCompleted, nil)

	require.Len(t, results, 3)
	for _, r := range results {
		assert.True(t, r.Applied, "effect %s", r.Effect)
		assert.NoError(t, r.Err)
	}

	require.Len(t, payments.calls, 1)
	assert.Equal(t, "capture", payments.calls[0].kind)
	assert.Equal(t, "pi_42", payments.calls[0].reference)
	assert.Equal(t, 100.0, payments.calls[0].amount)

	require.Len(t, payouts.calls, 1)
	assert.Equal(t, 85.0, payouts.calls[0].amount)

	// Запрос отзыва клиенту
	require.Len(t, notify.calls, 1)
	assert.Equal(t, "cust-1", notify.calls[0].recipient)

	assert.Empty(t, journal.recorded)
}

func TestDispatch_FailureIsJournaledAndDoesNotBlockOthers(t *testing.T) {
	d, payments, notify, payouts, journal := newTestDispatcher()
	payments.captureErr = errors.New("gateway down")

	b := paidBooking(domain.StateCompleted)
	results := d.Dispatch(context.Background(), b, domain.StateInProgress, domain.StateCompleted, domain.EventSessionCompleted, nil)

	require.Len(t, results, 3)
	assert.False(t, results[0].Applied)
	assert.Error(t, results[0].Err)
	assert.True(t, results[1].Applied)
	assert.True(t, results[2].Applied)

	// Выплата и отзыв всё равно выполнены
	assert.Len(t, payouts.calls, 1)
	assert.Len(t, notify.calls, 1)

	require.Len(t, journal.recorded, 1)
	failure := journal.recorded[0]
	assert.Equal(t, "bk_1", failure.BookingID)
	assert.Equal(t, domain.EffectCapturePayment, failure.Effect)
	assert.Equal(t, domain.StateCompleted, failure.ToState)
	assert.Equal(t, 1, failure.Attempts)
	assert.Contains(t, failure.FailReason, "gateway down")
}

func TestDispatch_NoShowProviderRefundsFullAmount(t *testing.T) {
	d, payments, _, _, _ := newTestDispatcher()

	b := paidBooking(domain.StateNoShowProvider)
	results := d.Dispatch(context.Background(), b, domain.StateConfirmed, domain.StateNoShowProvider, domain.EventProviderNoShow, nil)

	require.Len(t, results, 2)
	assert.True(t, results[0].Applied)

	require.Len(t, payments.calls, 1)
	assert.Equal(t, "refund", payments.calls[0].kind)
	assert.Equal(t, 100.0, payments.calls[0].amount)
}

func TestDispatch_PartialRefundUsesMetadataAmount(t *testing.T) {
	d, payments, _, _, _ := newTestDispatcher()

	b := paidBooking(domain.StateRefundedPartial)
	metadata := domain.Metadata{domain.MetaRefundAmount: 30.0}
	d.Dispatch(context.Background(), b, domain.StateCompleted, domain.StateRefundedPartial, domain.EventRefundPartial, metadata)

	require.Len(t, payments.calls, 1)
	assert.Equal(t, 30.0, payments.calls[0].amount)
}

func TestDispatch_HoldStateHasNoEffects(t *testing.T) {
	d, payments, notify, payouts, _ := newTestDispatcher()

	b := paidBooking(domain.StateHold)
	results := d.Dispatch(context.Background(), b, domain.StateDraft, domain.StateHold, domain.EventPlaceHold, nil)

	assert.Empty(t, results)
	assert.Empty(t, payments.calls)
	assert.Empty(t, notify.calls)
	assert.Empty(t, payouts.calls)
}

func TestApply_CaptureWithoutPaymentReference(t *testing.T) {
	d, payments, _, _, _ := newTestDispatcher()

	b := paidBooking(domain.StateCompleted)
	b.Payment = nil

	err := d.Apply(context.Background(), b, domain.EffectCapturePayment, nil)
	assert.ErrorIs(t, err, ErrNoPaymentReference)
	assert.Empty(t, payments.calls)
}

func TestApply_RefundWithoutAmount(t *testing.T) {
	d, _, _, _, _ := newTestDispatcher()

	b := paidBooking(domain.StateRefundedFull)
	b.Payment.Amount = 0

	err := d.Apply(context.Background(), b, domain.EffectRequestRefund, nil)
	assert.ErrorIs(t, err, ErrNoRefundAmount)
}

func TestApply_UnknownEffect(t *testing.T) {
	d, _, _, _, _ := newTestDispatcher()

	err := d.Apply(context.Background(), paidBooking(domain.StateCompleted), domain.EffectKind("bogus"), nil)
	assert.ErrorIs(t, err, ErrUnknownEffect)
}

func TestDispatch_DisputeAlertsOperator(t *testing.T) {
	d, _, notify, _, _ := newTestDispatcher()

	b := paidBooking(domain.StateDispute)
	d.Dispatch(context.Background(), b, domain.StateCompleted, domain.StateDispute, domain.EventDisputeRaised, nil)

	require.Len(t, notify.calls, 1)
	assert.Equal(t, "ops", notify.calls[0].recipient)
}

func TestPolicyFor_CoversEveryState(t *testing.T) {
	// Состояния без эффектов входа заданы явно
	silent := map[domain.BookingState]bool{
		domain.StateDraft:      true,
		domain.StateHold:       true,
		domain.StateInProgress: true,
	}

	for _, state := range domain.AllStates {
		effects := PolicyFor(state)
		if silent[state] {
			assert.Empty(t, effects, "state %s", state)
		} else {
			assert.NotEmpty(t, effects, "state %s", state)
		}
	}
}
