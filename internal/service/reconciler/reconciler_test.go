package reconciler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	"github.com/m04kA/SMC-LifecycleService/internal/usecase/send_event"
)

type fakeSweeper struct {
	count int64
	err   error
	calls int
}

func (s *fakeSweeper) SweepExpired(context.Context) (int64, error) {
	s.calls++
	return s.count, s.err
}

type fakeBookings struct {
	overdue map[domain.BookingState][]*domain.Booking
	byID    map[string]*domain.Booking
}

func (r *fakeBookings) GetByID(_ context.Context, id string) (*domain.Booking, error) {
	b, ok := r.byID[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return b, nil
}

func (r *fakeBookings) ListOverdue(_ context.Context, state domain.BookingState, _ time.Time, _ uint64) ([]*domain.Booking, error) {
	return r.overdue[state], nil
}

type fakeRetention struct {
	pruned int64
	before time.Time
}

func (r *fakeRetention) SweepRetention(_ context.Context, before time.Time) (int64, error) {
	r.before = before
	return r.pruned, nil
}

type fakeJournal struct {
	due         []*domain.EffectFailure
	resolved    []int64
	rescheduled []int64
}

func (j *fakeJournal) ListDue(context.Context, time.Time, uint64) ([]*domain.EffectFailure, error) {
	return j.due, nil
}

func (j *fakeJournal) Resolve(_ context.Context, id int64) error {
	j.resolved = append(j.resolved, id)
	return nil
}

func (j *fakeJournal) Reschedule(_ context.Context, id int64, _ int, _ time.Time, _ string) error {
	j.rescheduled = append(j.rescheduled, id)
	return nil
}

type fakeApplier struct {
	errByEffect map[domain.EffectKind]error
	applied     []domain.EffectKind
}

func (a *fakeApplier) Apply(_ context.Context, _ *domain.Booking, kind domain.EffectKind, _ domain.Metadata) error {
	a.applied = append(a.applied, kind)
	return a.errByEffect[kind]
}

type sentEvent struct {
	bookingID string
	event     domain.Event
	actor     domain.ActorType
}

type fakeSender struct {
	err  error
	sent []sentEvent
}

func (s *fakeSender) Execute(_ context.Context, req *send_event.Request) (*send_event.Response, error) {
	s.sent = append(s.sent, sentEvent{bookingID: req.BookingID, event: req.Event, actor: req.Actor.Type})
	if s.err != nil {
		return nil, s.err
	}
	return &send_event.Response{BookingID: req.BookingID}, nil
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}

func newTestReconciler() (*Reconciler, *fakeSweeper, *fakeBookings, *fakeRetention, *fakeJournal, *fakeApplier, *fakeSender) {
	sweeper := &fakeSweeper{}
	bookings := &fakeBookings{
		overdue: make(map[domain.BookingState][]*domain.Booking),
		byID:    make(map[string]*domain.Booking),
	}
	retention := &fakeRetention{}
	journal := &fakeJournal{}
	applier := &fakeApplier{errByEffect: make(map[domain.EffectKind]error)}
	sender := &fakeSender{}

	r := New(sweeper, bookings, retention, journal, applier, sender, nil, nopLogger{}, Config{
		HoldTTL:                10 * time.Minute,
		PendingProviderTimeout: 24 * time.Hour,
		LogRetention:           365 * 24 * time.Hour,
		EffectRetryBackoff:     time.Minute,
	})
	return r, sweeper, bookings, retention, journal, applier, sender
}

func TestRunOnce_FiresHoldExpiredForOverdueHolds(t *testing.T) {
	r, sweeper, bookings, _, _, _, sender := newTestReconciler()
	sweeper.count = 2

	bookings.overdue[domain.StateHold] = []*domain.Booking{
		{ID: "bk_1", CurrentState: domain.StateHold},
		{ID: "bk_2", CurrentState: domain.StateHold},
	}

	r.RunOnce(context.Background())

	assert.Equal(t, 1, sweeper.calls)
	require.Len(t, sender.sent, 2)
	for _, s := range sender.sent {
		assert.Equal(t, domain.EventHoldExpired, s.event)
		assert.Equal(t, domain.ActorSystem, s.actor)
	}
}

func TestRunOnce_FiresProviderTimeout(t *testing.T) {
	r, _, bookings, _, _, _, sender := newTestReconciler()

	bookings.overdue[domain.StatePendingProvider] = []*domain.Booking{
		{ID: "bk_3", CurrentState: domain.StatePendingProvider},
	}

	r.RunOnce(context.Background())

	require.Len(t, sender.sent, 1)
	assert.Equal(t, sentEvent{bookingID: "bk_3", event: domain.EventProviderTimeout, actor: domain.ActorSystem}, sender.sent[0])
}

func TestRunOnce_ToleratesConcurrentTransitions(t *testing.T) {
	r, _, bookings, _, _, _, sender := newTestReconciler()

	// Бронирование уже ушло из HOLD конкурентным переходом
	bookings.overdue[domain.StateHold] = []*domain.Booking{
		{ID: "bk_1", CurrentState: domain.StateHold},
	}
	sender.err = send_event.ErrInvalidTransition

	// Не паникует и не прерывает проход
	r.RunOnce(context.Background())
	assert.Len(t, sender.sent, 1)
}

func TestRunOnce_RetriesFailedEffects(t *testing.T) {
	r, _, bookings, _, journal, applier, _ := newTestReconciler()

	bookings.byID["bk_1"] = &domain.Booking{ID: "bk_1", CurrentState: domain.StateCompleted}
	journal.due = []*domain.EffectFailure{
		{ID: 1, BookingID: "bk_1", Effect: domain.EffectCapturePayment, Attempts: 1},
		{ID: 2, BookingID: "bk_1", Effect: domain.EffectSchedulePayout, Attempts: 2},
	}
	applier.errByEffect[domain.EffectSchedulePayout] = errors.New("still down")

	r.RunOnce(context.Background())

	assert.Equal(t, []domain.EffectKind{domain.EffectCapturePayment, domain.EffectSchedulePayout}, applier.applied)
	assert.Equal(t, []int64{1}, journal.resolved)
	assert.Equal(t, []int64{2}, journal.rescheduled)
}

func TestRunOnce_PrunesOldTransitionRecords(t *testing.T) {
	r, _, _, retention, _, _, _ := newTestReconciler()
	retention.pruned = 5

	before := time.Now().Add(-365 * 24 * time.Hour)
	r.RunOnce(context.Background())

	// Граница ретеншна примерно год назад
	assert.WithinDuration(t, before, retention.before, time.Minute)
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	r, sweeper, _, _, _, _, _ := newTestReconciler()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		r.Run(ctx, 10*time.Millisecond)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reconciler did not stop after context cancel")
	}

	assert.GreaterOrEqual(t, sweeper.calls, 1)
}
