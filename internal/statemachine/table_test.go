package statemachine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	"github.com/m04kA/SMC-LifecycleService/pkg/ptr"
)

func guardCtx(actorType domain.ActorType, booking *domain.Booking, metadata domain.Metadata) GuardContext {
	if booking == nil {
		booking = &domain.Booking{ID: "bk_test"}
	}
	return GuardContext{
		Booking:  booking,
		Actor:    domain.Actor{Type: actorType, ID: "u1"},
		Metadata: metadata,
		Now:      time.Date(2026, 1, 12, 10, 0, 0, 0, time.UTC),
	}
}

func TestNew_BuildsValidTable(t *testing.T) {
	table, err := New()
	require.NoError(t, err)
	require.NotNil(t, table)
}

func TestTable_TerminalStatesHaveNoOutgoingRules(t *testing.T) {
	table := MustNew()

	for _, state := range domain.TerminalStates {
		assert.Empty(t, table.ValidTransitionsFrom(state), "state %s", state)
		assert.Empty(t, table.AvailableEvents(state), "state %s", state)
	}
}

func TestTable_Resolve(t *testing.T) {
	table := MustNew()

	rule, ok := table.Resolve(domain.StateDraft, domain.EventPlaceHold)
	require.True(t, ok)
	assert.Equal(t, domain.StateHold, rule.To)
	assert.Equal(t, HoldPlace, rule.Hold)

	_, ok = table.Resolve(domain.StateDraft, domain.EventSessionCompleted)
	assert.False(t, ok)
}

func TestTable_Targets(t *testing.T) {
	table := MustNew()

	cases := []struct {
		from  domain.BookingState
		event domain.Event
		to    domain.BookingState
	}{
		{domain.StateDraft, domain.EventPlaceHold, domain.StateHold},
		{domain.StateHold, domain.EventPaymentAuthorized, domain.StatePendingProvider},
		{domain.StateHold, domain.EventHoldExpired, domain.StateDraft},
		{domain.StateHold, domain.EventCustomerCancels, domain.StateCanceledCustomer},
		{domain.StatePendingProvider, domain.EventProviderAccepts, domain.StateConfirmed},
		{domain.StatePendingProvider, domain.EventProviderDeclines, domain.StateCanceledProvider},
		{domain.StatePendingProvider, domain.EventProviderTimeout, domain.StateCanceledProvider},
		{domain.StatePendingProvider, domain.EventCustomerCancels, domain.StateCanceledCustomer},
		{domain.StateConfirmed, domain.EventProviderCancels, domain.StateCanceledProvider},
		{domain.StateConfirmed, domain.EventCustomerCancels, domain.StateCanceledCustomer},
		{domain.StateConfirmed, domain.EventSessionStarted, domain.StateInProgress},
		{domain.StateConfirmed, domain.EventCustomerNoShow, domain.StateNoShowCustomer},
		{domain.StateConfirmed, domain.EventProviderNoShow, domain.StateNoShowProvider},
		{domain.StateInProgress, domain.EventSessionCompleted, domain.StateCompleted},
		{domain.StateCompleted, domain.EventDisputeRaised, domain.StateDispute},
		{domain.StateCompleted, domain.EventRefundFull, domain.StateRefundedFull},
		{domain.StateCompleted, domain.EventRefundPartial, domain.StateRefundedPartial},
		{domain.StateCanceledCustomer, domain.EventRefundFull, domain.StateRefundedFull},
		{domain.StateNoShowProvider, domain.EventRefundFull, domain.StateRefundedFull},
	}

	for _, tc := range cases {
		to, ok := table.Target(tc.from, tc.event)
		require.True(t, ok, "(%s, %s)", tc.from, tc.event)
		assert.Equal(t, tc.to, to, "(%s, %s)", tc.from, tc.event)
	}
}

func TestTable_DisputeOnlyFromCompleted(t *testing.T) {
	table := MustNew()

	for _, state := range domain.AllStates {
		_, ok := table.Resolve(state, domain.EventDisputeRaised)
		if state == domain.StateCompleted {
			assert.True(t, ok)
		} else {
			assert.False(t, ok, "state %s", state)
		}
	}
}

func TestNewTable_RejectsDuplicateRule(t *testing.T) {
	_, err := newTable([]Rule{
		{From: domain.StateDraft, Event: domain.EventPlaceHold, To: domain.StateHold},
		{From: domain.StateDraft, Event: domain.EventPlaceHold, To: domain.StateCanceledCustomer},
	})
	assert.ErrorIs(t, err, ErrDuplicateRule)
}

func TestNewTable_RejectsRuleFromTerminal(t *testing.T) {
	_, err := newTable([]Rule{
		{From: domain.StateDispute, Event: domain.EventRefundFull, To: domain.StateRefundedFull},
	})
	assert.ErrorIs(t, err, ErrRuleFromTerminal)
}

func TestNewTable_RejectsUnknownState(t *testing.T) {
	_, err := newTable([]Rule{
		{From: "nonsense", Event: domain.EventPlaceHold, To: domain.StateHold},
	})
	assert.ErrorIs(t, err, ErrRuleInvalidState)
}

func TestGuard_PlaceHoldRequiresCustomerAndSlot(t *testing.T) {
	table := MustNew()
	rule, ok := table.Resolve(domain.StateDraft, domain.EventPlaceHold)
	require.True(t, ok)

	booking := &domain.Booking{
		ID:   "bk_1",
		Slot: &domain.Slot{Date: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), Start: "10:00", End: "11:00"},
	}

	assert.NoError(t, rule.Guard(guardCtx(domain.ActorCustomer, booking, nil)))
	assert.NoError(t, rule.Guard(guardCtx(domain.ActorAdmin, booking, nil)))
	assert.Error(t, rule.Guard(guardCtx(domain.ActorProvider, booking, nil)))
	assert.Error(t, rule.Guard(guardCtx(domain.ActorSystem, booking, nil)))

	// Без слота удержание разместить нельзя
	assert.Error(t, rule.Guard(guardCtx(domain.ActorCustomer, &domain.Booking{ID: "bk_2"}, nil)))
}

func TestGuard_PaymentAuthorizedRequiresReferenceAndHold(t *testing.T) {
	table := MustNew()
	rule, ok := table.Resolve(domain.StateHold, domain.EventPaymentAuthorized)
	require.True(t, ok)

	withHold := &domain.Booking{ID: "bk_1", HoldID: ptr.Ptr("hold_1")}

	assert.NoError(t, rule.Guard(guardCtx(domain.ActorCustomer, withHold,
		domain.Metadata{domain.MetaPaymentIntentID: "pi_42"})))

	// Нет ссылки на платёж
	assert.Error(t, rule.Guard(guardCtx(domain.ActorCustomer, withHold, nil)))

	// Нет закреплённого удержания
	assert.Error(t, rule.Guard(guardCtx(domain.ActorCustomer, &domain.Booking{ID: "bk_2"},
		domain.Metadata{domain.MetaPaymentIntentID: "pi_42"})))
}

func TestGuard_HoldExpiredIsSystemOnly(t *testing.T) {
	table := MustNew()
	rule, ok := table.Resolve(domain.StateHold, domain.EventHoldExpired)
	require.True(t, ok)

	assert.NoError(t, rule.Guard(guardCtx(domain.ActorSystem, nil, nil)))
	assert.Error(t, rule.Guard(guardCtx(domain.ActorCustomer, nil, nil)))
	assert.Error(t, rule.Guard(guardCtx(domain.ActorAdmin, nil, nil)))
}

func TestGuard_ProviderDecisionEvents(t *testing.T) {
	table := MustNew()

	accepts, ok := table.Resolve(domain.StatePendingProvider, domain.EventProviderAccepts)
	require.True(t, ok)
	assert.NoError(t, accepts.Guard(guardCtx(domain.ActorProvider, nil, nil)))
	assert.Error(t, accepts.Guard(guardCtx(domain.ActorCustomer, nil, nil)))

	timeout, ok := table.Resolve(domain.StatePendingProvider, domain.EventProviderTimeout)
	require.True(t, ok)
	assert.NoError(t, timeout.Guard(guardCtx(domain.ActorSystem, nil, nil)))
	assert.Error(t, timeout.Guard(guardCtx(domain.ActorProvider, nil, nil)))
}

func TestGuard_RefundFullRestrictedToAdminAndSystem(t *testing.T) {
	table := MustNew()

	rule, ok := table.Resolve(domain.StateCompleted, domain.EventRefundFull)
	require.True(t, ok)

	assert.NoError(t, rule.Guard(guardCtx(domain.ActorAdmin, nil, nil)))
	assert.NoError(t, rule.Guard(guardCtx(domain.ActorSystem, nil, nil)))
	assert.Error(t, rule.Guard(guardCtx(domain.ActorCustomer, nil, nil)))
	assert.Error(t, rule.Guard(guardCtx(domain.ActorProvider, nil, nil)))
}

func TestGuard_RefundPartialRequiresAmount(t *testing.T) {
	table := MustNew()

	rule, ok := table.Resolve(domain.StateCompleted, domain.EventRefundPartial)
	require.True(t, ok)

	assert.NoError(t, rule.Guard(guardCtx(domain.ActorAdmin, nil,
		domain.Metadata{domain.MetaRefundAmount: 20.0})))
	assert.Error(t, rule.Guard(guardCtx(domain.ActorAdmin, nil, nil)))
	assert.Error(t, rule.Guard(guardCtx(domain.ActorAdmin, nil,
		domain.Metadata{domain.MetaRefundAmount: -5.0})))
}

func TestTable_AvailableEventsFromConfirmed(t *testing.T) {
	table := MustNew()

	events := table.AvailableEvents(domain.StateConfirmed)
	assert.ElementsMatch(t, []domain.Event{
		domain.EventProviderCancels,
		domain.EventSessionStarted,
		domain.EventCustomerNoShow,
		domain.EventProviderNoShow,
		domain.EventCustomerCancels,
	}, events)
}
