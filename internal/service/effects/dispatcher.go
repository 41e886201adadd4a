// Package effects диспетчер side-эффектов переходов жизненного цикла
// Эффекты независимы: отказ одного не блокирует остальные и никогда не
// откатывает уже зафиксированный переход. Отказы журналируются для
// out-of-band повторов reconciler-ом
package effects

import (
	"context"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	"github.com/m04kA/SMC-LifecycleService/internal/integrations/notifyservice"
)

// Dispatcher диспетчер side-эффектов
type Dispatcher struct {
	payments     PaymentGateway
	notify       NotificationService
	payouts      PayoutScheduler
	journal      EffectJournal
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger

	payoutDelayDays int
}

// NewDispatcher создает новый диспетчер side-эффектов
// metrics может быть nil, если метрики выключены
func NewDispatcher(
	payments PaymentGateway,
	notify NotificationService,
	payouts PayoutScheduler,
	journal EffectJournal,
	metrics Metrics,
	logger Logger,
	payoutDelayDays int,
) *Dispatcher {
	if payoutDelayDays <= 0 {
		payoutDelayDays = domain.DefaultPayoutDelayDays
	}
	return &Dispatcher{
		payments:        payments,
		notify:          notify,
		payouts:         payouts,
		journal:         journal,
		metrics:         metrics,
		timeProvider:    &RealTimeProvider{},
		logger:          logger,
		payoutDelayDays: payoutDelayDays,
	}
}

// Dispatch выполняет эффекты входа в состояние toState
// Возвращает результат каждого эффекта; отказы записаны в журнал повторов
func (d *Dispatcher) Dispatch(ctx context.Context, b *domain.Booking, from, to domain.BookingState, event domain.Event, metadata domain.Metadata) []domain.EffectResult {
	kinds := PolicyFor(to)
	results := make([]domain.EffectResult, 0, len(kinds))

	for _, kind := range kinds {
		err := d.Apply(ctx, b, kind, metadata)
		result := domain.EffectResult{
			Effect:  kind,
			Applied: err == nil,
			Err:     err,
		}
		results = append(results, result)

		if err != nil {
			d.recordFailure(ctx, b, kind, to, event, metadata, err)
		}
	}

	return results
}

// Apply выполняет один эффект
// Эффекты идемпотентны со стороны вызывающего: повтор после отказа безопасен
func (d *Dispatcher) Apply(ctx context.Context, b *domain.Booking, kind domain.EffectKind, metadata domain.Metadata) error {
	switch kind {
	case domain.EffectNotifyCustomer:
		return d.notify.Notify(ctx, b.CustomerID, templateForState(b.CurrentState), notificationData(b))

	case domain.EffectNotifyProvider:
		return d.notify.Notify(ctx, b.ResourceID, templateForState(b.CurrentState), notificationData(b))

	case domain.EffectScheduleReminder:
		return d.notify.Notify(ctx, b.CustomerID, notifyservice.TemplateBookingReminder, notificationData(b))

	case domain.EffectCapturePayment:
		if !b.HasPaymentReference() {
			return ErrNoPaymentReference
		}
		_, err := d.payments.Capture(ctx, b.Payment.GatewayReference, b.Payment.Amount)
		return err

	case domain.EffectSchedulePayout:
		if b.Payment == nil {
			return ErrNoPaymentReference
		}
		return d.payouts.Schedule(ctx, b.ID, b.Payment.PayoutAmount, d.payoutDelayDays)

	case domain.EffectRequestRefund:
		if !b.HasPaymentReference() {
			return ErrNoPaymentReference
		}
		amount := d.refundAmount(b, metadata)
		if amount <= 0 {
			return ErrNoRefundAmount
		}
		_, err := d.payments.Refund(ctx, b.Payment.GatewayReference, amount)
		return err

	case domain.EffectRequestReview:
		return d.notify.Notify(ctx, b.CustomerID, notifyservice.TemplateReviewRequest, notificationData(b))

	case domain.EffectRaiseAlert:
		return d.notify.Notify(ctx, notifyservice.OperatorRecipient, notifyservice.TemplateOperatorAlert, notificationData(b))

	default:
		return ErrUnknownEffect
	}
}

// refundAmount определяет сумму возврата
// Для частичного возврата сумма приходит в метаданных события,
// для полного (включая неявку провайдера) — вся сумма платежа
func (d *Dispatcher) refundAmount(b *domain.Booking, metadata domain.Metadata) float64 {
	if amount := metadata.GetFloat(domain.MetaRefundAmount); amount > 0 {
		return amount
	}
	if b.Payment != nil {
		return b.Payment.Amount
	}
	return 0
}

func (d *Dispatcher) recordFailure(ctx context.Context, b *domain.Booking, kind domain.EffectKind, to domain.BookingState, event domain.Event, metadata domain.Metadata, cause error) {
	d.logger.Error("Dispatch: effect %s failed for booking_id=%s to_state=%s: %v", kind, b.ID, to, cause)

	if d.metrics != nil {
		d.metrics.IncSideEffectFailure(string(kind))
	}

	failure := &domain.EffectFailure{
		BookingID:   b.ID,
		Effect:      kind,
		ToState:     to,
		Event:       event,
		Metadata:    metadata,
		FailReason:  cause.Error(),
		Attempts:    1,
		NextRetryAt: d.timeProvider.Now(),
	}

	if err := d.journal.Record(ctx, failure); err != nil {
		// Журнал тоже недоступен: остаётся только лог
		d.logger.Error("Dispatch: failed to journal effect failure for booking_id=%s effect=%s: %v", b.ID, kind, err)
	}
}

func templateForState(state domain.BookingState) string {
	switch state {
	case domain.StatePendingProvider:
		return notifyservice.TemplateBookingRequested
	case domain.StateConfirmed:
		return notifyservice.TemplateBookingConfirmed
	case domain.StateCanceledCustomer, domain.StateCanceledProvider,
		domain.StateNoShowCustomer, domain.StateNoShowProvider:
		return notifyservice.TemplateBookingCanceled
	case domain.StateRefundedPartial, domain.StateRefundedFull:
		return notifyservice.TemplateRefundIssued
	default:
		return notifyservice.TemplateOperatorAlert
	}
}

func notificationData(b *domain.Booking) map[string]interface{} {
	data := map[string]interface{}{
		"bookingId":  b.ID,
		"resourceId": b.ResourceID,
		"state":      string(b.CurrentState),
	}
	if b.Slot != nil {
		data["date"] = b.Slot.Date.Format(domain.DateFormat)
		data["startTime"] = b.Slot.Start.String()
		data["endTime"] = b.Slot.End.String()
	}
	return data
}
