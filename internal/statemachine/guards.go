package statemachine

import (
	"fmt"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
)

// requireActor возвращает guard, пропускающий только перечисленные типы акторов
func requireActor(allowed ...domain.ActorType) GuardFunc {
	return func(gc GuardContext) error {
		for _, a := range allowed {
			if gc.Actor.Type == a {
				return nil
			}
		}
		return fmt.Errorf("actor type %q is not allowed to trigger this event", gc.Actor.Type)
	}
}

// requirePaymentReference требует валидную ссылку на платёж в метаданных
// Удержание конвертируется в бронь только при авторизованном платеже
func requirePaymentReference(gc GuardContext) error {
	if gc.Metadata.GetString(domain.MetaPaymentIntentID) == "" {
		return fmt.Errorf("metadata is missing %q", domain.MetaPaymentIntentID)
	}
	return nil
}

// requireRefundAmount требует положительную сумму возврата в метаданных
func requireRefundAmount(gc GuardContext) error {
	if gc.Metadata.GetFloat(domain.MetaRefundAmount) <= 0 {
		return fmt.Errorf("metadata is missing a positive %q", domain.MetaRefundAmount)
	}
	return nil
}

// requireLiveHold требует, чтобы за бронированием было закреплено удержание
func requireLiveHold(gc GuardContext) error {
	if gc.Booking.HoldID == nil || *gc.Booking.HoldID == "" {
		return fmt.Errorf("booking has no hold attached")
	}
	return nil
}

// requireSlot требует, чтобы у бронирования был заполнен слот
func requireSlot(gc GuardContext) error {
	if gc.Booking.Slot == nil {
		return fmt.Errorf("booking has no slot")
	}
	return gc.Booking.Slot.Validate()
}

// all объединяет guard-предикаты: первый отказ завершает проверку
func all(guards ...GuardFunc) GuardFunc {
	return func(gc GuardContext) error {
		for _, g := range guards {
			if err := g(gc); err != nil {
				return err
			}
		}
		return nil
	}
}
