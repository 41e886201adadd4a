package effects

import "github.com/m04kA/SMC-LifecycleService/internal/domain"

// statePolicy упорядоченные side-эффекты входа в состояние
// Политика задана таблицей, а не ветвлением по состояниям: таблица
// исчерпывающе проверяется тестами и читается как документация
var statePolicy = map[domain.BookingState][]domain.EffectKind{
	// Вход в HOLD эффектов не требует: удержание уже размещено переходом

	// Провайдеру уходит заявка на подтверждение
	domain.StatePendingProvider: {
		domain.EffectNotifyProvider,
	},

	// Подтверждение: клиент уведомляется, планируется напоминание
	domain.StateConfirmed: {
		domain.EffectNotifyCustomer,
		domain.EffectScheduleReminder,
	},

	domain.StateCanceledCustomer: {
		domain.EffectNotifyProvider,
	},

	domain.StateCanceledProvider: {
		domain.EffectNotifyCustomer,
	},

	domain.StateNoShowCustomer: {
		domain.EffectNotifyCustomer,
	},

	// Неявка провайдера - безусловный полный возврат клиенту
	domain.StateNoShowProvider: {
		domain.EffectRequestRefund,
		domain.EffectNotifyCustomer,
	},

	// Завершение: списание, выплата провайдеру, запрос отзыва
	domain.StateCompleted: {
		domain.EffectCapturePayment,
		domain.EffectSchedulePayout,
		domain.EffectRequestReview,
	},

	domain.StateRefundedPartial: {
		domain.EffectRequestRefund,
		domain.EffectNotifyCustomer,
	},

	domain.StateRefundedFull: {
		domain.EffectRequestRefund,
		domain.EffectNotifyCustomer,
	},

	domain.StateDispute: {
		domain.EffectRaiseAlert,
	},
}

// PolicyFor возвращает упорядоченный список эффектов входа в состояние
func PolicyFor(state domain.BookingState) []domain.EffectKind {
	effects := statePolicy[state]
	out := make([]domain.EffectKind, len(effects))
	copy(out, effects)
	return out
}
