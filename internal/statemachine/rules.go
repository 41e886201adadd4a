package statemachine

import "github.com/m04kA/SMC-LifecycleService/internal/domain"

// refundableStates состояния, из которых возможен возврат средств
var refundableStates = []domain.BookingState{
	domain.StateCompleted,
	domain.StateCanceledCustomer,
	domain.StateCanceledProvider,
	domain.StateNoShowCustomer,
	domain.StateNoShowProvider,
}

// defaultRules стандартный набор правил жизненного цикла
// Каждая пара (from, event) встречается ровно один раз — дубликат
// отвергается при построении таблицы
var defaultRules = buildDefaultRules()

func buildDefaultRules() []Rule {
	rules := []Rule{
		// Размещение удержания: единственный путь из начального состояния
		{
			From:  domain.StateDraft,
			Event: domain.EventPlaceHold,
			To:    domain.StateHold,
			Guard: all(requireActor(domain.ActorCustomer, domain.ActorAdmin), requireSlot),
			Hold:  HoldPlace,
		},

		// Удержание конвертируется в момент авторизации платежа, не раньше
		{
			From:  domain.StateHold,
			Event: domain.EventPaymentAuthorized,
			To:    domain.StatePendingProvider,
			Guard: all(requireLiveHold, requirePaymentReference),
			Hold:  HoldConvert,
		},

		// Истечение TTL удержания возвращает бронирование в черновик
		// Событие отправляет только reconciler от имени системного актора
		{
			From:  domain.StateHold,
			Event: domain.EventHoldExpired,
			To:    domain.StateDraft,
			Guard: requireActor(domain.ActorSystem),
			Hold:  HoldRelease,
		},

		// Ответ провайдера на заявку
		{
			From:  domain.StatePendingProvider,
			Event: domain.EventProviderAccepts,
			To:    domain.StateConfirmed,
			Guard: requireActor(domain.ActorProvider),
			Hold:  HoldConvert, // идемпотентно: удержание уже конвертировано при оплате
		},
		{
			From:  domain.StatePendingProvider,
			Event: domain.EventProviderDeclines,
			To:    domain.StateCanceledProvider,
			Guard: requireActor(domain.ActorProvider),
			Hold:  HoldRelease,
		},
		{
			From:  domain.StatePendingProvider,
			Event: domain.EventProviderTimeout,
			To:    domain.StateCanceledProvider,
			Guard: requireActor(domain.ActorSystem),
			Hold:  HoldRelease,
		},

		// Отмена провайдером подтверждённого бронирования
		{
			From:  domain.StateConfirmed,
			Event: domain.EventProviderCancels,
			To:    domain.StateCanceledProvider,
			Guard: requireActor(domain.ActorProvider, domain.ActorAdmin),
			Hold:  HoldRelease,
		},

		// Проведение сессии
		{
			From:  domain.StateConfirmed,
			Event: domain.EventSessionStarted,
			To:    domain.StateInProgress,
			Guard: requireActor(domain.ActorProvider),
		},
		{
			From:  domain.StateInProgress,
			Event: domain.EventSessionCompleted,
			To:    domain.StateCompleted,
			Guard: requireActor(domain.ActorProvider, domain.ActorSystem),
		},

		// Неявки
		{
			From:  domain.StateConfirmed,
			Event: domain.EventCustomerNoShow,
			To:    domain.StateNoShowCustomer,
			Guard: requireActor(domain.ActorProvider),
			Hold:  HoldRelease,
		},
		{
			From:  domain.StateConfirmed,
			Event: domain.EventProviderNoShow,
			To:    domain.StateNoShowProvider,
			Guard: requireActor(domain.ActorCustomer, domain.ActorAdmin),
			Hold:  HoldRelease,
		},

		// Спор открывается только по завершённому бронированию
		{
			From:  domain.StateCompleted,
			Event: domain.EventDisputeRaised,
			To:    domain.StateDispute,
			Guard: requireActor(domain.ActorCustomer, domain.ActorAdmin),
		},
	}

	// Отмена клиентом допустима до начала сессии
	for _, from := range []domain.BookingState{
		domain.StateHold,
		domain.StatePendingProvider,
		domain.StateConfirmed,
	} {
		rules = append(rules, Rule{
			From:  from,
			Event: domain.EventCustomerCancels,
			To:    domain.StateCanceledCustomer,
			Guard: requireActor(domain.ActorCustomer, domain.ActorAdmin),
			Hold:  HoldRelease,
		})
	}

	// Возвраты из завершённых и отменённых состояний
	// Частичный возврат доступен любому актору с суммой в метаданных,
	// полный — только администратору или системе (авто-возврат при неявке провайдера)
	for _, from := range refundableStates {
		rules = append(rules, Rule{
			From:  from,
			Event: domain.EventRefundPartial,
			To:    domain.StateRefundedPartial,
			Guard: requireRefundAmount,
		})
		rules = append(rules, Rule{
			From:  from,
			Event: domain.EventRefundFull,
			To:    domain.StateRefundedFull,
			Guard: requireActor(domain.ActorAdmin, domain.ActorSystem),
		})
	}

	return rules
}
