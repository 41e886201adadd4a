// Package send_event движок переходов жизненного цикла бронирования
// Единственная мутирующая точка входа: send(bookingId, event, actor, metadata)
// Конвейер: чтение состояния -> проверка терминальности -> поиск правила ->
// guard -> действия над удержанием -> атомарный коммит состояния и записи
// журнала -> best-effort side-эффекты
package send_event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	bookingRepo "github.com/m04kA/SMC-LifecycleService/internal/infra/storage/booking"
	"github.com/m04kA/SMC-LifecycleService/internal/service/holds"
	"github.com/m04kA/SMC-LifecycleService/internal/statemachine"
	"github.com/m04kA/SMC-LifecycleService/pkg/keyedmutex"
)

// UseCase движок переходов
type UseCase struct {
	bookings     BookingRepository
	log          TransitionLogRepository
	holdManager  HoldManager
	dispatcher   EffectDispatcher
	table        TransitionTable
	txManager    TransactionManager
	locks        *keyedmutex.KeyedMutex
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
	holdTTL      time.Duration
}

// NewUseCase создает новый экземпляр движка переходов
// metrics может быть nil, если метрики выключены
func NewUseCase(
	bookings BookingRepository,
	log TransitionLogRepository,
	holdManager HoldManager,
	dispatcher EffectDispatcher,
	table TransitionTable,
	txManager TransactionManager,
	metrics Metrics,
	logger Logger,
	holdTTL time.Duration,
) *UseCase {
	if holdTTL <= 0 {
		holdTTL = domain.DefaultHoldTTL
	}
	return &UseCase{
		bookings:     bookings,
		log:          log,
		holdManager:  holdManager,
		dispatcher:   dispatcher,
		table:        table,
		txManager:    txManager,
		locks:        keyedmutex.New(),
		metrics:      metrics,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		holdTTL:      holdTTL,
	}
}

// Execute выполняет событие жизненного цикла для бронирования
// Мутации одного bookingId сериализуются: per-booking мьютекс внутри процесса,
// сериализуемая транзакция с блокировкой строки — между процессами
func (uc *UseCase) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := validateRequest(req); err != nil {
		uc.logger.Warn("SendEvent: validation failed: %v", err)
		return nil, err
	}

	uc.logger.Info("SendEvent: booking_id=%s event=%s actor=%s/%s",
		req.BookingID, req.Event, req.Actor.Type, req.Actor.ID)

	unlock := uc.locks.Lock(req.BookingID)
	defer unlock()

	now := uc.timeProvider.Now()

	var (
		booking    *domain.Booking
		rule       statemachine.Rule
		placedHold *domain.Hold
	)

	err := uc.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		// 1. Читаем текущее состояние под блокировкой строки
		b, err := uc.bookings.GetByID(txCtx, req.BookingID)
		if err != nil {
			if errors.Is(err, bookingRepo.ErrBookingNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("%w: load booking: %v", ErrPersistence, err)
		}
		booking = b

		// 2. Из терминального состояния переходов нет
		if b.IsTerminal() {
			return fmt.Errorf("%w: state=%s", ErrTerminalState, b.CurrentState)
		}

		// 3. Ищем правило для пары (state, event)
		r, ok := uc.table.Resolve(b.CurrentState, req.Event)
		if !ok {
			return fmt.Errorf("%w: state=%s event=%s", ErrInvalidTransition, b.CurrentState, req.Event)
		}
		rule = r

		// 4. Guard: предусловие без мутаций
		if rule.Guard != nil {
			gc := statemachine.GuardContext{
				Booking:  b,
				Actor:    req.Actor,
				Metadata: req.Metadata,
				Now:      now,
			}
			if err := rule.Guard(gc); err != nil {
				return fmt.Errorf("%w: %v", ErrGuardFailed, err)
			}
		}

		// Действия над удержанием выполняются в той же транзакции,
		// что и коммит состояния: откат транзакции откатывает и их
		var newHoldID *string

		switch rule.Hold {
		case statemachine.HoldPlace:
			hold, err := uc.holdManager.PlaceHold(txCtx, b.ResourceID, *b.Slot, b.ID, uc.holdTTL)
			if err != nil {
				if errors.Is(err, holds.ErrHoldConflict) {
					if uc.metrics != nil {
						uc.metrics.IncHoldConflict()
					}
					return fmt.Errorf("%w: resource=%s", ErrHoldConflict, b.ResourceID)
				}
				return fmt.Errorf("%w: place hold: %v", ErrPersistence, err)
			}
			placedHold = hold
			newHoldID = &hold.ID

		case statemachine.HoldConvert:
			if b.HoldID == nil {
				return fmt.Errorf("%w: booking has no hold to convert", ErrGuardFailed)
			}
			if err := uc.holdManager.Convert(txCtx, *b.HoldID, b.ID); err != nil {
				switch {
				case errors.Is(err, holds.ErrHoldExpired),
					errors.Is(err, holds.ErrHoldNotFound),
					errors.Is(err, holds.ErrHoldOwnerMismatch):
					return fmt.Errorf("%w: convert hold: %v", ErrGuardFailed, err)
				default:
					return fmt.Errorf("%w: convert hold: %v", ErrPersistence, err)
				}
			}

		case statemachine.HoldRelease:
			if b.HoldID != nil {
				reason := fmt.Sprintf("transition to %s", rule.To)
				if err := uc.holdManager.ReleaseForBooking(txCtx, *b.HoldID, b.ID, reason); err != nil &&
					!errors.Is(err, holds.ErrHoldNotFound) {
					return fmt.Errorf("%w: release hold: %v", ErrPersistence, err)
				}
			}
		}

		// Платёжные данные фиксируются в момент авторизации
		if req.Event == domain.EventPaymentAuthorized {
			payment := paymentFromMetadata(req.Metadata)
			if err := uc.bookings.SetPayment(txCtx, b.ID, payment); err != nil {
				return fmt.Errorf("%w: set payment: %v", ErrPersistence, err)
			}
			b.Payment = payment
		}

		// 5. Атомарный коммит: состояние + запись журнала
		if err := uc.bookings.UpdateState(txCtx, b.ID, rule.To); err != nil {
			return fmt.Errorf("%w: update state: %v", ErrPersistence, err)
		}

		if newHoldID != nil || rule.To == domain.StateDraft {
			// Возврат в черновик (истечение удержания) снимает закрепление
			if err := uc.bookings.AttachHold(txCtx, b.ID, newHoldID); err != nil {
				return fmt.Errorf("%w: attach hold: %v", ErrPersistence, err)
			}
			b.HoldID = newHoldID
		}

		record := &domain.TransitionRecord{
			BookingID: b.ID,
			FromState: b.CurrentState,
			ToState:   rule.To,
			Event:     req.Event,
			ActorType: req.Actor.Type,
			ActorID:   req.Actor.ID,
			Metadata:  req.Metadata,
		}
		if err := uc.log.Append(txCtx, record); err != nil {
			return fmt.Errorf("%w: append transition record: %v", ErrPersistence, err)
		}

		return nil
	})

	if err != nil {
		// Компенсация: удержание, размещённое в неудавшейся попытке,
		// не должно пережить её. При реальном откате транзакции строки
		// уже нет — ErrHoldNotFound здесь ожидаем
		if placedHold != nil && !errors.Is(err, ErrHoldConflict) {
			if relErr := uc.holdManager.Release(ctx, placedHold.ID, "compensation: transition commit failed"); relErr != nil &&
				!errors.Is(relErr, holds.ErrHoldNotFound) {
				uc.logger.Error("SendEvent: failed to compensate hold id=%s for booking_id=%s: %v",
					placedHold.ID, req.BookingID, relErr)
			}
		}

		uc.observe(req.Event, err)
		uc.logger.Warn("SendEvent: booking_id=%s event=%s rejected: %v", req.BookingID, req.Event, err)
		return nil, err
	}

	fromState := booking.CurrentState
	booking.CurrentState = rule.To
	booking.UpdatedAt = now

	uc.observe(req.Event, nil)
	uc.logger.Info("SendEvent: booking_id=%s transitioned %s -> %s on %s",
		req.BookingID, fromState, rule.To, req.Event)

	// 6. Side-эффекты после коммита: их отказ не откатывает переход
	results := uc.dispatcher.Dispatch(ctx, booking, fromState, rule.To, req.Event, req.Metadata)

	return &Response{
		BookingID:     booking.ID,
		PreviousState: string(fromState),
		NewState:      string(rule.To),
		SideEffects:   toEffectOutcomes(results),
	}, nil
}

func validateRequest(req *Request) error {
	if req.BookingID == "" {
		return fmt.Errorf("%w: booking id is required", ErrInvalidInput)
	}
	if !req.Event.IsValid() {
		return fmt.Errorf("%w: unknown event %q", ErrInvalidInput, req.Event)
	}
	if !req.Actor.Type.IsValid() {
		return fmt.Errorf("%w: unknown actor type %q", ErrInvalidInput, req.Actor.Type)
	}
	return nil
}

// paymentFromMetadata собирает платёжные данные из метаданных события авторизации
func paymentFromMetadata(m domain.Metadata) *domain.Payment {
	amount := m.GetFloat(domain.MetaAmount)
	fee := m.GetFloat(domain.MetaPlatformFee)
	return &domain.Payment{
		Amount:           amount,
		PlatformFee:      fee,
		PayoutAmount:     amount - fee,
		GatewayReference: m.GetString(domain.MetaPaymentIntentID),
	}
}

func (uc *UseCase) observe(event domain.Event, err error) {
	if uc.metrics == nil {
		return
	}
	uc.metrics.IncTransition(string(event), resultLabel(err))
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, ErrGuardFailed):
		return "guard_failed"
	case errors.Is(err, ErrTerminalState):
		return "terminal_state"
	case errors.Is(err, ErrHoldConflict):
		return "hold_conflict"
	case errors.Is(err, ErrBookingNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	default:
		return "persistence_error"
	}
}
