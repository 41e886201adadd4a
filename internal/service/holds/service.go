// Package holds менеджер эксклюзивных удержаний слотов
// Единственный компонент, отвечающий за инвариант "не более одного живого
// удержания на пересекающийся слот ресурса". Атомарность проверки и вставки
// обеспечивается сериализуемой транзакцией с блокировкой пересекающихся строк;
// частичный уникальный индекс в схеме — страховка от точных дубликатов
package holds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	holdRepo "github.com/m04kA/SMC-LifecycleService/internal/infra/storage/hold"
	"github.com/m04kA/SMC-LifecycleService/pkg/ptr"
)

// Manager менеджер удержаний слотов
type Manager struct {
	repo         HoldRepository
	txManager    TransactionManager
	timeProvider TimeProvider
	logger       Logger
	defaultTTL   time.Duration
}

// NewManager создает новый менеджер удержаний
// defaultTTL <= 0 заменяется бизнес-дефолтом (10 минут)
func NewManager(repo HoldRepository, txManager TransactionManager, logger Logger, defaultTTL time.Duration) *Manager {
	if defaultTTL <= 0 {
		defaultTTL = domain.DefaultHoldTTL
	}
	return &Manager{
		repo:         repo,
		txManager:    txManager,
		timeProvider: &RealTimeProvider{},
		logger:       logger,
		defaultTTL:   defaultTTL,
	}
}

// PlaceHold размещает эксклюзивное удержание слота
// Проверка пересечений и вставка выполняются в одной сериализуемой транзакции:
// из двух конкурентных вызовов на пересекающиеся слоты выигрывает ровно один,
// второй получает ErrHoldConflict
func (m *Manager) PlaceHold(ctx context.Context, resourceID string, slot domain.Slot, ownerRef string, ttl time.Duration) (*domain.Hold, error) {
	if err := slot.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSlot, err)
	}
	if ttl <= 0 {
		ttl = m.defaultTTL
	}

	now := m.timeProvider.Now()

	var created *domain.Hold

	err := m.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		blocking, err := m.repo.ListBlockingOverlapping(txCtx, resourceID, slot, now)
		if err != nil {
			return fmt.Errorf("%w: PlaceHold - list blocking holds: %v", ErrInternal, err)
		}

		if len(blocking) > 0 {
			m.logger.Warn("PlaceHold: slot conflict for resource=%s date=%s %s-%s (%d blocking holds)",
				resourceID, slot.Date.Format(domain.DateFormat), slot.Start, slot.End, len(blocking))
			return ErrHoldConflict
		}

		hold := &domain.Hold{
			ID:         "hold_" + uuid.NewString(),
			ResourceID: resourceID,
			Slot:       slot,
			OwnerRef:   ownerRef,
			Status:     domain.HoldStatusLive,
			ExpiresAt:  now.Add(ttl),
		}

		created, err = m.repo.Create(txCtx, hold)
		if err != nil {
			if errors.Is(err, holdRepo.ErrSlotTaken) {
				// Гонка, которую не поймала проверка пересечений: проиграли вставку
				return ErrHoldConflict
			}
			return fmt.Errorf("%w: PlaceHold - create hold: %v", ErrInternal, err)
		}

		return nil
	})

	if err != nil {
		return nil, err
	}

	m.logger.Info("PlaceHold: placed hold id=%s for resource=%s owner=%s expires_at=%s",
		created.ID, resourceID, ownerRef, created.ExpiresAt.Format(time.RFC3339))

	return created, nil
}

// Convert конвертирует удержание в постоянную бронь
// Идемпотентно: повторная конвертация тем же bookingId — успех без побочных
// эффектов; чужим bookingId — ошибка. Конвертация и истечение взаимно
// исключаются блокировкой строки удержания
func (m *Manager) Convert(ctx context.Context, holdID, bookingID string) error {
	now := m.timeProvider.Now()

	err := m.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		h, err := m.repo.GetByID(txCtx, holdID)
		if err != nil {
			if errors.Is(err, holdRepo.ErrHoldNotFound) {
				return ErrHoldNotFound
			}
			return fmt.Errorf("%w: Convert - get hold: %v", ErrInternal, err)
		}

		switch h.Status {
		case domain.HoldStatusConverted:
			if h.OwnerRef == bookingID {
				return nil
			}
			return ErrHoldOwnerMismatch

		case domain.HoldStatusReleased:
			return ErrHoldNotFound

		case domain.HoldStatusExpired:
			return ErrHoldExpired
		}

		// Живое удержание: истёкший TTL фиксируем лениво и отказываем
		if !now.Before(h.ExpiresAt) {
			if err := m.repo.UpdateStatus(txCtx, holdID, domain.HoldStatusExpired, nil, nil); err != nil {
				return fmt.Errorf("%w: Convert - mark expired: %v", ErrInternal, err)
			}
			return ErrHoldExpired
		}

		if h.OwnerRef != bookingID {
			return ErrHoldOwnerMismatch
		}

		if err := m.repo.UpdateStatus(txCtx, holdID, domain.HoldStatusConverted, ptr.Ptr(bookingID), nil); err != nil {
			return fmt.Errorf("%w: Convert - mark converted: %v", ErrInternal, err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	m.logger.Info("Convert: hold id=%s converted for booking_id=%s", holdID, bookingID)
	return nil
}

// Release освобождает живое удержание по намерению "release"
// Идемпотентно для уже освобождённых и истёкших удержаний;
// конвертированное удержание освободить нельзя — это постоянная бронь
func (m *Manager) Release(ctx context.Context, holdID, reason string) error {
	return m.release(ctx, holdID, reason, nil)
}

// ReleaseForBooking освобождает удержание при отмене бронирования
// В отличие от Release допускает освобождение конвертированного удержания,
// но только владеющим бронированием: отмена подтверждённой брони обязана
// вернуть слот в оборот
func (m *Manager) ReleaseForBooking(ctx context.Context, holdID, bookingID, reason string) error {
	return m.release(ctx, holdID, reason, &bookingID)
}

func (m *Manager) release(ctx context.Context, holdID, reason string, owningBooking *string) error {
	err := m.txManager.DoSerializable(ctx, func(txCtx context.Context) error {
		h, err := m.repo.GetByID(txCtx, holdID)
		if err != nil {
			if errors.Is(err, holdRepo.ErrHoldNotFound) {
				return ErrHoldNotFound
			}
			return fmt.Errorf("%w: Release - get hold: %v", ErrInternal, err)
		}

		switch h.Status {
		case domain.HoldStatusReleased, domain.HoldStatusExpired:
			// Уже уничтожено - идемпотентный успех
			return nil

		case domain.HoldStatusConverted:
			if owningBooking == nil {
				return ErrHoldConverted
			}
			if h.OwnerRef != *owningBooking {
				return ErrHoldOwnerMismatch
			}
		}

		if err := m.repo.UpdateStatus(txCtx, holdID, domain.HoldStatusReleased, nil, ptr.Ptr(reason)); err != nil {
			return fmt.Errorf("%w: Release - mark released: %v", ErrInternal, err)
		}

		return nil
	})

	if err != nil {
		return err
	}

	m.logger.Info("Release: hold id=%s released, reason=%s", holdID, reason)
	return nil
}

// SweepExpired помечает истёкшие живые удержания
// Конвертация конкурентного удержания исключена: sweep затрагивает
// только строки со статусом live и истёкшим TTL
func (m *Manager) SweepExpired(ctx context.Context) (int64, error) {
	now := m.timeProvider.Now()

	count, err := m.repo.SweepExpired(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("%w: SweepExpired - repository error: %v", ErrInternal, err)
	}

	if count > 0 {
		m.logger.Info("SweepExpired: expired %d holds", count)
	}

	return count, nil
}
