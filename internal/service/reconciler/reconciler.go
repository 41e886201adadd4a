// Package reconciler фоновые проходы жизненного цикла:
// истечение удержаний, таймауты состояний, ретеншн журнала
// и повтор неудавшихся side-эффектов
package reconciler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	"github.com/m04kA/SMC-LifecycleService/internal/usecase/send_event"
)

const (
	sweepBatchLimit = 100

	sweepKindHoldExpiry      = "hold_expiry"
	sweepKindProviderTimeout = "provider_timeout"
	sweepKindLogRetention    = "log_retention"
	sweepKindEffectRetry     = "effect_retry"
)

// Config параметры фоновых проходов
type Config struct {
	HoldTTL                time.Duration
	PendingProviderTimeout time.Duration
	LogRetention           time.Duration
	EffectRetryBackoff     time.Duration
}

// Reconciler выполняет периодические проходы по просроченным сущностям
// Все переходы состояний идут через движок событий с системным актором,
// поэтому каждый таймаут оставляет обычную запись в журнале переходов
type Reconciler struct {
	holds        HoldSweeper
	bookings     BookingRepository
	log          TransitionLogRepository
	journal      EffectJournal
	effects      EffectApplier
	sender       EventSender
	metrics      Metrics
	timeProvider TimeProvider
	logger       Logger
	cfg          Config
}

// New создает новый экземпляр реконсилера
// metrics может быть nil, если метрики выключены
func New(
	holds HoldSweeper,
	bookings BookingRepository,
	log TransitionLogRepository,
	journal EffectJournal,
	effects EffectApplier,
	sender EventSender,
	metrics Metrics,
	logger Logger,
	cfg Config,
) *Reconciler {
	if cfg.HoldTTL <= 0 {
		cfg.HoldTTL = domain.DefaultHoldTTL
	}
	if cfg.PendingProviderTimeout <= 0 {
		cfg.PendingProviderTimeout = domain.DefaultPendingProviderTimeout
	}
	if cfg.LogRetention <= 0 {
		cfg.LogRetention = time.Duration(domain.DefaultLogRetentionDays) * 24 * time.Hour
	}
	if cfg.EffectRetryBackoff <= 0 {
		cfg.EffectRetryBackoff = time.Minute
	}
	return &Reconciler{
		holds:        holds,
		bookings:     bookings,
		log:          log,
		journal:      journal,
		effects:      effects,
		sender:       sender,
		metrics:      metrics,
		timeProvider: realClock{},
		logger:       logger,
		cfg:          cfg,
	}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Run запускает цикл фоновых проходов до отмены контекста
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	r.logger.Info("Reconciler: started, interval=%s", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Reconciler: stopped")
			return
		case <-ticker.C:
			r.RunOnce(ctx)
		}
	}
}

// RunOnce выполняет один полный проход
// Отказ одного этапа не прерывает остальные
func (r *Reconciler) RunOnce(ctx context.Context) {
	r.sweepExpiredHolds(ctx)
	r.sweepOverdue(ctx, domain.StateHold, r.cfg.HoldTTL, domain.EventHoldExpired, sweepKindHoldExpiry)
	r.sweepOverdue(ctx, domain.StatePendingProvider, r.cfg.PendingProviderTimeout, domain.EventProviderTimeout, sweepKindProviderTimeout)
	r.sweepLogRetention(ctx)
	r.retryFailedEffects(ctx)
}

// sweepExpiredHolds освобождает слоты истёкших удержаний
// Смена состояния самих бронирований происходит в sweepOverdue
func (r *Reconciler) sweepExpiredHolds(ctx context.Context) {
	count, err := r.holds.SweepExpired(ctx)
	if err != nil {
		r.logger.Error("Reconciler: hold sweep failed: %v", err)
		return
	}
	if count > 0 {
		r.logger.Info("Reconciler: marked %d holds expired", count)
	}
}

// sweepOverdue переводит бронирования, засидевшиеся в state дольше timeout,
// системным событием event через обычный конвейер переходов
func (r *Reconciler) sweepOverdue(ctx context.Context, state domain.BookingState, timeout time.Duration, event domain.Event, kind string) {
	now := r.timeProvider.Now()
	before := now.Add(-timeout)

	overdue, err := r.bookings.ListOverdue(ctx, state, before, sweepBatchLimit)
	if err != nil {
		r.logger.Error("Reconciler: list overdue state=%s failed: %v", state, err)
		return
	}
	if len(overdue) == 0 {
		return
	}

	var transitioned int
	for _, b := range overdue {
		_, err := r.sender.Execute(ctx, &send_event.Request{
			BookingID: b.ID,
			Event:     event,
			Actor:     domain.SystemActor,
			Metadata: domain.Metadata{
				domain.MetaReason: fmt.Sprintf("timeout after %s in %s", timeout, state),
			},
		})
		if err != nil {
			// Конкурентный переход мог уже увести бронирование из state
			if errors.Is(err, send_event.ErrInvalidTransition) || errors.Is(err, send_event.ErrTerminalState) {
				continue
			}
			r.logger.Error("Reconciler: %s for booking id=%s failed: %v", event, b.ID, err)
			continue
		}
		transitioned++
	}

	if transitioned > 0 {
		r.logger.Info("Reconciler: fired %s for %d bookings overdue in %s", event, transitioned, state)
		r.observe(kind, float64(transitioned))
	}
}

// sweepLogRetention удаляет старые записи журнала терминальных бронирований
func (r *Reconciler) sweepLogRetention(ctx context.Context) {
	before := r.timeProvider.Now().Add(-r.cfg.LogRetention)

	count, err := r.log.SweepRetention(ctx, before)
	if err != nil {
		r.logger.Error("Reconciler: log retention sweep failed: %v", err)
		return
	}
	if count > 0 {
		r.logger.Info("Reconciler: pruned %d transition records older than %s", count, before.Format(time.RFC3339))
		r.observe(sweepKindLogRetention, float64(count))
	}
}

// retryFailedEffects повторяет side-эффекты из журнала отказов
// Backoff линейный: задержка растёт с числом попыток
func (r *Reconciler) retryFailedEffects(ctx context.Context) {
	now := r.timeProvider.Now()

	due, err := r.journal.ListDue(ctx, now, sweepBatchLimit)
	if err != nil {
		r.logger.Error("Reconciler: list due effect failures failed: %v", err)
		return
	}
	if len(due) == 0 {
		return
	}

	var resolved int
	for _, f := range due {
		booking, err := r.bookings.GetByID(ctx, f.BookingID)
		if err != nil {
			r.logger.Error("Reconciler: load booking id=%s for effect retry failed: %v", f.BookingID, err)
			continue
		}

		if err := r.effects.Apply(ctx, booking, f.Effect, f.Metadata); err != nil {
			attempts := f.Attempts + 1
			nextRetry := now.Add(time.Duration(attempts) * r.cfg.EffectRetryBackoff)
			if rErr := r.journal.Reschedule(ctx, f.ID, attempts, nextRetry, err.Error()); rErr != nil {
				r.logger.Error("Reconciler: reschedule effect failure id=%d failed: %v", f.ID, rErr)
			}
			continue
		}

		if err := r.journal.Resolve(ctx, f.ID); err != nil {
			r.logger.Error("Reconciler: resolve effect failure id=%d failed: %v", f.ID, err)
			continue
		}
		resolved++
	}

	if resolved > 0 {
		r.logger.Info("Reconciler: retried %d failed side effects successfully", resolved)
		r.observe(sweepKindEffectRetry, float64(resolved))
	}
}

func (r *Reconciler) observe(kind string, n float64) {
	if r.metrics == nil {
		return
	}
	r.metrics.AddSweep(kind, n)
}
