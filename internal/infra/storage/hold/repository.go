package hold

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	"github.com/m04kA/SMC-LifecycleService/pkg/dbmetrics"
	"github.com/m04kA/SMC-LifecycleService/pkg/psqlbuilder"
)

// Код нарушения уникального ограничения в PostgreSQL
const pqUniqueViolation = "23505"

var holdColumns = []string{
	"hold_id",
	"resource_id",
	"slot_date",
	"slot_start",
	"slot_end",
	"owner_ref",
	"status",
	"expires_at",
	"release_reason",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с удержаниями слотов
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория удержаний
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create вставляет живое удержание
// Частичный уникальный индекс по (resource_id, slot) для блокирующих статусов
// превращает гонку двух вставок в ErrSlotTaken у проигравшего
func (r *Repository) Create(ctx context.Context, h *domain.Hold) (*domain.Hold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Insert("holds").
		Columns(
			"hold_id",
			"resource_id",
			"slot_date",
			"slot_start",
			"slot_end",
			"owner_ref",
			"status",
			"expires_at",
		).
		Values(
			h.ID,
			h.ResourceID,
			h.Slot.Date,
			h.Slot.Start,
			h.Slot.End,
			h.OwnerRef,
			h.Status,
			h.ExpiresAt,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
			return nil, ErrSlotTaken
		}
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	h.CreatedAt = createdAt.Time
	h.UpdatedAt = updatedAt.Time

	return h, nil
}

// GetByID получает удержание по ID
// Внутри транзакции строка блокируется (FOR UPDATE): конвертация и истечение
// взаимно исключаются на уровне блокировки строки
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Hold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(holdColumns...).
		From("holds").
		Where(squirrel.Eq{"hold_id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	h, err := scanHold(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan hold: %v", ErrScanRow, err)
	}

	return h, nil
}

// ListBlockingOverlapping получает удержания, блокирующие указанный слот:
// конвертированные (постоянная бронь) и живые с неистёкшим TTL
// Пересечение полуоткрытых интервалов: start1 < end2 AND start2 < end1
// Внутри транзакции строки блокируются (FOR UPDATE)
func (r *Repository) ListBlockingOverlapping(ctx context.Context, resourceID string, slot domain.Slot, now time.Time) ([]*domain.Hold, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(holdColumns...).
		From("holds").
		Where(squirrel.Eq{"resource_id": resourceID}).
		Where(squirrel.Eq{"slot_date": slot.Date}).
		Where(squirrel.Lt{"slot_start": slot.End}).
		Where(squirrel.Gt{"slot_end": slot.Start}).
		Where(squirrel.Or{
			squirrel.Eq{"status": domain.HoldStatusConverted},
			squirrel.And{
				squirrel.Eq{"status": domain.HoldStatusLive},
				squirrel.Gt{"expires_at": now},
			},
		})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlockingOverlapping - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListBlockingOverlapping - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanHolds(rows)
}

// UpdateStatus переводит удержание в новый статус
// owner_ref обновляется при конвертации, release_reason — при освобождении
func (r *Repository) UpdateStatus(ctx context.Context, id string, status domain.HoldStatus, ownerRef *string, releaseReason *string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	updateBuilder := psqlbuilder.Update("holds").
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"hold_id": id})

	if ownerRef != nil {
		updateBuilder = updateBuilder.Set("owner_ref", *ownerRef)
	}
	if releaseReason != nil {
		updateBuilder = updateBuilder.Set("release_reason", *releaseReason)
	}

	query, args, err := updateBuilder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: UpdateStatus - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrHoldNotFound
	}

	return nil
}

// SweepExpired помечает живые удержания с истёкшим TTL как expired
// Конвертированные удержания sweep не трогает: статус фильтруется в WHERE,
// а конкурентная конвертация исключается блокировкой строки
func (r *Repository) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("holds").
		Set("status", domain.HoldStatusExpired).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"status": domain.HoldStatusLive}).
		Where(squirrel.LtOrEq{"expires_at": now}).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: SweepExpired - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: SweepExpired - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: SweepExpired - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanHold(row rowScanner) (*domain.Hold, error) {
	var (
		h             domain.Hold
		releaseReason sql.NullString
		createdAt     sql.NullTime
		updatedAt     sql.NullTime
	)

	err := row.Scan(
		&h.ID,
		&h.ResourceID,
		&h.Slot.Date,
		&h.Slot.Start,
		&h.Slot.End,
		&h.OwnerRef,
		&h.Status,
		&h.ExpiresAt,
		&releaseReason,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if releaseReason.Valid {
		h.ReleaseReason = &releaseReason.String
	}
	h.CreatedAt = createdAt.Time
	h.UpdatedAt = updatedAt.Time

	return &h, nil
}

func scanHolds(rows *sql.Rows) ([]*domain.Hold, error) {
	holds := make([]*domain.Hold, 0)

	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanHolds - scan row: %v", ErrScanRow, err)
		}
		holds = append(holds, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanHolds - rows error: %v", ErrScanRow, err)
	}

	return holds, nil
}
