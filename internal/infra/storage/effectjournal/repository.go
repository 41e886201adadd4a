// Package effectjournal журнал неуспешных side-эффектов
// Состояние бронирования — источник истины и никогда не откатывается из-за
// недоступности коллабораторов; упавшие эффекты записываются сюда и
// повторяются reconciler-ом
package effectjournal

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	"github.com/m04kA/SMC-LifecycleService/pkg/dbmetrics"
	"github.com/m04kA/SMC-LifecycleService/pkg/psqlbuilder"
)

// Repository репозиторий журнала отказов side-эффектов
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория журнала отказов
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Record записывает отказ эффекта для последующего повтора
func (r *Repository) Record(ctx context.Context, f *domain.EffectFailure) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	var metadataJSON *string
	if f.Metadata != nil {
		data, err := json.Marshal(f.Metadata)
		if err != nil {
			return fmt.Errorf("%w: Record - marshal metadata: %v", ErrExecQuery, err)
		}
		s := string(data)
		metadataJSON = &s
	}

	query, args, err := psqlbuilder.Insert("side_effect_failures").
		Columns(
			"booking_id",
			"effect",
			"to_state",
			"event",
			"metadata_json",
			"fail_reason",
			"attempts",
			"next_retry_at",
		).
		Values(
			f.BookingID,
			f.Effect,
			f.ToState,
			f.Event,
			metadataJSON,
			f.FailReason,
			f.Attempts,
			f.NextRetryAt,
		).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Record - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&f.ID, &createdAt, &updatedAt)
	if err != nil {
		return fmt.Errorf("%w: Record - execute insert: %v", ErrExecQuery, err)
	}

	f.CreatedAt = createdAt.Time
	f.UpdatedAt = updatedAt.Time

	return nil
}

// ListDue возвращает отказы, готовые к повтору
func (r *Repository) ListDue(ctx context.Context, now time.Time, limit uint64) ([]*domain.EffectFailure, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(
		"id",
		"booking_id",
		"effect",
		"to_state",
		"event",
		"metadata_json",
		"fail_reason",
		"attempts",
		"next_retry_at",
		"created_at",
		"updated_at",
	).
		From("side_effect_failures").
		Where(squirrel.LtOrEq{"next_retry_at": now}).
		OrderBy("next_retry_at ASC")

	if limit > 0 {
		selectBuilder = selectBuilder.Limit(limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListDue - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListDue - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	failures := make([]*domain.EffectFailure, 0)
	for rows.Next() {
		var (
			f            domain.EffectFailure
			metadataJSON sql.NullString
			nextRetryAt  sql.NullTime
			createdAt    sql.NullTime
			updatedAt    sql.NullTime
		)

		err := rows.Scan(
			&f.ID,
			&f.BookingID,
			&f.Effect,
			&f.ToState,
			&f.Event,
			&metadataJSON,
			&f.FailReason,
			&f.Attempts,
			&nextRetryAt,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: ListDue - scan row: %v", ErrScanRow, err)
		}

		f.NextRetryAt = nextRetryAt.Time
		f.CreatedAt = createdAt.Time
		f.UpdatedAt = updatedAt.Time

		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &f.Metadata); err != nil {
				return nil, fmt.Errorf("%w: ListDue - unmarshal metadata: %v", ErrScanRow, err)
			}
		}

		failures = append(failures, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: ListDue - rows error: %v", ErrScanRow, err)
	}

	return failures, nil
}

// Resolve удаляет запись об отказе после успешного повтора
func (r *Repository) Resolve(ctx context.Context, id int64) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Delete("side_effect_failures").
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Resolve - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Resolve - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Resolve - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrFailureNotFound
	}

	return nil
}

// Reschedule откладывает следующий повтор отказа
func (r *Repository) Reschedule(ctx context.Context, id int64, attempts int, nextRetryAt time.Time, reason string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("side_effect_failures").
		Set("attempts", attempts).
		Set("next_retry_at", nextRetryAt).
		Set("fail_reason", reason).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Reschedule - build update query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: Reschedule - execute update: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: Reschedule - get rows affected: %v", ErrExecQuery, err)
	}

	if rowsAffected == 0 {
		return ErrFailureNotFound
	}

	return nil
}
