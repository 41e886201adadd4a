// Package transitionlog append-only журнал переходов жизненного цикла
// Записи никогда не обновляются; удаление возможно только retention-sweep-ом
// по терминальным бронированиям старше окна хранения
package transitionlog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/m04kA/SMC-LifecycleService/internal/domain"
	"github.com/m04kA/SMC-LifecycleService/pkg/dbmetrics"
	"github.com/m04kA/SMC-LifecycleService/pkg/psqlbuilder"
)

// Repository репозиторий журнала переходов
type Repository struct {
	db dbmetrics.DBExecutor
}

// NewRepository создает новый экземпляр репозитория журнала
func NewRepository(db dbmetrics.DBExecutor) *Repository {
	return &Repository{db: db}
}

// Append добавляет запись перехода в журнал
func (r *Repository) Append(ctx context.Context, rec *domain.TransitionRecord) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	metadataJSON, err := marshalMetadata(rec.Metadata)
	if err != nil {
		return fmt.Errorf("%w: Append - marshal metadata: %v", ErrMarshalMetadata, err)
	}

	query, args, err := psqlbuilder.Insert("transition_log").
		Columns(
			"booking_id",
			"from_state",
			"to_state",
			"event",
			"actor_type",
			"actor_id",
			"metadata_json",
		).
		Values(
			rec.BookingID,
			rec.FromState,
			rec.ToState,
			rec.Event,
			rec.ActorType,
			rec.ActorID,
			metadataJSON,
		).
		Suffix("RETURNING id, created_at").
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: Append - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&rec.ID, &createdAt)
	if err != nil {
		return fmt.Errorf("%w: Append - execute insert: %v", ErrExecQuery, err)
	}
	rec.CreatedAt = createdAt.Time

	return nil
}

// HistoryFor возвращает записи бронирования в хронологическом порядке
// Порядок добавления совпадает с хронологическим: сортировка по id
func (r *Repository) HistoryFor(ctx context.Context, bookingID string) ([]*domain.TransitionRecord, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Select(
		"id",
		"booking_id",
		"from_state",
		"to_state",
		"event",
		"actor_type",
		"actor_id",
		"metadata_json",
		"created_at",
	).
		From("transition_log").
		Where(squirrel.Eq{"booking_id": bookingID}).
		OrderBy("id ASC").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: HistoryFor - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: HistoryFor - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	records := make([]*domain.TransitionRecord, 0)
	for rows.Next() {
		var (
			rec          domain.TransitionRecord
			metadataJSON sql.NullString
			createdAt    sql.NullTime
		)

		err := rows.Scan(
			&rec.ID,
			&rec.BookingID,
			&rec.FromState,
			&rec.ToState,
			&rec.Event,
			&rec.ActorType,
			&rec.ActorID,
			&metadataJSON,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: HistoryFor - scan row: %v", ErrScanRow, err)
		}

		rec.CreatedAt = createdAt.Time
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &rec.Metadata); err != nil {
				return nil, fmt.Errorf("%w: HistoryFor - unmarshal metadata: %v", ErrScanRow, err)
			}
		}

		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: HistoryFor - rows error: %v", ErrScanRow, err)
	}

	return records, nil
}

// SweepRetention удаляет записи терминальных бронирований старше окна хранения
// Единственный разрешённый путь удаления из журнала
func (r *Repository) SweepRetention(ctx context.Context, before time.Time) (int64, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	terminal := make([]string, len(domain.TerminalStates))
	for i, s := range domain.TerminalStates {
		terminal[i] = string(s)
	}

	query, args, err := psqlbuilder.Delete("transition_log").
		Where(squirrel.Expr(
			"booking_id IN (SELECT id FROM bookings WHERE current_state = ANY(?) AND updated_at <= ?)",
			pq.Array(terminal), before,
		)).
		ToSql()

	if err != nil {
		return 0, fmt.Errorf("%w: SweepRetention - build delete query: %v", ErrBuildQuery, err)
	}

	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: SweepRetention - execute delete: %v", ErrExecQuery, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: SweepRetention - get rows affected: %v", ErrExecQuery, err)
	}

	return rowsAffected, nil
}

func marshalMetadata(m domain.Metadata) (*string, error) {
	if m == nil {
		return nil, nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}
