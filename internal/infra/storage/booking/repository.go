package booking

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

var bookingColumns = []string{
	"id",
	"resource_id",
	"customer_id",
	"current_state",
	"slot_date",
	"slot_start",
	"slot_end",
	"payment_json",
	"hold_id",
	"created_at",
	"updated_at",
}

// Repository репозиторий для работы с бронированиями
type Repository struct {
	db DBExecutor
}

// NewRepository создает новый экземпляр репозитория бронирований
func NewRepository(db DBExecutor) *Repository {
	return &Repository{db: db}
}

// Create создает бронирование в начальном состоянии
func (r *Repository) Create(ctx context.Context, b *domain.Booking) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	paymentJSON, err := marshalPayment(b.Payment)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - marshal payment: %v", ErrMarshalPayment, err)
	}

	query, args, err := psqlbuilder.Insert("bookings").
		Columns(
			"id",
			"resource_id",
			"customer_id",
			"current_state",
			"slot_date",
			"slot_start",
			"slot_end",
			"payment_json",
			"hold_id",
		).
		Values(
			b.ID,
			b.ResourceID,
			b.CustomerID,
			b.CurrentState,
			b.Slot.Date,
			b.Slot.Start,
			b.Slot.End,
			paymentJSON,
			b.HoldID,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()

	if err != nil {
		return nil, fmt.Errorf("%w: Create - build insert query: %v", ErrBuildQuery, err)
	}

	var createdAt, updatedAt sql.NullTime
	err = executor.QueryRowContext(ctx, query, args...).Scan(&createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("%w: Create - execute insert: %v", ErrExecQuery, err)
	}

	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	return b, nil
}

// GetByID получает бронирование по ID
// Внутри транзакции строка блокируется (FOR UPDATE): чтение текущего состояния
// должно быть линеаризуемо относительно конкурентных переходов
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"id": id})

	if dbmetrics.IsInTransaction(ctx) {
		selectBuilder = selectBuilder.Suffix("FOR UPDATE")
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - build select query: %v", ErrBuildQuery, err)
	}

	b, err := scanBooking(executor.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: GetByID - scan booking: %v", ErrScanRow, err)
	}

	return b, nil
}

// UpdateState обновляет денормализованное состояние бронирования
// updated_at продвигается на каждом переходе
func (r *Repository) UpdateState(ctx context.Context, id string, state domain.BookingState) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("current_state", state).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: UpdateState - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "UpdateState")
}

// AttachHold закрепляет удержание за бронированием (nil снимает закрепление)
func (r *Repository) AttachHold(ctx context.Context, id string, holdID *string) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	query, args, err := psqlbuilder.Update("bookings").
		Set("hold_id", holdID).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: AttachHold - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "AttachHold")
}

// SetPayment сохраняет платёжные данные бронирования
func (r *Repository) SetPayment(ctx context.Context, id string, payment *domain.Payment) error {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	paymentJSON, err := marshalPayment(payment)
	if err != nil {
		return fmt.Errorf("%w: SetPayment - marshal payment: %v", ErrMarshalPayment, err)
	}

	query, args, err := psqlbuilder.Update("bookings").
		Set("payment_json", paymentJSON).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": id}).
		ToSql()

	if err != nil {
		return fmt.Errorf("%w: SetPayment - build update query: %v", ErrBuildQuery, err)
	}

	return r.execExpectingRow(ctx, executor, query, args, "SetPayment")
}

// ListByCustomer получает бронирования клиента, опционально фильтруя по состоянию
func (r *Repository) ListByCustomer(ctx context.Context, customerID string, state *domain.BookingState) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"customer_id": customerID}).
		OrderBy("slot_date DESC, slot_start DESC")

	if state != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"current_state": *state})
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByCustomer - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByCustomer - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListByResource получает бронирования ресурса с гибкой фильтрацией
// по периоду, состоянию и включению терминальных бронирований
func (r *Repository) ListByResource(ctx context.Context, filter domain.ResourceBookingsFilter) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"resource_id": filter.ResourceID})

	if filter.StartDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.GtOrEq{"slot_date": *filter.StartDate})
	}
	if filter.EndDate != nil {
		selectBuilder = selectBuilder.Where(squirrel.LtOrEq{"slot_date": *filter.EndDate})
	}

	if filter.State != nil {
		selectBuilder = selectBuilder.Where(squirrel.Eq{"current_state": *filter.State})
	} else if !filter.IncludeTerminal {
		terminal := make([]string, len(domain.TerminalStates))
		for i, s := range domain.TerminalStates {
			terminal[i] = string(s)
		}
		selectBuilder = selectBuilder.Where(squirrel.NotEq{"current_state": terminal})
	}

	selectBuilder = selectBuilder.OrderBy("slot_date DESC, slot_start DESC")

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListByResource - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListByResource - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

// ListOverdue получает бронирования, задержавшиеся в состоянии дольше дедлайна
// Используется reconciler-ом для авто-переходов по таймауту состояния
func (r *Repository) ListOverdue(ctx context.Context, state domain.BookingState, before time.Time, limit uint64) ([]*domain.Booking, error) {
	executor := dbmetrics.GetExecutor(ctx, r.db)

	selectBuilder := psqlbuilder.Select(bookingColumns...).
		From("bookings").
		Where(squirrel.Eq{"current_state": state}).
		Where(squirrel.LtOrEq{"updated_at": before}).
		OrderBy("updated_at ASC")

	if limit > 0 {
		selectBuilder = selectBuilder.Limit(limit)
	}

	query, args, err := selectBuilder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverdue - build select query: %v", ErrBuildQuery, err)
	}

	rows, err := executor.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: ListOverdue - execute query: %v", ErrExecQuery, err)
	}
	defer rows.Close()

	return scanBookings(rows)
}

func (r *Repository) execExpectingRow(ctx context.Context, executor DBExecutor, query string, args []interface{}, method string) error {
	result, err := executor.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%w: %s - execute update: %v", ErrExecQuery, method, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %s - get rows affected: %v", ErrExecQuery, method, err)
	}

	if rowsAffected == 0 {
		return ErrBookingNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b           domain.Booking
		slot        domain.Slot
		paymentJSON sql.NullString
		holdID      sql.NullString
		createdAt   sql.NullTime
		updatedAt   sql.NullTime
	)

	err := row.Scan(
		&b.ID,
		&b.ResourceID,
		&b.CustomerID,
		&b.CurrentState,
		&slot.Date,
		&slot.Start,
		&slot.End,
		&paymentJSON,
		&holdID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Slot = &slot
	b.CreatedAt = createdAt.Time
	b.UpdatedAt = updatedAt.Time

	if holdID.Valid {
		b.HoldID = &holdID.String
	}

	if paymentJSON.Valid && paymentJSON.String != "" {
		var payment domain.Payment
		if err := json.Unmarshal([]byte(paymentJSON.String), &payment); err != nil {
			return nil, err
		}
		b.Payment = &payment
	}

	return &b, nil
}

func scanBookings(rows *sql.Rows) ([]*domain.Booking, error) {
	bookings := make([]*domain.Booking, 0)

	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scanBookings - scan row: %v", ErrScanRow, err)
		}
		bookings = append(bookings, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: scanBookings - rows error: %v", ErrScanRow, err)
	}

	return bookings, nil
}

func marshalPayment(p *domain.Payment) (*string, error) {
	if p == nil {
		return nil, nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	s := string(data)
	return &s, nil
}
