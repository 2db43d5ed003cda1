package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/akulagin/rentadash-system/internal/model"
	"github.com/akulagin/rentadash-system/internal/money"
)

// TransitionEffects описывает изменения журнала доходов, применяемые
// вместе со сменой статуса бронирования в одной транзакции.
type TransitionEffects struct {
	// Create — доходы, создаваемые при переходе, в порядке перечисления.
	Create []model.Income
	// CreateOnlyIfEmpty включает идемпотентную защиту: доходы создаются
	// только если у бронирования ещё нет связанных записей.
	CreateOnlyIfEmpty bool
	// DeleteCategory задаёт категорию связанных доходов, удаляемых при переходе.
	DeleteCategory *model.IncomeCategory
}

// CreateBooking сохраняет бронирование и его стартовые доходы в одной транзакции:
// либо фиксируется и бронирование, и журнал, либо ничего.
func (r *PostgresRepository) CreateBooking(ctx context.Context, b *model.Booking, incomes []model.Income) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO bookings
			(guest_name, check_in, check_out, rental_type,
			 daily_rate_cents, monthly_rate_cents, nights, months,
			 total_cents, deposit_cents, remaining_cents,
			 platform, status, notes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id`,
		b.GuestName, b.CheckIn, b.CheckOut, string(b.RentalType),
		rateCents(b.DailyRate), rateCents(b.MonthlyRate), b.Nights, b.Months,
		money.ToCents(b.TotalBRL), money.ToCents(b.DepositAmount), money.ToCents(b.RemainingAmount),
		string(b.Platform), string(b.Status), b.Notes,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert booking: %w", err)
	}

	for _, income := range incomes {
		income.BookingID = &id
		if err := insertIncomeTx(ctx, tx, income); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit tx: %w", err)
	}

	return id, nil
}

// GetBookingByID возвращает бронирование по идентификатору.
func (r *PostgresRepository) GetBookingByID(ctx context.Context, id int64) (*model.Booking, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, guest_name, check_in, check_out, rental_type,
		        daily_rate_cents, monthly_rate_cents, nights, months,
		        total_cents, deposit_cents, remaining_cents,
		        platform, status, notes, created_at, updated_at
		 FROM bookings
		 WHERE id = $1`,
		id,
	)

	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("get booking: %w", err)
	}

	return b, nil
}

// ListBookings возвращает все бронирования, новые заезды первыми.
func (r *PostgresRepository) ListBookings(ctx context.Context) ([]model.Booking, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, guest_name, check_in, check_out, rental_type,
		        daily_rate_cents, monthly_rate_cents, nights, months,
		        total_cents, deposit_cents, remaining_cents,
		        platform, status, notes, created_at, updated_at
		 FROM bookings
		 ORDER BY check_in DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select bookings: %w", err)
	}
	defer rows.Close()

	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		bookings = append(bookings, *b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return bookings, nil
}

// UpdateBooking сохраняет изменённые поля бронирования. Журнал доходов
// при этом не трогается: зафиксированные суммы доходов не переписываются.
func (r *PostgresRepository) UpdateBooking(ctx context.Context, b *model.Booking) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE bookings
		 SET guest_name = $2, check_in = $3, check_out = $4, rental_type = $5,
		     daily_rate_cents = $6, monthly_rate_cents = $7, nights = $8, months = $9,
		     total_cents = $10, deposit_cents = $11, remaining_cents = $12,
		     platform = $13, notes = $14, updated_at = now()
		 WHERE id = $1`,
		b.ID, b.GuestName, b.CheckIn, b.CheckOut, string(b.RentalType),
		rateCents(b.DailyRate), rateCents(b.MonthlyRate), b.Nights, b.Months,
		money.ToCents(b.TotalBRL), money.ToCents(b.DepositAmount), money.ToCents(b.RemainingAmount),
		string(b.Platform), b.Notes,
	)
	if err != nil {
		return fmt.Errorf("update booking: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}

	return nil
}

// TransitionBooking применяет переход статуса вместе с эффектами журнала доходов
// в одной транзакции. Строка бронирования блокируется FOR UPDATE, поэтому
// конкурентные переходы по одному бронированию сериализуются, а проверка
// связанных доходов не гоняется с их созданием.
func (r *PostgresRepository) TransitionBooking(ctx context.Context, id int64, from, to model.BookingStatus, eff TransitionEffects) error {
	return r.withRetry(ctx, func() error {
		return r.transitionBooking(ctx, id, from, to, eff)
	})
}

func (r *PostgresRepository) transitionBooking(ctx context.Context, id int64, from, to model.BookingStatus, eff TransitionEffects) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string
	err = tx.QueryRow(ctx, `SELECT status FROM bookings WHERE id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrBookingNotFound
		}
		return fmt.Errorf("lock booking: %w", err)
	}

	if model.BookingStatus(current) != from {
		return fmt.Errorf("%w: have %s, expected %s", ErrStatusChanged, current, from)
	}

	createIncomes := eff.Create
	if eff.CreateOnlyIfEmpty && len(createIncomes) > 0 {
		var linked int
		err = tx.QueryRow(ctx, `SELECT count(*) FROM incomes WHERE booking_id = $1`, id).Scan(&linked)
		if err != nil {
			return fmt.Errorf("count linked incomes: %w", err)
		}
		// Повторный вызов перехода не должен дублировать записи журнала.
		if linked > 0 {
			createIncomes = nil
		}
	}

	for _, income := range createIncomes {
		income.BookingID = &id
		if err := insertIncomeTx(ctx, tx, income); err != nil {
			return err
		}
	}

	if eff.DeleteCategory != nil {
		_, err = tx.Exec(ctx,
			`DELETE FROM incomes WHERE booking_id = $1 AND category = $2`,
			id, string(*eff.DeleteCategory),
		)
		if err != nil {
			return fmt.Errorf("delete linked incomes: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`UPDATE bookings SET status = $2, updated_at = now() WHERE id = $1`,
		id, string(to),
	)
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// DeleteBooking удаляет бронирование вместе со всеми связанными доходами.
func (r *PostgresRepository) DeleteBooking(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM incomes WHERE booking_id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete linked incomes: %w", err)
	}

	cmdTag, err := tx.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrBookingNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

func rateCents(rate *float64) *int64 {
	if rate == nil {
		return nil
	}
	v := money.ToCents(*rate)
	return &v
}

func centsRate(cents *int64) *float64 {
	if cents == nil {
		return nil
	}
	v := money.FromCents(*cents)
	return &v
}

func scanBooking(row pgx.Row) (*model.Booking, error) {
	var (
		b                bookingRow
		booking          model.Booking
		dailyRateCents   *int64
		monthlyRateCents *int64
	)

	err := row.Scan(
		&booking.ID, &booking.GuestName, &booking.CheckIn, &booking.CheckOut, &b.rentalType,
		&dailyRateCents, &monthlyRateCents, &booking.Nights, &booking.Months,
		&b.totalCents, &b.depositCents, &b.remainingCents,
		&b.platform, &b.status, &booking.Notes, &booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.RentalType = model.RentalType(b.rentalType)
	booking.DailyRate = centsRate(dailyRateCents)
	booking.MonthlyRate = centsRate(monthlyRateCents)
	booking.TotalBRL = money.FromCents(b.totalCents)
	booking.DepositAmount = money.FromCents(b.depositCents)
	booking.RemainingAmount = money.FromCents(b.remainingCents)
	booking.Platform = model.Platform(b.platform)
	booking.Status = model.BookingStatus(b.status)

	return &booking, nil
}

type bookingRow struct {
	rentalType     string
	platform       string
	status         string
	totalCents     int64
	depositCents   int64
	remainingCents int64
}

func insertIncomeTx(ctx context.Context, tx pgx.Tx, income model.Income) error {
	date := income.Date
	if date.IsZero() {
		date = time.Now()
	}

	_, err := tx.Exec(ctx,
		`INSERT INTO incomes (booking_id, date, amount_cents, category, description, is_confirmed)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		income.BookingID, date, money.ToCents(income.AmountBRL),
		string(income.Category), income.Description, income.IsConfirmed,
	)
	if err != nil {
		return fmt.Errorf("insert income: %w", err)
	}

	return nil
}
