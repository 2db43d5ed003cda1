package service

import (
	"context"
	"fmt"
	"time"

	"github.com/akulagin/rentadash-system/internal/model"
	"github.com/akulagin/rentadash-system/internal/money"
	"github.com/akulagin/rentadash-system/internal/repository"
	"github.com/akulagin/rentadash-system/internal/validation"
)

// validTransitions описывает допустимые переходы статуса бронирования.
// Повторный перевод в текущий статус не является переходом и обрабатывается отдельно.
var validTransitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingStatusPending:   {model.BookingStatusConfirmed, model.BookingStatusCompleted, model.BookingStatusCancelled},
	model.BookingStatusConfirmed: {model.BookingStatusCompleted, model.BookingStatusCancelled},
	model.BookingStatusCompleted: {},
	model.BookingStatusCancelled: {},
}

func transitionAllowed(from, to model.BookingStatus) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CreateBooking рассчитывает производные суммы бронирования, сохраняет его
// и создаёт связанные доходы в зависимости от начального статуса.
func (s *Service) CreateBooking(ctx context.Context, b *model.Booking) (int64, error) {
	if err := deriveBookingAmounts(b); err != nil {
		return 0, err
	}
	if b.Status == "" {
		b.Status = model.BookingStatusPending
	}
	if b.Status == model.BookingStatusCancelled {
		return 0, fmt.Errorf("%w: cannot create booking in status %s", ErrInvalidBooking, b.Status)
	}

	var incomes []model.Income
	switch b.Status {
	case model.BookingStatusConfirmed:
		incomes = []model.Income{depositIncome(b, time.Now())}
	case model.BookingStatusCompleted:
		incomes = []model.Income{depositIncome(b, time.Now()), remainingIncome(b)}
	}

	return s.repo.CreateBooking(ctx, b, incomes)
}

// GetBooking возвращает бронирование по идентификатору.
func (s *Service) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	return s.repo.GetBookingByID(ctx, id)
}

// ListBookings возвращает все бронирования.
func (s *Service) ListBookings(ctx context.Context) ([]model.Booking, error) {
	return s.repo.ListBookings(ctx)
}

// UpdateBooking пересчитывает производные суммы и сохраняет бронирование.
// Статус и связанные доходы при этом не изменяются.
func (s *Service) UpdateBooking(ctx context.Context, b *model.Booking) error {
	current, err := s.repo.GetBookingByID(ctx, b.ID)
	if err != nil {
		return err
	}
	b.Status = current.Status

	if err := deriveBookingAmounts(b); err != nil {
		return err
	}
	return s.repo.UpdateBooking(ctx, b)
}

// ChangeBookingStatus переводит бронирование в новый статус и согласует
// журнал доходов с переходом. Перевод в текущий статус завершается успешно
// без побочных эффектов.
func (s *Service) ChangeBookingStatus(ctx context.Context, id int64, to model.BookingStatus) error {
	b, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return err
	}
	if b.Status == to {
		return nil
	}
	if !transitionAllowed(b.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, to)
	}

	eff := transitionEffects(b, to)
	return s.repo.TransitionBooking(ctx, id, b.Status, to, eff)
}

// DeleteBooking удаляет бронирование вместе со всеми связанными доходами.
func (s *Service) DeleteBooking(ctx context.Context, id int64) error {
	return s.repo.DeleteBooking(ctx, id)
}

// transitionEffects возвращает побочные эффекты журнала доходов для перехода
// бронирования в новый статус.
func transitionEffects(b *model.Booking, to model.BookingStatus) repository.TransitionEffects {
	switch to {
	case model.BookingStatusConfirmed:
		// Если доходы уже созданы ранее, повторно они не создаются.
		return repository.TransitionEffects{
			Create:            []model.Income{depositIncome(b, time.Now())},
			CreateOnlyIfEmpty: true,
		}
	case model.BookingStatusCompleted:
		if b.Status == model.BookingStatusConfirmed {
			// Сеньяль уже в журнале, добавляется только остаток.
			return repository.TransitionEffects{
				Create: []model.Income{remainingIncome(b)},
			}
		}
		return repository.TransitionEffects{
			Create:            []model.Income{depositIncome(b, time.Now()), remainingIncome(b)},
			CreateOnlyIfEmpty: true,
		}
	case model.BookingStatusCancelled:
		// При отмене удаляется только доход за проживание, сеньяль остаётся.
		rental := model.IncomeCategoryRental
		return repository.TransitionEffects{DeleteCategory: &rental}
	}
	return repository.TransitionEffects{}
}

// deriveBookingAmounts рассчитывает ночи, месяцы и суммы бронирования
// из дат и тарифов.
func deriveBookingAmounts(b *model.Booking) error {
	if b.GuestName == "" && b.Platform == "" {
		return fmt.Errorf("%w: guest name or platform is required", ErrInvalidBooking)
	}
	if !validation.IsValidStay(b.CheckIn, b.CheckOut) {
		return fmt.Errorf("%w: check-out must be after check-in", ErrInvalidBooking)
	}

	switch b.RentalType {
	case model.RentalTypeDaily:
		if b.DailyRate == nil || *b.DailyRate <= 0 {
			return fmt.Errorf("%w: daily rate is required for daily rental", ErrInvalidBooking)
		}
		b.Nights = stayNights(b.CheckIn, b.CheckOut)
		b.Months = 0
		b.TotalBRL = money.Total(*b.DailyRate, b.Nights)
	case model.RentalTypeMonthly:
		if b.MonthlyRate == nil || *b.MonthlyRate <= 0 {
			return fmt.Errorf("%w: monthly rate is required for monthly rental", ErrInvalidBooking)
		}
		b.Months = stayMonths(b.CheckIn, b.CheckOut)
		b.Nights = 0
		b.TotalBRL = money.Total(*b.MonthlyRate, b.Months)
	default:
		return fmt.Errorf("%w: unknown rental type %q", ErrInvalidBooking, b.RentalType)
	}

	b.DepositAmount, b.RemainingAmount = money.Split(b.TotalBRL)
	return nil
}

// stayNights возвращает число ночей между датами заезда и выезда.
// Часовой пояс и время суток не учитываются, считаются календарные дни.
func stayNights(checkIn, checkOut time.Time) int {
	in := time.Date(checkIn.Year(), checkIn.Month(), checkIn.Day(), 0, 0, 0, 0, time.UTC)
	out := time.Date(checkOut.Year(), checkOut.Month(), checkOut.Day(), 0, 0, 0, 0, time.UTC)
	nights := int(out.Sub(in).Hours() / 24)
	if nights < 0 {
		return 0
	}
	return nights
}

// stayMonths возвращает число календарных месяцев между датами, минимум один.
func stayMonths(checkIn, checkOut time.Time) int {
	months := (checkOut.Year()-checkIn.Year())*12 + int(checkOut.Month()) - int(checkIn.Month())
	if months < 1 {
		return 1
	}
	return months
}

// bookingLabel возвращает подпись бронирования для описания дохода:
// имя гостя либо дата заезда в формате дд/мм.
func bookingLabel(b *model.Booking) string {
	if b.GuestName != "" {
		return b.GuestName
	}
	return b.CheckIn.Format("02/01")
}

// depositIncome формирует доход-сеньяль для бронирования. Датой дохода
// считается момент подтверждения.
func depositIncome(b *model.Booking, now time.Time) model.Income {
	return model.Income{
		BookingID:   &b.ID,
		Date:        now,
		AmountBRL:   b.DepositAmount,
		Category:    model.IncomeCategoryDeposit,
		Description: "Seña - " + bookingLabel(b),
		IsConfirmed: true,
	}
}

// remainingIncome формирует доход за проживание на дату заезда.
func remainingIncome(b *model.Booking) model.Income {
	return model.Income{
		BookingID:   &b.ID,
		Date:        b.CheckIn,
		AmountBRL:   b.RemainingAmount,
		Category:    model.IncomeCategoryRental,
		Description: "Restante reserva - " + bookingLabel(b),
		IsConfirmed: true,
	}
}
