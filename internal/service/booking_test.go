package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/akulagin/rentadash-system/internal/model"
)

func floatPtr(v float64) *float64 { return &v }

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDeriveBookingAmounts_Daily(t *testing.T) {
	b := &model.Booking{
		GuestName:  "Ana",
		CheckIn:    date(2025, time.January, 10),
		CheckOut:   date(2025, time.January, 15),
		RentalType: model.RentalTypeDaily,
		DailyRate:  floatPtr(200),
	}

	if err := deriveBookingAmounts(b); err != nil {
		t.Fatalf("deriveBookingAmounts error: %v", err)
	}
	if b.Nights != 5 {
		t.Fatalf("Nights = %d, want 5", b.Nights)
	}
	if b.TotalBRL != 1000 {
		t.Fatalf("TotalBRL = %v, want 1000", b.TotalBRL)
	}
	if b.DepositAmount != 300 || b.RemainingAmount != 700 {
		t.Fatalf("split = %v/%v, want 300/700", b.DepositAmount, b.RemainingAmount)
	}
}

func TestDeriveBookingAmounts_MonthlyMinimumOneMonth(t *testing.T) {
	b := &model.Booking{
		GuestName:   "Ana",
		CheckIn:     date(2025, time.March, 1),
		CheckOut:    date(2025, time.March, 20),
		RentalType:  model.RentalTypeMonthly,
		MonthlyRate: floatPtr(3500),
	}

	if err := deriveBookingAmounts(b); err != nil {
		t.Fatalf("deriveBookingAmounts error: %v", err)
	}
	if b.Months != 1 {
		t.Fatalf("Months = %d, want 1", b.Months)
	}
	if b.TotalBRL != 3500 {
		t.Fatalf("TotalBRL = %v, want 3500", b.TotalBRL)
	}
}

func TestDeriveBookingAmounts_MonthlyCalendarMonths(t *testing.T) {
	b := &model.Booking{
		GuestName:   "Ana",
		CheckIn:     date(2025, time.January, 15),
		CheckOut:    date(2025, time.April, 10),
		RentalType:  model.RentalTypeMonthly,
		MonthlyRate: floatPtr(3000),
	}

	if err := deriveBookingAmounts(b); err != nil {
		t.Fatalf("deriveBookingAmounts error: %v", err)
	}
	if b.Months != 3 {
		t.Fatalf("Months = %d, want 3", b.Months)
	}
}

func TestDeriveBookingAmounts_Validation(t *testing.T) {
	tests := []struct {
		name    string
		booking model.Booking
	}{
		{
			name: "check-out before check-in",
			booking: model.Booking{
				GuestName:  "Ana",
				CheckIn:    date(2025, time.May, 10),
				CheckOut:   date(2025, time.May, 5),
				RentalType: model.RentalTypeDaily,
				DailyRate:  floatPtr(100),
			},
		},
		{
			name: "daily without rate",
			booking: model.Booking{
				GuestName:  "Ana",
				CheckIn:    date(2025, time.May, 1),
				CheckOut:   date(2025, time.May, 5),
				RentalType: model.RentalTypeDaily,
			},
		},
		{
			name: "unknown rental type",
			booking: model.Booking{
				GuestName:  "Ana",
				CheckIn:    date(2025, time.May, 1),
				CheckOut:   date(2025, time.May, 5),
				RentalType: "hourly",
				DailyRate:  floatPtr(100),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.booking
			if err := deriveBookingAmounts(&b); !errors.Is(err, ErrInvalidBooking) {
				t.Fatalf("expected ErrInvalidBooking, got %v", err)
			}
		})
	}
}

func TestCreateBooking_ConfirmedCreatesDeposit(t *testing.T) {
	repo := &stubRepo{createBookingID: 7}
	svc := NewService(repo, nil, nil)

	id, err := svc.CreateBooking(context.Background(), &model.Booking{
		GuestName:  "Pedro",
		CheckIn:    date(2025, time.June, 1),
		CheckOut:   date(2025, time.June, 6),
		RentalType: model.RentalTypeDaily,
		DailyRate:  floatPtr(150),
		Status:     model.BookingStatusConfirmed,
	})
	if err != nil {
		t.Fatalf("CreateBooking error: %v", err)
	}
	if id != 7 {
		t.Fatalf("id = %d, want 7", id)
	}
	if len(repo.createdIncomes) != 1 {
		t.Fatalf("incomes = %d, want 1", len(repo.createdIncomes))
	}

	income := repo.createdIncomes[0]
	if income.Category != model.IncomeCategoryDeposit {
		t.Fatalf("category = %s, want deposit", income.Category)
	}
	if income.AmountBRL != 225 {
		t.Fatalf("amount = %v, want 225", income.AmountBRL)
	}
	if income.Description != "Seña - Pedro" {
		t.Fatalf("description = %q", income.Description)
	}
	if !income.IsConfirmed {
		t.Fatalf("deposit income must be confirmed")
	}
}

func TestCreateBooking_CompletedCreatesBothIncomes(t *testing.T) {
	repo := &stubRepo{createBookingID: 3}
	svc := NewService(repo, nil, nil)

	_, err := svc.CreateBooking(context.Background(), &model.Booking{
		GuestName:  "Pedro",
		CheckIn:    date(2025, time.June, 1),
		CheckOut:   date(2025, time.June, 6),
		RentalType: model.RentalTypeDaily,
		DailyRate:  floatPtr(150),
		Status:     model.BookingStatusCompleted,
	})
	if err != nil {
		t.Fatalf("CreateBooking error: %v", err)
	}
	if len(repo.createdIncomes) != 2 {
		t.Fatalf("incomes = %d, want 2", len(repo.createdIncomes))
	}
	if repo.createdIncomes[0].Category != model.IncomeCategoryDeposit {
		t.Fatalf("first income = %s, want deposit", repo.createdIncomes[0].Category)
	}
	if repo.createdIncomes[1].Category != model.IncomeCategoryRental {
		t.Fatalf("second income = %s, want rental", repo.createdIncomes[1].Category)
	}
	if !repo.createdIncomes[1].Date.Equal(date(2025, time.June, 1)) {
		t.Fatalf("remaining income date = %v, want check-in date", repo.createdIncomes[1].Date)
	}
}

func TestCreateBooking_PendingCreatesNoIncomes(t *testing.T) {
	repo := &stubRepo{createBookingID: 1}
	svc := NewService(repo, nil, nil)

	_, err := svc.CreateBooking(context.Background(), &model.Booking{
		GuestName:  "Pedro",
		CheckIn:    date(2025, time.June, 1),
		CheckOut:   date(2025, time.June, 6),
		RentalType: model.RentalTypeDaily,
		DailyRate:  floatPtr(150),
	})
	if err != nil {
		t.Fatalf("CreateBooking error: %v", err)
	}
	if repo.createdBooking.Status != model.BookingStatusPending {
		t.Fatalf("status = %s, want pending", repo.createdBooking.Status)
	}
	if len(repo.createdIncomes) != 0 {
		t.Fatalf("incomes = %d, want 0", len(repo.createdIncomes))
	}
}

func TestCreateBooking_RejectsCancelled(t *testing.T) {
	svc := NewService(&stubRepo{}, nil, nil)

	_, err := svc.CreateBooking(context.Background(), &model.Booking{
		GuestName:  "Pedro",
		CheckIn:    date(2025, time.June, 1),
		CheckOut:   date(2025, time.June, 6),
		RentalType: model.RentalTypeDaily,
		DailyRate:  floatPtr(150),
		Status:     model.BookingStatusCancelled,
	})
	if !errors.Is(err, ErrInvalidBooking) {
		t.Fatalf("expected ErrInvalidBooking, got %v", err)
	}
}

func storedBooking(status model.BookingStatus) *model.Booking {
	return &model.Booking{
		ID:              5,
		GuestName:       "Lucia",
		CheckIn:         date(2025, time.July, 1),
		CheckOut:        date(2025, time.July, 11),
		RentalType:      model.RentalTypeDaily,
		DailyRate:       floatPtr(100),
		Nights:          10,
		TotalBRL:        1000,
		DepositAmount:   300,
		RemainingAmount: 700,
		Status:          status,
	}
}

func TestChangeBookingStatus_SameStatusNoOp(t *testing.T) {
	repo := &stubRepo{booking: storedBooking(model.BookingStatusConfirmed)}
	svc := NewService(repo, nil, nil)

	if err := svc.ChangeBookingStatus(context.Background(), 5, model.BookingStatusConfirmed); err != nil {
		t.Fatalf("same-status transition must succeed, got %v", err)
	}
	if repo.transitionID != 0 {
		t.Fatalf("repository must not be called for same-status transition")
	}
}

func TestChangeBookingStatus_InvalidTransition(t *testing.T) {
	tests := []struct {
		from model.BookingStatus
		to   model.BookingStatus
	}{
		{model.BookingStatusCompleted, model.BookingStatusPending},
		{model.BookingStatusCompleted, model.BookingStatusCancelled},
		{model.BookingStatusCancelled, model.BookingStatusConfirmed},
		{model.BookingStatusConfirmed, model.BookingStatusPending},
	}

	for _, tt := range tests {
		repo := &stubRepo{booking: storedBooking(tt.from)}
		svc := NewService(repo, nil, nil)

		err := svc.ChangeBookingStatus(context.Background(), 5, tt.to)
		if !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("%s -> %s: expected ErrInvalidTransition, got %v", tt.from, tt.to, err)
		}
	}
}

func TestChangeBookingStatus_PendingToConfirmed(t *testing.T) {
	repo := &stubRepo{booking: storedBooking(model.BookingStatusPending)}
	svc := NewService(repo, nil, nil)

	if err := svc.ChangeBookingStatus(context.Background(), 5, model.BookingStatusConfirmed); err != nil {
		t.Fatalf("ChangeBookingStatus error: %v", err)
	}

	eff := repo.transitionEff
	if len(eff.Create) != 1 || eff.Create[0].Category != model.IncomeCategoryDeposit {
		t.Fatalf("expected one deposit income, got %+v", eff.Create)
	}
	if !eff.CreateOnlyIfEmpty {
		t.Fatalf("pending->confirmed must be idempotent over existing incomes")
	}
	if eff.DeleteCategory != nil {
		t.Fatalf("unexpected delete category %v", *eff.DeleteCategory)
	}
	if repo.transitionFrom != model.BookingStatusPending || repo.transitionTo != model.BookingStatusConfirmed {
		t.Fatalf("transition %s -> %s recorded", repo.transitionFrom, repo.transitionTo)
	}
}

func TestChangeBookingStatus_PendingToCompleted(t *testing.T) {
	repo := &stubRepo{booking: storedBooking(model.BookingStatusPending)}
	svc := NewService(repo, nil, nil)

	if err := svc.ChangeBookingStatus(context.Background(), 5, model.BookingStatusCompleted); err != nil {
		t.Fatalf("ChangeBookingStatus error: %v", err)
	}

	eff := repo.transitionEff
	if len(eff.Create) != 2 {
		t.Fatalf("expected deposit and remaining incomes, got %+v", eff.Create)
	}
	if !eff.CreateOnlyIfEmpty {
		t.Fatalf("pending->completed must be idempotent over existing incomes")
	}
}

func TestChangeBookingStatus_ConfirmedToCompleted(t *testing.T) {
	repo := &stubRepo{booking: storedBooking(model.BookingStatusConfirmed)}
	svc := NewService(repo, nil, nil)

	if err := svc.ChangeBookingStatus(context.Background(), 5, model.BookingStatusCompleted); err != nil {
		t.Fatalf("ChangeBookingStatus error: %v", err)
	}

	eff := repo.transitionEff
	if len(eff.Create) != 1 || eff.Create[0].Category != model.IncomeCategoryRental {
		t.Fatalf("expected only remaining income, got %+v", eff.Create)
	}
	if eff.CreateOnlyIfEmpty {
		t.Fatalf("confirmed->completed must add remaining even when deposit exists")
	}
	if eff.Create[0].AmountBRL != 700 {
		t.Fatalf("remaining amount = %v, want 700", eff.Create[0].AmountBRL)
	}
}

func TestChangeBookingStatus_CancelKeepsDeposit(t *testing.T) {
	repo := &stubRepo{booking: storedBooking(model.BookingStatusConfirmed)}
	svc := NewService(repo, nil, nil)

	if err := svc.ChangeBookingStatus(context.Background(), 5, model.BookingStatusCancelled); err != nil {
		t.Fatalf("ChangeBookingStatus error: %v", err)
	}

	eff := repo.transitionEff
	if len(eff.Create) != 0 {
		t.Fatalf("cancel must not create incomes, got %+v", eff.Create)
	}
	if eff.DeleteCategory == nil || *eff.DeleteCategory != model.IncomeCategoryRental {
		t.Fatalf("cancel must delete only rental incomes, got %v", eff.DeleteCategory)
	}
}

func TestUpdateBooking_KeepsStatusAndRederives(t *testing.T) {
	repo := &stubRepo{booking: storedBooking(model.BookingStatusConfirmed)}
	svc := NewService(repo, nil, nil)

	err := svc.UpdateBooking(context.Background(), &model.Booking{
		ID:         5,
		GuestName:  "Lucia",
		CheckIn:    date(2025, time.July, 1),
		CheckOut:   date(2025, time.July, 4),
		RentalType: model.RentalTypeDaily,
		DailyRate:  floatPtr(100),
		Status:     model.BookingStatusCompleted, // клиентский статус игнорируется
	})
	if err != nil {
		t.Fatalf("UpdateBooking error: %v", err)
	}
	if repo.updatedBooking.Status != model.BookingStatusConfirmed {
		t.Fatalf("status = %s, want confirmed", repo.updatedBooking.Status)
	}
	if repo.updatedBooking.TotalBRL != 300 {
		t.Fatalf("TotalBRL = %v, want 300", repo.updatedBooking.TotalBRL)
	}
}

func TestBookingLabel_FallsBackToCheckInDate(t *testing.T) {
	b := &model.Booking{CheckIn: date(2025, time.August, 5)}
	if got := bookingLabel(b); got != "05/08" {
		t.Fatalf("bookingLabel = %q, want 05/08", got)
	}
}
