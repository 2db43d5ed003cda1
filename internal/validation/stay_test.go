package validation

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestIsValidStay(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		valid    bool
	}{
		{
			name:     "normal stay",
			checkIn:  date(2024, time.January, 10),
			checkOut: date(2024, time.January, 15),
			valid:    true,
		},
		{
			name:     "single night",
			checkIn:  date(2024, time.January, 10),
			checkOut: date(2024, time.January, 11),
			valid:    true,
		},
		{
			name:     "check-out before check-in",
			checkIn:  date(2024, time.January, 15),
			checkOut: date(2024, time.January, 10),
			valid:    false,
		},
		{
			name:     "same day",
			checkIn:  date(2024, time.January, 10),
			checkOut: date(2024, time.January, 10),
			valid:    false,
		},
		{
			name:     "zero check-in",
			checkOut: date(2024, time.January, 10),
			valid:    false,
		},
		{
			name:    "zero check-out",
			checkIn: date(2024, time.January, 10),
			valid:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IsValidStay(tt.checkIn, tt.checkOut)
			if got != tt.valid {
				t.Fatalf("IsValidStay(%v, %v) = %v, want %v", tt.checkIn, tt.checkOut, got, tt.valid)
			}
		})
	}
}

func TestIsValidRecurringDay(t *testing.T) {
	valid := []int{1, 15, 31}
	invalid := []int{0, -1, 32}

	for _, day := range valid {
		if !IsValidRecurringDay(day) {
			t.Fatalf("IsValidRecurringDay(%d) = false, want true", day)
		}
	}
	for _, day := range invalid {
		if IsValidRecurringDay(day) {
			t.Fatalf("IsValidRecurringDay(%d) = true, want false", day)
		}
	}
}
