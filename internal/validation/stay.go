// Package validation содержит функции валидации входных данных.
package validation

import "time"

// IsValidStay проверяет корректность интервала проживания [checkIn, checkOut):
// обе даты заданы и выезд строго позже заезда.
func IsValidStay(checkIn, checkOut time.Time) bool {
	if checkIn.IsZero() || checkOut.IsZero() {
		return false
	}
	return checkOut.After(checkIn)
}

// IsValidRecurringDay проверяет день месяца для повторяющегося расхода.
func IsValidRecurringDay(day int) bool {
	return day >= 1 && day <= 31
}
