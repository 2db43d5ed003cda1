// Package money содержит общие утилиты денежных расчётов сервиса rentadash.
// Все суммы хранятся в БД в центаво, округление выполняется через decimal,
// чтобы исключить накопление ошибок плавающей точки.
package money

import "github.com/shopspring/decimal"

// DepositShare — доля предоплаты от полной стоимости бронирования.
var DepositShare = decimal.NewFromFloat(0.30)

// Round2 округляет сумму до двух знаков после запятой.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Total вычисляет полную стоимость бронирования как ставка × количество единиц.
func Total(rate float64, units int) float64 {
	return decimal.NewFromFloat(rate).
		Mul(decimal.NewFromInt(int64(units))).
		Round(2).
		InexactFloat64()
}

// Split делит полную стоимость на предоплату (30%) и остаток (70%).
// Остаток считается как разность, поэтому предоплата и остаток всегда
// в сумме дают округлённую полную стоимость.
func Split(total float64) (deposit, remaining float64) {
	t := decimal.NewFromFloat(total).Round(2)
	d := t.Mul(DepositShare).Round(2)
	return d.InexactFloat64(), t.Sub(d).InexactFloat64()
}

// ToCents переводит сумму в центаво для хранения в БД.
func ToCents(v float64) int64 {
	return decimal.NewFromFloat(v).Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromCents переводит сумму из центаво в значение с двумя знаками.
func FromCents(c int64) float64 {
	return float64(c) / 100
}
