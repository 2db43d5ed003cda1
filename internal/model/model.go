// Package model содержит доменные сущности сервиса rentadash.
package model

import "time"

// User представляет администратора, которому разрешён доступ к данным объекта.
type User struct {
	ID           int64
	Login        string
	PasswordHash []byte
	CreatedAt    time.Time
}

// BookingStatus описывает статус жизненного цикла бронирования.
type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// RentalType описывает способ расчёта стоимости проживания.
type RentalType string

const (
	RentalTypeDaily   RentalType = "daily"
	RentalTypeMonthly RentalType = "monthly"
)

// Platform описывает площадку, через которую пришло бронирование.
type Platform string

const (
	PlatformAirbnb  Platform = "airbnb"
	PlatformBooking Platform = "booking"
	PlatformDirect  Platform = "direct"
	PlatformOther   Platform = "other"
)

// Booking описывает бронирование квартиры и зафиксированные при сохранении суммы.
// DepositAmount и RemainingAmount вычисляются один раз при сохранении и дальше
// не пересчитываются, чтобы правки ставок или дат не переписывали историю доходов.
type Booking struct {
	ID              int64
	GuestName       string
	CheckIn         time.Time
	CheckOut        time.Time
	RentalType      RentalType
	DailyRate       *float64
	MonthlyRate     *float64
	Nights          int
	Months          int
	TotalBRL        float64
	DepositAmount   float64
	RemainingAmount float64
	Platform        Platform
	Status          BookingStatus
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// IncomeCategory описывает категорию записи в журнале доходов.
type IncomeCategory string

const (
	IncomeCategoryRental  IncomeCategory = "rental"
	IncomeCategoryDeposit IncomeCategory = "deposit"
	IncomeCategoryOther   IncomeCategory = "other"
)

// Income описывает запись журнала доходов. BookingID связывает запись с
// бронированием: при удалении бронирования связанные записи удаляются вместе с ним.
type Income struct {
	ID          int64
	BookingID   *int64
	Date        time.Time
	AmountBRL   float64
	Category    IncomeCategory
	Description string
	IsConfirmed bool
	CreatedAt   time.Time
}

// ExpenseCategory описывает категорию расхода по объекту.
type ExpenseCategory string

const (
	ExpenseCategoryIPTU       ExpenseCategory = "iptu"
	ExpenseCategoryAmbiental  ExpenseCategory = "ambiental"
	ExpenseCategoryCondominio ExpenseCategory = "condominio"
	ExpenseCategoryInternet   ExpenseCategory = "internet"
	ExpenseCategoryCelesc     ExpenseCategory = "celesc"
	ExpenseCategoryReparacion ExpenseCategory = "reparacion"
	ExpenseCategoryLimpieza   ExpenseCategory = "limpieza"
	ExpenseCategoryComision   ExpenseCategory = "comision"
	ExpenseCategoryOther      ExpenseCategory = "other"
)

// Expense описывает фактический расход. Суммы фиксируются на момент оплаты
// и не пересчитываются при изменении текущего курса.
type Expense struct {
	ID           int64
	Date         time.Time
	AmountBRL    float64
	Category     ExpenseCategory
	Description  string
	IsPaid       bool
	DueDate      *time.Time
	IsRecurring  bool
	RecurringDay *int
	CreatedAt    time.Time
}

// ProjectedPriority описывает приоритет планируемой покупки.
type ProjectedPriority string

const (
	ProjectedPriorityHigh   ProjectedPriority = "alta"
	ProjectedPriorityMedium ProjectedPriority = "media"
	ProjectedPriorityLow    ProjectedPriority = "baja"
)

// ProjectedExpense описывает планируемый расход с оценкой в USDT,
// зафиксированной на момент создания записи.
type ProjectedExpense struct {
	ID                  int64
	Description         string
	EstimatedAmountUSDT float64
	Category            string
	Priority            ProjectedPriority
	IsPurchased         bool
	CreatedAt           time.Time
}
