// Package service реализует бизнес-логику сервиса rentadash.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/akulagin/rentadash-system/internal/model"
	"github.com/akulagin/rentadash-system/internal/rates"
	"github.com/akulagin/rentadash-system/internal/repository"
)

// ErrLoginNotAllowed возвращается при попытке регистрации логина вне списка разрешённых.
var (
	ErrLoginNotAllowed = errors.New("login is not in the allow list")
	// ErrInvalidTransition возвращается при недопустимом переходе статуса бронирования.
	ErrInvalidTransition = errors.New("invalid booking status transition")
	// ErrInvalidBooking возвращается при некорректных данных бронирования.
	ErrInvalidBooking = errors.New("invalid booking data")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateUser(ctx context.Context, login string, passwordHash []byte) (int64, error)
	GetUserByLogin(ctx context.Context, login string) (*model.User, error)

	CreateBooking(ctx context.Context, b *model.Booking, incomes []model.Income) (int64, error)
	GetBookingByID(ctx context.Context, id int64) (*model.Booking, error)
	ListBookings(ctx context.Context) ([]model.Booking, error)
	UpdateBooking(ctx context.Context, b *model.Booking) error
	TransitionBooking(ctx context.Context, id int64, from, to model.BookingStatus, eff repository.TransitionEffects) error
	DeleteBooking(ctx context.Context, id int64) error

	CreateIncome(ctx context.Context, income model.Income) (int64, error)
	ListIncomes(ctx context.Context, filter repository.IncomeFilter) ([]model.Income, error)
	UpdateIncome(ctx context.Context, income model.Income) error
	ConfirmIncome(ctx context.Context, id int64) error
	DeleteIncome(ctx context.Context, id int64) error

	CreateExpense(ctx context.Context, expense model.Expense) (int64, error)
	ListExpenses(ctx context.Context) ([]model.Expense, error)
	UpdateExpense(ctx context.Context, expense model.Expense) error
	DeleteExpense(ctx context.Context, id int64) error

	CreateProjectedExpense(ctx context.Context, p model.ProjectedExpense) (int64, error)
	ListProjectedExpenses(ctx context.Context) ([]model.ProjectedExpense, error)
	UpdateProjectedExpense(ctx context.Context, p model.ProjectedExpense) error
	MarkProjectedPurchased(ctx context.Context, id int64) error
	DeleteProjectedExpense(ctx context.Context, id int64) error
}

// RateEngine описывает контракт движка курсов, используемый сервисом.
type RateEngine interface {
	Snapshot() rates.Snapshot
	Reconnect()
}

// Service содержит бизнес-логику сервиса rentadash.
type Service struct {
	repo          Repository
	engine        RateEngine
	allowedLogins map[string]struct{}
}

// NewService создаёт новый сервис с указанным репозиторием, движком курсов
// и списком логинов, которым разрешена регистрация.
func NewService(repo Repository, engine RateEngine, allowedLogins []string) *Service {
	allowed := make(map[string]struct{}, len(allowedLogins))
	for _, login := range allowedLogins {
		allowed[login] = struct{}{}
	}

	return &Service{
		repo:          repo,
		engine:        engine,
		allowedLogins: allowed,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterUser регистрирует нового пользователя. Регистрация доступна
// только логинам из списка разрешённых.
func (s *Service) RegisterUser(ctx context.Context, login, password string) (int64, error) {
	if _, ok := s.allowedLogins[login]; !ok {
		return 0, ErrLoginNotAllowed
	}

	hashed := hashPassword(login, password)
	id, err := s.repo.CreateUser(ctx, login, hashed)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return 0, repository.ErrUserExists
		}
		return 0, err
	}
	return id, nil
}

// AuthenticateUser проверяет логин и пароль пользователя и возвращает его идентификатор.
func (s *Service) AuthenticateUser(ctx context.Context, login, password string) (int64, error) {
	u, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		return 0, err
	}

	hashed := hashPassword(login, password)
	if hex.EncodeToString(hashed) != hex.EncodeToString(u.PasswordHash) {
		return 0, errors.New("invalid credentials")
	}

	return u.ID, nil
}

func hashPassword(login, password string) []byte {
	sum := sha256.Sum256([]byte(login + ":" + password))
	return sum[:]
}

// GetRates возвращает последний опубликованный снимок курсов.
// Отсутствие курсов — валидное состояние "данных ещё нет", а не ошибка.
func (s *Service) GetRates() rates.Snapshot {
	if s.engine == nil {
		return rates.Snapshot{}
	}
	return s.engine.Snapshot()
}

// ReconnectRates запрашивает переподключение к источнику котировок.
func (s *Service) ReconnectRates() {
	if s.engine != nil {
		s.engine.Reconnect()
	}
}

// CreateIncome создаёт запись дохода, введённую вручную.
func (s *Service) CreateIncome(ctx context.Context, income model.Income) (int64, error) {
	return s.repo.CreateIncome(ctx, income)
}

// ListIncomes возвращает записи журнала доходов по фильтру.
func (s *Service) ListIncomes(ctx context.Context, filter repository.IncomeFilter) ([]model.Income, error) {
	return s.repo.ListIncomes(ctx, filter)
}

// UpdateIncome сохраняет изменённую запись дохода.
func (s *Service) UpdateIncome(ctx context.Context, income model.Income) error {
	return s.repo.UpdateIncome(ctx, income)
}

// ConfirmIncome помечает запись дохода как подтверждённую.
func (s *Service) ConfirmIncome(ctx context.Context, id int64) error {
	return s.repo.ConfirmIncome(ctx, id)
}

// DeleteIncome удаляет запись дохода.
func (s *Service) DeleteIncome(ctx context.Context, id int64) error {
	return s.repo.DeleteIncome(ctx, id)
}

// CreateExpense создаёт запись расхода.
func (s *Service) CreateExpense(ctx context.Context, expense model.Expense) (int64, error) {
	return s.repo.CreateExpense(ctx, expense)
}

// ListExpenses возвращает все записи расходов.
func (s *Service) ListExpenses(ctx context.Context) ([]model.Expense, error) {
	return s.repo.ListExpenses(ctx)
}

// UpdateExpense сохраняет изменённую запись расхода.
func (s *Service) UpdateExpense(ctx context.Context, expense model.Expense) error {
	return s.repo.UpdateExpense(ctx, expense)
}

// DeleteExpense удаляет запись расхода.
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	return s.repo.DeleteExpense(ctx, id)
}

// CreateProjectedExpense создаёт планируемый расход.
func (s *Service) CreateProjectedExpense(ctx context.Context, p model.ProjectedExpense) (int64, error) {
	return s.repo.CreateProjectedExpense(ctx, p)
}

// ListProjectedExpenses возвращает все планируемые расходы.
func (s *Service) ListProjectedExpenses(ctx context.Context) ([]model.ProjectedExpense, error) {
	return s.repo.ListProjectedExpenses(ctx)
}

// UpdateProjectedExpense сохраняет изменённый планируемый расход.
func (s *Service) UpdateProjectedExpense(ctx context.Context, p model.ProjectedExpense) error {
	return s.repo.UpdateProjectedExpense(ctx, p)
}

// MarkProjectedPurchased помечает планируемый расход как купленный.
func (s *Service) MarkProjectedPurchased(ctx context.Context, id int64) error {
	return s.repo.MarkProjectedPurchased(ctx, id)
}

// DeleteProjectedExpense удаляет планируемый расход.
func (s *Service) DeleteProjectedExpense(ctx context.Context, id int64) error {
	return s.repo.DeleteProjectedExpense(ctx, id)
}
