// Package handler содержит HTTP-обработчики API сервиса rentadash.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/akulagin/rentadash-system/internal/middleware"
	"github.com/akulagin/rentadash-system/internal/model"
	"github.com/akulagin/rentadash-system/internal/rates"
	"github.com/akulagin/rentadash-system/internal/repository"
	"github.com/akulagin/rentadash-system/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterUser(ctx context.Context, login, password string) (int64, error)
	AuthenticateUser(ctx context.Context, login, password string) (int64, error)

	GetRates() rates.Snapshot
	ReconnectRates()

	CreateBooking(ctx context.Context, b *model.Booking) (int64, error)
	GetBooking(ctx context.Context, id int64) (*model.Booking, error)
	ListBookings(ctx context.Context) ([]model.Booking, error)
	UpdateBooking(ctx context.Context, b *model.Booking) error
	ChangeBookingStatus(ctx context.Context, id int64, to model.BookingStatus) error
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

// Handler реализует HTTP-обработчики API сервиса rentadash.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Register обрабатывает регистрацию нового пользователя.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	userID, err := h.service.RegisterUser(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
		if errors.Is(err, service.ErrLoginNotAllowed) {
			http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
			return
		}
		h.logger.Error("register user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, userID)
	w.WriteHeader(http.StatusOK)
}

// Login выполняет аутентификацию пользователя и установку cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	userID, err := h.service.AuthenticateUser(r.Context(), req.Login, req.Password)
	if err != nil {
		if err == repository.ErrUserNotFound || err.Error() == "invalid credentials" {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login user error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, userID)
	w.WriteHeader(http.StatusOK)
}

type ratesResponse struct {
	Rates       *rates.DerivedRates `json:"rates"`
	Changes     rates.Change        `json:"changes"`
	Connected   bool                `json:"connected"`
	LastUpdated *string             `json:"last_updated"`
}

// GetRates возвращает последний опубликованный снимок курсов.
// Пока котировки не получены, rates равен null, это не ошибка.
func (h *Handler) GetRates(w http.ResponseWriter, r *http.Request) {
	snap := h.service.GetRates()

	resp := ratesResponse{
		Rates:     snap.Rates,
		Changes:   snap.Changes,
		Connected: snap.Connected,
	}
	if snap.LastUpdated != nil {
		formatted := snap.LastUpdated.Format(time.RFC3339)
		resp.LastUpdated = &formatted
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
}

// ReconnectRates запрашивает переподключение к источнику котировок.
func (h *Handler) ReconnectRates(w http.ResponseWriter, r *http.Request) {
	h.service.ReconnectRates()
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("write response error", zap.Error(err))
	}
}
