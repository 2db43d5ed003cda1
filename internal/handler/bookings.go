package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/akulagin/rentadash-system/internal/model"
	"github.com/akulagin/rentadash-system/internal/repository"
	"github.com/akulagin/rentadash-system/internal/service"
)

const dateLayout = "2006-01-02"

type bookingRequest struct {
	GuestName   string   `json:"guest_name"`
	CheckIn     string   `json:"check_in"`
	CheckOut    string   `json:"check_out"`
	RentalType  string   `json:"rental_type"`
	DailyRate   *float64 `json:"daily_rate,omitempty"`
	MonthlyRate *float64 `json:"monthly_rate,omitempty"`
	Platform    string   `json:"platform"`
	Status      string   `json:"status,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

type bookingResponse struct {
	ID              int64    `json:"id"`
	GuestName       string   `json:"guest_name"`
	CheckIn         string   `json:"check_in"`
	CheckOut        string   `json:"check_out"`
	RentalType      string   `json:"rental_type"`
	DailyRate       *float64 `json:"daily_rate,omitempty"`
	MonthlyRate     *float64 `json:"monthly_rate,omitempty"`
	Nights          int      `json:"nights"`
	Months          int      `json:"months"`
	TotalBRL        float64  `json:"total_brl"`
	DepositAmount   float64  `json:"deposit_amount"`
	RemainingAmount float64  `json:"remaining_amount"`
	Platform        string   `json:"platform"`
	Status          string   `json:"status"`
	Notes           string   `json:"notes,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       *string  `json:"updated_at,omitempty"`
}

func (req *bookingRequest) toModel() (*model.Booking, error) {
	checkIn, err := time.Parse(dateLayout, req.CheckIn)
	if err != nil {
		return nil, err
	}
	checkOut, err := time.Parse(dateLayout, req.CheckOut)
	if err != nil {
		return nil, err
	}

	return &model.Booking{
		GuestName:   req.GuestName,
		CheckIn:     checkIn,
		CheckOut:    checkOut,
		RentalType:  model.RentalType(req.RentalType),
		DailyRate:   req.DailyRate,
		MonthlyRate: req.MonthlyRate,
		Platform:    model.Platform(req.Platform),
		Status:      model.BookingStatus(req.Status),
		Notes:       req.Notes,
	}, nil
}

func bookingToResponse(b *model.Booking) bookingResponse {
	resp := bookingResponse{
		ID:              b.ID,
		GuestName:       b.GuestName,
		CheckIn:         b.CheckIn.Format(dateLayout),
		CheckOut:        b.CheckOut.Format(dateLayout),
		RentalType:      string(b.RentalType),
		DailyRate:       b.DailyRate,
		MonthlyRate:     b.MonthlyRate,
		Nights:          b.Nights,
		Months:          b.Months,
		TotalBRL:        b.TotalBRL,
		DepositAmount:   b.DepositAmount,
		RemainingAmount: b.RemainingAmount,
		Platform:        string(b.Platform),
		Status:          string(b.Status),
		Notes:           b.Notes,
		CreatedAt:       b.CreatedAt.Format(time.RFC3339),
	}
	if b.UpdatedAt != nil {
		formatted := b.UpdatedAt.Format(time.RFC3339)
		resp.UpdatedAt = &formatted
	}
	return resp
}

func idParam(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// CreateBooking создаёт бронирование и связанные с его статусом доходы.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	b, err := req.toModel()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := h.service.CreateBooking(r.Context(), b)
	if err != nil {
		if errors.Is(err, service.ErrInvalidBooking) {
			http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
			return
		}
		h.logger.Error("create booking error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	b.ID = id
	h.writeJSON(w, http.StatusCreated, bookingToResponse(b))
}

// ListBookings возвращает все бронирования.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	bookings, err := h.service.ListBookings(r.Context())
	if err != nil {
		h.logger.Error("list bookings error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]bookingResponse, 0, len(bookings))
	for i := range bookings {
		resp = append(resp, bookingToResponse(&bookings[i]))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// GetBooking возвращает бронирование по идентификатору.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	b, err := h.service.GetBooking(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get booking error", zap.Error(err), zap.Int64("bookingID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, bookingToResponse(b))
}

// UpdateBooking пересчитывает суммы и сохраняет бронирование. Статус
// через этот маршрут не меняется.
func (h *Handler) UpdateBooking(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req bookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	b, err := req.toModel()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	b.ID = id

	if err := h.service.UpdateBooking(r.Context(), b); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, service.ErrInvalidBooking):
			http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		default:
			h.logger.Error("update booking error", zap.Error(err), zap.Int64("bookingID", id))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, bookingToResponse(b))
}

type statusRequest struct {
	Status string `json:"status"`
}

// ChangeBookingStatus переводит бронирование в новый статус и согласует
// журнал доходов с переходом.
func (h *Handler) ChangeBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req statusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Status == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	err = h.service.ChangeBookingStatus(r.Context(), id, model.BookingStatus(req.Status))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, repository.ErrStatusChanged):
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
		default:
			h.logger.Error("change booking status error", zap.Error(err), zap.Int64("bookingID", id), zap.String("status", req.Status))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

// DeleteBooking удаляет бронирование вместе со связанными доходами.
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteBooking(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrBookingNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("delete booking error", zap.Error(err), zap.Int64("bookingID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
