package handler

import (
	"net/http"

	custommiddleware "github.com/akulagin/rentadash-system/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса rentadash.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/api", func(r chi.Router) {
		r.Post("/user/register", h.Register)
		r.Post("/user/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/rates", h.GetRates)
			r.Post("/rates/reconnect", h.ReconnectRates)

			r.Route("/bookings", func(r chi.Router) {
				r.Post("/", h.CreateBooking)
				r.Get("/", h.ListBookings)
				r.Get("/{id}", h.GetBooking)
				r.Put("/{id}", h.UpdateBooking)
				r.Delete("/{id}", h.DeleteBooking)
				r.Post("/{id}/status", h.ChangeBookingStatus)
			})

			r.Route("/incomes", func(r chi.Router) {
				r.Post("/", h.CreateIncome)
				r.Get("/", h.ListIncomes)
				r.Put("/{id}", h.UpdateIncome)
				r.Delete("/{id}", h.DeleteIncome)
				r.Post("/{id}/confirm", h.ConfirmIncome)
			})

			r.Route("/expenses", func(r chi.Router) {
				r.Post("/", h.CreateExpense)
				r.Get("/", h.ListExpenses)
				r.Put("/{id}", h.UpdateExpense)
				r.Delete("/{id}", h.DeleteExpense)
			})

			r.Route("/projected", func(r chi.Router) {
				r.Post("/", h.CreateProjectedExpense)
				r.Get("/", h.ListProjectedExpenses)
				r.Put("/{id}", h.UpdateProjectedExpense)
				r.Delete("/{id}", h.DeleteProjectedExpense)
				r.Post("/{id}/purchased", h.MarkProjectedPurchased)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
