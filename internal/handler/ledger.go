package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/akulagin/rentadash-system/internal/model"
	"github.com/akulagin/rentadash-system/internal/repository"
	"github.com/akulagin/rentadash-system/internal/validation"
)

type incomeRequest struct {
	BookingID   *int64  `json:"booking_id,omitempty"`
	Date        string  `json:"date"`
	AmountBRL   float64 `json:"amount_brl"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	IsConfirmed bool    `json:"is_confirmed"`
}

type incomeResponse struct {
	ID          int64   `json:"id"`
	BookingID   *int64  `json:"booking_id,omitempty"`
	Date        string  `json:"date"`
	AmountBRL   float64 `json:"amount_brl"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	IsConfirmed bool    `json:"is_confirmed"`
	CreatedAt   string  `json:"created_at"`
}

func (req *incomeRequest) toModel() (model.Income, error) {
	var date time.Time
	if req.Date != "" {
		parsed, err := time.Parse(dateLayout, req.Date)
		if err != nil {
			return model.Income{}, err
		}
		date = parsed
	}

	return model.Income{
		BookingID:   req.BookingID,
		Date:        date,
		AmountBRL:   req.AmountBRL,
		Category:    model.IncomeCategory(req.Category),
		Description: req.Description,
		IsConfirmed: req.IsConfirmed,
	}, nil
}

func incomeToResponse(i model.Income) incomeResponse {
	return incomeResponse{
		ID:          i.ID,
		BookingID:   i.BookingID,
		Date:        i.Date.Format(dateLayout),
		AmountBRL:   i.AmountBRL,
		Category:    string(i.Category),
		Description: i.Description,
		IsConfirmed: i.IsConfirmed,
		CreatedAt:   i.CreatedAt.Format(time.RFC3339),
	}
}

// CreateIncome создаёт запись дохода, введённую вручную.
func (h *Handler) CreateIncome(w http.ResponseWriter, r *http.Request) {
	var req incomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.AmountBRL <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	income, err := req.toModel()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := h.service.CreateIncome(r.Context(), income)
	if err != nil {
		h.logger.Error("create income error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	income.ID = id
	if income.Date.IsZero() {
		income.Date = time.Now()
	}
	h.writeJSON(w, http.StatusCreated, incomeToResponse(income))
}

// ListIncomes возвращает записи журнала доходов с учётом фильтров запроса.
func (h *Handler) ListIncomes(w http.ResponseWriter, r *http.Request) {
	var filter repository.IncomeFilter

	if v := r.URL.Query().Get("booking_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		filter.BookingID = &id
	}
	if v := r.URL.Query().Get("unconfirmed"); v == "true" || v == "1" {
		filter.OnlyUnconfirmed = true
	}

	incomes, err := h.service.ListIncomes(r.Context(), filter)
	if err != nil {
		h.logger.Error("list incomes error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]incomeResponse, 0, len(incomes))
	for _, i := range incomes {
		resp = append(resp, incomeToResponse(i))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// UpdateIncome сохраняет изменённую запись дохода.
func (h *Handler) UpdateIncome(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req incomeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	income, err := req.toModel()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	income.ID = id

	if err := h.service.UpdateIncome(r.Context(), income); err != nil {
		if errors.Is(err, repository.ErrIncomeNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("update income error", zap.Error(err), zap.Int64("incomeID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, incomeToResponse(income))
}

// ConfirmIncome помечает запись дохода как подтверждённую.
func (h *Handler) ConfirmIncome(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.ConfirmIncome(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrIncomeNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("confirm income error", zap.Error(err), zap.Int64("incomeID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// DeleteIncome удаляет запись дохода.
func (h *Handler) DeleteIncome(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteIncome(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrIncomeNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("delete income error", zap.Error(err), zap.Int64("incomeID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type expenseRequest struct {
	Date         string  `json:"date"`
	AmountBRL    float64 `json:"amount_brl"`
	Category     string  `json:"category"`
	Description  string  `json:"description"`
	IsPaid       bool    `json:"is_paid"`
	DueDate      *string `json:"due_date,omitempty"`
	IsRecurring  bool    `json:"is_recurring"`
	RecurringDay *int    `json:"recurring_day,omitempty"`
}

type expenseResponse struct {
	ID           int64   `json:"id"`
	Date         string  `json:"date"`
	AmountBRL    float64 `json:"amount_brl"`
	Category     string  `json:"category"`
	Description  string  `json:"description"`
	IsPaid       bool    `json:"is_paid"`
	DueDate      *string `json:"due_date,omitempty"`
	IsRecurring  bool    `json:"is_recurring"`
	RecurringDay *int    `json:"recurring_day,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

func (req *expenseRequest) toModel() (model.Expense, error) {
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return model.Expense{}, err
	}

	expense := model.Expense{
		Date:         date,
		AmountBRL:    req.AmountBRL,
		Category:     model.ExpenseCategory(req.Category),
		Description:  req.Description,
		IsPaid:       req.IsPaid,
		IsRecurring:  req.IsRecurring,
		RecurringDay: req.RecurringDay,
	}
	if req.DueDate != nil {
		due, err := time.Parse(dateLayout, *req.DueDate)
		if err != nil {
			return model.Expense{}, err
		}
		expense.DueDate = &due
	}
	return expense, nil
}

func expenseToResponse(e model.Expense) expenseResponse {
	resp := expenseResponse{
		ID:           e.ID,
		Date:         e.Date.Format(dateLayout),
		AmountBRL:    e.AmountBRL,
		Category:     string(e.Category),
		Description:  e.Description,
		IsPaid:       e.IsPaid,
		IsRecurring:  e.IsRecurring,
		RecurringDay: e.RecurringDay,
		CreatedAt:    e.CreatedAt.Format(time.RFC3339),
	}
	if e.DueDate != nil {
		formatted := e.DueDate.Format(dateLayout)
		resp.DueDate = &formatted
	}
	return resp
}

// CreateExpense создаёт запись расхода.
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.AmountBRL <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.RecurringDay != nil && !validation.IsValidRecurringDay(*req.RecurringDay) {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	expense, err := req.toModel()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := h.service.CreateExpense(r.Context(), expense)
	if err != nil {
		h.logger.Error("create expense error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	expense.ID = id
	h.writeJSON(w, http.StatusCreated, expenseToResponse(expense))
}

// ListExpenses возвращает все записи расходов.
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := h.service.ListExpenses(r.Context())
	if err != nil {
		h.logger.Error("list expenses error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		resp = append(resp, expenseToResponse(e))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// UpdateExpense сохраняет изменённую запись расхода.
func (h *Handler) UpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.RecurringDay != nil && !validation.IsValidRecurringDay(*req.RecurringDay) {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}

	expense, err := req.toModel()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	expense.ID = id

	if err := h.service.UpdateExpense(r.Context(), expense); err != nil {
		if errors.Is(err, repository.ErrExpenseNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("update expense error", zap.Error(err), zap.Int64("expenseID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, expenseToResponse(expense))
}

// DeleteExpense удаляет запись расхода.
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteExpense(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrExpenseNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("delete expense error", zap.Error(err), zap.Int64("expenseID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type projectedRequest struct {
	Description         string  `json:"description"`
	EstimatedAmountUSDT float64 `json:"estimated_amount_usdt"`
	Category            string  `json:"category"`
	Priority            string  `json:"priority"`
}

type projectedResponse struct {
	ID                  int64   `json:"id"`
	Description         string  `json:"description"`
	EstimatedAmountUSDT float64 `json:"estimated_amount_usdt"`
	Category            string  `json:"category"`
	Priority            string  `json:"priority"`
	IsPurchased         bool    `json:"is_purchased"`
	CreatedAt           string  `json:"created_at"`
}

func projectedToResponse(p model.ProjectedExpense) projectedResponse {
	return projectedResponse{
		ID:                  p.ID,
		Description:         p.Description,
		EstimatedAmountUSDT: p.EstimatedAmountUSDT,
		Category:            p.Category,
		Priority:            string(p.Priority),
		IsPurchased:         p.IsPurchased,
		CreatedAt:           p.CreatedAt.Format(time.RFC3339),
	}
}

// CreateProjectedExpense создаёт планируемый расход.
func (h *Handler) CreateProjectedExpense(w http.ResponseWriter, r *http.Request) {
	var req projectedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.Description == "" || req.EstimatedAmountUSDT <= 0 {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	p := model.ProjectedExpense{
		Description:         req.Description,
		EstimatedAmountUSDT: req.EstimatedAmountUSDT,
		Category:            req.Category,
		Priority:            model.ProjectedPriority(req.Priority),
	}

	id, err := h.service.CreateProjectedExpense(r.Context(), p)
	if err != nil {
		h.logger.Error("create projected expense error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	p.ID = id
	h.writeJSON(w, http.StatusCreated, projectedToResponse(p))
}

// ListProjectedExpenses возвращает все планируемые расходы.
func (h *Handler) ListProjectedExpenses(w http.ResponseWriter, r *http.Request) {
	projected, err := h.service.ListProjectedExpenses(r.Context())
	if err != nil {
		h.logger.Error("list projected expenses error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := make([]projectedResponse, 0, len(projected))
	for _, p := range projected {
		resp = append(resp, projectedToResponse(p))
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// UpdateProjectedExpense сохраняет изменённый планируемый расход.
func (h *Handler) UpdateProjectedExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	var req projectedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	p := model.ProjectedExpense{
		ID:                  id,
		Description:         req.Description,
		EstimatedAmountUSDT: req.EstimatedAmountUSDT,
		Category:            req.Category,
		Priority:            model.ProjectedPriority(req.Priority),
	}

	if err := h.service.UpdateProjectedExpense(r.Context(), p); err != nil {
		if errors.Is(err, repository.ErrProjectedNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("update projected expense error", zap.Error(err), zap.Int64("projectedID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, projectedToResponse(p))
}

// MarkProjectedPurchased помечает планируемый расход как купленный.
func (h *Handler) MarkProjectedPurchased(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.MarkProjectedPurchased(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProjectedNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("mark projected purchased error", zap.Error(err), zap.Int64("projectedID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// DeleteProjectedExpense удаляет планируемый расход.
func (h *Handler) DeleteProjectedExpense(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if err := h.service.DeleteProjectedExpense(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProjectedNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("delete projected expense error", zap.Error(err), zap.Int64("projectedID", id))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
