package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/akulagin/rentadash-system/internal/model"
	"github.com/akulagin/rentadash-system/internal/money"
)

// IncomeFilter задаёт условия выборки записей журнала доходов.
type IncomeFilter struct {
	BookingID       *int64
	OnlyUnconfirmed bool
}

// CreateIncome создаёт запись дохода, не связанную с переходом бронирования
// (ручной ввод, категория other и т.п.).
func (r *PostgresRepository) CreateIncome(ctx context.Context, income model.Income) (int64, error) {
	date := income.Date
	if date.IsZero() {
		date = time.Now()
	}

	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO incomes (booking_id, date, amount_cents, category, description, is_confirmed)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		income.BookingID, date, money.ToCents(income.AmountBRL),
		string(income.Category), income.Description, income.IsConfirmed,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert income: %w", err)
	}
	return id, nil
}

// ListIncomes возвращает записи доходов по фильтру, новые даты первыми.
func (r *PostgresRepository) ListIncomes(ctx context.Context, filter IncomeFilter) ([]model.Income, error) {
	query := `SELECT id, booking_id, date, amount_cents, category, description, is_confirmed, created_at
	          FROM incomes WHERE 1=1`
	args := []any{}

	if filter.BookingID != nil {
		args = append(args, *filter.BookingID)
		query += fmt.Sprintf(" AND booking_id = $%d", len(args))
	}
	if filter.OnlyUnconfirmed {
		query += " AND is_confirmed = FALSE"
	}
	query += " ORDER BY date DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select incomes: %w", err)
	}
	defer rows.Close()

	var incomes []model.Income
	for rows.Next() {
		var (
			income      model.Income
			amountCents int64
			category    string
		)
		if err := rows.Scan(
			&income.ID, &income.BookingID, &income.Date, &amountCents,
			&category, &income.Description, &income.IsConfirmed, &income.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}

		income.AmountBRL = money.FromCents(amountCents)
		income.Category = model.IncomeCategory(category)
		incomes = append(incomes, income)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return incomes, nil
}

// UpdateIncome сохраняет изменённые поля записи дохода.
func (r *PostgresRepository) UpdateIncome(ctx context.Context, income model.Income) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE incomes
		 SET date = $2, amount_cents = $3, category = $4, description = $5, is_confirmed = $6
		 WHERE id = $1`,
		income.ID, income.Date, money.ToCents(income.AmountBRL),
		string(income.Category), income.Description, income.IsConfirmed,
	)
	if err != nil {
		return fmt.Errorf("update income: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrIncomeNotFound
	}

	return nil
}

// ConfirmIncome помечает запись дохода как подтверждённую.
func (r *PostgresRepository) ConfirmIncome(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE incomes SET is_confirmed = TRUE WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("confirm income: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrIncomeNotFound
	}

	return nil
}

// DeleteIncome удаляет запись дохода.
func (r *PostgresRepository) DeleteIncome(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM incomes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete income: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrIncomeNotFound
	}

	return nil
}

// CreateExpense создаёт запись расхода. Сумма фиксируется на момент оплаты.
func (r *PostgresRepository) CreateExpense(ctx context.Context, expense model.Expense) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO expenses (date, amount_cents, category, description, is_paid, due_date, is_recurring, recurring_day)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		expense.Date, money.ToCents(expense.AmountBRL), string(expense.Category),
		expense.Description, expense.IsPaid, expense.DueDate, expense.IsRecurring, expense.RecurringDay,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert expense: %w", err)
	}
	return id, nil
}

// ListExpenses возвращает все расходы, новые даты первыми.
func (r *PostgresRepository) ListExpenses(ctx context.Context) ([]model.Expense, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, date, amount_cents, category, description, is_paid, due_date, is_recurring, recurring_day, created_at
		 FROM expenses
		 ORDER BY date DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select expenses: %w", err)
	}
	defer rows.Close()

	var expenses []model.Expense
	for rows.Next() {
		var (
			expense     model.Expense
			amountCents int64
			category    string
		)
		if err := rows.Scan(
			&expense.ID, &expense.Date, &amountCents, &category, &expense.Description,
			&expense.IsPaid, &expense.DueDate, &expense.IsRecurring, &expense.RecurringDay,
			&expense.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}

		expense.AmountBRL = money.FromCents(amountCents)
		expense.Category = model.ExpenseCategory(category)
		expenses = append(expenses, expense)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return expenses, nil
}

// UpdateExpense сохраняет изменённые поля записи расхода.
func (r *PostgresRepository) UpdateExpense(ctx context.Context, expense model.Expense) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE expenses
		 SET date = $2, amount_cents = $3, category = $4, description = $5,
		     is_paid = $6, due_date = $7, is_recurring = $8, recurring_day = $9
		 WHERE id = $1`,
		expense.ID, expense.Date, money.ToCents(expense.AmountBRL), string(expense.Category),
		expense.Description, expense.IsPaid, expense.DueDate, expense.IsRecurring, expense.RecurringDay,
	)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

// DeleteExpense удаляет запись расхода.
func (r *PostgresRepository) DeleteExpense(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrExpenseNotFound
	}

	return nil
}

// CreateProjectedExpense создаёт планируемый расход с зафиксированной оценкой в USDT.
func (r *PostgresRepository) CreateProjectedExpense(ctx context.Context, p model.ProjectedExpense) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO projected_expenses (description, estimated_usdt_cents, category, priority, is_purchased)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		p.Description, money.ToCents(p.EstimatedAmountUSDT), p.Category, string(p.Priority), p.IsPurchased,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert projected expense: %w", err)
	}
	return id, nil
}

// ListProjectedExpenses возвращает планируемые расходы, новые записи первыми.
func (r *PostgresRepository) ListProjectedExpenses(ctx context.Context) ([]model.ProjectedExpense, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, description, estimated_usdt_cents, category, priority, is_purchased, created_at
		 FROM projected_expenses
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("select projected expenses: %w", err)
	}
	defer rows.Close()

	var projected []model.ProjectedExpense
	for rows.Next() {
		var (
			p         model.ProjectedExpense
			usdtCents int64
			priority  string
		)
		if err := rows.Scan(
			&p.ID, &p.Description, &usdtCents, &p.Category, &priority, &p.IsPurchased, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan projected expense: %w", err)
		}

		p.EstimatedAmountUSDT = money.FromCents(usdtCents)
		p.Priority = model.ProjectedPriority(priority)
		projected = append(projected, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return projected, nil
}

// UpdateProjectedExpense сохраняет изменённые поля планируемого расхода.
func (r *PostgresRepository) UpdateProjectedExpense(ctx context.Context, p model.ProjectedExpense) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE projected_expenses
		 SET description = $2, estimated_usdt_cents = $3, category = $4, priority = $5, is_purchased = $6
		 WHERE id = $1`,
		p.ID, p.Description, money.ToCents(p.EstimatedAmountUSDT), p.Category, string(p.Priority), p.IsPurchased,
	)
	if err != nil {
		return fmt.Errorf("update projected expense: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrProjectedNotFound
	}

	return nil
}

// MarkProjectedPurchased помечает планируемый расход как купленный.
func (r *PostgresRepository) MarkProjectedPurchased(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE projected_expenses SET is_purchased = TRUE WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark projected purchased: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrProjectedNotFound
	}

	return nil
}

// DeleteProjectedExpense удаляет планируемый расход.
func (r *PostgresRepository) DeleteProjectedExpense(ctx context.Context, id int64) error {
	cmdTag, err := r.pool.Exec(ctx, `DELETE FROM projected_expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete projected expense: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return ErrProjectedNotFound
	}

	return nil
}
