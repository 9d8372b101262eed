package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/barangaylink/treasury/internal/budget"
	"github.com/barangaylink/treasury/internal/category"
	"github.com/barangaylink/treasury/internal/expense"
	"github.com/barangaylink/treasury/internal/ledger"
)

// Service renders the audit-facing CSV reports.
type Service struct {
	ledger     *ledger.Service
	budgets    *budget.Service
	expenses   *expense.Service
	categories *category.Service
}

func NewService(l *ledger.Service, b *budget.Service, e *expense.Service, c *category.Service) *Service {
	return &Service{
		ledger:     l,
		budgets:    b,
		expenses:   e,
		categories: c,
	}
}

// WriteBalanceHistory streams the ledger audit trail as CSV.
func (s *Service) WriteBalanceHistory(ctx context.Context, w io.Writer, f ledger.HistoryFilter) error {
	entries, err := s.ledger.History(ctx, f)
	if err != nil {
		return fmt.Errorf("listing history: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Date", "Action", "Old Balance", "New Balance", "Amount Changed", "Notes", "By"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, e := range entries {
		record := []string{
			e.CreatedAt.Format(time.DateOnly),
			string(e.Action),
			e.OldBalance.StringFixed(2),
			e.NewBalance.StringFixed(2),
			e.AmountChanged.StringFixed(2),
			e.Notes,
			e.CreatedBy,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing entry: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteExpenseRegister streams the expense register as CSV.
func (s *Service) WriteExpenseRegister(ctx context.Context, w io.Writer, f expense.ListFilter) error {
	expenses, err := s.expenses.List(ctx, f)
	if err != nil {
		return fmt.Errorf("listing expenses: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Ref No.", "Date", "Payee", "Description", "Amount", "Payment Method", "Status", "Requested By"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, e := range expenses {
		record := []string{
			e.ReferenceNumber,
			e.ExpenseDate.Format(time.DateOnly),
			e.Payee,
			e.Description,
			e.Amount.StringFixed(2),
			e.PaymentMethod,
			string(e.Status),
			e.RequestedBy,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing expense: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// WriteBudgetUtilization streams per-category allocation usage for one
// fiscal year as CSV.
func (s *Service) WriteBudgetUtilization(ctx context.Context, w io.Writer, fiscalYear int) error {
	allocations, err := s.budgets.List(ctx, budget.ListFilter{FiscalYear: &fiscalYear})
	if err != nil {
		return fmt.Errorf("listing allocations: %w", err)
	}

	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"Category", "Allocated", "Spent", "Remaining", "Status"}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for _, a := range allocations {
		name := a.CategoryID.String()

		c, err := s.categories.Get(ctx, a.CategoryID)
		if err == nil {
			name = c.Name
		}

		record := []string{
			name,
			a.Allocated.StringFixed(2),
			a.Spent.StringFixed(2),
			a.Remaining.StringFixed(2),
			string(a.Status),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing allocation: %w", err)
		}
	}

	cw.Flush()

	return cw.Error()
}
