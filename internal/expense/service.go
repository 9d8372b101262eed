package expense

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barangaylink/treasury/internal/budget"
	"github.com/barangaylink/treasury/internal/ledger"
)

type Repository interface {
	CreateExpense(ctx context.Context, e *Expense) error
	GetExpense(ctx context.Context, id uuid.UUID) (*Expense, error)
	ListExpenses(ctx context.Context, f ListFilter) ([]*Expense, error)

	// SetStatus performs the optimistic check-then-act transition: the
	// update only applies while the row is still in from, and a losing
	// concurrent caller gets ErrInvalidTransition.
	SetStatus(ctx context.Context, id uuid.UUID, from, to Status, actor string) error

	BeginRelease(ctx context.Context, id uuid.UUID) (ReleaseTx, error)
	BeginImport(ctx context.Context) (ImportTx, error)
}

// ReleaseTx is a single database transaction covering an expense
// release: the expense is re-read under lock at begin; the ledger debit,
// the allocation spent increment and the status change all commit or
// roll back together.
type ReleaseTx interface {
	Expense() *Expense
	Debit(ctx context.Context, p ledger.EntryParams) error
	AddSpent(ctx context.Context, allocationID uuid.UUID, amount decimal.Decimal) error
	MarkReleased(ctx context.Context, releasedBy string) error
	Commit() error
	Rollback() error
}

// ImportTx is a single database transaction for a legacy batch import.
type ImportTx interface {
	FindExistingReferences(ctx context.Context, refs []string) ([]string, error)
	CreateExpenses(ctx context.Context, expenses []*Expense) error
	Commit() error
	Rollback() error
}

// AllocationGetter is the slice of the budget manager the expense
// manager needs for the submit-time budget check. Satisfied by
// *budget.Service.
type AllocationGetter interface {
	Get(ctx context.Context, id uuid.UUID) (*budget.Allocation, error)
}

type Service struct {
	repo        Repository
	allocations AllocationGetter
}

func NewService(repo Repository, allocations AllocationGetter) *Service {
	return &Service{repo: repo, allocations: allocations}
}

type SubmitParams struct {
	CategoryID    uuid.UUID
	AllocationID  *uuid.UUID
	Amount        decimal.Decimal
	Payee         string
	Description   string
	ExpenseDate   time.Time
	PaymentMethod string
	ActedBy       string
}

type ListFilter struct {
	Status       *Status
	CategoryID   *uuid.UUID
	AllocationID *uuid.UUID
	StartDate    *time.Time
	EndDate      *time.Time
}

// Submit records a new pending expense and assigns it a fresh reference
// number. When linked to an allocation, the allocation must be approved
// and the amount must fit its remaining amount at submit time. This is
// the only budget check in the lifecycle; release does not re-validate.
func (s *Service) Submit(ctx context.Context, params SubmitParams) (*Expense, error) {
	if !params.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if params.AllocationID != nil {
		a, err := s.allocations.Get(ctx, *params.AllocationID)
		if err != nil {
			return nil, fmt.Errorf("checking allocation: %w", err)
		}

		if a.Status != budget.StatusApproved {
			return nil, ErrAllocationNotApproved
		}

		if params.Amount.GreaterThan(a.Remaining) {
			return nil, ErrAllocationExceeded
		}
	}

	e := &Expense{
		CategoryID:    params.CategoryID,
		AllocationID:  params.AllocationID,
		Amount:        params.Amount,
		Payee:         params.Payee,
		Description:   params.Description,
		ExpenseDate:   params.ExpenseDate,
		PaymentMethod: params.PaymentMethod,
		Status:        StatusPending,
		RequestedBy:   params.ActedBy,
	}
	if err := s.repo.CreateExpense(ctx, e); err != nil {
		return nil, err
	}

	return e, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Expense, error) {
	return s.repo.GetExpense(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Expense, error) {
	return s.repo.ListExpenses(ctx, f)
}

// Approve authorizes an eventual release. No ledger or budget mutation
// happens here.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, actor string) error {
	return s.repo.SetStatus(ctx, id, StatusPending, StatusApproved, actor)
}

// Reject is terminal for a pending expense.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, actor string) error {
	return s.repo.SetStatus(ctx, id, StatusPending, StatusRejected, actor)
}

// Cancel is terminal for an approved expense. No ledger reversal is
// needed: nothing has been debited before release.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, actor string) error {
	return s.repo.SetStatus(ctx, id, StatusApproved, StatusCancelled, actor)
}

// Release converts an approved expense into an actual cash debit. In one
// transaction: the ledger is debited by the expense amount, the linked
// allocation's spent amount is incremented, and the expense is marked
// released. A failed debit leaves the expense approved.
func (s *Service) Release(ctx context.Context, id uuid.UUID, actor string) error {
	tx, err := s.repo.BeginRelease(ctx, id)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	e := tx.Expense()
	if !e.Status.CanTransition(StatusReleased) {
		return ErrInvalidTransition
	}

	err = tx.Debit(ctx, ledger.EntryParams{
		Action:  ledger.ActionExpenseRelease,
		Amount:  e.Amount,
		Notes:   fmt.Sprintf("expense release %s", e.ReferenceNumber),
		ActedBy: actor,
	})
	if err != nil {
		return err
	}

	if e.AllocationID != nil {
		if err := tx.AddSpent(ctx, *e.AllocationID, e.Amount); err != nil {
			return err
		}
	}

	if err := tx.MarkReleased(ctx, actor); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing release: %w", err)
	}

	return nil
}

// ImportParams is one row of a legacy expense log carrying its original
// reference number.
type ImportParams struct {
	ReferenceNumber string
	CategoryID      uuid.UUID
	Amount          decimal.Decimal
	Payee           string
	Description     string
	ExpenseDate     time.Time
	PaymentMethod   string
}

type ImportResult struct {
	Imported  []*Expense
	Conflicts []string
}

// ImportBatch inserts legacy expenses as pending rows in one
// transaction. Reference numbers already present in the database are
// reported as conflicts and nothing is inserted.
func (s *Service) ImportBatch(ctx context.Context, params []ImportParams, actor string) (*ImportResult, error) {
	if len(params) == 0 {
		return &ImportResult{}, nil
	}

	itx, err := s.repo.BeginImport(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin import: %w", err)
	}
	defer itx.Rollback()

	refs := make([]string, len(params))
	for i, p := range params {
		refs[i] = p.ReferenceNumber
	}

	existing, err := itx.FindExistingReferences(ctx, refs)
	if err != nil {
		return nil, fmt.Errorf("find existing references: %w", err)
	}

	if len(existing) > 0 {
		return &ImportResult{Conflicts: existing}, nil
	}

	expenses := make([]*Expense, len(params))
	for i, p := range params {
		expenses[i] = &Expense{
			ReferenceNumber: p.ReferenceNumber,
			CategoryID:      p.CategoryID,
			Amount:          p.Amount,
			Payee:           p.Payee,
			Description:     p.Description,
			ExpenseDate:     p.ExpenseDate,
			PaymentMethod:   p.PaymentMethod,
			Status:          StatusPending,
			RequestedBy:     actor,
		}
	}

	if err := itx.CreateExpenses(ctx, expenses); err != nil {
		return nil, fmt.Errorf("create expenses: %w", err)
	}

	if err := itx.Commit(); err != nil {
		return nil, fmt.Errorf("commit import: %w", err)
	}

	return &ImportResult{Imported: expenses}, nil
}
