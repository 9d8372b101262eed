package budget

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barangaylink/treasury/internal/ledger"
)

type Repository interface {
	CreateAllocation(ctx context.Context, a *Allocation) error
	GetAllocation(ctx context.Context, id uuid.UUID) (*Allocation, error)
	ListAllocations(ctx context.Context, f ListFilter) ([]*Allocation, error)
	UpdateAllocation(ctx context.Context, a *Allocation) error
	DeleteAllocation(ctx context.Context, id uuid.UUID) error

	BeginApproval(ctx context.Context, id uuid.UUID) (ApprovalTx, error)
}

// ApprovalTx is a single database transaction covering an allocation
// approval: the allocation is re-read under lock at begin, the ledger
// debit and the status change happen inside the same transaction, and
// nothing is visible until Commit.
type ApprovalTx interface {
	Allocation() *Allocation
	Debit(ctx context.Context, p ledger.EntryParams) error
	MarkApproved(ctx context.Context, approvedBy string) error
	Commit() error
	Rollback() error
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	FiscalYear int
	CategoryID uuid.UUID
	Allocated  decimal.Decimal
	Notes      string
	ActedBy    string
}

type ListFilter struct {
	FiscalYear *int
	Status     *Status
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Allocation, error) {
	if !params.Allocated.IsPositive() {
		return nil, ErrInvalidAmount
	}

	a := &Allocation{
		FiscalYear: params.FiscalYear,
		CategoryID: params.CategoryID,
		Allocated:  params.Allocated,
		Spent:      decimal.Zero,
		Remaining:  params.Allocated,
		Status:     StatusDraft,
		Notes:      params.Notes,
		CreatedBy:  params.ActedBy,
	}
	if err := s.repo.CreateAllocation(ctx, a); err != nil {
		return nil, err
	}

	return a, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Allocation, error) {
	return s.repo.GetAllocation(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Allocation, error) {
	return s.repo.ListAllocations(ctx, f)
}

// Update changes the allocated amount and notes of a draft allocation.
// Approved allocations are immutable.
func (s *Service) Update(ctx context.Context, id uuid.UUID, allocated decimal.Decimal, notes string) error {
	if !allocated.IsPositive() {
		return ErrInvalidAmount
	}

	a, err := s.repo.GetAllocation(ctx, id)
	if err != nil {
		return err
	}

	if a.Status != StatusDraft {
		return ErrNotDraft
	}

	a.Allocated = allocated
	a.Remaining = allocated
	a.Notes = notes

	return s.repo.UpdateAllocation(ctx, a)
}

// Approve reserves the allocated amount against the fund balance and
// marks the allocation approved, all in one transaction. The status is
// re-checked under lock so concurrent approvers cannot double-debit; a
// failed debit leaves the allocation untouched in draft.
func (s *Service) Approve(ctx context.Context, id uuid.UUID, actor string) error {
	tx, err := s.repo.BeginApproval(ctx, id)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	a := tx.Allocation()
	if a.Status != StatusDraft {
		return ErrAlreadyApproved
	}

	err = tx.Debit(ctx, ledger.EntryParams{
		Action:  ledger.ActionBudgetApproval,
		Amount:  a.Allocated,
		Notes:   fmt.Sprintf("budget approval FY%d", a.FiscalYear),
		ActedBy: actor,
	})
	if err != nil {
		return err
	}

	if err := tx.MarkApproved(ctx, actor); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing approval: %w", err)
	}

	return nil
}

// Delete removes a draft allocation. Approved allocations cannot be
// deleted; the ledger debit recorded at approval must stay accounted for.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	a, err := s.repo.GetAllocation(ctx, id)
	if err != nil {
		return err
	}

	if a.Status != StatusDraft {
		return ErrNotDraft
	}

	return s.repo.DeleteAllocation(ctx, id)
}
