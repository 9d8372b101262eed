package ledger

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=ledger
type Repository interface {
	GetBalance(ctx context.Context) (*FundBalance, error)
	SetBalance(ctx context.Context, p SetParams) error
	Adjust(ctx context.Context, p EntryParams) error
	ListHistory(ctx context.Context, f HistoryFilter) ([]*Entry, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// SetParams replaces the balance wholesale (administrative correction).
type SetParams struct {
	Amount  decimal.Decimal
	Notes   string
	ActedBy string
}

// AdjustParams moves the balance by a positive delta in the given direction.
type AdjustParams struct {
	Delta     decimal.Decimal
	Direction Direction
	Notes     string
	ActedBy   string
}

type HistoryFilter struct {
	Action    *ActionType
	StartDate *time.Time
	EndDate   *time.Time
}

// Current returns the latest fund balance, or ErrNotFound if none has
// been set yet.
func (s *Service) Current(ctx context.Context) (*FundBalance, error) {
	return s.repo.GetBalance(ctx)
}

// SetBalance overwrites the current balance. The store records an
// initial_set entry when no balance exists yet, balance_updated otherwise.
func (s *Service) SetBalance(ctx context.Context, p SetParams) error {
	if p.Amount.IsNegative() {
		return ErrInvalidAmount
	}

	return s.repo.SetBalance(ctx, p)
}

// Adjust applies a manual addition or deduction. Directions outside
// add and deduct fail with ErrInvalidDirection. Deductions that would
// drive the balance negative fail with ErrInsufficientFunds; adjusting
// before any balance exists fails with ErrNotFound.
func (s *Service) Adjust(ctx context.Context, p AdjustParams) error {
	if !p.Delta.IsPositive() {
		return ErrInvalidAmount
	}

	var action ActionType

	switch p.Direction {
	case DirectionAdd:
		action = ActionManualAddition
	case DirectionDeduct:
		action = ActionManualDeduction
	default:
		return ErrInvalidDirection
	}

	return s.repo.Adjust(ctx, EntryParams{
		Action:  action,
		Amount:  p.Delta,
		Notes:   p.Notes,
		ActedBy: p.ActedBy,
	})
}

func (s *Service) History(ctx context.Context, f HistoryFilter) ([]*Entry, error) {
	return s.repo.ListHistory(ctx, f)
}
