package ledger

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when no fund balance has been recorded yet.
	ErrNotFound = errors.New("fund balance not found")
	// ErrInsufficientFunds is returned when a deduction would drive the balance negative.
	ErrInsufficientFunds = errors.New("insufficient funds")
	// ErrInvalidAmount is returned for negative or otherwise out-of-range amounts.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrInvalidDirection is returned for adjustment directions other than add or deduct.
	ErrInvalidDirection = errors.New("invalid adjustment direction")
)

// ActionType classifies a balance history entry by what caused it.
type ActionType string

const (
	ActionInitialSet        ActionType = "initial_set"
	ActionBalanceUpdated    ActionType = "balance_updated"
	ActionManualAddition    ActionType = "manual_addition"
	ActionManualDeduction   ActionType = "manual_deduction"
	ActionBudgetApproval    ActionType = "budget_approval"
	ActionExpenseRelease    ActionType = "expense_release"
	ActionRevenueCollection ActionType = "revenue_collection"
)

// Direction selects whether an adjustment adds to or deducts from the balance.
type Direction string

const (
	DirectionAdd    Direction = "add"
	DirectionDeduct Direction = "deduct"
)

// FundBalance is the single authoritative cash-on-hand record.
type FundBalance struct {
	Current   decimal.Decimal
	UpdatedAt time.Time
	UpdatedBy string
}

// Entry is one append-only balance history record. Entries are never
// updated or deleted; they are the ledger's only audit trail.
type Entry struct {
	ID            uuid.UUID
	Action        ActionType
	OldBalance    decimal.Decimal
	NewBalance    decimal.Decimal
	AmountChanged decimal.Decimal
	Notes         string
	CreatedBy     string
	CreatedAt     time.Time
}

// EntryParams describes a single balance mutation. Amount is always
// positive; the action and the applying helper decide the sign of the
// recorded change.
type EntryParams struct {
	Action  ActionType
	Amount  decimal.Decimal
	Notes   string
	ActedBy string
}
