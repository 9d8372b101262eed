package expense

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when an expense does not exist.
	ErrNotFound = errors.New("expense not found")
	// ErrInvalidTransition is returned when an operation requires a
	// lifecycle state the expense is not in, including losing concurrent
	// callers racing on the same transition.
	ErrInvalidTransition = errors.New("invalid expense status transition")
	// ErrAllocationNotApproved is returned when submitting against an
	// allocation that is still in draft.
	ErrAllocationNotApproved = errors.New("allocation is not approved")
	// ErrAllocationExceeded is returned when the submitted amount exceeds
	// the linked allocation's remaining amount.
	ErrAllocationExceeded = errors.New("amount exceeds allocation remaining")
	// ErrInvalidAmount is returned for zero or negative expense amounts.
	ErrInvalidAmount = errors.New("invalid expense amount")
)

// Status is the lifecycle state of an expense.
//
// Transitions:
//
//	pending  → approved | rejected
//	approved → released | cancelled
//
// released, rejected and cancelled are terminal.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusReleased  Status = "released"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	switch s {
	case StatusReleased, StatusRejected, StatusCancelled:
		return true
	case StatusPending, StatusApproved:
		return false
	}

	return false
}

// CanTransition reports whether the state machine allows moving from s
// to the given status.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusApproved || to == StatusRejected
	case StatusApproved:
		return to == StatusReleased || to == StatusCancelled
	case StatusReleased, StatusRejected, StatusCancelled:
		return false
	}

	return false
}

// Expense is a disbursement request. The ledger is only debited at
// release; approval merely authorizes the eventual cash movement.
type Expense struct {
	ID              uuid.UUID
	ReferenceNumber string
	CategoryID      uuid.UUID
	AllocationID    *uuid.UUID
	Amount          decimal.Decimal
	Payee           string
	Description     string
	ExpenseDate     time.Time
	PaymentMethod   string
	Status          Status
	RequestedBy     string
	ApprovedBy      *string
	ReleasedBy      *string
	ReleaseDate     *time.Time
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}
