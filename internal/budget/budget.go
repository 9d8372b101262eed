package budget

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when an allocation does not exist.
	ErrNotFound = errors.New("allocation not found")
	// ErrDuplicateCategory is returned when the category already has an
	// allocation for the fiscal year.
	ErrDuplicateCategory = errors.New("category already allocated for fiscal year")
	// ErrNotDraft is returned when editing or deleting a non-draft allocation.
	ErrNotDraft = errors.New("allocation is not in draft")
	// ErrAlreadyApproved is returned when approving an allocation that has
	// already left draft, including a losing concurrent approver.
	ErrAlreadyApproved = errors.New("allocation already approved")
	// ErrInvalidAmount is returned for zero or negative allocation amounts.
	ErrInvalidAmount = errors.New("invalid allocation amount")
)

// Status is the lifecycle state of a budget allocation.
//
// Approval is one-way: an approved allocation is immutable and cannot
// return to draft, because approving reserves the allocated amount
// against the fund balance.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
)

// Allocation reserves part of the fund balance for a category within a
// fiscal year. A category has at most one allocation per fiscal year.
type Allocation struct {
	ID           uuid.UUID
	FiscalYear   int
	CategoryID   uuid.UUID
	Allocated    decimal.Decimal
	Spent        decimal.Decimal
	Remaining    decimal.Decimal
	Status       Status
	Notes        string
	CreatedBy    string
	ApprovedBy   *string
	ApprovalDate *time.Time
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
