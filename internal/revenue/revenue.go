package revenue

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when a revenue record does not exist.
	ErrNotFound = errors.New("revenue not found")
	// ErrDuplicateORNumber is returned when the official receipt number is
	// already recorded.
	ErrDuplicateORNumber = errors.New("official receipt number already recorded")
	// ErrInvalidAmount is returned for zero or negative amounts.
	ErrInvalidAmount = errors.New("invalid revenue amount")
)

// Revenue is a collection backed by an official receipt. Recording a
// revenue credits the fund balance in the same transaction.
type Revenue struct {
	ID          uuid.UUID
	ORNumber    string
	CategoryID  uuid.UUID
	Amount      decimal.Decimal
	Payer       string
	Description string
	ReceivedAt  time.Time
	RecordedBy  string
	CreatedAt   time.Time
}
