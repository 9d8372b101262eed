package category

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a category does not exist.
	ErrNotFound = errors.New("category not found")
	// ErrDuplicateCode is returned when the code is already taken within
	// the kind.
	ErrDuplicateCode = errors.New("category code already exists")
)

// Kind separates expense categories from revenue categories.
type Kind string

const (
	KindExpense Kind = "expense"
	KindRevenue Kind = "revenue"
)

// Category is a flat lookup record; it has no lifecycle of its own.
type Category struct {
	ID        uuid.UUID
	Kind      Kind
	Code      string
	Name      string
	CreatedAt time.Time
}
