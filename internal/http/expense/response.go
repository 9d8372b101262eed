package expense

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/barangaylink/treasury/internal/expense"
)

type expenseResponse struct {
	ID              uuid.UUID       `json:"id"`
	ReferenceNumber string          `json:"reference_number"`
	CategoryID      uuid.UUID       `json:"category_id"`
	AllocationID    *uuid.UUID      `json:"allocation_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Payee           string          `json:"payee"`
	Description     string          `json:"description,omitempty"`
	ExpenseDate     time.Time       `json:"expense_date"`
	PaymentMethod   string          `json:"payment_method,omitempty"`
	Status          expense.Status  `json:"status"`
	RequestedBy     string          `json:"requested_by"`
	ApprovedBy      *string         `json:"approved_by,omitempty"`
	ReleasedBy      *string         `json:"released_by,omitempty"`
	ReleaseDate     *time.Time      `json:"release_date,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toResponse(e *expense.Expense) expenseResponse {
	return expenseResponse{
		ID:              e.ID,
		ReferenceNumber: e.ReferenceNumber,
		CategoryID:      e.CategoryID,
		AllocationID:    e.AllocationID,
		Amount:          e.Amount,
		Payee:           e.Payee,
		Description:     e.Description,
		ExpenseDate:     e.ExpenseDate,
		PaymentMethod:   e.PaymentMethod,
		Status:          e.Status,
		RequestedBy:     e.RequestedBy,
		ApprovedBy:      e.ApprovedBy,
		ReleasedBy:      e.ReleasedBy,
		ReleaseDate:     e.ReleaseDate,
		CreatedAt:       e.CreatedAt,
	}
}

func toResponseList(expenses []*expense.Expense) []expenseResponse {
	resp := make([]expenseResponse, 0, len(expenses))
	for _, e := range expenses {
		resp = append(resp, toResponse(e))
	}

	return resp
}
