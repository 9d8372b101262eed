package importer

import (
	"time"

	"github.com/shopspring/decimal"
)

// Row is one parsed line of a legacy expense log export.
type Row struct {
	ReferenceNumber string
	CategoryCode    string
	Amount          decimal.Decimal
	Payee           string
	Description     string
	ExpenseDate     time.Time
	PaymentMethod   string
}
