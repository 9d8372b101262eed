package importer

import (
	"context"
	"fmt"
	"io"

	"github.com/barangaylink/treasury/internal/category"
	"github.com/barangaylink/treasury/internal/expense"
)

// CategoryResolver resolves legacy category codes. Satisfied by
// *category.Service.
type CategoryResolver interface {
	GetByCode(ctx context.Context, kind category.Kind, code string) (*category.Category, error)
}

// ExpenseImporter batch-inserts imported expenses. Satisfied by
// *expense.Service.
type ExpenseImporter interface {
	ImportBatch(ctx context.Context, params []expense.ImportParams, actor string) (*expense.ImportResult, error)
}

type Service struct {
	parser     *Parser
	categories CategoryResolver
	expenses   ExpenseImporter
}

func NewService(categories CategoryResolver, expenses ExpenseImporter) *Service {
	return &Service{
		parser:     NewParser(),
		categories: categories,
		expenses:   expenses,
	}
}

// Import parses a legacy expense log, resolves its category codes and
// inserts the rows as pending expenses in one transaction. Reference
// numbers already in the database come back as conflicts with nothing
// inserted.
func (s *Service) Import(ctx context.Context, r io.Reader, actor string) (*expense.ImportResult, error) {
	rows, err := s.parser.Parse(r)
	if err != nil {
		return nil, err
	}

	params := make([]expense.ImportParams, 0, len(rows))

	for _, row := range rows {
		c, err := s.categories.GetByCode(ctx, category.KindExpense, row.CategoryCode)
		if err != nil {
			return nil, fmt.Errorf("reference %s: resolving category %q: %w", row.ReferenceNumber, row.CategoryCode, err)
		}

		params = append(params, expense.ImportParams{
			ReferenceNumber: row.ReferenceNumber,
			CategoryID:      c.ID,
			Amount:          row.Amount,
			Payee:           row.Payee,
			Description:     row.Description,
			ExpenseDate:     row.ExpenseDate,
			PaymentMethod:   row.PaymentMethod,
		})
	}

	return s.expenses.ImportBatch(ctx, params, actor)
}
