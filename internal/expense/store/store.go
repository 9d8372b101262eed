package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	budgetstore "github.com/barangaylink/treasury/internal/budget/store"
	"github.com/barangaylink/treasury/internal/expense"
	"github.com/barangaylink/treasury/internal/ledger"
	ledgerstore "github.com/barangaylink/treasury/internal/ledger/store"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectExpenseColumns = `
	id, reference_number, category_id, allocation_id, amount, payee, description,
	expense_date, payment_method, status, requested_by, approved_by, released_by,
	release_date, created_at, updated_at
`

func scanExpense(s scanner) (*expense.Expense, error) {
	var e expense.Expense

	var statusStr string

	var allocID *uuid.UUID

	var approvedBy, releasedBy sql.NullString

	if err := s.Scan(
		&e.ID, &e.ReferenceNumber, &e.CategoryID, &allocID, &e.Amount, &e.Payee,
		&e.Description, &e.ExpenseDate, &e.PaymentMethod, &statusStr,
		&e.RequestedBy, &approvedBy, &releasedBy, &e.ReleaseDate,
		&e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	e.Status = expense.Status(statusStr)
	e.AllocationID = allocID

	if approvedBy.Valid {
		e.ApprovedBy = &approvedBy.String
	}

	if releasedBy.Valid {
		e.ReleasedBy = &releasedBy.String
	}

	return &e, nil
}

// nextReference draws the next reference number from the expense
// sequence, e.g. EXP-2025-000042.
const nextReference = `'EXP-' || to_char(NOW(), 'YYYY') || '-' || lpad(nextval('expense_ref_seq')::text, 6, '0')`

func (s *Store) CreateExpense(ctx context.Context, e *expense.Expense) error {
	refExpr := "$9"

	args := []any{
		e.CategoryID, e.AllocationID, e.Amount, e.Payee, e.Description,
		e.ExpenseDate, e.PaymentMethod, e.Status,
	}

	if e.ReferenceNumber == "" {
		refExpr = nextReference
	} else {
		args = append(args, e.ReferenceNumber)
	}

	args = append(args, e.RequestedBy)
	requestedByIdx := len(args)

	query := fmt.Sprintf(`
		INSERT INTO expenses
			(category_id, allocation_id, amount, payee, description, expense_date, payment_method, status, reference_number, requested_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, %s, $%d, NOW())
		RETURNING id, reference_number, created_at
	`, refExpr, requestedByIdx)

	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&e.ID, &e.ReferenceNumber, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating expense: %w", err)
	}

	return nil
}

func (s *Store) GetExpense(ctx context.Context, id uuid.UUID) (*expense.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + ` FROM expenses WHERE id = $1`

	e, err := scanExpense(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, expense.ErrNotFound
		}

		return nil, fmt.Errorf("getting expense: %w", err)
	}

	return e, nil
}

func (s *Store) ListExpenses(ctx context.Context, f expense.ListFilter) ([]*expense.Expense, error) {
	query := `SELECT ` + selectExpenseColumns + ` FROM expenses WHERE 1=1`

	var args []any

	argIdx := 1

	if f.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *f.Status)
		argIdx++
	}

	if f.CategoryID != nil {
		query += fmt.Sprintf(" AND category_id = $%d", argIdx)

		args = append(args, *f.CategoryID)
		argIdx++
	}

	if f.AllocationID != nil {
		query += fmt.Sprintf(" AND allocation_id = $%d", argIdx)

		args = append(args, *f.AllocationID)
		argIdx++
	}

	if f.StartDate != nil {
		query += fmt.Sprintf(" AND expense_date >= $%d", argIdx)

		args = append(args, *f.StartDate)
		argIdx++
	}

	if f.EndDate != nil {
		query += fmt.Sprintf(" AND expense_date <= $%d", argIdx)

		args = append(args, *f.EndDate)
		argIdx++
	}

	query += " ORDER BY expense_date DESC, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*expense.Expense

	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning expense: %w", err)
		}

		expenses = append(expenses, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating expense rows: %w", err)
	}

	return expenses, nil
}

// SetStatus applies the transition only while the row is still in the
// expected from status. Zero rows affected means either a missing row or
// a concurrent transition; a re-read distinguishes the two.
func (s *Store) SetStatus(ctx context.Context, id uuid.UUID, from, to expense.Status, actor string) error {
	query := `
		UPDATE expenses
		SET status = $1,
		    approved_by = CASE WHEN $1 = 'approved' THEN $2 ELSE approved_by END,
		    updated_at = NOW()
		WHERE id = $3 AND status = $4
	`

	res, err := s.db.ExecContext(ctx, query, to, actor, id, from)
	if err != nil {
		return fmt.Errorf("updating status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}

	if affected == 0 {
		if _, err := s.GetExpense(ctx, id); err != nil {
			return err
		}

		return expense.ErrInvalidTransition
	}

	return nil
}

type releaseTx struct {
	tx  *sql.Tx
	exp *expense.Expense
}

// BeginRelease opens the release transaction and re-reads the expense
// FOR UPDATE so concurrent releases serialize on the row.
func (s *Store) BeginRelease(ctx context.Context, id uuid.UUID) (expense.ReleaseTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning release tx: %w", err)
	}

	query := `SELECT ` + selectExpenseColumns + ` FROM expenses WHERE id = $1 FOR UPDATE`

	e, err := scanExpense(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		tx.Rollback()

		if err == sql.ErrNoRows {
			return nil, expense.ErrNotFound
		}

		return nil, fmt.Errorf("locking expense: %w", err)
	}

	return &releaseTx{tx: tx, exp: e}, nil
}

func (rtx *releaseTx) Expense() *expense.Expense { return rtx.exp }
func (rtx *releaseTx) Commit() error             { return rtx.tx.Commit() }
func (rtx *releaseTx) Rollback() error           { return rtx.tx.Rollback() }

func (rtx *releaseTx) Debit(ctx context.Context, p ledger.EntryParams) error {
	return ledgerstore.ApplyDebit(ctx, rtx.tx, p)
}

func (rtx *releaseTx) AddSpent(ctx context.Context, allocationID uuid.UUID, amount decimal.Decimal) error {
	return budgetstore.AddSpent(ctx, rtx.tx, allocationID, amount)
}

func (rtx *releaseTx) MarkReleased(ctx context.Context, releasedBy string) error {
	query := `
		UPDATE expenses
		SET status = $1, released_by = $2, release_date = NOW(), updated_at = NOW()
		WHERE id = $3
	`

	if _, err := rtx.tx.ExecContext(ctx, query, expense.StatusReleased, releasedBy, rtx.exp.ID); err != nil {
		return fmt.Errorf("marking released: %w", err)
	}

	return nil
}

type importTx struct {
	tx *sql.Tx
}

func (s *Store) BeginImport(ctx context.Context) (expense.ImportTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import tx: %w", err)
	}

	return &importTx{tx: tx}, nil
}

func (itx *importTx) Commit() error   { return itx.tx.Commit() }
func (itx *importTx) Rollback() error { return itx.tx.Rollback() }

func (itx *importTx) FindExistingReferences(ctx context.Context, refs []string) ([]string, error) {
	if len(refs) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(refs))
	args := make([]any, len(refs))

	for i, ref := range refs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = ref
	}

	query := `SELECT reference_number FROM expenses WHERE reference_number IN (` +
		strings.Join(placeholders, ", ") + `)`

	rows, err := itx.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding existing references: %w", err)
	}
	defer rows.Close()

	var existing []string

	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("scanning reference: %w", err)
		}

		existing = append(existing, ref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating reference rows: %w", err)
	}

	return existing, nil
}

func (itx *importTx) CreateExpenses(ctx context.Context, expenses []*expense.Expense) error {
	query := `
		INSERT INTO expenses
			(reference_number, category_id, allocation_id, amount, payee, description, expense_date, payment_method, status, requested_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW())
		RETURNING id, created_at
	`

	for _, e := range expenses {
		err := itx.tx.QueryRowContext(ctx, query,
			e.ReferenceNumber, e.CategoryID, e.AllocationID, e.Amount, e.Payee,
			e.Description, e.ExpenseDate, e.PaymentMethod, e.Status, e.RequestedBy,
		).Scan(&e.ID, &e.CreatedAt)
		if err != nil {
			return fmt.Errorf("creating expense %s: %w", e.ReferenceNumber, err)
		}
	}

	return nil
}
