package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/barangaylink/treasury/internal/budget"
	"github.com/barangaylink/treasury/internal/ledger"
	ledgerstore "github.com/barangaylink/treasury/internal/ledger/store"
)

// pgUniqueViolation is the Postgres error code for unique constraint violations.
const pgUniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

const selectAllocationColumns = `
	id, fiscal_year, category_id, allocated_amount, spent_amount, remaining_amount,
	status, notes, created_by, approved_by, approval_date, created_at, updated_at
`

func scanAllocation(s scanner) (*budget.Allocation, error) {
	var a budget.Allocation

	var statusStr string

	var approvedBy sql.NullString

	if err := s.Scan(
		&a.ID, &a.FiscalYear, &a.CategoryID, &a.Allocated, &a.Spent, &a.Remaining,
		&statusStr, &a.Notes, &a.CreatedBy, &approvedBy, &a.ApprovalDate,
		&a.CreatedAt, &a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	a.Status = budget.Status(statusStr)
	if approvedBy.Valid {
		a.ApprovedBy = &approvedBy.String
	}

	return &a, nil
}

func (s *Store) CreateAllocation(ctx context.Context, a *budget.Allocation) error {
	query := `
		INSERT INTO budget_allocations
			(fiscal_year, category_id, allocated_amount, spent_amount, remaining_amount, status, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query,
		a.FiscalYear, a.CategoryID, a.Allocated, a.Spent, a.Remaining,
		a.Status, a.Notes, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return budget.ErrDuplicateCategory
		}

		return fmt.Errorf("creating allocation: %w", err)
	}

	return nil
}

func (s *Store) GetAllocation(ctx context.Context, id uuid.UUID) (*budget.Allocation, error) {
	query := `SELECT ` + selectAllocationColumns + ` FROM budget_allocations WHERE id = $1`

	a, err := scanAllocation(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, budget.ErrNotFound
		}

		return nil, fmt.Errorf("getting allocation: %w", err)
	}

	return a, nil
}

func (s *Store) ListAllocations(ctx context.Context, f budget.ListFilter) ([]*budget.Allocation, error) {
	query := `SELECT ` + selectAllocationColumns + ` FROM budget_allocations WHERE 1=1`

	var args []any

	argIdx := 1

	if f.FiscalYear != nil {
		query += fmt.Sprintf(" AND fiscal_year = $%d", argIdx)

		args = append(args, *f.FiscalYear)
		argIdx++
	}

	if f.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argIdx)

		args = append(args, *f.Status)
		argIdx++
	}

	query += " ORDER BY fiscal_year DESC, created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing allocations: %w", err)
	}
	defer rows.Close()

	var allocations []*budget.Allocation

	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning allocation: %w", err)
		}

		allocations = append(allocations, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating allocation rows: %w", err)
	}

	return allocations, nil
}

// UpdateAllocation writes only while the row is still draft. The
// service checks the status before calling, but that read happens
// outside any transaction; the guard here catches an approval committed
// in between. Zero rows affected means either a missing row or a
// concurrent approval; a re-read distinguishes the two.
func (s *Store) UpdateAllocation(ctx context.Context, a *budget.Allocation) error {
	query := `
		UPDATE budget_allocations
		SET allocated_amount = $1, remaining_amount = $2, notes = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5
	`

	res, err := s.db.ExecContext(ctx, query, a.Allocated, a.Remaining, a.Notes, a.ID, budget.StatusDraft)
	if err != nil {
		return fmt.Errorf("updating allocation: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}

	if affected == 0 {
		if _, err := s.GetAllocation(ctx, a.ID); err != nil {
			return err
		}

		return budget.ErrNotDraft
	}

	return nil
}

// DeleteAllocation removes a draft allocation. The status guard keeps
// an approved row, and the ledger debit recorded at its approval, from
// being deleted by a caller that read the row before the approval
// committed.
func (s *Store) DeleteAllocation(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM budget_allocations WHERE id = $1 AND status = $2`

	res, err := s.db.ExecContext(ctx, query, id, budget.StatusDraft)
	if err != nil {
		return fmt.Errorf("deleting allocation: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}

	if affected == 0 {
		if _, err := s.GetAllocation(ctx, id); err != nil {
			return err
		}

		return budget.ErrNotDraft
	}

	return nil
}

type approvalTx struct {
	tx    *sql.Tx
	alloc *budget.Allocation
}

// BeginApproval opens the approval transaction and re-reads the
// allocation FOR UPDATE so a concurrent approver blocks here and then
// sees the committed status.
func (s *Store) BeginApproval(ctx context.Context, id uuid.UUID) (budget.ApprovalTx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning approval tx: %w", err)
	}

	query := `SELECT ` + selectAllocationColumns + ` FROM budget_allocations WHERE id = $1 FOR UPDATE`

	a, err := scanAllocation(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		tx.Rollback()

		if err == sql.ErrNoRows {
			return nil, budget.ErrNotFound
		}

		return nil, fmt.Errorf("locking allocation: %w", err)
	}

	return &approvalTx{tx: tx, alloc: a}, nil
}

func (atx *approvalTx) Allocation() *budget.Allocation { return atx.alloc }
func (atx *approvalTx) Commit() error                  { return atx.tx.Commit() }
func (atx *approvalTx) Rollback() error                { return atx.tx.Rollback() }

func (atx *approvalTx) Debit(ctx context.Context, p ledger.EntryParams) error {
	return ledgerstore.ApplyDebit(ctx, atx.tx, p)
}

func (atx *approvalTx) MarkApproved(ctx context.Context, approvedBy string) error {
	query := `
		UPDATE budget_allocations
		SET status = $1, approved_by = $2, approval_date = NOW(), updated_at = NOW()
		WHERE id = $3
	`

	if _, err := atx.tx.ExecContext(ctx, query, budget.StatusApproved, approvedBy, atx.alloc.ID); err != nil {
		return fmt.Errorf("marking approved: %w", err)
	}

	return nil
}

// AddSpent increments an allocation's spent amount and recomputes its
// remaining amount inside the caller's transaction. Used by the expense
// store when releasing an expense linked to an allocation.
func AddSpent(ctx context.Context, db ledgerstore.DBTX, allocationID uuid.UUID, amount decimal.Decimal) error {
	query := `
		UPDATE budget_allocations
		SET spent_amount = spent_amount + $1,
		    remaining_amount = allocated_amount - (spent_amount + $1),
		    updated_at = NOW()
		WHERE id = $2
	`

	if _, err := db.ExecContext(ctx, query, amount, allocationID); err != nil {
		return fmt.Errorf("adding spent amount: %w", err)
	}

	return nil
}
