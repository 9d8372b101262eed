package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/barangaylink/treasury/internal/ledger"
	ledgerstore "github.com/barangaylink/treasury/internal/ledger/store"
	"github.com/barangaylink/treasury/internal/revenue"
)

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

const selectRevenueColumns = `
	id, or_number, category_id, amount, payer, description, received_at, recorded_by, created_at
`

func scanRevenue(s scanner) (*revenue.Revenue, error) {
	var r revenue.Revenue

	if err := s.Scan(
		&r.ID, &r.ORNumber, &r.CategoryID, &r.Amount, &r.Payer,
		&r.Description, &r.ReceivedAt, &r.RecordedBy, &r.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &r, nil
}

// RecordRevenue inserts the revenue row and credits the fund balance in
// one transaction, so a collection can never exist without its ledger
// entry or vice versa.
func (s *Store) RecordRevenue(ctx context.Context, r *revenue.Revenue) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO revenues (or_number, category_id, amount, payer, description, received_at, recorded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		RETURNING id, created_at
	`

	err = tx.QueryRowContext(ctx, query,
		r.ORNumber, r.CategoryID, r.Amount, r.Payer, r.Description, r.ReceivedAt, r.RecordedBy,
	).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return revenue.ErrDuplicateORNumber
		}

		return fmt.Errorf("inserting revenue: %w", err)
	}

	err = ledgerstore.ApplyCredit(ctx, tx, ledger.EntryParams{
		Action:  ledger.ActionRevenueCollection,
		Amount:  r.Amount,
		Notes:   fmt.Sprintf("revenue OR %s", r.ORNumber),
		ActedBy: r.RecordedBy,
	})
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing revenue: %w", err)
	}

	return nil
}

func (s *Store) GetRevenue(ctx context.Context, id uuid.UUID) (*revenue.Revenue, error) {
	query := `SELECT ` + selectRevenueColumns + ` FROM revenues WHERE id = $1`

	r, err := scanRevenue(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, revenue.ErrNotFound
		}

		return nil, fmt.Errorf("getting revenue: %w", err)
	}

	return r, nil
}

func (s *Store) ListRevenues(ctx context.Context, f revenue.ListFilter) ([]*revenue.Revenue, error) {
	query := `SELECT ` + selectRevenueColumns + ` FROM revenues WHERE 1=1`

	var args []any

	argIdx := 1

	if f.CategoryID != nil {
		query += fmt.Sprintf(" AND category_id = $%d", argIdx)

		args = append(args, *f.CategoryID)
		argIdx++
	}

	if f.StartDate != nil {
		query += fmt.Sprintf(" AND received_at >= $%d", argIdx)

		args = append(args, *f.StartDate)
		argIdx++
	}

	if f.EndDate != nil {
		query += fmt.Sprintf(" AND received_at <= $%d", argIdx)

		args = append(args, *f.EndDate)
		argIdx++
	}

	query += " ORDER BY received_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing revenues: %w", err)
	}
	defer rows.Close()

	var revenues []*revenue.Revenue

	for rows.Next() {
		r, err := scanRevenue(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning revenue: %w", err)
		}

		revenues = append(revenues, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating revenue rows: %w", err)
	}

	return revenues, nil
}
