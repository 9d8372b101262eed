package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/barangaylink/treasury/internal/ledger"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*ledger.Entry, error) {
	var e ledger.Entry

	var action string

	if err := s.Scan(
		&e.ID, &action, &e.OldBalance, &e.NewBalance, &e.AmountChanged,
		&e.Notes, &e.CreatedBy, &e.CreatedAt,
	); err != nil {
		return nil, err
	}

	e.Action = ledger.ActionType(action)

	return &e, nil
}

func (s *Store) GetBalance(ctx context.Context) (*ledger.FundBalance, error) {
	query := `SELECT current_balance, updated_at, updated_by FROM fund_balance`

	var fb ledger.FundBalance
	if err := s.db.QueryRowContext(ctx, query).Scan(&fb.Current, &fb.UpdatedAt, &fb.UpdatedBy); err != nil {
		if err == sql.ErrNoRows {
			return nil, ledger.ErrNotFound
		}

		return nil, fmt.Errorf("getting balance: %w", err)
	}

	return &fb, nil
}

// SetBalance replaces the balance wholesale. The first set writes an
// initial_set history entry; later sets write balance_updated. Balance
// update and history append share one transaction.
func (s *Store) SetBalance(ctx context.Context, p ledger.SetParams) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	old, err := lockBalance(ctx, tx)

	switch {
	case err == ledger.ErrNotFound:
		if err := insertBalance(ctx, tx, p.Amount, p.ActedBy); err != nil {
			return err
		}

		if err := appendHistory(ctx, tx, historyRow{
			Action:     ledger.ActionInitialSet,
			OldBalance: old,
			NewBalance: p.Amount,
			Change:     p.Amount,
			Notes:      p.Notes,
			CreatedBy:  p.ActedBy,
		}); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		if err := updateBalance(ctx, tx, p.Amount, p.ActedBy); err != nil {
			return err
		}

		if err := appendHistory(ctx, tx, historyRow{
			Action:     ledger.ActionBalanceUpdated,
			OldBalance: old,
			NewBalance: p.Amount,
			Change:     p.Amount.Sub(old),
			Notes:      p.Notes,
			CreatedBy:  p.ActedBy,
		}); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing balance set: %w", err)
	}

	return nil
}

// Adjust applies a manual addition or deduction in one transaction.
func (s *Store) Adjust(ctx context.Context, p ledger.EntryParams) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if p.Action == ledger.ActionManualDeduction {
		err = ApplyDebit(ctx, tx, p)
	} else {
		err = ApplyCredit(ctx, tx, p)
	}

	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing adjustment: %w", err)
	}

	return nil
}

func (s *Store) ListHistory(ctx context.Context, f ledger.HistoryFilter) ([]*ledger.Entry, error) {
	query := `SELECT id, action, old_balance, new_balance, amount_changed, notes, created_by, created_at
		FROM balance_history
		WHERE 1=1`

	var args []any

	argIdx := 1

	if f.Action != nil {
		query += fmt.Sprintf(" AND action = $%d", argIdx)

		args = append(args, *f.Action)
		argIdx++
	}

	if f.StartDate != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)

		args = append(args, *f.StartDate)
		argIdx++
	}

	if f.EndDate != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)

		args = append(args, *f.EndDate)
		argIdx++
	}

	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	defer rows.Close()

	var entries []*ledger.Entry

	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}

	return entries, nil
}
