package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/barangaylink/treasury/internal/ledger"
)

// DBTX is the subset of database/sql needed by the balance helpers.
// It is satisfied by both *sql.DB and *sql.Tx so that the budget,
// expense and revenue stores can apply ledger mutations inside their
// own transactions.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ApplyDebit deducts a positive amount from the fund balance and appends
// the matching history entry. The balance row is locked for the duration
// of the enclosing transaction. Returns ledger.ErrNotFound if no balance
// exists and ledger.ErrInsufficientFunds if the balance would go negative.
func ApplyDebit(ctx context.Context, db DBTX, p ledger.EntryParams) error {
	old, err := lockBalance(ctx, db)
	if err != nil {
		return err
	}

	newBalance := old.Sub(p.Amount)
	if newBalance.IsNegative() {
		return ledger.ErrInsufficientFunds
	}

	if err := updateBalance(ctx, db, newBalance, p.ActedBy); err != nil {
		return err
	}

	return appendHistory(ctx, db, historyRow{
		Action:     p.Action,
		OldBalance: old,
		NewBalance: newBalance,
		Change:     p.Amount.Neg(),
		Notes:      p.Notes,
		CreatedBy:  p.ActedBy,
	})
}

// ApplyCredit adds a positive amount to the fund balance and appends the
// matching history entry. Returns ledger.ErrNotFound if no balance exists.
func ApplyCredit(ctx context.Context, db DBTX, p ledger.EntryParams) error {
	old, err := lockBalance(ctx, db)
	if err != nil {
		return err
	}

	newBalance := old.Add(p.Amount)

	if err := updateBalance(ctx, db, newBalance, p.ActedBy); err != nil {
		return err
	}

	return appendHistory(ctx, db, historyRow{
		Action:     p.Action,
		OldBalance: old,
		NewBalance: newBalance,
		Change:     p.Amount,
		Notes:      p.Notes,
		CreatedBy:  p.ActedBy,
	})
}

// lockBalance reads the singleton balance row FOR UPDATE so concurrent
// mutations serialize on it until the transaction ends.
func lockBalance(ctx context.Context, db DBTX) (decimal.Decimal, error) {
	var current decimal.Decimal
	if err := db.QueryRowContext(ctx, `SELECT current_balance FROM fund_balance FOR UPDATE`).Scan(&current); err != nil {
		if err == sql.ErrNoRows {
			return decimal.Zero, ledger.ErrNotFound
		}

		return decimal.Zero, fmt.Errorf("locking balance: %w", err)
	}

	return current, nil
}

func insertBalance(ctx context.Context, db DBTX, amount decimal.Decimal, actor string) error {
	query := `
		INSERT INTO fund_balance (id, current_balance, updated_at, updated_by)
		VALUES (true, $1, NOW(), $2)
	`

	if _, err := db.ExecContext(ctx, query, amount, actor); err != nil {
		return fmt.Errorf("inserting balance: %w", err)
	}

	return nil
}

func updateBalance(ctx context.Context, db DBTX, amount decimal.Decimal, actor string) error {
	query := `
		UPDATE fund_balance
		SET current_balance = $1, updated_at = NOW(), updated_by = $2
	`

	if _, err := db.ExecContext(ctx, query, amount, actor); err != nil {
		return fmt.Errorf("updating balance: %w", err)
	}

	return nil
}

type historyRow struct {
	Action     ledger.ActionType
	OldBalance decimal.Decimal
	NewBalance decimal.Decimal
	Change     decimal.Decimal
	Notes      string
	CreatedBy  string
}

func appendHistory(ctx context.Context, db DBTX, row historyRow) error {
	query := `
		INSERT INTO balance_history (action, old_balance, new_balance, amount_changed, notes, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`

	if _, err := db.ExecContext(ctx, query,
		row.Action, row.OldBalance, row.NewBalance, row.Change, row.Notes, row.CreatedBy,
	); err != nil {
		return fmt.Errorf("appending history entry: %w", err)
	}

	return nil
}
