package expense_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barangaylink/treasury/internal/budget"
	"github.com/barangaylink/treasury/internal/expense"
	"github.com/barangaylink/treasury/internal/ledger"
)

// fakeLedger mimics the fund balance with the same guards as the real
// store helpers.
type fakeLedger struct {
	exists  bool
	balance decimal.Decimal
	entries []ledger.EntryParams
}

func (l *fakeLedger) debit(p ledger.EntryParams) error {
	if !l.exists {
		return ledger.ErrNotFound
	}

	if l.balance.Sub(p.Amount).IsNegative() {
		return ledger.ErrInsufficientFunds
	}

	l.balance = l.balance.Sub(p.Amount)
	l.entries = append(l.entries, p)

	return nil
}

// fakeAllocations doubles as the expense repository's allocation table
// and the service's AllocationGetter.
type fakeAllocations struct {
	allocs map[uuid.UUID]*budget.Allocation
}

func (f *fakeAllocations) Get(_ context.Context, id uuid.UUID) (*budget.Allocation, error) {
	a, ok := f.allocs[id]
	if !ok {
		return nil, budget.ErrNotFound
	}

	clone := *a

	return &clone, nil
}

type fakeRepo struct {
	ledger   *fakeLedger
	allocs   *fakeAllocations
	expenses map[uuid.UUID]*expense.Expense
	refSeq   int
}

func newFakeRepo(l *fakeLedger, allocs *fakeAllocations) *fakeRepo {
	return &fakeRepo{
		ledger:   l,
		allocs:   allocs,
		expenses: make(map[uuid.UUID]*expense.Expense),
	}
}

func (r *fakeRepo) nextRef() string {
	r.refSeq++
	return fmt.Sprintf("EXP-2025-%06d", r.refSeq)
}

func (r *fakeRepo) CreateExpense(_ context.Context, e *expense.Expense) error {
	e.ID = uuid.New()
	if e.ReferenceNumber == "" {
		e.ReferenceNumber = r.nextRef()
	}
	e.CreatedAt = time.Now()

	clone := *e
	r.expenses[e.ID] = &clone

	return nil
}

func (r *fakeRepo) GetExpense(_ context.Context, id uuid.UUID) (*expense.Expense, error) {
	e, ok := r.expenses[id]
	if !ok {
		return nil, expense.ErrNotFound
	}

	clone := *e

	return &clone, nil
}

func (r *fakeRepo) ListExpenses(_ context.Context, _ expense.ListFilter) ([]*expense.Expense, error) {
	out := make([]*expense.Expense, 0, len(r.expenses))
	for _, e := range r.expenses {
		clone := *e
		out = append(out, &clone)
	}

	return out, nil
}

func (r *fakeRepo) SetStatus(_ context.Context, id uuid.UUID, from, to expense.Status, actor string) error {
	stored, ok := r.expenses[id]
	if !ok {
		return expense.ErrNotFound
	}

	if stored.Status != from {
		return expense.ErrInvalidTransition
	}

	stored.Status = to
	if to == expense.StatusApproved {
		stored.ApprovedBy = &actor
	}

	return nil
}

func (r *fakeRepo) BeginRelease(_ context.Context, id uuid.UUID) (expense.ReleaseTx, error) {
	e, ok := r.expenses[id]
	if !ok {
		return nil, expense.ErrNotFound
	}

	clone := *e

	return &fakeReleaseTx{repo: r, exp: &clone}, nil
}

func (r *fakeRepo) BeginImport(_ context.Context) (expense.ImportTx, error) {
	return &fakeImportTx{repo: r}, nil
}

// fakeReleaseTx stages its writes and applies them on Commit, matching
// the all-or-nothing behavior of the real transaction.
type fakeReleaseTx struct {
	repo       *fakeRepo
	exp        *expense.Expense
	debit      *ledger.EntryParams
	spentAlloc *uuid.UUID
	spentAmt   decimal.Decimal
	releasedBy string
	released   bool
}

func (tx *fakeReleaseTx) Expense() *expense.Expense { return tx.exp }

func (tx *fakeReleaseTx) Debit(_ context.Context, p ledger.EntryParams) error {
	if !tx.repo.ledger.exists {
		return ledger.ErrNotFound
	}

	if tx.repo.ledger.balance.Sub(p.Amount).IsNegative() {
		return ledger.ErrInsufficientFunds
	}

	tx.debit = &p

	return nil
}

func (tx *fakeReleaseTx) AddSpent(_ context.Context, allocationID uuid.UUID, amount decimal.Decimal) error {
	if _, ok := tx.repo.allocs.allocs[allocationID]; !ok {
		return budget.ErrNotFound
	}

	tx.spentAlloc = &allocationID
	tx.spentAmt = amount

	return nil
}

func (tx *fakeReleaseTx) MarkReleased(_ context.Context, releasedBy string) error {
	tx.released = true
	tx.releasedBy = releasedBy

	return nil
}

func (tx *fakeReleaseTx) Commit() error {
	if tx.debit != nil {
		if err := tx.repo.ledger.debit(*tx.debit); err != nil {
			return err
		}
	}

	if tx.spentAlloc != nil {
		a := tx.repo.allocs.allocs[*tx.spentAlloc]
		a.Spent = a.Spent.Add(tx.spentAmt)
		a.Remaining = a.Allocated.Sub(a.Spent)
	}

	if tx.released {
		stored := tx.repo.expenses[tx.exp.ID]
		stored.Status = expense.StatusReleased
		stored.ReleasedBy = &tx.releasedBy

		now := time.Now()
		stored.ReleaseDate = &now
	}

	return nil
}

func (tx *fakeReleaseTx) Rollback() error { return nil }

type fakeImportTx struct {
	repo    *fakeRepo
	staged  []*expense.Expense
	applied bool
}

func (tx *fakeImportTx) FindExistingReferences(_ context.Context, refs []string) ([]string, error) {
	var existing []string
	for _, ref := range refs {
		for _, e := range tx.repo.expenses {
			if e.ReferenceNumber == ref {
				existing = append(existing, ref)
				break
			}
		}
	}

	return existing, nil
}

func (tx *fakeImportTx) CreateExpenses(_ context.Context, expenses []*expense.Expense) error {
	tx.staged = expenses
	return nil
}

func (tx *fakeImportTx) Commit() error {
	for _, e := range tx.staged {
		e.ID = uuid.New()
		e.CreatedAt = time.Now()

		clone := *e
		tx.repo.expenses[e.ID] = &clone
	}

	tx.applied = true

	return nil
}

func (tx *fakeImportTx) Rollback() error { return nil }

func amount(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// approvedAllocation seeds an allocation as if it had already gone
// through approval, with the matching reservation taken off the ledger.
func approvedAllocation(l *fakeLedger, allocs *fakeAllocations, allocated string) uuid.UUID {
	id := uuid.New()
	amt := amount(allocated)

	allocs.allocs[id] = &budget.Allocation{
		ID:         id,
		FiscalYear: 2025,
		CategoryID: uuid.New(),
		Allocated:  amt,
		Spent:      decimal.Zero,
		Remaining:  amt,
		Status:     budget.StatusApproved,
	}

	l.balance = l.balance.Sub(amt)

	return id
}

func TestService_FullLifecycle(t *testing.T) {
	l := &fakeLedger{exists: true, balance: amount("100000.00")}
	allocs := &fakeAllocations{allocs: make(map[uuid.UUID]*budget.Allocation)}
	repo := newFakeRepo(l, allocs)
	svc := expense.NewService(repo, allocs)

	allocID := approvedAllocation(l, allocs, "20000.00")
	require.True(t, l.balance.Equal(amount("80000.00")))

	e, err := svc.Submit(context.Background(), expense.SubmitParams{
		CategoryID:    allocs.allocs[allocID].CategoryID,
		AllocationID:  &allocID,
		Amount:        amount("5000.00"),
		Payee:         "Sto. Niño Hardware",
		Description:   "cement and rebar",
		ExpenseDate:   time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		PaymentMethod: "check",
		ActedBy:       "treasurer",
	})
	require.NoError(t, err)
	assert.Equal(t, expense.StatusPending, e.Status)
	assert.Equal(t, "EXP-2025-000001", e.ReferenceNumber)

	// Submission and approval move no money.
	require.NoError(t, svc.Approve(context.Background(), e.ID, "captain"))
	assert.True(t, l.balance.Equal(amount("80000.00")))
	assert.Empty(t, l.entries)

	approved, err := svc.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, "captain", *approved.ApprovedBy)

	require.NoError(t, svc.Release(context.Background(), e.ID, "treasurer"))

	assert.True(t, l.balance.Equal(amount("75000.00")))
	require.Len(t, l.entries, 1)
	assert.Equal(t, ledger.ActionExpenseRelease, l.entries[0].Action)
	assert.Contains(t, l.entries[0].Notes, "EXP-2025-000001")

	released, err := svc.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusReleased, released.Status)
	require.NotNil(t, released.ReleasedBy)
	assert.Equal(t, "treasurer", *released.ReleasedBy)

	a := allocs.allocs[allocID]
	assert.True(t, a.Spent.Equal(amount("5000.00")))
	assert.True(t, a.Remaining.Equal(amount("15000.00")))

	// Released is terminal: nothing moves afterwards.
	assert.ErrorIs(t, svc.Approve(context.Background(), e.ID, "captain"), expense.ErrInvalidTransition)
	assert.ErrorIs(t, svc.Release(context.Background(), e.ID, "treasurer"), expense.ErrInvalidTransition)
	assert.ErrorIs(t, svc.Cancel(context.Background(), e.ID, "treasurer"), expense.ErrInvalidTransition)
	assert.True(t, l.balance.Equal(amount("75000.00")))
	assert.Len(t, l.entries, 1)
}

func TestService_Submit_BudgetChecks(t *testing.T) {
	l := &fakeLedger{exists: true, balance: amount("100000.00")}
	allocs := &fakeAllocations{allocs: make(map[uuid.UUID]*budget.Allocation)}
	svc := expense.NewService(newFakeRepo(l, allocs), allocs)

	allocID := approvedAllocation(l, allocs, "10000.00")

	_, err := svc.Submit(context.Background(), expense.SubmitParams{
		CategoryID:   uuid.New(),
		AllocationID: &allocID,
		Amount:       amount("10000.01"),
		ActedBy:      "treasurer",
	})
	assert.ErrorIs(t, err, expense.ErrAllocationExceeded)

	// Exactly the remaining amount is allowed.
	_, err = svc.Submit(context.Background(), expense.SubmitParams{
		CategoryID:   uuid.New(),
		AllocationID: &allocID,
		Amount:       amount("10000.00"),
		Payee:        "supplier",
		ExpenseDate:  time.Now(),
		ActedBy:      "treasurer",
	})
	assert.NoError(t, err)

	draftID := uuid.New()
	allocs.allocs[draftID] = &budget.Allocation{
		ID:        draftID,
		Allocated: amount("500.00"),
		Remaining: amount("500.00"),
		Status:    budget.StatusDraft,
	}

	_, err = svc.Submit(context.Background(), expense.SubmitParams{
		CategoryID:   uuid.New(),
		AllocationID: &draftID,
		Amount:       amount("100.00"),
		ActedBy:      "treasurer",
	})
	assert.ErrorIs(t, err, expense.ErrAllocationNotApproved)

	missing := uuid.New()
	_, err = svc.Submit(context.Background(), expense.SubmitParams{
		CategoryID:   uuid.New(),
		AllocationID: &missing,
		Amount:       amount("100.00"),
		ActedBy:      "treasurer",
	})
	assert.ErrorIs(t, err, budget.ErrNotFound)

	_, err = svc.Submit(context.Background(), expense.SubmitParams{
		CategoryID: uuid.New(),
		Amount:     decimal.Zero,
		ActedBy:    "treasurer",
	})
	assert.ErrorIs(t, err, expense.ErrInvalidAmount)
}

func TestService_RejectAndCancel(t *testing.T) {
	l := &fakeLedger{exists: true, balance: amount("50000.00")}
	allocs := &fakeAllocations{allocs: make(map[uuid.UUID]*budget.Allocation)}
	repo := newFakeRepo(l, allocs)
	svc := expense.NewService(repo, allocs)

	rejected, err := svc.Submit(context.Background(), expense.SubmitParams{
		CategoryID:  uuid.New(),
		Amount:      amount("200.00"),
		Payee:       "supplier",
		ExpenseDate: time.Now(),
		ActedBy:     "treasurer",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Reject(context.Background(), rejected.ID, "captain"))

	got, err := svc.Get(context.Background(), rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusRejected, got.Status)

	// Cancel only applies to approved expenses.
	cancelled, err := svc.Submit(context.Background(), expense.SubmitParams{
		CategoryID:  uuid.New(),
		Amount:      amount("300.00"),
		Payee:       "supplier",
		ExpenseDate: time.Now(),
		ActedBy:     "treasurer",
	})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Cancel(context.Background(), cancelled.ID, "captain"), expense.ErrInvalidTransition)

	require.NoError(t, svc.Approve(context.Background(), cancelled.ID, "captain"))
	require.NoError(t, svc.Cancel(context.Background(), cancelled.ID, "captain"))

	got, err = svc.Get(context.Background(), cancelled.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusCancelled, got.Status)

	// Neither path touched the ledger.
	assert.True(t, l.balance.Equal(amount("50000.00")))
	assert.Empty(t, l.entries)
}

func TestService_Release_InsufficientFunds(t *testing.T) {
	l := &fakeLedger{exists: true, balance: amount("1000.00")}
	allocs := &fakeAllocations{allocs: make(map[uuid.UUID]*budget.Allocation)}
	repo := newFakeRepo(l, allocs)
	svc := expense.NewService(repo, allocs)

	e, err := svc.Submit(context.Background(), expense.SubmitParams{
		CategoryID:  uuid.New(),
		Amount:      amount("2500.00"),
		Payee:       "supplier",
		ExpenseDate: time.Now(),
		ActedBy:     "treasurer",
	})
	require.NoError(t, err)
	require.NoError(t, svc.Approve(context.Background(), e.ID, "captain"))

	err = svc.Release(context.Background(), e.ID, "treasurer")
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)

	// The expense stays approved and can be released once funds arrive.
	got, err := svc.Get(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, expense.StatusApproved, got.Status)
	assert.True(t, l.balance.Equal(amount("1000.00")))
	assert.Empty(t, l.entries)
}

func TestService_Release_NotApproved(t *testing.T) {
	l := &fakeLedger{exists: true, balance: amount("10000.00")}
	allocs := &fakeAllocations{allocs: make(map[uuid.UUID]*budget.Allocation)}
	svc := expense.NewService(newFakeRepo(l, allocs), allocs)

	e, err := svc.Submit(context.Background(), expense.SubmitParams{
		CategoryID:  uuid.New(),
		Amount:      amount("100.00"),
		Payee:       "supplier",
		ExpenseDate: time.Now(),
		ActedBy:     "treasurer",
	})
	require.NoError(t, err)

	err = svc.Release(context.Background(), e.ID, "treasurer")
	assert.ErrorIs(t, err, expense.ErrInvalidTransition)
	assert.True(t, l.balance.Equal(amount("10000.00")))

	err = svc.Release(context.Background(), uuid.New(), "treasurer")
	assert.ErrorIs(t, err, expense.ErrNotFound)
}

func TestService_ImportBatch(t *testing.T) {
	l := &fakeLedger{exists: true, balance: amount("10000.00")}
	allocs := &fakeAllocations{allocs: make(map[uuid.UUID]*budget.Allocation)}
	repo := newFakeRepo(l, allocs)
	svc := expense.NewService(repo, allocs)

	categoryID := uuid.New()

	rows := []expense.ImportParams{
		{
			ReferenceNumber: "LEG-001",
			CategoryID:      categoryID,
			Amount:          amount("150.00"),
			Payee:           "Peña Store",
			ExpenseDate:     time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			ReferenceNumber: "LEG-002",
			CategoryID:      categoryID,
			Amount:          amount("320.00"),
			Payee:           "Niño Trading",
			ExpenseDate:     time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		},
	}

	res, err := svc.ImportBatch(context.Background(), rows, "treasurer")
	require.NoError(t, err)
	assert.Empty(t, res.Conflicts)
	require.Len(t, res.Imported, 2)

	for _, e := range res.Imported {
		assert.Equal(t, expense.StatusPending, e.Status)
		assert.Equal(t, "treasurer", e.RequestedBy)
	}

	// Imported rows never touch the ledger.
	assert.True(t, l.balance.Equal(amount("10000.00")))

	// Re-importing a batch that overlaps inserts nothing at all.
	res, err = svc.ImportBatch(context.Background(), []expense.ImportParams{
		{ReferenceNumber: "LEG-002", CategoryID: categoryID, Amount: amount("320.00")},
		{ReferenceNumber: "LEG-003", CategoryID: categoryID, Amount: amount("75.00")},
	}, "treasurer")
	require.NoError(t, err)
	assert.Equal(t, []string{"LEG-002"}, res.Conflicts)
	assert.Empty(t, res.Imported)

	all, err := svc.List(context.Background(), expense.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	// Empty batch is a no-op.
	res, err = svc.ImportBatch(context.Background(), nil, "treasurer")
	require.NoError(t, err)
	assert.Empty(t, res.Imported)
	assert.Empty(t, res.Conflicts)
}
