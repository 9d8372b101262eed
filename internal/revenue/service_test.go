package revenue_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barangaylink/treasury/internal/revenue"
)

type fakeRepo struct {
	orNumbers map[string]bool
	recorded  []*revenue.Revenue
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orNumbers: make(map[string]bool)}
}

func (r *fakeRepo) RecordRevenue(_ context.Context, rev *revenue.Revenue) error {
	if r.orNumbers[rev.ORNumber] {
		return revenue.ErrDuplicateORNumber
	}

	rev.ID = uuid.New()
	rev.CreatedAt = time.Now()

	r.orNumbers[rev.ORNumber] = true
	r.recorded = append(r.recorded, rev)

	return nil
}

func (r *fakeRepo) GetRevenue(_ context.Context, id uuid.UUID) (*revenue.Revenue, error) {
	for _, rev := range r.recorded {
		if rev.ID == id {
			return rev, nil
		}
	}

	return nil, revenue.ErrNotFound
}

func (r *fakeRepo) ListRevenues(_ context.Context, _ revenue.ListFilter) ([]*revenue.Revenue, error) {
	return r.recorded, nil
}

func TestService_Record(t *testing.T) {
	repo := newFakeRepo()
	svc := revenue.NewService(repo)

	rev, err := svc.Record(context.Background(), revenue.RecordParams{
		ORNumber:   "OR-2025-0001",
		CategoryID: uuid.New(),
		Amount:     decimal.RequireFromString("350.00"),
		Payer:      "Juan dela Cruz",
		ReceivedAt: time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC),
		ActedBy:    "treasurer",
	})
	require.NoError(t, err)
	assert.Equal(t, "treasurer", rev.RecordedBy)

	// Duplicate OR number.
	_, err = svc.Record(context.Background(), revenue.RecordParams{
		ORNumber:   "OR-2025-0001",
		CategoryID: uuid.New(),
		Amount:     decimal.RequireFromString("100.00"),
		ActedBy:    "treasurer",
	})
	assert.ErrorIs(t, err, revenue.ErrDuplicateORNumber)

	// Zero and negative amounts never reach the repository.
	_, err = svc.Record(context.Background(), revenue.RecordParams{
		ORNumber: "OR-2025-0002",
		Amount:   decimal.Zero,
		ActedBy:  "treasurer",
	})
	assert.ErrorIs(t, err, revenue.ErrInvalidAmount)
	assert.Len(t, repo.recorded, 1)
}

func TestService_Get_NotFound(t *testing.T) {
	svc := revenue.NewService(newFakeRepo())

	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, revenue.ErrNotFound)
}
