package revenue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Repository interface {
	// RecordRevenue inserts the revenue row and credits the fund balance
	// in one transaction.
	RecordRevenue(ctx context.Context, r *Revenue) error
	GetRevenue(ctx context.Context, id uuid.UUID) (*Revenue, error)
	ListRevenues(ctx context.Context, f ListFilter) ([]*Revenue, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type RecordParams struct {
	ORNumber    string
	CategoryID  uuid.UUID
	Amount      decimal.Decimal
	Payer       string
	Description string
	ReceivedAt  time.Time
	ActedBy     string
}

type ListFilter struct {
	CategoryID *uuid.UUID
	StartDate  *time.Time
	EndDate    *time.Time
}

// Record stores a collection and credits the ledger by its amount. The
// fund balance must already exist; collections cannot create it.
func (s *Service) Record(ctx context.Context, params RecordParams) (*Revenue, error) {
	if !params.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	r := &Revenue{
		ORNumber:    params.ORNumber,
		CategoryID:  params.CategoryID,
		Amount:      params.Amount,
		Payer:       params.Payer,
		Description: params.Description,
		ReceivedAt:  params.ReceivedAt,
		RecordedBy:  params.ActedBy,
	}
	if err := s.repo.RecordRevenue(ctx, r); err != nil {
		return nil, err
	}

	return r, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Revenue, error) {
	return s.repo.GetRevenue(ctx, id)
}

func (s *Service) List(ctx context.Context, f ListFilter) ([]*Revenue, error) {
	return s.repo.ListRevenues(ctx, f)
}
