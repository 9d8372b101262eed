package category

import (
	"context"

	"github.com/google/uuid"
)

//go:generate mockgen -source=service.go -destination=repository_mock.go -package=category
type Repository interface {
	CreateCategory(ctx context.Context, c *Category) error
	GetCategory(ctx context.Context, id uuid.UUID) (*Category, error)
	GetByCode(ctx context.Context, kind Kind, code string) (*Category, error)
	ListCategories(ctx context.Context, kind Kind) ([]*Category, error)
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

type CreateParams struct {
	Kind Kind
	Code string
	Name string
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*Category, error) {
	c := &Category{
		Kind: params.Kind,
		Code: params.Code,
		Name: params.Name,
	}
	if err := s.repo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Category, error) {
	return s.repo.GetCategory(ctx, id)
}

// GetByCode resolves a category by its short code, e.g. ("expense", "SUPPLIES").
func (s *Service) GetByCode(ctx context.Context, kind Kind, code string) (*Category, error) {
	return s.repo.GetByCode(ctx, kind, code)
}

func (s *Service) List(ctx context.Context, kind Kind) ([]*Category, error) {
	return s.repo.ListCategories(ctx, kind)
}
