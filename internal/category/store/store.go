package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/barangaylink/treasury/internal/category"
)

const pgUniqueViolation = "23505"

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) CreateCategory(ctx context.Context, c *category.Category) error {
	query := `
		INSERT INTO categories (kind, code, name, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, created_at
	`

	err := s.db.QueryRowContext(ctx, query, c.Kind, c.Code, c.Name).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return category.ErrDuplicateCode
		}

		return fmt.Errorf("creating category: %w", err)
	}

	return nil
}

func (s *Store) GetCategory(ctx context.Context, id uuid.UUID) (*category.Category, error) {
	query := `SELECT id, kind, code, name, created_at FROM categories WHERE id = $1`

	return s.getOne(ctx, query, id)
}

func (s *Store) GetByCode(ctx context.Context, kind category.Kind, code string) (*category.Category, error) {
	query := `SELECT id, kind, code, name, created_at FROM categories WHERE kind = $1 AND code = $2`

	return s.getOne(ctx, query, kind, code)
}

func (s *Store) getOne(ctx context.Context, query string, args ...any) (*category.Category, error) {
	var c category.Category

	var kind string

	err := s.db.QueryRowContext(ctx, query, args...).
		Scan(&c.ID, &kind, &c.Code, &c.Name, &c.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, category.ErrNotFound
		}

		return nil, fmt.Errorf("getting category: %w", err)
	}

	c.Kind = category.Kind(kind)

	return &c, nil
}

func (s *Store) ListCategories(ctx context.Context, kind category.Kind) ([]*category.Category, error) {
	query := `SELECT id, kind, code, name, created_at FROM categories WHERE kind = $1 ORDER BY code ASC`

	rows, err := s.db.QueryContext(ctx, query, kind)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []*category.Category

	for rows.Next() {
		var c category.Category

		var kindStr string

		if err := rows.Scan(&c.ID, &kindStr, &c.Code, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}

		c.Kind = category.Kind(kindStr)

		categories = append(categories, &c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating category rows: %w", err)
	}

	return categories, nil
}
