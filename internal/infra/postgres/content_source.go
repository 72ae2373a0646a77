package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"geoquiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ContentSource loads category question pools stored as JSONB in the categories table.
type ContentSource struct {
	pool *pgxpool.Pool
}

func NewContentSource(pool *pgxpool.Pool) *ContentSource {
	return &ContentSource{pool: pool}
}

func (s *ContentSource) FetchCategory(ctx context.Context, categoryID string) (domain.CategoryPayload, error) {
	var (
		name string
		raw  []byte
	)
	err := s.pool.QueryRow(ctx, `SELECT name, data FROM categories WHERE id=$1`, categoryID).Scan(&name, &raw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CategoryPayload{}, fmt.Errorf("%w: category %s not found", domain.ErrContentUnavailable, categoryID)
		}
		return domain.CategoryPayload{}, fmt.Errorf("%w: load category: %v", domain.ErrContentUnavailable, err)
	}

	var questions map[string]domain.RawQuestion
	if err := json.Unmarshal(raw, &questions); err != nil {
		return domain.CategoryPayload{}, fmt.Errorf("%w: unmarshal category %s: %v", domain.ErrContentUnavailable, categoryID, err)
	}
	return domain.CategoryPayload{ID: categoryID, Name: name, Questions: questions}, nil
}

// Categories lists the stored category ids with their display names.
func (s *ContentSource) Categories(ctx context.Context) ([]domain.Category, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
