package postgres

import (
	"context"
	"fmt"
	"sort"

	"geoquiz-service/internal/domain"
	"github.com/uptrace/bun"
)

type categoryRow struct {
	bun.BaseModel `bun:"table:categories"`

	ID        string                        `bun:"id,pk"`
	Name      string                        `bun:"name"`
	Questions map[string]domain.RawQuestion `bun:"data,type:jsonb"`
}

// SeedCategories upserts category pools, replacing the questions of existing ids.
func SeedCategories(ctx context.Context, db *bun.DB, payloads []domain.CategoryPayload) (int, error) {
	if len(payloads) == 0 {
		return 0, nil
	}
	rows := make([]categoryRow, 0, len(payloads))
	for _, p := range payloads {
		name := p.Name
		if name == "" {
			name = p.ID
		}
		questions := p.Questions
		if questions == nil {
			questions = map[string]domain.RawQuestion{}
		}
		rows = append(rows, categoryRow{ID: p.ID, Name: name, Questions: questions})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })

	_, err := db.NewInsert().
		Model(&rows).
		On("CONFLICT (id) DO UPDATE").
		Set("name = EXCLUDED.name").
		Set("data = EXCLUDED.data").
		Exec(ctx)
	if err != nil {
		return 0, fmt.Errorf("seed categories: %w", err)
	}
	return len(rows), nil
}
