package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"geoquiz-service/internal/domain"
)

func TestCachedSourceCaches(t *testing.T) {
	source := &countingSource{
		StaticSource: NewStaticSource(map[string]domain.CategoryPayload{
			"world": sampleCategory(),
		}),
	}
	cached := NewCachedSource(source, time.Minute)

	if _, err := cached.FetchCategory(context.Background(), "world"); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected source once, got %d", source.calls)
	}

	if _, err := cached.FetchCategory(context.Background(), "world"); err != nil {
		t.Fatalf("fetch 2: %v", err)
	}
	if source.calls != 1 {
		t.Fatalf("expected cache hit, source calls %d", source.calls)
	}
}

func TestCachedSourceDoesNotCacheMisses(t *testing.T) {
	source := &countingSource{StaticSource: NewStaticSource(nil)}
	cached := NewCachedSource(source, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := cached.FetchCategory(context.Background(), "nope"); !errors.Is(err, domain.ErrContentUnavailable) {
			t.Fatalf("expected ErrContentUnavailable, got %v", err)
		}
	}
	if source.calls != 2 {
		t.Fatalf("expected misses to reach the source, got %d calls", source.calls)
	}
}

type countingSource struct {
	*StaticSource
	calls int
}

func (s *countingSource) FetchCategory(ctx context.Context, categoryID string) (domain.CategoryPayload, error) {
	s.calls++
	return s.StaticSource.FetchCategory(ctx, categoryID)
}

func sampleCategory() domain.CategoryPayload {
	zero := 0
	return domain.CategoryPayload{
		ID:   "world",
		Name: "World",
		Questions: map[string]domain.RawQuestion{
			"q1": {
				Text:         "Largest ocean?",
				Options:      domain.OptionSet{"Pacific", "Atlantic", "Indian", "Arctic"},
				CorrectIndex: &zero,
				Points:       1,
			},
		},
	}
}

func TestStaticSourceCategories(t *testing.T) {
	source := NewStaticSource(map[string]domain.CategoryPayload{
		"rivers":   {ID: "rivers"},
		"capitals": {ID: "capitals", Name: "Capitals"},
	})
	cats, err := source.Categories(context.Background())
	if err != nil {
		t.Fatalf("categories: %v", err)
	}
	if len(cats) != 2 || cats[0].ID != "capitals" || cats[0].Name != "Capitals" || cats[1].Name != "rivers" {
		t.Fatalf("unexpected categories %+v", cats)
	}
}
