package app_test

import (
	"context"
	"errors"
	"testing"

	"geoquiz-service/internal/app"
	"geoquiz-service/internal/domain"
	"geoquiz-service/internal/infra/memory"
)

func TestNormalizeQuestion(t *testing.T) {
	two, five := 2, 5
	cases := []struct {
		name string
		raw  domain.RawQuestion
		ok   bool
	}{
		{name: "valid", raw: domain.RawQuestion{Text: "Q?", Options: domain.OptionSet{"a", "b", "c", "d"}, CorrectIndex: &two}, ok: true},
		{name: "missing text", raw: domain.RawQuestion{Options: domain.OptionSet{"a", "b", "c", "d"}, CorrectIndex: &two}},
		{name: "index out of range", raw: domain.RawQuestion{Text: "Q?", Options: domain.OptionSet{"a", "b", "c", "d"}, CorrectIndex: &five}},
		{name: "defaulted index on placeholder", raw: domain.RawQuestion{Text: "Q?", Options: domain.OptionSet{"", "b", "", ""}}},
		{name: "defaulted index on option", raw: domain.RawQuestion{Text: "Q?", Options: domain.OptionSet{"a", "b", "", ""}}, ok: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			q, ok := app.NormalizeQuestion("q1", tc.raw)
			if ok != tc.ok {
				t.Fatalf("expected ok=%v, got %v (%+v)", tc.ok, ok, q)
			}
			if !ok {
				return
			}
			if len(q.Options) != domain.OptionsPerQuestion || q.Points != 1 || q.Difficulty != "medium" || q.ID != "q1" {
				t.Fatalf("unexpected normalized question %+v", q)
			}
		})
	}
}

func TestPoolLoaderCapsAndShuffles(t *testing.T) {
	source := memory.NewStaticSource(map[string]domain.CategoryPayload{
		"world": makePayload("world", "World", 35),
		"small": makePayload("small", "", 4),
	})
	loader := app.NewPoolLoader(source, app.DefaultMaxQuestions, nil)
	ctx := context.Background()

	pool, err := loader.Load(ctx, "world")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(pool.Questions) != app.DefaultMaxQuestions || pool.Category.Name != "World" {
		t.Fatalf("unexpected pool: %d questions, category %+v", len(pool.Questions), pool.Category)
	}
	seen := make(map[string]bool)
	for _, q := range pool.Questions {
		if seen[q.ID] {
			t.Fatalf("duplicate question %s", q.ID)
		}
		seen[q.ID] = true
	}

	small, err := loader.Load(ctx, "small")
	if err != nil {
		t.Fatalf("load small: %v", err)
	}
	if len(small.Questions) != 4 || small.Category.Name != "small" {
		t.Fatalf("unexpected small pool %+v", small)
	}

	// 35 questions shuffled 20 at a time: identical orders every time would mean no shuffle
	first := idsOf(pool.Questions)
	shuffled := false
	for i := 0; i < 10 && !shuffled; i++ {
		again, _ := loader.Load(ctx, "world")
		shuffled = idsOf(again.Questions) != first
	}
	if !shuffled {
		t.Fatalf("expected the pool order to vary between loads")
	}
}

func TestPlayableCountsWholePool(t *testing.T) {
	payload := makePayload("world", "World", 35)
	payload.Questions["blank"] = domain.RawQuestion{}
	loader := app.NewPoolLoader(memory.NewStaticSource(map[string]domain.CategoryPayload{"world": payload}), app.DefaultMaxQuestions, nil)
	ctx := context.Background()

	cat, n, err := loader.Playable(ctx, "world")
	if err != nil {
		t.Fatalf("playable: %v", err)
	}
	if n != 35 || cat.Name != "World" {
		t.Fatalf("expected 35 playable questions in World, got %d in %+v", n, cat)
	}
	pool, err := loader.Load(ctx, "world")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(pool.Questions) != app.DefaultMaxQuestions {
		t.Fatalf("session pool must stay capped, got %d", len(pool.Questions))
	}
	if _, _, err := loader.Playable(ctx, "moon"); !errors.Is(err, domain.ErrContentUnavailable) {
		t.Fatalf("expected ErrContentUnavailable, got %v", err)
	}
}

func TestPoolLoaderDropsMalformed(t *testing.T) {
	payload := makePayload("world", "World", 3)
	bad := 9
	payload.Questions["broken"] = domain.RawQuestion{Text: "Broken?", Options: domain.OptionSet{"a", "b", "c", "d"}, CorrectIndex: &bad}
	payload.Questions["blank"] = domain.RawQuestion{}

	loader := app.NewPoolLoader(memory.NewStaticSource(map[string]domain.CategoryPayload{"world": payload}), 0, nil)
	pool, err := loader.Load(context.Background(), "world")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(pool.Questions) != 3 {
		t.Fatalf("expected malformed questions dropped, got %d", len(pool.Questions))
	}
}

func TestPoolLoaderContentUnavailable(t *testing.T) {
	loader := app.NewPoolLoader(memory.NewStaticSource(nil), app.DefaultMaxQuestions, nil)
	if _, err := loader.Load(context.Background(), "moon"); !errors.Is(err, domain.ErrContentUnavailable) {
		t.Fatalf("expected ErrContentUnavailable, got %v", err)
	}
}

func idsOf(qs []domain.Question) string {
	out := ""
	for _, q := range qs {
		out += q.ID + ","
	}
	return out
}
