package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"geoquiz-service/internal/domain"
	"go.uber.org/zap"
)

// DefaultMaxQuestions caps how many questions a single session draws from a pool.
const DefaultMaxQuestions = 20

// ContentSource fetches the raw question pool for a category (bundle file, database, cache).
type ContentSource interface {
	FetchCategory(ctx context.Context, categoryID string) (domain.CategoryPayload, error)
}

// CategoryCatalog lists the categories a content source can serve.
type CategoryCatalog interface {
	Categories(ctx context.Context) ([]domain.Category, error)
}

// Pool is a normalized, shuffled working set for one session.
type Pool struct {
	Category  domain.Category
	Questions []domain.Question
}

// PoolLoader turns raw category payloads into capped, shuffled question sets.
type PoolLoader struct {
	source ContentSource
	max    int
	log    *zap.Logger

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewPoolLoader(source ContentSource, maxQuestions int, log *zap.Logger) *PoolLoader {
	if maxQuestions <= 0 {
		maxQuestions = DefaultMaxQuestions
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PoolLoader{
		source: source,
		max:    maxQuestions,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Load returns up to the configured number of questions of the category in random order.
// Any failure of the source, including an absent category, is reported as
// domain.ErrContentUnavailable.
func (l *PoolLoader) Load(ctx context.Context, categoryID string) (Pool, error) {
	payload, err := l.fetch(ctx, categoryID)
	if err != nil {
		return Pool{}, err
	}

	questions := l.normalize(categoryID, payload)

	l.mu.Lock()
	l.rnd.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	l.mu.Unlock()

	if len(questions) > l.max {
		questions = questions[:l.max]
	}
	return Pool{
		Category:  categoryOf(categoryID, payload),
		Questions: questions,
	}, nil
}

// Playable reports the category and how many of its questions survive normalization.
// Unlike Load it applies no per-session cap.
func (l *PoolLoader) Playable(ctx context.Context, categoryID string) (domain.Category, int, error) {
	payload, err := l.fetch(ctx, categoryID)
	if err != nil {
		return domain.Category{}, 0, err
	}
	return categoryOf(categoryID, payload), len(l.normalize(categoryID, payload)), nil
}

func (l *PoolLoader) fetch(ctx context.Context, categoryID string) (domain.CategoryPayload, error) {
	payload, err := l.source.FetchCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, domain.ErrContentUnavailable) {
			return domain.CategoryPayload{}, err
		}
		return domain.CategoryPayload{}, fmt.Errorf("%w: %s: %v", domain.ErrContentUnavailable, categoryID, err)
	}
	return payload, nil
}

func categoryOf(categoryID string, payload domain.CategoryPayload) domain.Category {
	name := payload.Name
	if name == "" {
		name = categoryID
	}
	return domain.Category{ID: categoryID, Name: name}
}

func (l *PoolLoader) normalize(categoryID string, payload domain.CategoryPayload) []domain.Question {
	ids := make([]string, 0, len(payload.Questions))
	for id := range payload.Questions {
		ids = append(ids, id)
	}
	// map order is random; sort first so the shuffle is the only source of randomness
	sort.Strings(ids)

	out := make([]domain.Question, 0, len(ids))
	for _, id := range ids {
		q, ok := NormalizeQuestion(id, payload.Questions[id])
		if !ok {
			l.log.Warn("dropping malformed question",
				zap.String("category_id", categoryID),
				zap.String("question_id", id))
			continue
		}
		out = append(out, q)
	}
	return out
}

// NormalizeQuestion converts a raw question into canonical form. It reports false when the
// question cannot be played: no text, a correct index outside the option slots, or a
// defaulted correct index that points at an empty placeholder.
func NormalizeQuestion(id string, raw domain.RawQuestion) (domain.Question, bool) {
	if raw.ID != "" {
		id = raw.ID
	}
	if raw.Text == "" {
		return domain.Question{}, false
	}

	options := make([]string, domain.OptionsPerQuestion)
	copy(options, raw.Options)

	correct := 0
	explicit := raw.CorrectIndex != nil
	if explicit {
		correct = *raw.CorrectIndex
	}
	if correct < 0 || correct >= len(options) {
		return domain.Question{}, false
	}
	if !explicit && options[correct] == "" {
		return domain.Question{}, false
	}

	points := raw.Points
	if points < 1 {
		points = 1
	}
	difficulty := raw.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}

	return domain.Question{
		ID:           id,
		Text:         raw.Text,
		Options:      options,
		CorrectIndex: correct,
		Explanation:  raw.Explanation,
		Difficulty:   difficulty,
		Points:       points,
	}, true
}
