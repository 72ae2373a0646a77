package memory

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"geoquiz-service/internal/app"
	"geoquiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// CachedSource caches category payloads with TTL to avoid repeated reads of the backing source.
type CachedSource struct {
	source app.ContentSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedCategory
}

type cachedCategory struct {
	payload   domain.CategoryPayload
	expiresAt time.Time
}

func NewCachedSource(source app.ContentSource, ttl time.Duration) *CachedSource {
	return &CachedSource{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedCategory),
	}
}

func (c *CachedSource) FetchCategory(ctx context.Context, categoryID string) (domain.CategoryPayload, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[categoryID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.payload, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(categoryID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[categoryID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.payload, nil
		}
		c.mu.RUnlock()

		payload, err := c.source.FetchCategory(ctx, categoryID)
		if err != nil {
			return domain.CategoryPayload{}, err
		}

		expiresAt := now.Add(c.ttlWithJitter())
		c.mu.Lock()
		c.cache[categoryID] = cachedCategory{
			payload:   payload,
			expiresAt: expiresAt,
		}
		c.mu.Unlock()
		return payload, nil
	})
	if err != nil {
		return domain.CategoryPayload{}, err
	}
	return result.(domain.CategoryPayload), nil
}

func (c *CachedSource) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// StaticSource is a content source backed by an in-memory map (useful for tests/demos).
type StaticSource struct {
	categories map[string]domain.CategoryPayload
}

func NewStaticSource(categories map[string]domain.CategoryPayload) *StaticSource {
	return &StaticSource{categories: categories}
}

func (s *StaticSource) FetchCategory(_ context.Context, categoryID string) (domain.CategoryPayload, error) {
	if payload, ok := s.categories[categoryID]; ok {
		return payload, nil
	}
	return domain.CategoryPayload{}, domain.ErrContentUnavailable
}

// Categories lists the held categories ordered by id.
func (s *StaticSource) Categories(_ context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, 0, len(s.categories))
	for id, payload := range s.categories {
		name := payload.Name
		if name == "" {
			name = id
		}
		out = append(out, domain.Category{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
