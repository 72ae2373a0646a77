package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"geoquiz-service/internal/app"
	"geoquiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ContentCache caches category payloads in Redis and falls back to a source on cache miss.
// Payloads are stored as: SET trivia:content:{categoryID} {CategoryPayload JSON} EX ttl
type ContentCache struct {
	client *redis.Client
	source app.ContentSource
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewContentCache(client *redis.Client, source app.ContentSource, ttl time.Duration) *ContentCache {
	return &ContentCache{
		client: client,
		source: source,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *ContentCache) FetchCategory(ctx context.Context, categoryID string) (domain.CategoryPayload, error) {
	key := c.key(categoryID)
	if payload, ok := c.cached(ctx, key); ok {
		return payload, nil
	}

	result, err, _ := c.sf.Do(categoryID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if payload, ok := c.cached(ctx, key); ok {
			return payload, nil
		}

		payload, err := c.source.FetchCategory(ctx, categoryID)
		if err != nil {
			return domain.CategoryPayload{}, err
		}

		// A failed write only costs a cache miss next time.
		if data, err := json.Marshal(payload); err == nil {
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return payload, nil
	})
	if err != nil {
		return domain.CategoryPayload{}, err
	}
	return result.(domain.CategoryPayload), nil
}

// Invalidate drops cached categories so the next fetch reads the source.
func (c *ContentCache) Invalidate(ctx context.Context, categoryIDs ...string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	keys := make([]string, len(categoryIDs))
	for i, id := range categoryIDs {
		keys[i] = c.key(id)
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *ContentCache) cached(ctx context.Context, key string) (domain.CategoryPayload, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.CategoryPayload{}, false
	}
	var payload domain.CategoryPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return domain.CategoryPayload{}, false
	}
	return payload, true
}

func (c *ContentCache) key(categoryID string) string {
	return "trivia:content:" + categoryID
}

func (c *ContentCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
