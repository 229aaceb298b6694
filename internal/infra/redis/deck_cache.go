package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"flashdeck-service/internal/domain"
)

// DeckLoader fetches the current cards of a set from the backend.
type DeckLoader interface {
	ListCards(ctx context.Context, token, setID string) ([]domain.Flashcard, error)
}

// DeckCache caches each set's cards in Redis as one JSON array under
// deck:{setID}:cards and falls back to the loader on a miss. A single
// value keyed per set (rather than a hash of cards) keeps the insertion
// order that quiz snapshots depend on.
type DeckCache struct {
	client *redis.Client
	loader DeckLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewDeckCache(client *redis.Client, loader DeckLoader, ttl time.Duration) *DeckCache {
	return &DeckCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *DeckCache) GetCards(ctx context.Context, token, setID string) ([]domain.Flashcard, error) {
	key := c.key(setID)

	if cards, ok := c.fromCache(ctx, key); ok {
		return cards, nil
	}

	result, err, _ := c.sf.Do(setID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the key.
		if cards, ok := c.fromCache(ctx, key); ok {
			return cards, nil
		}

		cards, err := c.loader.ListCards(ctx, token, setID)
		if err != nil {
			return nil, err
		}

		if payload, err := json.Marshal(cards); err == nil {
			// best-effort: a failed cache write must not fail the read
			_ = c.client.Set(ctx, key, payload, c.ttlWithJitter()).Err()
		}
		return cards, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Flashcard), nil
}

// Invalidate drops the cached deck for a set.
func (c *DeckCache) Invalidate(setID string) {
	_ = c.client.Del(context.Background(), c.key(setID)).Err()
}

func (c *DeckCache) fromCache(ctx context.Context, key string) ([]domain.Flashcard, bool) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var cards []domain.Flashcard
	if err := json.Unmarshal(raw, &cards); err != nil {
		return nil, false
	}
	return cards, true
}

func (c *DeckCache) key(setID string) string {
	return "deck:" + setID + ":cards"
}

func (c *DeckCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
