package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"flashdeck-service/internal/domain"
)

// DeckLoader fetches the current cards of a set from the backend. The
// gateway satisfies this directly.
type DeckLoader interface {
	ListCards(ctx context.Context, token, setID string) ([]domain.Flashcard, error)
}

// DeckCache caches card collections with TTL so starting a quiz twice
// in a row does not hammer the gateway. Mutating operations must call
// Invalidate so the next quiz sees fresh cards.
type DeckCache struct {
	loader DeckLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedDeck
}

type cachedDeck struct {
	cards     []domain.Flashcard
	expiresAt time.Time
}

func NewDeckCache(loader DeckLoader, ttl time.Duration) *DeckCache {
	return &DeckCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedDeck),
	}
}

func (c *DeckCache) GetCards(ctx context.Context, token, setID string) ([]domain.Flashcard, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[setID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return copyCards(entry.cards), nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(setID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[setID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.cards, nil
		}
		c.mu.RUnlock()

		cards, err := c.loader.ListCards(ctx, token, setID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[setID] = cachedDeck{
			cards:     cards,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return cards, nil
	})
	if err != nil {
		return nil, err
	}
	return copyCards(result.([]domain.Flashcard)), nil
}

// Invalidate drops the cached deck for a set.
func (c *DeckCache) Invalidate(setID string) {
	c.mu.Lock()
	delete(c.cache, setID)
	c.mu.Unlock()
}

func (c *DeckCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func copyCards(cards []domain.Flashcard) []domain.Flashcard {
	out := make([]domain.Flashcard, len(cards))
	copy(out, cards)
	return out
}
