package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"dyscalc-screening-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionSetLoader fetches an assessment's question set from a backing
// store.
type QuestionSetLoader interface {
	LoadQuestionSet(ctx context.Context, assessmentID string) ([]domain.Question, error)
}

// QuestionSetCache caches question sets with TTL to avoid repeated store
// hits while an assessment is being answered and submitted.
type QuestionSetCache struct {
	loader QuestionSetLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionSetCache(loader QuestionSetLoader, ttl time.Duration) *QuestionSetCache {
	return &QuestionSetCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

func (c *QuestionSetCache) GetQuestionSet(ctx context.Context, assessmentID string) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if entry, ok := c.cache[assessmentID]; ok && entry.expiresAt.After(now) {
		c.mu.RUnlock()
		return entry.questions, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(assessmentID, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if entry, ok := c.cache[assessmentID]; ok && entry.expiresAt.After(now) {
			c.mu.RUnlock()
			return entry.questions, nil
		}
		c.mu.RUnlock()

		questions, err := c.loader.LoadQuestionSet(ctx, assessmentID)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.cache[assessmentID] = cachedSet{
			questions: questions,
			expiresAt: now.Add(c.ttlWithJitter()),
		}
		c.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionSetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
