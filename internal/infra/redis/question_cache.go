package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"dyscalc-screening-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionSetLoader fetches an assessment's question set from a backing
// store.
type QuestionSetLoader interface {
	LoadQuestionSet(ctx context.Context, assessmentID string) ([]domain.Question, error)
}

// QuestionSetCache caches question sets in Redis as a single JSON blob
// per assessment and falls back to a loader on cache miss:
//
//	SET assessment:{assessmentID}:questions {json} EX ttl
//
// Question sets are immutable, so staleness is not a concern; the TTL only
// bounds memory.
type QuestionSetCache struct {
	client *redis.Client
	loader QuestionSetLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuestionSetCache(client *redis.Client, loader QuestionSetLoader, ttl time.Duration) *QuestionSetCache {
	return &QuestionSetCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionSetCache) GetQuestionSet(ctx context.Context, assessmentID string) ([]domain.Question, error) {
	key := c.key(assessmentID)

	if questions, ok := c.fromCache(ctx, key); ok {
		return questions, nil
	}

	result, err, _ := c.sf.Do(assessmentID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if questions, ok := c.fromCache(ctx, key); ok {
			return questions, nil
		}

		questions, err := c.loader.LoadQuestionSet(ctx, assessmentID)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			// best-effort write; a failed cache fill is not an error
			_ = c.client.Set(ctx, key, data, c.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (c *QuestionSetCache) fromCache(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (c *QuestionSetCache) key(assessmentID string) string {
	return "assessment:" + assessmentID + ":questions"
}

func (c *QuestionSetCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
