package redis

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
	"procureiq-quiz-service/internal/domain"
	"procureiq-quiz-service/internal/engine"
	"procureiq-quiz-service/internal/infra/memory"
)

// QuizRepository caches raw quiz content in Redis and falls back to a loader on miss.
// Content is stored as: HSET quiz:{slug}:content data {bytes} format {json|yaml}
// Cached content is validated on every read; Redis never holds a parsed document.
type QuizRepository struct {
	client *redis.Client
	loader memory.QuizLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex // loads for different slugs run concurrently
	rnd   *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader memory.QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, slug string) (*domain.QuizDocument, error) {
	if content, ok := r.cached(ctx, slug); ok {
		return engine.ParseContent(content)
	}

	result, err, _ := r.sf.Do(slug, func() (interface{}, error) {
		// another caller may have filled the cache meanwhile
		if content, ok := r.cached(ctx, slug); ok {
			return content, nil
		}

		content, err := r.loader.LoadQuiz(ctx, slug)
		if err != nil {
			return domain.Content{}, err
		}

		key := r.contentKey(slug)
		pipe := r.client.Pipeline()
		pipe.HSet(ctx, key, "data", content.Data, "format", content.Format)
		if ttl := r.ttlWithJitter(); ttl > 0 {
			pipe.Expire(ctx, key, ttl)
		}
		_, _ = pipe.Exec(ctx)

		return content, nil
	})
	if err != nil {
		return nil, err
	}
	return engine.ParseContent(result.(domain.Content))
}

func (r *QuizRepository) ListQuizzes(ctx context.Context) ([]string, error) {
	return r.loader.ListQuizzes(ctx)
}

// Invalidate drops the cached content for slug.
func (r *QuizRepository) Invalidate(ctx context.Context, slug string) error {
	return r.client.Del(ctx, r.contentKey(slug)).Err()
}

func (r *QuizRepository) cached(ctx context.Context, slug string) (domain.Content, bool) {
	fields, err := r.client.HGetAll(ctx, r.contentKey(slug)).Result()
	if err != nil || fields["data"] == "" {
		return domain.Content{}, false
	}
	return domain.Content{Slug: slug, Data: []byte(fields["data"]), Format: fields["format"]}, true
}

func (r *QuizRepository) contentKey(slug string) string {
	return "quiz:" + slug + ":content"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
