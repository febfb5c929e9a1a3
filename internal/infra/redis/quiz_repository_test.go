package redis

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"procureiq-quiz-service/internal/domain"
	"procureiq-quiz-service/internal/infra/memory"
)

func TestQuizRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)
	loader := &countingLoader{QuizLoader: memory.NewStaticQuizLoader(memory.SampleContent())}
	repo := NewQuizRepository(client, loader, time.Minute)

	quiz, err := repo.GetQuiz(context.Background(), memory.SampleSlug)
	if err != nil {
		t.Fatalf("get quiz: %v", err)
	}
	if len(quiz.Questions) != 12 {
		t.Fatalf("expected 12 questions, got %d", len(quiz.Questions))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if got := mr.HGet("quiz:"+memory.SampleSlug+":content", "format"); got != "json" {
		t.Fatalf("expected cached format json, got %q", got)
	}

	// Second call should hit cache, loader not incremented.
	again, err := repo.GetQuiz(context.Background(), memory.SampleSlug)
	if err != nil {
		t.Fatalf("get quiz from cache: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
	if again.Title != quiz.Title {
		t.Fatalf("cached quiz differs: %q vs %q", again.Title, quiz.Title)
	}

	if err := repo.Invalidate(context.Background(), memory.SampleSlug); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	_, _ = repo.GetQuiz(context.Background(), memory.SampleSlug)
	if loader.calls != 2 {
		t.Fatalf("expected reload after invalidate, loader calls=%d", loader.calls)
	}
}

func TestQuizRepositoryValidatesCachedContent(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	mr.HSet("quiz:tampered:content", "data", `{"slug":"tampered"}`, "format", "json")
	repo := NewQuizRepository(newClient(mr), memory.NewStaticQuizLoader(nil), time.Minute)

	if _, err := repo.GetQuiz(context.Background(), "tampered"); !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected invalid document, got %v", err)
	}
	if _, err := repo.GetQuiz(context.Background(), "absent"); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestQuizRepositoryConcurrentLoads(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	sample := memory.SampleContent()[memory.SampleSlug]
	content := make(map[string]domain.Content)
	for i := 0; i < 8; i++ {
		slug := fmt.Sprintf("quiz-%d", i)
		content[slug] = domain.Content{Slug: slug, Data: sample.Data, Format: sample.Format}
	}
	repo := NewQuizRepository(newClient(mr), memory.NewStaticQuizLoader(content), time.Minute)

	var wg sync.WaitGroup
	for slug := range content {
		wg.Add(1)
		go func(slug string) {
			defer wg.Done()
			// content is cached before the slug mismatch fails validation
			_, _ = repo.GetQuiz(context.Background(), slug)
		}(slug)
	}
	wg.Wait()

	for slug := range content {
		key := "quiz:" + slug + ":content"
		if ttl := mr.TTL(key); ttl < time.Minute || ttl > time.Minute+6*time.Second {
			t.Fatalf("expected jittered ttl for %s, got %s", key, ttl)
		}
	}
}

type countingLoader struct {
	memory.QuizLoader
	calls int
}

func (l *countingLoader) LoadQuiz(ctx context.Context, slug string) (domain.Content, error) {
	l.calls++
	return l.QuizLoader.LoadQuiz(ctx, slug)
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
