package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"procureiq-quiz-service/internal/app"
	"procureiq-quiz-service/internal/domain"
	"procureiq-quiz-service/internal/engine"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewSessionStore(client, time.Minute)

	quiz := &domain.QuizDocument{Slug: "procurement-basics"}
	store.Put(app.NewAttempt("a1", quiz, engine.NewSession("a1"), time.Now()))
	if !mr.Exists("quiz:attempt:a1") {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get("quiz:attempt:a1"); got != "procurement-basics" {
		t.Fatalf("expected slug as marker value, got %q", got)
	}

	mr.FastForward(30 * time.Second)
	if _, ok := store.Get("a1"); !ok {
		t.Fatalf("expected attempt present")
	}
	if ttl := mr.TTL("quiz:attempt:a1"); ttl != time.Minute {
		t.Fatalf("expected ttl refreshed, got %s", ttl)
	}

	store.Delete("a1")
	if mr.Exists("quiz:attempt:a1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("a1"); ok {
		t.Fatalf("expected attempt removed")
	}
}
