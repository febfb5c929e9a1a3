package engine

import (
	"errors"
	"testing"

	"procureiq-quiz-service/internal/domain"
)

func TestSelectKeepsAuthoredPrefix(t *testing.T) {
	raw := rawFixture()
	extra := raw.Questions[3]
	extra.ID = "q11"
	raw.Questions = append(raw.Questions, extra)
	extra.ID = "q12"
	raw.Questions = append(raw.Questions, extra)
	doc, err := NewValidator().Validate(raw)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}

	delivered, err := Select(doc, 10)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if delivered.Len() != 10 {
		t.Fatalf("expected 10 questions, got %d", delivered.Len())
	}
	for i, q := range delivered.Questions {
		if q != &doc.Questions[i] {
			t.Fatalf("position %d: expected %s, got %s", i, doc.Questions[i].ID, q.ID)
		}
	}

	again, _ := Select(doc, 10)
	for i := range again.Questions {
		if again.Questions[i].ID != delivered.Questions[i].ID {
			t.Fatalf("selection is not reproducible at %d", i)
		}
	}
}

func TestSelectWholePool(t *testing.T) {
	doc := docFixture(t)
	delivered, err := Select(doc, len(doc.Questions))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if delivered.Len() != len(doc.Questions) {
		t.Fatalf("expected whole pool, got %d", delivered.Len())
	}
}

func TestSelectFailsWhenPoolTooSmall(t *testing.T) {
	doc := docFixture(t)
	for _, n := range []int{11, 50, 0, -1} {
		_, err := Select(doc, n)
		var serr *domain.SelectionError
		if !errors.As(err, &serr) {
			t.Fatalf("count %d: expected SelectionError, got %v", n, err)
		}
		if serr.Requested != n || serr.Available != 10 {
			t.Fatalf("count %d: unexpected error fields %+v", n, serr)
		}
		if !errors.Is(err, domain.ErrSelection) {
			t.Fatalf("count %d: expected ErrSelection match", n)
		}
	}
}

func TestDeliveryCount(t *testing.T) {
	doc := docFixture(t)
	if got := DeliveryCount(doc, 9); got != 9 {
		t.Fatalf("expected configured 9, got %d", got)
	}
	if got := DeliveryCount(doc, 0); got != domain.DefaultDeliveryCount {
		t.Fatalf("expected default, got %d", got)
	}
	doc.DeliveryCount = 8
	if got := DeliveryCount(doc, 9); got != 8 {
		t.Fatalf("expected document override 8, got %d", got)
	}
}
