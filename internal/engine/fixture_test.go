package engine

import (
	"fmt"
	"testing"

	"procureiq-quiz-service/internal/domain"
)

// rawFixture builds a valid ten-question document. Questions cover only the
// first three competencies: q1-q4 facts, q5-q7 costs, q8-q10 market.
// q1 is multi-select with answers {0,2}; every other question is single
// select with answer 1.
func rawFixture() *RawDocument {
	doc := &RawDocument{
		Slug:       "supplier-audit",
		Title:      "Supplier Audit Case",
		Scenario:   "A regional distributor is renewing its packaging contract.",
		Objectives: []string{"Validate supplier claims", "Model total cost"},
		Catalog: []rawCompetency{
			{Key: "facts", Label: "Check the Facts"},
			{Key: "costs", Label: "Break Down the Costs"},
			{Key: "market", Label: "Know the Market"},
			{Key: "negotiate", Label: "Negotiate for Value"},
			{Key: "strategy", Label: "Choose the Right Supplier Strategy"},
			{Key: "learn", Label: "Learn and Improve"},
		},
		Rubric: map[string]rawBands{
			"facts": {Low: []string{"Verify claims against invoices", "Ask for references", "Audit samples"}},
		},
	}
	competencies := []string{"facts", "facts", "facts", "facts", "costs", "costs", "costs", "market", "market", "market"}
	for i, c := range competencies {
		answer := 1
		doc.Questions = append(doc.Questions, rawQuestion{
			ID:          fmt.Sprintf("q%d", i+1),
			Stem:        fmt.Sprintf("Question %d", i+1),
			Type:        "single",
			Options:     []string{"Option A", "Option B", "Option C", "Option D"},
			AnswerIndex: &answer,
			Explain:     fmt.Sprintf("Explanation %d", i+1),
			Competency:  c,
		})
	}
	doc.Questions[0].Type = "multi"
	doc.Questions[0].AnswerIndex = nil
	doc.Questions[0].AnswerIndices = []int{2, 0}
	return doc
}

func docFixture(t *testing.T) *domain.QuizDocument {
	t.Helper()
	doc, err := NewValidator().Validate(rawFixture())
	if err != nil {
		t.Fatalf("fixture should validate: %v", err)
	}
	return doc
}

func deliveredFixture(t *testing.T) domain.DeliveredQuiz {
	t.Helper()
	delivered, err := Select(docFixture(t), 10)
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	return delivered
}
