package engine

import "procureiq-quiz-service/internal/domain"

// Selector picks the questions delivered in one attempt.
type Selector interface {
	Select(doc *domain.QuizDocument, count int) (domain.DeliveredQuiz, error)
}

// PrefixSelector delivers the first count questions in authored order.
type PrefixSelector struct{}

// Select fails rather than shortening the attempt when the pool is too small.
func (PrefixSelector) Select(doc *domain.QuizDocument, count int) (domain.DeliveredQuiz, error) {
	if doc == nil {
		return domain.DeliveredQuiz{}, &domain.SelectionError{Requested: count}
	}
	if count <= 0 || count > len(doc.Questions) {
		return domain.DeliveredQuiz{}, &domain.SelectionError{Requested: count, Available: len(doc.Questions)}
	}
	questions := make([]*domain.QuestionSpec, count)
	for i := 0; i < count; i++ {
		questions[i] = &doc.Questions[i]
	}
	return domain.DeliveredQuiz{Quiz: doc, Questions: questions}, nil
}

// Select uses the fixed-order policy.
func Select(doc *domain.QuizDocument, count int) (domain.DeliveredQuiz, error) {
	return PrefixSelector{}.Select(doc, count)
}

// DeliveryCount resolves how many questions to deliver: the document's own
// setting wins over the configured default.
func DeliveryCount(doc *domain.QuizDocument, configured int) int {
	if doc != nil && doc.DeliveryCount > 0 {
		return doc.DeliveryCount
	}
	if configured > 0 {
		return configured
	}
	return domain.DefaultDeliveryCount
}
