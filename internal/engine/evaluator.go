package engine

import (
	"sort"

	"procureiq-quiz-service/internal/domain"
)

// Evaluate checks a submission against q. Malformed submissions are rejected
// with a *domain.SubmissionError and never scored.
func Evaluate(q *domain.QuestionSpec, answer domain.SubmittedAnswer) (domain.EvaluationResult, error) {
	if answer.QuestionID != "" && answer.QuestionID != q.ID {
		return domain.EvaluationResult{}, &domain.SubmissionError{Kind: domain.QuestionMismatch, QuestionID: answer.QuestionID}
	}
	chosen := make(map[int]struct{}, len(answer.Chosen))
	for _, idx := range answer.Chosen {
		if idx < 0 || idx >= len(q.Options) {
			return domain.EvaluationResult{}, &domain.SubmissionError{Kind: domain.OptionOutOfRange, QuestionID: q.ID, Got: idx}
		}
		if _, dup := chosen[idx]; dup {
			return domain.EvaluationResult{}, &domain.SubmissionError{Kind: domain.DuplicateOption, QuestionID: q.ID, Got: idx}
		}
		chosen[idx] = struct{}{}
	}
	if want := q.SelectCount(); len(chosen) != want {
		return domain.EvaluationResult{}, &domain.SubmissionError{
			Kind:       domain.WrongSelectionCount,
			QuestionID: q.ID,
			Expected:   want,
			Got:        len(chosen),
		}
	}

	correct := true
	for _, idx := range q.Correct {
		if _, ok := chosen[idx]; !ok {
			correct = false
			break
		}
	}
	picked := append([]int(nil), answer.Chosen...)
	sort.Ints(picked)
	return domain.EvaluationResult{
		QuestionID:  q.ID,
		Correct:     correct,
		Competency:  q.Competency,
		Weight:      q.Weight,
		Explanation: q.Explanation,
		Chosen:      picked,
		Expected:    append([]int(nil), q.Correct...),
	}, nil
}
