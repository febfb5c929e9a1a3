package engine

import (
	"sort"

	"procureiq-quiz-service/internal/domain"
)

// Aggregator folds evaluation results into a ScoreReport for one quiz.
// It holds no state between calls.
type Aggregator struct {
	catalog   []domain.Competency
	questions map[string]*domain.QuestionSpec
}

func NewAggregator(doc *domain.QuizDocument) *Aggregator {
	a := &Aggregator{
		catalog:   doc.Catalog,
		questions: make(map[string]*domain.QuestionSpec, len(doc.Questions)),
	}
	for i := range doc.Questions {
		a.questions[doc.Questions[i].ID] = &doc.Questions[i]
	}
	return a
}

// Aggregate scores every catalog competency, including ones with no
// delivered questions (reported as 0/0 with ratio 0).
func (a *Aggregator) Aggregate(results []domain.EvaluationResult) domain.ScoreReport {
	type tally struct{ earned, possible float64 }
	byCompetency := make(map[string]*tally, len(a.catalog))
	for _, c := range a.catalog {
		byCompetency[c.Key] = &tally{}
	}

	report := domain.ScoreReport{
		Competencies: make([]domain.CompetencyScore, 0, len(a.catalog)),
		Missed:       []domain.MissedQuestion{},
	}
	for _, r := range results {
		t, ok := byCompetency[r.Competency]
		if !ok {
			continue
		}
		t.possible += r.Weight
		if r.Correct {
			t.earned += r.Weight
		} else {
			report.Missed = append(report.Missed, a.missed(r))
		}
	}
	sort.SliceStable(report.Missed, func(i, j int) bool {
		return report.Missed[i].Position < report.Missed[j].Position
	})

	for _, c := range a.catalog {
		t := byCompetency[c.Key]
		report.Earned += t.earned
		report.Possible += t.possible
		report.Competencies = append(report.Competencies, domain.CompetencyScore{
			Key:      c.Key,
			Label:    c.Label,
			Earned:   t.earned,
			Possible: t.possible,
			Ratio:    ratio(t.earned, t.possible),
		})
	}
	report.Overall = ratio(report.Earned, report.Possible)
	return report
}

func (a *Aggregator) missed(r domain.EvaluationResult) domain.MissedQuestion {
	m := domain.MissedQuestion{EvaluationResult: r}
	q, ok := a.questions[r.QuestionID]
	if !ok {
		return m
	}
	m.Prompt = q.Prompt
	m.ChosenText = optionTexts(q, r.Chosen)
	m.ExpectedText = optionTexts(q, r.Expected)
	return m
}

func optionTexts(q *domain.QuestionSpec, indices []int) []string {
	out := make([]string, 0, len(indices))
	for _, idx := range indices {
		if idx >= 0 && idx < len(q.Options) {
			out = append(out, q.Options[idx])
		}
	}
	return out
}

func ratio(earned, possible float64) float64 {
	if possible <= 0 {
		return 0
	}
	return earned / possible
}
