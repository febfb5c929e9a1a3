package engine

import (
	"time"

	"procureiq-quiz-service/internal/domain"
)

// State is the lifecycle stage of a Session.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Session tracks one learner's attempt. It does no locking: callers must
// serialize Start/Submit/Finalize/Restart on a given Session.
type Session struct {
	id  string
	now func() time.Time

	state      State
	delivered  domain.DeliveredQuiz
	aggregator *Aggregator
	position   int
	answers    map[string]domain.SubmittedAnswer
	order      []string
	results    []domain.EvaluationResult
	report     *domain.ScoreReport
}

func NewSession(id string) *Session {
	return NewSessionWithClock(id, time.Now)
}

// NewSessionWithClock allows deterministic timestamps in tests.
func NewSessionWithClock(id string, now func() time.Time) *Session {
	return &Session{
		id:      id,
		now:     now,
		state:   StateNotStarted,
		answers: make(map[string]domain.SubmittedAnswer),
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State { return s.state }

func (s *Session) Position() int { return s.position }

// Delivered returns the attempt's question set; it is empty before Start.
func (s *Session) Delivered() domain.DeliveredQuiz { return s.delivered }

// Start moves NotStarted -> InProgress at position 0.
func (s *Session) Start(delivered domain.DeliveredQuiz) error {
	switch s.state {
	case StateInProgress:
		return domain.ErrSessionStarted
	case StateCompleted:
		return domain.ErrSessionCompleted
	}
	if delivered.Quiz == nil || delivered.Len() == 0 {
		return &domain.SelectionError{Requested: delivered.Len()}
	}
	s.delivered = delivered
	s.aggregator = NewAggregator(delivered.Quiz)
	s.position = 0
	s.state = StateInProgress
	return nil
}

// Current returns the view of the question awaiting an answer.
func (s *Session) Current() (domain.Question, bool) {
	if s.state != StateInProgress || s.position >= s.delivered.Len() {
		return domain.Question{}, false
	}
	q := s.delivered.Questions[s.position]
	return domain.Question{
		ID:          q.ID,
		Position:    s.position,
		Total:       s.delivered.Len(),
		Prompt:      q.Prompt,
		Options:     append([]string(nil), q.Options...),
		Mode:        q.Mode,
		SelectCount: q.SelectCount(),
		Hints:       append([]string(nil), q.Hints...),
	}, true
}

// Submit evaluates answer against the current question and stamps its
// sequence number and time. On a submission error nothing is recorded and
// the position does not move.
func (s *Session) Submit(answer domain.SubmittedAnswer) (domain.EvaluationResult, error) {
	switch s.state {
	case StateNotStarted:
		return domain.EvaluationResult{}, domain.ErrSessionNotStarted
	case StateCompleted:
		return domain.EvaluationResult{}, domain.ErrSessionCompleted
	}
	if s.position >= s.delivered.Len() {
		return domain.EvaluationResult{}, domain.ErrAllAnswered
	}

	q := s.delivered.Questions[s.position]
	answer.Chosen = append([]int(nil), answer.Chosen...)
	answer.Sequence = len(s.order) + 1
	answer.SubmittedAt = s.now()
	if answer.QuestionID == "" {
		answer.QuestionID = q.ID
	}
	result, err := Evaluate(q, answer)
	if err != nil {
		return domain.EvaluationResult{}, err
	}
	result.Position = s.position

	s.answers[q.ID] = answer
	s.order = append(s.order, q.ID)
	s.results = append(s.results, result)
	s.position++
	return result, nil
}

// IsComplete reports whether every delivered question has been answered.
func (s *Session) IsComplete() bool {
	switch s.state {
	case StateCompleted:
		return true
	case StateInProgress:
		return s.position == s.delivered.Len()
	default:
		return false
	}
}

// Progress returns answered and total question counts.
func (s *Session) Progress() (int, int) {
	return len(s.results), s.delivered.Len()
}

// Answers returns the submissions in attempt order.
func (s *Session) Answers() []domain.SubmittedAnswer {
	out := make([]domain.SubmittedAnswer, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.answers[id])
	}
	return out
}

// Results returns the evaluation results in attempt order.
func (s *Session) Results() []domain.EvaluationResult {
	return append([]domain.EvaluationResult(nil), s.results...)
}

// Finalize scores a complete attempt once and caches the report. Calling it
// again on a completed session returns the cached report.
func (s *Session) Finalize() (domain.ScoreReport, error) {
	switch s.state {
	case StateNotStarted:
		return domain.ScoreReport{}, domain.ErrSessionNotStarted
	case StateCompleted:
		return cloneReport(*s.report), nil
	}
	if !s.IsComplete() {
		return domain.ScoreReport{}, &domain.PrematureFinalizeError{Answered: len(s.results), Total: s.delivered.Len()}
	}
	report := s.aggregator.Aggregate(s.results)
	s.report = &report
	s.state = StateCompleted
	return cloneReport(report), nil
}

// Report returns the cached report of a completed session.
func (s *Session) Report() (domain.ScoreReport, bool) {
	if s.report == nil {
		return domain.ScoreReport{}, false
	}
	return cloneReport(*s.report), true
}

// cloneReport copies every slice so callers cannot reach the cached report.
func cloneReport(r domain.ScoreReport) domain.ScoreReport {
	out := r
	out.Competencies = append([]domain.CompetencyScore(nil), r.Competencies...)
	out.Missed = make([]domain.MissedQuestion, len(r.Missed))
	for i, m := range r.Missed {
		m.Chosen = append([]int(nil), m.Chosen...)
		m.Expected = append([]int(nil), m.Expected...)
		m.ChosenText = append([]string(nil), m.ChosenText...)
		m.ExpectedText = append([]string(nil), m.ExpectedText...)
		out.Missed[i] = m
	}
	return out
}

// Restart discards every recorded answer and returns to NotStarted. The
// delivered quiz is kept so the attempt can be started again with Resume.
func (s *Session) Restart() {
	s.state = StateNotStarted
	s.position = 0
	s.answers = make(map[string]domain.SubmittedAnswer)
	s.order = nil
	s.results = nil
	s.report = nil
}

// Resume starts the previously delivered quiz again after Restart.
func (s *Session) Resume() error {
	return s.Start(s.delivered)
}
