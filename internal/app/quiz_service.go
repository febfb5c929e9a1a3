package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"procureiq-quiz-service/internal/advice"
	"procureiq-quiz-service/internal/domain"
	"procureiq-quiz-service/internal/engine"
	"procureiq-quiz-service/internal/logger"
)

// SessionRepository abstracts where in-progress attempts live (in-memory, Redis, etc).
type SessionRepository interface {
	Put(attempt *Attempt)
	Get(attemptID string) (*Attempt, bool)
	Delete(attemptID string)
}

// QuizRepository loads validated quiz documents by slug.
type QuizRepository interface {
	GetQuiz(ctx context.Context, slug string) (*domain.QuizDocument, error)
	ListQuizzes(ctx context.Context) ([]string, error)
}

// QuizService contains the quiz attempt use cases.
type QuizService struct {
	sessions     SessionRepository
	quizzes      QuizRepository
	selector     engine.Selector
	deliverCount int
	log          *logger.Logger
	now          func() time.Time
	newID        func() string
}

// Option customizes a QuizService.
type Option func(*QuizService)

// WithDeliverCount sets the default number of questions per attempt.
func WithDeliverCount(n int) Option { return func(s *QuizService) { s.deliverCount = n } }

func WithLogger(l *logger.Logger) Option { return func(s *QuizService) { s.log = l } }

func WithSelector(sel engine.Selector) Option { return func(s *QuizService) { s.selector = sel } }

// WithClock is test-only for deterministic timestamps.
func WithClock(now func() time.Time) Option { return func(s *QuizService) { s.now = now } }

// WithIDGenerator replaces the UUID attempt ids.
func WithIDGenerator(newID func() string) Option { return func(s *QuizService) { s.newID = newID } }

func NewQuizService(store SessionRepository, quizzes QuizRepository, opts ...Option) *QuizService {
	s := &QuizService{
		sessions:     store,
		quizzes:      quizzes,
		selector:     engine.PrefixSelector{},
		deliverCount: domain.DefaultDeliveryCount,
		log:          logger.NewNop(),
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Attempt is one learner's run through a quiz. Its mutex serializes access
// to the underlying engine session.
type Attempt struct {
	ID        string
	Slug      string
	CreatedAt time.Time

	mu      sync.Mutex
	quiz    *domain.QuizDocument
	session *engine.Session
}

// NewAttempt is exported for infrastructure layers that need to seed attempts.
func NewAttempt(id string, quiz *domain.QuizDocument, session *engine.Session, createdAt time.Time) *Attempt {
	return &Attempt{ID: id, Slug: quiz.Slug, CreatedAt: createdAt, quiz: quiz, session: session}
}

// Started is returned when an attempt begins.
type Started struct {
	AttemptID string              `json:"attemptId"`
	Quiz      domain.QuizSummary  `json:"quiz"`
	Catalog   []domain.Competency `json:"catalog"`
	Question  domain.Question     `json:"question"`
}

// Submitted is the outcome of one accepted answer.
type Submitted struct {
	Result   domain.EvaluationResult `json:"result"`
	Next     *domain.Question        `json:"next,omitempty"`
	Answered int                     `json:"answered"`
	Total    int                     `json:"total"`
	Complete bool                    `json:"complete"`
}

// Outcome is the scored attempt handed to the presentation layer.
type Outcome struct {
	AttemptID   string              `json:"attemptId"`
	Report      domain.ScoreReport  `json:"report"`
	Radar       []domain.RadarPoint `json:"radar"`
	Suggestions []advice.Suggestion `json:"suggestions"`
}

// List returns every quiz that passes validation; invalid content is logged and skipped.
func (s *QuizService) List(ctx context.Context) ([]domain.QuizSummary, error) {
	slugs, err := s.quizzes.ListQuizzes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.QuizSummary, 0, len(slugs))
	for _, slug := range slugs {
		quiz, err := s.quizzes.GetQuiz(ctx, slug)
		if err != nil {
			s.log.Warn("skipping quiz", "slug", slug, "err", err)
			continue
		}
		out = append(out, quiz.Summary())
	}
	return out, nil
}

// Start validates and selects the quiz's questions and opens a new attempt.
func (s *QuizService) Start(ctx context.Context, slug string) (Started, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, slug)
	if err != nil {
		return Started{}, err
	}
	delivered, err := s.selector.Select(quiz, engine.DeliveryCount(quiz, s.deliverCount))
	if err != nil {
		s.log.Error("question selection failed", "slug", slug, "err", err)
		return Started{}, err
	}

	id := s.newID()
	session := engine.NewSessionWithClock(id, s.now)
	if err := session.Start(delivered); err != nil {
		return Started{}, err
	}
	attempt := NewAttempt(id, quiz, session, s.now())
	s.sessions.Put(attempt)

	first, _ := session.Current()
	s.log.Info("attempt started", "attempt", id, "slug", slug, "questions", delivered.Len())
	return Started{AttemptID: id, Quiz: quiz.Summary(), Catalog: quiz.Catalog, Question: first}, nil
}

// Current returns the question awaiting an answer, or false once all are answered.
func (s *QuizService) Current(_ context.Context, attemptID string) (domain.Question, bool, error) {
	attempt, ok := s.sessions.Get(attemptID)
	if !ok {
		return domain.Question{}, false, domain.ErrSessionNotFound
	}
	attempt.mu.Lock()
	defer attempt.mu.Unlock()
	q, ok := attempt.session.Current()
	return q, ok, nil
}

// Submit records an answer for the current question. Submission errors
// leave the attempt unchanged so the learner can resubmit.
func (s *QuizService) Submit(_ context.Context, attemptID, questionID string, chosen []int) (Submitted, error) {
	attempt, ok := s.sessions.Get(attemptID)
	if !ok {
		return Submitted{}, domain.ErrSessionNotFound
	}
	attempt.mu.Lock()
	defer attempt.mu.Unlock()

	result, err := attempt.session.Submit(domain.SubmittedAnswer{QuestionID: questionID, Chosen: chosen})
	if err != nil {
		if errors.Is(err, domain.ErrSubmission) {
			s.log.Debug("submission rejected", "attempt", attemptID, "question", questionID, "err", err)
		}
		return Submitted{}, err
	}
	answered, total := attempt.session.Progress()
	out := Submitted{Result: result, Answered: answered, Total: total, Complete: attempt.session.IsComplete()}
	if next, ok := attempt.session.Current(); ok {
		out.Next = &next
	}
	return out, nil
}

// Finalize scores a complete attempt and attaches rubric suggestions.
func (s *QuizService) Finalize(_ context.Context, attemptID string) (Outcome, error) {
	attempt, ok := s.sessions.Get(attemptID)
	if !ok {
		return Outcome{}, domain.ErrSessionNotFound
	}
	attempt.mu.Lock()
	defer attempt.mu.Unlock()

	report, err := attempt.session.Finalize()
	if err != nil {
		return Outcome{}, err
	}
	s.log.Info("attempt finalized", "attempt", attemptID, "slug", attempt.Slug, "overall", report.Overall)
	return Outcome{
		AttemptID:   attemptID,
		Report:      report,
		Radar:       report.RadarPoints(),
		Suggestions: advice.Suggest(attempt.quiz.Rubric, report),
	}, nil
}

// Restart discards every answer and begins the same delivered questions again.
func (s *QuizService) Restart(_ context.Context, attemptID string) (domain.Question, error) {
	attempt, ok := s.sessions.Get(attemptID)
	if !ok {
		return domain.Question{}, domain.ErrSessionNotFound
	}
	attempt.mu.Lock()
	defer attempt.mu.Unlock()

	attempt.session.Restart()
	if err := attempt.session.Resume(); err != nil {
		return domain.Question{}, err
	}
	first, _ := attempt.session.Current()
	s.log.Info("attempt restarted", "attempt", attemptID, "slug", attempt.Slug)
	return first, nil
}

// Abandon drops the attempt; nothing about it is kept.
func (s *QuizService) Abandon(_ context.Context, attemptID string) {
	s.sessions.Delete(attemptID)
}
