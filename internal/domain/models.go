package domain

import "time"

// SelectionMode controls how many options a learner must choose.
type SelectionMode string

const (
	ModeSingle SelectionMode = "single"
	ModeMulti  SelectionMode = "multi"
)

// CatalogSize is the fixed number of competencies every quiz scores against.
const CatalogSize = 6

// DefaultDeliveryCount is used when neither config nor document sets one.
const DefaultDeliveryCount = 10

// Competency is one entry of the quiz's skills catalog.
type Competency struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// RubricBands holds remediation text bucketed by score band.
type RubricBands struct {
	Low  []string `json:"low,omitempty"`
	Mid  []string `json:"mid,omitempty"`
	High []string `json:"high,omitempty"`
}

// QuestionSpec is a validated authored question.
type QuestionSpec struct {
	ID          string        `json:"id"`
	Prompt      string        `json:"prompt"`
	Mode        SelectionMode `json:"mode"`
	Options     []string      `json:"options"`
	Correct     []int         `json:"correct"` // sorted, unique
	Explanation string        `json:"explanation"`
	Competency  string        `json:"competency"`
	Weight      float64       `json:"weight"`
	Hints       []string      `json:"hints,omitempty"`
}

// SelectCount is the number of options a learner has to pick.
func (q QuestionSpec) SelectCount() int {
	if q.Mode == ModeSingle {
		return 1
	}
	return len(q.Correct)
}

// QuizDocument is authored quiz content that has passed validation.
// Only the engine's validator builds one; it is immutable after that.
type QuizDocument struct {
	Slug          string                 `json:"slug"`
	Title         string                 `json:"title"`
	Scenario      string                 `json:"scenario"`
	Objectives    []string               `json:"learningObjectives"`
	Catalog       []Competency           `json:"catalog"`
	Questions     []QuestionSpec         `json:"questions"`
	DeliveryCount int                    `json:"deliveryCount,omitempty"` // 0 when the document does not set one
	Rubric        map[string]RubricBands `json:"rubric,omitempty"`
}

// CompetencyLabel returns the display label for key, or key itself if unknown.
func (d *QuizDocument) CompetencyLabel(key string) string {
	for _, c := range d.Catalog {
		if c.Key == key {
			return c.Label
		}
	}
	return key
}

// QuizSummary is the listing view of a quiz.
type QuizSummary struct {
	Slug       string   `json:"slug"`
	Title      string   `json:"title"`
	Scenario   string   `json:"scenario"`
	Objectives []string `json:"learningObjectives"`
}

// Summary returns the listing view of the document.
func (d *QuizDocument) Summary() QuizSummary {
	return QuizSummary{Slug: d.Slug, Title: d.Title, Scenario: d.Scenario, Objectives: d.Objectives}
}

// DeliveredQuiz is the ordered set of questions shown in one attempt.
type DeliveredQuiz struct {
	Quiz      *QuizDocument
	Questions []*QuestionSpec
}

// Len returns the number of delivered questions.
func (d DeliveredQuiz) Len() int { return len(d.Questions) }

// Question is the learner-facing view of a question. Answers and
// explanations are withheld.
type Question struct {
	ID          string        `json:"id"`
	Position    int           `json:"position"`
	Total       int           `json:"total"`
	Prompt      string        `json:"prompt"`
	Options     []string      `json:"options"`
	Mode        SelectionMode `json:"mode"`
	SelectCount int           `json:"selectCount"`
	Hints       []string      `json:"hints,omitempty"`
}

// SubmittedAnswer is one learner submission.
type SubmittedAnswer struct {
	QuestionID  string    `json:"questionId"`
	Chosen      []int     `json:"chosen"`
	Sequence    int       `json:"sequence"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// EvaluationResult is the outcome of evaluating one submission.
type EvaluationResult struct {
	QuestionID  string  `json:"questionId"`
	Position    int     `json:"position"`
	Correct     bool    `json:"correct"`
	Competency  string  `json:"competency"`
	Weight      float64 `json:"weight"`
	Explanation string  `json:"explanation"`
	Chosen      []int   `json:"chosen"`
	Expected    []int   `json:"expected"`
}

// CompetencyScore is the aggregate for one catalog competency.
type CompetencyScore struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Earned   float64 `json:"earned"`
	Possible float64 `json:"possible"`
	Ratio    float64 `json:"ratio"`
}

// MissedQuestion carries feedback for an incorrect answer.
type MissedQuestion struct {
	EvaluationResult
	Prompt       string   `json:"prompt"`
	ChosenText   []string `json:"chosenText"`
	ExpectedText []string `json:"expectedText"`
}

// ScoreReport is the final result of an attempt.
type ScoreReport struct {
	Earned       float64           `json:"earned"`
	Possible     float64           `json:"possible"`
	Overall      float64           `json:"overall"`
	Competencies []CompetencyScore `json:"competencies"`
	Missed       []MissedQuestion  `json:"missed"`
}

// RadarPoint is one axis of the competency radar chart.
type RadarPoint struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
}

// RadarPoints returns percent values in catalog order.
func (r ScoreReport) RadarPoints() []RadarPoint {
	points := make([]RadarPoint, 0, len(r.Competencies))
	for _, c := range r.Competencies {
		points = append(points, RadarPoint{Label: c.Label, Percent: c.Ratio * 100})
	}
	return points
}

// Content is a raw quiz document as held by a content store. It must pass
// the engine's validator before any of its fields are read.
type Content struct {
	Slug   string
	Data   []byte
	Format string // "json" or "yaml"
}
