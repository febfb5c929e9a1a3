package engine

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"procureiq-quiz-service/internal/domain"
)

// Format is the encoding of a raw quiz document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the document format from a file extension.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

const (
	minPoolSize = 8
	maxPoolSize = 12
)

// RawDocument is the authored, unvalidated form of a quiz. Nothing outside
// the validator reads its fields.
type RawDocument struct {
	Slug       string              `json:"slug" yaml:"slug" validate:"required"`
	Title      string              `json:"title" yaml:"title" validate:"required"`
	Scenario   string              `json:"scenario" yaml:"scenario" validate:"required"`
	Objectives []string            `json:"learning_objectives" yaml:"learning_objectives" validate:"required,min=1,dive,required"`
	Catalog    []rawCompetency     `json:"skills_catalog" yaml:"skills_catalog" validate:"required,dive"`
	Questions  []rawQuestion       `json:"questions" yaml:"questions" validate:"required,dive"`
	Scoring    *rawScoring         `json:"scoring,omitempty" yaml:"scoring,omitempty"`
	Rubric     map[string]rawBands `json:"improvement_rubric,omitempty" yaml:"improvement_rubric,omitempty"`
}

type rawCompetency struct {
	Key   string `json:"key" yaml:"key" validate:"required"`
	Label string `json:"label" yaml:"label" validate:"required"`
}

type rawQuestion struct {
	ID            string   `json:"id" yaml:"id" validate:"required"`
	Stem          string   `json:"stem" yaml:"stem" validate:"required"`
	Type          string   `json:"type" yaml:"type" validate:"required,oneof=single multi"`
	Options       []string `json:"options" yaml:"options" validate:"required,min=2,dive,required"`
	AnswerIndex   *int     `json:"answer_index,omitempty" yaml:"answer_index,omitempty"`
	AnswerIndices []int    `json:"answer_indices,omitempty" yaml:"answer_indices,omitempty"`
	SelectCount   *int     `json:"select_count,omitempty" yaml:"select_count,omitempty" validate:"omitnil,min=1"`
	Explain       string   `json:"explain" yaml:"explain" validate:"required"`
	Competency    string   `json:"competency" yaml:"competency" validate:"required"`
	Weight        *float64 `json:"weight,omitempty" yaml:"weight,omitempty" validate:"omitnil,finite,gt=0"`
	Hints         []string `json:"hints,omitempty" yaml:"hints,omitempty"`
}

type rawScoring struct {
	DeliverCount *int `json:"deliver_count,omitempty" yaml:"deliver_count,omitempty" validate:"omitnil,min=1"`
}

type rawBands struct {
	Low  []string `json:"low,omitempty" yaml:"low,omitempty"`
	Mid  []string `json:"mid,omitempty" yaml:"mid,omitempty"`
	High []string `json:"high,omitempty" yaml:"high,omitempty"`
}

// Validator checks raw documents and assembles validated QuizDocuments.
// It is safe for concurrent use.
type Validator struct {
	structs *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	// gt=0 alone lets +Inf through, which turns every ratio into NaN.
	_ = v.RegisterValidation("finite", func(fl validator.FieldLevel) bool {
		f := fl.Field().Float()
		return !math.IsInf(f, 0) && !math.IsNaN(f)
	})
	return &Validator{structs: v}
}

var defaultValidator = NewValidator()

// ParseDocument decodes and validates data with the shared validator.
func ParseDocument(data []byte, format Format) (*domain.QuizDocument, error) {
	return defaultValidator.Parse(data, format)
}

// Parse decodes data and validates it. Decoding failures are reported as
// ValidationErrors; no partially decoded document escapes.
func (v *Validator) Parse(data []byte, format Format) (*domain.QuizDocument, error) {
	raw, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	return v.Validate(raw)
}

func decode(data []byte, format Format) (*RawDocument, error) {
	var raw RawDocument
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil {
			var typeErr *yaml.TypeError
			if errors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
				return nil, &domain.ValidationError{Path: "document", Reason: typeErr.Errors[0]}
			}
			return nil, &domain.ValidationError{Path: "document", Reason: err.Error()}
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&raw); err != nil {
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &typeErr) {
				return nil, &domain.ValidationError{
					Path:   typeErr.Field,
					Reason: fmt.Sprintf("expected %s, got %s", typeErr.Type, typeErr.Value),
				}
			}
			return nil, &domain.ValidationError{Path: "document", Reason: err.Error()}
		}
		if _, err := dec.Token(); err != io.EOF {
			return nil, &domain.ValidationError{Path: "document", Reason: "unexpected data after the document"}
		}
	}
	return &raw, nil
}

// Validate runs the structural checks in order and stops at the first failure.
func (v *Validator) Validate(raw *RawDocument) (*domain.QuizDocument, error) {
	if raw == nil {
		return nil, &domain.ValidationError{Path: "document", Reason: "document is empty"}
	}
	if err := v.checkFields(raw); err != nil {
		return nil, err
	}
	if err := checkCatalog(raw.Catalog); err != nil {
		return nil, err
	}
	if n := len(raw.Questions); n < minPoolSize || n > maxPoolSize {
		return nil, &domain.ValidationError{
			Path:   "questions",
			Reason: fmt.Sprintf("pool must hold between %d and %d questions, got %d", minPoolSize, maxPoolSize, n),
		}
	}
	catalog := make(map[string]struct{}, len(raw.Catalog))
	for _, c := range raw.Catalog {
		catalog[c.Key] = struct{}{}
	}
	for i, q := range raw.Questions {
		if _, ok := catalog[q.Competency]; !ok {
			return nil, &domain.ValidationError{
				Path:   fmt.Sprintf("questions[%d].competency", i),
				Reason: fmt.Sprintf("competency %q is not in the skills catalog", q.Competency),
			}
		}
	}
	correct := make([][]int, len(raw.Questions))
	for i, q := range raw.Questions {
		set, err := correctSet(i, q)
		if err != nil {
			return nil, err
		}
		correct[i] = set
	}
	seen := make(map[string]int, len(raw.Questions))
	for i, q := range raw.Questions {
		if first, ok := seen[q.ID]; ok {
			return nil, &domain.ValidationError{
				Path:   fmt.Sprintf("questions[%d].id", i),
				Reason: fmt.Sprintf("duplicate question id %q (first used by questions[%d])", q.ID, first),
			}
		}
		seen[q.ID] = i
	}
	for _, key := range sortedKeys(raw.Rubric) {
		if _, ok := catalog[key]; !ok {
			return nil, &domain.ValidationError{
				Path:   "improvement_rubric." + key,
				Reason: fmt.Sprintf("competency %q is not in the skills catalog", key),
			}
		}
	}
	return build(raw, correct), nil
}

func (v *Validator) checkFields(raw *RawDocument) error {
	err := v.structs.Struct(raw)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &domain.ValidationError{Path: "document", Reason: err.Error()}
	}
	fe := fieldErrs[0]
	path := fe.Namespace()
	if i := strings.IndexByte(path, '.'); i >= 0 {
		path = path[i+1:]
	}
	return &domain.ValidationError{Path: path, Reason: fieldReason(fe)}
}

func fieldReason(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required field is missing or empty"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %v", fe.Param(), fe.Value())
	case "min":
		return fmt.Sprintf("below the minimum of %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "finite":
		return "must be a finite number"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}

func checkCatalog(catalog []rawCompetency) error {
	if len(catalog) != domain.CatalogSize {
		return &domain.ValidationError{
			Path:   "skills_catalog",
			Reason: fmt.Sprintf("catalog must list exactly %d competencies, got %d", domain.CatalogSize, len(catalog)),
		}
	}
	seen := make(map[string]struct{}, len(catalog))
	for i, c := range catalog {
		if _, ok := seen[c.Key]; ok {
			return &domain.ValidationError{
				Path:   fmt.Sprintf("skills_catalog[%d].key", i),
				Reason: fmt.Sprintf("duplicate competency %q", c.Key),
			}
		}
		seen[c.Key] = struct{}{}
	}
	return nil
}

// correctSet returns the sorted correct-index set of question i.
func correctSet(i int, q rawQuestion) ([]int, error) {
	field := fmt.Sprintf("questions[%d].answer_indices", i)
	indices := q.AnswerIndices
	if indices == nil && q.AnswerIndex != nil {
		field = fmt.Sprintf("questions[%d].answer_index", i)
		indices = []int{*q.AnswerIndex}
	}
	if len(indices) == 0 {
		return nil, &domain.ValidationError{Path: field, Reason: "at least one correct option is required"}
	}
	if domain.SelectionMode(q.Type) == domain.ModeSingle && len(indices) != 1 {
		return nil, &domain.ValidationError{
			Path:   field,
			Reason: fmt.Sprintf("single-select question needs exactly one correct option, got %d", len(indices)),
		}
	}
	set := make([]int, 0, len(indices))
	seen := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		if idx < 0 || idx >= len(q.Options) {
			return nil, &domain.ValidationError{
				Path:   field,
				Reason: fmt.Sprintf("option index %d is outside [0,%d)", idx, len(q.Options)),
			}
		}
		if _, ok := seen[idx]; ok {
			return nil, &domain.ValidationError{Path: field, Reason: fmt.Sprintf("option index %d listed twice", idx)}
		}
		seen[idx] = struct{}{}
		set = append(set, idx)
	}
	sort.Ints(set)
	if q.SelectCount != nil && *q.SelectCount != len(set) {
		return nil, &domain.ValidationError{
			Path:   fmt.Sprintf("questions[%d].select_count", i),
			Reason: fmt.Sprintf("select_count %d does not match %d correct option(s)", *q.SelectCount, len(set)),
		}
	}
	return set, nil
}

func build(raw *RawDocument, correct [][]int) *domain.QuizDocument {
	doc := &domain.QuizDocument{
		Slug:       raw.Slug,
		Title:      raw.Title,
		Scenario:   raw.Scenario,
		Objectives: append([]string(nil), raw.Objectives...),
		Catalog:    make([]domain.Competency, 0, len(raw.Catalog)),
		Questions:  make([]domain.QuestionSpec, 0, len(raw.Questions)),
	}
	for _, c := range raw.Catalog {
		doc.Catalog = append(doc.Catalog, domain.Competency{Key: c.Key, Label: c.Label})
	}
	for i, q := range raw.Questions {
		weight := 1.0
		if q.Weight != nil {
			weight = *q.Weight
		}
		doc.Questions = append(doc.Questions, domain.QuestionSpec{
			ID:          q.ID,
			Prompt:      q.Stem,
			Mode:        domain.SelectionMode(q.Type),
			Options:     append([]string(nil), q.Options...),
			Correct:     correct[i],
			Explanation: q.Explain,
			Competency:  q.Competency,
			Weight:      weight,
			Hints:       append([]string(nil), q.Hints...),
		})
	}
	if raw.Scoring != nil && raw.Scoring.DeliverCount != nil {
		doc.DeliveryCount = *raw.Scoring.DeliverCount
	}
	if len(raw.Rubric) > 0 {
		doc.Rubric = make(map[string]domain.RubricBands, len(raw.Rubric))
		for key, bands := range raw.Rubric {
			doc.Rubric[key] = domain.RubricBands{
				Low:  append([]string(nil), bands.Low...),
				Mid:  append([]string(nil), bands.Mid...),
				High: append([]string(nil), bands.High...),
			}
		}
	}
	return doc
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ParseContent validates stored content and checks that the document's slug
// matches the slug it was stored under.
func ParseContent(c domain.Content) (*domain.QuizDocument, error) {
	doc, err := ParseDocument(c.Data, Format(c.Format))
	if err != nil {
		return nil, err
	}
	if c.Slug != "" && doc.Slug != c.Slug {
		return nil, &domain.ValidationError{
			Path:   "slug",
			Reason: fmt.Sprintf("document slug %q does not match stored slug %q", doc.Slug, c.Slug),
		}
	}
	return doc, nil
}
