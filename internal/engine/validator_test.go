package engine

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"

	"procureiq-quiz-service/internal/domain"
)

func TestValidateBuildsDocument(t *testing.T) {
	doc := docFixture(t)

	if doc.Slug != "supplier-audit" || len(doc.Catalog) != domain.CatalogSize {
		t.Fatalf("unexpected document header: %+v", doc)
	}
	if len(doc.Questions) != 10 {
		t.Fatalf("expected 10 questions, got %d", len(doc.Questions))
	}
	first := doc.Questions[0]
	if first.Mode != domain.ModeMulti || !reflect.DeepEqual(first.Correct, []int{0, 2}) {
		t.Fatalf("expected sorted multi answers [0 2], got %v %v", first.Mode, first.Correct)
	}
	if first.Weight != 1 {
		t.Fatalf("expected default weight 1, got %v", first.Weight)
	}
	if first.Prompt != "Question 1" || first.Explanation != "Explanation 1" {
		t.Fatalf("prompt/explanation not carried over: %+v", first)
	}
	if doc.Questions[1].SelectCount() != 1 || first.SelectCount() != 2 {
		t.Fatalf("unexpected select counts")
	}
	if got := doc.Rubric["facts"].Low; len(got) != 3 {
		t.Fatalf("expected rubric carried over, got %v", got)
	}
	if doc.DeliveryCount != 0 {
		t.Fatalf("expected no document delivery count, got %d", doc.DeliveryCount)
	}
}

func TestValidateRejectsMalformedDocuments(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(d *RawDocument)
		path   string
	}{
		{
			name:   "missing title",
			mutate: func(d *RawDocument) { d.Title = "" },
			path:   "title",
		},
		{
			name:   "missing objectives",
			mutate: func(d *RawDocument) { d.Objectives = nil },
			path:   "learning_objectives",
		},
		{
			name:   "unknown selection mode",
			mutate: func(d *RawDocument) { d.Questions[2].Type = "ranking" },
			path:   "questions[2].type",
		},
		{
			name:   "blank option",
			mutate: func(d *RawDocument) { d.Questions[1].Options[2] = "" },
			path:   "questions[1].options[2]",
		},
		{
			name: "zero weight",
			mutate: func(d *RawDocument) {
				w := 0.0
				d.Questions[0].Weight = &w
			},
			path: "questions[0].weight",
		},
		{
			name: "infinite weight",
			mutate: func(d *RawDocument) {
				w := math.Inf(1)
				d.Questions[3].Weight = &w
			},
			path: "questions[3].weight",
		},
		{
			name: "select count disagrees with answers",
			mutate: func(d *RawDocument) {
				n := 3
				d.Questions[0].SelectCount = &n
			},
			path: "questions[0].select_count",
		},
		{
			name:   "catalog too small",
			mutate: func(d *RawDocument) { d.Catalog = d.Catalog[:5] },
			path:   "skills_catalog",
		},
		{
			name:   "duplicate competency",
			mutate: func(d *RawDocument) { d.Catalog[5].Key = "facts" },
			path:   "skills_catalog[5].key",
		},
		{
			name:   "pool too small",
			mutate: func(d *RawDocument) { d.Questions = d.Questions[:7] },
			path:   "questions",
		},
		{
			name: "pool too large",
			mutate: func(d *RawDocument) {
				extra := d.Questions[1]
				for i := 0; i < 3; i++ {
					extra.ID = "extra" + string(rune('a'+i))
					d.Questions = append(d.Questions, extra)
				}
			},
			path: "questions",
		},
		{
			name:   "unknown competency",
			mutate: func(d *RawDocument) { d.Questions[3].Competency = "logistics" },
			path:   "questions[3].competency",
		},
		{
			name: "single with two answers",
			mutate: func(d *RawDocument) {
				d.Questions[1].AnswerIndices = []int{0, 1}
			},
			path: "questions[1].answer_indices",
		},
		{
			name: "multi without answers",
			mutate: func(d *RawDocument) {
				d.Questions[0].AnswerIndices = nil
			},
			path: "questions[0].answer_indices",
		},
		{
			name: "answer out of range",
			mutate: func(d *RawDocument) {
				idx := 4
				d.Questions[4].AnswerIndex = &idx
			},
			path: "questions[4].answer_index",
		},
		{
			name: "repeated answer index",
			mutate: func(d *RawDocument) {
				d.Questions[0].AnswerIndices = []int{2, 2}
			},
			path: "questions[0].answer_indices",
		},
		{
			name:   "duplicate question id",
			mutate: func(d *RawDocument) { d.Questions[9].ID = "q2" },
			path:   "questions[9].id",
		},
		{
			name: "rubric for unknown competency",
			mutate: func(d *RawDocument) {
				d.Rubric["ghost"] = rawBands{Low: []string{"boo"}}
			},
			path: "improvement_rubric.ghost",
		},
		{
			name: "first failing check wins",
			mutate: func(d *RawDocument) {
				d.Catalog = d.Catalog[:4]
				d.Questions = d.Questions[:3]
			},
			path: "skills_catalog",
		},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := rawFixture()
			tt.mutate(raw)

			doc, err := v.Validate(raw)
			if doc != nil {
				t.Fatalf("expected no document, got %+v", doc)
			}
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if verr.Path != tt.path {
				t.Fatalf("expected path %q, got %q (%s)", tt.path, verr.Path, verr.Reason)
			}
			if !errors.Is(err, domain.ErrInvalidDocument) {
				t.Fatalf("expected error to match ErrInvalidDocument")
			}
		})
	}
}

func TestParseDocumentJSONAndYAML(t *testing.T) {
	raw := rawFixture()
	deliver := 8
	raw.Scoring = &rawScoring{DeliverCount: &deliver}

	jsonData, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal json: %v", err)
	}
	fromJSON, err := ParseDocument(jsonData, FormatJSON)
	if err != nil {
		t.Fatalf("parse json: %v", err)
	}

	yamlData, err := yaml.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal yaml: %v", err)
	}
	fromYAML, err := ParseDocument(yamlData, FormatYAML)
	if err != nil {
		t.Fatalf("parse yaml: %v", err)
	}

	if !reflect.DeepEqual(fromJSON, fromYAML) {
		t.Fatalf("json and yaml documents differ:\n%+v\n%+v", fromJSON, fromYAML)
	}
	if fromJSON.DeliveryCount != 8 {
		t.Fatalf("expected delivery count 8, got %d", fromJSON.DeliveryCount)
	}
}

func TestParseDocumentReportsTypeErrors(t *testing.T) {
	_, err := ParseDocument([]byte(`{"slug": 42}`), FormatJSON)
	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Path != "slug" {
		t.Fatalf("expected path slug, got %q", verr.Path)
	}

	_, err = ParseDocument([]byte("{not json"), FormatJSON)
	if !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected syntax error reported as invalid document, got %v", err)
	}

	_, err = ParseDocument([]byte("questions: 12"), FormatYAML)
	if !errors.Is(err, domain.ErrInvalidDocument) {
		t.Fatalf("expected yaml type error reported as invalid document, got %v", err)
	}
}

func TestParseDocumentRejectsExtraContent(t *testing.T) {
	raw := rawFixture()
	valid, err := json.Marshal(raw)
	if err != nil {
		t.Fatalf("marshal json: %v", err)
	}
	if _, err := ParseDocument(valid, FormatJSON); err != nil {
		t.Fatalf("expected fixture to parse, got %v", err)
	}

	cases := map[string]struct {
		data   []byte
		format Format
	}{
		"trailing text":      {append(append([]byte(nil), valid...), []byte(" this is not json")...), FormatJSON},
		"second json value":  {append(append([]byte(nil), valid...), valid...), FormatJSON},
		"unknown json field": {[]byte(`{"slug":"x","skills":[{"key":"facts","weight":1}]}`), FormatJSON},
		"unknown yaml field": {[]byte("slug: x\nskills: []\n"), FormatYAML},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseDocument(tc.data, tc.format)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) || verr.Path != "document" {
				t.Fatalf("expected document-level ValidationError, got %v", err)
			}
		})
	}
}

func TestValidateAcceptsMatchingSelectCount(t *testing.T) {
	raw := rawFixture()
	n := 2
	raw.Questions[0].SelectCount = &n
	if _, err := NewValidator().Validate(raw); err != nil {
		t.Fatalf("expected matching select_count to pass, got %v", err)
	}
}

func TestFormatFromPath(t *testing.T) {
	cases := map[string]Format{
		"content/a/quiz.json": FormatJSON,
		"content/a/quiz.yaml": FormatYAML,
		"content/a/quiz.YML":  FormatYAML,
		"quiz":                FormatJSON,
	}
	for path, want := range cases {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %s, want %s", path, got, want)
		}
	}
}
