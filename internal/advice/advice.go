// Package advice turns a finished ScoreReport into improvement suggestions
// drawn from the quiz's rubric. It only reads the report.
package advice

import (
	"sort"
	"strings"

	"procureiq-quiz-service/internal/domain"
)

// Band is a score band of the improvement rubric.
type Band string

const (
	BandLow  Band = "low"
	BandMid  Band = "mid"
	BandHigh Band = "high"
)

const (
	lowCutoff  = 0.4
	weakCutoff = 0.7
	maxItems   = 2
)

// GeneralKey is the suggestion key used when no competency needs work.
const GeneralKey = "general"

const generalText = "Continue practicing procurement case studies to improve overall performance."

// Suggestion is advisory text for one competency.
type Suggestion struct {
	Key   string  `json:"key"`
	Label string  `json:"label"`
	Band  Band    `json:"band"`
	Ratio float64 `json:"ratio"`
	Text  string  `json:"text"`
}

// BandFor maps a normalized ratio to its rubric band.
func BandFor(ratio float64) Band {
	switch {
	case ratio < lowCutoff:
		return BandLow
	case ratio < weakCutoff:
		return BandMid
	default:
		return BandHigh
	}
}

// Suggest returns suggestions for competencies scoring under 70%, weakest
// first. A competency with no delivered questions scores 0 and is included.
func Suggest(rubric map[string]domain.RubricBands, report domain.ScoreReport) []Suggestion {
	var out []Suggestion
	for _, c := range report.Competencies {
		if c.Ratio >= weakCutoff {
			continue
		}
		band := BandFor(c.Ratio)
		out = append(out, Suggestion{
			Key:   c.Key,
			Label: c.Label,
			Band:  band,
			Ratio: c.Ratio,
			Text:  text(c.Label, items(rubric[c.Key], band)),
		})
	}
	if len(out) == 0 {
		return []Suggestion{{Key: GeneralKey, Label: "General", Band: BandHigh, Ratio: report.Overall, Text: generalText}}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Ratio < out[j].Ratio })
	return out
}

func items(bands domain.RubricBands, band Band) []string {
	var list []string
	switch band {
	case BandLow:
		list = bands.Low
		if len(list) == 0 {
			list = bands.Mid
		}
	case BandMid:
		list = bands.Mid
		if len(list) == 0 {
			list = bands.Low
		}
	default:
		list = bands.High
	}
	if len(list) > maxItems {
		list = list[:maxItems]
	}
	return list
}

func text(label string, items []string) string {
	if len(items) == 0 {
		return "Review the case material for " + label + "."
	}
	return "Focus on: " + strings.Join(items, ", ")
}
