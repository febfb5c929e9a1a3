package memory

import (
	_ "embed"

	"procureiq-quiz-service/internal/domain"
)

//go:embed sample/procurement-basics.json
var procurementBasics []byte

// SampleSlug identifies the bundled demo quiz.
const SampleSlug = "procurement-basics"

// SampleContent returns the bundled demo quiz, used when no content store is configured.
func SampleContent() map[string]domain.Content {
	return map[string]domain.Content{
		SampleSlug: {Slug: SampleSlug, Data: procurementBasics, Format: "json"},
	}
}
