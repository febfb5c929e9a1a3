package fs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"procureiq-quiz-service/internal/domain"
)

// candidates are tried in order; JSON wins when both exist.
var candidates = []struct {
	name   string
	format string
}{
	{"quiz.json", "json"},
	{"quiz.yaml", "yaml"},
	{"quiz.yml", "yaml"},
}

// QuizLoader reads quiz documents laid out as <base>/<slug>/quiz.json (or quiz.yaml).
type QuizLoader struct{ base string }

func NewQuizLoader(base string) (*QuizLoader, error) {
	if base == "" {
		return nil, errors.New("empty content dir")
	}
	info, err := os.Stat(base)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content dir %s is not a directory", base)
	}
	return &QuizLoader{base: base}, nil
}

func (l *QuizLoader) LoadQuiz(_ context.Context, slug string) (domain.Content, error) {
	if !validSlug(slug) {
		return domain.Content{}, domain.ErrQuizNotFound
	}
	for _, c := range candidates {
		data, err := os.ReadFile(filepath.Join(l.base, slug, c.name))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return domain.Content{}, fmt.Errorf("read quiz %s: %w", slug, err)
		}
		return domain.Content{Slug: slug, Data: data, Format: c.format}, nil
	}
	return domain.Content{}, domain.ErrQuizNotFound
}

// ListQuizzes returns the sorted slugs of every directory holding a quiz file.
func (l *QuizLoader) ListQuizzes(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.base)
	if err != nil {
		return nil, err
	}
	slugs := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() || !validSlug(e.Name()) {
			continue
		}
		if l.hasQuiz(e.Name()) {
			slugs = append(slugs, e.Name())
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}

func (l *QuizLoader) hasQuiz(slug string) bool {
	for _, c := range candidates {
		if info, err := os.Stat(filepath.Join(l.base, slug, c.name)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

func validSlug(slug string) bool {
	return slug != "" && !strings.HasPrefix(slug, ".") && !strings.ContainsAny(slug, `/\`)
}
