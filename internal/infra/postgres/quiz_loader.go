package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"procureiq-quiz-service/internal/domain"
)

// QuizLoader loads raw quiz JSONB from Postgres. Rows are not trusted;
// the repository validates the content before use.
type QuizLoader struct {
	pool *pgxpool.Pool
}

func NewQuizLoader(pool *pgxpool.Pool) *QuizLoader {
	return &QuizLoader{pool: pool}
}

func (l *QuizLoader) LoadQuiz(ctx context.Context, slug string) (domain.Content, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM quizzes WHERE slug=$1`, slug).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Content{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Content{}, fmt.Errorf("load quiz: %w", err)
	}
	return domain.Content{Slug: slug, Data: raw, Format: "json"}, nil
}

func (l *QuizLoader) ListQuizzes(ctx context.Context) ([]string, error) {
	rows, err := l.pool.Query(ctx, `SELECT slug FROM quizzes ORDER BY slug`)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, fmt.Errorf("scan slug: %w", err)
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

// SaveQuiz upserts raw JSON content under slug.
func (l *QuizLoader) SaveQuiz(ctx context.Context, slug string, data []byte) error {
	_, err := l.pool.Exec(ctx, `
INSERT INTO quizzes (slug, data) VALUES ($1, $2)
ON CONFLICT (slug) DO UPDATE SET data = EXCLUDED.data, updated_at = now()`, slug, data)
	if err != nil {
		return fmt.Errorf("save quiz: %w", err)
	}
	return nil
}
