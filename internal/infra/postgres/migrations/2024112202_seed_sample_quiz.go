package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"procureiq-quiz-service/internal/infra/memory"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	Slug string `bun:"slug,pk"`
	Data string `bun:"data,type:jsonb"`
}

// The bundled demo quiz is seeded so a fresh database has something to serve.
// Existing rows with the same slug are left alone.
func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			rows := make([]quizRow, 0, 1)
			for slug, content := range memory.SampleContent() {
				rows = append(rows, quizRow{Slug: slug, Data: string(content.Data)})
			}
			_, err := db.NewInsert().Model(&rows).On("CONFLICT (slug) DO NOTHING").Exec(ctx)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.NewDelete().Model((*quizRow)(nil)).Where("slug = ?", memory.SampleSlug).Exec(ctx)
			return err
		},
	)
}
