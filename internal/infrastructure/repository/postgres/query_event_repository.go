package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kirillkom/campus-faq-assistant/internal/core/domain"
)

type QueryEventRepository struct {
	db *sql.DB
}

func NewQueryEventRepository(db *sql.DB) *QueryEventRepository {
	return &QueryEventRepository{db: db}
}

func (r *QueryEventRepository) Record(ctx context.Context, event domain.QueryEvent) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO query_events (
	id, question, question_hash, strategy, source_count, expanded, cache_hit, no_sources, degraded, duration_ms, created_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
`,
		event.ID, event.Question, event.QuestionHash, string(event.Strategy), event.SourceCount,
		event.Expanded, event.CacheHit, event.NoSources, event.Degraded,
		event.Duration.Milliseconds(), event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert query event: %w", err)
	}
	return nil
}

// TopQuestions groups events by normalised question, most asked first.
func (r *QueryEventRepository) TopQuestions(ctx context.Context, since time.Time, limit int) ([]domain.QuestionStat, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT question,
	COUNT(*) AS asked,
	AVG(source_count)::float8,
	AVG(CASE WHEN no_sources THEN 1 ELSE 0 END)::float8,
	MAX(created_at) AS last_asked
FROM query_events
WHERE created_at >= $1
GROUP BY question_hash, question
ORDER BY asked DESC, last_asked DESC
LIMIT $2
`, since, limit)
	if err != nil {
		return nil, fmt.Errorf("query top questions: %w", err)
	}
	defer rows.Close()

	var out []domain.QuestionStat
	for rows.Next() {
		var stat domain.QuestionStat
		if err := rows.Scan(&stat.Question, &stat.Count, &stat.AvgSources, &stat.NoSourceRatio, &stat.LastAskedAt); err != nil {
			return nil, fmt.Errorf("scan question stat: %w", err)
		}
		out = append(out, stat)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question stats: %w", err)
	}
	return out, nil
}
