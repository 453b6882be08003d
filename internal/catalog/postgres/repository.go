package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cqlab/contentpipe/internal/domain"
)

// Repository persists the exercise catalog in PostgreSQL for the hosted
// platform. The full document lives in a jsonb column; indexed columns
// serve listing and filtering.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed catalog repository
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save upserts an exercise
func (r *Repository) Save(ctx context.Context, ex *domain.Exercise) error {
	doc, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("encode exercise: %w", err)
	}

	query := `
		INSERT INTO exercises (id, title, difficulty, type, quality_score, source, review_status, doc, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			difficulty = EXCLUDED.difficulty,
			type = EXCLUDED.type,
			quality_score = EXCLUDED.quality_score,
			source = EXCLUDED.source,
			review_status = EXCLUDED.review_status,
			doc = EXCLUDED.doc,
			updated_at = now()
	`
	_, err = r.pool.Exec(ctx, query,
		ex.ID, ex.Title, string(ex.Difficulty), string(ex.Type),
		ex.Metadata.QualityScore, ex.Metadata.Source, string(ex.Metadata.ReviewStatus), doc,
	)
	if err != nil {
		return fmt.Errorf("save exercise %s: %w", ex.ID, err)
	}
	return nil
}

// Get loads one exercise by id
func (r *Repository) Get(ctx context.Context, id string) (*domain.Exercise, error) {
	var doc []byte
	err := r.pool.QueryRow(ctx, `SELECT doc FROM exercises WHERE id = $1`, id).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, domain.ErrExerciseNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get exercise %s: %w", id, err)
	}

	var ex domain.Exercise
	if err := json.Unmarshal(doc, &ex); err != nil {
		return nil, fmt.Errorf("decode exercise %s: %w", id, err)
	}
	return &ex, nil
}

// List loads all exercises ordered by id
func (r *Repository) List(ctx context.Context) ([]*domain.Exercise, error) {
	rows, err := r.pool.Query(ctx, `SELECT doc FROM exercises ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var exercises []*domain.Exercise
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		var ex domain.Exercise
		if err := json.Unmarshal(doc, &ex); err != nil {
			return nil, fmt.Errorf("decode exercise: %w", err)
		}
		exercises = append(exercises, &ex)
	}
	return exercises, rows.Err()
}

// ListByDifficulty loads exercises at one difficulty, ordered by id
func (r *Repository) ListByDifficulty(ctx context.Context, difficulty domain.Difficulty) ([]*domain.Exercise, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT doc FROM exercises WHERE difficulty = $1 ORDER BY id`, string(difficulty))
	if err != nil {
		return nil, fmt.Errorf("list exercises by difficulty: %w", err)
	}
	defer rows.Close()

	var exercises []*domain.Exercise
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		var ex domain.Exercise
		if err := json.Unmarshal(doc, &ex); err != nil {
			return nil, fmt.Errorf("decode exercise: %w", err)
		}
		exercises = append(exercises, &ex)
	}
	return exercises, rows.Err()
}

// Delete removes an exercise by id
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exercises WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete exercise %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", id, domain.ErrExerciseNotFound)
	}
	return nil
}

// EnsureSchema creates the exercises table if it does not exist. The hosted
// platform runs real migrations; this keeps development databases usable.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS exercises (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		difficulty    TEXT NOT NULL,
		type          TEXT NOT NULL,
		quality_score INTEGER NOT NULL DEFAULT 0,
		source        TEXT,
		review_status TEXT NOT NULL DEFAULT 'draft',
		doc           JSONB NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("ensure exercises table: %w", err)
	}
	return nil
}
