package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cqlab/contentpipe/internal/domain"
)

// Store persists the exercise catalog in a local SQLite database. Nested
// exercise content is stored as a JSON document column; the indexed columns
// exist for listing and filtering.
type Store struct {
	db *sql.DB
}

// Open creates a store with WAL mode and foreign keys enabled
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	// Single-writer SQLite
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS exercises (
		id            TEXT PRIMARY KEY,
		title         TEXT NOT NULL,
		difficulty    TEXT NOT NULL,
		type          TEXT NOT NULL,
		quality_score INTEGER NOT NULL DEFAULT 0,
		source        TEXT,
		review_status TEXT NOT NULL DEFAULT 'draft',
		doc           TEXT NOT NULL,
		updated_at    DATETIME NOT NULL DEFAULT (datetime('now'))
	)`)
	if err != nil {
		return fmt.Errorf("create exercises table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_exercises_difficulty
		ON exercises (difficulty)`)
	if err != nil {
		return fmt.Errorf("create difficulty index: %w", err)
	}
	return nil
}

// Save upserts an exercise
func (s *Store) Save(ctx context.Context, ex *domain.Exercise) error {
	doc, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("encode exercise: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO exercises (id, title, difficulty, type, quality_score, source, review_status, doc, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			difficulty = excluded.difficulty,
			type = excluded.type,
			quality_score = excluded.quality_score,
			source = excluded.source,
			review_status = excluded.review_status,
			doc = excluded.doc,
			updated_at = datetime('now')`,
		ex.ID, ex.Title, string(ex.Difficulty), string(ex.Type),
		ex.Metadata.QualityScore, ex.Metadata.Source, string(ex.Metadata.ReviewStatus), string(doc),
	)
	if err != nil {
		return fmt.Errorf("save exercise %s: %w", ex.ID, err)
	}
	return nil
}

// SaveAll upserts a batch in one transaction
func (s *Store) SaveAll(ctx context.Context, exercises []*domain.Exercise) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO exercises (id, title, difficulty, type, quality_score, source, review_status, doc, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, datetime('now'))
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			difficulty = excluded.difficulty,
			type = excluded.type,
			quality_score = excluded.quality_score,
			source = excluded.source,
			review_status = excluded.review_status,
			doc = excluded.doc,
			updated_at = datetime('now')`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, ex := range exercises {
		doc, err := json.Marshal(ex)
		if err != nil {
			return fmt.Errorf("encode exercise %s: %w", ex.ID, err)
		}
		if _, err := stmt.ExecContext(ctx,
			ex.ID, ex.Title, string(ex.Difficulty), string(ex.Type),
			ex.Metadata.QualityScore, ex.Metadata.Source, string(ex.Metadata.ReviewStatus), string(doc),
		); err != nil {
			return fmt.Errorf("save exercise %s: %w", ex.ID, err)
		}
	}

	return tx.Commit()
}

// Get loads one exercise by id
func (s *Store) Get(ctx context.Context, id string) (*domain.Exercise, error) {
	var doc string
	err := s.db.QueryRowContext(ctx,
		`SELECT doc FROM exercises WHERE id = ?`, id,
	).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", id, domain.ErrExerciseNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get exercise %s: %w", id, err)
	}

	return decodeDoc(doc)
}

// List loads all exercises ordered by id
func (s *Store) List(ctx context.Context) ([]*domain.Exercise, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT doc FROM exercises ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list exercises: %w", err)
	}
	defer rows.Close()

	var exercises []*domain.Exercise
	for rows.Next() {
		var doc string
		if err := rows.Scan(&doc); err != nil {
			return nil, fmt.Errorf("scan exercise: %w", err)
		}
		ex, err := decodeDoc(doc)
		if err != nil {
			return nil, err
		}
		exercises = append(exercises, ex)
	}
	return exercises, rows.Err()
}

// Delete removes an exercise by id
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM exercises WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete exercise %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s: %w", id, domain.ErrExerciseNotFound)
	}
	return nil
}

// Count returns the number of stored exercises
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exercises`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count exercises: %w", err)
	}
	return n, nil
}

// Close closes the underlying database
func (s *Store) Close() error {
	return s.db.Close()
}

func decodeDoc(doc string) (*domain.Exercise, error) {
	var ex domain.Exercise
	if err := json.Unmarshal([]byte(doc), &ex); err != nil {
		return nil, fmt.Errorf("decode exercise: %w", err)
	}
	return &ex, nil
}
