package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cqlab/contentpipe/internal/domain"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func storedExercise(id string) *domain.Exercise {
	solution := `define "X": 1`
	return &domain.Exercise{
		ID:           id,
		Title:        "Exercise " + id,
		Difficulty:   domain.DifficultyBeginner,
		Type:         domain.TypePractice,
		Instructions: "Write the define statement.",
		Files: []domain.File{
			{Name: "main.cql", Language: "cql", Solution: &solution},
		},
		Validation: domain.ValidationSpec{
			Strategy:     domain.StrategyPatternMatch,
			PassingScore: 70,
			Patterns:     []domain.Pattern{{Pattern: "define", Required: true, Points: 100}},
		},
		Metadata: domain.Metadata{
			Source:       "test",
			ReviewStatus: domain.StatusApproved,
			QualityScore: 72,
		},
	}
}

func TestStore_SaveGet(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, storedExercise("a")); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ID != "a" || got.Title != "Exercise a" {
		t.Errorf("loaded exercise wrong: %+v", got)
	}
	if got.Files[0].Solution == nil || *got.Files[0].Solution != `define "X": 1` {
		t.Error("nested document content should round-trip")
	}
	if got.Metadata.QualityScore != 72 {
		t.Errorf("quality score = %d, want 72", got.Metadata.QualityScore)
	}
}

func TestStore_Get_NotFound(t *testing.T) {
	store := openTestStore(t)

	_, err := store.Get(context.Background(), "missing")
	if !errors.Is(err, domain.ErrExerciseNotFound) {
		t.Errorf("expected ErrExerciseNotFound, got %v", err)
	}
}

func TestStore_Save_Upsert(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	ex := storedExercise("a")
	if err := store.Save(ctx, ex); err != nil {
		t.Fatal(err)
	}

	ex.Title = "Renamed"
	if err := store.Save(ctx, ex); err != nil {
		t.Fatalf("second save should upsert: %v", err)
	}

	got, err := store.Get(ctx, "a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != "Renamed" {
		t.Errorf("title = %q, want Renamed", got.Title)
	}

	n, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
}

func TestStore_SaveAll_List(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	batch := []*domain.Exercise{
		storedExercise("b"),
		storedExercise("a"),
		storedExercise("c"),
	}
	if err := store.SaveAll(ctx, batch); err != nil {
		t.Fatalf("save all: %v", err)
	}

	exercises, err := store.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(exercises) != 3 {
		t.Fatalf("listed %d exercises, want 3", len(exercises))
	}
	if exercises[0].ID != "a" || exercises[2].ID != "c" {
		t.Errorf("list should be id-ordered, got %s..%s", exercises[0].ID, exercises[2].ID)
	}
}

func TestStore_Delete(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	if err := store.Save(ctx, storedExercise("a")); err != nil {
		t.Fatal(err)
	}
	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, "a"); !errors.Is(err, domain.ErrExerciseNotFound) {
		t.Error("deleted exercise should be gone")
	}

	if err := store.Delete(ctx, "a"); !errors.Is(err, domain.ErrExerciseNotFound) {
		t.Errorf("deleting a missing row should report not found, got %v", err)
	}
}

func TestStore_Open_Reopens(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.db")
	ctx := context.Background()

	first, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Save(ctx, storedExercise("persist")); err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer second.Close()

	if _, err := second.Get(ctx, "persist"); err != nil {
		t.Errorf("data should survive reopen: %v", err)
	}
}
