package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

const exerciseYAML = `id: interval-basics
title: Interval Basics
difficulty: beginner
type: practice
instructions: Build an interval and test membership.
files:
  - name: main.cql
    template: 'define "Window": '
    solution: 'define "Window": Interval[1, 10]'
    language: cql
validation:
  strategy: pattern-match
  passing_score: 70
  patterns:
    - pattern: 'Interval\['
      required: true
      points: 100
`

const legacyYAML = `name: Old Lesson
content: Learn to define expressions.
tabs:
  - name: main.cql
    template: 'define '
    solution: 'define "X": 1'
`

func writeContentDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	files := map[string]string{
		"02-structured.yaml":  exerciseYAML,
		"01-legacy.yml":       legacyYAML,
		"notes.md":            "not yaml",
		"nested/03-more.yaml": legacyYAML,
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestDirSource_Fetch(t *testing.T) {
	dir := writeContentDir(t)
	src := NewDirSource("local", dir)

	if src.Name() != "local" {
		t.Errorf("name = %q, want local", src.Name())
	}

	records, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 yaml records (markdown skipped), got %d", len(records))
	}

	// Sorted by path: 01-legacy, 02-structured, nested/03-more.
	if records[0].Legacy == nil || records[0].Legacy.Name != "Old Lesson" {
		t.Errorf("first record should be the legacy lesson, got %+v", records[0])
	}
	if records[1].Exercise == nil || records[1].Exercise.ID != "interval-basics" {
		t.Errorf("second record should be the structured exercise, got %+v", records[1])
	}
	if records[2].Legacy == nil {
		t.Errorf("nested record should parse as legacy, got %+v", records[2])
	}

	ex := records[1].Exercise
	if len(ex.Files) != 1 || ex.Files[0].Solution == nil {
		t.Errorf("structured exercise should carry its file and solution, got %+v", ex.Files)
	}
	if len(ex.Validation.Patterns) != 1 {
		t.Errorf("structured exercise should carry its pattern, got %+v", ex.Validation.Patterns)
	}
}

func TestDirSource_Fetch_BadYAML(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(":\n  - ]["), 0o644); err != nil {
		t.Fatal(err)
	}

	src := NewDirSource("local", dir)
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("unparseable yaml should surface an error")
	}
}

func TestDirSource_Fetch_MissingDir(t *testing.T) {
	src := NewDirSource("local", filepath.Join(t.TempDir(), "does-not-exist"))
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("missing directory should surface an error")
	}
}

func TestDirSource_Fetch_CancelledContext(t *testing.T) {
	dir := writeContentDir(t)
	src := NewDirSource("local", dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := src.Fetch(ctx); err == nil {
		t.Error("cancelled context should abort the fetch")
	}
}
