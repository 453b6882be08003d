package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/cqlab/contentpipe/internal/domain"
	"github.com/cqlab/contentpipe/internal/migrate"
)

// fakeSource serves canned records or a canned error.
type fakeSource struct {
	name    string
	records []RawRecord
	err     error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(_ context.Context) ([]RawRecord, error) {
	return f.records, f.err
}

func structuredRecord(id, title, difficulty string, concepts ...string) RawRecord {
	solution := `define "X": 1`
	return RawRecord{Exercise: &domain.Exercise{
		ID:           id,
		Title:        title,
		Difficulty:   domain.Difficulty(difficulty),
		Type:         domain.TypePractice,
		Instructions: "Write the expression described above using a define statement with the right name.",
		Concepts:     concepts,
		Files: []domain.File{
			{Name: "main.cql", Language: "cql", Solution: &solution},
		},
		Validation: domain.ValidationSpec{
			Strategy:     domain.StrategyPatternMatch,
			PassingScore: 70,
			Patterns:     []domain.Pattern{{Pattern: `define`, Required: true, Points: 100}},
		},
	}}
}

func TestOrchestrator_Run_EmptyBatch(t *testing.T) {
	o := NewOrchestrator(nil)
	_, err := o.Run(context.Background(), nil, Options{})
	if !errors.Is(err, domain.ErrEmptyBatch) {
		t.Errorf("expected ErrEmptyBatch, got %v", err)
	}
}

func TestOrchestrator_Run_FailingSourceIsIsolated(t *testing.T) {
	o := NewOrchestrator(nil)
	o.Register(&fakeSource{
		name:    "good",
		records: []RawRecord{structuredRecord("ex-a", "Exercise A", "beginner", "define")},
	})
	o.Register(&fakeSource{name: "bad", err: errors.New("remote unavailable")})

	report, err := o.Run(context.Background(), []string{"good", "bad"}, Options{})
	if err != nil {
		t.Fatalf("a failing source must not fail the run: %v", err)
	}

	if report.Summary.SourcesTotal != 2 || report.Summary.SourcesFailed != 1 {
		t.Errorf("sources total=%d failed=%d, want 2/1",
			report.Summary.SourcesTotal, report.Summary.SourcesFailed)
	}

	var good, bad *SourceStatus
	for i := range report.Sources {
		switch report.Sources[i].Name {
		case "good":
			good = &report.Sources[i]
		case "bad":
			bad = &report.Sources[i]
		}
	}
	if good == nil || good.Status != SourceSuccess || good.Records != 1 {
		t.Errorf("good source status wrong: %+v", good)
	}
	if bad == nil || bad.Status != SourceFailed || bad.Error == "" {
		t.Errorf("bad source status wrong: %+v", bad)
	}

	if len(report.Exercises) != 1 || report.Exercises[0].ID != "ex-a" {
		t.Errorf("expected the good source's exercise retained, got %v", report.Exercises)
	}
}

func TestOrchestrator_Run_UnknownSource(t *testing.T) {
	o := NewOrchestrator(nil)
	report, err := o.Run(context.Background(), []string{"nowhere"}, Options{})
	if err != nil {
		t.Fatalf("unknown source must be reported, not fatal: %v", err)
	}
	if report.Summary.SourcesFailed != 1 {
		t.Errorf("expected one failed source, got %d", report.Summary.SourcesFailed)
	}
}

func TestOrchestrator_Run_MigratesLegacyRecords(t *testing.T) {
	o := NewOrchestrator(nil)
	o.Register(&fakeSource{
		name: "legacy",
		records: []RawRecord{
			{Legacy: &migrate.LegacyRecord{Name: "First Steps", Content: "Learn define."}},
			{Legacy: &migrate.LegacyRecord{Name: "Second Steps", Content: "Learn where."}},
		},
	})

	report, err := o.Run(context.Background(), []string{"legacy"}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if report.Summary.Migrated != 2 {
		t.Errorf("migrated = %d, want 2", report.Summary.Migrated)
	}
	for _, ex := range report.Exercises {
		if ex.Metadata.Source != "legacy" {
			t.Errorf("exercise %s should be stamped with its source, got %q", ex.ID, ex.Metadata.Source)
		}
		if ex.Metadata.ReviewStatus != domain.StatusReview {
			t.Errorf("migrated exercise %s must land in review", ex.ID)
		}
	}
}

func TestOrchestrator_Run_DedupKeepsHigherQuality(t *testing.T) {
	// Same title, concepts, and difficulty: identical fingerprints. The
	// richer candidate carries hints and should win.
	rich := structuredRecord("rich-version", "Intervals", "beginner", "intervals")
	rich.Exercise.Hints = []domain.Hint{
		{Level: 1, Text: "one"},
		{Level: 2, Text: "two"},
		{Level: 3, Text: "three"},
	}
	poor := structuredRecord("poor-version", "Intervals", "beginner", "intervals")
	poor.Exercise.Validation.Patterns = nil

	o := NewOrchestrator(nil)
	o.Register(&fakeSource{name: "both", records: []RawRecord{poor, rich}})

	report, err := o.Run(context.Background(), []string{"both"}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if len(report.Exercises) != 1 {
		t.Fatalf("expected 1 retained exercise, got %d", len(report.Exercises))
	}
	if report.Exercises[0].ID != "rich-version" {
		t.Errorf("retained %q, want the higher-quality rich-version", report.Exercises[0].ID)
	}
	if len(report.Duplicates) != 1 || report.Duplicates[0].DroppedID != "poor-version" {
		t.Errorf("duplicate record wrong: %v", report.Duplicates)
	}
}

func TestOrchestrator_Run_DifficultyVariantsBothRetained(t *testing.T) {
	o := NewOrchestrator(nil)
	o.Register(&fakeSource{name: "src", records: []RawRecord{
		structuredRecord("intervals-easy", "Intervals", "beginner", "intervals"),
		structuredRecord("intervals-hard", "Intervals", "advanced", "intervals"),
	}})

	report, err := o.Run(context.Background(), []string{"src"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Exercises) != 2 {
		t.Errorf("difficulty variants must both survive, got %d retained", len(report.Exercises))
	}
	if len(report.Duplicates) != 0 {
		t.Errorf("no duplicates expected, got %v", report.Duplicates)
	}
}

func TestOrchestrator_Run_IDCollisionSuffixed(t *testing.T) {
	// Distinct fingerprints, same id: both retained, the later renamed.
	a := structuredRecord("clash", "Title One", "beginner", "define")
	b := structuredRecord("clash", "Title Two", "beginner", "where")

	o := NewOrchestrator(nil)
	o.Register(&fakeSource{name: "src", records: []RawRecord{a, b}})

	report, err := o.Run(context.Background(), []string{"src"}, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if len(report.Exercises) != 2 {
		t.Fatalf("expected both exercises retained, got %d", len(report.Exercises))
	}

	ids := map[string]bool{}
	for _, ex := range report.Exercises {
		ids[ex.ID] = true
	}
	if !ids["clash"] || !ids["clash-2"] {
		t.Errorf("expected ids clash and clash-2, got %v", ids)
	}
}

func TestOrchestrator_Run_Enhancement(t *testing.T) {
	// No hints and empty validation: scores below 60, eligible for
	// remediation from the reference solution.
	weak := structuredRecord("weak", "Weak Exercise", "beginner")
	weak.Exercise.Instructions = "Short."
	weak.Exercise.Validation.Patterns = nil
	weak.Exercise.Hints = nil

	o := NewOrchestrator(nil)
	o.Register(&fakeSource{name: "src", records: []RawRecord{weak}})

	report, err := o.Run(context.Background(), []string{"src"}, Options{Enhance: true})
	if err != nil {
		t.Fatal(err)
	}

	if len(report.Reports) != 1 {
		t.Fatalf("expected 1 exercise report, got %d", len(report.Reports))
	}
	r := report.Reports[0]
	if !r.Enhanced {
		t.Error("low-quality exercise should be enhanced")
	}

	ex := report.Exercises[0]
	if len(ex.Hints) == 0 {
		t.Error("enhancement should synthesize hints")
	}
	if len(ex.Validation.Patterns) == 0 {
		t.Error("enhancement should seed a validation pattern")
	}
	if ex.Metadata.QualityScore != r.Quality.Score {
		t.Error("recomputed score should be stamped into metadata")
	}
}

func TestOrchestrator_Run_SummaryAndBuckets(t *testing.T) {
	o := NewOrchestrator(nil)
	o.Register(&fakeSource{name: "src", records: []RawRecord{
		structuredRecord("one", "One", "beginner", "define", "operators"),
		structuredRecord("two", "Two", "beginner", "where", "filtering"),
	}})

	report, err := o.Run(context.Background(), []string{"src"}, Options{})
	if err != nil {
		t.Fatal(err)
	}

	if report.RunID == uuid.Nil {
		t.Error("report should carry a run id")
	}
	if report.Summary.Retained != 2 || report.Summary.Imported != 2 {
		t.Errorf("summary counts wrong: %+v", report.Summary)
	}
	if report.Summary.AverageQuality <= 0 {
		t.Errorf("average quality should be positive, got %f", report.Summary.AverageQuality)
	}

	var bucketed int
	for _, n := range report.Quality {
		bucketed += n
	}
	if bucketed != 2 {
		t.Errorf("every retained exercise lands in exactly one bucket, counted %d", bucketed)
	}
}
