package quality

import (
	"strings"
	"testing"

	"github.com/cqlab/contentpipe/internal/domain"
)

// richExercise has every feature the checker rewards, so its score is 100.
func richExercise() *domain.Exercise {
	solution := `define "Result": 1 + 1`
	return &domain.Exercise{
		ID:         "rich",
		Title:      "Rich Exercise",
		Difficulty: domain.DifficultyBeginner,
		Type:       domain.TypePractice,
		Instructions: "Write a define statement that computes the sum of two numbers.\n\n" +
			"```cql\ndefine \"Example\": 2 + 3\n```\n\n" +
			"![expression diagram](images/define.png)\n",
		Hints: []domain.Hint{
			{Level: 1, Text: "Start with define."},
			{Level: 2, Text: "Quote the name."},
			{Level: 3, Text: "End with the expression.", Code: `define "Result": 1 + 1`},
		},
		Concepts: []string{"define", "arithmetic"},
		Files: []domain.File{
			{Name: "main.cql", Template: `define "Result": `, Solution: &solution, Language: "cql"},
		},
		Validation: domain.ValidationSpec{
			Strategy:     domain.StrategyPatternMatch,
			PassingScore: 70,
			Patterns: []domain.Pattern{
				{Pattern: `define\s+"Result"`, Required: true, Points: 100},
			},
		},
		Feedback: domain.Feedback{
			CommonErrors: []domain.CommonError{
				{Trigger: `define [^"]`, Explanation: "names must be quoted"},
			},
		},
	}
}

func TestChecker_Assess_FullScore(t *testing.T) {
	report := NewChecker().Assess(richExercise())

	if report.Score != 100 {
		t.Errorf("rich exercise should score 100, got %d (warnings: %v, suggestions: %v)",
			report.Score, report.Warnings, report.Suggestions)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("rich exercise should have no warnings, got %v", report.Warnings)
	}
}

func TestChecker_Assess_Deductions(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*domain.Exercise)
		deduction int
	}{
		{
			name:      "short instructions",
			mutate:    func(ex *domain.Exercise) { ex.Instructions = "Short.\n```cql\nx\n```\n![d](i.png)" },
			deduction: 10,
		},
		{
			name: "no code example",
			mutate: func(ex *domain.Exercise) {
				ex.Instructions = strings.ReplaceAll(ex.Instructions, "```", "   ")
			},
			deduction: 5,
		},
		{
			name: "no image reference",
			mutate: func(ex *domain.Exercise) {
				ex.Instructions = strings.ReplaceAll(ex.Instructions, "![expression diagram](images/define.png)", "see above")
			},
			deduction: 3,
		},
		{
			name:      "no hints",
			mutate:    func(ex *domain.Exercise) { ex.Hints = nil },
			deduction: 10,
		},
		{
			name:      "too few hints",
			mutate:    func(ex *domain.Exercise) { ex.Hints = ex.Hints[:2] },
			deduction: 5,
		},
		{
			name: "no validation content",
			mutate: func(ex *domain.Exercise) {
				ex.Validation.Patterns = nil
				ex.Validation.TestCases = nil
				ex.Validation.CustomValidator = ""
			},
			deduction: 15,
		},
		{
			name:      "exact match strategy",
			mutate:    func(ex *domain.Exercise) { ex.Validation.Strategy = domain.StrategyExactMatch },
			deduction: 5,
		},
		{
			name: "no cql files",
			mutate: func(ex *domain.Exercise) {
				sol := "answer"
				ex.Files = []domain.File{{Name: "readme.md", Solution: &sol, Language: "markdown"}}
			},
			deduction: 20,
		},
		{
			name: "no solution",
			mutate: func(ex *domain.Exercise) {
				for i := range ex.Files {
					ex.Files[i].Solution = nil
				}
			},
			deduction: 8,
		},
		{
			name: "intermediate without prerequisites",
			mutate: func(ex *domain.Exercise) {
				ex.Difficulty = domain.DifficultyIntermediate
				ex.Prerequisites = nil
			},
			deduction: 5,
		},
		{
			name:      "single concept",
			mutate:    func(ex *domain.Exercise) { ex.Concepts = ex.Concepts[:1] },
			deduction: 3,
		},
		{
			name:      "no common errors",
			mutate:    func(ex *domain.Exercise) { ex.Feedback.CommonErrors = nil },
			deduction: 10,
		},
	}

	checker := NewChecker()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := richExercise()
			tt.mutate(ex)

			report := checker.Assess(ex)
			want := 100 - tt.deduction
			if report.Score != want {
				t.Errorf("score = %d, want %d (warnings: %v, suggestions: %v)",
					report.Score, want, report.Warnings, report.Suggestions)
			}
		})
	}
}

func TestChecker_Assess_FloorsAtZero(t *testing.T) {
	report := NewChecker().Assess(&domain.Exercise{
		ID:           "bare",
		Title:        "Bare",
		Difficulty:   domain.DifficultyAdvanced,
		Type:         domain.TypeChallenge,
		Instructions: "Do it.",
		Concepts:     []string{"define"},
	})

	if report.Score < 0 || report.Score > 100 {
		t.Errorf("score must stay within [0,100], got %d", report.Score)
	}
}

func TestChecker_Assess_Nil(t *testing.T) {
	report := NewChecker().Assess(nil)
	if report.Score != 0 {
		t.Errorf("nil exercise should score 0, got %d", report.Score)
	}
}

func TestChecker_Assess_Deterministic(t *testing.T) {
	checker := NewChecker()
	ex := richExercise()
	ex.Hints = nil
	ex.Feedback.CommonErrors = nil

	first := checker.Assess(ex)
	second := checker.Assess(ex)

	if first.Score != second.Score {
		t.Errorf("same document scored differently: %d vs %d", first.Score, second.Score)
	}
	if len(first.Suggestions) != len(second.Suggestions) {
		t.Errorf("suggestion counts differ: %d vs %d", len(first.Suggestions), len(second.Suggestions))
	}
}
