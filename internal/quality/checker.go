package quality

import (
	"regexp"
	"strings"

	"github.com/cqlab/contentpipe/internal/domain"
)

// Checker assesses exercise content richness. Scoring is a fixed deduction
// table over content only: the same document always yields the same score.
type Checker struct{}

// NewChecker creates a new quality checker
func NewChecker() *Checker {
	return &Checker{}
}

var imageRef = regexp.MustCompile(`!\[[^\]]*\]\(|<img[\s>]`)

// Assess computes a 0-100 quality score with warnings and suggestions.
// Deductions start from 100 and the score floors at 0.
func (c *Checker) Assess(ex *domain.Exercise) *domain.QualityReport {
	report := &domain.QualityReport{
		Score:       100,
		Warnings:    []string{},
		Suggestions: []string{},
	}
	if ex == nil {
		report.Score = 0
		report.Warnings = append(report.Warnings, "exercise document is nil")
		return report
	}

	c.assessInstructions(ex, report)
	c.assessHints(ex, report)
	c.assessValidation(ex, report)
	c.assessFiles(ex, report)
	c.assessMetadata(ex, report)

	if report.Score < 0 {
		report.Score = 0
	}
	if report.Score > 100 {
		report.Score = 100
	}
	return report
}

func (c *Checker) assessInstructions(ex *domain.Exercise, report *domain.QualityReport) {
	if len(ex.Instructions) < 100 {
		report.Score -= 10
		report.Warnings = append(report.Warnings, "instructions are very short (under 100 characters)")
	}

	if !strings.Contains(ex.Instructions, "```") {
		report.Score -= 5
		report.Suggestions = append(report.Suggestions, "add a fenced code example to the instructions")
	}

	if !imageRef.MatchString(ex.Instructions) {
		report.Score -= 3
		report.Suggestions = append(report.Suggestions, "consider adding a diagram or image reference")
	}
}

func (c *Checker) assessHints(ex *domain.Exercise, report *domain.QualityReport) {
	switch n := len(ex.Hints); {
	case n == 0:
		report.Score -= 10
		report.Suggestions = append(report.Suggestions, "add progressive hints to support struggling learners")
	case n <= 2:
		report.Score -= 5
		report.Suggestions = append(report.Suggestions, "add more hint levels (three or more is ideal)")
	}
}

func (c *Checker) assessValidation(ex *domain.Exercise, report *domain.QualityReport) {
	v := ex.Validation
	if len(v.Patterns) == 0 && len(v.TestCases) == 0 && v.CustomValidator == "" {
		report.Score -= 15
		report.Warnings = append(report.Warnings, "validation has no patterns, test cases, or custom validator")
	}

	if v.Strategy == domain.StrategyExactMatch {
		report.Score -= 5
		report.Suggestions = append(report.Suggestions, "exact-match is brittle; prefer pattern or semantic matching")
	}
}

func (c *Checker) assessFiles(ex *domain.Exercise, report *domain.QualityReport) {
	hasCQL := false
	for _, f := range ex.Files {
		if strings.EqualFold(f.Language, "cql") {
			hasCQL = true
			break
		}
	}
	if !hasCQL {
		report.Score -= 20
		report.Warnings = append(report.Warnings, "exercise has no CQL files")
	}

	if !ex.HasSolution() {
		report.Score -= 8
		report.Suggestions = append(report.Suggestions, "provide a reference solution for at least one file")
	}
}

func (c *Checker) assessMetadata(ex *domain.Exercise, report *domain.QualityReport) {
	needsPrereqs := ex.Difficulty == domain.DifficultyIntermediate || ex.Difficulty == domain.DifficultyAdvanced
	if needsPrereqs && len(ex.Prerequisites) == 0 {
		report.Score -= 5
		report.Suggestions = append(report.Suggestions, "intermediate/advanced exercises should declare prerequisites")
	}

	if len(ex.Concepts) == 1 {
		report.Score -= 3
		report.Suggestions = append(report.Suggestions, "tag additional concepts to improve discoverability")
	}

	if len(ex.Feedback.CommonErrors) == 0 {
		report.Score -= 10
		report.Suggestions = append(report.Suggestions, "document common errors with targeted guidance")
	}
}
