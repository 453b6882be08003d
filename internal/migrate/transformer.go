package migrate

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/cqlab/contentpipe/internal/domain"
	"github.com/cqlab/contentpipe/internal/quality"
	"github.com/cqlab/contentpipe/internal/schema"
)

// LegacyRecord is the flat shape used by the platform's original exercise
// catalog: a name, freeform content, and editor tabs keyed by solution.
type LegacyRecord struct {
	Name    string      `json:"name" yaml:"name"`
	Content string      `json:"content" yaml:"content"`
	Tabs    []LegacyTab `json:"tabs,omitempty" yaml:"tabs,omitempty"`
}

// LegacyTab is one legacy editor tab. Predicate, when present, is the body
// of an executable validation function that cannot be soundly
// auto-translated; it is carried over as opaque text for a manual port.
type LegacyTab struct {
	Name      string `json:"name" yaml:"name"`
	Template  string `json:"template" yaml:"template"`
	Solution  string `json:"solution,omitempty" yaml:"solution,omitempty"`
	Predicate string `json:"predicate,omitempty" yaml:"predicate,omitempty"`
}

// Transformer converts legacy records into structured exercises. It is
// stateful across one batch: positional prerequisite chaining needs the
// slugs of previously migrated records. Construct one transformer per batch.
type Transformer struct {
	schema  *schema.Validator
	quality *quality.Checker
	logger  *slog.Logger

	slugs []string // ids emitted so far, in batch order
}

// NewTransformer creates a transformer for a single migration batch
func NewTransformer(logger *slog.Logger) *Transformer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Transformer{
		schema:  schema.NewValidator(),
		quality: quality.NewChecker(),
		logger:  logger,
	}
}

// Migrate converts one legacy record at the given batch position. It never
// fails: a record with no usable title or content still yields a
// structurally valid, low-quality exercise. Output is deterministic for
// identical inputs except for timestamps.
func (t *Transformer) Migrate(rec LegacyRecord, index int) *domain.Exercise {
	id := slugify(rec.Name)
	if id == "" {
		id = fmt.Sprintf("legacy-exercise-%d", index+1)
	}

	title := strings.TrimSpace(rec.Name)
	if title == "" {
		title = fmt.Sprintf("Legacy Exercise %d", index+1)
	}

	instructions := strings.TrimSpace(rec.Content)
	if instructions == "" {
		instructions = "Ported from the legacy catalog; instructions pending review."
	}

	files, predicate := convertTabs(rec.Tabs)
	now := time.Now().UTC()

	ex := &domain.Exercise{
		ID:            id,
		Version:       "1.0.0",
		Title:         title,
		Description:   firstLine(instructions),
		Difficulty:    inferDifficulty(title, rec.Content, index),
		EstimatedTime: inferEstimatedTime(rec.Content, files),
		Prerequisites: t.chainPrerequisites(),
		Concepts:      inferConcepts(rec.Content),
		Type:          inferType(title, rec.Content, index),
		Instructions:  instructions,
		Files:         files,
		Validation:    buildValidation(id, files, predicate),
		Feedback: domain.Feedback{
			Success: "Well done! Your CQL is correct.",
			Failure: "Not quite. Review the instructions and try again.",
		},
		Metadata: domain.Metadata{
			Author:          "legacy-import",
			CreatedAt:       now,
			ModifiedAt:      now,
			Source:          "legacy",
			ReviewStatus:    domain.StatusReview, // migrated content is never auto-approved
			NeedsManualPort: predicate != "",
			LegacyPredicate: predicate,
		},
	}

	t.slugs = append(t.slugs, id)

	if predicate != "" {
		t.logger.Warn("legacy predicate flagged for manual port",
			"exercise_id", id,
			"predicate_len", len(predicate),
		)
	}

	return ex
}

// MigrateAll converts a batch and runs the schema and quality checks over
// each output. The transformer validates nothing itself; these results are
// the caller's signal.
func (t *Transformer) MigrateAll(records []LegacyRecord) []domain.MigrationResult {
	results := make([]domain.MigrationResult, 0, len(records))

	for i, rec := range records {
		ex := t.Migrate(rec, i)
		sr := t.schema.Validate(ex)
		qr := t.quality.Assess(ex)
		ex.Metadata.QualityScore = qr.Score

		results = append(results, domain.MigrationResult{
			Exercise: ex,
			Schema:   sr,
			Quality:  qr,
			Valid:    sr.Valid,
		})
	}

	t.logger.Info("migrated legacy batch", "records", len(records))
	return results
}

// chainPrerequisites links to the one or two immediately preceding
// exercises. Migrated catalogs were authored as a linear sequence, so
// positional chaining is the only dependency signal available.
func (t *Transformer) chainPrerequisites() []string {
	n := len(t.slugs)
	if n == 0 {
		return nil
	}
	start := n - 2
	if start < 0 {
		start = 0
	}
	return append([]string{}, t.slugs[start:]...)
}

// firstLine extracts a short description from freeform legacy content
func firstLine(content string) string {
	line := content
	if i := strings.IndexByte(content, '\n'); i >= 0 {
		line = content[:i]
	}
	line = strings.TrimSpace(line)
	if len(line) > 140 {
		line = line[:140]
	}
	return line
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// slugify derives a stable id from a title: lowercase, [a-z0-9-] only,
// collapsed and trimmed hyphens.
func slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonSlug.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func inferDifficulty(title, content string, index int) domain.Difficulty {
	text := strings.ToLower(title + " " + content)
	switch {
	case strings.Contains(text, "advanced") || strings.Contains(text, "complex"):
		return domain.DifficultyAdvanced
	case strings.Contains(text, "intermediate"):
		return domain.DifficultyIntermediate
	}

	// Positional tiers: legacy catalogs were ordered easy to hard.
	switch {
	case index < 3:
		return domain.DifficultyBeginner
	case index < 8:
		return domain.DifficultyIntermediate
	default:
		return domain.DifficultyAdvanced
	}
}

// inferEstimatedTime scales with content length (2 minutes per 100 chars,
// floor 5) plus a bonus for long starter templates, capped at 45 minutes.
func inferEstimatedTime(content string, files []domain.File) int {
	minutes := len(content) / 100 * 2
	if minutes < 5 {
		minutes = 5
	}

	var longest int
	for _, f := range files {
		if len(f.Template) > longest {
			longest = len(f.Template)
		}
	}
	switch {
	case longest > 300:
		minutes += 10
	case longest > 100:
		minutes += 5
	}

	if minutes > 45 {
		minutes = 45
	}
	return minutes
}

// conceptKeywords maps content signals to concept tags
var conceptKeywords = []struct {
	keywords []string
	concept  string
}{
	{[]string{"comment", "//"}, "comments"},
	{[]string{"define"}, "definitions"},
	{[]string{"valueset", "value set"}, "valuesets"},
	{[]string{"retrieve", "["}, "retrieval"},
	{[]string{"where", "filter"}, "filtering"},
	{[]string{"interval"}, "intervals"},
	{[]string{"<", ">", "=", "+", "*"}, "operators"},
	{[]string{" and ", " or ", " not "}, "logic"},
	{[]string{"function"}, "functions"},
}

const maxConcepts = 5

// inferConcepts scans content for keyword signals. "syntax" is always the
// baseline concept; the result is capped at five.
func inferConcepts(content string) []string {
	concepts := []string{"syntax"}
	text := strings.ToLower(content)

	for _, entry := range conceptKeywords {
		if len(concepts) >= maxConcepts {
			break
		}
		for _, kw := range entry.keywords {
			if strings.Contains(text, kw) {
				concepts = append(concepts, entry.concept)
				break
			}
		}
	}

	return concepts
}

func inferType(title, content string, index int) domain.ExerciseType {
	text := strings.ToLower(title + " " + content)
	switch {
	case strings.Contains(text, "debug") || strings.Contains(text, "fix the"):
		return domain.TypeDebug
	case strings.Contains(text, "challenge"):
		return domain.TypeChallenge
	case index == 0:
		return domain.TypeTutorial
	default:
		return domain.TypePractice
	}
}

// convertTabs maps legacy editor tabs to files. The first executable
// predicate found is returned for custom-function handling; predicates are
// never auto-translated.
func convertTabs(tabs []LegacyTab) ([]domain.File, string) {
	if len(tabs) == 0 {
		return []domain.File{{Name: "main.cql", Language: "cql"}}, ""
	}

	files := make([]domain.File, 0, len(tabs))
	var predicate string

	for i, tab := range tabs {
		name := strings.TrimSpace(tab.Name)
		if name == "" {
			name = fmt.Sprintf("tab-%d.cql", i+1)
		}

		f := domain.File{
			Name:     name,
			Template: tab.Template,
			Language: "cql",
		}
		if tab.Solution != "" {
			solution := tab.Solution
			f.Solution = &solution
		}
		files = append(files, f)

		if predicate == "" && tab.Predicate != "" {
			predicate = tab.Predicate
		}
	}

	return files, predicate
}

// buildValidation seeds a pattern-match spec from the legacy solution, or a
// custom-function spec when the record carried an executable predicate.
func buildValidation(id string, files []domain.File, predicate string) domain.ValidationSpec {
	if predicate != "" {
		return domain.ValidationSpec{
			Strategy:        domain.StrategyCustomFunction,
			CustomValidator: "legacy/" + id,
			PassingScore:    70,
		}
	}

	var solution string
	for _, f := range files {
		if f.Solution != nil {
			solution = *f.Solution
			break
		}
	}

	spec := domain.ValidationSpec{
		Strategy:     domain.StrategyPatternMatch,
		PassingScore: 70,
	}
	if solution != "" {
		spec.Patterns = []domain.Pattern{{
			Pattern:     regexp.QuoteMeta(strings.TrimSpace(solution)),
			Description: "Matches the reference solution",
			Required:    true,
			Points:      100,
		}}
	} else {
		// No solution to seed from. A permissive placeholder keeps the
		// record structurally valid; the quality checker flags it anyway.
		spec.Patterns = []domain.Pattern{{
			Pattern:     `\S`,
			Description: "Submission contains CQL code",
			Required:    true,
			Points:      100,
		}}
	}
	return spec
}
