package domain

import "time"

// Exercise is a self-contained learning unit: instructions, starter code,
// and a validation spec describing how a submission is judged.
type Exercise struct {
	ID            string       `json:"id" yaml:"id" validate:"required"`
	Version       string       `json:"version" yaml:"version"`
	Title         string       `json:"title" yaml:"title" validate:"required"`
	Description   string       `json:"description" yaml:"description"`
	Difficulty    Difficulty   `json:"difficulty" yaml:"difficulty" validate:"required,oneof=beginner intermediate advanced expert"`
	EstimatedTime int          `json:"estimated_time" yaml:"estimated_time" validate:"gte=0"` // minutes
	Prerequisites []string     `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
	Concepts      []string     `json:"concepts,omitempty" yaml:"concepts,omitempty"`
	Type          ExerciseType `json:"type" yaml:"type" validate:"required,oneof=tutorial practice challenge debug assessment"`

	Instructions string     `json:"instructions" yaml:"instructions" validate:"required"`
	Background   string     `json:"background,omitempty" yaml:"background,omitempty"`
	Hints        []Hint     `json:"hints,omitempty" yaml:"hints,omitempty" validate:"dive"`
	Resources    []Resource `json:"resources,omitempty" yaml:"resources,omitempty" validate:"dive"`

	Files      []File         `json:"files" yaml:"files" validate:"required,min=1,dive"`
	Validation ValidationSpec `json:"validation" yaml:"validation"`
	Feedback   Feedback       `json:"feedback" yaml:"feedback"`
	Metadata   Metadata       `json:"metadata" yaml:"metadata"`
}

// Difficulty represents exercise difficulty level
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyExpert       Difficulty = "expert"
)

// ExerciseType classifies how an exercise is used pedagogically
type ExerciseType string

const (
	TypeTutorial   ExerciseType = "tutorial"
	TypePractice   ExerciseType = "practice"
	TypeChallenge  ExerciseType = "challenge"
	TypeDebug      ExerciseType = "debug"
	TypeAssessment ExerciseType = "assessment"
)

// Strategy names the algorithm used to judge a submission
type Strategy string

const (
	StrategyExactMatch      Strategy = "exact-match"
	StrategyPatternMatch    Strategy = "pattern-match"
	StrategySemanticMatch   Strategy = "semantic-match"
	StrategyCustomFunction  Strategy = "custom-function"
	StrategyExecutionResult Strategy = "execution-result"
)

// ReviewStatus tracks editorial state of authored content
type ReviewStatus string

const (
	StatusDraft    ReviewStatus = "draft"
	StatusReview   ReviewStatus = "review"
	StatusApproved ReviewStatus = "approved"
)

// Hint is a single progressive-disclosure hint. Levels start at 1 and are
// revealed in order.
type Hint struct {
	Level       int    `json:"level" yaml:"level" validate:"required,gte=1"`
	Text        string `json:"text" yaml:"text" validate:"required"`
	Code        string `json:"code,omitempty" yaml:"code,omitempty"`
	Explanation string `json:"explanation,omitempty" yaml:"explanation,omitempty"`
}

// Resource points to supplementary reading
type Resource struct {
	Title string `json:"title" yaml:"title" validate:"required"`
	URL   string `json:"url" yaml:"url" validate:"required,url"`
	Kind  string `json:"kind,omitempty" yaml:"kind,omitempty"`
}

// File is one editable (or read-only) buffer presented to the learner
type File struct {
	Name     string  `json:"name" yaml:"name" validate:"required"`
	Template string  `json:"template" yaml:"template"`
	Solution *string `json:"solution,omitempty" yaml:"solution,omitempty"`
	ReadOnly bool    `json:"readonly" yaml:"readonly"`
	Language string  `json:"language" yaml:"language" validate:"required"`
}

// ValidationSpec describes how submitted code is evaluated
type ValidationSpec struct {
	Strategy        Strategy         `json:"strategy" yaml:"strategy" validate:"required,oneof=exact-match pattern-match semantic-match custom-function execution-result"`
	Patterns        []Pattern        `json:"patterns,omitempty" yaml:"patterns,omitempty" validate:"dive"`
	TestCases       []TestCase       `json:"test_cases,omitempty" yaml:"test_cases,omitempty"`
	CustomValidator string           `json:"custom_validator,omitempty" yaml:"custom_validator,omitempty"`
	PassingScore    int              `json:"passing_score" yaml:"passing_score" validate:"gte=0,lte=100"`
	Normalize       NormalizeOptions `json:"normalize" yaml:"normalize"`
}

// Pattern is one scored regular expression applied to a submission
type Pattern struct {
	Pattern     string `json:"pattern" yaml:"pattern" validate:"required"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
	Points      int    `json:"points" yaml:"points" validate:"gte=0"`
}

// TestCase is an input/expected pair for execution-backed validation
type TestCase struct {
	Name     string `json:"name" yaml:"name"`
	Input    string `json:"input" yaml:"input"`
	Expected string `json:"expected" yaml:"expected"`
}

// NormalizeOptions control canonicalization before exact-match comparison
type NormalizeOptions struct {
	IgnoreWhitespace bool `json:"ignore_whitespace" yaml:"ignore_whitespace"`
	IgnoreCase       bool `json:"ignore_case" yaml:"ignore_case"`
	IgnoreComments   bool `json:"ignore_comments" yaml:"ignore_comments"`
}

// Feedback holds the messages surfaced to learners
type Feedback struct {
	Success      string        `json:"success" yaml:"success"`
	Failure      string        `json:"failure" yaml:"failure"`
	CommonErrors []CommonError `json:"common_errors,omitempty" yaml:"common_errors,omitempty"`
}

// CommonError maps a recognizable mistake to targeted guidance
type CommonError struct {
	Trigger     string `json:"trigger" yaml:"trigger" validate:"required"`
	Explanation string `json:"explanation" yaml:"explanation"`
	Suggestion  string `json:"suggestion" yaml:"suggestion"`
	Example     string `json:"example,omitempty" yaml:"example,omitempty"`
}

// Metadata carries authoring and provenance information. QualityScore is
// derived, never authoritative: the quality checker recomputes it before it
// is surfaced anywhere.
type Metadata struct {
	Author          string       `json:"author,omitempty" yaml:"author,omitempty"`
	CreatedAt       time.Time    `json:"created_at" yaml:"created_at"`
	ModifiedAt      time.Time    `json:"modified_at" yaml:"modified_at"`
	Source          string       `json:"source,omitempty" yaml:"source,omitempty"`
	License         string       `json:"license,omitempty" yaml:"license,omitempty"`
	ReviewStatus    ReviewStatus `json:"review_status" yaml:"review_status" validate:"omitempty,oneof=draft review approved"`
	QualityScore    int          `json:"quality_score" yaml:"quality_score"`
	NeedsManualPort bool         `json:"needs_manual_port,omitempty" yaml:"needs_manual_port,omitempty"`
	LegacyPredicate string       `json:"legacy_predicate,omitempty" yaml:"legacy_predicate,omitempty"`
}

// PrimaryFile returns the first non-read-only file, or the first file when
// every file is read-only. Submissions are judged against this file.
func (e *Exercise) PrimaryFile() *File {
	for i := range e.Files {
		if !e.Files[i].ReadOnly {
			return &e.Files[i]
		}
	}
	if len(e.Files) > 0 {
		return &e.Files[0]
	}
	return nil
}

// Solution returns the reference solution for the primary file, if any
func (e *Exercise) Solution() (string, bool) {
	f := e.PrimaryFile()
	if f == nil || f.Solution == nil {
		return "", false
	}
	return *f.Solution, true
}

// HasSolution reports whether any file carries a reference solution
func (e *Exercise) HasSolution() bool {
	for i := range e.Files {
		if e.Files[i].Solution != nil {
			return true
		}
	}
	return false
}

// HintForLevel returns the hint at the given level, or nil
func (e *Exercise) HintForLevel(level int) *Hint {
	for i := range e.Hints {
		if e.Hints[i].Level == level {
			return &e.Hints[i]
		}
	}
	return nil
}

// HasConcept reports whether the exercise is tagged with the concept
func (e *Exercise) HasConcept(concept string) bool {
	for _, c := range e.Concepts {
		if c == concept {
			return true
		}
	}
	return false
}
