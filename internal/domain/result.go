package domain

// Severity levels for schema findings
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// FieldError is a single structural finding against an exercise document
type FieldError struct {
	Path     string `json:"path"`
	Message  string `json:"message"`
	Severity string `json:"severity"`
}

// SchemaResult is the outcome of structural validation. It is always
// well-formed: malformed input produces error entries, never a panic.
type SchemaResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors"`
}

// AddError records an error-severity finding and marks the result invalid
func (r *SchemaResult) AddError(path, message string) {
	r.Errors = append(r.Errors, FieldError{Path: path, Message: message, Severity: SeverityError})
	r.Valid = false
}

// AddWarning records a warning-severity finding without invalidating
func (r *SchemaResult) AddWarning(path, message string) {
	r.Errors = append(r.Errors, FieldError{Path: path, Message: message, Severity: SeverityWarning})
}

// QualityReport is the deterministic content-richness assessment
type QualityReport struct {
	Score       int      `json:"quality_score"` // 0-100
	Warnings    []string `json:"warnings"`
	Suggestions []string `json:"suggestions"`
}

// PatternResult records a single pattern's outcome for pattern-match runs
type PatternResult struct {
	Pattern     string `json:"pattern"`
	Description string `json:"description"`
	Matched     bool   `json:"matched"`
	Required    bool   `json:"required"`
	Points      int    `json:"points"`
}

// ValidationResult is produced per submission and is the only validation
// artifact learners ever see.
type ValidationResult struct {
	Passed         bool            `json:"passed"`
	Score          int             `json:"score"` // 0-100
	Feedback       []string        `json:"feedback"`
	PatternResults []PatternResult `json:"pattern_results,omitempty"`
}

// MigrationResult pairs a migrated exercise with its post-migration checks
type MigrationResult struct {
	Exercise *Exercise      `json:"exercise"`
	Schema   *SchemaResult  `json:"schema"`
	Quality  *QualityReport `json:"quality"`
	Valid    bool           `json:"valid"`
}
