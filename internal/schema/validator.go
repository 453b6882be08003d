package schema

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/cqlab/contentpipe/internal/domain"
)

// Validator checks exercise documents for structural soundness. It never
// returns a Go error and never panics past its boundary: malformed input
// produces findings, and a panic inside the validation library is recovered
// into a single root-level error entry.
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a validator with json-tag field naming so finding
// paths match the wire format.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: v}
}

// Validate runs all structural checks against a single exercise document
func (v *Validator) Validate(ex *domain.Exercise) (result *domain.SchemaResult) {
	result = &domain.SchemaResult{Valid: true, Errors: []domain.FieldError{}}

	defer func() {
		if r := recover(); r != nil {
			result.AddError("<root>", fmt.Sprintf("validation failed: %v", r))
		}
	}()

	if ex == nil {
		result.AddError("<root>", "exercise document is nil")
		return result
	}

	v.checkStruct(ex, result)
	v.checkHints(ex, result)
	v.checkPatterns(ex, result)
	v.checkStrategy(ex, result)

	return result
}

// checkStruct applies the tag-driven checks: required fields, enum
// membership, numeric bounds, element shape for nested slices.
func (v *Validator) checkStruct(ex *domain.Exercise, result *domain.SchemaResult) {
	err := v.validate.Struct(ex)
	if err == nil {
		return
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		// InvalidValidationError or similar: the library itself rejected
		// the input, report once at the root.
		result.AddError("<root>", err.Error())
		return
	}

	for _, fe := range verrs {
		result.AddError(fieldPath(fe), fieldMessage(fe))
	}
}

// checkHints enforces unique, monotonically increasing levels starting at 1
func (v *Validator) checkHints(ex *domain.Exercise, result *domain.SchemaResult) {
	if len(ex.Hints) == 0 {
		return
	}

	levels := make([]int, len(ex.Hints))
	seen := make(map[int]bool, len(ex.Hints))
	for i, h := range ex.Hints {
		levels[i] = h.Level
		if seen[h.Level] {
			result.AddError(fmt.Sprintf("hints[%d].level", i),
				fmt.Sprintf("duplicate hint level %d", h.Level))
		}
		seen[h.Level] = true
	}

	sort.Ints(levels)
	if levels[0] != 1 {
		result.AddError("hints", "hint levels must start at 1")
	}
	for i := 1; i < len(levels); i++ {
		if levels[i] != levels[i-1]+1 {
			result.AddWarning("hints",
				fmt.Sprintf("hint levels are not contiguous (%d follows %d)", levels[i], levels[i-1]))
			break
		}
	}
}

// checkPatterns compiles each validation pattern; a pattern the answer
// validator cannot compile is a structural error, not a runtime surprise.
func (v *Validator) checkPatterns(ex *domain.Exercise, result *domain.SchemaResult) {
	for i, p := range ex.Validation.Patterns {
		if _, err := regexp.Compile("(?im)" + p.Pattern); err != nil {
			result.AddError(fmt.Sprintf("validation.patterns[%d].pattern", i),
				fmt.Sprintf("invalid regular expression: %v", err))
		}
	}
}

// checkStrategy verifies each strategy has the inputs it needs at runtime
func (v *Validator) checkStrategy(ex *domain.Exercise, result *domain.SchemaResult) {
	switch ex.Validation.Strategy {
	case domain.StrategyExactMatch:
		if !ex.HasSolution() {
			result.AddError("validation", "exact-match strategy requires a reference solution")
		}
	case domain.StrategyPatternMatch:
		if len(ex.Validation.Patterns) == 0 {
			result.AddError("validation.patterns", "pattern-match strategy requires at least one pattern")
		}
	case domain.StrategySemanticMatch, domain.StrategyCustomFunction:
		if ex.Validation.CustomValidator == "" {
			result.AddWarning("validation.custom_validator",
				"no named validator configured; submissions will fail closed")
		}
	case domain.StrategyExecutionResult:
		if len(ex.Validation.TestCases) == 0 {
			result.AddWarning("validation.test_cases",
				"execution-result strategy has no test cases")
		}
	}
}

// ValidateCollection runs Validate over every exercise and adds the
// collection-level checks: id uniqueness, prerequisite resolution, and
// prerequisite acyclicity.
func (v *Validator) ValidateCollection(exercises []*domain.Exercise) map[string]*domain.SchemaResult {
	results := make(map[string]*domain.SchemaResult, len(exercises))
	ids := make(map[string]bool, len(exercises))

	for i, ex := range exercises {
		result := v.Validate(ex)
		if ex == nil {
			// Nil entries have no id; key them by position so the
			// failure still appears in the returned map.
			results[fmt.Sprintf("<nil-entry-%d>", i)] = result
			continue
		}
		if ids[ex.ID] {
			result.AddError("id", fmt.Sprintf("duplicate exercise id %q in collection", ex.ID))
		}
		ids[ex.ID] = true
		results[ex.ID] = result
	}

	for _, ex := range exercises {
		if ex == nil {
			continue
		}
		for i, p := range ex.Prerequisites {
			if !ids[p] {
				results[ex.ID].AddError(fmt.Sprintf("prerequisites[%d]", i),
					fmt.Sprintf("prerequisite %q not present in collection", p))
			}
		}
	}

	for _, cycle := range findCycles(exercises) {
		for _, id := range cycle {
			if r, ok := results[id]; ok {
				r.AddError("prerequisites",
					fmt.Sprintf("prerequisite cycle: %s", strings.Join(cycle, " -> ")))
			}
		}
	}

	return results
}

// findCycles detects prerequisite cycles with a three-color DFS
func findCycles(exercises []*domain.Exercise) [][]string {
	prereqs := make(map[string][]string, len(exercises))
	for _, ex := range exercises {
		if ex != nil {
			prereqs[ex.ID] = ex.Prerequisites
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(prereqs))
	var cycles [][]string

	var visit func(id string, stack []string)
	visit = func(id string, stack []string) {
		color[id] = gray
		stack = append(stack, id)

		for _, p := range prereqs[id] {
			switch color[p] {
			case white:
				if _, known := prereqs[p]; known {
					visit(p, stack)
				}
			case gray:
				// Found a back edge; extract the cycle from the stack.
				for i, s := range stack {
					if s == p {
						cycle := append([]string{}, stack[i:]...)
						cycles = append(cycles, append(cycle, p))
						break
					}
				}
			}
		}

		color[id] = black
	}

	// Deterministic iteration order for stable reports
	ids := make([]string, 0, len(prereqs))
	for id := range prereqs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		if color[id] == white {
			visit(id, nil)
		}
	}

	return cycles
}

// fieldPath converts the library's namespace ("Exercise.files[0].name") into
// a document path ("files[0].name").
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "min":
		return fmt.Sprintf("must have at least %s element(s)", fe.Param())
	case "url":
		return "must be a valid URL"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
