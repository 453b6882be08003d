package answer

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/cqlab/contentpipe/internal/domain"
)

const defaultPassingScore = 70

// Evaluator judges learner submissions against an exercise's validation
// spec. Evaluation failures never escape as errors: any panic or internal
// failure is converted into a failed ValidationResult.
type Evaluator struct {
	registry *Registry
	runner   Runner
	logger   *slog.Logger
}

// Option configures an Evaluator
type Option func(*Evaluator)

// WithRunner supplies the external CQL execution collaborator used by the
// execution-result strategy.
func WithRunner(r Runner) Option {
	return func(e *Evaluator) { e.runner = r }
}

// WithRegistry supplies the named-validator table used by semantic-match
// and custom-function strategies.
func WithRegistry(reg *Registry) Option {
	return func(e *Evaluator) { e.registry = reg }
}

// WithLogger sets the logger for evaluation diagnostics
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) { e.logger = l }
}

// NewEvaluator creates an evaluator. Without options it can serve
// exact-match and pattern-match exercises; custom and execution strategies
// fail closed until their collaborators are supplied.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		registry: NewRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate dispatches on the exercise's validation strategy and returns a
// pass/fail result with a 0-100 score and learner-facing feedback.
func (e *Evaluator) Evaluate(ctx context.Context, ex *domain.Exercise, submitted string) (result *domain.ValidationResult) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("submission evaluation panicked",
				"exercise_id", exerciseID(ex),
				"panic", r,
			)
			result = failedResult()
		}
	}()

	if ex == nil {
		return failedResult()
	}

	switch ex.Validation.Strategy {
	case domain.StrategyExactMatch:
		result = e.evaluateExact(ex, submitted)
	case domain.StrategyPatternMatch:
		result = e.evaluatePatterns(ex, submitted)
	case domain.StrategySemanticMatch, domain.StrategyCustomFunction:
		result = e.evaluateCustom(ex, submitted)
	case domain.StrategyExecutionResult:
		result = e.evaluateExecution(ctx, ex, submitted)
	default:
		e.logger.Warn("unknown validation strategy",
			"exercise_id", ex.ID,
			"strategy", ex.Validation.Strategy,
		)
		result = failedResult()
	}

	result.Score = clampScore(result.Score)
	e.appendOutcomeFeedback(ex, submitted, result)
	return result
}

// evaluateExact normalizes both sides per the exercise's options and
// compares. All-or-nothing scoring.
func (e *Evaluator) evaluateExact(ex *domain.Exercise, submitted string) *domain.ValidationResult {
	solution, ok := ex.Solution()
	if !ok {
		return &domain.ValidationResult{
			Passed:   false,
			Score:    0,
			Feedback: []string{"This exercise has no reference solution configured."},
		}
	}

	opts := ex.Validation.Normalize
	if Normalize(submitted, opts) == Normalize(solution, opts) {
		return &domain.ValidationResult{Passed: true, Score: 100, Feedback: []string{}}
	}
	return &domain.ValidationResult{
		Passed:   false,
		Score:    0,
		Feedback: []string{"Your code does not match the expected solution."},
	}
}

// evaluatePatterns runs each pattern as a case-insensitive, multiline
// regular expression against the raw submission and accumulates points.
func (e *Evaluator) evaluatePatterns(ex *domain.Exercise, submitted string) *domain.ValidationResult {
	result := &domain.ValidationResult{Feedback: []string{}}

	for _, p := range ex.Validation.Patterns {
		points := p.Points
		if points == 0 {
			points = 10
		}

		re, err := regexp.Compile("(?im)" + p.Pattern)
		if err != nil {
			// A broken pattern is an authoring bug; the schema validator
			// flags it, here it simply cannot award points.
			e.logger.Warn("skipping uncompilable pattern",
				"exercise_id", ex.ID,
				"pattern", p.Pattern,
				"error", err,
			)
			continue
		}

		matched := re.MatchString(submitted)
		result.PatternResults = append(result.PatternResults, domain.PatternResult{
			Pattern:     p.Pattern,
			Description: p.Description,
			Matched:     matched,
			Required:    p.Required,
			Points:      points,
		})

		if matched {
			result.Score += points
			result.Feedback = append(result.Feedback, fmt.Sprintf("✓ %s", describePattern(p)))
		} else if p.Required {
			result.Feedback = append(result.Feedback, fmt.Sprintf("✗ Missing required element: %s", describePattern(p)))
		}
	}

	result.Score = clampScore(result.Score)
	result.Passed = result.Score >= passingScore(ex)
	return result
}

// evaluateCustom resolves the named validator from the static registry.
// An unregistered or unnamed validator fails closed.
func (e *Evaluator) evaluateCustom(ex *domain.Exercise, submitted string) *domain.ValidationResult {
	name := ex.Validation.CustomValidator
	fn, err := e.registry.Lookup(name)
	if err != nil {
		e.logger.Warn("custom validator unavailable, failing closed",
			"exercise_id", ex.ID,
			"validator", name,
		)
		return &domain.ValidationResult{
			Passed:   false,
			Score:    0,
			Feedback: []string{"This exercise's validator is not configured yet. Please contact the content team."},
		}
	}
	return fn(ex, submitted)
}

// evaluateExecution runs the submission through the external CQL execution
// service and scores the fraction of expressions that evaluated cleanly.
func (e *Evaluator) evaluateExecution(ctx context.Context, ex *domain.Exercise, submitted string) *domain.ValidationResult {
	if e.runner == nil {
		e.logger.Warn("no runner configured for execution-result exercise", "exercise_id", ex.ID)
		return &domain.ValidationResult{
			Passed:   false,
			Score:    0,
			Feedback: []string{"Code execution is currently unavailable."},
		}
	}

	results, err := e.runner.Execute(ctx, submitted)
	if err != nil {
		e.logger.Error("execution failed", "exercise_id", ex.ID, "error", err)
		return failedResult()
	}
	if len(results) == 0 {
		return &domain.ValidationResult{
			Passed:   false,
			Score:    0,
			Feedback: []string{"Your code produced no evaluable expressions."},
		}
	}

	var clean int
	feedback := []string{}
	for _, r := range results {
		if r.Error == "" && r.TranslatorError == "" {
			clean++
			continue
		}
		msg := r.Error
		if msg == "" {
			msg = r.TranslatorError
		}
		feedback = append(feedback, fmt.Sprintf("✗ %s: %s", r.Name, msg))
	}

	score := clean * 100 / len(results)
	return &domain.ValidationResult{
		Passed:   score >= passingScore(ex),
		Score:    score,
		Feedback: feedback,
	}
}

// appendOutcomeFeedback adds the authored success/failure messages and, on
// failure, guidance for any common-error triggers found in the submission.
func (e *Evaluator) appendOutcomeFeedback(ex *domain.Exercise, submitted string, result *domain.ValidationResult) {
	if result.Passed {
		if ex.Feedback.Success != "" {
			result.Feedback = append(result.Feedback, ex.Feedback.Success)
		}
		return
	}

	if ex.Feedback.Failure != "" {
		result.Feedback = append(result.Feedback, ex.Feedback.Failure)
	}
	for _, ce := range MatchCommonErrors(ex, submitted) {
		if ce.Explanation != "" {
			result.Feedback = append(result.Feedback, ce.Explanation)
		}
		if ce.Suggestion != "" {
			result.Feedback = append(result.Feedback, ce.Suggestion)
		}
	}
}

// MatchCommonErrors returns guidance for authored error triggers found in
// the submission. Triggers are matched as case-insensitive substrings or,
// when they compile, regular expressions.
func MatchCommonErrors(ex *domain.Exercise, submitted string) []domain.CommonError {
	var matched []domain.CommonError
	lower := strings.ToLower(submitted)
	for _, ce := range ex.Feedback.CommonErrors {
		if ce.Trigger == "" {
			continue
		}
		if re, err := regexp.Compile("(?i)" + ce.Trigger); err == nil {
			if re.MatchString(submitted) {
				matched = append(matched, ce)
			}
			continue
		}
		if strings.Contains(lower, strings.ToLower(ce.Trigger)) {
			matched = append(matched, ce)
		}
	}
	return matched
}

func passingScore(ex *domain.Exercise) int {
	if ex.Validation.PassingScore > 0 {
		return ex.Validation.PassingScore
	}
	return defaultPassingScore
}

func describePattern(p domain.Pattern) string {
	if p.Description != "" {
		return p.Description
	}
	return p.Pattern
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func failedResult() *domain.ValidationResult {
	return &domain.ValidationResult{
		Passed:   false,
		Score:    0,
		Feedback: []string{"Validation error occurred"},
	}
}

func exerciseID(ex *domain.Exercise) string {
	if ex == nil {
		return ""
	}
	return ex.ID
}
