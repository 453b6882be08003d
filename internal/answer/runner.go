package answer

import "context"

// Runner is the external CQL execution collaborator. Given source text it
// returns one result per evaluated expression.
type Runner interface {
	Execute(ctx context.Context, source string) ([]ExpressionResult, error)
}

// ExpressionResult is the per-expression outcome reported by the execution
// service.
type ExpressionResult struct {
	Name            string `json:"name"`
	Location        string `json:"location"`
	ResultType      string `json:"result_type"`
	Result          string `json:"result,omitempty"`
	Error           string `json:"error,omitempty"`
	TranslatorError string `json:"translator_error,omitempty"`
}
