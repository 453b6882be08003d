package importer

import (
	"regexp"
	"strings"

	"github.com/cqlab/contentpipe/internal/domain"
)

// enhance attempts to remediate a low-scoring exercise by synthesizing the
// cheapest missing content: hints derived from the reference solution and a
// seed pattern when validation is empty. Returns true if anything changed.
// Remediation is best-effort; it never degrades existing content.
func enhance(ex *domain.Exercise) bool {
	changed := false

	if len(ex.Hints) == 0 {
		ex.Hints = synthesizeHints(ex)
		changed = len(ex.Hints) > 0
	}

	v := &ex.Validation
	if len(v.Patterns) == 0 && len(v.TestCases) == 0 && v.CustomValidator == "" {
		if p, ok := synthesizePattern(ex); ok {
			v.Patterns = append(v.Patterns, p)
			changed = true
		}
	}

	return changed
}

func synthesizeHints(ex *domain.Exercise) []domain.Hint {
	hints := []domain.Hint{{
		Level: 1,
		Text:  "Re-read the instructions and identify what the exercise asks you to define.",
	}}

	if solution, ok := ex.Solution(); ok {
		if first := firstStatement(solution); first != "" {
			hints = append(hints, domain.Hint{
				Level: 2,
				Text:  "Your solution should start with something like:",
				Code:  first,
			})
		}
	}

	return hints
}

var leadingKeyword = regexp.MustCompile(`(?i)^\s*(define|library|valueset|using|include)\b[^\n]*`)

// synthesizePattern seeds one pattern from the solution's leading statement
func synthesizePattern(ex *domain.Exercise) (domain.Pattern, bool) {
	solution, ok := ex.Solution()
	if !ok {
		return domain.Pattern{}, false
	}

	first := leadingKeyword.FindString(solution)
	if first == "" {
		first = firstStatement(solution)
	}
	if first == "" {
		return domain.Pattern{}, false
	}

	return domain.Pattern{
		Pattern:     regexp.QuoteMeta(strings.TrimSpace(first)),
		Description: "Uses the expected opening statement",
		Required:    true,
		Points:      100,
	}, true
}

// firstStatement returns the first non-empty, non-comment line
func firstStatement(code string) string {
	for _, line := range strings.Split(code, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		return line
	}
	return ""
}
