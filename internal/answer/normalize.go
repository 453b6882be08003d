package answer

import (
	"regexp"
	"strings"

	"github.com/cqlab/contentpipe/internal/domain"
)

var (
	whitespaceRuns = regexp.MustCompile(`\s+`)
	lineComments   = regexp.MustCompile(`//[^\n]*`)
	blockComments  = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// Normalize canonicalizes CQL source for exact comparison. The options are
// applied in a fixed order: comments, then whitespace, then case. This
// deviates from the whitespace-first order the NormalizeOptions fields are
// declared in: collapsing whitespace first would erase the newlines that
// terminate // comments, leaving comment text fused into the code.
func Normalize(code string, opts domain.NormalizeOptions) string {
	out := code

	if opts.IgnoreComments {
		// Comments must go before whitespace collapsing erases the line
		// boundaries that terminate // comments.
		out = blockComments.ReplaceAllString(out, "")
		out = lineComments.ReplaceAllString(out, "")
	}
	if opts.IgnoreWhitespace {
		out = whitespaceRuns.ReplaceAllString(out, " ")
		out = strings.TrimSpace(out)
	}
	if opts.IgnoreCase {
		out = strings.ToLower(out)
	}

	return out
}
