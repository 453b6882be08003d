package importer

import (
	"sort"
	"strings"

	"github.com/cqlab/contentpipe/internal/domain"
)

// Fingerprint derives the dedup key for an exercise: normalized title,
// sorted concepts, and difficulty. Exercises that differ only in
// difficulty get distinct fingerprints.
func Fingerprint(ex *domain.Exercise) string {
	title := strings.ToLower(strings.Join(strings.Fields(ex.Title), " "))

	concepts := append([]string{}, ex.Concepts...)
	sort.Strings(concepts)

	return title + "|" + strings.Join(concepts, ",") + "|" + string(ex.Difficulty)
}

// Similarity scores how alike two exercises are, 0-100. Weighted: title
// match (exact 40, case-insensitive 30), concept overlap fraction (x30),
// difficulty match (15), type match (15).
func Similarity(a, b *domain.Exercise) int {
	score := 0

	switch {
	case a.Title == b.Title:
		score += 40
	case strings.EqualFold(a.Title, b.Title):
		score += 30
	}

	score += int(conceptOverlap(a.Concepts, b.Concepts) * 30)

	if a.Difficulty == b.Difficulty {
		score += 15
	}
	if a.Type == b.Type {
		score += 15
	}

	if score > 100 {
		score = 100
	}
	return score
}

// conceptOverlap returns the intersection-over-union of two concept sets,
// treating two empty sets as fully overlapping.
func conceptOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	set := make(map[string]bool, len(a))
	for _, c := range a {
		set[c] = true
	}

	union := make(map[string]bool, len(a)+len(b))
	for _, c := range a {
		union[c] = true
	}

	var shared int
	for _, c := range b {
		if set[c] {
			shared++
		}
		union[c] = true
	}

	return float64(shared) / float64(len(union))
}
