package catalog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cqlab/contentpipe/internal/domain"
	"github.com/cqlab/contentpipe/internal/quality"
)

// Registry is the in-memory exercise collection the platform serves from.
// Exercises are immutable once stored; the registry recomputes the quality
// score on insert so stored scores are never trusted from input.
type Registry struct {
	mu        sync.RWMutex
	exercises map[string]*domain.Exercise
	quality   *quality.Checker
}

// NewRegistry creates an empty catalog registry
func NewRegistry() *Registry {
	return &Registry{
		exercises: make(map[string]*domain.Exercise),
		quality:   quality.NewChecker(),
	}
}

// Put stores an exercise. Ids are unique within the catalog; storing an
// existing id fails with domain.ErrDuplicateID.
func (r *Registry) Put(ex *domain.Exercise) error {
	if ex == nil || ex.ID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.exercises[ex.ID]; exists {
		return fmt.Errorf("%s: %w", ex.ID, domain.ErrDuplicateID)
	}

	ex.Metadata.QualityScore = r.quality.Assess(ex).Score
	r.exercises[ex.ID] = ex
	return nil
}

// Replace stores an exercise, overwriting any existing entry with its id
func (r *Registry) Replace(ex *domain.Exercise) error {
	if ex == nil || ex.ID == "" {
		return domain.ErrInvalidInput
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	ex.Metadata.QualityScore = r.quality.Assess(ex).Score
	r.exercises[ex.ID] = ex
	return nil
}

// Get returns an exercise by id
func (r *Registry) Get(id string) (*domain.Exercise, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ex, ok := r.exercises[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, domain.ErrExerciseNotFound)
	}
	return ex, nil
}

// List returns all exercises ordered by id
func (r *Registry) List() []*domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exercises := make([]*domain.Exercise, 0, len(r.exercises))
	for _, ex := range r.exercises {
		exercises = append(exercises, ex)
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].ID < exercises[j].ID })
	return exercises
}

// ByDifficulty returns exercises filtered by difficulty
func (r *Registry) ByDifficulty(difficulty domain.Difficulty) []*domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exercises []*domain.Exercise
	for _, ex := range r.exercises {
		if ex.Difficulty == difficulty {
			exercises = append(exercises, ex)
		}
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].ID < exercises[j].ID })
	return exercises
}

// ByConcept returns exercises tagged with the concept
func (r *Registry) ByConcept(concept string) []*domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exercises []*domain.Exercise
	for _, ex := range r.exercises {
		if ex.HasConcept(concept) {
			exercises = append(exercises, ex)
		}
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].ID < exercises[j].ID })
	return exercises
}

// ByType returns exercises filtered by exercise type
func (r *Registry) ByType(t domain.ExerciseType) []*domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exercises []*domain.Exercise
	for _, ex := range r.exercises {
		if ex.Type == t {
			exercises = append(exercises, ex)
		}
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].ID < exercises[j].ID })
	return exercises
}

// Available returns exercises whose prerequisites are all in the completed
// set, in id order.
func (r *Registry) Available(completed map[string]bool) []*domain.Exercise {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var exercises []*domain.Exercise
	for _, ex := range r.exercises {
		if completed[ex.ID] {
			continue
		}
		ok := true
		for _, p := range ex.Prerequisites {
			if !completed[p] {
				ok = false
				break
			}
		}
		if ok {
			exercises = append(exercises, ex)
		}
	}
	sort.Slice(exercises, func(i, j int) bool { return exercises[i].ID < exercises[j].ID })
	return exercises
}

// Stats holds catalog-level counts
type Stats struct {
	ExerciseCount  int
	ByDifficulty   map[string]int
	ByType         map[string]int
	AverageQuality float64
}

// Stats returns counts and the average stored quality score
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{
		ExerciseCount: len(r.exercises),
		ByDifficulty:  make(map[string]int),
		ByType:        make(map[string]int),
	}

	var total int
	for _, ex := range r.exercises {
		stats.ByDifficulty[string(ex.Difficulty)]++
		stats.ByType[string(ex.Type)]++
		total += ex.Metadata.QualityScore
	}
	if stats.ExerciseCount > 0 {
		stats.AverageQuality = float64(total) / float64(stats.ExerciseCount)
	}

	return stats
}
