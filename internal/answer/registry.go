package answer

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cqlab/contentpipe/internal/domain"
)

// Func is a statically registered custom validator. Legacy predicates
// serialized as code strings are never executed; they are ported by hand
// and registered here under a stable name.
type Func func(ex *domain.Exercise, submitted string) *domain.ValidationResult

// Registry is the static table of named custom validators
type Registry struct {
	mu         sync.RWMutex
	validators map[string]Func
}

// NewRegistry creates an empty validator registry
func NewRegistry() *Registry {
	return &Registry{validators: make(map[string]Func)}
}

// Register adds a validator under name, replacing any previous entry
func (r *Registry) Register(name string, fn Func) error {
	if name == "" {
		return fmt.Errorf("validator name is required: %w", domain.ErrInvalidInput)
	}
	if fn == nil {
		return fmt.Errorf("validator func is required: %w", domain.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.validators[name] = fn
	return nil
}

// Lookup resolves a validator by name
func (r *Registry) Lookup(name string) (Func, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, ok := r.validators[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, domain.ErrValidatorNotFound)
	}
	return fn, nil
}

// Names returns the registered validator names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.validators))
	for name := range r.validators {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
