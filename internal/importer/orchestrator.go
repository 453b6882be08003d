package importer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cqlab/contentpipe/internal/domain"
	"github.com/cqlab/contentpipe/internal/migrate"
	"github.com/cqlab/contentpipe/internal/quality"
	"github.com/cqlab/contentpipe/internal/schema"
)

// Source statuses reported per import run
const (
	SourceSuccess = "success"
	SourceFailed  = "failed"
)

// Options control an import run
type Options struct {
	// Enhance enables the remediation pass that synthesizes hints and
	// patterns for low-scoring exercises.
	Enhance bool

	// EnhanceThreshold is the quality score below which enhancement is
	// attempted. Defaults to 60.
	EnhanceThreshold int
}

// SourceStatus records the per-source outcome of phase one
type SourceStatus struct {
	Name    string `json:"name"`
	Status  string `json:"status"`
	Records int    `json:"records"`
	Error   string `json:"error,omitempty"`
}

// Duplicate records a fingerprint collision resolved during merge
type Duplicate struct {
	KeptID      string `json:"kept_id"`
	DroppedID   string `json:"dropped_id"`
	Fingerprint string `json:"fingerprint"`
	Similarity  int    `json:"similarity"`
}

// ExerciseReport pairs one retained exercise with its validation outcome
type ExerciseReport struct {
	ID       string                `json:"id"`
	Schema   *domain.SchemaResult  `json:"schema"`
	Quality  *domain.QualityReport `json:"quality"`
	Enhanced bool                  `json:"enhanced,omitempty"`
}

// Summary aggregates the batch-level counts
type Summary struct {
	SourcesTotal   int     `json:"sources_total"`
	SourcesFailed  int     `json:"sources_failed"`
	Imported       int     `json:"imported"`
	Migrated       int     `json:"migrated"`
	Retained       int     `json:"retained"`
	Duplicates     int     `json:"duplicates"`
	Invalid        int     `json:"invalid"`
	AverageQuality float64 `json:"average_quality"`
}

// Report is the full outcome of one import run
type Report struct {
	RunID      uuid.UUID          `json:"run_id"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt time.Time          `json:"finished_at"`
	Sources    []SourceStatus     `json:"sources"`
	Exercises  []*domain.Exercise `json:"exercises"`
	Duplicates []Duplicate        `json:"duplicates"`
	Reports    []ExerciseReport   `json:"reports"`
	Quality    map[string]int     `json:"quality_distribution"`
	Summary    Summary            `json:"summary"`
}

// Orchestrator coordinates multi-source imports: fetch, migrate, dedup,
// validate, and report. Construct one per pipeline; it owns no global
// state.
type Orchestrator struct {
	mu      sync.RWMutex
	sources map[string]Source

	schema  *schema.Validator
	quality *quality.Checker
	logger  *slog.Logger
}

// NewOrchestrator creates an orchestrator with no registered sources
func NewOrchestrator(logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		sources: make(map[string]Source),
		schema:  schema.NewValidator(),
		quality: quality.NewChecker(),
		logger:  logger,
	}
}

// Register adds a content source under its own name
func (o *Orchestrator) Register(src Source) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sources[src.Name()] = src
}

// SourceNames lists the registered sources
func (o *Orchestrator) SourceNames() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()

	names := make([]string, 0, len(o.sources))
	for name := range o.sources {
		names = append(names, name)
	}
	return names
}

// sourceResult carries one source's phase-one outcome across the join
// barrier.
type sourceResult struct {
	status    SourceStatus
	exercises []*domain.Exercise
	migrated  int
}

// Run executes a full import. Phase one fetches each named source
// concurrently and in isolation: a failing source is recorded and skipped,
// never fatal. Phases two through four (merge, validate, aggregate) operate
// on the joined batch; only a failure there propagates.
func (o *Orchestrator) Run(ctx context.Context, sourceNames []string, opts Options) (report *Report, err error) {
	if len(sourceNames) == 0 {
		return nil, domain.ErrEmptyBatch
	}
	if opts.EnhanceThreshold <= 0 {
		opts.EnhanceThreshold = 60
	}

	report = &Report{
		RunID:     uuid.New(),
		StartedAt: time.Now().UTC(),
		Quality:   make(map[string]int),
	}

	o.logger.Info("import run starting", "run_id", report.RunID, "sources", sourceNames)

	// Phase 1: concurrent fetch with a join barrier. Results land in an
	// indexed slice so no mutable state is shared between sources.
	results := make([]sourceResult, len(sourceNames))
	var wg sync.WaitGroup
	for i, name := range sourceNames {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = o.importSource(ctx, name)
		}(i, name)
	}
	wg.Wait()

	// The batch phases operate on the whole collection; a panic here is
	// the one fatal condition of the pipeline.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("import run %s failed during merge: %v", report.RunID, r)
			report = nil
		}
	}()

	var candidates []*domain.Exercise
	for _, res := range results {
		report.Sources = append(report.Sources, res.status)
		report.Summary.Migrated += res.migrated
		candidates = append(candidates, res.exercises...)
	}
	report.Summary.SourcesTotal = len(sourceNames)
	for _, s := range report.Sources {
		if s.Status == SourceFailed {
			report.Summary.SourcesFailed++
		}
	}
	report.Summary.Imported = len(candidates)

	// Phase 2: dedup and merge.
	report.Exercises, report.Duplicates = o.merge(candidates)
	report.Summary.Duplicates = len(report.Duplicates)
	report.Summary.Retained = len(report.Exercises)

	// Phase 3: validate, score, and optionally enhance the retained set.
	o.analyze(report, opts)

	// Phase 4: aggregate.
	o.summarize(report)
	report.FinishedAt = time.Now().UTC()

	o.logger.Info("import run finished",
		"run_id", report.RunID,
		"retained", report.Summary.Retained,
		"duplicates", report.Summary.Duplicates,
		"failed_sources", report.Summary.SourcesFailed,
	)

	return report, nil
}

// importSource fetches one source and migrates its legacy records. All
// failures are captured in the returned status.
func (o *Orchestrator) importSource(ctx context.Context, name string) sourceResult {
	o.mu.RLock()
	src, ok := o.sources[name]
	o.mu.RUnlock()

	if !ok {
		return sourceResult{status: SourceStatus{
			Name:   name,
			Status: SourceFailed,
			Error:  domain.ErrSourceNotFound.Error(),
		}}
	}

	records, err := src.Fetch(ctx)
	if err != nil {
		o.logger.Warn("source import failed", "source", name, "error", err)
		return sourceResult{status: SourceStatus{
			Name:   name,
			Status: SourceFailed,
			Error:  err.Error(),
		}}
	}

	// One transformer per source so positional prerequisite chaining only
	// links records from the same origin.
	transformer := migrate.NewTransformer(o.logger)

	var exercises []*domain.Exercise
	var migrated int
	legacyIndex := 0
	for _, rec := range records {
		switch {
		case rec.Exercise != nil:
			ex := rec.Exercise
			if ex.Metadata.Source == "" {
				ex.Metadata.Source = name
			}
			exercises = append(exercises, ex)
		case rec.Legacy != nil:
			ex := transformer.Migrate(*rec.Legacy, legacyIndex)
			ex.Metadata.Source = name
			legacyIndex++
			migrated++
			exercises = append(exercises, ex)
		}
	}

	return sourceResult{
		status: SourceStatus{
			Name:    name,
			Status:  SourceSuccess,
			Records: len(records),
		},
		exercises: exercises,
		migrated:  migrated,
	}
}

// merge deduplicates candidates by fingerprint. On collision the candidate
// with the higher recomputed quality score is retained. Residual id
// collisions between distinct exercises are resolved by suffixing.
func (o *Orchestrator) merge(candidates []*domain.Exercise) ([]*domain.Exercise, []Duplicate) {
	byFingerprint := make(map[string]*domain.Exercise, len(candidates))
	var order []string
	var duplicates []Duplicate

	scores := make(map[*domain.Exercise]int, len(candidates))
	qualityOf := func(ex *domain.Exercise) int {
		if s, ok := scores[ex]; ok {
			return s
		}
		s := o.quality.Assess(ex).Score
		scores[ex] = s
		return s
	}

	for _, ex := range candidates {
		if ex == nil {
			continue
		}

		fp := Fingerprint(ex)
		existing, collision := byFingerprint[fp]
		if !collision {
			byFingerprint[fp] = ex
			order = append(order, fp)
			continue
		}

		sim := Similarity(existing, ex)
		kept, dropped := existing, ex
		if qualityOf(ex) > qualityOf(existing) {
			kept, dropped = ex, existing
			byFingerprint[fp] = ex
		}

		o.logger.Debug("duplicate exercise dropped",
			"kept", kept.ID,
			"dropped", dropped.ID,
			"similarity", sim,
		)
		duplicates = append(duplicates, Duplicate{
			KeptID:      kept.ID,
			DroppedID:   dropped.ID,
			Fingerprint: fp,
			Similarity:  sim,
		})
	}

	// Rebuild in first-seen order, then resolve residual id collisions.
	retained := make([]*domain.Exercise, 0, len(order))
	ids := make(map[string]int, len(order))
	for _, fp := range order {
		ex := byFingerprint[fp]
		if n := ids[ex.ID]; n > 0 {
			newID := fmt.Sprintf("%s-%d", ex.ID, n+1)
			o.logger.Warn("resolving id collision", "id", ex.ID, "new_id", newID)
			ids[ex.ID] = n + 1
			ex.ID = newID
		}
		ids[ex.ID]++
		retained = append(retained, ex)
	}

	return retained, duplicates
}

// analyze runs schema and quality checks over the retained set and stamps
// the recomputed quality score into each exercise.
func (o *Orchestrator) analyze(report *Report, opts Options) {
	for _, ex := range report.Exercises {
		sr := o.schema.Validate(ex)
		qr := o.quality.Assess(ex)

		enhanced := false
		if opts.Enhance && qr.Score < opts.EnhanceThreshold {
			if enhance(ex) {
				enhanced = true
				qr = o.quality.Assess(ex)
			}
		}

		ex.Metadata.QualityScore = qr.Score

		if !sr.Valid {
			report.Summary.Invalid++
		}
		report.Reports = append(report.Reports, ExerciseReport{
			ID:       ex.ID,
			Schema:   sr,
			Quality:  qr,
			Enhanced: enhanced,
		})
	}
}

// summarize fills the distribution buckets and average quality
func (o *Orchestrator) summarize(report *Report) {
	if len(report.Reports) == 0 {
		return
	}

	var total int
	for _, r := range report.Reports {
		total += r.Quality.Score
		report.Quality[qualityBucket(r.Quality.Score)]++
	}
	report.Summary.AverageQuality = float64(total) / float64(len(report.Reports))
}

func qualityBucket(score int) string {
	switch {
	case score >= 80:
		return "high"
	case score >= 60:
		return "medium"
	case score >= 40:
		return "low"
	default:
		return "poor"
	}
}
