package importer

import (
	"context"

	"github.com/cqlab/contentpipe/internal/domain"
	"github.com/cqlab/contentpipe/internal/migrate"
)

// RawRecord is one record as a source delivers it: either an exercise
// already in the structured schema, or a legacy record that still needs
// migration. Exactly one field is set.
type RawRecord struct {
	Exercise *domain.Exercise      `json:"exercise,omitempty" yaml:"exercise,omitempty"`
	Legacy   *migrate.LegacyRecord `json:"legacy,omitempty" yaml:"legacy,omitempty"`
}

// Source is one named content origin. Fetch returns every record the source
// currently offers; sources hold no pipeline state and may be fetched
// concurrently.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]RawRecord, error)
}
