package candidate

import (
	"context"

	"propquery/internal/builder"
	"propquery/internal/constraints"
	"propquery/internal/schema"
)

// Source produces a candidate SQL statement for a natural-language question.
// The feedback engine treats the candidate as untrusted input.
type Source interface {
	Candidate(ctx context.Context, utterance string) (string, error)
}

// BuilderSource derives candidates deterministically from the constraint
// extractor and SQL builder. It never fails and needs no network.
type BuilderSource struct {
	extractor *constraints.Extractor
	builder   *builder.Builder
}

// NewBuilderSource creates the deterministic candidate source.
func NewBuilderSource(m *schema.Map, opts ...builder.Option) *BuilderSource {
	return &BuilderSource{
		extractor: constraints.NewExtractor(m),
		builder:   builder.New(m, opts...),
	}
}

// Candidate extracts constraints and compiles them into SQL.
func (s *BuilderSource) Candidate(_ context.Context, utterance string) (string, error) {
	cons := s.extractor.Extract(utterance)
	return s.builder.Build(cons), nil
}
