// Package dataset loads tutor-evaluation datasets and converts their
// records into the canonical conversation shape.
package dataset

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pavelanni/tutorlens/internal/model"
)

// Kind selects which configured dataset to read.
type Kind string

const (
	// Evaluation backs the auto and LLM evaluation views.
	Evaluation Kind = "evaluation"
	// Visualization backs the corpus-wide summary view.
	Visualization Kind = "visualization"
)

// Dataset is a parsed, validated payload.
type Dataset struct {
	Name    string
	Digest  string
	Records []map[string]any
}

// Conversations normalizes every record.
func (d *Dataset) Conversations(opts NormalizeOptions) []model.Conversation {
	return NormalizeAll(d.Records, opts)
}

// Loader reads datasets on every call; nothing is cached between requests.
type Loader struct {
	uris map[Kind]string
	s3   S3Options
	open func(ctx context.Context, uri string, opts S3Options) (Source, error)
}

// NewLoader configures the evaluation and visualization URIs. An empty
// visualization URI reuses the evaluation one.
func NewLoader(evaluation, visualization string, opts S3Options) *Loader {
	if visualization == "" {
		visualization = evaluation
	}
	return &Loader{
		uris: map[Kind]string{Evaluation: evaluation, Visualization: visualization},
		s3:   opts,
		open: OpenSource,
	}
}

// URI returns the location configured for kind.
func (l *Loader) URI(kind Kind) string {
	return l.uris[kind]
}

// Load fetches, parses and validates the dataset for kind.
func (l *Loader) Load(ctx context.Context, kind Kind) (*Dataset, error) {
	uri := l.uris[kind]
	if uri == "" {
		return nil, fmt.Errorf("%w: no %s dataset configured", ErrDatasetNotFound, kind)
	}
	src, err := l.open(ctx, uri, l.s3)
	if err != nil {
		return nil, fmt.Errorf("opening %s dataset: %w", kind, err)
	}
	data, name, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	records, err := Parse(data, name)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", uri, err)
	}
	if err := Validate(records); err != nil {
		return nil, fmt.Errorf("validating %s: %w", uri, err)
	}
	slog.Debug("dataset loaded", "kind", kind, "uri", uri, "records", len(records))
	return &Dataset{Name: name, Digest: Digest(data), Records: records}, nil
}
