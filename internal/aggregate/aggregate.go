// Package aggregate computes corpus-wide statistics over a dataset.
package aggregate

import (
	"errors"
	"sort"
	"strings"

	"github.com/pavelanni/tutorlens/internal/dimension"
	"github.com/pavelanni/tutorlens/internal/model"
	"github.com/pavelanni/tutorlens/internal/scoring"
)

// ErrEmptyDataset means no tutors or no dimensions were found.
var ErrEmptyDataset = errors.New("dataset is empty or not in expected format")

// Source selects which annotation set of a tutor is aggregated.
type Source int

const (
	// SourceHuman reads the human annotation, falling back to the auto and
	// then the LLM annotations when it is empty.
	SourceHuman Source = iota
	// SourceAuto reads autoAnnotations.
	SourceAuto
	// SourceLLM reads llmAnnotations, keyed by dimension.
	SourceLLM
)

// ParseSource maps "human", "auto" and "llm" to a Source.
func ParseSource(s string) (Source, bool) {
	switch strings.ToLower(s) {
	case "", "human":
		return SourceHuman, true
	case "auto", "autoeval":
		return SourceAuto, true
	case "llm", "llmeval":
		return SourceLLM, true
	}
	return 0, false
}

// Options configures Aggregate.
type Options struct {
	Source Source
	// Judge restricts SourceLLM to one judge. Empty takes every judge.
	Judge string
}

type accumulator struct {
	tutors    []string
	seenTutor map[string]bool
	dims      []string
	seenDim   map[string]bool

	convsByTutor map[string]int
	byDim        map[string][]float64
	byTutor      map[string][]float64
	byTutorDim   map[string][]float64
	categories   map[string]model.CategoryCount
}

// Aggregate scans every conversation and returns the dataset summary.
// The result depends only on convs and opts.
func Aggregate(convs []model.Conversation, opts Options) (*model.DatasetSummary, error) {
	acc := &accumulator{
		seenTutor:    map[string]bool{},
		seenDim:      map[string]bool{},
		convsByTutor: map[string]int{},
		byDim:        map[string][]float64{},
		byTutor:      map[string][]float64{},
		byTutorDim:   map[string][]float64{},
		categories:   map[string]model.CategoryCount{},
	}

	for _, conv := range convs {
		for _, name := range conv.TutorNames() {
			if !acc.seenTutor[name] {
				acc.seenTutor[name] = true
				acc.tutors = append(acc.tutors, name)
			}
			acc.convsByTutor[name]++

			scores := effective(conv.Tutors[name], opts)
			for _, ds := range scores {
				acc.add(name, ds.dim, ds.score)
			}
		}
	}

	if len(acc.tutors) == 0 || len(acc.dims) == 0 {
		return nil, ErrEmptyDataset
	}

	dims := dimension.Order(acc.dims)
	sum := &model.DatasetSummary{
		TotalConversations:               len(convs),
		TotalTutors:                      len(acc.tutors),
		TotalDimensions:                  len(dims),
		Dimensions:                       dims,
		Tutors:                           acc.tutors,
		ConversationsByTutor:             acc.convsByTutor,
		AverageScoresByDimension:         averages(acc.byDim),
		AverageScoresByTutor:             averages(acc.byTutor),
		AverageScoresByTutorAndDimension: averages(acc.byTutorDim),
		CategoryDistribution:             acc.categories,
		DistributionData:                 []model.DistributionSample{},
	}
	for _, dim := range dims {
		for _, v := range acc.byDim[dim] {
			sum.DistributionData = append(sum.DistributionData, model.DistributionSample{Dimension: dim, Score: v})
		}
	}
	return sum, nil
}

func (a *accumulator) add(tutor, dim string, s model.Score) {
	if !a.seenDim[dim] {
		a.seenDim[dim] = true
		a.dims = append(a.dims, dim)
	}
	key := model.TutorDimensionKey(tutor, dim)

	cc := a.categories[key]
	scoring.Add(&cc, scoring.Classify(s))
	a.categories[key] = cc

	v := scoring.NumericEquivalent(s)
	a.byDim[dim] = append(a.byDim[dim], v)
	a.byTutor[tutor] = append(a.byTutor[tutor], v)
	a.byTutorDim[key] = append(a.byTutorDim[key], v)
}

type dimScore struct {
	dim   string
	score model.Score
}

// effective returns the tutor's scores for the selected source, sorted by
// annotation key.
func effective(t model.TutorResponse, opts Options) []dimScore {
	var ann model.Annotations
	switch opts.Source {
	case SourceAuto:
		ann = t.AutoAnnotations
	case SourceLLM:
		return judgeScores(t.LLMAnnotations, opts.Judge)
	default:
		switch {
		case len(t.Annotation) > 0:
			ann = t.Annotation
		case len(t.AutoAnnotations) > 0:
			ann = t.AutoAnnotations
		default:
			ann = t.LLMAnnotations
		}
	}
	out := make([]dimScore, 0, len(ann))
	for _, k := range sortedKeys(ann) {
		if s := ann[k]; !s.IsZero() {
			out = append(out, dimScore{dim: k, score: s})
		}
	}
	return out
}

// judgeScores turns "Dim/Judge" and legacy "Dim_Judge" keys into per
// dimension scores. Legacy ratings are normalized onto 0..1.
func judgeScores(ann model.Annotations, judge string) []dimScore {
	var out []dimScore
	for _, k := range sortedKeys(ann) {
		s := ann[k]
		if s.IsZero() {
			continue
		}
		// legacy keys may carry a judge path with slashes, so test them first
		if dim, ok := legacyDimension(k, judge); ok {
			if rating, ok := scoring.LegacyRating(s); ok {
				out = append(out, dimScore{dim: dim, score: model.Numeric(scoring.NormalizeLegacy(rating))})
			}
			continue
		}
		dim, j, ok := strings.Cut(k, "/")
		switch {
		case ok && (judge == "" || j == judge):
			out = append(out, dimScore{dim: dim, score: s})
		case !ok && judge == "":
			out = append(out, dimScore{dim: k, score: s})
		}
	}
	return out
}

// legacyDimension splits a "Dim_Judge" key. With a judge the suffix must
// match it; without one the prefix must be a known dimension.
func legacyDimension(key, judge string) (string, bool) {
	if judge != "" {
		dim, ok := strings.CutSuffix(key, "_"+judge)
		return dim, ok && dim != ""
	}
	for _, name := range dimension.Names() {
		if strings.HasPrefix(key, name+"_") {
			return name, true
		}
	}
	return key, false
}

func averages(lists map[string][]float64) map[string]float64 {
	out := make(map[string]float64, len(lists))
	for k, vs := range lists {
		if len(vs) == 0 {
			continue
		}
		var total float64
		for _, v := range vs {
			total += v
		}
		out[k] = total / float64(len(vs))
	}
	return out
}

func sortedKeys(ann model.Annotations) []string {
	keys := make([]string, 0, len(ann))
	for k := range ann {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
