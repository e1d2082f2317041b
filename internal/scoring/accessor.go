// Package scoring extracts tutor scores from annotations and ranks tutors
// against each other.
package scoring

import (
	"strconv"
	"strings"

	"github.com/pavelanni/tutorlens/internal/model"
)

// LLMScore returns the score a judge gave for a dimension.
//
// The categorical key "{dimension}/{judge}" wins and its value is returned
// unchanged. Otherwise the legacy key "{dimension}_{judge}" is read as a raw
// 1..3 rating, numeric strings included, and mapped onto 0..1.
func LLMScore(ann model.Annotations, dimension, judge string) (model.Score, bool) {
	if s, ok := ann[dimension+"/"+judge]; ok && !s.IsZero() {
		return s, true
	}
	rating, ok := LegacyRating(ann[dimension+"_"+judge])
	if !ok {
		return model.Score{}, false
	}
	return model.Numeric(NormalizeLegacy(rating)), true
}

// LegacyRating reads a raw judge rating. Older exports store some ratings
// as strings such as "2".
func LegacyRating(s model.Score) (float64, bool) {
	switch s.Kind() {
	case model.KindNumeric:
		return s.Float(), true
	case model.KindCategorical:
		v, err := strconv.ParseFloat(strings.TrimSpace(s.Label()), 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// NormalizeLegacy maps a 1..3 judge rating onto 0..1.
func NormalizeLegacy(raw float64) float64 {
	return Clamp01((raw - 1) / 2)
}

// Clamp01 limits v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// AutoScore returns the rule-based score for a dimension.
func AutoScore(ann model.Annotations, dimension string) (model.Score, bool) {
	s, ok := ann[dimension]
	if !ok || s.IsZero() {
		return model.Score{}, false
	}
	return s, true
}

// Extractor pulls one dimension's score out of a tutor response.
type Extractor func(t model.TutorResponse, dimension string) (model.Score, bool)

// AutoExtractor reads autoAnnotations.
func AutoExtractor() Extractor {
	return func(t model.TutorResponse, dimension string) (model.Score, bool) {
		return AutoScore(t.AutoAnnotations, dimension)
	}
}

// JudgeExtractor reads llmAnnotations for the given judge.
func JudgeExtractor(judge string) Extractor {
	return func(t model.TutorResponse, dimension string) (model.Score, bool) {
		return LLMScore(t.LLMAnnotations, dimension, judge)
	}
}

// Extract collects a tutor's scores for the given dimensions. Dimensions
// without a score are left out.
func Extract(t model.TutorResponse, dimensions []string, extract Extractor) map[string]model.Score {
	out := make(map[string]model.Score, len(dimensions))
	for _, dim := range dimensions {
		if s, ok := extract(t, dim); ok {
			out[dim] = s
		}
	}
	return out
}
