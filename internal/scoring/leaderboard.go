package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/pavelanni/tutorlens/internal/model"
)

// TieMode decides when two numeric scores count as tied.
type TieMode string

const (
	// TieExact ties only equal values.
	TieExact TieMode = "exact"
	// TieTolerance ties values closer than Tolerance.
	TieTolerance TieMode = "tolerance"
)

// Tolerance is the numeric tie window for TieTolerance.
const Tolerance = 1e-3

// ParseTieMode validates a tie mode name. Empty means TieExact.
func ParseTieMode(s string) (TieMode, error) {
	switch TieMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", TieExact:
		return TieExact, nil
	case TieTolerance:
		return TieTolerance, nil
	}
	return "", fmt.Errorf("unknown tie mode %q (want exact or tolerance)", s)
}

// TutorScore pairs a tutor with its score for one dimension.
type TutorScore struct {
	Tutor string
	Score model.Score
}

// Rank orders categorical labels: "Yes" is 2, anything mentioning
// "some extent" is 1, everything else is 0.
func Rank(label string) int {
	l := strings.ToLower(strings.TrimSpace(label))
	switch {
	case l == "yes":
		return 2
	case strings.Contains(l, "some extent"):
		return 1
	}
	return 0
}

// Best finds the top score and every tutor tied for it.
//
// The first score decides the scale; scores on the other scale are ignored.
// Tutors are reported in input order. ok is false when scores is empty.
func Best(scores []TutorScore, mode TieMode) (model.BestResult, bool) {
	if len(scores) == 0 {
		return model.BestResult{}, false
	}
	kind := scores[0].Score.Kind()

	best := scores[0].Score
	for _, ts := range scores[1:] {
		if ts.Score.Kind() != kind {
			continue
		}
		if better(ts.Score, best) {
			best = ts.Score
		}
	}

	res := model.BestResult{Score: best}
	for _, ts := range scores {
		if ts.Score.Kind() != kind {
			continue
		}
		if tied(ts.Score, best, mode) {
			res.Tutors = append(res.Tutors, ts.Tutor)
		}
	}
	return res, true
}

func better(a, b model.Score) bool {
	if a.IsCategorical() {
		return Rank(a.Label()) > Rank(b.Label())
	}
	return a.Float() > b.Float()
}

func tied(a, best model.Score, mode TieMode) bool {
	if a.IsCategorical() {
		return strings.EqualFold(a.Label(), best.Label())
	}
	if mode == TieTolerance {
		return math.Abs(a.Float()-best.Float()) < Tolerance
	}
	return a.Float() == best.Float()
}

// BestByDimension runs Best for each dimension over every tutor of a
// conversation. Dimensions no tutor has a score for are omitted.
func BestByDimension(conv model.Conversation, dimensions []string, extract Extractor, mode TieMode) map[string]model.BestResult {
	names := conv.TutorNames()
	out := make(map[string]model.BestResult, len(dimensions))
	for _, dim := range dimensions {
		var scores []TutorScore
		for _, name := range names {
			if s, ok := extract(conv.Tutors[name], dim); ok {
				scores = append(scores, TutorScore{Tutor: name, Score: s})
			}
		}
		if best, ok := Best(scores, mode); ok {
			out[dim] = best
		}
	}
	return out
}
