package evaluate

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// ErrNotFound is matched by every NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError reports a topic, model or judge missing from the dataset.
type NotFoundError struct {
	What       string // "topic", "model", "second model", "judge"
	Name       string
	Suggestion string
}

func (e *NotFoundError) Error() string {
	msg := fmt.Sprintf("no data found for %s %q", e.What, e.Name)
	if e.Suggestion != "" {
		msg += fmt.Sprintf(" (did you mean %q?)", e.Suggestion)
	}
	return msg
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

func notFound(what, name string, candidates []string) *NotFoundError {
	return &NotFoundError{What: what, Name: name, Suggestion: closest(name, candidates)}
}

// closest returns the candidate with the smallest edit distance to name,
// or "" when nothing is within half the longer string's length.
func closest(name string, candidates []string) string {
	best, bestDist := "", -1
	lname := strings.ToLower(name)
	for _, c := range candidates {
		d := levenshtein.ComputeDistance(lname, strings.ToLower(c))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if best == "" {
		return ""
	}
	limit := utf8.RuneCountInString(name)
	if n := utf8.RuneCountInString(best); n > limit {
		limit = n
	}
	if bestDist > limit/2 {
		return ""
	}
	return best
}

// ValidationError lists every problem found in a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Problems, "; ")
}
