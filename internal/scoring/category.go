package scoring

import (
	"strconv"
	"strings"

	"github.com/pavelanni/tutorlens/internal/model"
)

// Category is the three-way bucket used by the stacked category view.
type Category int

const (
	CategoryNo Category = iota
	CategoryToSomeExtent
	CategoryYes
)

// Classification thresholds for numeric scores.
const (
	YesThreshold          = 0.75
	ToSomeExtentThreshold = 0.25
)

// Classify buckets a score. Numeric scores use the 0.75/0.25 thresholds;
// labels must match one of the canonical three case-insensitively, anything
// else is No.
func Classify(s model.Score) Category {
	if s.IsNumeric() {
		switch v := s.Float(); {
		case v >= YesThreshold:
			return CategoryYes
		case v >= ToSomeExtentThreshold:
			return CategoryToSomeExtent
		}
		return CategoryNo
	}
	switch strings.ToLower(s.Label()) {
	case "yes":
		return CategoryYes
	case "to some extent":
		return CategoryToSomeExtent
	}
	return CategoryNo
}

// NumericEquivalent maps a score onto 0..1 for averaging. Canonical labels
// become 1, 0.5 and 0; other labels are parsed as numbers, else 0.
func NumericEquivalent(s model.Score) float64 {
	if s.IsNumeric() {
		return s.Float()
	}
	switch strings.ToLower(s.Label()) {
	case "yes":
		return 1
	case "to some extent":
		return 0.5
	case "no":
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s.Label()), 64)
	if err != nil {
		return 0
	}
	return f
}

// Add increments the bucket for c.
func Add(cc *model.CategoryCount, c Category) {
	switch c {
	case CategoryYes:
		cc.Yes++
	case CategoryToSomeExtent:
		cc.ToSomeExtent++
	default:
		cc.No++
	}
	cc.Total++
}
