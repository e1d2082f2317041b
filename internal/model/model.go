package model

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
)

// NotAvailable is used for topics and ground truth solutions missing from a record.
const NotAvailable = "Not Available"

// Canonical categorical labels.
const (
	LabelYes          = "Yes"
	LabelToSomeExtent = "To some extent"
	LabelNo           = "No"
)

// ScoreKind tells which scale a Score belongs to.
type ScoreKind uint8

const (
	// KindNone is the zero Score, meaning no value.
	KindNone ScoreKind = iota
	// KindNumeric is a score on the 0..1 scale.
	KindNumeric
	// KindCategorical is a label such as "Yes" or "To some extent".
	KindCategorical
)

// Score is either a number or a categorical label, never both.
type Score struct {
	kind  ScoreKind
	num   float64
	label string
}

// Numeric returns a numeric score.
func Numeric(v float64) Score { return Score{kind: KindNumeric, num: v} }

// Categorical returns a categorical score. The label is kept verbatim.
func Categorical(label string) Score { return Score{kind: KindCategorical, label: label} }

// Kind returns the scale of the score.
func (s Score) Kind() ScoreKind { return s.kind }

// IsZero reports whether the score holds no value.
func (s Score) IsZero() bool { return s.kind == KindNone }

// IsNumeric reports whether the score is on the numeric scale.
func (s Score) IsNumeric() bool { return s.kind == KindNumeric }

// IsCategorical reports whether the score is a label.
func (s Score) IsCategorical() bool { return s.kind == KindCategorical }

// Float returns the numeric value (0 for categorical scores).
func (s Score) Float() float64 { return s.num }

// Label returns the categorical label (empty for numeric scores).
func (s Score) Label() string { return s.label }

// String formats the score for display.
func (s Score) String() string {
	switch s.kind {
	case KindNumeric:
		return strconv.FormatFloat(s.num, 'f', -1, 64)
	case KindCategorical:
		return s.label
	}
	return ""
}

// MarshalJSON encodes numeric scores as JSON numbers and labels as strings.
func (s Score) MarshalJSON() ([]byte, error) {
	switch s.kind {
	case KindNumeric:
		return json.Marshal(s.num)
	case KindCategorical:
		return json.Marshal(s.label)
	}
	return []byte("null"), nil
}

// UnmarshalJSON accepts a number, a string or null.
func (s *Score) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	sc, ok := ScoreFromAny(v)
	if !ok && v != nil {
		return fmt.Errorf("score must be a number or string, got %T", v)
	}
	*s = sc
	return nil
}

// ScoreFromAny converts a decoded JSON value into a Score.
// Anything other than a number or a string yields ok=false.
func ScoreFromAny(v any) (Score, bool) {
	switch t := v.(type) {
	case float64:
		return Numeric(t), true
	case int:
		return Numeric(float64(t)), true
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Score{}, false
		}
		return Numeric(f), true
	case string:
		return Categorical(t), true
	}
	return Score{}, false
}

// Annotations maps a dimension (or a "Dimension/Judge" key) to a score.
type Annotations map[string]Score

// TutorResponse is one tutor's output for a conversation together with its scores.
type TutorResponse struct {
	Response        string      `json:"response"`
	Annotation      Annotations `json:"annotation"`
	AutoAnnotations Annotations `json:"autoAnnotations"`
	LLMAnnotations  Annotations `json:"llmAnnotations"`
}

// Conversation is a dataset record in canonical shape.
type Conversation struct {
	ID                  string                   `json:"conversationId"`
	ProblemTopic        string                   `json:"problemTopic"`
	ConversationHistory string                   `json:"conversationHistory"`
	GroundTruthSolution string                   `json:"groundTruthSolution"`
	Tutors              map[string]TutorResponse `json:"tutors"`
}

// TutorNames returns the tutor names sorted, which is the iteration order
// used everywhere tutors of one conversation are walked.
func (c Conversation) TutorNames() []string {
	names := make([]string, 0, len(c.Tutors))
	for name := range c.Tutors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BestResult is the top score for a dimension and every tutor tied for it.
type BestResult struct {
	Score  Score    `json:"score"`
	Tutors []string `json:"tutors"`
}

// CategoryCount counts classified scores for one tutor and dimension.
type CategoryCount struct {
	Yes          int `json:"yes"`
	ToSomeExtent int `json:"toSomeExtent"`
	No           int `json:"no"`
	Total        int `json:"total"`
}

// DistributionSample is one observed score tagged with its dimension.
type DistributionSample struct {
	Dimension string  `json:"dimension"`
	Score     float64 `json:"score"`
}

// DatasetSummary holds corpus-wide statistics for the visualization view.
type DatasetSummary struct {
	TotalConversations               int                      `json:"totalConversations"`
	TotalTutors                      int                      `json:"totalTutors"`
	TotalDimensions                  int                      `json:"totalDimensions"`
	Dimensions                       []string                 `json:"dimensions"`
	Tutors                           []string                 `json:"tutors"`
	ConversationsByTutor             map[string]int           `json:"conversationsByTutor"`
	AverageScoresByDimension         map[string]float64       `json:"averageScoresByDimension"`
	AverageScoresByTutor             map[string]float64       `json:"averageScoresByTutor"`
	AverageScoresByTutorAndDimension map[string]float64       `json:"averageScoresByTutorAndDimension"`
	DistributionData                 []DistributionSample     `json:"distributionData"`
	CategoryDistribution             map[string]CategoryCount `json:"categoryDistribution"`
	DatasetDigest                    string                   `json:"datasetDigest,omitempty"`
}

// TutorDimensionKey builds the "{tutor}::{dimension}" key used by summary maps.
func TutorDimensionKey(tutor, dimension string) string {
	return tutor + "::" + dimension
}

// DashboardConfig holds runtime parameters set via CLI flags.
type DashboardConfig struct {
	BasePath            string   // URL prefix for sub-path deployments
	TieMode             string   // exact or tolerance
	AutoFallbackToHuman bool     // use human labels when auto scores are missing
	JudgeAllowlist      []string // empty means every judge found in the data
	Lang                string
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}
