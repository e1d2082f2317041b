// Package views renders the dashboard HTML pages.
package views

//go:generate templ generate

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/pavelanni/tutorlens/internal/chart"
	"github.com/pavelanni/tutorlens/internal/dimension"
	"github.com/pavelanni/tutorlens/internal/i18n"
	"github.com/pavelanni/tutorlens/internal/model"
)

const (
	radarRadius = 120
	barWidth    = 320
	barHeight   = 14
)

// CompareData is everything the comparison page shows.
type CompareData struct {
	Mode    model.EvalMode
	Models  []string // for the tutor selector
	Judges  []string
	Result  *model.ResultsResponse
	Radar   chart.RadarGeometry
	Message string // shown instead of results, e.g. a lookup error
}

// RadarFor lays out the numeric scores of res on a radar chart. Categorical
// scores are plotted by their numeric equivalent.
func RadarFor(res *model.ResultsResponse, numeric func(model.Score) float64) chart.RadarGeometry {
	values := make([]float64, 0, len(res.Dimensions))
	for _, dim := range res.Dimensions {
		values = append(values, numeric(res.Results[dim]))
	}
	return chart.Radar(values, radarRadius)
}

// href prefixes path with the base path from ctx.
func href(ctx context.Context, path string) templ.SafeURL {
	return templ.URL(model.BasePathFromContext(ctx) + path)
}

func pageTitle(ctx context.Context, titleID string) string {
	return i18n.T(ctx, titleID) + " | " + i18n.T(ctx, "AppTitle")
}

func catalogStats(ctx context.Context, c model.Catalog) string {
	return i18n.Tp(ctx, "TopicsAvailable", len(c.ProblemTopics)) + " " +
		i18n.Tp(ctx, "ConversationsTotal", c.TotalConversations)
}

func topicLink(topic string, models []string) string {
	q := url.Values{"topic": {topic}}
	if len(models) > 0 {
		q.Set("model", models[0])
	}
	return "/compare?" + q.Encode()
}

func modeTitle(ctx context.Context, mode model.EvalMode) string {
	if mode == model.ModeLLM {
		return i18n.T(ctx, "LLMEval")
	}
	return i18n.T(ctx, "AutoEval")
}

func hasGroundTruth(res *model.ResultsResponse) bool {
	return res.GroundTruthSolution != "" && res.GroundTruthSolution != model.NotAvailable
}

func bestText(res *model.ResultsResponse, dim string) string {
	best, ok := res.BestResults[dim]
	if !ok {
		return ""
	}
	return strings.Join(best.Tutors, ", ") + " (" + best.Score.String() + ")"
}

func axisLabel(dims []string, i int) string {
	if i < len(dims) {
		return dimension.Abbrev(dims[i])
	}
	return ""
}

func viewBox(size float64) string {
	return "0 0 " + ftoa(size) + " " + ftoa(size)
}

func datasetStats(ctx context.Context, s *model.DatasetSummary) string {
	out := i18n.Tp(ctx, "ConversationsTotal", s.TotalConversations)
	if s.DatasetDigest != "" {
		out += " · " + i18n.T(ctx, "DatasetDigest") + ": " + s.DatasetDigest[:min(12, len(s.DatasetDigest))]
	}
	return out
}

func categoryLegend(ctx context.Context) string {
	return i18n.T(ctx, "CategoryYes") + " / " + i18n.T(ctx, "CategoryToSomeExtent") + " / " + i18n.T(ctx, "CategoryNo")
}

type barSegment struct {
	chart.Segment
	class string
}

// barSegments returns the non-empty segments of b in display order.
func barSegments(b chart.Bar) []barSegment {
	out := make([]barSegment, 0, 3)
	for _, s := range []barSegment{{b.Yes, "yes"}, {b.ToSomeExtent, "some"}, {b.No, "no"}} {
		if s.Width > 0 {
			out = append(out, s)
		}
	}
	return out
}

func segmentTitle(s chart.Segment) string {
	return strconv.Itoa(s.Count) + " (" + strconv.FormatFloat(s.Percent, 'f', 1, 64) + "%)"
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
