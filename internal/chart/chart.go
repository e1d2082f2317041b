// Package chart computes SVG geometry for the dashboard charts.
package chart

import (
	"math"
	"strconv"
	"strings"

	"github.com/pavelanni/tutorlens/internal/model"
)

// LabelOffset is the distance between the outer ring and an axis label.
const LabelOffset = 20

// RingScales are the fractions of the radius at which grid rings are drawn.
var RingScales = []float64{0.2, 0.4, 0.6, 0.8, 1.0}

// Point is an SVG coordinate.
type Point struct {
	X, Y float64
}

// Axis is one spoke of a radar chart.
type Axis struct {
	End    Point // on the outer ring
	Label  Point // LabelOffset beyond End
	Anchor string
}

// RadarGeometry holds everything needed to draw a radar chart.
type RadarGeometry struct {
	Size   float64
	Center Point
	Radius float64
	Rings  []float64 // ring radii
	Axes   []Axis
	Points []Point // data polygon, one per value
}

// Radar lays out values on a radar chart of the given radius. Value i sits
// at angle 2πi/n − π/2 (first axis pointing up) and at distance
// value·radius; values are clamped to [0,1].
func Radar(values []float64, radius float64) RadarGeometry {
	c := radius + LabelOffset
	g := RadarGeometry{
		Size:   2 * c,
		Center: Point{c, c},
		Radius: radius,
	}
	for _, s := range RingScales {
		g.Rings = append(g.Rings, radius*s)
	}
	n := len(values)
	if n == 0 {
		return g
	}
	step := 2 * math.Pi / float64(n)
	for i, v := range values {
		angle := float64(i)*step - math.Pi/2
		cos, sin := math.Cos(angle), math.Sin(angle)
		r := clamp01(v) * radius
		g.Points = append(g.Points, Point{c + r*cos, c + r*sin})
		g.Axes = append(g.Axes, Axis{
			End:    Point{c + radius*cos, c + radius*sin},
			Label:  Point{c + (radius+LabelOffset)*cos, c + (radius+LabelOffset)*sin},
			Anchor: anchor(cos),
		})
	}
	return g
}

func anchor(cos float64) string {
	switch {
	case cos > 0.1:
		return "start"
	case cos < -0.1:
		return "end"
	}
	return "middle"
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}

// Segment is one colored part of a stacked bar.
type Segment struct {
	X       float64
	Width   float64
	Count   int
	Percent float64
}

// Bar is a horizontal yes / to some extent / no bar.
type Bar struct {
	Yes          Segment
	ToSomeExtent Segment
	No           Segment
}

// StackedBar splits width proportionally to the category counts.
// A zero total yields zero-width segments.
func StackedBar(dist model.CategoryCount, width float64) Bar {
	total := dist.Yes + dist.ToSomeExtent + dist.No
	seg := func(x float64, count int) Segment {
		if total == 0 {
			return Segment{X: x, Count: count}
		}
		frac := float64(count) / float64(total)
		return Segment{X: x, Width: frac * width, Count: count, Percent: frac * 100}
	}
	var b Bar
	b.Yes = seg(0, dist.Yes)
	b.ToSomeExtent = seg(b.Yes.Width, dist.ToSomeExtent)
	b.No = seg(b.Yes.Width+b.ToSomeExtent.Width, dist.No)
	return b
}

// SVGPoints formats points for a polygon or polyline points attribute.
func SVGPoints(points []Point) string {
	var sb strings.Builder
	for i, p := range points {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(format(p.X))
		sb.WriteByte(',')
		sb.WriteString(format(p.Y))
	}
	return sb.String()
}

func format(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}
