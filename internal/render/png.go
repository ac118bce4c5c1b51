package render

import (
	"fmt"
	"io"
	"time"

	"bloodage/internal/history"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Line is one named series of a PNG chart.
type Line struct {
	Name   string
	Dates  []time.Time
	Values []float64
	Color  drawing.Color
	Dashed bool
}

// PointLines returns the estimated and chronological lines of a single series.
func PointLines(name string, points []history.Point) []Line {
	est := Line{Name: name, Color: chart.ColorBlue}
	chron := Line{Name: "Chronological age", Color: chart.ColorAlternateGray, Dashed: true}
	for _, p := range points {
		est.Dates = append(est.Dates, p.Date)
		est.Values = append(est.Values, p.Estimated)
		chron.Dates = append(chron.Dates, p.Date)
		chron.Values = append(chron.Values, p.Chronological)
	}
	return []Line{est, chron}
}

// CombinedLines returns the Bortz, Levine and chronological lines. Dates a
// calculator has no age for are left out of its line.
func CombinedLines(c history.Combined) []Line {
	bortz := Line{Name: "Bortz biological age", Color: chart.ColorBlue}
	levine := Line{Name: "Levine phenotypic age", Color: chart.ColorOrange}
	chron := Line{Name: "Chronological age", Color: chart.ColorAlternateGray, Dashed: true}
	for i, d := range c.Dates {
		if v := c.Bortz[i]; v != nil {
			bortz.Dates = append(bortz.Dates, d)
			bortz.Values = append(bortz.Values, *v)
		}
		if v := c.Levine[i]; v != nil {
			levine.Dates = append(levine.Dates, d)
			levine.Values = append(levine.Values, *v)
		}
		chron.Dates = append(chron.Dates, d)
		chron.Values = append(chron.Values, c.Chronological[i])
	}
	return []Line{bortz, levine, chron}
}

// PNG renders lines as a time-series chart.
func PNG(w io.Writer, title string, lines ...Line) error {
	var series []chart.Series
	for _, l := range lines {
		if len(l.Dates) == 0 {
			continue
		}
		style := chart.Style{StrokeColor: l.Color, StrokeWidth: 2, DotColor: l.Color, DotWidth: 3}
		if l.Dashed {
			style.StrokeDashArray = []float64{6, 4}
			style.DotWidth = 0
		}
		xs, ys := l.Dates, l.Values
		// go-chart needs at least two X values to compute a range.
		if len(xs) == 1 {
			xs = []time.Time{xs[0], xs[0].Add(24 * time.Hour)}
			ys = []float64{ys[0], ys[0]}
		}
		series = append(series, chart.TimeSeries{Name: l.Name, XValues: xs, YValues: ys, Style: style})
	}
	if len(series) == 0 {
		return ErrNoPoints
	}

	ch := chart.Chart{
		Title:      title,
		Width:      1024,
		Height:     512,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 16}},
		XAxis:      chart.XAxis{Name: "Measurement date", ValueFormatter: chart.TimeDateValueFormatter},
		YAxis:      chart.YAxis{Name: "Age (years)"},
		Series:     series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render png: %w", err)
	}
	return nil
}
