// Package charts renders state analytics as PNG images: the mood trend
// over recent observations and the goal status breakdown.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/vigogots-alt/bigbadbotsbot/internal/goals"
	"github.com/vigogots-alt/bigbadbotsbot/internal/mind"
)

// ErrNotEnoughData is returned when too few points exist to render.
var ErrNotEnoughData = errors.New("not enough data to render chart")

const (
	moodWindow    = 30
	movingAvgSpan = 5
	minMoodPoints = 2
)

// MoodTrend plots the tone of the most recent observations with an
// MA-5 trend line and a zero baseline.
func MoodTrend(observations []mind.Observation) ([]byte, error) {
	if len(observations) > moodWindow {
		observations = observations[len(observations)-moodWindow:]
	}
	if len(observations) < minMoodPoints {
		return nil, ErrNotEnoughData
	}

	xs := make([]time.Time, 0, len(observations))
	ys := make([]float64, 0, len(observations))
	for _, o := range observations {
		xs = append(xs, o.TS)
		ys = append(ys, o.Tone)
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name:    "Настроение",
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: drawing.ColorFromHex("2ecc71"),
				StrokeWidth: 2,
				DotColor:    drawing.ColorFromHex("2ecc71"),
				DotWidth:    3,
			},
		},
		chart.TimeSeries{
			Name:    "Ноль",
			XValues: []time.Time{xs[0], xs[len(xs)-1]},
			YValues: []float64{0, 0},
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("95a5a6"),
				StrokeWidth:     1,
				StrokeDashArray: []float64{4, 4},
			},
		},
	}

	if len(ys) > movingAvgSpan {
		maXs, maYs := movingAverage(xs, ys, movingAvgSpan)
		series = append(series, chart.TimeSeries{
			Name:    fmt.Sprintf("Тренд (MA%d)", movingAvgSpan),
			XValues: maXs,
			YValues: maYs,
			Style: chart.Style{
				StrokeColor:     drawing.ColorFromHex("e74c3c"),
				StrokeWidth:     2,
				StrokeDashArray: []float64{5, 3},
			},
		})
	}

	graph := chart.Chart{
		Title:  "Тренд настроения",
		Width:  900,
		Height: 500,
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: -1.1, Max: 1.1},
		},
		Series: series,
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render mood chart: %w", err)
	}
	return buf.Bytes(), nil
}

// GoalBreakdown renders a pie chart of goals by status.
func GoalBreakdown(list []*goals.Goal) ([]byte, error) {
	if len(list) == 0 {
		return nil, ErrNotEnoughData
	}

	counts := map[goals.Status]int{}
	for _, g := range list {
		counts[g.Status]++
	}

	type slice struct {
		status goals.Status
		label  string
		color  string
	}
	slices := []slice{
		{goals.StatusActive, "Активные", "3498db"},
		{goals.StatusCompleted, "Завершённые", "2ecc71"},
		{goals.StatusPaused, "Приостановленные", "f39c12"},
		{goals.StatusFailed, "Проваленные", "e74c3c"},
		{goals.StatusArchived, "Архив", "7f8c8d"},
	}

	var values []chart.Value
	for _, s := range slices {
		if n := counts[s.status]; n > 0 {
			values = append(values, chart.Value{
				Value: float64(n),
				Label: fmt.Sprintf("%s (%d)", s.label, n),
				Style: chart.Style{FillColor: drawing.ColorFromHex(s.color)},
			})
		}
	}
	if len(values) == 0 {
		return nil, ErrNotEnoughData
	}

	pie := chart.PieChart{
		Title:  "Цели по статусам",
		Width:  600,
		Height: 600,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render goals chart: %w", err)
	}
	return buf.Bytes(), nil
}

func movingAverage(xs []time.Time, ys []float64, span int) ([]time.Time, []float64) {
	outXs := make([]time.Time, 0, len(ys)-span+1)
	outYs := make([]float64, 0, len(ys)-span+1)
	for i := span - 1; i < len(ys); i++ {
		var sum float64
		for j := i - span + 1; j <= i; j++ {
			sum += ys[j]
		}
		outXs = append(outXs, xs[i])
		outYs = append(outYs, sum/float64(span))
	}
	return outXs, outYs
}
