package roundservice

import (
	"bytes"
	"time"

	rounddb "github.com/Back-Nine-Social-Club/fairway-bot/app/modules/round/infrastructure/repositories"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// GenerateReconcilerActivityChart produces a PNG line chart of reconciler
// activity over the given runs: rounds swept, transfers resolved, and rounds
// purged per run.
func GenerateReconcilerActivityChart(runs []rounddb.ReconcilerRun) ([]byte, error) {
	if len(runs) == 0 {
		return renderNoDataPlaceholder()
	}

	xValues := make([]time.Time, len(runs))
	swept := make([]float64, len(runs))
	resolved := make([]float64, len(runs))
	purged := make([]float64, len(runs))

	for i, run := range runs {
		xValues[i] = run.RanAt
		swept[i] = float64(run.Swept)
		resolved[i] = float64(run.Resolved)
		purged[i] = float64(run.Purged)
	}

	graph := chart.Chart{
		Width:  800,
		Height: 400,
		XAxis: chart.XAxis{
			Name:           "Run",
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02 15:04"),
		},
		YAxis: chart.YAxis{
			Name: "Rounds",
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    "Swept",
				XValues: xValues,
				YValues: swept,
				Style: chart.Style{
					StrokeColor: drawing.ColorBlue,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "Resolved",
				XValues: xValues,
				YValues: resolved,
				Style: chart.Style{
					StrokeColor: drawing.ColorGreen,
					StrokeWidth: 2,
				},
			},
			chart.TimeSeries{
				Name:    "Purged",
				XValues: xValues,
				YValues: purged,
				Style: chart.Style{
					StrokeColor: drawing.ColorRed,
					StrokeWidth: 2,
				},
			},
		},
	}
	graph.Elements = []chart.Renderable{
		chart.Legend(&graph),
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}

func renderNoDataPlaceholder() ([]byte, error) {
	const (
		width  = 400
		height = 200
		msg    = "No reconciler runs recorded"
	)

	graph := chart.Chart{
		Width:  width,
		Height: height,
		Elements: []chart.Renderable{
			func(r chart.Renderer, cb chart.Box, chartDefaults chart.Style) {
				r.SetFontSize(12.0)
				tb := r.MeasureText(msg)
				x := (cb.Width() - tb.Width()) / 2
				y := (cb.Height() + tb.Height()) / 2
				r.Text(msg, x, y)
			},
		},
	}
	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}

	return buffer.Bytes(), nil
}
