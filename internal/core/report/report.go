// Package report turns a recorded run into summary statistics and an HTML
// trajectory chart.
package report

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/simplify"
	"gonum.org/v1/gonum/stat"

	"github.com/linesim/linesim/internal/core/record"
)

// simplifyThreshold is the Douglas-Peucker tolerance in track pixels used
// to thin dense trajectories before charting.
const simplifyThreshold = 1.5

// Summary aggregates a recorded trajectory.
type Summary struct {
	Frames          int
	Distance        float64
	MeanSpeed       float64
	HeadingVariance float64
}

// Summarize computes run statistics from recorded poses.
func Summarize(poses []record.Pose) Summary {
	s := Summary{Frames: len(poses)}
	if len(poses) < 2 {
		return s
	}
	speeds := make([]float64, 0, len(poses)-1)
	headings := make([]float64, 0, len(poses))
	for i := 1; i < len(poses); i++ {
		d := math.Hypot(poses[i].X-poses[i-1].X, poses[i].Y-poses[i-1].Y)
		s.Distance += d
		speeds = append(speeds, d)
	}
	for _, p := range poses {
		headings = append(headings, p.Heading)
	}
	s.MeanSpeed = stat.Mean(speeds, nil)
	s.HeadingVariance = stat.Variance(headings, nil)
	return s
}

// simplifyPath thins the trajectory with Douglas-Peucker so charts stay
// responsive on long runs.
func simplifyPath(poses []record.Pose) orb.LineString {
	ls := make(orb.LineString, 0, len(poses))
	for _, p := range poses {
		ls = append(ls, orb.Point{p.X, p.Y})
	}
	if len(ls) < 3 {
		return ls
	}
	return simplify.DouglasPeucker(simplifyThreshold).Simplify(ls.Clone()).(orb.LineString)
}

// WriteTrajectoryChart renders the recorded path of a session as a
// standalone HTML scatter chart.
func WriteTrajectoryChart(w io.Writer, session record.Session, poses []record.Pose) error {
	path := simplifyPath(poses)
	maxX, maxY := 1.0, 1.0
	for _, p := range path {
		maxX = math.Max(maxX, p[0])
		maxY = math.Max(maxY, p[1])
	}
	// Chart Y grows upward while track Y grows downward; flip the Y values
	// so the plotted path matches the on-screen track.
	data := make([]opts.ScatterData, 0, len(path))
	for _, p := range path {
		data = append(data, opts.ScatterData{Value: []interface{}{p[0], maxY - p[1]}})
	}

	summary := Summarize(poses)
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "linesim trajectory",
			Width:     "900px",
			Height:    "900px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("Run %s on %s", session.ID, session.Track),
			Subtitle: fmt.Sprintf("frames=%d distance=%.1fpx mean speed=%.2fpx/frame reason=%s",
				summary.Frames, summary.Distance, summary.MeanSpeed, session.Reason),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: 0, Max: maxX * 1.05, Name: "X (px)"}),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: maxY * 1.05, Name: "Y (px)"}),
	)
	scatter.AddSeries("trajectory", data,
		charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}),
	)
	return scatter.Render(w)
}
