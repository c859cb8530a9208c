// Package export renders trajectories as PNG charts and SVG paths.
package export

import (
	"bufio"
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"

	"github.com/san-kum/stagesim/internal/trajectory"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// ChartOptions sets the output size of WriteCharts.
type ChartOptions struct {
	Width  float64 // inches
	Height float64 // inches
	DPI    int
}

func DefaultChartOptions() ChartOptions {
	return ChartOptions{Width: 8, Height: 6, DPI: 150}
}

// ChartFiles are the file names WriteCharts produces, in order.
var ChartFiles = []string{"height.png", "velocity.png", "mass.png", "acceleration.png"}

var (
	lineColor  = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	pointColor = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	seamColor  = color.RGBA{R: 0x99, G: 0x99, B: 0x99, A: 0xff}
)

const (
	labelFormat  = "%.1f"
	maxTickCount = 8
)

// WriteCharts writes height, velocity, mass and acceleration charts into
// dir and returns the paths written.
func WriteCharts(dir string, tr *trajectory.Trajectory, opts ChartOptions) ([]string, error) {
	if tr.Len() == 0 {
		return nil, fmt.Errorf("trajectory has no samples")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create directory: %w", err)
	}

	charts := []struct {
		file, title, ylabel string
		build               func(*plot.Plot) error
	}{
		{ChartFiles[0], "Height", "height (m)", func(p *plot.Plot) error { return addLine(p, tr.Time, tr.Height) }},
		{ChartFiles[1], "Velocity", "velocity (m/s)", func(p *plot.Plot) error { return addLine(p, tr.Time, tr.Velocity) }},
		{ChartFiles[2], "Mass", "mass (kg)", func(p *plot.Plot) error { return addLine(p, tr.Time, tr.Mass) }},
		{ChartFiles[3], "Acceleration", "acceleration (g)", func(p *plot.Plot) error { return addAcceleration(p, tr) }},
	}

	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		p := plot.New()
		p.Title.Text = c.title
		p.X.Label.Text = "time (s)"
		p.Y.Label.Text = c.ylabel
		stylePlot(p)

		if err := c.build(p); err != nil {
			return nil, fmt.Errorf("%s: %w", c.file, err)
		}
		addSeams(p, tr)

		path := filepath.Join(dir, c.file)
		if err := savePNG(p, opts, path); err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(xs))
	for i := range xs {
		if math.IsNaN(ys[i]) {
			continue
		}
		pts = append(pts, plotter.XY{X: xs[i], Y: ys[i]})
	}
	return pts
}

func addLine(p *plot.Plot, xs, ys []float64) error {
	line, err := plotter.NewLine(xys(xs, ys))
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Color = lineColor
	p.Add(line)
	return nil
}

// addAcceleration draws the modelled acceleration per phase as lines and
// the velocity gradient as points.
func addAcceleration(p *plot.Plot, tr *trajectory.Trajectory) error {
	for _, seg := range tr.Segments {
		lo, hi := seg.First, seg.Last+1
		if err := addLine(p, tr.Time[lo:hi], tr.Acceleration[lo:hi]); err != nil {
			return err
		}
	}

	pts := xys(tr.Time, tr.Gradient)
	if len(pts) == 0 {
		return nil
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Color = pointColor
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	p.Add(scatter)

	p.Legend.Add("model", &plotter.Line{LineStyle: draw.LineStyle{Color: lineColor, Width: vg.Points(2)}})
	p.Legend.Add("gradient", scatter)
	p.Legend.Top = true
	return nil
}

// addSeams marks each phase boundary with a vertical dashed line.
func addSeams(p *plot.Plot, tr *trajectory.Trajectory) {
	for _, seg := range tr.Segments[1:] {
		l := &plotter.Line{
			XYs: plotter.XYs{{X: seg.Start, Y: p.Y.Min}, {X: seg.Start, Y: p.Y.Max}},
			LineStyle: draw.LineStyle{
				Color:  seamColor,
				Width:  vg.Points(0.8),
				Dashes: []vg.Length{vg.Points(4), vg.Points(3)},
			},
		}
		p.Add(l)
	}
}

func limitedTicker(maxLabels int, labelFmt string) plot.Ticker {
	if maxLabels < 2 {
		maxLabels = 2
	}
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
			return nil
		}
		if min == max {
			return []plot.Tick{{Value: min, Label: fmt.Sprintf(labelFmt, min)}}
		}
		step := (max - min) / float64(maxLabels-1)
		ticks := make([]plot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := min + float64(i)*step
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

func stylePlot(p *plot.Plot) {
	p.Title.TextStyle.Font.Size = vg.Points(16)
	p.Title.Padding = vg.Points(8)
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)
	p.X.Tick.Label.Font.Size = vg.Points(10)
	p.Y.Tick.Label.Font.Size = vg.Points(10)
	p.X.Tick.Marker = limitedTicker(maxTickCount, labelFormat)
	p.Y.Tick.Marker = limitedTicker(maxTickCount, labelFormat)
	p.Add(plotter.NewGrid())
}

func savePNG(p *plot.Plot, opts ChartOptions, filename string) error {
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(opts.Width)*vg.Inch, vg.Length(opts.Height)*vg.Inch),
		vgimg.UseDPI(opts.DPI),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("cannot create png: %w", err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(bw); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return bw.Flush()
}
