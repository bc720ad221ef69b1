package render

import (
	"fmt"
	"image/color"
	"math"
	"path/filepath"

	"github.com/banshee-data/trajfix/internal/fsutil"
	"github.com/banshee-data/trajfix/internal/trajectory"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

var (
	trajectoryColor    = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	checkpointColor    = color.RGBA{R: 214, G: 39, B: 40, A: 255}
	discontinuityColor = color.RGBA{R: 255, G: 127, B: 14, A: 255}
	referenceColor     = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	annotationColor    = color.RGBA{R: 128, G: 0, B: 128, A: 255}
)

type projection struct {
	file string
	h, v trajectory.Axis
}

var projections = []projection{
	{FileProjectionXY, trajectory.AxisX, trajectory.AxisY},
	{FileProjectionXZ, trajectory.AxisX, trajectory.AxisZ},
	{FileProjectionZY, trajectory.AxisZ, trajectory.AxisY},
}

// Projections writes the XY, XZ and ZY scatter plots of the scene into
// dir and returns the written paths. An empty trajectory writes nothing.
func Projections(fsys fsutil.FileSystem, dir string, sc Scene, o Options) ([]string, error) {
	if len(sc.Trajectory) == 0 {
		return nil, nil
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	files := make([]string, 0, len(projections))
	for _, pr := range projections {
		p, err := projectionPlot(sc, o, pr.h, pr.v)
		if err != nil {
			return files, fmt.Errorf("%s: %w", pr.file, err)
		}
		path := filepath.Join(dir, pr.file)
		if err := savePNG(fsys, p, 7*vg.Inch, 6*vg.Inch, path); err != nil {
			return files, fmt.Errorf("save %s: %w", pr.file, err)
		}
		files = append(files, path)
	}
	return files, nil
}

func projectionPlot(sc Scene, o Options, h, v trajectory.Axis) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = sc.Title
	p.X.Label.Text = axisCaption[h]
	p.Y.Label.Text = axisCaption[v]
	p.Add(plotter.NewGrid())

	path, err := plotter.NewScatter(planar(sc.Trajectory, h, v))
	if err != nil {
		return nil, err
	}
	path.GlyphStyle.Color = trajectoryColor
	path.GlyphStyle.Radius = vg.Points(1.5)
	path.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(path)
	p.Legend.Add("Trajectory", path)

	if len(sc.Discontinuities) > 0 {
		marks, err := plotter.NewScatter(planar(flaggedSamples(sc), h, v))
		if err != nil {
			return nil, err
		}
		marks.GlyphStyle.Color = discontinuityColor
		marks.GlyphStyle.Radius = vg.Points(4)
		marks.GlyphStyle.Shape = draw.RingGlyph{}
		p.Add(marks)
		p.Legend.Add("Discontinuity", marks)
	}

	if o.ShowCheckpoints && len(sc.Checkpoints) > 0 {
		pts := planar(checkpointPositions(sc.Checkpoints), h, v)
		cps, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		cps.GlyphStyle.Color = checkpointColor
		cps.GlyphStyle.Radius = vg.Points(2.5)
		cps.GlyphStyle.Shape = draw.CircleGlyph{}

		names := make([]string, len(sc.Checkpoints))
		for i, c := range sc.Checkpoints {
			names[i] = c.Label
		}
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: pts, Labels: names})
		if err != nil {
			return nil, err
		}
		labels.Offset = vg.Point{X: vg.Points(3), Y: vg.Points(3)}

		p.Add(cps, labels)
		p.Legend.Add("Checkpoints", cps)
	}

	hr, vr := sc.Limits.Axis(h).drawable(), sc.Limits.Axis(v).drawable()
	p.X.Min, p.X.Max = hr.Min, hr.Max
	p.Y.Min, p.Y.Max = vr.Min, vr.Max
	if o.Invert[h] {
		p.X.Scale = plot.InvertedScale{Normalizer: p.X.Scale}
	}
	if o.Invert[v] {
		p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

func planar(t trajectory.Trajectory, h, v trajectory.Axis) plotter.XYs {
	pts := make(plotter.XYs, len(t))
	for i, s := range t {
		pts[i] = plotter.XY{X: s.Coord(h), Y: s.Coord(v)}
	}
	return pts
}

// DerivativeCharts writes one line chart per axis component of the
// displacements and one for their magnitude. Values whose absolute size
// exceeds threshold are labeled "<i-1>-<i>", the pair of samples the
// step connects. Fewer than two displacements write nothing.
func DerivativeCharts(fsys fsutil.FileSystem, dir, title string, d []trajectory.Sample, mags []float64, threshold float64) ([]string, error) {
	if len(d) < 2 {
		return nil, nil
	}
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output dir: %w", err)
	}

	type chart struct {
		file, label string
		values      []float64
		ref         float64
		color       color.Color
	}
	disp := trajectory.Trajectory(d)
	charts := []chart{
		{FileDerivativeX, "dx", disp.Column(trajectory.AxisX), 0, color.RGBA{R: 214, G: 39, B: 40, A: 255}},
		{FileDerivativeY, "dy", disp.Column(trajectory.AxisY), 0, color.RGBA{R: 44, G: 160, B: 44, A: 255}},
		{FileDerivativeZ, "dz", disp.Column(trajectory.AxisZ), 0, trajectoryColor},
		{FileDerivativeNorm, "|d|", mags, threshold, color.Black},
	}

	files := make([]string, 0, len(charts))
	for _, c := range charts {
		p, err := seriesPlot(fmt.Sprintf("Derivatives %s - %s", c.label, title), c.label, c.values, c.ref, threshold, c.color)
		if err != nil {
			return files, fmt.Errorf("%s: %w", c.file, err)
		}
		path := filepath.Join(dir, c.file)
		if err := savePNG(fsys, p, 16*vg.Inch, 6*vg.Inch, path); err != nil {
			return files, fmt.Errorf("save %s: %w", c.file, err)
		}
		files = append(files, path)
	}
	return files, nil
}

func seriesPlot(title, label string, values []float64, ref, threshold float64, c color.Color) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Index"
	p.Y.Label.Text = label
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(values))
	var flagged plotter.XYs
	var names []string
	for i, v := range values {
		pts[i] = plotter.XY{X: float64(i), Y: v}
		if i > 0 && math.Abs(v) > threshold {
			flagged = append(flagged, pts[i])
			names = append(names, fmt.Sprintf("%d-%d", i-1, i))
		}
	}

	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.Color = c
	line.Width = vg.Points(1)
	p.Add(line)
	p.Legend.Add(label, line)

	refLine, err := plotter.NewLine(plotter.XYs{{X: 0, Y: ref}, {X: float64(len(values) - 1), Y: ref}})
	if err != nil {
		return nil, err
	}
	refLine.Color = referenceColor
	refLine.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(refLine)

	if len(flagged) > 0 {
		labels, err := plotter.NewLabels(plotter.XYLabels{XYs: flagged, Labels: names})
		if err != nil {
			return nil, err
		}
		for i := range labels.TextStyle {
			labels.TextStyle[i].Color = annotationColor
		}
		p.Add(labels)
	}

	p.Legend.Top = true
	return p, nil
}

// savePNG renders p and writes it through fsys.
func savePNG(fsys fsutil.FileSystem, p *plot.Plot, w, h vg.Length, path string) (err error) {
	wt, err := p.WriterTo(w, h, "png")
	if err != nil {
		return err
	}
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	_, err = wt.WriteTo(f)
	return err
}
