package render

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/banshee-data/trajfix/internal/fsutil"
	"github.com/banshee-data/trajfix/internal/trajectory"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Scene3D renders an HTML page with two interactive 3D views: the sample
// points with checkpoints and discontinuities, and the connected path.
// Z is placed on the depth axis and Y on the vertical axis so the view
// matches how the device was held.
func Scene3D(w io.Writer, sc Scene, o Options) error {
	page := components.NewPage()
	page.PageTitle = sc.Title
	if o.AssetsHost != "" {
		page.SetAssetsHost(o.AssetsHost)
	}
	page.AddCharts(pointsChart(sc, o), pathChart(sc, o))
	return page.Render(w)
}

// Scene3DFile writes Scene3D into dir and returns the file path.
func Scene3DFile(fsys fsutil.FileSystem, dir string, sc Scene, o Options) (path string, err error) {
	if err := fsys.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path = filepath.Join(dir, FileScene3D)
	f, err := fsys.Create(path)
	if err != nil {
		return "", err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	if err := Scene3D(f, sc, o); err != nil {
		return "", fmt.Errorf("render %s: %w", FileScene3D, err)
	}
	return path, nil
}

func globalOpts(sc Scene, o Options, title, subtitle string) []charts.GlobalOpts {
	l := sc.Limits
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{PageTitle: sc.Title, Width: "1000px", Height: "800px", AssetsHost: o.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxis3DOpts(opts.XAxis3D{Name: axisCaption[trajectory.AxisX], Min: l.X.Min, Max: l.X.Max}),
		charts.WithYAxis3DOpts(opts.YAxis3D{Name: axisCaption[trajectory.AxisZ], Min: l.Z.Min, Max: l.Z.Max}),
		charts.WithZAxis3DOpts(opts.ZAxis3D{Name: axisCaption[trajectory.AxisY], Min: l.Y.Min, Max: l.Y.Max}),
	}
}

func pointsChart(sc Scene, o Options) *charts.Scatter3D {
	scatter := charts.NewScatter3D()
	scatter.SetGlobalOptions(globalOpts(sc, o, "Map: "+sc.Title,
		fmt.Sprintf("samples=%d checkpoints=%d discontinuities=%d", len(sc.Trajectory), len(sc.Checkpoints), len(sc.Discontinuities)))...)

	scatter.AddSeries("Trajectory", chart3DData(sc.Trajectory, nil),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#1f77b4"}))

	if o.ShowCheckpoints && len(sc.Checkpoints) > 0 {
		names := make([]string, len(sc.Checkpoints))
		for i, c := range sc.Checkpoints {
			names[i] = "Checkpoint " + c.Label
		}
		scatter.AddSeries("Checkpoints", chart3DData(checkpointPositions(sc.Checkpoints), names),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#d62728"}))
	}

	if len(sc.Discontinuities) > 0 {
		scatter.AddSeries("Discontinuities", chart3DData(flaggedSamples(sc), nil),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff7f0e"}))
	}
	return scatter
}

func pathChart(sc Scene, o Options) *charts.Line3D {
	line := charts.NewLine3D()
	line.SetGlobalOptions(globalOpts(sc, o, "Path with derivative analysis",
		fmt.Sprintf("flagged indices: %v", sc.Discontinuities))...)
	line.AddSeries("Trajectory", chart3DData(sc.Trajectory, nil),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: "#1f77b4"}))
	return line
}

func flaggedSamples(sc Scene) trajectory.Trajectory {
	out := make(trajectory.Trajectory, 0, len(sc.Discontinuities))
	for _, i := range sc.Discontinuities {
		if i >= 0 && i < len(sc.Trajectory) {
			out = append(out, sc.Trajectory[i])
		}
	}
	return out
}

// chart3DData maps samples to [x, z, y] triples. names, when given, must
// match t in length.
func chart3DData(t trajectory.Trajectory, names []string) []opts.Chart3DData {
	data := make([]opts.Chart3DData, len(t))
	for i, s := range t {
		name := hoverText(s)
		if names != nil {
			name = names[i] + " " + name
		}
		data[i] = opts.Chart3DData{Name: name, Value: []interface{}{s.X, s.Z, s.Y}}
	}
	return data
}
