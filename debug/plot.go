package debug

import (
	"io"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// 图片尺寸
var (
	PlotWidth  = 10 * vg.Inch
	PlotHeight = 8 * vg.Inch
)

// Plot 静态图片, 2x2 分格; 字体不含中文, 标注使用英文
type Plot struct {
	Record
}

// Render 输出 PNG
func (p *Plot) Render(w io.Writer) error {
	iq, err := p.plane("IQ", p.Raw, p.Sim)
	if err != nil {
		return err
	}
	norm, err := p.plane("Normalized", p.Norm, p.SimNorm)
	if err != nil {
		return err
	}
	amp, phase := make([]Float, len(p.Raw)), make([]Float, len(p.Raw))
	for i, z := range p.Raw {
		amp[i] = Float(math.Hypot(float64(z[0]), float64(z[1])))
		phase[i] = Float(math.Atan2(float64(z[1]), float64(z[0])))
	}
	la, err := p.curve("Amplitude", "|S|", amp, p.FitAmp)
	if err != nil {
		return err
	}
	lp, err := p.curve("Phase", "arg S (rad)", phase, p.FitPhase)
	if err != nil {
		return err
	}

	img := vgimg.New(PlotWidth, PlotHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 2, Cols: 2,
		PadX: vg.Millimeter, PadY: vg.Millimeter,
		PadTop: vg.Points(2), PadBottom: vg.Points(2),
		PadLeft: vg.Points(2), PadRight: vg.Points(2),
	}
	plots := [][]*plot.Plot{{iq, norm}, {la, lp}}
	canvases := plot.Align(plots, tiles, dc)
	for j := range plots {
		for i, pl := range plots[j] {
			pl.Draw(canvases[j][i])
		}
	}
	_, err = vgimg.PngCanvas{Canvas: img}.WriteTo(w)
	return err
}

// plane 复平面数据点与模型
func (p *Plot) plane(title string, data, sim [][2]Float) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "Re"
	pl.Y.Label.Text = "Im"
	pl.Add(plotter.NewGrid())
	if err := addScatter(pl, "data", xyPairs(data), 0); err != nil {
		return nil, errors.Wrap(err, title)
	}
	if err := addLine(pl, "model", xyPairs(sim), 1); err != nil {
		return nil, errors.Wrap(err, title)
	}
	return pl, nil
}

// curve 频率曲线
func (p *Plot) curve(title, label string, data, fit []Float) (*plot.Plot, error) {
	pl := plot.New()
	pl.Title.Text = title
	pl.X.Label.Text = "f (Hz)"
	pl.Y.Label.Text = label
	pl.Add(plotter.NewGrid())
	if err := addScatter(pl, "data", xySeries(p.F, data), 0); err != nil {
		return nil, errors.Wrap(err, title)
	}
	if err := addLine(pl, "fit", xySeries(p.FitF, fit), 1); err != nil {
		return nil, errors.Wrap(err, title)
	}
	return pl, nil
}

func addScatter(pl *plot.Plot, name string, xys plotter.XYs, i int) error {
	if len(xys) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	s.Color = plotutil.Color(i)
	s.Radius = vg.Points(1.5)
	pl.Add(s)
	pl.Legend.Add(name, s)
	return nil
}

func addLine(pl *plot.Plot, name string, xys plotter.XYs, i int) error {
	if len(xys) == 0 {
		return nil
	}
	l, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	l.Color = plotutil.Color(i)
	l.Width = vg.Points(1)
	pl.Add(l)
	pl.Legend.Add(name, l)
	return nil
}

// xyPairs 跳过非有限值
func xyPairs(z [][2]Float) plotter.XYs {
	out := make(plotter.XYs, 0, len(z))
	for _, v := range z {
		if finite(v[0]) && finite(v[1]) {
			out = append(out, plotter.XY{X: float64(v[0]), Y: float64(v[1])})
		}
	}
	return out
}

func xySeries(x, y []Float) plotter.XYs {
	out := make(plotter.XYs, 0, len(x))
	for i := range min(len(x), len(y)) {
		if finite(x[i]) && finite(y[i]) {
			out = append(out, plotter.XY{X: float64(x[i]), Y: float64(y[i])})
		}
	}
	return out
}

func finite(v Float) bool {
	return !math.IsNaN(float64(v)) && !math.IsInf(float64(v), 0)
}
