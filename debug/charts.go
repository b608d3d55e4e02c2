package debug

import (
	"io"
	"math/cmplx"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"
)

// Charts 曲线绘制
type Charts struct {
	Record
}

// globalOpts 各图表共用配置
func globalOpts(title, subtitle, xName, yName string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{
			Theme: types.ThemeWesteros,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: subtitle,
		}),
		charts.WithLegendOpts(opts.Legend{
			Type:   "scroll",
			Orient: "vertical",
			Right:  "10",
			Top:    "20",
			Bottom: "20",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{
			Type:        "value",
			Name:        xName,
			Scale:       opts.Bool(true),
			SplitNumber: 10,
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:  "value",
			Name:  yName,
			Scale: opts.Bool(true),
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithAnimation(false),
	}
}

// Render 格式化
func (c *Charts) Render(w io.Writer) error {
	// 复平面
	iq := charts.NewScatter()
	iq.SetGlobalOptions(globalOpts("复平面", "原始数据, 归一化数据与模型", "Re", "Im")...)
	iq.AddSeries("原始", scatterData(c.Raw), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	iq.AddSeries("模型", scatterData(c.Sim), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))
	iq.AddSeries("归一化", scatterData(c.Norm), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 4}))
	iq.AddSeries("归一化模型", scatterData(c.SimNorm), charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}))

	// 幅度与相位
	amp := make([]Float, len(c.Raw))
	phase := make([]Float, len(c.Raw))
	for i, z := range c.Raw {
		v := complex(float64(z[0]), float64(z[1]))
		amp[i] = Float(cmplx.Abs(v))
		phase[i] = Float(cmplx.Phase(v))
	}
	lineA := charts.NewLine()
	lineA.SetGlobalOptions(globalOpts("幅度曲线", "幅度随频率变化曲线", "f (Hz)", "|S|")...)
	lineA.AddSeries("数据", lineData(c.F, amp), charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	lineA.AddSeries("拟合", lineData(c.FitF, c.FitAmp), charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	lineP := charts.NewLine()
	lineP.SetGlobalOptions(globalOpts("相位曲线", "相位随频率变化曲线", "f (Hz)", "arg S (rad)")...)
	lineP.AddSeries("数据", lineData(c.F, phase), charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))
	lineP.AddSeries("拟合", lineData(c.FitF, c.FitPhase), charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))

	// 构建界面
	page := components.NewPage()
	page.AddCharts(
		iq,
		lineA,
		lineP,
	)
	return page.Render(w)
}

// Handler 发布到网页面
func (c *Charts) Handler(w http.ResponseWriter, _ *http.Request) {
	if err := c.Render(w); err != nil {
		c.Error(err)
	}
}

func scatterData(z [][2]Float) []opts.ScatterData {
	out := make([]opts.ScatterData, len(z))
	for i, v := range z {
		out[i] = opts.ScatterData{Value: []float64{float64(v[0]), float64(v[1])}}
	}
	return out
}

func lineData(x, y []Float) []opts.LineData {
	out := make([]opts.LineData, min(len(x), len(y)))
	for i := range out {
		out[i] = opts.LineData{Value: []float64{float64(x[i]), float64(y[i])}}
	}
	return out
}
