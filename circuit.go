// Package circuit 超导谐振器复散射数据的圆拟合.
//
// 由原始 S11/S21 数据估计线缆延迟, 校准幅度相位偏移与阻抗失配旋转,
// 拟合归一化圆得到 Ql, Qc, Qi 及其误差.
package circuit

import (
	"io"
	"log"
	"math"
	"os"

	"circuit/fit"
	"circuit/load"
	"circuit/model"
	"circuit/types"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
)

// Circuit 谐振器测量
type Circuit struct {
	Name string
	Port types.Port
	*types.Trace
}

// NewCircuit 初始化
func NewCircuit(port types.Port, f []float64, z []complex128) (*Circuit, error) {
	if !port.Valid() {
		return nil, errors.Wrapf(types.ErrUnknownPort, "%d", port)
	}
	tr, err := types.NewTrace(f, z)
	if err != nil {
		return nil, err
	}
	return &Circuit{Port: port, Trace: tr}, nil
}

// NewCircuitPolar 由幅度与相位初始化
func NewCircuitPolar(port types.Port, f, amp, phase []float64) (*Circuit, error) {
	if !port.Valid() {
		return nil, errors.Wrapf(types.ErrUnknownPort, "%d", port)
	}
	tr, err := types.NewTraceFromPolar(f, amp, phase)
	if err != nil {
		return nil, err
	}
	return &Circuit{Port: port, Trace: tr}, nil
}

// NewReflectionPort 反射测量 (S11)
func NewReflectionPort(f []float64, z []complex128) (*Circuit, error) {
	return NewCircuit(types.PortReflection, f, z)
}

// NewNotchPort 陷波测量 (S21)
func NewNotchPort(f []float64, z []complex128) (*Circuit, error) {
	return NewCircuit(types.PortNotch, f, z)
}

// Load 加载数据文件, 每个数据块一个测量; 数据块未指定端口时使用 port
func Load(filename string, port types.Port, format load.Format) ([]*Circuit, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	blocks, err := load.Load(file, format)
	if err != nil {
		return nil, errors.Wrap(err, filename)
	}
	out := make([]*Circuit, len(blocks))
	for i, b := range blocks {
		p := b.Port
		if p == 0 {
			p = port
		}
		if !p.Valid() {
			return nil, errors.Wrapf(types.ErrUnknownPort, "%s block %d", filename, i)
		}
		out[i] = &Circuit{Name: b.Name, Port: p, Trace: b.Trace}
	}
	return out, nil
}

// Export 导出拟合结果
func Export(filename string, res *types.Result) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()
	return load.Export(file, res)
}

// Sij 端口模型
func (c *Circuit) Sij(f []float64, p model.Params) []complex128 {
	return model.SijTrace(f, p, c.Port)
}

// AutoFit 完整拟合: 延迟, 校准, 归一化, 品质因数, Fano 范围.
//
// 模型质量问题只作为告警记录在结果中; 只有输入错误返回 error.
func (c *Circuit) AutoFit(opts ...func(cfg *types.Config)) (*types.Result, error) {
	cfg := types.NewConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Debug == nil {
		cfg.Debug = &debug{}
	}
	if !c.Port.Valid() {
		return nil, errors.Wrapf(types.ErrUnknownPort, "%d", c.Port)
	}
	tr := c.Trace
	if cfg.Windowed() {
		var err error
		if tr, err = tr.Window(cfg.FMin, cfg.FMax); err != nil {
			return nil, err
		}
	}
	rep := &collector{debug: cfg.Debug}
	cfg.Debug.Init(tr)

	// 线缆延迟
	var delay types.DelayFit
	if cfg.FixedDelay != nil {
		delay = types.DelayFit{Delay: *cfg.FixedDelay, Fixed: true, Converged: true}
	} else {
		var err error
		if delay, err = fit.Delay(tr, cfg.FitDelayMaxIterations, rep); err != nil {
			return nil, err
		}
	}
	// 校准与归一化
	cal, err := fit.Calibrate(tr, delay.Delay, cfg.Guesses, rep)
	if err != nil {
		return nil, err
	}
	if !cal.Phase.Outcome.OK() {
		rep.Error(errors.Wrap(types.ErrPoorFit, cal.Phase.Outcome.String()))
	}
	zNorm := fit.Normalize(tr, cal)

	// 品质因数
	q := fit.Qualities(cal, c.Port)
	res := &types.Result{
		Port:         c.Port,
		Delay:        delay,
		Calibration:  cal,
		Quality:      q,
		PhaseOutcome: cal.Phase.Outcome,
		F:            append([]float64(nil), tr.F...),
		ZRaw:         append([]complex128(nil), tr.Z...),
		ZNorm:        zNorm,
	}
	if cfg.CalcErrors {
		chi, cov, err := fit.Covariance(tr.F, zNorm, q)
		res.ChiSquare = chi
		if err != nil {
			rep.Error(err)
		} else {
			e := fit.Errors(q, cov)
			res.Errors = &e
		}
	} else {
		res.ChiSquare = fit.ChiSquare(fit.Residuals(tr.F, zNorm, q))
	}
	res.Fano = fit.Fano(q, cfg.LeakageB(), rep)

	// 模型曲线
	full := fitParams(cal, q)
	res.ZSim = c.Sij(tr.F, full)
	res.ZSimNorm = c.Sij(tr.F, fit.Params(q))
	res.FitTrace = fitTrace(tr.F[0], tr.F[tr.Len()-1], full, c.Port)

	res.Warnings = rep.warnings
	cfg.Debug.Update(res)
	return res, nil
}

// fitParams 含校准参数的完整模型
func fitParams(cal types.Calibration, q types.Quality) model.Params {
	p := fit.Params(q)
	p.A, p.Alpha, p.Delay = cal.A, cal.Alpha, cal.Delay
	return p
}

// fitTrace 等间隔密集采样的模型幅度与相位
func fitTrace(fmin, fmax float64, p model.Params, port types.Port) types.FitTrace {
	f := floats.Span(make([]float64, types.FitTracePoints), fmin, fmax)
	z := model.SijTrace(f, p, port)
	out := types.FitTrace{
		F:     f,
		Amp:   make([]float64, len(f)),
		Phase: make([]float64, len(f)),
	}
	for i, v := range z {
		out.Amp[i] = math.Hypot(real(v), imag(v))
		out.Phase[i] = math.Atan2(imag(v), real(v))
	}
	return out
}

// collector 收集告警并转发到调试接口
type collector struct {
	debug    types.Debug
	warnings []string
}

func (c *collector) Error(err error) {
	c.warnings = append(c.warnings, err.Error())
	c.debug.Error(err)
}

// debug 默认调试, 开启后告警写入日志
type debug struct{ is bool }

func (debug) Init(trace *types.Trace)  {}
func (debug *debug) IsDebug() bool     { return debug.is }
func (debug *debug) SetDebug(is bool)  { debug.is = is }
func (debug) Update(res *types.Result) {}
func (debug) Render(w io.Writer) error { return nil }
func (debug *debug) Error(err error) {
	if debug.is {
		log.Println(err)
	}
}
