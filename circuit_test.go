package circuit

import (
	"io"
	"math"
	"math/cmplx"
	"math/rand/v2"
	"strings"
	"testing"

	"circuit/model"
	"circuit/types"

	"github.com/pkg/errors"
)

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

func relErr(got, want float64) float64 {
	return math.Abs(got-want) / math.Abs(want)
}

func addNoise(z []complex128, sigma float64, seed uint64) {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	for i := range z {
		z[i] += complex(sigma*rng.NormFloat64(), sigma*rng.NormFloat64())
	}
}

// TestAutoFitNotch 理想陷波数据, 已知零延迟
func TestAutoFitNotch(t *testing.T) {
	f := linspace(4e9, 6e9, 1001)
	z := model.SijTrace(f, model.Normalized(5e9, 1e4, 2e4, 0), types.PortNotch)
	c, err := NewNotchPort(f, z)
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	res, err := c.AutoFit(func(cfg *types.Config) {
		cfg.SetFixedDelay(0)
	})
	if err != nil {
		t.Fatalf("拟合失败: %v", err)
	}
	m := res.Map()
	for key, want := range map[string]float64{"fr": 5e9, "Ql": 1e4, "Qc": 2e4, "Qi": 2e4} {
		if relErr(m[key], want) > 1e-6 {
			t.Errorf("%s: 期望 %v, 实际 %v", key, want, m[key])
		}
	}
	qiErr, ok := m["Qi_err"]
	if !ok {
		t.Fatalf("缺少 Qi_err, 告警: %v", res.Warnings)
	}
	if math.IsNaN(qiErr) || qiErr > 1e-3*2e4 {
		t.Errorf("Qi_err 过大: %v", qiErr)
	}
	if !res.Delay.Fixed || res.Delay.Delay != 0 {
		t.Errorf("延迟应固定为 0: %+v", res.Delay)
	}
	if math.Abs(res.Calibration.A-1) > 1e-9 || math.Abs(res.Calibration.Alpha) > 1e-9 {
		t.Errorf("校准: a=%v alpha=%v", res.Calibration.A, res.Calibration.Alpha)
	}
	if !res.PhaseOutcome.OK() {
		t.Errorf("相位拟合: %v", res.PhaseOutcome)
	}
}

// TestAutoFitReflection 反射端口, 含幅度相位偏移与阻抗失配
func TestAutoFitReflection(t *testing.T) {
	f := linspace(4.995e9, 5.005e9, 401)
	p := model.Params{Fr: 5e9, Ql: 1e4, Qc: 3e4, Phi: 0.1, A: 0.5, Alpha: 1, Delay: 3e-9}
	c, err := NewReflectionPort(f, model.SijTrace(f, p, types.PortReflection))
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	res, err := c.AutoFit(func(cfg *types.Config) {
		cfg.SetFixedDelay(3e-9)
	})
	if err != nil {
		t.Fatalf("拟合失败: %v", err)
	}
	q := res.Quality
	if relErr(q.Fr, 5e9) > 1e-9 || relErr(q.Ql, 1e4) > 1e-6 || relErr(q.Qc, 3e4) > 1e-6 {
		t.Errorf("期望 fr=5e9 Ql=1e4 Qc=3e4, 实际 %+v", q)
	}
	if relErr(q.Qi, 1.5e4) > 1e-6 {
		t.Errorf("Qi: 期望 1.5e4, 实际 %v", q.Qi)
	}
	if math.Abs(q.Phi-0.1) > 1e-6 {
		t.Errorf("phi: 期望 0.1, 实际 %v", q.Phi)
	}
	// 模型曲线应与原始数据重合
	for i := range res.ZSim {
		if cmplx.Abs(res.ZSim[i]-res.ZRaw[i]) > 1e-6 {
			t.Fatalf("模型点 %d: 期望 %v, 实际 %v", i, res.ZRaw[i], res.ZSim[i])
		}
	}
}

// TestAutoFitDelay 含噪声数据估计延迟后拟合
func TestAutoFitDelay(t *testing.T) {
	f := linspace(4.995e9, 5.005e9, 401)
	p := model.Params{Fr: 5e9, Ql: 1e4, Qc: 2e4, A: 0.3, Alpha: 0.4, Delay: 2e-8}
	z := model.SijTrace(f, p, types.PortNotch)
	addNoise(z, 1e-3, 1)
	c, err := NewNotchPort(f, z)
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	res, err := c.AutoFit(func(cfg *types.Config) {
		cfg.FitDelayMaxIterations = 10
	})
	if err != nil {
		t.Fatalf("拟合失败: %v", err)
	}
	if !res.Delay.Converged || relErr(res.Delay.Delay, 2e-8) > 0.05 {
		t.Errorf("delay: 期望 2e-8, 实际 %v (收敛 %v)", res.Delay.Delay, res.Delay.Converged)
	}
	for _, w := range res.Warnings {
		if strings.Contains(w, types.ErrDelayNotConverged.Error()) {
			t.Errorf("不应有延迟告警: %v", w)
		}
	}
	if relErr(res.Quality.Fr, 5e9) > 1e-6 {
		t.Errorf("fr: 期望 5e9, 实际 %v", res.Quality.Fr)
	}
	if relErr(res.Quality.Ql, 1e4) > 0.05 || relErr(res.Quality.Qi, 2e4) > 0.05 {
		t.Errorf("期望 Ql=1e4 Qi=2e4, 实际 Ql=%v Qi=%v", res.Quality.Ql, res.Quality.Qi)
	}
	if res.Errors == nil {
		t.Fatalf("缺少误差, 告警: %v", res.Warnings)
	}
	if res.Errors.Ql <= 0 || res.Errors.Ql > 0.05*1e4 {
		t.Errorf("Ql 误差: %v", res.Errors.Ql)
	}
}

// TestAutoFitOwnsData 修改结果中的数据不影响原曲线
func TestAutoFitOwnsData(t *testing.T) {
	f := linspace(4.995e9, 5.005e9, 201)
	z := model.SijTrace(f, model.Normalized(5e9, 1e4, 2e4, 0), types.PortNotch)
	c, err := NewNotchPort(f, z)
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	res, err := c.AutoFit(func(cfg *types.Config) {
		cfg.SetFixedDelay(0)
	})
	if err != nil {
		t.Fatalf("拟合失败: %v", err)
	}
	res.F[0] = -1
	res.ZRaw[0] = 42
	if c.Trace.F[0] != f[0] || c.Trace.Z[0] != z[0] {
		t.Errorf("原曲线被修改: f=%v z=%v", c.Trace.F[0], c.Trace.Z[0])
	}
}

// TestAutoFitNoErrors 关闭误差计算时只保留卡方
func TestAutoFitNoErrors(t *testing.T) {
	f := linspace(4.995e9, 5.005e9, 201)
	z := model.SijTrace(f, model.Normalized(5e9, 1e4, 2e4, 0), types.PortNotch)
	c, err := NewNotchPort(f, z)
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	res, err := c.AutoFit(func(cfg *types.Config) {
		cfg.CalcErrors = false
		cfg.SetFixedDelay(0)
	})
	if err != nil {
		t.Fatalf("拟合失败: %v", err)
	}
	m := res.Map()
	for _, key := range []string{"fr_err", "Ql_err", "absQc_err", "phi_err", "Qi_err", "Qi_no_dia_corr_err"} {
		if _, ok := m[key]; ok {
			t.Errorf("不应包含 %s", key)
		}
	}
	if _, ok := m["chi_square"]; !ok {
		t.Errorf("缺少 chi_square")
	}
	if res.Errors != nil {
		t.Errorf("不应计算误差")
	}
}

// TestAutoFitGuesses 给定校准相位拟合初值
func TestAutoFitGuesses(t *testing.T) {
	f := linspace(4.995e9, 5.005e9, 201)
	z := model.SijTrace(f, model.Normalized(5e9, 1e4, 2e4, 0), types.PortNotch)
	c, err := NewNotchPort(f, z)
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	res, err := c.AutoFit(func(cfg *types.Config) {
		cfg.SetFixedDelay(0)
		cfg.Guesses = &types.PhaseGuess{Fr: 5.0002e9, Ql: 8e3}
	})
	if err != nil {
		t.Fatalf("拟合失败: %v", err)
	}
	if relErr(res.Quality.Fr, 5e9) > 1e-6 || relErr(res.Quality.Ql, 1e4) > 1e-6 {
		t.Errorf("fr, Ql: 期望 5e9, 1e4, 实际 %v, %v", res.Quality.Fr, res.Quality.Ql)
	}
}

// TestAutoFitPolar 幅度相位输入
func TestAutoFitPolar(t *testing.T) {
	f := linspace(4.995e9, 5.005e9, 201)
	z := model.SijTrace(f, model.Params{Fr: 5e9, Ql: 1e4, Qc: 2e4, A: 2, Alpha: -0.5}, types.PortNotch)
	amp := make([]float64, len(z))
	phase := make([]float64, len(z))
	for i, v := range z {
		amp[i], phase[i] = cmplx.Abs(v), cmplx.Phase(v)
	}
	c, err := NewCircuitPolar(types.PortNotch, f, amp, phase)
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	res, err := c.AutoFit(func(cfg *types.Config) { cfg.SetFixedDelay(0) })
	if err != nil {
		t.Fatalf("拟合失败: %v", err)
	}
	if relErr(res.Quality.Qi, 2e4) > 1e-6 || relErr(res.Calibration.A, 2) > 1e-6 {
		t.Errorf("期望 Qi=2e4 a=2, 实际 Qi=%v a=%v", res.Quality.Qi, res.Calibration.A)
	}
}

// TestAutoFitWindow 频率窗口截取
func TestAutoFitWindow(t *testing.T) {
	f := linspace(4.9e9, 5.1e9, 2001)
	z := model.SijTrace(f, model.Normalized(5e9, 1e4, 2e4, 0), types.PortNotch)
	c, err := NewNotchPort(f, z)
	if err != nil {
		t.Fatalf("初始化失败: %v", err)
	}
	res, err := c.AutoFit(func(cfg *types.Config) {
		cfg.SetFixedDelay(0)
		cfg.FMin, cfg.FMax = 4.99e9, 5.01e9
	})
	if err != nil {
		t.Fatalf("拟合失败: %v", err)
	}
	if len(res.F) >= len(f) || res.F[0] < 4.99e9 || res.F[len(res.F)-1] > 5.01e9 {
		t.Errorf("窗口错误: %d 点 [%v, %v]", len(res.F), res.F[0], res.F[len(res.F)-1])
	}
	if relErr(res.Quality.Ql, 1e4) > 1e-6 {
		t.Errorf("Ql: 期望 1e4, 实际 %v", res.Quality.Ql)
	}
	if n := len(res.FitTrace.F); n != types.FitTracePoints {
		t.Errorf("拟合曲线点数: 期望 %d, 实际 %d", types.FitTracePoints, n)
	}
	if res.FitTrace.F[0] != res.F[0] || relErr(res.FitTrace.F[types.FitTracePoints-1], res.F[len(res.F)-1]) > 1e-12 {
		t.Errorf("拟合曲线端点错误")
	}

	_, err = c.AutoFit(func(cfg *types.Config) {
		cfg.FMin, cfg.FMax = 6e9, 7e9
	})
	if !errors.Is(err, types.ErrTooShort) {
		t.Errorf("空窗口期望 ErrTooShort, 实际 %v", err)
	}
}

// TestAutoFitZeroLeakage 无泄漏时 Fano 范围收缩为拟合值
func TestAutoFitZeroLeakage(t *testing.T) {
	f := linspace(4.995e9, 5.005e9, 201)
	z := model.SijTrace(f, model.Normalized(5e9, 1e4, 2e4, 0), types.PortNotch)
	c, _ := NewNotchPort(f, z)
	res, err := c.AutoFit(func(cfg *types.Config) {
		cfg.SetFixedDelay(0)
		cfg.Isolation = math.Inf(1)
	})
	if err != nil {
		t.Fatalf("拟合失败: %v", err)
	}
	m := res.Map()
	if relErr(m["Qi_min"], m["Qi"]) > 1e-9 || relErr(m["Qi_max"], m["Qi"]) > 1e-9 {
		t.Errorf("Qi 范围: 期望 %v, 实际 [%v, %v]", m["Qi"], m["Qi_min"], m["Qi_max"])
	}
	if m["fano_b"] != 0 {
		t.Errorf("fano_b: 期望 0, 实际 %v", m["fano_b"])
	}
}

// recordDebug 记录调试回调
type recordDebug struct {
	inits, updates int
	errs           []error
}

func (d *recordDebug) Init(trace *types.Trace)  { d.inits++ }
func (d *recordDebug) IsDebug() bool            { return true }
func (d *recordDebug) SetDebug(is bool)         {}
func (d *recordDebug) Update(res *types.Result) { d.updates++ }
func (d *recordDebug) Render(w io.Writer) error { return nil }
func (d *recordDebug) Error(err error)          { d.errs = append(d.errs, err) }

// TestAutoFitDebug 告警同时进入结果与调试接口
func TestAutoFitDebug(t *testing.T) {
	f := linspace(4.99995e9, 5.00005e9, 101)
	z := model.SijTrace(f, model.Normalized(5e9, 1e4, 2e4, 0), types.PortNotch)
	c, _ := NewNotchPort(f, z)
	d := &recordDebug{}
	res, err := c.AutoFit(func(cfg *types.Config) {
		cfg.SetFixedDelay(0)
		cfg.Debug = d
	})
	if err != nil {
		t.Fatalf("拟合失败: %v", err)
	}
	if d.inits != 1 || d.updates != 1 {
		t.Errorf("调试回调次数: init=%d update=%d", d.inits, d.updates)
	}
	if len(res.Warnings) == 0 || len(res.Warnings) != len(d.errs) {
		t.Errorf("告警: 结果 %v, 调试 %v", res.Warnings, d.errs)
	}
	var span bool
	for _, err := range d.errs {
		span = span || errors.Is(err, types.ErrPhaseSpan)
	}
	if !span {
		t.Errorf("缺少相位范围告警: %v", d.errs)
	}
}

// TestNewCircuitInvalid 输入校验
func TestNewCircuitInvalid(t *testing.T) {
	f := linspace(1, 2, 20)
	z := make([]complex128, 20)
	if _, err := NewCircuit(types.Port(3), f, z); !errors.Is(err, types.ErrUnknownPort) {
		t.Errorf("期望 ErrUnknownPort, 实际 %v", err)
	}
	if _, err := NewNotchPort(f, z[:19]); !errors.Is(err, types.ErrLength) {
		t.Errorf("期望 ErrLength, 实际 %v", err)
	}
	if _, err := NewNotchPort(f[:5], z[:5]); !errors.Is(err, types.ErrTooShort) {
		t.Errorf("期望 ErrTooShort, 实际 %v", err)
	}
	f[3] = f[2]
	if _, err := NewNotchPort(f, z); !errors.Is(err, types.ErrFrequency) {
		t.Errorf("期望 ErrFrequency, 实际 %v", err)
	}
}
