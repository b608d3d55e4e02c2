package fit

import (
	"math"
	"math/cmplx"

	"circuit/maths"
	"circuit/model"
	"circuit/types"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/stat"
)

// Delay 交替圆拟合与相位拟合估计线缆延迟, 修正量低于相位噪声时停止.
//
// 相位拟合未收敛的一步不计入收敛判断, 迭代就此结束并告警.
func Delay(tr *types.Trace, maxIterations int, rep types.Reporter) (types.DelayFit, error) {
	f, span := tr.F, tr.Span()
	start, err := initialDelay(tr, rep)
	if err != nil {
		return types.DelayFit{}, errors.Wrap(err, "delay")
	}
	out := types.DelayFit{Delay: start}

	var (
		corr, noise float64
		guess       *types.PhaseGuess
		failed      *types.DelayStep
	)
	for i := 0; i < maxIterations; i++ {
		z := applyDelay(tr.Z, f, out.Delay)
		c, err := Circle(z, rep)
		if err != nil {
			return out, errors.Wrap(err, "delay")
		}
		z = translate(z, c.Center)

		p := Phase(f, z, guess, rep)
		corr = p.Delay
		guess = &types.PhaseGuess{Fr: p.Fr, Ql: p.Ql, Delay: types.DelayCorrectionGuess}

		phase := maths.Unwrap(maths.Angles(z))
		residuals := make([]float64, len(f))
		for j := range residuals {
			residuals[j] = phase[j] - model.PhaseCentered(f[j], p.Fr, p.Ql, p.Theta, corr)
		}
		_, variance := stat.PopMeanVariance(residuals, nil)
		noise = math.Sqrt(variance)
		step := types.DelayStep{Delay: out.Delay, Correction: corr, Residual: noise, Outcome: p.Outcome}
		out.Steps = append(out.Steps, step)

		if !p.Outcome.OK() {
			failed = &step
			break
		}
		if 2*math.Pi*span*math.Abs(corr) <= noise {
			out.Converged = true
			break
		}
		next := nextDelay(out.Delay, corr)
		if i > 0 {
			if gain := secantGain(out.Steps[i-1], step); gain > 0 && !math.IsInf(gain, 0) {
				next = out.Delay + corr/gain
			}
		}
		out.Delay = next
	}
	switch {
	case failed != nil:
		rep.Error(errors.Wrapf(types.ErrDelayNotConverged,
			"phase fit at delay %.3g s: %v", failed.Delay, failed.Outcome))
	case !out.Converged:
		rep.Error(errors.Wrapf(types.ErrDelayNotConverged,
			"correction %.3g s above noise %.3g rad after %d iterations", corr, noise, maxIterations))
	}
	return out, nil
}

// initialDelay 由首尾相位斜率估计延迟, 再以圆度残差精修.
// 精修失败时退回相位拟合延迟乘阻尼系数.
func initialDelay(tr *types.Trace, rep types.Reporter) (float64, error) {
	f, n := tr.F, tr.Len()
	phase := maths.Unwrap(maths.Angles(tr.Z))
	df := make([]float64, n)
	for i, v := range f {
		df[i] = v - f[0]
	}
	k := min(max(int(types.DelayEdgeFraction*float64(n)), types.EdgeSamples), n)
	_, head := stat.LinearRegression(df[:k], phase[:k], nil, false)
	_, tail := stat.LinearRegression(df[n-k:], phase[n-k:], nil, false)
	guess := -0.5 * (head + tail) / (2 * math.Pi)

	s := maths.DefaultLeastSqSettings()
	s.Scale = []float64{1 / (2 * math.Pi * tr.Span())}
	res := maths.LeastSq(func(dst, x []float64) {
		circleResiduals(dst, tr, x[0])
	}, n, []float64{guess}, s)
	if res.Outcome.Status != types.Failed && !math.IsNaN(res.X[0]) && !math.IsInf(res.X[0], 0) {
		return res.X[0], nil
	}

	c, err := Circle(tr.Z, rep)
	if err != nil {
		return 0, err
	}
	p := Phase(f, translate(tr.Z, c.Center), nil, rep)
	// 相位拟合的首次估计只取一小部分, 避免过冲
	return p.Delay * types.DelayDamping, nil
}

// circleResiduals 去除延迟后各点到拟合圆的距离偏差
func circleResiduals(dst []float64, tr *types.Trace, delay float64) {
	z := applyDelay(tr.Z, tr.F, delay)
	c, err := Circle(z, quiet{})
	if err != nil || c.Degenerate {
		for i := range dst {
			dst[i] = math.NaN()
		}
		return
	}
	for i, v := range z {
		dst[i] = cmplx.Abs(v-c.Center) - c.Radius
	}
}

// secantGain 两次迭代间修正量对延迟的斜率, 修正量在真实延迟处过零
func secantGain(prev, cur types.DelayStep) float64 {
	if cur.Delay == prev.Delay {
		return 0
	}
	return (prev.Correction - cur.Correction) / (cur.Delay - prev.Delay)
}

// nextDelay 非对称步长更新, 防止在正负延迟之间振荡
func nextDelay(delay, corr float64) float64 {
	if corr*delay < 0 {
		if math.Abs(corr) > math.Abs(delay) {
			return delay * 0.5
		}
		return delay + types.DelayNudgeFactor*math.Copysign(types.DelayNudge, corr)
	}
	switch {
	case math.Abs(corr) >= types.DelayCoarse:
		return delay + math.Min(corr, delay)
	case math.Abs(corr) >= types.DelayFine:
		return delay * types.DelayScaleUp
	}
	return delay + corr
}

// quiet 丢弃告警, 用于试探性的内部拟合
type quiet struct{}

func (quiet) Error(error) {}
