package fit

import (
	"fmt"
	"math"

	"circuit/maths"
	"circuit/model"
	"circuit/types"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Phase 拟合圆心在原点的数据相位 (fr, Ql, theta, delay).
//
// 为了稳定收敛先分步拟合部分参数: Ql; fr 与 theta; delay; fr 与 Ql; 最后全部参数.
// guess 为空时由数据估计初值.
func Phase(f []float64, z []complex128, guess *types.PhaseGuess, rep types.Reporter) types.PhaseFit {
	n := len(f)
	phase := maths.Unwrap(maths.Angles(z))
	span := f[n-1] - f[0]

	// 圆心在原点时相位滚降应接近 2π
	rollOff := 2 * math.Pi
	if pspan := floats.Max(phase) - floats.Min(phase); pspan <= types.PhaseSpanFraction*2*math.Pi {
		rep.Error(errors.Wrapf(types.ErrPhaseSpan,
			"only %.1f rad, increase the frequency span around the resonance", pspan))
		rollOff = pspan
	}

	var frG, qlG, delayG float64
	if guess == nil {
		// 平滑相位导数最大处作为 fr 初值
		deriv := maths.Gradient(maths.GaussianFilter1D(phase, types.PhaseSmoothSigma))
		for i := range deriv {
			deriv[i] = math.Abs(deriv[i])
		}
		frG = f[floats.MaxIdx(deriv)]
		qlG = 2 * frG / span
		// 扣除滚降后的背景斜率估计延迟
		delayG = -(phase[n-1] - phase[0] + rollOff) / (2 * math.Pi * span)
	} else {
		frG, qlG, delayG = guess.Fr, guess.Ql, guess.Delay
	}
	k := min(types.EdgeSamples, n)
	thetaG := 0.5 * (stat.Mean(phase[:k], nil) + stat.Mean(phase[n-k:], nil))

	full := func(dst []float64, fr, ql, theta, delay float64) {
		for i := range dst {
			dst[i] = maths.WrapPhase(phase[i] - model.PhaseCentered(f[i], fr, ql, theta, delay))
		}
	}
	delayScale := 1 / (2 * math.Pi * span)
	settings := func(scale ...float64) *maths.LeastSqSettings {
		s := maths.DefaultLeastSqSettings()
		s.Scale = scale
		return s
	}
	frScale := func() float64 { return math.Max(math.Abs(frG), 1) }
	qlScale := func() float64 { return math.Max(math.Abs(qlG), 1) }

	res := maths.LeastSq(func(dst, p []float64) {
		full(dst, frG, p[0], thetaG, delayG)
	}, n, []float64{qlG}, settings(qlScale()))
	qlG = res.X[0]

	res = maths.LeastSq(func(dst, p []float64) {
		full(dst, p[0], qlG, p[1], delayG)
	}, n, []float64{frG, thetaG}, settings(frScale(), 1))
	frG, thetaG = res.X[0], res.X[1]

	res = maths.LeastSq(func(dst, p []float64) {
		full(dst, frG, qlG, thetaG, p[0])
	}, n, []float64{delayG}, settings(delayScale))
	delayG = res.X[0]

	res = maths.LeastSq(func(dst, p []float64) {
		full(dst, p[0], p[1], thetaG, delayG)
	}, n, []float64{frG, qlG}, settings(frScale(), qlScale()))
	frG, qlG = res.X[0], res.X[1]

	res = maths.LeastSq(func(dst, p []float64) {
		full(dst, p[0], p[1], p[2], p[3])
	}, n, []float64{frG, qlG, thetaG, delayG}, settings(frScale(), qlScale(), 1, delayScale))

	outcome := res.Outcome
	if outcome.OK() && !(res.X[1] > 0) {
		outcome.Status = types.PoorFit
		outcome.Reason = fmt.Sprintf("non-positive Ql %.3g", res.X[1])
	}
	if rms := outcome.ResidualNorm / math.Sqrt(float64(n)); outcome.OK() && rms > types.PoorFitPhaseRMS {
		outcome.Status = types.PoorFit
		outcome.Reason = fmt.Sprintf("phase residual rms %.3g rad", rms)
	}
	return types.PhaseFit{
		Fr:      res.X[0],
		Ql:      res.X[1],
		Theta:   res.X[2],
		Delay:   res.X[3],
		Outcome: outcome,
	}
}
