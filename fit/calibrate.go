package fit

import (
	"math"
	"math/cmplx"

	"circuit/maths"
	"circuit/types"

	"github.com/pkg/errors"
)

// Calibrate 在已知延迟下求归一化参数 (a, alpha, phi) 以及 fr, Ql
func Calibrate(tr *types.Trace, delay float64, guess *types.PhaseGuess, rep types.Reporter) (types.Calibration, error) {
	z := applyDelay(tr.Z, tr.F, delay)
	c, err := Circle(z, rep)
	if err != nil {
		return types.Calibration{}, errors.Wrap(err, "calibrate")
	}
	// 圆心平移到原点后相当于无损反射谐振器, 由偏移相位找离谐点
	p := Phase(tr.F, translate(z, c.Center), guess, rep)
	theta := maths.PeriodicBoundary(p.Theta)
	beta := maths.PeriodicBoundary(theta - math.Pi)
	off := c.Center + cmplx.Rect(c.Radius, beta)
	a := cmplx.Abs(off)
	alpha := cmplx.Phase(off)
	return types.Calibration{
		Delay:          delay,
		DelayRemaining: p.Delay,
		A:              a,
		Alpha:          alpha,
		Theta:          theta,
		Phi:            maths.PeriodicBoundary(beta - alpha),
		Fr:             p.Fr,
		Ql:             p.Ql,
		Radius:         c.Radius / a,
		OffResPoint:    off,
		Circle:         c,
		Phase:          p,
	}, nil
}

// Normalize 将原始数据变换到离谐点在 (1, 0) 的标准位置 (不修正 phi)
func Normalize(tr *types.Trace, cal types.Calibration) []complex128 {
	out := make([]complex128, tr.Len())
	for i, v := range tr.Z {
		out[i] = v / complex(cal.A, 0) * cmplx.Exp(complex(0, -cal.Alpha+2*math.Pi*cal.Delay*tr.F[i]))
	}
	return out
}
