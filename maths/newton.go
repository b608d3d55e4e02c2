package maths

import (
	"math"

	"github.com/pkg/errors"
)

// 牛顿迭代默认参数
var (
	NewtonTolerance     = 1.48e-8
	NewtonMaxIterations = 50
)

// ErrNewton 牛顿迭代失败
var ErrNewton = errors.New("newton iteration failed")

// Newton 牛顿法求根, 返回最后一次迭代值
func Newton(f, df func(float64) float64, x0 float64) (float64, error) {
	x := x0
	for i := 0; i < NewtonMaxIterations; i++ {
		d := df(x)
		if d == 0 {
			return x, errors.Wrapf(ErrNewton, "zero derivative at %g", x)
		}
		x1 := x - f(x)/d
		if math.IsNaN(x1) || math.IsInf(x1, 0) {
			return x, errors.Wrapf(ErrNewton, "diverged at %g", x)
		}
		if math.Abs(x1-x) <= NewtonTolerance {
			return x1, nil
		}
		x = x1
	}
	return x, errors.Wrapf(ErrNewton, "no convergence after %d iterations", NewtonMaxIterations)
}

// Polynomial 多项式求值, c[i] 为 x^i 系数
func Polynomial(c []float64, x float64) float64 {
	var v float64
	for i := len(c) - 1; i >= 0; i-- {
		v = v*x + c[i]
	}
	return v
}

// PolynomialDerivative 多项式导数求值
func PolynomialDerivative(c []float64, x float64) float64 {
	var v float64
	for i := len(c) - 1; i >= 1; i-- {
		v = v*x + float64(i)*c[i]
	}
	return v
}
