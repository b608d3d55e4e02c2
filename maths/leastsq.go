package maths

import (
	"fmt"
	"math"

	"circuit/types"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ResidualFunc 残差函数, 将参数 x 对应的残差写入 dst
type ResidualFunc func(dst, x []float64)

// LeastSqSettings Levenberg-Marquardt 参数
type LeastSqSettings struct {
	MaxIterations int
	FTol          float64   // 代价相对下降下限
	XTol          float64   // 步长相对下限(缩放后)
	GTol          float64   // 梯度无穷范数下限
	Step          float64   // 差分步长(缩放后)
	Damping       float64   // 初始阻尼, 相对 JᵀJ 对角元
	Scale         []float64 // 参数典型量级, 为空时取 max(|x0|, 1)
}

// DefaultLeastSqSettings 默认参数
func DefaultLeastSqSettings() *LeastSqSettings {
	return &LeastSqSettings{
		MaxIterations: 200,
		FTol:          1e-14,
		XTol:          1e-11,
		GTol:          1e-30,
		Step:          1e-7,
		Damping:       1e-3,
	}
}

// LeastSqResult 拟合结果
type LeastSqResult struct {
	X       []float64
	Cost    float64 // 0.5·|r|²
	Outcome types.Outcome
}

// LeastSq 非线性最小二乘, 在 x/scale 坐标下做带 Marquardt 对角缩放的
// Levenberg-Marquardt 迭代, 雅可比矩阵由中心差分得到.
func LeastSq(f ResidualFunc, m int, x0 []float64, settings *LeastSqSettings) LeastSqResult {
	if settings == nil {
		settings = DefaultLeastSqSettings()
	}
	n := len(x0)
	scale := make([]float64, n)
	for i := range scale {
		if settings.Scale != nil && settings.Scale[i] != 0 {
			scale[i] = math.Abs(settings.Scale[i])
		} else {
			scale[i] = math.Max(math.Abs(x0[i]), 1)
		}
	}
	x := make([]float64, n)
	g := func(y, u []float64) {
		floats.MulTo(x, u, scale)
		f(y, x)
	}
	u := make([]float64, n)
	floats.DivTo(u, x0, scale)

	result := func(u []float64, r []float64, status types.OutcomeStatus, iter int, reason string) LeastSqResult {
		out := make([]float64, n)
		floats.MulTo(out, u, scale)
		norm := floats.Norm(r, 2)
		return LeastSqResult{
			X:    out,
			Cost: 0.5 * norm * norm,
			Outcome: types.Outcome{
				Status:       status,
				ResidualNorm: norm,
				Iterations:   iter,
				Reason:       reason,
			},
		}
	}

	mu := settings.Damping
	if mu <= 0 {
		mu = 1e-3
	}
	r := make([]float64, m)
	g(r, u)
	if !finite(r) {
		return result(u, r, types.Failed, 0, "non-finite residual at initial guess")
	}
	cost := 0.5 * floats.Dot(r, r)

	jac := mat.NewDense(m, n, nil)
	jacobian := func() {
		fd.Jacobian(jac, g, u, &fd.JacobianSettings{
			Formula: fd.Central,
			Step:    settings.Step,
		})
	}
	jacobian()

	var (
		a     mat.SymDense
		grad  = mat.NewVecDense(n, nil)
		rv    = mat.NewVecDense(m, r)
		h     = mat.NewVecDense(n, nil)
		damp  = mat.NewSymDense(n, nil)
		chol  mat.Cholesky
		rNew  = make([]float64, m)
		uNew  = make([]float64, n)
		diag  = make([]float64, n)
		nu    = 2.0
		xtolU = settings.XTol
	)
	for iter := 1; iter <= settings.MaxIterations; iter++ {
		if cost == 0 {
			return result(u, r, types.Converged, iter-1, "")
		}
		a.SymOuterK(1, jac.T())
		grad.MulVec(jac.T(), rv)
		if mat.Norm(grad, math.Inf(1)) <= settings.GTol {
			return result(u, r, types.Converged, iter-1, "")
		}
		for i := 0; i < n; i++ {
			diag[i] = math.Max(a.At(i, i), 1e-300)
		}
		damp.CopySym(&a)
		for i := 0; i < n; i++ {
			damp.SetSym(i, i, a.At(i, i)+mu*diag[i])
		}
		if ok := chol.Factorize(damp); !ok {
			mu *= nu
			nu *= 2
			continue
		}
		if err := chol.SolveVecTo(h, grad); err != nil {
			mu *= nu
			nu *= 2
			continue
		}
		h.ScaleVec(-1, h)
		if mat.Norm(h, 2) <= xtolU*(floats.Norm(u, 2)+xtolU) {
			return result(u, r, types.Converged, iter-1, "")
		}
		floats.AddTo(uNew, u, h.RawVector().Data)
		g(rNew, uNew)
		costNew := 0.5 * floats.Dot(rNew, rNew)
		// 预测下降 0.5·hᵀ(μDh - g)
		var pred float64
		for i := 0; i < n; i++ {
			pred += h.AtVec(i) * (mu*diag[i]*h.AtVec(i) - grad.AtVec(i))
		}
		pred *= 0.5
		rho := -1.0
		if finite(rNew) && pred > 0 {
			rho = (cost - costNew) / pred
		}
		if rho > 0 {
			small := cost-costNew <= settings.FTol*cost
			copy(u, uNew)
			copy(r, rNew)
			cost = costNew
			if small {
				return result(u, r, types.Converged, iter, "")
			}
			jacobian()
			mu *= math.Max(1.0/3, 1-math.Pow(2*rho-1, 3))
			nu = 2
		} else {
			mu *= nu
			nu *= 2
			if math.IsInf(mu, 1) {
				return result(u, r, types.PoorFit, iter, "damping overflow")
			}
		}
	}
	return result(u, r, types.PoorFit, settings.MaxIterations,
		fmt.Sprintf("no convergence after %d iterations", settings.MaxIterations))
}

func finite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
