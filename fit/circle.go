// Package fit 谐振器圆拟合引擎: 几何圆拟合, 相位拟合, 延迟估计,
// 校准归一化, 品质因数提取与 Fano 系统误差范围.
package fit

import (
	"math"
	"math/cmplx"

	"circuit/maths"
	"circuit/types"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Circle 代数圆拟合 (Chernov-Lesort), 最小化代数距离.
//
// 点数不足返回错误; 点共线时返回 Degenerate 圆并通过 rep 告警.
func Circle(z []complex128, rep types.Reporter) (types.Circle, error) {
	n := len(z)
	if n < types.MinCirclePoints {
		return types.Circle{}, errors.Wrapf(types.ErrTooShort, "circle fit needs %d points, got %d", types.MinCirclePoints, n)
	}
	x := make([]float64, n)
	y := make([]float64, n)
	for i, v := range z {
		x[i], y[i] = real(v), imag(v)
	}
	// 归一化到包围盒中心与单位半径, 避免病态
	xNorm := 0.5 * (floats.Max(x) + floats.Min(x))
	yNorm := 0.5 * (floats.Max(y) + floats.Min(y))
	floats.AddConst(-xNorm, x)
	floats.AddConst(-yNorm, y)
	var ampNorm float64
	for i := range x {
		ampNorm = math.Max(ampNorm, math.Hypot(x[i], y[i]))
	}
	degenerate := func(reason string) (types.Circle, error) {
		rep.Error(errors.Wrap(types.ErrDegenerateCircle, reason))
		return types.Circle{
			Center:     complex(floats.Sum(x)/float64(n)*ampNorm+xNorm, floats.Sum(y)/float64(n)*ampNorm+yNorm),
			Radius:     math.Inf(1),
			Degenerate: true,
		}, nil
	}
	if ampNorm == 0 || math.IsNaN(ampNorm) || math.IsInf(ampNorm, 0) {
		ampNorm = 1
		return degenerate("all points coincide")
	}
	floats.Scale(1/ampNorm, x)
	floats.Scale(1/ampNorm, y)
	if collinear(x, y) {
		return degenerate("points are collinear")
	}

	m := moments(x, y)
	c := charPolynomial(&m)
	eta, err := maths.Newton(
		func(v float64) float64 { return maths.Polynomial(c[:], v) },
		func(v float64) float64 { return maths.PolynomialDerivative(c[:], v) },
		0,
	)
	if err != nil {
		rep.Error(errors.Wrap(err, "circle fit characteristic root"))
	}
	m[3][0] += 2 * eta
	m[0][3] += 2 * eta
	m[1][1] -= eta
	m[2][2] -= eta

	flat := make([]float64, 0, 16)
	for i := range m {
		flat = append(flat, m[i][:]...)
	}
	var svd mat.SVD
	if ok := svd.Factorize(mat.NewDense(4, 4, flat), mat.SVDFull); !ok {
		return degenerate("svd of moment matrix failed")
	}
	values := svd.Values(nil)
	var v mat.Dense
	svd.VTo(&v)
	k := floats.MinIdx(values)
	a := [4]float64{v.At(0, k), v.At(1, k), v.At(2, k), v.At(3, k)}
	if math.Abs(a[0]) < types.CircleConditionLimit {
		return degenerate("quadratic coefficient vanishes")
	}

	xc := -a[1] / (2 * a[0])
	yc := -a[2] / (2 * a[0])
	// 根号项修正数值误差造成的约束偏离
	r0 := math.Sqrt(a[1]*a[1]+a[2]*a[2]-4*a[0]*a[3]) / (2 * math.Abs(a[0]))
	return types.Circle{
		Center: complex(xc*ampNorm+xNorm, yc*ampNorm+yNorm),
		Radius: r0 * ampNorm,
	}, nil
}

// collinear 散布矩阵最小/最大特征值比判断共线
func collinear(x, y []float64) bool {
	n := float64(len(x))
	mx, my := floats.Sum(x)/n, floats.Sum(y)/n
	var sxx, syy, sxy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxx += dx * dx
		syy += dy * dy
		sxy += dx * dy
	}
	var es mat.EigenSym
	if ok := es.Factorize(mat.NewSymDense(2, []float64{sxx, sxy, sxy, syy}), false); !ok {
		return true
	}
	ev := es.Values(nil)
	return ev[1] <= 0 || ev[0]/ev[1] < types.CircleConditionLimit
}

// moments (z, x, y, 1) 的矩矩阵, z = x²+y²
func moments(x, y []float64) [4][4]float64 {
	var zz, xz, yz, z, xx, xy, sx, yy, sy float64
	for i := range x {
		zi := x[i]*x[i] + y[i]*y[i]
		zz += zi * zi
		xz += x[i] * zi
		yz += y[i] * zi
		z += zi
		xx += x[i] * x[i]
		xy += x[i] * y[i]
		sx += x[i]
		yy += y[i] * y[i]
		sy += y[i]
	}
	n := float64(len(x))
	return [4][4]float64{
		{zz, xz, yz, z},
		{xz, xx, xy, sx},
		{yz, xy, yy, sy},
		{z, sx, sy, n},
	}
}

// charPolynomial 约束特征多项式 det(M - ηB) 的系数, c[i] 为 η^i 系数
func charPolynomial(mp *[4][4]float64) [5]float64 {
	m := *mp
	a0 := ((m[2][0]*m[3][2]-m[2][2]*m[3][0])*m[1][1]-m[1][2]*m[2][0]*m[3][1]-m[1][0]*m[2][1]*m[3][2]+m[1][0]*m[2][2]*m[3][1]+m[1][2]*m[2][1]*m[3][0])*m[0][3] +
		(m[0][2]*m[2][3]*m[3][0]-m[0][2]*m[2][0]*m[3][3]+m[0][0]*m[2][2]*m[3][3]-m[0][0]*m[2][3]*m[3][2])*m[1][1] +
		(m[0][1]*m[1][3]*m[3][0]-m[0][1]*m[1][0]*m[3][3]-m[0][0]*m[1][3]*m[3][1])*m[2][2] +
		(-m[0][1]*m[1][2]*m[2][3]-m[0][2]*m[1][3]*m[2][1])*m[3][0] +
		((m[2][3]*m[3][1]-m[2][1]*m[3][3])*m[1][2]+m[2][1]*m[3][2]*m[1][3])*m[0][0] +
		(m[1][0]*m[2][3]*m[3][2]+m[2][0]*(m[1][2]*m[3][3]-m[1][3]*m[3][2]))*m[0][1] +
		((m[2][1]*m[3][3]-m[2][3]*m[3][1])*m[1][0]+m[1][3]*m[2][0]*m[3][1])*m[0][2]
	a1 := ((m[3][0]-2*m[2][2])*m[1][1]-m[1][0]*m[3][1]+m[2][2]*m[3][0]+2*m[1][2]*m[2][1]-m[2][0]*m[3][2])*m[0][3] +
		(2*m[2][0]*m[3][2]-m[0][0]*m[3][3]-2*m[2][2]*m[3][0]+2*m[0][2]*m[2][3])*m[1][1] +
		(-m[0][0]*m[3][3]+2*m[0][1]*m[1][3]+2*m[1][0]*m[3][1])*m[2][2] +
		(-m[0][1]*m[1][3]+2*m[1][2]*m[2][1]-m[0][2]*m[2][3])*m[3][0] +
		(m[1][3]*m[3][1]+m[2][3]*m[3][2])*m[0][0] +
		(m[1][0]*m[3][3]-2*m[1][2]*m[2][3])*m[0][1] +
		(m[2][0]*m[3][3]-2*m[1][3]*m[2][1])*m[0][2] -
		2*m[1][2]*m[2][0]*m[3][1] - 2*m[1][0]*m[2][1]*m[3][2]
	a2 := (2*m[1][1]-m[3][0]+2*m[2][2])*m[0][3] + (2*m[3][0]-4*m[2][2])*m[1][1] -
		2*m[2][0]*m[3][2] + 2*m[2][2]*m[3][0] + m[0][0]*m[3][3] + 4*m[1][2]*m[2][1] -
		2*m[0][1]*m[1][3] - 2*m[1][0]*m[3][1] - 2*m[0][2]*m[2][3]
	a3 := -2*m[3][0] + 4*m[1][1] + 4*m[2][2] - 2*m[0][3]
	a4 := -4.0
	return [5]float64{a0, a1, a2, a3, a4}
}

// translate 平移数据
func translate(z []complex128, c complex128) []complex128 {
	out := make([]complex128, len(z))
	for i, v := range z {
		out[i] = v - c
	}
	return out
}

// applyDelay 去除线缆延迟 z·exp(2πi·τ·f)
func applyDelay(z []complex128, f []float64, delay float64) []complex128 {
	out := make([]complex128, len(z))
	for i, v := range z {
		out[i] = v * cmplx.Exp(complex(0, 2*math.Pi*delay*f[i]))
	}
	return out
}
