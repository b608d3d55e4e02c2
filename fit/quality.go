package fit

import (
	"math"
	"math/cmplx"

	"circuit/model"
	"circuit/types"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Qualities 由归一化圆半径与旋转角计算 Qc (直径修正) 与 Qi
func Qualities(cal types.Calibration, port types.Port) types.Quality {
	absQc := cal.Ql / (port.N() * cal.Radius)
	// 取复数 1/Qc 的实部
	qc := absQc / math.Cos(cal.Phi)
	return types.Quality{
		Fr:          cal.Fr,
		Ql:          cal.Ql,
		Qc:          qc,
		AbsQc:       absQc,
		Qi:          1 / (1/cal.Ql - 1/qc),
		QiNoDiaCorr: 1 / (1/cal.Ql - 1/absQc),
		Phi:         cal.Phi,
		Radius:      cal.Radius,
		Port:        port,
	}
}

// Params 归一化模型参数
func Params(q types.Quality) model.Params {
	return model.Normalized(q.Fr, q.Ql, q.Qc, q.Phi)
}

// Residuals 归一化数据与模型之差
func Residuals(f []float64, zNorm []complex128, q types.Quality) []complex128 {
	p := Params(q)
	out := make([]complex128, len(f))
	for i, v := range f {
		out[i] = zNorm[i] - model.Sij(v, p, q.Port)
	}
	return out
}

// ChiSquare 约化卡方, 4 个拟合参数减少自由度
func ChiSquare(residuals []complex128) float64 {
	var sum float64
	for _, r := range residuals {
		a := cmplx.Abs(r)
		sum += a * a
	}
	return sum / float64(len(residuals)-types.FitParams)
}

// Covariance 由解析雅可比矩阵求 (fr, Ql, |Qc|, φ) 的协方差
func Covariance(f []float64, zNorm []complex128, q types.Quality) (chiSquare float64, cov *mat.SymDense, err error) {
	residuals := Residuals(f, zNorm, q)
	chiSquare = ChiSquare(residuals)
	d := model.Derivatives{Fr: q.Fr, Ql: q.Ql, AbsQc: q.AbsQc, Phi: q.Phi, N: q.Port.N()}

	// 雅可比矩阵转置, 每个频率点投影到残差单位方向
	jt := mat.NewDense(types.FitParams, len(f), nil)
	for i, v := range f {
		chi := cmplx.Abs(residuals[i])
		if chi == 0 {
			continue
		}
		dir := cmplx.Conj(residuals[i] / complex(chi, 0))
		ds := d.At(v)
		for k := range ds {
			jt.Set(k, i, real(ds[k]*dir))
		}
	}
	var a mat.SymDense
	a.SymOuterK(1, jt)

	// 对角均衡后求逆, 参数量级相差很大
	var scale [types.FitParams]float64
	for i := range scale {
		if a.At(i, i) <= 0 || math.IsNaN(a.At(i, i)) {
			return chiSquare, nil, errors.Wrapf(types.ErrCovariance, "parameter %d not constrained", i)
		}
		scale[i] = 1 / math.Sqrt(a.At(i, i))
	}
	as := mat.NewDense(types.FitParams, types.FitParams, nil)
	for i := 0; i < types.FitParams; i++ {
		for j := 0; j < types.FitParams; j++ {
			as.Set(i, j, a.At(i, j)*scale[i]*scale[j])
		}
	}
	var inv mat.Dense
	if err := inv.Inverse(as); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || math.IsInf(float64(cond), 1) {
			return chiSquare, nil, errors.Wrap(types.ErrCovariance, err.Error())
		}
	}
	cov = mat.NewSymDense(types.FitParams, nil)
	for i := 0; i < types.FitParams; i++ {
		for j := i; j < types.FitParams; j++ {
			v := 0.5 * (inv.At(i, j) + inv.At(j, i)) * scale[i] * scale[j] * chiSquare
			cov.SetSym(i, j, v)
		}
		if v := cov.At(i, i); !(v >= 0) || math.IsInf(v, 0) {
			return chiSquare, nil, errors.Wrapf(types.ErrCovariance, "variance of parameter %d is %g", i, v)
		}
	}
	return chiSquare, cov, nil
}

// Errors 一阶误差传递得到 Qi 与未修正 Qi 的标准误差
func Errors(q types.Quality, cov mat.Symmetric) types.QualityErrors {
	var out types.QualityErrors
	for i := 0; i < types.FitParams; i++ {
		for j := 0; j < types.FitParams; j++ {
			out.Covariance[i][j] = cov.At(i, j)
		}
	}
	c := out.Covariance
	out.Fr = math.Sqrt(c[0][0])
	out.Ql = math.Sqrt(c[1][1])
	out.AbsQc = math.Sqrt(c[2][2])
	out.Phi = math.Sqrt(c[3][3])

	// 未做直径修正
	inv := 1/q.Ql - 1/q.AbsQc
	dQl := 1 / math.Pow(inv*q.Ql, 2)
	dAbsQc := -1 / math.Pow(inv*q.AbsQc, 2)
	out.QiNoDiaCorr = math.Sqrt(math.Max(0, dQl*dQl*c[1][1]+dAbsQc*dAbsQc*c[2][2]+2*dQl*dAbsQc*c[1][2]))

	// 直径修正
	inv = 1/q.Ql - 1/q.Qc
	dQl = 1 / math.Pow(inv*q.Ql, 2)
	dAbsQc = -math.Cos(q.Phi) / math.Pow(inv*q.AbsQc, 2)
	dPhi := -math.Sin(q.Phi) / (inv * inv * q.AbsQc)
	out.Qi = math.Sqrt(math.Max(0, dQl*dQl*c[1][1]+dAbsQc*dAbsQc*c[2][2]+dPhi*dPhi*c[3][3]+
		2*(dQl*dAbsQc*c[1][2]+dQl*dPhi*c[1][3]+dAbsQc*dPhi*c[2][3])))
	return out
}
