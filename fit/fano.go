package fit

import (
	"math"

	"circuit/types"

	"github.com/pkg/errors"
)

// Fano 给定背景泄漏幅度 b 时 Qi, Qc 的系统误差范围
// (Rieger & Guenzler et al., arXiv:2209.03036).
//
// 泄漏不足以解释圆的旋转时告警并返回 NaN; Qi 上限超出拓扑允许时为 +Inf.
func Fano(q types.Quality, b float64, rep types.Reporter) types.FanoRange {
	b = b / (1 - b)
	out := types.FanoRange{B: b}
	sin := math.Sin(q.Phi)
	if math.Abs(sin) > b+types.FanoTolerance {
		rep.Error(errors.Wrapf(types.ErrFanoLeakage, "|sin(phi)|=%.3g > b=%.3g", math.Abs(sin), b))
		nan := math.NaN()
		out.QiMin, out.QiMax, out.QcMin, out.QcMax = nan, nan, nan, nan
		return out
	}
	n := q.Port.N()
	// 圆半径的范围
	mid := q.Radius * math.Cos(q.Phi)
	dev := q.Radius * math.Sqrt(math.Max(0, b*b-sin*sin))
	rMin, rMax := mid-dev, mid+dev

	out.QcMin = q.Ql / (n * rMax)
	out.QcMax = q.Ql / (n * rMin)
	out.QiMin = q.Ql / (1 - n*rMin)
	out.QiMax = q.Ql / (1 - n*rMax)
	if rMax >= 1/n {
		out.QiMax = math.Inf(1)
	}
	return out
}
