package maths

import (
	"math"
	"math/cmplx"
)

// floorMod 取模, 结果与除数同号
func floorMod(x, y float64) float64 {
	m := math.Mod(x, y)
	if m != 0 && (m < 0) != (y < 0) {
		m += y
	}
	return m
}

// PeriodicBoundary 将任意角度映射到 [-π, π)
func PeriodicBoundary(angle float64) float64 {
	return floorMod(angle+math.Pi, 2*math.Pi) - math.Pi
}

// PhaseDist 将 [-2π, 2π] 的角度差映射为圆周距离 [0, π]
func PhaseDist(angle float64) float64 {
	return math.Pi - math.Abs(math.Pi-math.Abs(angle))
}

// WrapPhase 带符号的圆周距离, 在 [-2π, 2π] 上 |WrapPhase(a)| == PhaseDist(a),
// 在零点处可导.
func WrapPhase(angle float64) float64 {
	return PeriodicBoundary(angle)
}

// Angles 逐点求复数辐角
func Angles(z []complex128) []float64 {
	out := make([]float64, len(z))
	for i, v := range z {
		out[i] = cmplx.Phase(v)
	}
	return out
}

// Unwrap 相位解卷绕, 相邻差值超过 π 时补偿 2π 的整数倍
func Unwrap(p []float64) []float64 {
	out := make([]float64, len(p))
	if len(p) == 0 {
		return out
	}
	out[0] = p[0]
	var correct float64
	for i := 1; i < len(p); i++ {
		d := p[i] - p[i-1]
		dd := floorMod(d+math.Pi, 2*math.Pi) - math.Pi
		if dd == -math.Pi && d > 0 {
			dd = math.Pi
		}
		if math.Abs(d) >= math.Pi {
			correct += dd - d
		}
		out[i] = p[i] + correct
	}
	return out
}
