package maths

import (
	"math"
	"testing"

	"circuit/types"
)

// TestLeastSqExponential 精确数据恢复指数衰减参数
func TestLeastSqExponential(t *testing.T) {
	n := 50
	x := make([]float64, n)
	y := make([]float64, n)
	for i := range x {
		x[i] = float64(i) * 0.1
		y[i] = 3.2*math.Exp(-1.7*x[i]) + 0.4
	}
	res := LeastSq(func(dst, p []float64) {
		for i := range dst {
			dst[i] = p[0]*math.Exp(-p[1]*x[i]) + p[2] - y[i]
		}
	}, n, []float64{1, 1, 0}, nil)
	if res.Outcome.Status != types.Converged {
		t.Fatalf("期望收敛, 实际 %s", res.Outcome)
	}
	want := []float64{3.2, 1.7, 0.4}
	for i := range want {
		if math.Abs(res.X[i]-want[i]) > 1e-7 {
			t.Errorf("参数 %d 期望 %v, 实际 %v", i, want[i], res.X[i])
		}
	}
}

// TestLeastSqScaled 量级悬殊的参数通过缩放拟合
func TestLeastSqScaled(t *testing.T) {
	n := 40
	f := make([]float64, n)
	y := make([]float64, n)
	for i := range f {
		f[i] = 4.9e9 + float64(i)*5e6
		y[i] = math.Atan(2e-8 * (f[i] - 5e9))
	}
	settings := DefaultLeastSqSettings()
	settings.Scale = []float64{5e9, 1e-8}
	res := LeastSq(func(dst, p []float64) {
		for i := range dst {
			dst[i] = math.Atan(p[1]*(f[i]-p[0])) - y[i]
		}
	}, n, []float64{5.01e9, 1e-8}, settings)
	if !res.Outcome.OK() {
		t.Fatalf("期望收敛, 实际 %s", res.Outcome)
	}
	if math.Abs(res.X[0]/5e9-1) > 1e-9 || math.Abs(res.X[1]/2e-8-1) > 1e-6 {
		t.Errorf("拟合结果 %v", res.X)
	}
}

// TestLeastSqNonFinite 初值残差非有限时失败
func TestLeastSqNonFinite(t *testing.T) {
	res := LeastSq(func(dst, p []float64) {
		dst[0] = math.NaN()
	}, 1, []float64{1}, nil)
	if res.Outcome.Status != types.Failed {
		t.Errorf("期望失败, 实际 %s", res.Outcome)
	}
}
