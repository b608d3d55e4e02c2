package maths

import (
	"math"
	"testing"
)

// TestGradient 线性数据的导数为常数
func TestGradient(t *testing.T) {
	y := []float64{1, 3, 5, 7, 9}
	for i, v := range Gradient(y) {
		if v != 2 {
			t.Errorf("索引 %d 期望 2, 实际 %v", i, v)
		}
	}
	q := []float64{0, 1, 4, 9}
	got := Gradient(q)
	want := []float64{1, 2, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("索引 %d 期望 %v, 实际 %v", i, want[i], got[i])
		}
	}
}

// TestGaussianKernelNormalized 核权重和为 1 且对称
func TestGaussianKernelNormalized(t *testing.T) {
	k := GaussianKernel(30)
	if len(k) != 241 {
		t.Fatalf("核长度期望 241, 实际 %d", len(k))
	}
	var sum float64
	for i, v := range k {
		sum += v
		if math.Abs(v-k[len(k)-1-i]) > 1e-15 {
			t.Fatalf("核不对称: %d", i)
		}
	}
	if math.Abs(sum-1) > 1e-12 {
		t.Errorf("核权重和 %v", sum)
	}
}

// TestGaussianFilterPreservesRamp 内部线性数据与常数不变
func TestGaussianFilterPreservesRamp(t *testing.T) {
	n := 400
	y := make([]float64, n)
	c := make([]float64, n)
	for i := range y {
		y[i] = 0.5*float64(i) - 3
		c[i] = 2.5
	}
	sy := GaussianFilter1D(y, 10)
	sc := GaussianFilter1D(c, 10)
	for i := 50; i < n-50; i++ {
		if math.Abs(sy[i]-y[i]) > 1e-9 {
			t.Fatalf("索引 %d 期望 %v, 实际 %v", i, y[i], sy[i])
		}
	}
	for i := range sc {
		if math.Abs(sc[i]-2.5) > 1e-12 {
			t.Fatalf("常数平滑后改变: 索引 %d 实际 %v", i, sc[i])
		}
	}
}

// TestGaussianFilterShortInput 数据短于核宽度时仍然有效
func TestGaussianFilterShortInput(t *testing.T) {
	y := []float64{1, 2, 3}
	got := GaussianFilter1D(y, 30)
	for i, v := range got {
		if math.IsNaN(v) || v < 1 || v > 3 {
			t.Errorf("索引 %d 结果异常 %v", i, v)
		}
	}
}
