package maths

import "math"

// GaussTruncate 高斯核截断宽度(单位 sigma)
const GaussTruncate = 4.0

// Gradient 单位间距数值导数, 内部中心差分, 两端单边差分
func Gradient(y []float64) []float64 {
	n := len(y)
	out := make([]float64, n)
	if n < 2 {
		return out
	}
	out[0] = y[1] - y[0]
	out[n-1] = y[n-1] - y[n-2]
	for i := 1; i < n-1; i++ {
		out[i] = (y[i+1] - y[i-1]) / 2
	}
	return out
}

// reflect 边界按 (d c b a | a b c d | d c b a) 镜像
func reflect(i, n int) int {
	p := 2 * n
	i %= p
	if i < 0 {
		i += p
	}
	if i >= n {
		i = p - i - 1
	}
	return i
}

// GaussianKernel 归一化一维高斯核
func GaussianKernel(sigma float64) []float64 {
	radius := int(GaussTruncate*sigma + 0.5)
	k := make([]float64, 2*radius+1)
	var sum float64
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-0.5 * float64(i*i) / (sigma * sigma))
		k[i+radius] = v
		sum += v
	}
	for i := range k {
		k[i] /= sum
	}
	return k
}

// GaussianFilter1D 一维高斯平滑, 边界镜像
func GaussianFilter1D(y []float64, sigma float64) []float64 {
	n := len(y)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	if sigma <= 0 {
		copy(out, y)
		return out
	}
	k := GaussianKernel(sigma)
	radius := len(k) / 2
	for i := range out {
		var s float64
		for j, w := range k {
			s += w * y[reflect(i+j-radius, n)]
		}
		out[i] = s
	}
	return out
}
