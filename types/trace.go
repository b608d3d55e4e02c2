package types

import (
	"math/cmplx"

	"github.com/pkg/errors"
)

// Trace 散射数据曲线, 创建后只读
type Trace struct {
	F []float64    // 频率(Hz), 严格递增
	Z []complex128 // 复散射参数
}

// NewTrace 校验并创建曲线
func NewTrace(f []float64, z []complex128) (*Trace, error) {
	if len(f) != len(z) {
		return nil, errors.Wrapf(ErrLength, "%d != %d", len(f), len(z))
	}
	if len(f) < MinTracePoints {
		return nil, errors.Wrapf(ErrTooShort, "%d < %d", len(f), MinTracePoints)
	}
	for i := 1; i < len(f); i++ {
		if !(f[i] > f[i-1]) {
			return nil, errors.Wrapf(ErrFrequency, "index %d", i)
		}
	}
	return &Trace{
		F: append([]float64(nil), f...),
		Z: append([]complex128(nil), z...),
	}, nil
}

// NewTraceFromPolar 通过幅度与相位创建曲线
func NewTraceFromPolar(f, amp, phase []float64) (*Trace, error) {
	if len(amp) != len(phase) {
		return nil, errors.Wrapf(ErrLength, "amplitude %d != phase %d", len(amp), len(phase))
	}
	z := make([]complex128, len(amp))
	for i := range amp {
		z[i] = cmplx.Rect(amp[i], phase[i])
	}
	return NewTrace(f, z)
}

// Len 点数
func (t *Trace) Len() int { return len(t.F) }

// Span 频率跨度
func (t *Trace) Span() float64 { return t.F[len(t.F)-1] - t.F[0] }

// Window 截取 fmin <= f <= fmax 的数据
func (t *Trace) Window(fmin, fmax float64) (*Trace, error) {
	f := make([]float64, 0, len(t.F))
	z := make([]complex128, 0, len(t.Z))
	for i, v := range t.F {
		if v >= fmin && v <= fmax {
			f = append(f, v)
			z = append(z, t.Z[i])
		}
	}
	tr, err := NewTrace(f, z)
	if err != nil {
		return nil, errors.Wrapf(err, "window [%g, %g]", fmin, fmax)
	}
	return tr, nil
}
