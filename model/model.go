// Package model 谐振器散射模型及其解析偏导数
package model

import (
	"math"
	"math/cmplx"

	"circuit/types"
)

// Params 模型参数
type Params struct {
	Fr    float64 // 谐振频率
	Ql    float64 // 有载品质因数
	Qc    float64 // 直径修正后的耦合品质因数, 1/Qc = Re{exp(iφ)/|Qc|}
	Phi   float64 // 圆绕离谐点旋转
	A     float64 // 幅度缩放
	Alpha float64 // 整体旋转
	Delay float64 // 线缆延迟
}

// Normalized 归一化模型参数(a=1, alpha=0, delay=0)
func Normalized(fr, ql, qc, phi float64) Params {
	return Params{Fr: fr, Ql: ql, Qc: qc, Phi: phi, A: 1}
}

// Sij 反射 S11 或陷波 S21 模型
//
//	S = a·exp(i(α - 2πfτ))·(1 - 2Ql / (Qc·cosφ·exp(-iφ)·n·(1 + 2iQl(f/fr - 1))))
func Sij(f float64, p Params, port types.Port) complex128 {
	complexQc := complex(p.Qc*math.Cos(p.Phi), 0) * cmplx.Exp(complex(0, -p.Phi))
	env := complex(p.A, 0) * cmplx.Exp(complex(0, p.Alpha-2*math.Pi*f*p.Delay))
	den := complexQc * complex(port.N(), 0) * complex(1, 2*p.Ql*(f/p.Fr-1))
	return env * (1 - complex(2*p.Ql, 0)/den)
}

// SijTrace 逐点求模型值
func SijTrace(f []float64, p Params, port types.Port) []complex128 {
	out := make([]complex128, len(f))
	for i, v := range f {
		out[i] = Sij(v, p, port)
	}
	return out
}

// PhaseCentered 强过耦合反射谐振器(圆心在原点)的相位响应, 含线性背景斜率
func PhaseCentered(f, fr, ql, theta, delay float64) float64 {
	return theta - 2*math.Pi*delay*(f-fr) + 2*math.Atan(2*ql*(1-f/fr))
}

// Derivatives 归一化模型对 (fr, Ql, |Qc|, φ) 的解析偏导数
type Derivatives struct {
	Fr    float64
	Ql    float64
	AbsQc float64
	Phi   float64
	N     float64
}

// At 在频率 f 处的四个偏导数
func (d Derivatives) At(f float64) [types.FitParams]complex128 {
	e := cmplx.Exp(complex(0, d.Phi))
	nq := complex(d.N*d.AbsQc, 0)
	lor := complex(1, 2*d.Ql*(f/d.Fr-1))
	dfrDen := complex(d.Fr, 2*d.Ql*(f-d.Fr))
	return [types.FitParams]complex128{
		complex(0, -4*d.Ql*d.Ql*f) * e / (nq * dfrDen * dfrDen),
		-2 * e / (nq * lor * lor),
		complex(2*d.Ql, 0) * e / (complex(d.N*d.AbsQc*d.AbsQc, 0) * lor),
		complex(0, -2*d.Ql) * e / (nq * lor),
	}
}
