package fit

import (
	"math"
	"math/cmplx"
	"testing"

	"circuit/maths"
	"circuit/model"
	"circuit/types"
)

// TestCalibrate 已知延迟下恢复环境参数
func TestCalibrate(t *testing.T) {
	f := linspace(4.995e9, 5.005e9, 401)
	p := model.Params{Fr: 5e9, Ql: 1e4, Qc: 2e4, Phi: 0.2, A: 0.3, Alpha: 0.4, Delay: 1e-9}
	tr := synth(f, p, types.PortNotch, 0, 0)
	cal, err := Calibrate(tr, 1e-9, nil, &recorder{})
	if err != nil {
		t.Fatalf("校准失败: %v", err)
	}
	if math.Abs(cal.A-0.3) > 1e-6 {
		t.Errorf("a: 期望 0.3, 实际 %v", cal.A)
	}
	if maths.PhaseDist(cal.Alpha-0.4) > 1e-6 {
		t.Errorf("alpha: 期望 0.4, 实际 %v", cal.Alpha)
	}
	if maths.PhaseDist(cal.Phi-0.2) > 1e-6 {
		t.Errorf("phi: 期望 0.2, 实际 %v", cal.Phi)
	}
	if relErr(cal.Fr, 5e9) > 1e-9 || relErr(cal.Ql, 1e4) > 1e-6 {
		t.Errorf("期望 fr=5e9 Ql=1e4, 实际 fr=%v Ql=%v", cal.Fr, cal.Ql)
	}
	// 陷波 n=2: n·r = Ql/|Qc|, |Qc| = Qc·cosφ
	want := 1e4 / (2 * 2e4 * math.Cos(0.2))
	if relErr(cal.Radius, want) > 1e-6 {
		t.Errorf("归一化半径: 期望 %v, 实际 %v", want, cal.Radius)
	}

	zn := Normalize(tr, cal)
	ideal := model.SijTrace(f, model.Normalized(5e9, 1e4, 2e4, 0.2), types.PortNotch)
	for i := range zn {
		if cmplx.Abs(zn[i]-ideal[i]) > 1e-6 {
			t.Fatalf("归一化数据 %d: 期望 %v, 实际 %v", i, ideal[i], zn[i])
		}
	}
}
