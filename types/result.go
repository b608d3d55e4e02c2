package types

// Result 自动拟合最终结果, 返回后只读
type Result struct {
	Port         Port
	Delay        DelayFit
	Calibration  Calibration
	Quality      Quality
	Errors       *QualityErrors // 未计算或协方差失败时为 nil
	ChiSquare    float64        // 约化卡方
	Fano         FanoRange
	PhaseOutcome Outcome
	Warnings     []string

	F        []float64
	ZRaw     []complex128
	ZNorm    []complex128 // 归一化数据
	ZSim     []complex128 // 模型(含校准参数)
	ZSimNorm []complex128 // 归一化模型
	FitTrace FitTrace
}

// Map 扁平结果表, 误差项只在计算成功时存在
func (r *Result) Map() map[string]float64 {
	m := map[string]float64{
		"delay":           r.Delay.Delay,
		"delay_remaining": r.Calibration.DelayRemaining,
		"a":               r.Calibration.A,
		"alpha":           r.Calibration.Alpha,
		"theta":           r.Calibration.Theta,
		"phi":             r.Quality.Phi,
		"fr":              r.Quality.Fr,
		"Ql":              r.Quality.Ql,
		"Qc":              r.Quality.Qc,
		"Qc_no_dia_corr":  r.Quality.AbsQc,
		"Qi":              r.Quality.Qi,
		"Qi_no_dia_corr":  r.Quality.QiNoDiaCorr,
		"chi_square":      r.ChiSquare,
		"Qi_min":          r.Fano.QiMin,
		"Qi_max":          r.Fano.QiMax,
		"Qc_min":          r.Fano.QcMin,
		"Qc_max":          r.Fano.QcMax,
		"fano_b":          r.Fano.B,
	}
	if e := r.Errors; e != nil {
		m["fr_err"] = e.Fr
		m["Ql_err"] = e.Ql
		m["absQc_err"] = e.AbsQc
		m["phi_err"] = e.Phi
		m["Qi_err"] = e.Qi
		m["Qi_no_dia_corr_err"] = e.QiNoDiaCorr
	}
	return m
}

// Keys 固定输出顺序
var Keys = []string{
	"fr", "fr_err", "Ql", "Ql_err", "Qc", "Qc_no_dia_corr", "absQc_err",
	"Qi", "Qi_err", "Qi_no_dia_corr", "Qi_no_dia_corr_err",
	"Qi_min", "Qi_max", "Qc_min", "Qc_max", "fano_b",
	"a", "alpha", "theta", "phi", "phi_err", "delay", "delay_remaining", "chi_square",
}
