package types

// Circle 拟合圆
type Circle struct {
	Center     complex128
	Radius     float64
	Degenerate bool // 点共线, 无法确定圆
}

// PhaseGuess 相位拟合初值
type PhaseGuess struct {
	Fr    float64
	Ql    float64
	Delay float64
}

// PhaseFit 相位响应拟合结果
type PhaseFit struct {
	Fr      float64 // 谐振频率(Hz)
	Ql      float64 // 有载品质因数
	Theta   float64 // 偏移相位
	Delay   float64 // 残余延迟(s)
	Outcome Outcome
}

// DelayStep 单次延迟迭代记录
type DelayStep struct {
	Delay      float64 // 本次使用的延迟
	Correction float64 // 拟合得到的修正
	Residual   float64 // 相位残差标准差
	Outcome    Outcome // 本次相位拟合状态
}

// DelayFit 线缆延迟估计结果
type DelayFit struct {
	Delay     float64
	Fixed     bool // 由调用者给定
	Converged bool
	Steps     []DelayStep
}

// Calibration 归一化参数
//
//	z_norm = z_raw / A * exp(i(2π·Delay·f - Alpha))
type Calibration struct {
	Delay          float64
	DelayRemaining float64
	A              float64 // 幅度缩放
	Alpha          float64 // 整体旋转
	Theta          float64 // 偏移相位
	Phi            float64 // 圆绕离谐点的旋转
	Fr             float64
	Ql             float64
	Radius         float64 // 归一化圆半径 r0/a
	OffResPoint    complex128
	Circle         Circle
	Phase          PhaseFit
}

// Quality 品质因数
type Quality struct {
	Fr          float64
	Ql          float64
	Qc          float64 // 直径修正
	AbsQc       float64 // 未修正 |Qc|
	Qi          float64
	QiNoDiaCorr float64
	Phi         float64
	Radius      float64
	Port        Port
}

// QualityErrors 品质因数标准误差
type QualityErrors struct {
	Fr          float64
	Ql          float64
	AbsQc       float64
	Phi         float64
	Qi          float64
	QiNoDiaCorr float64
	Covariance  [FitParams][FitParams]float64
}

// FanoRange Fano 泄漏造成的系统误差范围
type FanoRange struct {
	B     float64 // 换算后的背景幅度
	QiMin float64
	QiMax float64
	QcMin float64
	QcMax float64
}

// FitTrace 等间隔频率上的模型曲线
type FitTrace struct {
	F     []float64
	Amp   []float64
	Phase []float64
}
