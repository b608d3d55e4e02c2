package types

// 默认参数常量定义
const (
	MinTracePoints  = 20  // 单条曲线最少点数, 少于此数拟合数值不稳定
	MinCirclePoints = 4   // 圆拟合最少点数
	FitParams       = 4   // 完整模型参数数量 (fr, Ql, absQc, phi)
	FitTracePoints  = 501 // 拟合输出曲线点数
	EdgeSamples     = 5   // 估计偏移相位时首尾取样数
)

// 默认参数变量定义
//
// 延迟迭代的步长常量来自经验调整, 修改前需要用实测数据验证.
var (
	FitDelayMaxIterations = 5     // 延迟迭代最大次数
	DelayDamping          = 0.05  // 圆度精修失败时首次延迟估计阻尼
	DelayEdgeFraction     = 0.1   // 估计初始延迟时首尾取样比例
	DelayCorrectionGuess  = 5e-11 // 延迟修正初值
	DelayNudge            = 5e-11 // 反向修正时的固定步长
	DelayNudgeFactor      = 0.1   // 固定步长系数
	DelayScaleUp          = 1.1   // 同向中等修正时的放大倍数
	DelayCoarse           = 1e-8  // 同向大修正阈值
	DelayFine             = 1e-9  // 同向中等修正阈值
	PhaseSpanFraction     = 0.8   // 相位覆盖圆周比例下限
	PhaseSmoothSigma      = 30.0  // 相位平滑高斯宽度(点数)
	PoorFitPhaseRMS       = 0.5   // 相位残差均方根上限(rad)
	DefaultIsolation      = 15.0  // 默认隔离度(dB)
	CircleConditionLimit  = 1e-12 // 点云散布矩阵最小/最大特征值比下限
	FanoTolerance         = 1e-9  // |sin(phi)| 与泄漏幅度比较的容差
)
