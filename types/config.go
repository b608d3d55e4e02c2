package types

import "math"

// Config 自动拟合配置
type Config struct {
	CalcErrors            bool        // 计算协方差与误差
	FixedDelay            *float64    // 已知线缆延迟, 跳过延迟估计
	Isolation             float64     // Fano 泄漏假设的隔离度(dB)
	FanoB                 *float64    // 直接给定背景幅度, 优先于 Isolation
	Guesses               *PhaseGuess // 校准相位拟合初值
	FitDelayMaxIterations int
	FMin, FMax            float64 // 频率窗口
	Debug                 Debug
}

// NewConfig 默认配置
func NewConfig() *Config {
	return &Config{
		CalcErrors:            true,
		Isolation:             DefaultIsolation,
		FitDelayMaxIterations: FitDelayMaxIterations,
		FMin:                  math.Inf(-1),
		FMax:                  math.Inf(1),
	}
}

// SetFixedDelay 设置已知延迟
func (cfg *Config) SetFixedDelay(delay float64) { cfg.FixedDelay = &delay }

// SetFanoB 设置背景幅度
func (cfg *Config) SetFanoB(b float64) { cfg.FanoB = &b }

// Windowed 是否设置了频率窗口
func (cfg *Config) Windowed() bool {
	return !math.IsInf(cfg.FMin, -1) || !math.IsInf(cfg.FMax, 1)
}

// LeakageB 由隔离度或直接给定值得到背景幅度
func (cfg *Config) LeakageB() float64 {
	if cfg.FanoB != nil {
		return *cfg.FanoB
	}
	return IsolationB(cfg.Isolation)
}

// IsolationB 隔离度(dB)换算为背景路径相对幅度
func IsolationB(isolation float64) float64 {
	return math.Pow(10, -isolation/20)
}
