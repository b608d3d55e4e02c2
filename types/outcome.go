package types

import "fmt"

// OutcomeStatus 最小二乘拟合状态
type OutcomeStatus uint8

// 拟合状态定义
const (
	Converged OutcomeStatus = iota // 收敛
	PoorFit                        // 运行完毕但结果不可信
	Failed                         // 数值失败
)

func (s OutcomeStatus) String() string {
	switch s {
	case Converged:
		return "converged"
	case PoorFit:
		return "poor"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Outcome 最小二乘拟合结果状态
type Outcome struct {
	Status       OutcomeStatus
	ResidualNorm float64 // 残差二范数
	Iterations   int
	Reason       string
}

// OK 是否收敛
func (o Outcome) OK() bool { return o.Status == Converged }

func (o Outcome) String() string {
	if o.Reason == "" {
		return fmt.Sprintf("%s (|r|=%.3g, %d iter)", o.Status, o.ResidualNorm, o.Iterations)
	}
	return fmt.Sprintf("%s (|r|=%.3g, %d iter): %s", o.Status, o.ResidualNorm, o.Iterations, o.Reason)
}
