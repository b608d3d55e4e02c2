package types

import "github.com/pkg/errors"

// 拟合告警, 只通过 Reporter 上报, 不会中断拟合
var (
	ErrPhaseSpan         = errors.New("data does not cover a full circle")
	ErrDelayNotConverged = errors.New("delay could not be fit properly")
	ErrCovariance        = errors.New("error calculation failed")
	ErrFanoLeakage       = errors.New("measurement cannot be explained with assumed Fano leakage")
	ErrDegenerateCircle  = errors.New("points do not span a circle")
	ErrPoorFit           = errors.New("phase fit did not converge cleanly")
)

// 输入错误
var (
	ErrLength      = errors.New("frequency and data length differ")
	ErrTooShort    = errors.New("too few points")
	ErrFrequency   = errors.New("frequencies must be strictly increasing")
	ErrUnknownPort = errors.New("unknown port type")
)
