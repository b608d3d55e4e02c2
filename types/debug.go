package types

import "io"

// Reporter 告警接收接口
type Reporter interface {
	Error(err error)
}

// Debug 调试接口
type Debug interface {
	Reporter
	Init(trace *Trace)
	IsDebug() bool
	SetDebug(is bool)
	Update(res *Result)
	Render(w io.Writer) error
}
