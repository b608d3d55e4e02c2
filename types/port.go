package types

import (
	"strings"

	"github.com/pkg/errors"
)

// Port 测量拓扑
type Port uint8

// 测量拓扑定义
const (
	PortReflection Port = 1 // 单端口反射 S11
	PortNotch      Port = 2 // 双端口陷波透射 S21
)

// N 圆直径与 Qc 关系中的端口系数
func (p Port) N() float64 { return float64(p) }

func (p Port) String() string {
	switch p {
	case PortReflection:
		return "reflection"
	case PortNotch:
		return "notch"
	}
	return "unknown"
}

// Valid 是否为已知拓扑
func (p Port) Valid() bool { return p == PortReflection || p == PortNotch }

// ParsePort 解析拓扑名称
func ParsePort(s string) (Port, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reflection", "refl", "s11", "1":
		return PortReflection, nil
	case "notch", "transmission", "s21", "2":
		return PortNotch, nil
	}
	return 0, errors.Wrapf(ErrUnknownPort, "%q", s)
}
