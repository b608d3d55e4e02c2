// Package debug 拟合过程记录与渲染: JSON 记录, 网页曲线, PNG 图片.
package debug

import (
	"encoding/json"
	"io"
	"log"
	"math"
	"strconv"

	"circuit/types"
)

// Float 可序列化非有限值的浮点数
type Float float64

// MarshalJSON NaN 与 Inf 输出为字符串
func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return json.Marshal(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return json.Marshal(v)
}

// Record 记录拟合数据与结果
type Record struct {
	Port     string
	F        []Float           // 频率列
	Raw      [][2]Float        // 原始数据 re, im
	Norm     [][2]Float        // 归一化数据
	Sim      [][2]Float        // 模型
	SimNorm  [][2]Float        // 归一化模型
	FitF     []Float           // 拟合曲线频率
	FitAmp   []Float           // 拟合曲线幅度
	FitPhase []Float           // 拟合曲线相位
	Delay    []types.DelayStep // 延迟迭代
	Params   map[string]Float  // 结果参数
	Warnings []string          // 告警
}

// Init 初始化
func (list *Record) Init(trace *types.Trace) {
	list.F = floatsOf(trace.F)
	list.Raw = pairsOf(trace.Z)
	list.Norm, list.Sim, list.SimNorm = nil, nil, nil
	list.Warnings = nil
}

func (Record) IsDebug() bool    { return true }
func (Record) SetDebug(is bool) {}

// Render 格式和输出内容
func (list *Record) Render(w io.Writer) error { return json.NewEncoder(w).Encode(list) }

// Update 记录结果
func (list *Record) Update(res *types.Result) {
	list.Port = res.Port.String()
	list.Norm = pairsOf(res.ZNorm)
	list.Sim = pairsOf(res.ZSim)
	list.SimNorm = pairsOf(res.ZSimNorm)
	list.FitF = floatsOf(res.FitTrace.F)
	list.FitAmp = floatsOf(res.FitTrace.Amp)
	list.FitPhase = floatsOf(res.FitTrace.Phase)
	list.Delay = res.Delay.Steps
	list.Params = make(map[string]Float)
	for k, v := range res.Map() {
		list.Params[k] = Float(v)
	}
}

func (list *Record) Error(err error) {
	list.Warnings = append(list.Warnings, err.Error())
	log.Println(err)
}

func floatsOf(v []float64) []Float {
	out := make([]Float, len(v))
	for i, x := range v {
		out[i] = Float(x)
	}
	return out
}

func pairsOf(z []complex128) [][2]Float {
	out := make([][2]Float, len(z))
	for i, v := range z {
		out[i] = [2]Float{Float(real(v)), Float(imag(v))}
	}
	return out
}
