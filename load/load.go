// Package load 读写测量数据文本.
//
// 每行一个频率点, 列以空白或逗号分隔; 空行分隔数据块.
// "#" 与 "//" 开头为注释. "." 开头为指令, 作用于当前数据块:
//
//	.name  名称
//	.port  reflection | notch
//	.format reim | polar | complex
package load

import (
	"bufio"
	"io"
	"math/cmplx"
	"strconv"
	"strings"

	"circuit/types"

	"github.com/pkg/errors"
)

// 常量定义 - 词法关键字
const (
	tokenName         = ".name"
	tokenPort         = ".port"
	tokenFormat       = ".format"
	tokenCommentHash  = "#"
	tokenCommentLine  = "//"
	tokenColumnsComma = ","
)

// Format 数据列格式
type Format uint8

// 列格式定义
const (
	FormatReIm    Format = iota // f re im
	FormatPolar                 // f amp phase(rad)
	FormatComplex               // f (re+imj)
)

func (f Format) String() string {
	switch f {
	case FormatReIm:
		return "reim"
	case FormatPolar:
		return "polar"
	case FormatComplex:
		return "complex"
	}
	return "unknown"
}

// ParseFormat 解析格式名称
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reim", "ri", "":
		return FormatReIm, nil
	case "polar", "ma", "amp":
		return FormatPolar, nil
	case "complex", "c":
		return FormatComplex, nil
	}
	return 0, errors.Errorf("未知数据格式 '%s'", s)
}

// Block 数据块
type Block struct {
	Name  string
	Port  types.Port // 未通过指令指定时为 0
	Trace *types.Trace
}

// block 解析中的数据块
type block struct {
	name   string
	port   types.Port
	format Format
	line   int
	f      []float64
	z      []complex128
}

func (b *block) empty() bool { return len(b.f) == 0 }

func (b *block) build() (Block, error) {
	tr, err := types.NewTrace(b.f, b.z)
	if err != nil {
		return Block{}, errors.Wrapf(err, "第 %d 行起的数据块", b.line)
	}
	return Block{Name: b.name, Port: b.port, Trace: tr}, nil
}

// LoadString 加载数据文本
func LoadString(s string, format Format) ([]Block, error) {
	return Load(strings.NewReader(s), format)
}

// Load 逐行解析数据, format 为默认列格式
func Load(r io.Reader, format Format) ([]Block, error) {
	var (
		out  []Block
		cur  = &block{format: format}
		line int
	)
	flush := func() error {
		if cur.empty() {
			return nil
		}
		b, err := cur.build()
		if err != nil {
			return err
		}
		out = append(out, b)
		cur = &block{format: format}
		return nil
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		switch {
		case text == "":
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		case strings.HasPrefix(text, tokenCommentHash), strings.HasPrefix(text, tokenCommentLine):
			continue
		case text[0] == '.':
			// 指令出现在数据之后时开始新数据块
			if err := flush(); err != nil {
				return nil, err
			}
			if err := cur.directive(text); err != nil {
				return nil, errors.Wrapf(err, "第 %d 行", line)
			}
			continue
		}
		if cur.empty() {
			cur.line = line
		}
		f, z, err := parseLine(text, cur.format)
		if err != nil {
			return nil, errors.Wrapf(err, "第 %d 行", line)
		}
		cur.f = append(cur.f, f)
		cur.z = append(cur.z, z)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.Wrap(types.ErrTooShort, "没有数据")
	}
	return out, nil
}

// directive 解析指令
func (b *block) directive(text string) error {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return errors.Errorf("指令 '%s' 缺少参数", fields[0])
	}
	value := strings.Join(fields[1:], " ")
	switch strings.ToLower(fields[0]) {
	case tokenName:
		b.name = value
	case tokenPort:
		port, err := types.ParsePort(value)
		if err != nil {
			return err
		}
		b.port = port
	case tokenFormat:
		format, err := ParseFormat(value)
		if err != nil {
			return err
		}
		b.format = format
	default:
		return errors.Errorf("未知指令 '%s'", fields[0])
	}
	return nil
}

// splitColumns 以空白或逗号分列
func splitColumns(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return r == ' ' || r == '\t' || string(r) == tokenColumnsComma
	})
}

// parseLine 解析一行数据
func parseLine(text string, format Format) (float64, complex128, error) {
	cols := splitColumns(text)
	want := 3
	if format == FormatComplex {
		want = 2
	}
	if len(cols) < want {
		return 0, 0, errors.Errorf("需要 %d 列, 得到 %d 列", want, len(cols))
	}
	f, err := strconv.ParseFloat(cols[0], 64)
	if err != nil {
		return 0, 0, errors.Wrap(err, "频率")
	}
	if format == FormatComplex {
		z, err := strconv.ParseComplex(cols[1], 128)
		if err != nil {
			return 0, 0, errors.Wrap(err, "复数")
		}
		return f, z, nil
	}
	a, err := strconv.ParseFloat(cols[1], 64)
	if err != nil {
		return 0, 0, errors.Wrap(err, "第 2 列")
	}
	b, err := strconv.ParseFloat(cols[2], 64)
	if err != nil {
		return 0, 0, errors.Wrap(err, "第 3 列")
	}
	if format == FormatPolar {
		return f, cmplx.Rect(a, b), nil
	}
	return f, complex(a, b), nil
}
