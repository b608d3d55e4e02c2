package load

import (
	"bufio"
	"fmt"
	"io"
	"math/cmplx"
	"strconv"

	"circuit/types"
)

// WriteBlock 按格式写出数据块
func WriteBlock(w io.Writer, b Block, format Format) error {
	writer := bufio.NewWriter(w)
	if b.Name != "" {
		fmt.Fprintln(writer, tokenName, b.Name)
	}
	if b.Port.Valid() {
		fmt.Fprintln(writer, tokenPort, b.Port)
	}
	fmt.Fprintln(writer, tokenFormat, format)
	for i, f := range b.Trace.F {
		z := b.Trace.Z[i]
		writer.WriteString(formatFloat(f))
		writer.WriteRune(' ')
		switch format {
		case FormatPolar:
			writer.WriteString(formatFloat(cmplx.Abs(z)))
			writer.WriteRune(' ')
			writer.WriteString(formatFloat(cmplx.Phase(z)))
		case FormatComplex:
			writer.WriteString(strconv.FormatComplex(z, 'g', -1, 128))
		default:
			writer.WriteString(formatFloat(real(z)))
			writer.WriteRune(' ')
			writer.WriteString(formatFloat(imag(z)))
		}
		writer.WriteRune('\n')
	}
	writer.WriteRune('\n')
	return writer.Flush()
}

// Export 写出拟合结果: 注释头为参数, 数据列为
// f re im re_norm im_norm re_sim im_sim
func Export(w io.Writer, res *types.Result) error {
	writer := bufio.NewWriter(w)
	m := res.Map()
	fmt.Fprintln(writer, tokenCommentHash, "port", res.Port)
	for _, key := range types.Keys {
		if v, ok := m[key]; ok {
			fmt.Fprintln(writer, tokenCommentHash, key, formatFloat(v))
		}
	}
	for _, warning := range res.Warnings {
		fmt.Fprintln(writer, tokenCommentHash, "warning:", warning)
	}
	fmt.Fprintln(writer, tokenCommentHash, "f re im re_norm im_norm re_sim im_sim")
	for i, f := range res.F {
		for j, v := range []float64{
			f,
			real(res.ZRaw[i]), imag(res.ZRaw[i]),
			real(res.ZNorm[i]), imag(res.ZNorm[i]),
			real(res.ZSim[i]), imag(res.ZSim[i]),
		} {
			if j > 0 {
				writer.WriteRune(' ')
			}
			writer.WriteString(formatFloat(v))
		}
		writer.WriteRune('\n')
	}
	return writer.Flush()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
