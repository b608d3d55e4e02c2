package fit

import (
	"math"
	"math/cmplx"
	"math/rand/v2"

	"circuit/model"
	"circuit/types"

	"github.com/pkg/errors"
)

// recorder 收集告警
type recorder struct {
	errs []error
}

func (r *recorder) Error(err error) {
	r.errs = append(r.errs, err)
}

func (r *recorder) has(target error) bool {
	for _, err := range r.errs {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// linspace 等间隔频率
func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// synth 由模型生成数据, sigma > 0 时叠加高斯噪声
func synth(f []float64, p model.Params, port types.Port, sigma float64, seed uint64) *types.Trace {
	z := model.SijTrace(f, p, port)
	if sigma > 0 {
		rng := rand.New(rand.NewPCG(seed, seed+1))
		for i := range z {
			z[i] += complex(sigma*rng.NormFloat64(), sigma*rng.NormFloat64())
		}
	}
	tr, err := types.NewTrace(f, z)
	if err != nil {
		panic(err)
	}
	return tr
}

func relErr(got, want float64) float64 {
	return math.Abs(got-want) / math.Abs(want)
}

func closeTo(a, b complex128, tol float64) bool {
	return cmplx.Abs(a-b) <= tol
}
