package Scalar

import (
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/notargets/gopfasst/encap"
)

func TestScalar(t *testing.T) {
	var (
		lambda = complex(-1, 1)
		s      = NewScalar(lambda, 1)
		u      = encap.NewFrom([]complex128{2 + 1i})
		f      = encap.New[complex128](1)
		g      = encap.New[complex128](1)
	)
	s.Exact(f, 1)
	assert.InDelta(t, 0, cmplx.Abs(f.At(0)-cmplx.Exp(lambda)), 1.e-15)
	// the split parts add up to lambda*u
	s.EvaluateExpl(f, u, 0)
	s.EvaluateImpl(g, u, 0)
	assert.InDelta(t, 0, cmplx.Abs(f.At(0)+g.At(0)-lambda*u.At(0)), 1.e-15)
	assert.Equal(t, complex(-1, 2), f.At(0))
	// u - ds*lambda_r*u = rhs
	x := encap.New[complex128](1)
	s.ImplicitSolve(g, x, 0, 0.5, u)
	assert.InDelta(t, 0, cmplx.Abs(x.At(0)-0.5*g.At(0)-u.At(0)), 1.e-15)
	assert.InDelta(t, 0, cmplx.Abs(x.At(0)-u.At(0)/1.5), 1.e-15)
	assert.Equal(t, [3]int{1, 1, 1}, [3]int{s.NumExpl, s.NumImpl, s.NumSolves})
	assert.False(t, math.IsNaN(s.LastError()))
}
