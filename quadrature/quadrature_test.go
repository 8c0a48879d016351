package quadrature

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/utils"
)

func near(a, b float64, tolI ...float64) (l bool) {
	var (
		tol float64
	)
	if len(tolI) == 0 {
		tol = 1.e-08 * math.Max(math.Abs(a), math.Abs(b))
	} else {
		tol = tolI[0]
	}
	if math.Abs(a-b) <= tol {
		l = true
	}
	return
}

func TestJacobi(t *testing.T) {
	// Gauss-Legendre points for N=2 are 0, +-sqrt(3/5)
	{
		X, W := JacobiGQ(0, 0, 2)
		assert.InDeltaSlice(t, []float64{-math.Sqrt(0.6), 0, math.Sqrt(0.6)}, X.DataP(), 1.e-14)
		assert.InDeltaSlice(t, []float64{5. / 9., 8. / 9., 5. / 9.}, W.DataP(), 1.e-14)
	}
	// Lobatto points for N=3 are +-1, +-1/sqrt(5)
	{
		X := JacobiGL(0, 0, 3)
		assert.InDeltaSlice(t, []float64{-1, -1 / math.Sqrt(5), 1 / math.Sqrt(5), 1}, X.DataP(), 1.e-14)
	}
	// The Gauss points are zeros of the Jacobi polynomial of the next order
	{
		for N := 1; N < 8; N++ {
			X, _ := JacobiGQ(1, 0, N)
			p := JacobiP(X, 1, 0, N+1)
			for _, v := range p {
				assert.True(t, near(v, 0, 1.e-10))
			}
		}
	}
}

func TestQuadratureInvariants(t *testing.T) {
	for _, qt := range []QuadratureType{GaussLegendre, GaussLobatto, GaussRadau, ClenshawCurtis, Uniform} {
		for n := qt.MinNodes(); n < 10; n++ {
			q, err := NewQuadrature(qt, n)
			require.NoError(t, err)
			c := q.Nodes()
			require.Equal(t, n, q.NumNodes())
			assert.True(t, c[0] >= 0 && c[n-1] <= 1, "%s(%d)", qt, n)
			for i := 1; i < n; i++ {
				assert.Greater(t, c[i], c[i-1], "%s(%d)", qt, n)
			}
			assert.InDelta(t, 1., floats.Sum(q.Weights()), 1.e-12, "%s(%d)", qt, n)
			// rows of Q integrate the constant to each node
			for i := 0; i < n; i++ {
				assert.InDelta(t, c[i], floats.Sum(q.QMat().Row(i)), 1.e-12)
			}
			// rows of S sum back to Q
			sum := make([]float64, n)
			for i := 0; i < n; i++ {
				floats.Add(sum, q.SMat().Row(i))
				assert.InDeltaSlice(t, q.QMat().Row(i), sum, 1.e-14)
			}
			if q.RightIsNode() {
				assert.Equal(t, q.QMat().Row(n-1), q.BMat().Row(0))
			}
			assert.Equal(t, qt.Order(n), q.ExpectedOrder())
		}
	}
	// Endpoint flags
	{
		q, _ := NewQuadrature(GaussLegendre, 3)
		assert.False(t, q.LeftIsNode())
		assert.False(t, q.RightIsNode())
		q, _ = NewQuadrature(GaussRadau, 3)
		assert.False(t, q.LeftIsNode())
		assert.True(t, q.RightIsNode())
		q, _ = NewQuadrature(GaussLobatto, 3)
		assert.True(t, q.LeftIsNode())
		assert.True(t, q.RightIsNode())
		assert.InDeltaSlice(t, []float64{0, 0.5, 1}, q.Nodes(), 1.e-15)
	}
	// Known nodes
	{
		q, _ := NewQuadrature(GaussRadau, 2)
		assert.InDeltaSlice(t, []float64{1. / 3., 1}, q.Nodes(), 1.e-14)
		assert.InDeltaSlice(t, []float64{0.75, 0.25}, q.Weights(), 1.e-14)
		q, _ = NewQuadrature(GaussRadau, 3)
		s6 := math.Sqrt(6)
		assert.InDeltaSlice(t, []float64{(4 - s6) / 10, (4 + s6) / 10, 1}, q.Nodes(), 1.e-14)
		assert.InDeltaSlice(t, []float64{(16 - s6) / 36, (16 + s6) / 36, 1. / 9.}, q.Weights(), 1.e-14)
		q, _ = NewQuadrature(GaussLegendre, 1)
		assert.Equal(t, []float64{0.5}, q.Nodes())
		q, _ = NewQuadrature(Uniform, 3)
		assert.Equal(t, []float64{0, 0.5, 1}, q.Nodes())
		// Simpson
		assert.InDeltaSlice(t, []float64{1. / 6., 4. / 6., 1. / 6.}, q.Weights(), 1.e-14)
		assert.InDeltaSlice(t, []float64{5. / 24., 1. / 3., -1. / 24.}, q.QMat().Row(1), 1.e-14)
	}
	// Quadrature exactness matches the formal order
	{
		for _, qt := range []QuadratureType{GaussLegendre, GaussLobatto, GaussRadau} {
			for n := max(qt.MinNodes(), 2); n < 7; n++ {
				q, _ := NewQuadrature(qt, n)
				deg := qt.Order(n) - 1
				var sum float64
				for j, cj := range q.Nodes() {
					sum += q.Weights()[j] * utils.POW(cj, deg)
				}
				assert.InDelta(t, 1./float64(deg+1), sum, 1.e-13, "%s(%d)", qt, n)
				// the next degree is not integrated exactly
				sum = 0
				for j, cj := range q.Nodes() {
					sum += q.Weights()[j] * utils.POW(cj, deg+1)
				}
				assert.Greater(t, math.Abs(sum-1./float64(deg+2)), 1.e-10, "%s(%d)", qt, n)
			}
		}
	}
	// Too few nodes
	{
		for _, qt := range []QuadratureType{GaussLobatto, GaussRadau, ClenshawCurtis, Uniform} {
			_, err := NewQuadrature(qt, 1)
			assert.True(t, errors.Is(err, ErrValue))
			assert.True(t, errors.Is(err, encap.ErrValue))
		}
		_, err := NewQuadrature(GaussLegendre, 0)
		assert.True(t, errors.Is(err, ErrValue))
	}
	// Read only matrices
	{
		q, _ := NewQuadrature(GaussLegendre, 3)
		assert.Panics(t, func() { q.QMat().Set(0, 0, 1) })
	}
}

func TestInterp(t *testing.T) {
	var (
		src = []float64{0, 0.5, 1}
		dst = []float64{0, 0.25, 0.5, 0.75, 1}
	)
	T := ComputeInterp(dst, src)
	r, c := T.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 3, c)
	// Reproduces a quadratic exactly
	f := func(x float64) float64 { return 1 + 2*x - 3*x*x }
	fs := []float64{f(0), f(0.5), f(1)}
	for i, x := range dst {
		assert.InDelta(t, f(x), floats.Dot(T.Row(i), fs), 1.e-14)
	}
	// Nested nodes are picked out exactly
	assert.Equal(t, []float64{0, 1, 0}, T.Row(2))
	for _, qt := range []QuadratureType{GaussLegendre, ClenshawCurtis} {
		parsed, err := NewQuadratureType(qt.String())
		require.NoError(t, err)
		assert.Equal(t, qt, parsed)
	}
	_, err := NewQuadratureType("simpson")
	assert.True(t, errors.Is(err, ErrValue))
	qt, err := NewQuadratureType("Gauss-Radau")
	require.NoError(t, err)
	assert.Equal(t, GaussRadau, qt)
}
