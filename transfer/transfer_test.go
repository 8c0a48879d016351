package transfer

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/quadrature"
	"github.com/notargets/gopfasst/status"
	"github.com/notargets/gopfasst/sweeper"
)

func TestSpectral1D(t *testing.T) {
	var (
		nc     = 8
		nf     = 16
		sp     = NewSpectral1D[float64]()
		coarse = encap.New[float64](nc)
		fine   = encap.New[float64](nf)
		f      = func(x float64) float64 { return math.Sin(2*math.Pi*x) + 0.25*math.Cos(4*math.Pi*x) }
	)
	for i := range coarse.Data() {
		coarse.Data()[i] = f(float64(i) / float64(nc))
	}
	// interpolation of a resolved mode is exact
	{
		require.NoError(t, sp.Interpolate(fine, coarse))
		for i, v := range fine.Data() {
			assert.InDelta(t, f(float64(i)/float64(nf)), v, 1.e-14)
		}
	}
	// restrict(interpolate(x)) == x
	{
		back := encap.New[float64](nc)
		require.NoError(t, sp.Restrict(back, fine))
		assert.InDeltaSlice(t, coarse.Data(), back.Data(), 1.e-14)
	}
	// equal sizes short circuit
	{
		same := encap.New[float64](nc)
		require.NoError(t, sp.Interpolate(same, coarse))
		assert.Equal(t, coarse.Data(), same.Data())
	}
	// incompatible sizes
	{
		err := sp.Restrict(encap.New[float64](3), fine)
		assert.True(t, errors.Is(err, ErrValue))
		assert.True(t, errors.Is(err, encap.ErrValue))
	}
}

func TestInjection(t *testing.T) {
	var (
		op     Injection[complex128]
		coarse = encap.NewFrom([]complex128{0, 2, 4i, 6})
		fine   = encap.New[complex128](8)
		back   = encap.New[complex128](4)
	)
	require.NoError(t, op.Interpolate(fine, coarse))
	assert.Equal(t, []complex128{0, 1, 2, 1 + 2i, 4i, 3 + 2i, 6, 3}, fine.Data())
	require.NoError(t, op.Restrict(back, fine))
	assert.Equal(t, coarse.Data(), back.Data())
	var sf SpatialFuncs[complex128]
	assert.True(t, errors.Is(sf.Interpolate(fine, coarse), encap.ErrNotImplemented))
	assert.True(t, errors.Is(sf.Restrict(coarse, fine), ErrNotImplemented))
}

// zeroRHS is the trivial problem u' = 0
func zeroRHS[T encap.Scalar]() sweeper.Funcs[T] {
	return sweeper.ExplicitFuncs(func(f, u *Encap[T], t float64) { f.Zero() })
}

func newLevel(t *testing.T, qt quadrature.QuadratureType, nodes, dofs int) *sweeper.IMEX[float64] {
	q, err := quadrature.NewQuadrature(qt, nodes)
	require.NoError(t, err)
	sw := sweeper.NewIMEX[float64](zeroRHS[float64](), encap.NewFactory[float64](dofs))
	sw.SetQuadrature(q)
	st := status.NewStatus()
	st.Dt = 0.1
	sw.SetStatus(st)
	require.NoError(t, sw.Setup())
	return sw
}

func TestPolynomialTransfer(t *testing.T) {
	tr := NewPolynomial[float64](NewSpectral1D[float64]())
	// nested Lobatto levels in time and space
	{
		fine := newLevel(t, quadrature.GaussLobatto, 5, 16)
		coarse := newLevel(t, quadrature.GaussLobatto, 3, 8)
		for i := range fine.InitialState().Data() {
			fine.InitialState().Data()[i] = math.Sin(2 * math.Pi * float64(i) / 16)
		}
		fine.Spread()
		require.NoError(t, tr.RestrictInitial(fine, coarse))
		coarse.Spread()
		coarse.Save()
		// a coarse correction that is linear in time
		for m, c := range coarse.Quadrature().Nodes() {
			for i := range coarse.States()[m].Data() {
				coarse.States()[m].Data()[i] += c
			}
		}
		require.NoError(t, tr.Interpolate(coarse, fine, true))
		for m, c := range fine.Quadrature().Nodes() {
			for i, v := range fine.States()[m].Data() {
				expect := math.Sin(2*math.Pi*float64(i)/16) + c
				if m == 0 {
					// t0 is a node and owned by the initial state
					expect = math.Sin(2 * math.Pi * float64(i) / 16)
				}
				assert.InDelta(t, expect, v, 1.e-13)
			}
		}
		// restricting back reproduces the coarse states
		prev := make([][]float64, 3)
		for m := range prev {
			prev[m] = append([]float64{}, coarse.States()[m].Data()...)
		}
		require.NoError(t, tr.Restrict(fine, coarse, true))
		for m := range prev {
			assert.InDeltaSlice(t, prev[m], coarse.States()[m].Data(), 1.e-13)
		}
	}
	// FAS between equal node sets, tau vanishes for u' = 0
	{
		fine := newLevel(t, quadrature.GaussLobatto, 3, 16)
		coarse := newLevel(t, quadrature.GaussLobatto, 3, 8)
		for i := range fine.InitialState().Data() {
			fine.InitialState().Data()[i] = float64(i)
		}
		fine.Spread()
		require.NoError(t, tr.Restrict(fine, coarse, true))
		require.NoError(t, tr.FAS(0.1, fine, coarse))
		for _, tau := range coarse.Tau() {
			assert.Equal(t, 0., tau.Norm0())
		}
		assert.Equal(t, []float64{0, 2, 4, 6, 8, 10, 12, 14}, coarse.States()[1].Data())
	}
	// FAS across different node counts and non-nested restriction are not implemented
	{
		fine := newLevel(t, quadrature.GaussLobatto, 5, 8)
		coarse := newLevel(t, quadrature.GaussLobatto, 3, 8)
		err := tr.FAS(0.1, fine, coarse)
		assert.True(t, errors.Is(err, ErrNotImplemented))
		coarse = newLevel(t, quadrature.GaussLobatto, 4, 8)
		err = tr.Restrict(fine, coarse, true)
		assert.True(t, errors.Is(err, encap.ErrNotImplemented))
	}
	// mixing endpoint structures
	{
		fine := newLevel(t, quadrature.GaussLobatto, 3, 8)
		coarse := newLevel(t, quadrature.GaussRadau, 3, 8)
		err := tr.Interpolate(coarse, fine, false)
		assert.True(t, errors.Is(err, ErrValue))
	}
	// equal node sets inject directly
	{
		fine := newLevel(t, quadrature.GaussRadau, 3, 16)
		coarse := newLevel(t, quadrature.GaussRadau, 3, 8)
		for m, s := range fine.States() {
			for i := range s.Data() {
				s.Data()[i] = float64(m*100 + i)
			}
		}
		require.NoError(t, tr.Restrict(fine, coarse, false))
		assert.Equal(t, []float64{200, 202, 204, 206, 208, 210, 212, 214}, coarse.States()[2].Data())
	}
}
