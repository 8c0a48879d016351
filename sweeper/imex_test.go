package sweeper

import (
	"bytes"
	"errors"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/quadrature"
	"github.com/notargets/gopfasst/status"
)

// dahlquist splits u' = lambda*u into an oscillatory explicit and a damping implicit part
func dahlquist(lambda complex128) Funcs[complex128] {
	var (
		lr = complex(real(lambda), 0)
		li = complex(0, imag(lambda))
	)
	return Funcs[complex128]{
		Expl: func(f, u *Encap[complex128], t float64) {
			f.Copy(u)
			for i := range f.Data() {
				f.Data()[i] *= li
			}
		},
		Impl: func(f, u *Encap[complex128], t float64) {
			f.Copy(u)
			for i := range f.Data() {
				f.Data()[i] *= lr
			}
		},
		Solve: func(f, u *Encap[complex128], t, ds float64, rhs *Encap[complex128]) {
			for i, r := range rhs.Data() {
				u.Data()[i] = r / (1 - complex(ds, 0)*lr)
				f.Data()[i] = lr * u.Data()[i]
			}
		},
	}
}

func newScalarSweeper(t *testing.T, qt quadrature.QuadratureType, nodes int, dt float64, lambda complex128) *IMEX[complex128] {
	q, err := quadrature.NewQuadrature(qt, nodes)
	require.NoError(t, err)
	sw := NewIMEX[complex128](dahlquist(lambda), encap.NewFactory[complex128](1))
	sw.SetQuadrature(q)
	st := status.NewStatus()
	st.Dt, st.TEnd = dt, dt
	sw.SetStatus(st)
	require.NoError(t, sw.Setup())
	return sw
}

func TestIMEXSetup(t *testing.T) {
	{
		sw := NewIMEX[float64](ExplicitFuncs(func(f, u *Encap[float64], t float64) {}), encap.NewFactory[float64](1))
		err := sw.Setup()
		assert.True(t, errors.Is(err, ErrLogic))
		assert.True(t, errors.Is(err, encap.ErrLogic))
	}
	{
		q, err := quadrature.NewQuadrature(quadrature.GaussLobatto, 3)
		require.NoError(t, err)
		sw := NewIMEX[float64](Funcs[float64]{Expl: func(f, u *Encap[float64], t float64) {}}, encap.NewFactory[float64](1))
		sw.SetQuadrature(q)
		sw.SetStatus(status.NewStatus())
		err = sw.Setup()
		assert.True(t, errors.Is(err, ErrNotImplemented))
		assert.True(t, errors.Is(err, encap.ErrNotImplemented))
	}
	{
		q, err := quadrature.NewQuadrature(quadrature.GaussLobatto, 3)
		require.NoError(t, err)
		sw := NewIMEX[float64](nil, encap.NewFactory[float64](1))
		sw.SetQuadrature(q)
		sw.SetStatus(status.NewStatus())
		assert.True(t, errors.Is(sw.Setup(), ErrNotImplemented))
	}
}

func TestIMEXCollocation(t *testing.T) {
	var (
		lambda = complex(-1, 1)
		dt     = 0.1
		exact  = cmplx.Exp(lambda * complex(dt, 0))
	)
	for _, tc := range []struct {
		qt    quadrature.QuadratureType
		nodes int
	}{
		{quadrature.GaussLobatto, 4},
		{quadrature.GaussLegendre, 3},
		{quadrature.GaussRadau, 4},
		{quadrature.ClenshawCurtis, 5},
		{quadrature.Uniform, 5},
	} {
		sw := newScalarSweeper(t, tc.qt, tc.nodes, dt, lambda)
		sw.InitialState().Data()[0] = 1
		sw.Spread()
		sw.PrePredict()
		sw.Predict()
		sw.PostPredict()
		// a sweeper without tolerances never reports convergence
		assert.False(t, sw.Converged())
		for k := 0; k < 30; k++ {
			sw.PreSweep()
			sw.Sweep()
			sw.PostSweep()
		}
		assert.False(t, sw.Converged(), tc.qt.String())
		abs, _ := sw.ResidualNorms()
		assert.Less(t, abs, 1.e-13, tc.qt.String())
		assert.Equal(t, abs, sw.Status().AbsResNorm)
		sw.SetResidualTolerances(1.e-12, 0)
		assert.True(t, sw.Converged(), tc.qt.String())
		assert.InDelta(t, 0, cmplx.Abs(sw.EndState().At(0)-exact), 1.e-7, tc.qt.String())

		sw.Advance()
		assert.Equal(t, sw.EndState().At(0), sw.InitialState().At(0))
		if sw.Quadrature().LeftIsNode() {
			assert.Equal(t, sw.InitialState(), sw.States()[0])
		}
	}
}

func TestIMEXLogging(t *testing.T) {
	var (
		buf bytes.Buffer
	)
	sw := NewIMEX[complex128](dahlquist(-1), encap.NewFactory[complex128](1))
	q, err := quadrature.NewQuadrature(quadrature.GaussLobatto, 3)
	require.NoError(t, err)
	sw.SetQuadrature(q)
	sw.SetStatus(status.NewStatus())
	sw.SetLogger(&buf, 2, "FINE")
	require.NoError(t, sw.Setup())
	sw.PrePredict()
	sw.Predict()
	sw.PostStep()
	assert.Contains(t, buf.String(), "FINE")
	assert.Contains(t, buf.String(), "predicting step 1")
	assert.Equal(t, 2, sw.NumSolves)
}
