package controller

import (
	"errors"
	"io"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/model_problems/Scalar"
	"github.com/notargets/gopfasst/quadrature"
	"github.com/notargets/gopfasst/status"
	"github.com/notargets/gopfasst/sweeper"
)

var quiet = Options{Log: io.Discard}

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestControllerDuration(t *testing.T) {
	{
		c := newController(quiet, "TEST")
		c.SetDuration(0, 1, 0.1, 0, 5)
		require.NoError(t, c.Setup())
		assert.Equal(t, 10, c.NumSteps)
		assert.Equal(t, 10, c.Status.NumSteps)
		assert.True(t, c.IsReady())
	}
	{
		c := newController(quiet, "TEST")
		c.SetDuration(0, 1, 0.3, 0, 5)
		err := c.Setup()
		assert.True(t, errors.Is(err, ErrValue))
		assert.True(t, errors.Is(err, encap.ErrValue))
		assert.False(t, c.IsReady())
	}
	{
		c := newController(quiet, "TEST")
		c.SetDuration(0, 0, 0.1, 0, 5)
		assert.True(t, errors.Is(c.Setup(), ErrValue))
		c.SetDuration(0, 1, 0, 0, 5)
		assert.True(t, errors.Is(c.Setup(), ErrValue))
		// steps given explicitly must reach t_end
		c.SetDuration(0, 1, 0.1, 9, 5)
		assert.True(t, errors.Is(c.Setup(), ErrValue))
		c.SetDuration(0, 1, 0.1, 10, 5)
		assert.NoError(t, c.Setup())
	}
	{
		c := newController(quiet, "TEST")
		assert.True(t, errors.Is(c.checkReady(), ErrLogic))
	}
}

func TestControllerAdvance(t *testing.T) {
	{
		c := newController(quiet, "TEST")
		c.SetDuration(1, 1.2, 0.1, 0, 3)
		c.Status.Step = 1
		require.NoError(t, c.Setup())
		c.Status.Iteration = 2
		assert.True(t, c.AdvanceTime(1))
		assert.True(t, near(1.1, c.Status.Time, 1.e-14))
		assert.Equal(t, 2, c.Status.Step)
		assert.Equal(t, 0, c.Status.Iteration)
		// reaching t_end ends the run
		assert.False(t, c.AdvanceTime(1))
		assert.True(t, near(1.1, c.Status.Time, 1.e-14))
		assert.Equal(t, 2, c.Status.Step)
		// overshooting does not change anything
		assert.False(t, c.AdvanceTime(3))
		assert.True(t, near(1.1, c.Status.Time, 1.e-14))
		assert.Equal(t, 2, c.Status.Step)
	}
	{
		c := newController(quiet, "TEST")
		c.SetDuration(0, 1, 0.1, 0, 3)
		for k := 1; k <= 3; k++ {
			assert.True(t, c.AdvanceIteration())
			assert.Equal(t, k, c.Status.Iteration)
		}
		assert.False(t, c.AdvanceIteration())
		assert.Equal(t, 3, c.Status.Iteration)
	}
}

type scalarRun struct {
	sdc     *SDC[complex128]
	problem *Scalar.Scalar
	sweeper *sweeper.IMEX[complex128]
}

func newScalarSDC(t *testing.T, qt quadrature.QuadratureType, nodes int, lambda complex128, dt, tEnd float64, iters int) (r scalarRun) {
	q, err := quadrature.NewQuadrature(qt, nodes)
	require.NoError(t, err)
	r.problem = Scalar.NewScalar(lambda, 1)
	r.sweeper = sweeper.NewIMEX[complex128](r.problem, encap.NewFactory[complex128](1))
	r.sweeper.SetQuadrature(q)
	r.sdc = NewSDC[complex128](quiet)
	r.sdc.AddSweeper(r.sweeper)
	r.sdc.SetDuration(0, tEnd, dt, 0, iters)
	require.NoError(t, r.sdc.Setup())
	r.problem.Exact(r.sweeper.InitialState(), 0)
	return
}

func (r scalarRun) relativeError(lambda complex128, tEnd float64) float64 {
	exact := cmplx.Exp(lambda * complex(tEnd, 0))
	return cmplx.Abs(r.sweeper.EndState().At(0)-exact) / cmplx.Abs(exact)
}

func TestSDCScalar(t *testing.T) {
	lambda := complex(-1, 1)
	// two large steps with four Lobatto nodes stay at the collocation error of order 6
	{
		r := newScalarSDC(t, quadrature.GaussLobatto, 4, lambda, 1, 2, 6)
		require.NoError(t, r.sdc.Run())
		assert.Equal(t, 1, r.sdc.Status.Step)
		assert.Equal(t, 6, r.sdc.Status.Iteration)
		assert.Equal(t, status.FAILED, r.sdc.Status.State)
		assert.Less(t, r.relativeError(lambda, 2), 1.e-3)
		assert.Len(t, r.problem.Errors(), 14)
	}
	// one small step converges to round off for every family
	for _, tc := range []struct {
		qt    quadrature.QuadratureType
		nodes int
	}{
		{quadrature.GaussLobatto, 8},
		{quadrature.GaussLegendre, 10},
		{quadrature.GaussRadau, 9},
		{quadrature.ClenshawCurtis, 9},
		{quadrature.Uniform, 9},
	} {
		r := newScalarSDC(t, tc.qt, tc.nodes, lambda, 0.2, 0.2, 30)
		require.NoError(t, r.sdc.Run())
		assert.Less(t, r.relativeError(lambda, 0.2), 9.e-12, tc.qt.String())
	}
}

func TestSDCConverged(t *testing.T) {
	lambda := complex(-1, 1)
	r := newScalarSDC(t, quadrature.GaussRadau, 5, lambda, 0.1, 0.5, 50)
	r.sdc.AbsResTol = 1.e-12
	r.sweeper.SetResidualTolerances(1.e-12, 0)
	require.NoError(t, r.sdc.Run())
	assert.Equal(t, status.CONVERGED, r.sdc.Status.State)
	assert.Less(t, r.sdc.Status.Iteration, 50)
	assert.Less(t, r.sdc.Status.AbsResNorm, 1.e-12)
	assert.Equal(t, 4, r.sdc.Status.Step)
}

func TestSDCOrder(t *testing.T) {
	var (
		convergenceRate = func(qt quadrature.QuadratureType, nodes, iters int, lambda complex128, tEnd float64, nsteps []int) (rates []float64) {
			errs := make([]float64, len(nsteps))
			for i, n := range nsteps {
				r := newScalarSDC(t, qt, nodes, lambda, tEnd/float64(n), tEnd, iters)
				require.NoError(t, r.sdc.Run())
				errs[i] = r.relativeError(lambda, tEnd)
			}
			for i := 0; i < len(nsteps)-1; i++ {
				rates = append(rates, math.Log10(errs[i+1]/errs[i])/math.Log10(float64(nsteps[i])/float64(nsteps[i+1])))
			}
			return
		}
	)
	// Lobatto rates sit within a quarter of the formal order at these step sizes
	for nodes := 2; nodes <= 6; nodes++ {
		order := float64(2*nodes - 2)
		for _, rate := range convergenceRate(quadrature.GaussLobatto, nodes, 2*nodes-2, complex(-1, 1), 4, []int{2, 5, 10, 15}) {
			assert.GreaterOrEqual(t, rate, order-0.25, "Lobatto %d", nodes)
		}
	}
	for nodes := 2; nodes <= 6; nodes++ {
		order := float64(2 * nodes)
		for _, rate := range convergenceRate(quadrature.GaussLegendre, nodes, 2*nodes, complex(-1, 2), 6, []int{2, 4, 6, 8, 10}) {
			assert.GreaterOrEqual(t, rate, order, "Legendre %d", nodes)
		}
	}
	for nodes := 3; nodes <= 6; nodes++ {
		order := float64(2*nodes - 1)
		for _, rate := range convergenceRate(quadrature.GaussRadau, nodes, 2*nodes-1, complex(-1, 2), 5, []int{4, 6, 8, 10, 12}) {
			assert.GreaterOrEqual(t, rate, order, "Radau %d", nodes)
		}
	}
}

func TestSDCSetup(t *testing.T) {
	{
		c := NewSDC[float64](quiet)
		c.SetDuration(0, 1, 0.1, 0, 2)
		assert.True(t, errors.Is(c.Setup(), ErrLogic))
		assert.True(t, errors.Is(c.Run(), ErrLogic))
		assert.Nil(t, c.Sweeper())
	}
	{
		// a problem without an implicit solve is found at setup
		q, err := quadrature.NewQuadrature(quadrature.GaussLobatto, 3)
		require.NoError(t, err)
		sw := sweeper.NewIMEX[float64](sweeper.Funcs[float64]{
			Expl: func(f, u *sweeper.Encap[float64], t float64) {},
			Impl: func(f, u *sweeper.Encap[float64], t float64) {},
		}, encap.NewFactory[float64](2))
		sw.SetQuadrature(q)
		c := NewSDC[float64](quiet)
		c.AddSweeper(sw)
		c.SetDuration(0, 1, 0.1, 0, 2)
		err = c.Setup()
		assert.True(t, errors.Is(err, encap.ErrNotImplemented))
		assert.False(t, c.IsReady())
	}
}
