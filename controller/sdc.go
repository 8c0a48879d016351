package controller

import (
	"fmt"

	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/status"
	"github.com/notargets/gopfasst/sweeper"
)

// SDC steps a single sweeper through time. Each step is one prediction followed by
// sweeps until the sweeper converges or the iteration cap is reached.
type SDC[T encap.Scalar] struct {
	Controller
	sweepers []sweeper.Sweeper[T]
}

func NewSDC[T encap.Scalar](opts Options) *SDC[T] {
	return &SDC[T]{Controller: newController(opts, "SDC")}
}

func (c *SDC[T]) AddSweeper(sw sweeper.Sweeper[T]) {
	c.sweepers = append(c.sweepers, sw)
}

func (c *SDC[T]) Sweeper() sweeper.Sweeper[T] {
	if len(c.sweepers) == 0 {
		return nil
	}
	return c.sweepers[0]
}

func (c *SDC[T]) Setup() (err error) {
	if len(c.sweepers) != 1 {
		return fmt.Errorf("SDC requires exactly one sweeper, not %d: %w", len(c.sweepers), ErrLogic)
	}
	if err = c.Controller.Setup(); err != nil {
		return
	}
	sw := c.sweepers[0]
	sw.SetStatus(c.Status)
	sw.SetResidualTolerances(c.AbsResTol, c.RelResTol)
	sw.SetLogger(c.Log, c.Verbosity, "SWEEPER")
	if err = sw.Setup(); err != nil {
		c.isReady = false
	}
	return
}

func (c *SDC[T]) Run() (err error) {
	if err = c.checkReady(); err != nil {
		return
	}
	var (
		sw = c.sweepers[0]
		st = c.Status
	)
	sw.Spread()
	for {
		st.State = status.PREDICTING
		sw.PrePredict()
		sw.Predict()
		sw.PostPredict()

		st.State = status.ITERATING
		for !sw.Converged() && c.AdvanceIteration() {
			sw.PreSweep()
			sw.Sweep()
			sw.PostSweep()
		}
		st.State = status.FAILED
		if sw.Converged() {
			st.State = status.CONVERGED
		}
		c.logf(1, "step %d of %d: %d iterations, %s, residual %12.6e",
			st.Step+1, c.NumSteps, st.Iteration, st.State, st.AbsResNorm)
		sw.PostStep()
		if err = checkFinite(st, sw); err != nil {
			return
		}
		if !c.AdvanceTime(1) {
			break
		}
		sw.Advance()
	}
	return
}
