package controller

import (
	"fmt"

	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/status"
	"github.com/notargets/gopfasst/sweeper"
	"github.com/notargets/gopfasst/transfer"
)

// TwoLevelMLSDC runs one V-cycle per iteration over a coarse and a fine sweeper.
// The first sweeper added is the coarse level.
type TwoLevelMLSDC[T encap.Scalar] struct {
	Controller
	sweepers []sweeper.Sweeper[T]
	transfer transfer.Transfer[T]
}

func NewTwoLevelMLSDC[T encap.Scalar](opts Options) *TwoLevelMLSDC[T] {
	return &TwoLevelMLSDC[T]{Controller: newController(opts, "MLSDC")}
}

func (c *TwoLevelMLSDC[T]) AddSweeper(sw sweeper.Sweeper[T]) {
	c.sweepers = append(c.sweepers, sw)
}

func (c *TwoLevelMLSDC[T]) AddTransfer(tr transfer.Transfer[T]) { c.transfer = tr }
func (c *TwoLevelMLSDC[T]) NumLevels() int                      { return len(c.sweepers) }

func (c *TwoLevelMLSDC[T]) Coarse() sweeper.Sweeper[T] { return c.level(0) }
func (c *TwoLevelMLSDC[T]) Fine() sweeper.Sweeper[T]   { return c.level(1) }

func (c *TwoLevelMLSDC[T]) level(i int) sweeper.Sweeper[T] {
	if i >= len(c.sweepers) {
		return nil
	}
	return c.sweepers[i]
}

func (c *TwoLevelMLSDC[T]) Setup() (err error) {
	return setupLevels(&c.Controller, c.sweepers, c.transfer)
}

func setupLevels[T encap.Scalar](c *Controller, sweepers []sweeper.Sweeper[T], tr transfer.Transfer[T]) (err error) {
	if len(sweepers) != 2 {
		return fmt.Errorf("two level controller requires two sweepers, not %d: %w", len(sweepers), ErrLogic)
	}
	if tr == nil {
		return fmt.Errorf("two level controller without a transfer: %w", ErrLogic)
	}
	if err = c.Setup(); err != nil {
		return
	}
	for i, sw := range sweepers {
		tag := "LVL_COARSE"
		if i == 1 {
			tag = "LVL_FINE"
		}
		sw.SetStatus(c.Status)
		sw.SetResidualTolerances(c.AbsResTol, c.RelResTol)
		sw.SetLogger(c.Log, c.Verbosity, tag)
		if err = sw.Setup(); err != nil {
			c.isReady = false
			return
		}
	}
	return
}

func (c *TwoLevelMLSDC[T]) Run() (err error) {
	if err = c.checkReady(); err != nil {
		return
	}
	var (
		st = c.Status
	)
	for {
		if err = c.predictStep(); err != nil {
			return
		}
		st.State = status.ITERATING
		for !c.converged() && c.AdvanceIteration() {
			if err = c.cycleDown(); err != nil {
				return
			}
			sweepLevel(st, c.Coarse(), false)
			if err = c.cycleUp(); err != nil {
				return
			}
			sweepLevel(st, c.Fine(), true)
		}
		st.State = status.FAILED
		if c.Fine().Converged() {
			st.State = status.CONVERGED
		}
		c.logf(1, "step %d of %d: %d iterations, %s, residual %12.6e",
			st.Step+1, c.NumSteps, st.Iteration, st.State, st.AbsResNorm)
		c.Coarse().PostStep()
		c.Fine().PostStep()
		if err = checkFinite(st, c.Fine()); err != nil {
			return
		}
		if !c.AdvanceTime(1) {
			break
		}
		c.Fine().Advance()
		c.Coarse().Advance()
	}
	return
}

// predictStep predicts on the coarse level and sweeps once on the fine level
func (c *TwoLevelMLSDC[T]) predictStep() (err error) {
	var (
		fine, coarse = c.Fine(), c.Coarse()
	)
	c.Status.State = status.PREDICTING
	fine.Spread()
	if err = c.transfer.RestrictInitial(fine, coarse); err != nil {
		return
	}
	coarse.Spread()
	coarse.Save()
	predictLevel(c.Status, coarse)
	coarse.Save()
	if err = c.cycleUp(); err != nil {
		return
	}
	sweepLevel(c.Status, fine, true)
	return
}

// converged evaluates both levels, only the fine level decides
func (c *TwoLevelMLSDC[T]) converged() bool {
	c.Coarse().Converged()
	return c.Fine().Converged()
}

func (c *TwoLevelMLSDC[T]) cycleDown() (err error) {
	if err = c.transfer.Restrict(c.Fine(), c.Coarse(), true); err != nil {
		return
	}
	if err = c.transfer.FAS(c.Status.Dt, c.Fine(), c.Coarse()); err != nil {
		return
	}
	c.Coarse().Save()
	return
}

func (c *TwoLevelMLSDC[T]) cycleUp() error {
	return c.transfer.Interpolate(c.Coarse(), c.Fine(), true)
}

func predictLevel[T encap.Scalar](st *status.Status, sw sweeper.Sweeper[T]) {
	prev := st.State
	st.State = status.PRE_ITER_COARSE
	sw.PrePredict()
	st.State = status.ITER_COARSE
	sw.Predict()
	st.State = status.POST_ITER_COARSE
	sw.PostPredict()
	st.State = prev
}

func sweepLevel[T encap.Scalar](st *status.Status, sw sweeper.Sweeper[T], fine bool) {
	var (
		prev             = st.State
		pre, iter, after = status.PRE_ITER_COARSE, status.ITER_COARSE, status.POST_ITER_COARSE
	)
	if fine {
		pre, iter, after = status.PRE_ITER_FINE, status.ITER_FINE, status.POST_ITER_FINE
	}
	st.State = pre
	sw.PreSweep()
	st.State = iter
	sw.Sweep()
	st.State = after
	sw.PostSweep()
	st.State = prev
}
