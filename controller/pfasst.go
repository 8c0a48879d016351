package controller

import (
	"fmt"

	"github.com/notargets/gopfasst/comm"
	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/status"
)

const (
	coarseLevel = iota
	fineLevel
	statusLevel
)

// TwoLevelPFASST pipelines two level V-cycles across the time ranks of a communicator.
// Rank r of R integrates step b*R+r of block b.
type TwoLevelPFASST[T encap.Scalar] struct {
	TwoLevelMLSDC[T]
	comm       comm.Communicator
	prevStatus *status.Status
	timeBlock  int
}

func NewTwoLevelPFASST[T encap.Scalar](opts Options, c comm.Communicator) *TwoLevelPFASST[T] {
	p := &TwoLevelPFASST[T]{
		TwoLevelMLSDC: TwoLevelMLSDC[T]{Controller: newController(opts, "PFASST")},
		comm:          c,
		prevStatus:    status.NewStatus(),
	}
	if c != nil && c.Size() > 1 {
		p.Name = fmt.Sprintf("%s[%d]", p.Name, c.Rank())
	}
	return p
}

func (p *TwoLevelPFASST[T]) Communicator() comm.Communicator { return p.comm }
func (p *TwoLevelPFASST[T]) TimeBlock() int                  { return p.timeBlock }

// Setup validates that the steps split into whole blocks over the ranks and
// moves this rank to its first step
func (p *TwoLevelPFASST[T]) Setup() (err error) {
	if p.comm == nil {
		return fmt.Errorf("PFASST without a communicator: %w", ErrLogic)
	}
	if err = setupLevels(&p.Controller, p.sweepers, p.transfer); err != nil {
		return
	}
	var (
		R = p.comm.Size()
		r = p.comm.Rank()
	)
	if p.NumSteps < R || p.NumSteps%R != 0 {
		p.isReady = false
		return fmt.Errorf("%d time steps are not a positive multiple of %d ranks: %w", p.NumSteps, R, ErrLogic)
	}
	p.Status.Time += float64(r) * p.Status.Dt
	p.Status.Step += r
	p.timeBlock = 0
	p.logf(1, "%d blocks of %d steps", p.NumSteps/R, R)
	return
}

// tag separates the messages of each level and iteration, status messages use two tags
func (p *TwoLevelPFASST[T]) tag(level int) int {
	var (
		stride = 2 * (p.Status.MaxIterations + 1)
		k      = p.Status.Iteration
	)
	if level == statusLevel {
		return level*stride + 2*k
	}
	return level*stride + k
}

func (p *TwoLevelPFASST[T]) Run() (err error) {
	if err = p.checkReady(); err != nil {
		return
	}
	defer func() {
		if err != nil {
			p.comm.Abort(1)
		}
	}()
	var (
		st = p.Status
		R  = p.comm.Size()
	)
	for {
		st.Step = p.timeBlock*R + p.comm.Rank()
		st.Iteration = 0
		st.State = status.PREDICTING
		p.prevStatus.State = status.UNKNOWN
		if err = p.predictor(); err != nil {
			return
		}
		if st.MaxIterations == 0 {
			st.State = status.FAILED
			if p.converged() {
				st.State = status.CONVERGED
			}
		}
		for !st.State.Done() && p.AdvanceIteration() {
			if err = p.iterate(); err != nil {
				return
			}
		}
		p.logf(1, "step %d of %d: %d iterations, %s, residual %12.6e",
			st.Step+1, p.NumSteps, st.Iteration, st.State, st.AbsResNorm)
		p.Coarse().PostStep()
		p.Fine().PostStep()
		if err = checkFinite(st, p.Fine()); err != nil {
			return
		}
		if err = p.broadcast(); err != nil {
			return
		}
		if !p.AdvanceTime(R) {
			break
		}
		p.timeBlock++
		p.Fine().Advance()
		p.Coarse().Advance()
	}
	return
}

// prevActive is true while the previous rank still sends boundary data
func (p *TwoLevelPFASST[T]) prevActive() bool {
	return !p.comm.IsFirst() && !p.prevStatus.State.Done()
}

// predictor runs rank+1 pipelined coarse sweeps before the first fine sweep
func (p *TwoLevelPFASST[T]) predictor() (err error) {
	var (
		fine, coarse = p.Fine(), p.Coarse()
		rank         = p.comm.Rank()
		ctag         = p.tag(coarseLevel)
	)
	fine.Spread()
	if err = p.transfer.RestrictInitial(fine, coarse); err != nil {
		return
	}
	coarse.Spread()
	coarse.Save()
	for step := 0; step <= rank; step++ {
		if step == 0 {
			predictLevel(p.Status, coarse)
		} else {
			if err = coarse.InitialState().Recv(p.comm, rank-1, ctag, true); err != nil {
				return
			}
			coarse.Reevaluate(true)
			sweepLevel(p.Status, coarse, false)
		}
		coarse.Save()
		if !p.comm.IsLast() {
			if err = coarse.EndState().Send(p.comm, rank+1, ctag, true); err != nil {
				return
			}
		}
	}
	if err = p.transfer.Interpolate(coarse, fine, true); err != nil {
		return
	}
	sweepLevel(p.Status, fine, true)
	fine.Save()
	return
}

func (p *TwoLevelPFASST[T]) iterate() (err error) {
	var (
		st           = p.Status
		fine, coarse = p.Fine(), p.Coarse()
		rank         = p.comm.Rank()
		prevActive   = p.prevActive()
		ftag         = p.tag(fineLevel)
		ctag         = p.tag(coarseLevel)
		stag         = p.tag(statusLevel)
	)
	st.State = status.ITERATING
	fine.Save()
	sweepLevel(st, fine, true)

	// the fine end state leaves before the restriction
	if !p.comm.IsLast() {
		if err = fine.EndState().Send(p.comm, rank+1, ftag, false); err != nil {
			return
		}
	}
	if err = p.cycleDown(); err != nil {
		return
	}
	if prevActive {
		if err = coarse.InitialState().Recv(p.comm, rank-1, ctag, true); err != nil {
			return
		}
		coarse.Reevaluate(true)
	}
	sweepLevel(st, coarse, false)
	if !p.comm.IsLast() {
		if err = coarse.EndState().Send(p.comm, rank+1, ctag, true); err != nil {
			return
		}
	}

	if err = p.transfer.Interpolate(coarse, fine, false); err != nil {
		return
	}
	if prevActive {
		if err = fine.InitialState().Recv(p.comm, rank-1, ftag, false); err != nil {
			return
		}
		if err = fine.InitialState().Wait(); err != nil {
			return
		}
		if err = p.transfer.InterpolateInitial(coarse, fine); err != nil {
			return
		}
		if err = p.prevStatus.Recv(p.comm, rank-1, stag, true); err != nil {
			return
		}
	}
	// the broadcast end state follows the interpolated nodes
	fine.IntegrateEnd()

	prevDone := p.comm.IsFirst() || p.prevStatus.State.Done()
	switch {
	case p.converged() && prevDone:
		st.State = status.CONVERGED
	case st.Iteration >= st.MaxIterations:
		st.State = status.FAILED
	default:
		st.State = status.ITERATING
	}
	p.logf(2, "iteration %d: %s (previous rank %s), residual %12.6e",
		st.Iteration, st.State, p.prevStatus.State, st.AbsResNorm)
	if !p.comm.IsLast() {
		if err = st.Send(p.comm, rank+1, stag, true); err != nil {
			return
		}
	}
	return
}

// broadcast hands the end state of the last rank to every rank as the next initial state
func (p *TwoLevelPFASST[T]) broadcast() error {
	return p.Fine().EndState().Bcast(p.comm, p.comm.Size()-1)
}
