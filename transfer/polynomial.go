package transfer

import (
	"fmt"
	"io"
	"math"

	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/quadrature"
	"github.com/notargets/gopfasst/sweeper"
	"github.com/notargets/gopfasst/utils"
)

var (
	ErrNotImplemented = fmt.Errorf("transfer: %w", encap.ErrNotImplemented)
	ErrValue          = fmt.Errorf("transfer: %w", encap.ErrValue)
)

// Transfer couples a coarse and a fine sweeper of the same time step
type Transfer[T encap.Scalar] interface {
	InterpolateInitial(coarse, fine sweeper.Sweeper[T]) error
	Interpolate(coarse, fine sweeper.Sweeper[T], initial bool) error
	RestrictInitial(fine, coarse sweeper.Sweeper[T]) error
	Restrict(fine, coarse sweeper.Sweeper[T], initial bool) error
	FAS(dt float64, fine, coarse sweeper.Sweeper[T]) error
}

// Polynomial transfers in time by Lagrange interpolation between the node sets
// and in space through its SpatialOp
type Polynomial[T encap.Scalar] struct {
	Spatial SpatialOp[T]
	tmat    utils.Matrix
	tNodes  [2][]float64 // fine, coarse nodes tmat was built for
	log     io.Writer
}

func NewPolynomial[T encap.Scalar](spatial SpatialOp[T]) *Polynomial[T] {
	return &Polynomial[T]{Spatial: spatial, log: io.Discard}
}

func (p *Polynomial[T]) SetLogger(w io.Writer) {
	if w != nil {
		p.log = w
	}
}

func checkEndpoints[T encap.Scalar](fine, coarse sweeper.Sweeper[T]) error {
	if fine.Quadrature().LeftIsNode() != coarse.Quadrature().LeftIsNode() {
		return fmt.Errorf("coarse and fine levels disagree on whether t0 is a node: %w", ErrValue)
	}
	return nil
}

// nestingFactor gives f with coarse node m equal to fine node m*f
func nestingFactor(fineNodes, coarseNodes []float64) (factor int, err error) {
	var (
		nf, nc = len(fineNodes), len(coarseNodes)
	)
	switch {
	case nf == nc:
		factor = 1
	case nc > 1 && (nf-1)%(nc-1) == 0:
		factor = (nf - 1) / (nc - 1)
	default:
		err = fmt.Errorf("restricting %d fine to %d coarse nodes: %w", nf, nc, ErrNotImplemented)
		return
	}
	for m, c := range coarseNodes {
		if math.Abs(fineNodes[m*factor]-c) > utils.NODETOL {
			err = fmt.Errorf("coarse node %d (%g) is not a fine node: %w", m, c, ErrNotImplemented)
			return
		}
	}
	return
}

// InterpolateInitial corrects the fine initial state by the interpolated coarse mismatch
func (p *Polynomial[T]) InterpolateInitial(coarse, fine sweeper.Sweeper[T]) (err error) {
	if err = checkEndpoints(fine, coarse); err != nil {
		return
	}
	var (
		coarseDelta = coarse.Factory().Create()
		fineDelta   = fine.Factory().Create()
	)
	if err = p.Spatial.Restrict(coarseDelta, fine.InitialState()); err != nil {
		return
	}
	coarseDelta.ScaledAdd(-1, coarse.InitialState())
	if err = p.Spatial.Interpolate(fineDelta, coarseDelta); err != nil {
		return
	}
	fine.InitialState().ScaledAdd(-1, fineDelta)
	fine.Reevaluate(true)
	return
}

// Interpolate adds the interpolated coarse correction of this iteration to every fine node
func (p *Polynomial[T]) Interpolate(coarse, fine sweeper.Sweeper[T], initial bool) (err error) {
	if err = checkEndpoints(fine, coarse); err != nil {
		return
	}
	if initial {
		if err = p.InterpolateInitial(coarse, fine); err != nil {
			return
		}
	}
	var (
		fineNodes   = fine.Quadrature().Nodes()
		coarseNodes = coarse.Quadrature().Nodes()
		nc          = len(coarseNodes)
		cf          = coarse.Factory()
		ff          = fine.Factory()
		fineDelta   = make([]*Encap[T], nc)
	)
	p.buildTMat(fineNodes, coarseNodes)
	coarseDelta := cf.Create()
	for m := 0; m < nc; m++ {
		coarseDelta.Copy(coarse.States()[m])
		coarseDelta.ScaledAdd(-1, coarse.PreviousStates()[m])
		fineDelta[m] = ff.Create()
		if err = p.Spatial.Interpolate(fineDelta[m], coarseDelta); err != nil {
			return
		}
	}
	tm := p.tmat
	states := fine.States()
	if fine.Quadrature().LeftIsNode() {
		// the fine initial state aliases node 0 and is only set through InterpolateInitial
		nr, _ := tm.Dims()
		tm = tm.Slice(1, nr, 0, nc)
		states = states[1:]
	}
	encap.MatApply(states, 1, tm, fineDelta, false)
	fine.Reevaluate(false)
	return
}

func (p *Polynomial[T]) buildTMat(fineNodes, coarseNodes []float64) {
	if !p.tmat.IsEmpty() && floatsEqual(p.tNodes[0], fineNodes) && floatsEqual(p.tNodes[1], coarseNodes) {
		return
	}
	p.tmat = quadrature.ComputeInterp(fineNodes, coarseNodes)
	p.tmat.SetReadOnly("T")
	p.tNodes = [2][]float64{fineNodes, coarseNodes}
	fmt.Fprintf(p.log, "%-10s interpolation matrix %d x %d\n", "TRANSFER", len(fineNodes), len(coarseNodes))
}

func floatsEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (p *Polynomial[T]) RestrictInitial(fine, coarse sweeper.Sweeper[T]) (err error) {
	if err = checkEndpoints(fine, coarse); err != nil {
		return
	}
	if err = p.Spatial.Restrict(coarse.InitialState(), fine.InitialState()); err != nil {
		return
	}
	coarse.Reevaluate(true)
	return
}

// Restrict injects the fine node values into the nested coarse nodes
func (p *Polynomial[T]) Restrict(fine, coarse sweeper.Sweeper[T], initial bool) (err error) {
	var (
		factor int
	)
	if err = checkEndpoints(fine, coarse); err != nil {
		return
	}
	if factor, err = nestingFactor(fine.Quadrature().Nodes(), coarse.Quadrature().Nodes()); err != nil {
		return
	}
	if initial {
		if err = p.Spatial.Restrict(coarse.InitialState(), fine.InitialState()); err != nil {
			return
		}
	}
	for m, cs := range coarse.States() {
		if m == 0 && coarse.Quadrature().LeftIsNode() {
			// aliases the coarse initial state
			continue
		}
		if err = p.Spatial.Restrict(cs, fine.States()[m*factor]); err != nil {
			return
		}
	}
	coarse.Reevaluate(false)
	return
}

// FAS sets the coarse tau so the coarse collocation problem reproduces the restricted fine integrals
func (p *Polynomial[T]) FAS(dt float64, fine, coarse sweeper.Sweeper[T]) (err error) {
	var (
		nf = fine.Quadrature().NumNodes()
		nc = coarse.Quadrature().NumNodes()
	)
	if nf != nc {
		return fmt.Errorf("FAS between %d fine and %d coarse nodes: %w", nf, nc, ErrNotImplemented)
	}
	if _, err = nestingFactor(fine.Quadrature().Nodes(), coarse.Quadrature().Nodes()); err != nil {
		return
	}
	var (
		fineInt   = fine.Integrate(dt)
		coarseInt = coarse.Integrate(dt)
		diff      = coarse.Factory().CreateN(nc)
		tau       = coarse.Tau()
	)
	for m := 0; m < nc; m++ {
		if err = p.Spatial.Restrict(diff[m], fineInt[m]); err != nil {
			return
		}
		diff[m].ScaledAdd(-1, coarseInt[m])
	}
	tau[0].Copy(diff[0])
	for m := 1; m < nc; m++ {
		tau[m].Copy(diff[m])
		tau[m].ScaledAdd(-1, diff[m-1])
	}
	return
}
