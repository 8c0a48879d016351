package sweeper

import (
	"fmt"
	"io"

	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/quadrature"
	"github.com/notargets/gopfasst/status"
)

var (
	ErrNotImplemented = fmt.Errorf("sweeper: %w", encap.ErrNotImplemented)
	ErrLogic          = fmt.Errorf("sweeper: %w", encap.ErrLogic)
)

type Encap[T encap.Scalar] = encap.Encapsulation[T]

// Sweeper integrates one time step at the nodes of its quadrature. The controller
// drives it through predict and sweep, and owns time, step and iteration in the status.
type Sweeper[T encap.Scalar] interface {
	SetQuadrature(q *quadrature.Quadrature)
	Quadrature() *quadrature.Quadrature
	SetStatus(s *status.Status)
	Status() *status.Status
	Factory() *encap.Factory[T]
	SetLogger(w io.Writer, verbosity int, tag string)
	SetResidualTolerances(abs, rel float64)

	Setup() error
	PrePredict()
	Predict()
	PostPredict()
	PreSweep()
	Sweep()
	PostSweep()
	PostStep()

	// Spread copies the initial state to every node
	Spread()
	Save()
	Advance()
	Reevaluate(initialOnly bool)
	Integrate(dt float64) []*Encap[T]
	IntegrateEnd()
	Converged() bool

	InitialState() *Encap[T]
	EndState() *Encap[T]
	States() []*Encap[T]
	PreviousStates() []*Encap[T]
	Tau() []*Encap[T]
	Residuals() []*Encap[T]
	ResidualNorms() (abs, rel float64)
}

// IMEXProblem supplies the split right hand side F = F_expl + F_impl
type IMEXProblem[T encap.Scalar] interface {
	// EvaluateExpl stores F_expl(t, u) in f
	EvaluateExpl(f, u *Encap[T], t float64)
	// EvaluateImpl stores F_impl(t, u) in f
	EvaluateImpl(f, u *Encap[T], t float64)
	// ImplicitSolve solves u - ds*F_impl(t, u) = rhs for u and stores F_impl(t, u) in f
	ImplicitSolve(f, u *Encap[T], t, ds float64, rhs *Encap[T])
}

// Observer receives the lifecycle events of a sweeper, problems implement it to record errors
type Observer[T encap.Scalar] interface {
	PostPredict(sw Sweeper[T])
	PostSweep(sw Sweeper[T])
	PostStep(sw Sweeper[T])
}

// Funcs adapts plain functions to IMEXProblem, a nil function is reported by Setup
type Funcs[T encap.Scalar] struct {
	Expl  func(f, u *Encap[T], t float64)
	Impl  func(f, u *Encap[T], t float64)
	Solve func(f, u *Encap[T], t, ds float64, rhs *Encap[T])
}

func (fs Funcs[T]) EvaluateExpl(f, u *Encap[T], t float64) { fs.Expl(f, u, t) }
func (fs Funcs[T]) EvaluateImpl(f, u *Encap[T], t float64) { fs.Impl(f, u, t) }
func (fs Funcs[T]) ImplicitSolve(f, u *Encap[T], t, ds float64, rhs *Encap[T]) {
	fs.Solve(f, u, t, ds, rhs)
}

func (fs Funcs[T]) check() (err error) {
	switch {
	case fs.Expl == nil:
		err = fmt.Errorf("evaluation of explicit part of right-hand-side: %w", ErrNotImplemented)
	case fs.Impl == nil:
		err = fmt.Errorf("evaluation of implicit part of right-hand-side: %w", ErrNotImplemented)
	case fs.Solve == nil:
		err = fmt.Errorf("implicit solve: %w", ErrNotImplemented)
	}
	return
}

// ExplicitFuncs treats all of F explicitly
func ExplicitFuncs[T encap.Scalar](expl func(f, u *Encap[T], t float64)) Funcs[T] {
	return Funcs[T]{
		Expl: expl,
		Impl: func(f, u *Encap[T], t float64) { f.Zero() },
		Solve: func(f, u *Encap[T], t, ds float64, rhs *Encap[T]) {
			u.Copy(rhs)
			f.Zero()
		},
	}
}

// ImplicitFuncs treats all of F implicitly
func ImplicitFuncs[T encap.Scalar](impl func(f, u *Encap[T], t float64),
	solve func(f, u *Encap[T], t, ds float64, rhs *Encap[T])) Funcs[T] {
	return Funcs[T]{
		Expl:  func(f, u *Encap[T], t float64) { f.Zero() },
		Impl:  impl,
		Solve: solve,
	}
}
