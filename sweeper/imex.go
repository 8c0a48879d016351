package sweeper

import (
	"fmt"
	"io"
	"math"

	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/quadrature"
	"github.com/notargets/gopfasst/status"
)

// IMEX is a semi-implicit SDC sweeper: F_expl is treated with forward Euler substeps
// and F_impl with backward Euler substeps between consecutive nodes
type IMEX[T encap.Scalar] struct {
	problem IMEXProblem[T]
	factory *encap.Factory[T]
	quad    *quadrature.Quadrature
	status  *status.Status

	initial, end   *Encap[T]
	states         []*Encap[T]
	previousStates []*Encap[T]
	tau            []*Encap[T]
	residuals      []*Encap[T]
	fsExpl, fsImpl []*Encap[T]
	fsExplStart    *Encap[T] // F_expl at the initial state when t0 is not a node
	sIntegrals     []*Encap[T]
	rhs            *Encap[T]

	absTol, relTol         float64
	absResNorm, relResNorm float64

	NumExplEvals, NumImplEvals, NumSolves int

	log       io.Writer
	verbosity int
	tag       string
	isSetup   bool
}

func NewIMEX[T encap.Scalar](problem IMEXProblem[T], factory *encap.Factory[T]) *IMEX[T] {
	return &IMEX[T]{
		problem: problem,
		factory: factory,
		log:     io.Discard,
		tag:     "SWEEPER",
	}
}

func (s *IMEX[T]) SetQuadrature(q *quadrature.Quadrature) { s.quad = q }
func (s *IMEX[T]) Quadrature() *quadrature.Quadrature     { return s.quad }
func (s *IMEX[T]) SetStatus(st *status.Status)            { s.status = st }
func (s *IMEX[T]) Status() *status.Status                 { return s.status }
func (s *IMEX[T]) Factory() *encap.Factory[T]             { return s.factory }
func (s *IMEX[T]) Problem() IMEXProblem[T]                { return s.problem }

func (s *IMEX[T]) SetLogger(w io.Writer, verbosity int, tag string) {
	if w == nil {
		w = io.Discard
	}
	s.log, s.verbosity = w, verbosity
	if tag != "" {
		s.tag = tag
	}
}

func (s *IMEX[T]) SetResidualTolerances(abs, rel float64) {
	s.absTol, s.relTol = abs, rel
}

func (s *IMEX[T]) logf(level int, format string, args ...interface{}) {
	if s.verbosity >= level {
		fmt.Fprintf(s.log, "%-10s "+format+"\n", append([]interface{}{s.tag}, args...)...)
	}
}

func (s *IMEX[T]) Setup() (err error) {
	switch {
	case s.quad == nil:
		return fmt.Errorf("setup without a quadrature: %w", ErrLogic)
	case s.status == nil:
		return fmt.Errorf("setup without a status: %w", ErrLogic)
	case s.factory == nil || s.factory.Size() < 1:
		return fmt.Errorf("setup without a sized encapsulation factory: %w", ErrLogic)
	case s.problem == nil:
		return fmt.Errorf("setup without a problem: %w", ErrNotImplemented)
	}
	if fs, ok := s.problem.(Funcs[T]); ok {
		if err = fs.check(); err != nil {
			return
		}
	}
	var (
		n = s.quad.NumNodes()
		f = s.factory
	)
	s.initial = f.Create()
	s.end = f.Create()
	s.states = f.CreateN(n)
	if s.quad.LeftIsNode() {
		s.states[0] = s.initial
		s.sIntegrals = f.CreateN(n - 1)
	} else {
		s.fsExplStart = f.Create()
		s.sIntegrals = f.CreateN(n)
	}
	s.previousStates = f.CreateN(n)
	s.tau = f.CreateN(n)
	s.residuals = f.CreateN(n)
	s.fsExpl = f.CreateN(n)
	s.fsImpl = f.CreateN(n)
	s.rhs = f.Create()
	s.isSetup = true
	s.logf(1, "setup %s with %d dofs", s.quad, f.Size())
	return
}

func (s *IMEX[T]) InitialState() *Encap[T]     { return s.initial }
func (s *IMEX[T]) EndState() *Encap[T]         { return s.end }
func (s *IMEX[T]) States() []*Encap[T]         { return s.states }
func (s *IMEX[T]) PreviousStates() []*Encap[T] { return s.previousStates }
func (s *IMEX[T]) Tau() []*Encap[T]            { return s.tau }
func (s *IMEX[T]) Residuals() []*Encap[T]      { return s.residuals }
func (s *IMEX[T]) ExplicitRHS() []*Encap[T]    { return s.fsExpl }
func (s *IMEX[T]) ImplicitRHS() []*Encap[T]    { return s.fsImpl }
func (s *IMEX[T]) ResidualNorms() (abs, rel float64) {
	return s.absResNorm, s.relResNorm
}

func (s *IMEX[T]) evalExpl(f, u *Encap[T], t float64) {
	s.problem.EvaluateExpl(f, u, t)
	s.NumExplEvals++
}

func (s *IMEX[T]) evalImpl(f, u *Encap[T], t float64) {
	s.problem.EvaluateImpl(f, u, t)
	s.NumImplEvals++
}

func (s *IMEX[T]) solve(f, u *Encap[T], t, ds float64, rhs *Encap[T]) {
	s.problem.ImplicitSolve(f, u, t, ds, rhs)
	s.NumSolves++
}

func re[T encap.Scalar](v float64) T { return encap.FromFloat[T](v) }

func (s *IMEX[T]) PrePredict() {
	s.logf(2, "predicting step %d (t=%8.4f, dt=%8.4f)", s.status.Step+1, s.status.Time, s.status.Dt)
}

// Predict runs the IMEX Euler substeps from the initial state across all nodes
func (s *IMEX[T]) Predict() {
	var (
		t0, dt = s.status.Time, s.status.Dt
		nodes  = s.quad.Nodes()
		rhs    = s.rhs
	)
	if s.quad.LeftIsNode() {
		s.evalExpl(s.fsExpl[0], s.states[0], t0)
		s.evalImpl(s.fsImpl[0], s.states[0], t0)
	} else {
		ds := dt * nodes[0]
		s.evalExpl(s.fsExplStart, s.initial, t0)
		rhs.Copy(s.initial)
		rhs.ScaledAdd(re[T](ds), s.fsExplStart)
		s.solve(s.fsImpl[0], s.states[0], t0+ds, ds, rhs)
		s.evalExpl(s.fsExpl[0], s.states[0], t0+ds)
	}
	for m := 0; m < len(nodes)-1; m++ {
		ds := dt * (nodes[m+1] - nodes[m])
		tm := t0 + dt*nodes[m+1]
		rhs.Copy(s.states[m])
		rhs.ScaledAdd(re[T](ds), s.fsExpl[m])
		s.solve(s.fsImpl[m+1], s.states[m+1], tm, ds, rhs)
		s.evalExpl(s.fsExpl[m+1], s.states[m+1], tm)
	}
}

func (s *IMEX[T]) PostPredict() {
	s.IntegrateEnd()
	if obs, ok := s.problem.(Observer[T]); ok {
		obs.PostPredict(s)
	}
}

func (s *IMEX[T]) PreSweep() {
	s.logf(2, "sweeping on step %d in iteration %d (dt=%8.4f)", s.status.Step+1, s.status.Iteration, s.status.Dt)
}

// Sweep performs one correction iteration over all nodes using the node to node integrals
func (s *IMEX[T]) Sweep() {
	var (
		t0, dt = s.status.Time, s.status.Dt
		nodes  = s.quad.Nodes()
		n      = len(nodes)
		S      = s.quad.SMat()
		rhs    = s.rhs
		dtT    = re[T](dt)
	)
	if s.quad.LeftIsNode() {
		S = S.Slice(1, n, 0, n)
		encap.MatApply(s.sIntegrals, dtT, S, s.fsExpl, true)
		encap.MatApply(s.sIntegrals, dtT, S, s.fsImpl, false)
		for m := 0; m < n-1; m++ {
			ds := re[T](dt * (nodes[m+1] - nodes[m]))
			s.sIntegrals[m].ScaledAdd(-ds, s.fsExpl[m])
			s.sIntegrals[m].ScaledAdd(-ds, s.fsImpl[m+1])
			s.sIntegrals[m].ScaledAdd(1, s.tau[m+1])
		}
		for m := 0; m < n-1; m++ {
			ds := dt * (nodes[m+1] - nodes[m])
			tm := t0 + dt*nodes[m+1]
			rhs.Copy(s.states[m])
			rhs.ScaledAdd(re[T](ds), s.fsExpl[m])
			rhs.ScaledAdd(1, s.sIntegrals[m])
			s.solve(s.fsImpl[m+1], s.states[m+1], tm, ds, rhs)
			s.evalExpl(s.fsExpl[m+1], s.states[m+1], tm)
		}
		return
	}

	encap.MatApply(s.sIntegrals, dtT, S, s.fsExpl, true)
	encap.MatApply(s.sIntegrals, dtT, S, s.fsImpl, false)
	ds0 := re[T](dt * nodes[0])
	s.sIntegrals[0].ScaledAdd(-ds0, s.fsExplStart)
	s.sIntegrals[0].ScaledAdd(-ds0, s.fsImpl[0])
	for m := 0; m < n-1; m++ {
		ds := re[T](dt * (nodes[m+1] - nodes[m]))
		s.sIntegrals[m+1].ScaledAdd(-ds, s.fsExpl[m])
		s.sIntegrals[m+1].ScaledAdd(-ds, s.fsImpl[m+1])
	}
	for m := 0; m < n; m++ {
		s.sIntegrals[m].ScaledAdd(1, s.tau[m])
	}

	// step to the first node
	ds := dt * nodes[0]
	s.evalExpl(s.fsExplStart, s.initial, t0)
	rhs.Copy(s.initial)
	rhs.ScaledAdd(re[T](ds), s.fsExplStart)
	rhs.ScaledAdd(1, s.sIntegrals[0])
	s.solve(s.fsImpl[0], s.states[0], t0+ds, ds, rhs)
	s.evalExpl(s.fsExpl[0], s.states[0], t0+ds)

	for m := 0; m < n-1; m++ {
		ds = dt * (nodes[m+1] - nodes[m])
		tm := t0 + dt*nodes[m+1]
		rhs.Copy(s.states[m])
		rhs.ScaledAdd(re[T](ds), s.fsExpl[m])
		rhs.ScaledAdd(1, s.sIntegrals[m+1])
		s.solve(s.fsImpl[m+1], s.states[m+1], tm, ds, rhs)
		s.evalExpl(s.fsExpl[m+1], s.states[m+1], tm)
	}
}

func (s *IMEX[T]) PostSweep() {
	s.IntegrateEnd()
	if obs, ok := s.problem.(Observer[T]); ok {
		obs.PostSweep(s)
	}
}

func (s *IMEX[T]) PostStep() {
	s.logf(1, "step %d done: %d explicit, %d implicit evaluations, %d solves",
		s.status.Step+1, s.NumExplEvals, s.NumImplEvals, s.NumSolves)
	if obs, ok := s.problem.(Observer[T]); ok {
		obs.PostStep(s)
	}
}

// IntegrateEnd recomputes the end state from the current nodes
func (s *IMEX[T]) IntegrateEnd() {
	if s.quad.RightIsNode() {
		s.end.Copy(s.states[len(s.states)-1])
		return
	}
	dt := re[T](s.status.Dt)
	dst := []*Encap[T]{s.end}
	s.end.Copy(s.initial)
	encap.MatApply(dst, dt, s.quad.BMat(), s.fsExpl, false)
	encap.MatApply(dst, dt, s.quad.BMat(), s.fsImpl, false)
}

func (s *IMEX[T]) Spread() {
	for _, u := range s.states {
		u.Copy(s.initial)
	}
	s.Reevaluate(false)
}

func (s *IMEX[T]) Save() {
	encap.CopyAll(s.previousStates, s.states)
}

// Advance moves the end state into the initial state for the next step
func (s *IMEX[T]) Advance() {
	s.initial.Copy(s.end)
	if s.quad.LeftIsNode() && s.quad.RightIsNode() {
		last := len(s.states) - 1
		s.fsExpl[0].Copy(s.fsExpl[last])
		s.fsImpl[0].Copy(s.fsImpl[last])
	}
}

// Reevaluate refreshes the cached right hand sides after the states changed from outside
func (s *IMEX[T]) Reevaluate(initialOnly bool) {
	var (
		t0, dt = s.status.Time, s.status.Dt
		nodes  = s.quad.Nodes()
	)
	if initialOnly {
		if s.quad.LeftIsNode() {
			s.evalExpl(s.fsExpl[0], s.states[0], t0)
			s.evalImpl(s.fsImpl[0], s.states[0], t0)
		} else {
			s.evalExpl(s.fsExplStart, s.initial, t0)
		}
		return
	}
	for m, c := range nodes {
		t := t0 + dt*c
		s.evalExpl(s.fsExpl[m], s.states[m], t)
		s.evalImpl(s.fsImpl[m], s.states[m], t)
	}
}

// Integrate returns dt*Q*F at every node
func (s *IMEX[T]) Integrate(dt float64) (dst []*Encap[T]) {
	var (
		Q   = s.quad.QMat()
		dtT = re[T](dt)
	)
	dst = encap.MatMulVec(dtT, Q, s.fsExpl)
	encap.MatApply(dst, dtT, Q, s.fsImpl, false)
	return
}

func (s *IMEX[T]) computeResiduals() {
	var (
		dt = re[T](s.status.Dt)
		Q  = s.quad.QMat()
	)
	for m, r := range s.residuals {
		r.Copy(s.initial)
		r.ScaledAdd(-1, s.states[m])
		for j := 0; j <= m; j++ {
			r.ScaledAdd(1, s.tau[j])
		}
	}
	encap.MatApply(s.residuals, dt, Q, s.fsExpl, false)
	encap.MatApply(s.residuals, dt, Q, s.fsImpl, false)
	s.absResNorm, s.relResNorm = 0, 0
	for m, r := range s.residuals {
		abs := r.Norm0()
		s.absResNorm = math.Max(s.absResNorm, abs)
		rel := abs
		if un := s.states[m].Norm0(); un > 0 {
			rel = abs / un
		}
		s.relResNorm = math.Max(s.relResNorm, rel)
	}
	s.status.AbsResNorm, s.status.RelResNorm = s.absResNorm, s.relResNorm
}

// Converged computes the residuals and compares their maximum norms with the tolerances.
// Without tolerances the sweeper never converges.
func (s *IMEX[T]) Converged() (converged bool) {
	s.computeResiduals()
	switch {
	case s.absTol > 0 && s.absResNorm < s.absTol:
		converged = true
	case s.relTol > 0 && s.relResNorm < s.relTol:
		converged = true
	}
	s.logf(2, "residuals %12.6e (abs) %12.6e (rel) converged=%v", s.absResNorm, s.relResNorm, converged)
	return
}
