package Scalar

import (
	"fmt"
	"io"
	"math/cmplx"

	"github.com/notargets/gopfasst/sweeper"
)

type Encap = sweeper.Encap[complex128]

// StepIter keys the recorded errors
type StepIter struct {
	Step, Iteration int
}

// Scalar is the Dahlquist equation u' = lambda*u. The oscillatory part is explicit,
// the damping part implicit.
type Scalar struct {
	Lambda complex128
	U0     complex128

	NumExpl, NumImpl, NumSolves int

	errors    map[StepIter]float64
	lastError float64
	log       io.Writer
}

func NewScalar(lambda, u0 complex128) *Scalar {
	return &Scalar{
		Lambda: lambda,
		U0:     u0,
		errors: make(map[StepIter]float64),
		log:    io.Discard,
	}
}

func (s *Scalar) SetLogger(w io.Writer) {
	if w != nil {
		s.log = w
	}
}

func (s *Scalar) Exact(q *Encap, t float64) {
	for i := range q.Data() {
		q.Data()[i] = s.U0 * cmplx.Exp(s.Lambda*complex(t, 0))
	}
}

func (s *Scalar) EvaluateExpl(f, u *Encap, t float64) {
	li := complex(0, imag(s.Lambda))
	for i, v := range u.Data() {
		f.Data()[i] = li * v
	}
	s.NumExpl++
}

func (s *Scalar) EvaluateImpl(f, u *Encap, t float64) {
	lr := complex(real(s.Lambda), 0)
	for i, v := range u.Data() {
		f.Data()[i] = lr * v
	}
	s.NumImpl++
}

func (s *Scalar) ImplicitSolve(f, u *Encap, t, ds float64, rhs *Encap) {
	lr := complex(real(s.Lambda), 0)
	for i, r := range rhs.Data() {
		u.Data()[i] = r / (1 - complex(ds, 0)*lr)
		f.Data()[i] = lr * u.Data()[i]
	}
	s.NumSolves++
}

// RelativeError compares the end state of the step with the exact solution at its end
func (s *Scalar) RelativeError(sw sweeper.Sweeper[complex128]) (relErr float64) {
	var (
		st  = sw.Status()
		end = sw.EndState()
	)
	ex := sw.Factory().Create()
	s.Exact(ex, st.Time+st.Dt)
	for i, v := range end.Data() {
		relErr = max(relErr, cmplx.Abs(v-ex.Data()[i])/cmplx.Abs(ex.Data()[i]))
	}
	return
}

func (s *Scalar) record(sw sweeper.Sweeper[complex128], what string) {
	st := sw.Status()
	key := StepIter{st.Step, st.Iteration}
	s.lastError = s.RelativeError(sw)
	s.errors[key] = s.lastError
	fmt.Fprintf(s.log, "%-10s %s step %d iteration %d: relative error %12.6e\n", "SCALAR", what, st.Step+1, st.Iteration, s.lastError)
}

func (s *Scalar) PostPredict(sw sweeper.Sweeper[complex128]) { s.record(sw, "predict") }
func (s *Scalar) PostSweep(sw sweeper.Sweeper[complex128])   { s.record(sw, "sweep") }
func (s *Scalar) PostStep(sw sweeper.Sweeper[complex128]) {
	fmt.Fprintf(s.log, "%-10s %d explicit, %d implicit evaluations, %d solves\n", "SCALAR", s.NumExpl, s.NumImpl, s.NumSolves)
}

func (s *Scalar) Errors() map[StepIter]float64 { return s.errors }
func (s *Scalar) LastError() float64           { return s.lastError }
