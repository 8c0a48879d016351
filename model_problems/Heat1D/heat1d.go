package Heat1D

import (
	"fmt"
	"io"
	"math"

	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/sweeper"
)

type Encap = sweeper.Encap[float64]

type StepIter struct {
	Step, Iteration int
}

// Heat1D is u_t = nu*u_xx on the periodic unit interval with u(x,0) = sin(2*pi*x).
// Diffusion is treated implicitly, there is no explicit part.
type Heat1D struct {
	N   int
	Nu  float64
	Lap Laplacian

	NumImpl, NumSolves int

	errors map[StepIter]float64
	log    io.Writer
}

func NewHeat1D(N int, nu float64, lt LaplacianType) *Heat1D {
	return &Heat1D{
		N:      N,
		Nu:     nu,
		Lap:    NewLaplacian(lt, N),
		errors: make(map[StepIter]float64),
		log:    io.Discard,
	}
}

func (h *Heat1D) SetLogger(w io.Writer) {
	if w != nil {
		h.log = w
	}
}

func (h *Heat1D) Factory() *encap.Factory[float64] { return encap.NewFactory[float64](h.N) }

func (h *Heat1D) X() (x []float64) {
	x = make([]float64, h.N)
	for i := range x {
		x[i] = float64(i) / float64(h.N)
	}
	return
}

func (h *Heat1D) Exact(q *Encap, t float64) {
	decay := math.Exp(-t * 4 * math.Pi * math.Pi * h.Nu)
	for i, x := range h.X() {
		q.Data()[i] = math.Sin(2*math.Pi*x) * decay
	}
}

func (h *Heat1D) EvaluateExpl(f, u *Encap, t float64) { f.Zero() }

func (h *Heat1D) EvaluateImpl(f, u *Encap, t float64) {
	h.Lap.Apply(f.Data(), u.Data())
	for i := range f.Data() {
		f.Data()[i] *= h.Nu
	}
	h.NumImpl++
}

func (h *Heat1D) ImplicitSolve(f, u *Encap, t, ds float64, rhs *Encap) {
	h.Lap.Solve(u.Data(), rhs.Data(), h.Nu*ds)
	if ds == 0 {
		h.EvaluateImpl(f, u, t)
	} else {
		for i, v := range u.Data() {
			f.Data()[i] = (v - rhs.Data()[i]) / ds
		}
	}
	h.NumSolves++
}

// Error is the maximum deviation of the end state from the exact solution at the end of the step
func (h *Heat1D) Error(sw sweeper.Sweeper[float64]) float64 {
	var (
		st = sw.Status()
		ex = sw.Factory().Create()
	)
	h.Exact(ex, st.Time+st.Dt)
	ex.ScaledAdd(-1, sw.EndState())
	return ex.Norm0()
}

func (h *Heat1D) record(sw sweeper.Sweeper[float64]) {
	st := sw.Status()
	e := h.Error(sw)
	h.errors[StepIter{st.Step, st.Iteration}] = e
	fmt.Fprintf(h.log, "%-10s %s step %d iteration %d: error %12.6e\n", "HEAT1D", h.Lap.Name(), st.Step+1, st.Iteration, e)
}

func (h *Heat1D) PostPredict(sw sweeper.Sweeper[float64]) { h.record(sw) }
func (h *Heat1D) PostSweep(sw sweeper.Sweeper[float64])   { h.record(sw) }
func (h *Heat1D) PostStep(sw sweeper.Sweeper[float64]) {
	fmt.Fprintf(h.log, "%-10s %d implicit evaluations, %d solves\n", "HEAT1D", h.NumImpl, h.NumSolves)
	h.NumImpl, h.NumSolves = 0, 0
}

func (h *Heat1D) Errors() map[StepIter]float64 { return h.errors }
