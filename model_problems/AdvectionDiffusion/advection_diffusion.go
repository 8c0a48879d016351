package AdvectionDiffusion

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/spectral"
	"github.com/notargets/gopfasst/sweeper"
)

type Encap = sweeper.Encap[float64]

type StepIter struct {
	Step, Iteration int
}

// AdvectionDiffusion is u_t + v*u_x = nu*u_xx on the periodic unit interval.
// Advection is explicit, diffusion implicit, both spectral.
type AdvectionDiffusion struct {
	N       int
	V, Nu   float64
	T0      float64
	NumExpl int

	fft      *spectral.Workspace[float64]
	ddx, lap []complex128
	z        []complex128

	errors, residuals map[StepIter]float64
	log               io.Writer
}

func NewAdvectionDiffusion(N int) (ad *AdvectionDiffusion) {
	ad = &AdvectionDiffusion{
		N:         N,
		V:         1,
		Nu:        0.02,
		T0:        1,
		fft:       spectral.NewWorkspace[float64](N),
		ddx:       make([]complex128, N),
		lap:       make([]complex128, N),
		z:         make([]complex128, N),
		errors:    make(map[StepIter]float64),
		residuals: make(map[StepIter]float64),
		log:       io.Discard,
	}
	for i, k := range spectral.Wavenumbers(N) {
		if 2*i != N {
			ad.ddx[i] = complex(0, k)
		}
		if k*k > 1.e-13 {
			ad.lap[i] = complex(-k*k, 0)
		}
	}
	return
}

func (ad *AdvectionDiffusion) SetLogger(w io.Writer) {
	if w != nil {
		ad.log = w
	}
}

func (ad *AdvectionDiffusion) Factory() *encap.Factory[float64] {
	return encap.NewFactory[float64](ad.N)
}

// Exact sums the periodic images of a spreading Gaussian advected with v.
// The images are centred on the peak, wrapped back into the unit interval.
func (ad *AdvectionDiffusion) Exact(q *Encap, t float64) {
	var (
		u      = q.Data()
		width  = 4 * ad.Nu * (t + ad.T0)
		a      = 1 / math.Sqrt(math.Pi*width)
		center = 0.5 + t*ad.V
	)
	center -= math.Floor(center)
	q.Zero()
	for ii := -2; ii <= 2; ii++ {
		for i := range u {
			x := float64(i)/float64(len(u)) - center + float64(ii)
			u[i] += a * math.Exp(-x*x/width)
		}
	}
}

func (ad *AdvectionDiffusion) apply(f, u *Encap, scale float64, symbol []complex128) {
	zu := ad.fft.Forward(u.Data())
	for i := range ad.z {
		ad.z[i] = complex(scale, 0) * symbol[i] * zu[i]
	}
	ad.fft.Backward(ad.z, f.Data())
}

func (ad *AdvectionDiffusion) EvaluateExpl(f, u *Encap, t float64) {
	ad.apply(f, u, -ad.V, ad.ddx)
	ad.NumExpl++
}

func (ad *AdvectionDiffusion) EvaluateImpl(f, u *Encap, t float64) {
	ad.apply(f, u, ad.Nu, ad.lap)
}

func (ad *AdvectionDiffusion) ImplicitSolve(f, u *Encap, t, ds float64, rhs *Encap) {
	c := complex(ad.Nu*ds, 0)
	zr := ad.fft.Forward(rhs.Data())
	for i := range ad.z {
		ad.z[i] = zr[i] / (1 - c*ad.lap[i])
	}
	ad.fft.Backward(ad.z, u.Data())
	if ds == 0 {
		ad.EvaluateImpl(f, u, t)
		return
	}
	for i, v := range u.Data() {
		f.Data()[i] = (v - rhs.Data()[i]) / ds
	}
}

func (ad *AdvectionDiffusion) Error(sw sweeper.Sweeper[float64]) float64 {
	var (
		st  = sw.Status()
		ex  = sw.Factory().Create()
		end = sw.EndState()
	)
	ad.Exact(ex, st.Time+st.Dt)
	return floats.Distance(ex.Data(), end.Data(), math.Inf(1))
}

// record computes the residuals of the sweeper as a side effect of the convergence check
func (ad *AdvectionDiffusion) record(sw sweeper.Sweeper[float64], predict bool) {
	var (
		st  = sw.Status()
		key = StepIter{st.Step, st.Iteration}
	)
	ad.errors[key] = ad.Error(sw)
	sw.Converged()
	ad.residuals[key], _ = sw.ResidualNorms()
	fmt.Fprintf(ad.log, "%-10s err: %d %d %12.6e (%d,%v)\n", "ADVEC", st.Step, st.Iteration, ad.errors[key], ad.N, predict)
	fmt.Fprintf(ad.log, "%-10s res: %d %d %12.6e\n", "ADVEC", st.Step, st.Iteration, ad.residuals[key])
}

func (ad *AdvectionDiffusion) PostPredict(sw sweeper.Sweeper[float64]) { ad.record(sw, true) }
func (ad *AdvectionDiffusion) PostSweep(sw sweeper.Sweeper[float64])   { ad.record(sw, false) }
func (ad *AdvectionDiffusion) PostStep(sw sweeper.Sweeper[float64]) {
	fmt.Fprintf(ad.log, "%-10s number of explicit evaluations: %d\n", "ADVEC", ad.NumExpl)
}

func (ad *AdvectionDiffusion) Errors() map[StepIter]float64    { return ad.errors }
func (ad *AdvectionDiffusion) Residuals() map[StepIter]float64 { return ad.residuals }
