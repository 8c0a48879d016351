package AdvectionDiffusion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAdvectionDiffusionExact(t *testing.T) {
	var (
		ad = NewAdvectionDiffusion(64)
		q  = ad.Factory().Create()
		q1 = ad.Factory().Create()
	)
	ad.Exact(q, 0)
	// peak at x = 0.5 and symmetric about it
	assert.Equal(t, 32, argmax(q.Data()))
	for i := 1; i < 32; i++ {
		assert.InDelta(t, q.At(32-i), q.At(32+i), 1.e-14)
	}
	// advected by one period it returns, flattened by diffusion
	ad.Exact(q1, 1)
	assert.Equal(t, 32, argmax(q1.Data()))
	assert.Less(t, q1.At(32), q.At(32))
	// the mass is conserved
	assert.InDelta(t, sum(q.Data()), sum(q1.Data()), 1.e-10)
	assert.InDelta(t, 64., sum(q.Data()), 1.e-8)
	// after a period and a quarter the peak sits at x = 0.75 with the mass kept
	ad.Exact(q1, 1.25)
	assert.Equal(t, 48, argmax(q1.Data()))
	assert.InDelta(t, 64., sum(q1.Data()), 1.e-8)
	for i := 1; i < 16; i++ {
		assert.InDelta(t, q1.At(48-i), q1.At(48+i), 1.e-12)
	}
	// moving backwards wraps the same way
	ad.V = -1
	ad.Exact(q, 1.25)
	assert.Equal(t, 16, argmax(q.Data()))
	assert.InDelta(t, 64., sum(q.Data()), 1.e-8)
}

func TestAdvectionDiffusionOperators(t *testing.T) {
	var (
		N  = 32
		ad = NewAdvectionDiffusion(N)
		u  = ad.Factory().Create()
		f  = ad.Factory().Create()
		x  = ad.Factory().Create()
	)
	for i := range u.Data() {
		u.Data()[i] = math.Sin(2 * math.Pi * float64(i) / float64(N))
	}
	ad.EvaluateExpl(f, u, 0)
	for i, v := range f.Data() {
		assert.InDelta(t, -2*math.Pi*math.Cos(2*math.Pi*float64(i)/float64(N)), v, 1.e-12)
	}
	ad.EvaluateImpl(f, u, 0)
	for i, v := range f.Data() {
		assert.InDelta(t, -0.02*4*math.Pi*math.Pi*u.At(i), v, 1.e-12)
	}
	// u - ds*F_impl(u) reproduces the right hand side
	ad.ImplicitSolve(f, x, 0, 0.1, u)
	for i := range u.Data() {
		assert.InDelta(t, u.At(i), x.At(i)-0.1*f.At(i), 1.e-14)
	}
	assert.InDelta(t, u.At(8)/(1+0.1*0.02*4*math.Pi*math.Pi), x.At(8), 1.e-14)
	assert.Equal(t, 1, ad.NumExpl)
}

func argmax(x []float64) (imax int) {
	for i, v := range x {
		if v > x[imax] {
			imax = i
		}
	}
	return
}

func sum(x []float64) (s float64) {
	for _, v := range x {
		s += v
	}
	return
}
