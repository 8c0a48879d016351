package InputParameters

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPFASSTParameters(t *testing.T) {
	fileInput := []byte(`
Title: Advection Diffusion
Problem: advection_diffusion
TEnd: 0.4
Dt: 0.1
NumIters: 10
AbsResTol: 1.e-10
QuadratureType: lobatto
NumNodes: 3
NumDofs: 64
Ranks: 2
Lambda: [-1, 2]
`)
	{
		ip := NewPFASSTParameters()
		require.NoError(t, ip.Parse(fileInput))
		assert.Equal(t, "Advection Diffusion", ip.Title)
		assert.Equal(t, 10, ip.NumIters)
		assert.Equal(t, 1.e-10, ip.AbsResTol)
		assert.Equal(t, 2, ip.Ranks)
		assert.Equal(t, complex(-1, 2), ip.LambdaValue())
		// left at defaults
		assert.Equal(t, 0.02, ip.Nu)
		assert.Equal(t, "spectral", ip.SpatialOperator)
		qt, nodes, dofs := ip.Coarse()
		assert.Equal(t, "lobatto", qt)
		assert.Equal(t, 3, nodes)
		assert.Equal(t, 32, dofs)
		tEnd, numSteps, err := ip.Duration()
		require.NoError(t, err)
		assert.Equal(t, 0.4, tEnd)
		assert.Equal(t, 4, numSteps)
		assert.NoError(t, ip.Validate())
		ip.Print()
	}
	{
		ip := NewPFASSTParameters()
		ip.TEnd, ip.NumSteps, ip.Dt = 0, 5, 0.2
		tEnd, numSteps, err := ip.Duration()
		require.NoError(t, err)
		assert.InDelta(t, 1.0, tEnd, 1.e-14)
		assert.Equal(t, 5, numSteps)
		ip.TEnd = 0.9
		_, _, err = ip.Duration()
		assert.Error(t, err)
		ip.TEnd, ip.NumSteps = 0.9, 0
		_, _, err = ip.Duration()
		assert.Error(t, err)
		ip.Dt = 0
		assert.Error(t, ip.Validate())
	}
	{
		ip := NewPFASSTParameters()
		ip.Problem = "burgers"
		assert.Error(t, ip.Validate())
		ip = NewPFASSTParameters()
		ip.CoarseQuadratureType = "chebyshev"
		assert.Error(t, ip.Validate())
		ip = NewPFASSTParameters()
		ip.QuadratureType, ip.NumNodes = "radau", 1
		assert.Error(t, ip.Validate())
		ip = NewPFASSTParameters()
		ip.Ranks = 0
		assert.Error(t, ip.Validate())
	}
}
