package cmd

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notargets/gopfasst/InputParameters"
)

func TestLoadParameters(t *testing.T) {
	fileInput := []byte(`
Title: Heat
Problem: heat1d
TEnd: 0.02
Dt: 0.01
NumIters: 10
QuadratureType: radau
NumNodes: 3
NumDofs: 16
SpatialOperator: fd
`)
	fileName := filepath.Join(t.TempDir(), "heat.yaml")
	require.NoError(t, os.WriteFile(fileName, fileInput, 0644))
	initConfig()
	t.Setenv("GOPFASST_NU", "0.5")
	require.NoError(t, rootCmd.ParseFlags([]string{
		"--inputFile", fileName, "--numIters", "3", "--lambdaIm", "2"}))
	ip, err := loadParameters(rootCmd)
	require.NoError(t, err)
	assert.Equal(t, "heat1d", ip.Problem)
	assert.Equal(t, "fd", ip.SpatialOperator)
	assert.Equal(t, 16, ip.NumDofs)
	// flags and environment override the input file
	assert.Equal(t, 3, ip.NumIters)
	assert.Equal(t, 0.5, ip.Nu)
	assert.Equal(t, complex(-1, 2), ip.LambdaValue())
}

func TestConvergenceStudy(t *testing.T) {
	var (
		buf = &bytes.Buffer{}
		ip  = InputParameters.NewPFASSTParameters()
	)
	ip.Problem, ip.QuadratureType, ip.NumNodes = "scalar", "lobatto", 3
	ip.TEnd, ip.Dt, ip.NumIters = 4, 1, 0
	steps := []int{2, 5, 10, 15}
	errs, err := convergenceStudy(ip, steps, buf)
	require.NoError(t, err)
	require.Len(t, errs, 4)
	records, err := csv.NewReader(buf).ReadAll()
	require.NoError(t, err)
	assert.Len(t, records, 5)
	assert.Equal(t, []string{"Gauss-Lobatto", "3", "4", "2", "2"}, records[1][:5])
	for i := 1; i < len(errs); i++ {
		assert.Less(t, errs[i], errs[i-1])
	}
}

func TestRunProblem(t *testing.T) {
	rc := runConfig{out: io.Discard}
	for _, tc := range []struct {
		problem, mode string
		dofs, ranks   int
	}{
		{"scalar", "sdc", 1, 1},
		{"scalar", "mlsdc", 1, 1},
		{"scalar", "pfasst", 1, 2},
		{"heat1d", "mlsdc", 16, 1},
		{"heat1d", "pfasst", 16, 1},
		{"advection_diffusion", "sdc", 32, 1},
		{"advection_diffusion", "pfasst", 32, 2},
	} {
		ip := InputParameters.NewPFASSTParameters()
		ip.Problem, ip.NumDofs, ip.Ranks = tc.problem, tc.dofs, tc.ranks
		ip.TEnd, ip.Dt, ip.NumIters = 0.04, 0.01, 4
		require.NoError(t, ip.Validate())
		assert.NoError(t, runProblem(ip, tc.mode, rc), "%s %s", tc.problem, tc.mode)
	}
	{
		ip := InputParameters.NewPFASSTParameters()
		assert.Error(t, runProblem(ip, "parareal", rc))
		ip.Problem = "burgers"
		assert.Error(t, runProblem(ip, "sdc", rc))
		// three steps do not fill blocks of two ranks
		ip = InputParameters.NewPFASSTParameters()
		ip.TEnd, ip.Ranks = 0.03, 2
		assert.Error(t, runProblem(ip, "pfasst", rc))
	}
}
