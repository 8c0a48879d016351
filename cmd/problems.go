/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/notargets/gopfasst/InputParameters"
	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/model_problems/AdvectionDiffusion"
	"github.com/notargets/gopfasst/model_problems/Heat1D"
	"github.com/notargets/gopfasst/model_problems/Scalar"
	"github.com/notargets/gopfasst/quadrature"
	"github.com/notargets/gopfasst/sweeper"
	"github.com/notargets/gopfasst/transfer"
)

// level is one sweeper with the problem instance feeding it
type level[T encap.Scalar] struct {
	sweeper *sweeper.IMEX[T]
	exact   func(q *encap.Encapsulation[T], t float64)
	errorOf func(sw sweeper.Sweeper[T]) float64
	x       []float64 // grid of 1D problems
}

// problem builds independent levels, every time rank needs its own problem instances
type problem[T encap.Scalar] struct {
	name    string
	build   func(qt string, nodes, dofs int) (level[T], error)
	spatial func() transfer.SpatialOp[T]
}

func newQuadrature(name string, nodes int) (q *quadrature.Quadrature, err error) {
	var (
		qt quadrature.QuadratureType
	)
	if qt, err = quadrature.NewQuadratureType(name); err != nil {
		return
	}
	return quadrature.NewQuadrature(qt, nodes)
}

func grid(N int) (x []float64) {
	x = make([]float64, N)
	for i := range x {
		x[i] = float64(i) / float64(N)
	}
	return
}

func scalarProblem(ip *InputParameters.PFASSTParameters, log io.Writer) problem[complex128] {
	return problem[complex128]{
		name: "SCALAR",
		build: func(qt string, nodes, _ int) (l level[complex128], err error) {
			var q *quadrature.Quadrature
			if q, err = newQuadrature(qt, nodes); err != nil {
				return
			}
			s := Scalar.NewScalar(ip.LambdaValue(), 1)
			s.SetLogger(log)
			l.sweeper = sweeper.NewIMEX[complex128](s, encap.NewFactory[complex128](1))
			l.sweeper.SetQuadrature(q)
			l.exact, l.errorOf = s.Exact, s.RelativeError
			return
		},
		spatial: func() transfer.SpatialOp[complex128] { return transfer.Injection[complex128]{} },
	}
}

func heat1DProblem(ip *InputParameters.PFASSTParameters, log io.Writer) (pb problem[float64], err error) {
	var (
		lt Heat1D.LaplacianType
	)
	if lt, err = Heat1D.NewLaplacianType(ip.SpatialOperator); err != nil {
		return
	}
	pb = problem[float64]{
		name: "HEAT1D",
		build: func(qt string, nodes, dofs int) (l level[float64], err error) {
			var q *quadrature.Quadrature
			if q, err = newQuadrature(qt, nodes); err != nil {
				return
			}
			h := Heat1D.NewHeat1D(dofs, ip.Nu, lt)
			h.SetLogger(log)
			l.sweeper = sweeper.NewIMEX[float64](h, h.Factory())
			l.sweeper.SetQuadrature(q)
			l.exact, l.errorOf, l.x = h.Exact, h.Error, h.X()
			return
		},
		spatial: func() transfer.SpatialOp[float64] { return transfer.NewSpectral1D[float64]() },
	}
	return
}

func advectionDiffusionProblem(ip *InputParameters.PFASSTParameters, log io.Writer) problem[float64] {
	return problem[float64]{
		name: "ADVEC",
		build: func(qt string, nodes, dofs int) (l level[float64], err error) {
			var q *quadrature.Quadrature
			if q, err = newQuadrature(qt, nodes); err != nil {
				return
			}
			ad := AdvectionDiffusion.NewAdvectionDiffusion(dofs)
			ad.V, ad.Nu = ip.Velocity, ip.Nu
			ad.SetLogger(log)
			l.sweeper = sweeper.NewIMEX[float64](ad, ad.Factory())
			l.sweeper.SetQuadrature(q)
			l.exact, l.errorOf, l.x = ad.Exact, ad.Error, grid(dofs)
			return
		},
		spatial: func() transfer.SpatialOp[float64] { return transfer.NewSpectral1D[float64]() },
	}
}

// runProblem dispatches the configured problem to the controller named by mode
func runProblem(ip *InputParameters.PFASSTParameters, mode string, rc runConfig) (err error) {
	var (
		log = io.Discard
	)
	if ip.Verbosity >= 2 {
		log = rc.out
	}
	switch strings.ToLower(ip.Problem) {
	case "scalar":
		err = run(ip, mode, rc, scalarProblem(ip, log))
	case "heat1d":
		var pb problem[float64]
		if pb, err = heat1DProblem(ip, log); err != nil {
			return
		}
		err = run(ip, mode, rc, pb)
	case "advection_diffusion":
		err = run(ip, mode, rc, advectionDiffusionProblem(ip, log))
	default:
		err = fmt.Errorf("unknown problem %q", ip.Problem)
	}
	return
}
