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
	"image/color"
	"io"
	"math"
	"time"

	"github.com/notargets/avs/chart2d"
	utils2 "github.com/notargets/avs/utils"

	"github.com/notargets/gopfasst/InputParameters"
	"github.com/notargets/gopfasst/comm"
	"github.com/notargets/gopfasst/controller"
	"github.com/notargets/gopfasst/encap"
	"github.com/notargets/gopfasst/transfer"
)

type runConfig struct {
	out   io.Writer
	graph bool
	delay time.Duration
}

type duration struct {
	t0, tEnd, dt    float64
	numSteps, iters int
}

// run integrates the problem with the controller named by mode and reports the final error
func run[T encap.Scalar](ip *InputParameters.PFASSTParameters, mode string, rc runConfig, pb problem[T]) (err error) {
	var (
		fine level[T]
		d    = duration{t0: ip.TStart, dt: ip.Dt, iters: ip.NumIters}
		opts = controller.Options{
			AbsResTol: ip.AbsResTol,
			RelResTol: ip.RelResTol,
			Log:       rc.out,
			Verbosity: ip.Verbosity,
		}
	)
	if d.tEnd, d.numSteps, err = ip.Duration(); err != nil {
		return
	}
	switch mode {
	case "sdc":
		fine, err = runSDC(opts, d, ip, pb)
	case "mlsdc":
		fine, err = runMLSDC(opts, d, ip, pb)
	case "pfasst":
		fine, err = runPFASST(opts, d, ip, pb)
	default:
		err = fmt.Errorf("unknown controller %q", mode)
	}
	if err != nil {
		return
	}
	fmt.Fprintf(rc.out, "%-10s error of the final step: %12.6e\n", pb.name, fine.errorOf(fine.sweeper))
	if rc.graph && fine.x != nil {
		plotSolution(fine, d.tEnd, rc.delay)
	}
	return
}

func runSDC[T encap.Scalar](opts controller.Options, d duration, ip *InputParameters.PFASSTParameters,
	pb problem[T]) (fine level[T], err error) {
	if fine, err = pb.build(ip.QuadratureType, ip.NumNodes, ip.NumDofs); err != nil {
		return
	}
	c := controller.NewSDC[T](opts)
	c.AddSweeper(fine.sweeper)
	c.SetDuration(d.t0, d.tEnd, d.dt, d.numSteps, d.iters)
	if err = c.Setup(); err != nil {
		return
	}
	fine.exact(fine.sweeper.InitialState(), d.t0)
	if err = c.Run(); err != nil {
		return
	}
	c.PostRun()
	return
}

func buildLevels[T encap.Scalar](ip *InputParameters.PFASSTParameters, pb problem[T]) (coarse, fine level[T], err error) {
	cqt, cnodes, cdofs := ip.Coarse()
	if coarse, err = pb.build(cqt, cnodes, cdofs); err != nil {
		return
	}
	fine, err = pb.build(ip.QuadratureType, ip.NumNodes, ip.NumDofs)
	return
}

func runMLSDC[T encap.Scalar](opts controller.Options, d duration, ip *InputParameters.PFASSTParameters,
	pb problem[T]) (fine level[T], err error) {
	var (
		coarse level[T]
	)
	if coarse, fine, err = buildLevels(ip, pb); err != nil {
		return
	}
	c := controller.NewTwoLevelMLSDC[T](opts)
	c.AddSweeper(coarse.sweeper)
	c.AddSweeper(fine.sweeper)
	c.AddTransfer(transfer.NewPolynomial[T](pb.spatial()))
	c.SetDuration(d.t0, d.tEnd, d.dt, d.numSteps, d.iters)
	if err = c.Setup(); err != nil {
		return
	}
	fine.exact(fine.sweeper.InitialState(), d.t0)
	if err = c.Run(); err != nil {
		return
	}
	c.PostRun()
	return
}

// runPFASST runs one controller per time rank, the fine level of the last rank holds the final state
func runPFASST[T encap.Scalar](opts controller.Options, d duration, ip *InputParameters.PFASSTParameters,
	pb problem[T]) (fine level[T], err error) {
	var (
		fines = make([]level[T], ip.Ranks)
	)
	rank := func(c comm.Communicator) (err error) {
		var (
			coarse, fine level[T]
		)
		if coarse, fine, err = buildLevels(ip, pb); err != nil {
			return
		}
		p := controller.NewTwoLevelPFASST[T](opts, c)
		p.AddSweeper(coarse.sweeper)
		p.AddSweeper(fine.sweeper)
		p.AddTransfer(transfer.NewPolynomial[T](pb.spatial()))
		p.SetDuration(d.t0, d.tEnd, d.dt, d.numSteps, d.iters)
		if err = p.Setup(); err != nil {
			return
		}
		fine.exact(fine.sweeper.InitialState(), d.t0)
		if err = p.Run(); err != nil {
			return
		}
		if c.IsLast() {
			p.PostRun()
		}
		fines[c.Rank()] = fine
		return
	}
	if ip.Ranks == 1 {
		err = rank(comm.NewSerial())
	} else {
		err = comm.NewWorld(ip.Ranks).Run(rank)
	}
	fine = fines[ip.Ranks-1]
	return
}

// plotSolution draws the final state in red over the exact solution in blue
func plotSolution[T encap.Scalar](l level[T], t float64, delay time.Duration) {
	var (
		ex         = l.sweeper.Factory().Create()
		lines      = make(map[color.RGBA][]float32)
		yMin, yMax = math.MaxFloat64, -math.MaxFloat64
	)
	l.exact(ex, t)
	for col, q := range map[color.RGBA]*encap.Encapsulation[T]{
		utils2.RED:  l.sweeper.EndState(),
		utils2.BLUE: ex,
	} {
		y := make([]float64, q.Size())
		for i, v := range q.Data() {
			y[i] = real(encap.ToComplex(v))
			yMin, yMax = math.Min(yMin, y[i]), math.Max(yMax, y[i])
		}
		for i := 0; i < len(y)-1; i++ {
			lines[col] = append(lines[col],
				float32(l.x[i]), float32(y[i]),
				float32(l.x[i+1]), float32(y[i+1]))
		}
	}
	margin := 0.05 * (yMax - yMin)
	ch := chart2d.NewChart2D(0, 1, float32(yMin-margin), float32(yMax+margin),
		1024, 1024, utils2.WHITE, utils2.BLACK)
	for col, line := range lines {
		ch.AddLine(line, col)
	}
	time.Sleep(delay)
}
