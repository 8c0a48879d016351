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
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/notargets/gopfasst/InputParameters"
	"github.com/notargets/gopfasst/controller"
	"github.com/notargets/gopfasst/quadrature"
)

// ConvergenceCmd represents the convergence command
var ConvergenceCmd = &cobra.Command{
	Use:   "convergence",
	Short: "Order of accuracy study of SDC on the scalar problem",
	Long: `
Integrates the scalar problem to tEnd with an increasing number of steps and writes
quadrature,nodes,iterations,nsteps,dt,error lines for tools/convOrder.
Without numIters the formal order of the node family is used as iteration count,

gopfasst convergence --quadrature lobatto --nodes 4 --tEnd 4 --dt 1 --steps 2,5,10,15 --output lobatto4.csv`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		var (
			ip  *InputParameters.PFASSTParameters
			out io.Writer = os.Stdout
		)
		if ip, err = loadParameters(cmd); err != nil {
			return
		}
		steps, _ := cmd.Flags().GetIntSlice("steps")
		if name, _ := cmd.Flags().GetString("output"); len(name) != 0 {
			var f *os.File
			if f, err = os.Create(name); err != nil {
				return
			}
			defer f.Close()
			out = f
		}
		return instrumented(cmd, func() (err error) {
			var errs []float64
			if errs, err = convergenceStudy(ip, steps, out); err != nil {
				return
			}
			for i := 1; i < len(errs); i++ {
				fmt.Printf("%-10s steps %4d -> %4d: order %6.3f\n", "ORDER", steps[i-1], steps[i],
					math.Log(errs[i-1]/errs[i])/math.Log(float64(steps[i])/float64(steps[i-1])))
			}
			return
		})
	},
}

func init() {
	rootCmd.AddCommand(ConvergenceCmd)
	ConvergenceCmd.Flags().IntSlice("steps", []int{2, 5, 10, 15}, "numbers of steps to reach tEnd")
	ConvergenceCmd.Flags().StringP("output", "o", "", "CSV file for the results, default is stdout")
}

// convergenceStudy runs scalar SDC to the end time with each number of steps
func convergenceStudy(ip *InputParameters.PFASSTParameters, steps []int, w io.Writer) (errs []float64, err error) {
	var (
		qt   quadrature.QuadratureType
		tEnd float64
		cw   = csv.NewWriter(w)
		pb   = scalarProblem(ip, io.Discard)
	)
	if qt, err = quadrature.NewQuadratureType(ip.QuadratureType); err != nil {
		return
	}
	if tEnd, _, err = ip.Duration(); err != nil {
		return
	}
	iters := ip.NumIters
	if iters == 0 {
		iters = qt.Order(ip.NumNodes)
	}
	if err = cw.Write([]string{"quadrature", "nodes", "iterations", "nsteps", "dt", "error"}); err != nil {
		return
	}
	opts := controller.Options{Log: io.Discard}
	for _, n := range steps {
		var (
			fine level[complex128]
			d    = duration{t0: ip.TStart, tEnd: tEnd, dt: (tEnd - ip.TStart) / float64(n), numSteps: n, iters: iters}
		)
		if fine, err = runSDC(opts, d, ip, pb); err != nil {
			return
		}
		e := fine.errorOf(fine.sweeper)
		errs = append(errs, e)
		if err = cw.Write([]string{qt.String(), strconv.Itoa(ip.NumNodes), strconv.Itoa(iters),
			strconv.Itoa(n), strconv.FormatFloat(d.dt, 'g', -1, 64), strconv.FormatFloat(e, 'e', 6, 64)}); err != nil {
			return
		}
	}
	cw.Flush()
	err = cw.Error()
	return
}
