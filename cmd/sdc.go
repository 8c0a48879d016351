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
	"os"
	"time"

	"github.com/spf13/cobra"
)

// SDCCmd represents the sdc command
var SDCCmd = &cobra.Command{
	Use:   "sdc",
	Short: "Single level spectral deferred corrections",
	Long: `
Integrates the chosen problem with one IMEX sweeper on the fine level options,

gopfasst sdc --problem scalar --quadrature lobatto --nodes 4 --dt 0.5 --tEnd 2 --numIters 6`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, "sdc")
	},
}

func init() {
	rootCmd.AddCommand(SDCCmd)
}

// runCommand loads the layered parameters and runs mode under the profiling options
func runCommand(cmd *cobra.Command, mode string) (err error) {
	ip, err := loadParameters(cmd)
	if err != nil {
		return
	}
	if ip.Verbosity > 0 {
		ip.Print()
	}
	rc := runConfig{out: os.Stdout}
	rc.graph, _ = cmd.Flags().GetBool("graph")
	delay, _ := cmd.Flags().GetInt("delay")
	rc.delay = time.Duration(delay) * time.Millisecond
	return instrumented(cmd, func() error {
		return runProblem(ip, mode, rc)
	})
}
