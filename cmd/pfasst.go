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
	"github.com/spf13/cobra"
)

// PFASSTCmd represents the pfasst command
var PFASSTCmd = &cobra.Command{
	Use:   "pfasst",
	Short: "Two level PFASST over goroutine time ranks",
	Long: `
Integrates the chosen problem with two level PFASST, one goroutine per time rank.
The number of steps must be a multiple of the number of ranks,

gopfasst pfasst --problem advection_diffusion --ranks 4 --tEnd 0.08 --dt 0.01 --numIters 10 --absResTol 1.e-10`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, "pfasst")
	},
}

func init() {
	rootCmd.AddCommand(PFASSTCmd)
}
