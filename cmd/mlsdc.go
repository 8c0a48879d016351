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

// MLSDCCmd represents the mlsdc command
var MLSDCCmd = &cobra.Command{
	Use:   "mlsdc",
	Short: "Two level SDC with FAS corrections",
	Long: `
Integrates the chosen problem with a coarse and a fine sweeper, one V-cycle per iteration.
Coarse options left out default to the fine ones with half the degrees of freedom,

gopfasst mlsdc --problem advection_diffusion --dofs 128 --coarseDofs 64 --dt 0.01 --numSteps 4 --numIters 8`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCommand(cmd, "mlsdc")
	},
}

func init() {
	rootCmd.AddCommand(MLSDCCmd)
}
