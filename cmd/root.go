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
	"os"
	"strings"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/gopfasst/utils"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "gopfasst",
	Short: "Spectral deferred corrections and PFASST time integration",
	Long: `
Integrates the example problems (scalar, heat1d, advection_diffusion) in time with
SDC, two level MLSDC or two level PFASST over goroutine time ranks.

gopfasst pfasst --problem advection_diffusion --ranks 4 --tEnd 0.08 --dt 0.01`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.gopfasst.yaml)")
	pf.StringP("inputFile", "I", "", "YAML file with the run parameters, flags override its entries")
	pf.String("profile", "", "write a pprof profile of the run: cpu or mem")
	pf.Bool("perf", false, "count retired CPU instructions of the run (linux only)")
	pf.BoolP("graph", "g", false, "display the final solution of 1D problems")
	pf.IntP("delay", "d", 10000, "milliseconds to keep the graph on screen")

	pf.StringP("problem", "p", "advection_diffusion", "problem to integrate: "+strings.Join(problemNames(), ", "))
	pf.Float64("tStart", 0, "initial time")
	pf.Float64("tEnd", 0, "end time, derived from numSteps when zero")
	pf.Float64("dt", 0, "time step")
	pf.Int("numSteps", 0, "number of time steps, derived from tEnd when zero")
	pf.IntP("numIters", "n", 0, "maximum number of iterations per step")
	pf.Float64("absResTol", 0, "absolute residual tolerance")
	pf.Float64("relResTol", 0, "relative residual tolerance")
	pf.StringP("quadrature", "q", "", "quadrature type of the fine level: lobatto, legendre, radau, cc, uniform")
	pf.String("coarseQuadrature", "", "quadrature type of the coarse level, defaults to the fine one")
	pf.Int("nodes", 0, "number of quadrature nodes on the fine level")
	pf.Int("coarseNodes", 0, "number of quadrature nodes on the coarse level")
	pf.Int("dofs", 0, "spatial degrees of freedom on the fine level")
	pf.Int("coarseDofs", 0, "spatial degrees of freedom on the coarse level, defaults to half the fine")
	pf.Float64("lambdaRe", 0, "real part of lambda for the scalar problem")
	pf.Float64("lambdaIm", 0, "imaginary part of lambda for the scalar problem")
	pf.Float64("nu", 0, "diffusion coefficient")
	pf.Float64("velocity", 0, "advection velocity")
	pf.IntP("ranks", "r", 0, "number of time ranks for pfasst")
	pf.String("spatial", "", "laplacian of heat1d: spectral or fd")
	pf.IntP("verbosity", "v", 0, "0: summary, 1: per step, 2: per iteration")
	for _, key := range parameterKeys {
		if err := viper.BindPFlag(key, pf.Lookup(key)); err != nil {
			panic(err)
		}
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		// Search config in home directory with name ".gopfasst" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigName(".gopfasst")
	}
	viper.SetEnvPrefix("GOPFASST")
	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
	}
}

// instrumented runs f under the profiling options of the root command
func instrumented(cmd *cobra.Command, f func() error) (err error) {
	prof, _ := cmd.Flags().GetString("profile")
	switch prof {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	case "mem":
		defer profile.Start(profile.MemProfile, profile.ProfilePath(".")).Stop()
	default:
		return fmt.Errorf("unknown profile %q, use cpu or mem", prof)
	}
	if usePerf, _ := cmd.Flags().GetBool("perf"); usePerf {
		err = countInstructions(f)
	} else {
		err = f()
	}
	fmt.Println(utils.GetMemUsage())
	return
}
