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

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/gopfasst/InputParameters"
)

var (
	parameterKeys = []string{
		"problem", "tStart", "tEnd", "dt", "numSteps", "numIters", "absResTol", "relResTol",
		"quadrature", "coarseQuadrature", "nodes", "coarseNodes", "dofs", "coarseDofs",
		"lambdaRe", "lambdaIm", "nu", "velocity", "ranks", "spatial", "verbosity",
	}
	exampleFile = `
########################################
Title: "Advection Diffusion"
Problem: advection_diffusion # Can be scalar or heat1d
TEnd: 0.08
Dt: 0.01
NumIters: 8
AbsResTol: 1.e-10
QuadratureType: lobatto
NumNodes: 3
NumDofs: 128
CoarseNumDofs: 64
Ranks: 4
########################################
`
)

func problemNames() []string { return InputParameters.ProblemNames }

// isSet is true when the key was given on the command line, in the config file or in the environment
func isSet(cmd *cobra.Command, key string) bool {
	if f := cmd.Flags().Lookup(key); f != nil && f.Changed {
		return true
	}
	if viper.InConfig(strings.ToLower(key)) {
		return true
	}
	_, ok := os.LookupEnv("GOPFASST_" + strings.ToUpper(key))
	return ok
}

// loadParameters layers defaults, the input file and explicitly set flags, config entries or environment
func loadParameters(cmd *cobra.Command) (ip *InputParameters.PFASSTParameters, err error) {
	var (
		data []byte
	)
	ip = InputParameters.NewPFASSTParameters()
	inputFile, _ := cmd.Flags().GetString("inputFile")
	if len(inputFile) != 0 {
		if data, err = os.ReadFile(inputFile); err != nil {
			return
		}
		if err = ip.Parse(data); err != nil {
			return
		}
	}
	lambda := []float64{real(ip.LambdaValue()), imag(ip.LambdaValue())}
	targets := map[string]interface{}{
		"problem":          &ip.Problem,
		"tStart":           &ip.TStart,
		"tEnd":             &ip.TEnd,
		"dt":               &ip.Dt,
		"numSteps":         &ip.NumSteps,
		"numIters":         &ip.NumIters,
		"absResTol":        &ip.AbsResTol,
		"relResTol":        &ip.RelResTol,
		"quadrature":       &ip.QuadratureType,
		"coarseQuadrature": &ip.CoarseQuadratureType,
		"nodes":            &ip.NumNodes,
		"coarseNodes":      &ip.CoarseNumNodes,
		"dofs":             &ip.NumDofs,
		"coarseDofs":       &ip.CoarseNumDofs,
		"lambdaRe":         &lambda[0],
		"lambdaIm":         &lambda[1],
		"nu":               &ip.Nu,
		"velocity":         &ip.Velocity,
		"ranks":            &ip.Ranks,
		"spatial":          &ip.SpatialOperator,
		"verbosity":        &ip.Verbosity,
	}
	for _, key := range parameterKeys {
		if !isSet(cmd, key) {
			continue
		}
		switch p := targets[key].(type) {
		case *string:
			*p = viper.GetString(key)
		case *int:
			*p = viper.GetInt(key)
		case *float64:
			*p = viper.GetFloat64(key)
		default:
			panic(fmt.Errorf("no parameter bound to %q", key))
		}
	}
	ip.Lambda = lambda
	if err = ip.Validate(); err != nil {
		fmt.Printf("Example File:%s\n", exampleFile)
	}
	return
}
