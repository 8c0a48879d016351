//go:build linux

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
	"time"

	"github.com/hodgesds/perf-utils"
)

// countInstructions runs f under a hardware instruction counter, without counters f still runs
func countInstructions(f func() error) (err error) {
	var (
		ran  bool
		fErr error
	)
	pv, err := perf.CPUInstructions(func() error {
		ran = true
		fErr = f()
		return nil
	})
	if err != nil {
		fmt.Printf("%-10s instruction counter unavailable: %v\n", "PERF", err)
		if !ran {
			return f()
		}
		return fErr
	}
	fmt.Printf("%-10s %d instructions retired in %v\n", "PERF", pv.Value, time.Duration(pv.TimeRunning))
	return fErr
}
