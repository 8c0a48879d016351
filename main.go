package main

import (
	"github.com/notargets/gopfasst/cmd"
)

func main() {
	cmd.Execute()
}
