package main

import (
	"github.com/robotalks/meshnode/pkg/cli/sh"
	"github.com/robotalks/meshnode/pkg/sim"

	_ "github.com/robotalks/meshnode/pkg/cli/cmds/meshcmd"
)

//go-build: CGO_ENABLED=0

func init() {
	sim.SetupFlags()
}

func main() {
	sh.Main()
}
