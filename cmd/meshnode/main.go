package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/meshnode/pkg/config"
	fx "github.com/robotalks/meshnode/pkg/framework"
	"github.com/robotalks/meshnode/pkg/node"
)

func init() {
	config.SetupFlags()
}

func main() {
	flag.Parse()
	defer glog.Flush()

	host, err := node.FromConfig(config.Default())
	if err != nil {
		glog.Exit(err)
	}
	if err := fx.NewRunner().HandleSignals().Go(host.Runnables...).Wait(); err != nil {
		glog.Exit(err)
	}
}
