package main

import (
	"github.com/larsks/doorbell/internal/cli"
	"github.com/larsks/doorbell/internal/daemon"
	_ "github.com/larsks/doorbell/internal/logsetup"
)

func main() {
	cli.StandardMain(func() cli.Configurable {
		return daemon.NewConfig()
	}, daemon.NewHandler())
}
