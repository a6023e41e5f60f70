package main

import (
	"log"
	"os"

	"github.com/larsks/doorbell/internal/cli"
	"github.com/larsks/doorbell/internal/doorbellctl"
	_ "github.com/larsks/doorbell/internal/logsetup"
)

func main() {
	if err := doorbellctl.LoadEnv(); err != nil {
		log.Fatalf("Error: failed to load .env: %v", err)
	}

	base := cli.NewBaseCLI(os.Stdout, os.Stderr)
	cmdArgs, err := base.ParseArgsStandard(os.Args[1:], func() cli.Configurable {
		return doorbellctl.NewConfig()
	})
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	handler := doorbellctl.NewHandler(nil, os.Stdout)
	if err := handler.Execute(cmdArgs); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
