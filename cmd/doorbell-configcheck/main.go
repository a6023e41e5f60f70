package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/larsks/doorbell/internal/daemon"
	"github.com/larsks/doorbell/internal/version"
)

func main() {
	var (
		versionFlag = pflag.Bool("version", false, "Show version and exit")
		configFile  = pflag.String("config", "", "Configuration file to validate")
		helpFlag    = pflag.BoolP("help", "h", false, "Show help")
	)

	pflag.Parse()

	if *versionFlag {
		version.ShowVersion()
		os.Exit(0)
	}

	if *helpFlag {
		usage()
		os.Exit(0)
	}

	if *configFile == "" {
		fmt.Fprintf(os.Stderr, "Error: --config flag is required\n\n")
		usage()
		os.Exit(1)
	}

	if err := check(*configFile, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s --config FILE\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Validate a doorbell-relay configuration file.\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	pflag.PrintDefaults()
}

// check loads configFile the way doorbell-relay does and reports the
// effective relay binding.
func check(configFile string, out io.Writer) error {
	if _, err := os.Stat(configFile); err != nil {
		return fmt.Errorf("configuration file %s does not exist", configFile)
	}

	cfg := daemon.NewConfig()
	cfg.ConfigFile = configFile

	fs := pflag.NewFlagSet("doorbell-relay", pflag.ContinueOnError)
	cfg.AddFlags(fs)
	if err := cfg.LoadConfigWithFlagSet(fs); err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	relayCfg, err := cfg.RelayConfig()
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "✓ Configuration file %s is valid\n", configFile)
	fmt.Fprintf(out, "  preset: %s\n", cfg.Preset)
	fmt.Fprintf(out, "  dwell: %s, active: %s, inactive: %s\n",
		relayCfg.DwellDuration, relayCfg.ActiveValue, relayCfg.InactiveValue)
	fmt.Fprintf(out, "  remote driver: %s\n", cfg.Remote.Driver)
	return nil
}
