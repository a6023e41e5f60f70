package cli

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/larsks/doorbell/internal/version"
	"github.com/spf13/pflag"
)

// Configurable represents a type that can be configured via flags and config files
type Configurable interface {
	AddFlags(fs *pflag.FlagSet)
	LoadConfigWithFlagSet(fs *pflag.FlagSet) error
}

// CommandHandler runs a service until ctx is cancelled
type CommandHandler interface {
	Start(ctx context.Context, config Configurable) error
}

// BaseCLI provides common CLI functionality
type BaseCLI struct {
	stdout io.Writer
	stderr io.Writer
}

// NewBaseCLI creates a new BaseCLI instance
func NewBaseCLI(stdout, stderr io.Writer) *BaseCLI {
	return &BaseCLI{
		stdout: stdout,
		stderr: stderr,
	}
}

// CommandArgs represents parsed command line arguments
type CommandArgs struct {
	Command string
	Config  Configurable
	Args    []string
}

// ParseArgsStandard parses args against the global flag set
func (c *BaseCLI) ParseArgsStandard(args []string, configFactory func() Configurable) (*CommandArgs, error) {
	return c.ParseArgsStandardWithFlagSet(args, configFactory, pflag.CommandLine)
}

// ParseArgsStandardWithFlagSet parses args, handles --version, and loads the
// configuration produced by configFactory.
func (c *BaseCLI) ParseArgsStandardWithFlagSet(args []string, configFactory func() Configurable, fs *pflag.FlagSet) (*CommandArgs, error) {
	versionFlag := fs.Bool("version", false, "Show version and exit")

	cfg := configFactory()
	cfg.AddFlags(fs)

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("failed to parse flags: %w", err)
	}

	if *versionFlag {
		return &CommandArgs{Command: "version", Config: cfg, Args: fs.Args()}, nil
	}

	if err := cfg.LoadConfigWithFlagSet(fs); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &CommandArgs{Command: "start", Config: cfg, Args: fs.Args()}, nil
}

// Execute runs the parsed command
func (c *BaseCLI) Execute(ctx context.Context, cmdArgs *CommandArgs, handler CommandHandler) error {
	switch cmdArgs.Command {
	case "version":
		fmt.Fprintln(c.stdout, version.String())
		return nil
	case "start":
		return handler.Start(ctx, cmdArgs.Config)
	default:
		return fmt.Errorf("unknown command: %s", cmdArgs.Command)
	}
}

// StandardMain parses os.Args and runs handler until SIGINT or SIGTERM
func StandardMain(configFactory func() Configurable, handler CommandHandler) {
	cli := NewBaseCLI(os.Stdout, os.Stderr)

	cmdArgs, err := cli.ParseArgsStandard(os.Args[1:], configFactory)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, cmdArgs, handler); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
