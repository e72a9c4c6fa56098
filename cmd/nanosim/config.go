package main

import (
	"fmt"
	"os"

	"github.com/jessevdk/go-flags"
)

// config is nanosim's top-level option set, parsed the way the teacher's
// own daemon entry point (lnd.go) parses its Config struct: a single
// go-flags struct with long-form flags and inline defaults.
type config struct {
	SeedFile    string `long:"seed-file" description:"path to the raw root seed bytes; prompted interactively if omitted"`
	LogFile     string `long:"log-file" description:"path to the rotated nanosim log file" default:"nanosim.log"`
	Debug       bool   `long:"debug" description:"enable debug-level logging across every core package"`
	MetricsAddr string `long:"metricsaddr" description:"address to serve Prometheus metrics on, empty disables" default:""`
	Notify      bool   `long:"systemd-notify" description:"send READY=1 to systemd once the engine is constructed"`
}

// loadConfig parses the global nanosim options the way the teacher's
// lnd.go parses its own Config struct via go-flags, leaving every
// unrecognized token (the urfave/cli subcommand and its own flags) for the
// cli.App to parse in turn.
func loadConfig(args []string) (cfg *config, remaining []string, err error) {
	cfg = &config{}
	parser := flags.NewParser(cfg, flags.Default|flags.IgnoreUnknown)
	remaining, err = parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		return nil, nil, fmt.Errorf("nanosim: parse flags: %w", err)
	}
	return cfg, remaining, nil
}
