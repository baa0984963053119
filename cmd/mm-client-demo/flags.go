package main

import (
	"errors"
	"flag"
	"os"
)

var version = "dev"

// cliConfig holds the demo client's CLI input, mirroring the teacher's
// flags.go split between raw flag values and validated config.
type cliConfig struct {
	serverAddr  string
	logLevel    string
	application string
	insecure    bool
	showVersion bool
}

func parseFlags(args []string) (*cliConfig, error) {
	fs := flag.NewFlagSet("mm-client-demo", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	cfg := &cliConfig{}
	fs.StringVar(&cfg.serverAddr, "server", "127.0.0.1:9599", "Server UDP address")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	fs.StringVar(&cfg.application, "app", "", "Application ID to launch and attach to (default: first listed)")
	fs.BoolVar(&cfg.insecure, "insecure", true, "Skip server certificate verification (self-signed certs)")
	fs.BoolVar(&cfg.showVersion, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	switch cfg.logLevel {
	case "debug", "info", "warn", "error":
	default:
		return nil, errors.New("invalid log-level " + cfg.logLevel)
	}

	return cfg, nil
}
