package main

import (
	"errors"
	"flag"
	"os"
)

// version is injected at build time with -ldflags "-X main.version=...".
var version = "dev"

// cliConfig holds user-supplied flag values prior to translation into
// mmserver.Config, mirroring the teacher's flags.go split between raw CLI
// input and the server's own config type.
type cliConfig struct {
	listenAddr  string
	logLevel    string
	configPath  string
	certFile    string
	keyFile     string
	metricsAddr string
	showVersion bool
}

func parseFlags(args []string) (*cliConfig, error) {
	fs := flag.NewFlagSet("mm-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	cfg := &cliConfig{}
	fs.StringVar(&cfg.listenAddr, "listen", "", "UDP listen address (overrides -config's listen_addr)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	fs.StringVar(&cfg.configPath, "config", "", "Path to a YAML application catalog (optional)")
	fs.StringVar(&cfg.certFile, "cert", "", "TLS certificate file (self-signed cert used if omitted)")
	fs.StringVar(&cfg.keyFile, "key", "", "TLS private key file (self-signed cert used if omitted)")
	fs.StringVar(&cfg.metricsAddr, "metrics-addr", ":9598", "HTTP listen address for /metrics")
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
