package main

import (
	"flag"
	"fmt"
	"os"

	"flowlog-tagger/internal/app"
	"flowlog-tagger/internal/config"
)

var (
	// version is meant to be overridden at build time via -ldflags.
	version = "dev"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(app.ExitUsage)
	}
	if cfg.ShowHelp {
		flag.Usage()
		os.Exit(app.ExitOK)
	}

	os.Exit(app.Run(cfg, version))
}
