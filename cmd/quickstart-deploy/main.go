package main

import (
	"os"

	"github.com/juju-qa/quickstart-deploy/internal/cli"
	"github.com/juju-qa/quickstart-deploy/internal/logging"
)

// main is the entry point for the quickstart-deploy binary.
func main() {
	logger := logging.NewLogger(os.Stderr, logging.LevelInfo)
	if err := cli.Execute(os.Args[1:], logger); err != nil {
		logger.Error("quickstart-deploy failed", "error", err)
		os.Exit(1)
	}
}
