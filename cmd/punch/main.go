/*
main.go - Application entry point

PURPOSE:
  Loads configuration from the environment and runs the punch command line.

ENVIRONMENT:
  See config/config.go. Flags override variables.

EXAMPLES:
  punch init alice --timezone Europe/Berlin
  punch in
  punch out
  punch report
  punch server -b 0.0.0.0:8080

SEE ALSO:
  - cli/root.go: Commands
*/
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/simmons/punch/cli"
	"github.com/simmons/punch/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	app := &cli.App{
		Config: cfg,
		Now:    time.Now,
		Styled: isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()),
	}

	return cli.NewRootCmd(app).ExecuteContext(context.Background())
}
