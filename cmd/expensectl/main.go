// Command expensectl manages expenses and the profile from the terminal,
// against the same store the server uses.
package main

import (
	"context"
	"fmt"
	"os"

	"expenseflow/internal/backend"
	"expenseflow/internal/cli"
	"expenseflow/internal/config"
	applog "expenseflow/internal/log"
)

func main() {
	cli.LoadEnvFile()
	cfg := config.LoadCLI()

	open := func(ctx context.Context) (*backend.BackendResult, error) {
		if err := cfg.ValidateCLI(); err != nil {
			return nil, err
		}
		// Logs go to stderr so command output stays parseable.
		logger := cli.SetupLogger(cfg, applog.ComponentCLI, os.Stderr)
		return cli.OpenBackend(ctx, logger, cfg)
	}

	ctx, stop := cli.SignalContext(context.Background())
	defer stop()

	if err := newRootCmd(open).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
