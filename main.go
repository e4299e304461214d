package main

import (
	"context"
	"conntest/config"
	"conntest/internal/dispatcher"
	"conntest/internal/logger"
	"conntest/internal/reporter"
	"conntest/internal/resolver"
	"conntest/internal/scanner"
	"conntest/pkg/utils"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// exitConfigError is returned when a run could not start because of bad input.
// Probe failures never change the exit code.
const exitConfigError = 11

// main is the entry point for the connectivity tester.
func main() {
	cmd := config.NewCommand(func(cmd *cobra.Command, cfg *config.Config) error {
		return run(cmd.Context(), cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
	})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		pterm.Error.WithWriter(os.Stderr).Println("ERROR in main: " + err.Error())
		os.Exit(exitConfigError)
	}
}

// run probes every configured target and writes one line per target to stdout.
// Diagnostics and the large-list advisory go to stderr.
func run(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer) error {
	appLogger, closeLogFile := logger.New(stderr, cfg.LogFile, cfg.LogLevel)
	defer closeLogFile()
	appLogger = appLogger.With(slog.String("run_id", uuid.NewString()))

	appLogger.Info("Configuration loaded.",
		"targets", len(cfg.Targets),
		"default_port", cfg.DefaultPort,
		"timeout", cfg.Timeout,
		"threads", cfg.Threads,
		"dry_run", cfg.DryRun,
	)

	dialer, err := scanner.NewDialer(cfg.Proxy, cfg.Timeout)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidConfig, err)
	}

	res := resolver.New(cfg.DNSServers)
	if servers := res.Servers(); len(servers) > 0 {
		appLogger.Debug("Using custom DNS servers.", "servers", servers)
	}

	probe := scanner.NewConnectScanner(cfg.Timeout, cfg.DefaultPort, res, dialer, appLogger)
	probe.DryRun = cfg.DryRun

	if dispatcher.NeedsAdvisory(cfg.Threads, len(cfg.Targets)) {
		pterm.Warning.WithWriter(stderr).Printfln(
			"You might consider setting --no-threads to some limit with so many [%d] targets", len(cfg.Targets))
	}
	utils.CheckFileDescriptorLimit(appLogger, dispatcher.EffectiveWorkers(cfg.Threads, len(cfg.Targets)))

	rep := reporter.New(stdout, appLogger)
	startTime := time.Now()
	dispatcher.New(probe, cfg.Threads, appLogger).Run(ctx, cfg.Targets, rep.Report)
	rep.LogSummary(time.Since(startTime))
	return nil
}
