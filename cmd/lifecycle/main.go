package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/jeden-/agent-mt5/internal/adapter"
	"github.com/jeden-/agent-mt5/internal/config"
	"github.com/jeden-/agent-mt5/internal/engine/oco"
	"github.com/jeden-/agent-mt5/internal/engine/partialclose"
	"github.com/jeden-/agent-mt5/internal/engine/stops"
	"github.com/jeden-/agent-mt5/internal/logger"
	"github.com/jeden-/agent-mt5/internal/scheduler"
	"github.com/jeden-/agent-mt5/internal/venue/paper"
	"github.com/jeden-/agent-mt5/internal/version"
)

// runAction wires the adapter, engines, and scheduler and runs until a
// termination signal arrives.
func runAction(ctx context.Context, cmd *cli.Command) error {
	log, err := logger.NewLogger()
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Paper mode is currently the only built-in venue; live terminal
	// connectors plug in through the venue.Venue interface.
	paperVenue := paper.NewVenue(cmd.Float("balance"))

	for _, symbol := range splitSymbols(cmd.String("symbols")) {
		// Synthetic starting quote for dry runs.
		paperVenue.SetQuote(symbol, 1.1000, 1.1002)
	}

	exec := adapter.NewAdapter(paperVenue, cfg.AdapterConfig(), log)

	if err := exec.EnsureConnected(ctx); err != nil {
		return fmt.Errorf("venue probe failed: %w", err)
	}

	stopSelector, err := cfg.StopSelector()
	if err != nil {
		return fmt.Errorf("failed to build stop selector: %w", err)
	}

	partialSelector, err := cfg.PartialCloseSelector()
	if err != nil {
		return fmt.Errorf("failed to build partial close selector: %w", err)
	}

	stopsEngine := stops.NewEngine(exec, stopSelector, log)
	partialEngine := partialclose.NewEngine(exec, partialSelector, log)
	coordinator := oco.NewCoordinator(exec, oco.NewRepository(), log)

	lifecycle := scheduler.NewLifecycle(exec, stopsEngine, partialEngine, coordinator, cfg.SchedulerConfig(), log)

	driver := scheduler.NewDriver(cfg.SchedulerConfig(), log)
	lifecycle.Register(driver)

	exec.StartBatching(ctx)
	driver.Start(ctx)

	log.Info("lifecycle agent started",
		zap.String("version", version.GetVersion()),
		zap.Duration("cycle_interval", cfg.SchedulerConfig().CycleInterval),
	)

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-signalCtx.Done()

	log.Info("shutting down")

	if !driver.Stop() {
		log.Warn("scheduler shutdown timed out")
	}

	exec.StopBatching(context.WithoutCancel(ctx))

	return nil
}

// schemaAction prints the JSON schema for the configuration file.
func schemaAction(_ context.Context, _ *cli.Command) error {
	cfg := &config.Config{}

	schema, err := cfg.GenerateSchema()
	if err != nil {
		return fmt.Errorf("failed to generate schema: %w", err)
	}

	raw, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	fmt.Println(string(raw))

	return nil
}

func splitSymbols(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	return parts
}

func main() {
	cmd := &cli.Command{
		Name:  "lifecycle",
		Usage: "Manage protective stops, partial closes, and OCO pairs for open positions",
		Commands: []*cli.Command{
			{
				Name:  "run",
				Usage: "Run the lifecycle scheduler",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "config",
						Aliases:  []string{"c"},
						Usage:    "Path to the YAML configuration file",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "symbols",
						Aliases:  []string{"s"},
						Usage:    "Comma-separated symbols to seed paper quotes for",
						Value:    "EURUSD",
						Required: false,
					},
					&cli.FloatFlag{
						Name:     "balance",
						Usage:    "Paper venue starting balance",
						Value:    10000,
						Required: false,
					},
				},
				Action: runAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the configuration JSON schema",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
