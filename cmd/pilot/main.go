package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rxtech-lab/argo-pilot/internal/api"
	"github.com/rxtech-lab/argo-pilot/internal/config"
	"github.com/rxtech-lab/argo-pilot/internal/indicator"
	"github.com/rxtech-lab/argo-pilot/internal/logger"
	"github.com/rxtech-lab/argo-pilot/internal/stats"
	"github.com/rxtech-lab/argo-pilot/internal/strategy"
	"github.com/rxtech-lab/argo-pilot/internal/trading"
	"github.com/rxtech-lab/argo-pilot/internal/types"
	"github.com/rxtech-lab/argo-pilot/internal/venue"
	"github.com/rxtech-lab/argo-pilot/internal/venue/deriv"
	"github.com/rxtech-lab/argo-pilot/internal/venue/feed"
	"github.com/rxtech-lab/argo-pilot/internal/venue/paper"
	"github.com/rxtech-lab/argo-pilot/internal/version"
)

func main() {
	cmd := &cli.Command{
		Name:    "pilot",
		Usage:   "Automated binary-options trading agent",
		Version: version.Version,
		Commands: []*cli.Command{
			runCommand(),
			initCommand(),
			schemaCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Connect to the venue and trade the configured symbols",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML configuration file",
				Value:   "config.yaml",
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "Path to a .env file with credentials",
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Log at debug level with console formatting",
			},
		},
		Action: runAction,
	}
}

func initCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a default configuration file",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "out",
				Aliases: []string{"o"},
				Usage:   "Destination path for the generated file",
				Value:   "config.yaml",
			},
		},
		Action: initAction,
	}
}

func schemaCommand() *cli.Command {
	return &cli.Command{
		Name:   "schema",
		Usage:  "Print the configuration JSON schema",
		Action: schemaAction,
	}
}

// runAction wires the agent together and runs it until a signal or a fatal
// error stops it.
func runAction(ctx context.Context, cmd *cli.Command) error {
	if envPath := cmd.String("env"); envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", envPath, err)
		}
	}

	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	if cmd.Bool("debug") {
		cfg.Log.Debug = true
	}

	appLog, err := buildLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = appLog.Sync() }()

	tradingVenue, err := buildVenue(cfg, appLog)
	if err != nil {
		return err
	}

	engine := indicator.NewEngine(cfg.Indicators, cfg.LookbackPeriods)
	evaluator := strategy.NewEvaluator(cfg.Strategy, cfg.MinSignalStrength)
	tracker := stats.NewTracker(appLog)
	orch := trading.NewOrchestrator(cfg, tradingVenue, engine, evaluator, tracker, appLog)

	control := api.NewServer(orch, tracker, appLog)
	if err := control.Start(fmt.Sprintf(":%d", cfg.API.Port)); err != nil {
		return err
	}
	defer func() { _ = control.Stop() }()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, draining open trades...")
		cancel()
	}()

	fmt.Printf("Starting %s venue with %d symbols, control surface on :%d\n",
		cfg.Venue, len(cfg.Symbols), cfg.API.Port)

	err = orch.Run(runCtx, runCallbacks(cfg))

	if path := cfg.Stats.SnapshotPath; path != "" {
		if snapErr := tracker.WriteSnapshotYAML(path); snapErr != nil {
			appLog.Error("failed to write stats snapshot", zap.Error(snapErr))
		} else {
			fmt.Printf("Stats snapshot written to %s\n", path)
		}
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Println("Trading stopped by user")

			return nil
		}

		return err
	}

	return nil
}

func initAction(_ context.Context, cmd *cli.Command) error {
	out := cmd.String("out")

	if _, err := os.Stat(out); err == nil {
		return fmt.Errorf("refusing to overwrite existing %s", out)
	}

	cfg := config.DefaultConfig()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to render default config: %w", err)
	}

	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}

	fmt.Printf("Wrote default configuration to %s\n", out)

	return nil
}

func schemaAction(_ context.Context, _ *cli.Command) error {
	cfg := config.DefaultConfig()

	schema, err := cfg.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func buildLogger(cfg *config.Config) (*logger.Logger, error) {
	if cfg.Log.Debug {
		return logger.NewDevelopmentLogger()
	}

	if cfg.Log.File != "" {
		return logger.NewFileLogger(cfg.Log.File)
	}

	return logger.NewLogger()
}

// buildVenue selects the venue implementation. Credentials are only
// required, and only read, for the deriv venue.
func buildVenue(cfg *config.Config, appLog *logger.Logger) (venue.Venue, error) {
	switch cfg.Venue {
	case config.VenueDeriv:
		creds, err := config.LoadCredentials()
		if err != nil {
			return nil, err
		}

		return deriv.NewClient(cfg, creds, appLog), nil
	case config.VenuePaper:
		priceFeed, err := buildFeed(cfg, appLog)
		if err != nil {
			return nil, err
		}

		return paper.NewSimulator(cfg, priceFeed, appLog), nil
	default:
		return nil, fmt.Errorf("unknown venue %q", cfg.Venue)
	}
}

func buildFeed(cfg *config.Config, appLog *logger.Logger) (feed.Feed, error) {
	switch cfg.Paper.Feed {
	case config.FeedSynthetic:
		return feed.NewSynthetic(cfg.Symbols, cfg.Paper), nil
	case config.FeedBinance:
		return feed.NewBinance(cfg.Symbols, appLog), nil
	default:
		return nil, fmt.Errorf("unknown paper feed %q", cfg.Paper.Feed)
	}
}

// runCallbacks builds the console-facing callbacks: a seeding progress bar
// and one line per order event.
func runCallbacks(cfg *config.Config) trading.Callbacks {
	total := int64(len(cfg.Symbols) * len(cfg.Timeframes))
	bar := progressbar.Default(total)
	bar.Describe("Seeding history")

	onSeedDone := trading.OnSeedDoneCallback(func(_ string, _ types.Timeframe, _ int) {
		_ = bar.Add(1)
	})
	onOrderPlaced := trading.OnOrderPlacedCallback(func(req types.TradeRequest) {
		fmt.Printf("Order placed: %s %s stake=%.2f duration=%d%s\n",
			req.Direction, req.Symbol, req.Stake, req.Duration, req.Unit)
	})
	onTradeSettled := trading.OnTradeSettledCallback(func(result types.TradeResult) {
		fmt.Printf("Trade settled: %s %s P/L=%.2f\n",
			result.Symbol, result.Outcome, result.ProfitLoss)
	})
	onStop := trading.OnStopCallback(func(err error) {
		if err != nil && !errors.Is(err, context.Canceled) {
			fmt.Printf("Agent stopped with error: %v\n", err)
		} else {
			fmt.Println("Agent stopped")
		}
	})

	return trading.Callbacks{
		OnSeedDone:     &onSeedDone,
		OnSignal:       nil,
		OnOrderPlaced:  &onOrderPlaced,
		OnOrderFilled:  nil,
		OnTradeSettled: &onTradeSettled,
		OnStop:         &onStop,
	}
}
