package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/capcea/bet-backend/config"
	"github.com/capcea/bet-backend/internal/adapters/notify"
	"github.com/capcea/bet-backend/internal/application/scanner"
	"github.com/capcea/bet-backend/internal/application/settlement"
	"github.com/capcea/bet-backend/internal/domain"
	"github.com/capcea/bet-backend/internal/server"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	once := flag.Bool("once", false, "run one scan and exit")
	settleOnce := flag.Bool("settle", false, "run one settlement and exit")
	report := flag.Bool("report", false, "print stats and upcoming picks, then exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	hours := flag.Float64("hours", 0, "scan window in hours (overrides config)")
	evMin := flag.Float64("ev-min", -1, "minimum EV as a fraction (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *hours > 0 {
		cfg.Scanner.Hours = *hours
	}
	if *evMin >= 0 {
		cfg.Scanner.EVMin = evMin
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}
	setupLogger(cfg.Log)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("evscanner starting",
		"version", version,
		"config", *configPath,
		"storage", cfg.Storage.Driver,
		"scan_interval", cfg.ScanInterval(),
		"settle_interval", cfg.SettleInterval(),
		"once", *once,
		"settle", *settleOnce,
		"report", *report,
	)

	deps, err := wire(ctx, cfg)
	if err != nil {
		slog.Error("startup failed", "err", err)
		os.Exit(1)
	}
	defer deps.Close()

	switch {
	case *report:
		if err := printReport(ctx, deps.store, notify.NewConsole()); err != nil {
			slog.Error("report failed", "err", err)
			os.Exit(1)
		}
	case *once:
		res, err := deps.scanner.RunOnce(ctx, deps.scanner.Defaults())
		if err != nil {
			slog.Error("scan failed", "err", err)
			os.Exit(1)
		}
		if !cfg.ConsoleEnabled() {
			notify.NewConsole().PrintPicks(res.Picks)
		}
	case *settleOnce:
		if _, err := deps.settler.RunOnce(ctx); err != nil {
			slog.Error("settlement failed", "err", err)
			os.Exit(1)
		}
	default:
		if err := serve(ctx, cfg, deps); err != nil {
			slog.Error("evscanner exited with error", "err", err)
			os.Exit(1)
		}
	}

	slog.Info("evscanner stopped cleanly")
}

// serve corre la API HTTP y los dos loops hasta recibir una señal.
func serve(ctx context.Context, cfg *config.Config, deps *dependencies) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return deps.scanner.Run(ctx) })
	g.Go(func() error { return deps.settler.Run(ctx) })

	if cfg.ServerEnabled() {
		srv := server.New(server.Config{
			Addr:        cfg.Server.Addr,
			CORSOrigins: cfg.Server.CORSOrigins,
			MCPEnabled:  cfg.MCPEnabled(),
			Version:     version,
		}, deps.scanner, deps.settler, deps.store, deps.odds)
		g.Go(func() error { return srv.Run(ctx) })
	}

	return g.Wait()
}

func scannerConfig(cfg *config.Config) scanner.Config {
	sc := scanner.DefaultConfig()
	sc.Interval = cfg.ScanInterval()
	sc.Defaults = scanner.Params{Window: cfg.ScanWindow(), EVMin: cfg.EVMin()}
	sc.Region = cfg.Scanner.Region
	sc.Sharp = domain.NewSharpList(cfg.Scanner.SharpSources)
	sc.LockTTL = cfg.LockTTL()
	sc.Workers = cfg.Scanner.Workers
	return sc
}

func settlementConfig(cfg *config.Config) settlement.Config {
	sc := settlement.DefaultConfig()
	sc.Interval = cfg.SettleInterval()
	sc.Lookahead = cfg.SettleLookahead()
	sc.BatchSize = cfg.Settlement.BatchSize
	sc.MaxEvents = cfg.Settlement.MaxEvents
	sc.DaysFrom = cfg.Settlement.DaysFrom
	sc.LockTTL = cfg.LockTTL()
	return sc
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
