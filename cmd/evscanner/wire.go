package main

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/capcea/bet-backend/config"
	"github.com/capcea/bet-backend/internal/adapters/archive"
	"github.com/capcea/bet-backend/internal/adapters/lock"
	"github.com/capcea/bet-backend/internal/adapters/notify"
	"github.com/capcea/bet-backend/internal/adapters/oddsapi"
	"github.com/capcea/bet-backend/internal/adapters/postgres"
	"github.com/capcea/bet-backend/internal/adapters/storage"
	"github.com/capcea/bet-backend/internal/application/scanner"
	"github.com/capcea/bet-backend/internal/application/settlement"
	"github.com/capcea/bet-backend/internal/ports"
)

// dependencies agrupa los adapters construidos a partir de la config.
type dependencies struct {
	store   ports.Storage
	odds    *oddsapi.Client
	scanner *scanner.Scanner
	settler *settlement.Settler
	closers []func() error
}

// Close libera los recursos en orden inverso al de creación.
func (d *dependencies) Close() {
	for i := len(d.closers) - 1; i >= 0; i-- {
		if err := d.closers[i](); err != nil {
			slog.Warn("close error", "err", err)
		}
	}
}

func wire(ctx context.Context, cfg *config.Config) (*dependencies, error) {
	deps := &dependencies{}

	store, err := openStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	deps.store = store
	deps.closers = append(deps.closers, store.Close)

	deps.odds = oddsapi.NewClient(oddsapi.Options{
		BaseURL:       cfg.OddsAPI.BaseURL,
		APIKey:        cfg.OddsAPI.APIKey,
		Timeout:       cfg.OddsAPITimeout(),
		RatePerSec:    cfg.OddsAPI.RatePerSec,
		SportPrefixes: cfg.Scanner.SportPrefixes,
	})
	if !deps.odds.HasKey() {
		slog.Warn("odds api key missing or too short, upstream calls will fail")
	}

	locker, closeLocker, err := openLocker(ctx, cfg.Redis)
	if err != nil {
		deps.Close()
		return nil, err
	}
	if closeLocker != nil {
		deps.closers = append(deps.closers, closeLocker)
	}

	notifier, err := openNotifier(cfg)
	if err != nil {
		deps.Close()
		return nil, err
	}

	var archiver ports.Archiver
	if cfg.Archive.Enabled {
		a, err := archive.NewS3Archiver(ctx, archive.Config{
			Bucket:         cfg.Archive.Bucket,
			Region:         cfg.Archive.Region,
			Endpoint:       cfg.Archive.Endpoint,
			Prefix:         cfg.Archive.Prefix,
			AccessKey:      cfg.Archive.AccessKey,
			SecretKey:      cfg.Archive.SecretKey,
			ForcePathStyle: cfg.Archive.PathStyle,
		})
		if err != nil {
			deps.Close()
			return nil, err
		}
		archiver = a
	}

	deps.scanner = scanner.New(scannerConfig(cfg), deps.odds, store, store, notifier, locker)
	deps.settler = settlement.New(settlementConfig(cfg), deps.odds, store, store, notifier, archiver, locker)
	return deps, nil
}

func openStore(ctx context.Context, cfg config.StorageConfig) (ports.Storage, error) {
	switch cfg.Driver {
	case "postgres":
		store, err := postgres.New(ctx, postgres.ClientConfig{DSN: cfg.DSN})
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		return store, nil
	case "sqlite":
		store, err := storage.NewSQLiteStorage(cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("open storage: unknown driver %q", cfg.Driver)
	}
}

// openLocker usa Redis si está activado; si no, un lock en proceso.
func openLocker(ctx context.Context, cfg config.RedisConfig) (ports.Locker, func() error, error) {
	if !cfg.Enabled {
		return lock.NewLocal(), nil, nil
	}
	r, err := lock.NewRedis(ctx, lock.RedisConfig{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	if err != nil {
		return nil, nil, fmt.Errorf("open locker: %w", err)
	}
	slog.Info("redis run lock enabled", "addr", cfg.Addr)
	return r, r.Close, nil
}

func openNotifier(cfg *config.Config) (ports.Notifier, error) {
	var notifiers []ports.Notifier
	if cfg.ConsoleEnabled() {
		notifiers = append(notifiers, notify.NewConsole())
	}
	if cfg.Notify.Telegram.Enabled {
		tg, err := notify.NewTelegram(notify.TelegramConfig{
			BotToken: cfg.Notify.Telegram.BotToken,
			ChatID:   strconv.FormatInt(cfg.Notify.Telegram.ChatID, 10),
		})
		if err != nil {
			return nil, fmt.Errorf("open notifier: %w", err)
		}
		notifiers = append(notifiers, tg)
	}
	if len(notifiers) == 0 {
		return nil, nil
	}
	return notify.NewMulti(notifiers...), nil
}
