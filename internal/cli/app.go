package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fortuna/ncaa-boxscores/internal/config"
	"github.com/fortuna/ncaa-boxscores/internal/ingest/ncaacom"
	"github.com/fortuna/ncaa-boxscores/internal/logging"
	"github.com/fortuna/ncaa-boxscores/internal/notify"
	"github.com/fortuna/ncaa-boxscores/internal/reconciliation"
	"github.com/fortuna/ncaa-boxscores/internal/retry"
	"github.com/fortuna/ncaa-boxscores/internal/session"
	"github.com/fortuna/ncaa-boxscores/internal/store"
	"github.com/fortuna/ncaa-boxscores/internal/store/csvstore"
	"github.com/fortuna/ncaa-boxscores/internal/upload"
	"go.uber.org/zap"
)

// appConfig is the environment configuration with command-line overrides applied.
type appConfig struct {
	config.Config
	OutputDir    string
	RemoteFolder string
}

// run wires every component and executes one scraping run.
func run(ctx context.Context, cfg appConfig, spec session.Spec) error {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if cfg.EnvFile != "" {
		logger.Info("loaded .env", zap.String("path", cfg.EnvFile))
	}
	if abs, err := filepath.Abs(cfg.OutputDir); err == nil {
		logger.Info("output directory", zap.String("path", abs))
	}

	csvStore, err := csvstore.New(cfg.OutputDir, logger)
	if err != nil {
		return fmt.Errorf("initializing output directory: %w", err)
	}

	notifier, closeNotifiers := buildNotifier(ctx, cfg, logger)
	defer closeNotifiers()

	deps := session.Deps{Store: csvStore, Notifier: notifier}
	var scheduler *upload.Scheduler
	if spec.Upload {
		remote, err := upload.NewS3Store(ctx, upload.S3Config{
			Bucket: cfg.S3Bucket,
			Folder: cfg.RemoteFolder,
			Region: cfg.AWSRegion,
		}, logger)
		if err != nil {
			notifier.Notify(ctx, notify.Alert{
				Severity: notify.SeverityError,
				Message:  fmt.Sprintf("Remote storage unavailable: %v", err),
			})
			return fmt.Errorf("initializing remote storage: %w", err)
		}
		scheduler = upload.NewScheduler(remote, logger)
		deps.Flusher = scheduler
		deps.Remote = remote
	}

	client, err := ncaacom.NewClient(ncaacom.ClientConfig{
		Headless:    cfg.Headless,
		WaitTimeout: cfg.WaitTimeout,
		SleepTime:   cfg.SleepTime,
		PageTimeout: ncaacom.DefaultClientConfig().PageTimeout,
	}, logger)
	if err != nil {
		notifier.Notify(ctx, notify.Alert{
			Severity: notify.SeverityError,
			Message:  fmt.Sprintf("Browser failed to start: %v", err),
		})
		return err
	}
	defer client.Close()

	ingestCfg := ncaacom.Config{
		Policy:   retry.Policy{MaxAttempts: cfg.MaxAttempts, Backoff: cfg.RetryBackoff},
		Notifier: notifier,
	}
	var reconcileScheduler reconciliation.Scheduler
	if scheduler != nil {
		ingestCfg.Scheduler = scheduler
		reconcileScheduler = scheduler
	}
	deps.Scraper = ncaacom.NewIngester(client, csvStore, ingestCfg, logger)
	deps.Reconciler = reconciliation.NewReconciler(csvStore, reconcileScheduler, logger)

	reporters := session.MultiReporter{session.NewLogReporter(logger)}
	if cfg.LedgerDSN != "" {
		db, err := openLedger(ctx, cfg.LedgerDSN)
		if err != nil {
			logger.Warn("run ledger disabled", zap.Error(err))
		} else {
			defer db.Close()
			reporters = append(reporters, session.NewLedgerReporter(ctx, store.NewLedger(db), logger))
		}
	}

	return session.NewRunner(deps, logger).Run(ctx, spec, reporters)
}

// buildNotifier combines every configured alert backend. Backends that fail to connect are
// logged and left out.
func buildNotifier(ctx context.Context, cfg appConfig, logger *zap.Logger) (notify.Notifier, func()) {
	var notifiers []notify.Notifier
	var closers []func() error

	if cfg.DiscordWebhookURL != "" {
		d, err := notify.NewDiscord(cfg.DiscordWebhookURL)
		if err != nil {
			logger.Warn("discord notifications disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, notify.Logged("discord", d, logger))
		}
	}
	if cfg.RedisURL != "" {
		rs, err := notify.NewRedisStream(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn("redis alert stream disabled", zap.Error(err))
		} else {
			notifiers = append(notifiers, notify.Logged("redis", rs, logger))
			closers = append(closers, rs.Close)
		}
	}
	if len(notifiers) == 0 {
		logger.Info("no alert backends configured")
	}

	return notify.Combine(notifiers...), func() {
		for _, c := range closers {
			if err := c(); err != nil {
				logger.Warn("closing alert backend", zap.Error(err))
			}
		}
	}
}

func openLedger(ctx context.Context, dsn string) (*store.Database, error) {
	db, err := store.NewDatabase(ctx, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
