package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/donaldgifford/constructorio-go/internal/config"
	"github.com/donaldgifford/constructorio-go/pkg/constructorio"
	"github.com/donaldgifford/constructorio-go/pkg/logger"
	"github.com/donaldgifford/constructorio-go/pkg/notify"
	"github.com/donaldgifford/constructorio-go/pkg/session"
)

// app bundles the client with the resources it was built from.
type app struct {
	cfg     *config.Config
	client  *constructorio.Client
	log     *slog.Logger
	backend string
	closers []func() error
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log := logger.NewWithWriter(os.Stderr, cfg.Logging.Level, cfg.Logging.Format)
	a := &app{cfg: cfg, log: log, backend: cfg.Identity.Backend}

	store, err := a.openStore(ctx)
	if err != nil {
		_ = a.closeResources() //nolint:errcheck // the open error is returned instead
		return nil, err
	}

	opts := []constructorio.Option{
		constructorio.WithLogger(log),
		constructorio.WithSessionStore(store),
		constructorio.WithNotifier(buildNotifier(cfg, log)),
		constructorio.WithSessionTimeout(cfg.Client.SessionTimeout),
		constructorio.WithBeaconWorkers(cfg.Client.BeaconWorkers),
		constructorio.WithBeaconQueueSize(cfg.Client.BeaconQueueSize),
		constructorio.WithTrackingErrorHandler(func(event string, err error) {
			fmt.Fprintf(os.Stderr, "tracking %s failed: %v\n", event, err)
		}),
	}
	if cfg.RateLimit.Enabled {
		opts = append(opts, constructorio.WithRateLimiter(constructorio.NewRateLimiter(
			cfg.RateLimit.PerSecond, cfg.RateLimit.Burst, cfg.RateLimit.DailyLimit,
		)))
	}
	if cfg.Tracing.Enabled {
		opts = append(opts, constructorio.WithTracing())
	}

	client, err := constructorio.New(ctx, cfg.Client.SDK(), opts...)
	if err != nil {
		_ = a.closeResources() //nolint:errcheck // the open error is returned instead
		return nil, fmt.Errorf("creating client: %w", err)
	}
	a.client = client
	return a, nil
}

// openStore returns the identity store of the configured backend.
func (a *app) openStore(ctx context.Context) (session.Store, error) {
	id := a.cfg.Identity
	switch id.Backend {
	case config.BackendMemory:
		return session.NewMemoryStore(), nil
	case config.BackendFile:
		return session.NewFileStore(id.File.Path), nil
	case config.BackendRedis:
		rdb, err := session.DialRedis(ctx, id.Redis.Session())
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		a.closers = append(a.closers, rdb.Close)
		return session.NewRedisStore(rdb, id.Redis.Key), nil
	case config.BackendPostgres:
		pg, err := session.NewPostgresStore(ctx, id.Database.DSN(), id.Database.Key)
		if err != nil {
			return nil, fmt.Errorf("connecting to database: %w", err)
		}
		a.closers = append(a.closers, func() error { pg.Close(); return nil })
		if err := pg.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("running identity migrations: %w", err)
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown identity backend %q", id.Backend)
	}
}

func buildNotifier(cfg *config.Config, log *slog.Logger) notify.Notifier {
	var targets notify.Multi
	if cfg.Notifications.Webhook.Enabled {
		targets = append(targets, notify.NewWebhookNotifier(cfg.Notifications.Webhook.URL))
	}
	if cfg.Notifications.Discord.Enabled {
		targets = append(targets, notify.NewWebhookNotifier(
			cfg.Notifications.Discord.WebhookURL,
			notify.WithFormat(notify.FormatDiscord),
		))
	}
	if len(targets) == 0 {
		return notify.NewNoOpNotifier(log)
	}
	return targets
}

// Close drains the client and releases the identity store.
func (a *app) Close(ctx context.Context) error {
	var errs []error
	if a.client != nil {
		if err := a.client.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("draining tracking events: %w", err))
		}
	}
	errs = append(errs, a.closeResources())
	return errors.Join(errs...)
}

func (a *app) closeResources() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
