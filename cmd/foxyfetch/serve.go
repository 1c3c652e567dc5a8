package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/foxyhq/foxyfetch/internal/bot"
	"github.com/foxyhq/foxyfetch/internal/callback"
	"github.com/foxyhq/foxyfetch/internal/config"
	"github.com/foxyhq/foxyfetch/internal/convert"
	"github.com/foxyhq/foxyfetch/internal/downloader"
	"github.com/foxyhq/foxyfetch/internal/logger"
	"github.com/foxyhq/foxyfetch/internal/platform"
	"github.com/foxyhq/foxyfetch/internal/request"
	"github.com/foxyhq/foxyfetch/internal/store"
)

func runServe() {
	fx.New(
		fx.Provide(
			provideConfig,
			provideLogger,
			provideDBConn,
			provideCallbackCache,
			provideRequestRepository,
			provideUserRepository,
			provideStatsRepository,
			platform.NewResolver,
			provideCodec,
			provideDownloader,
			provideConverter,
			provideOrchestrator,
			provideBotAPI,
			provideBotService,
		),
		fx.Invoke(
			startCachePurger,
			startBot,
		),
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

func runMigrate() error {
	cfg, err := provideConfig()
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return store.Migrate(cfg.Postgres, logger.L)
}

func provideConfig() (config.Config, error) {
	path := configPath
	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func provideLogger(cfg config.Config) *slog.Logger {
	logger.Init(cfg.Log.Level, cfg.Log.Format)
	return logger.L
}

func provideDBConn(lc fx.Lifecycle, cfg config.Config, log *slog.Logger) (*pgxpool.Pool, error) {
	if err := store.Migrate(cfg.Postgres, log); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	pool, err := store.Connect(context.Background(), cfg.Postgres, log)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}
	lc.Append(fx.Hook{OnStop: func(ctx context.Context) error { pool.Close(); return nil }})
	return pool, nil
}

func provideCallbackCache(log *slog.Logger, pool *pgxpool.Pool, cfg config.Config) *store.CallbackCache {
	return store.NewCallbackCache(log, pool, cfg.Callback.TTL())
}

func provideRequestRepository(pool *pgxpool.Pool) *store.RequestRepository {
	return store.NewRequestRepository(pool)
}

func provideUserRepository(pool *pgxpool.Pool) *store.UserRepository {
	return store.NewUserRepository(pool)
}

func provideStatsRepository(pool *pgxpool.Pool) *store.StatsRepository {
	return store.NewStatsRepository(pool)
}

func provideCodec(log *slog.Logger, resolver *platform.Resolver, cache *store.CallbackCache) *callback.Codec {
	return callback.NewCodec(log, resolver, cache)
}

func provideDownloader(log *slog.Logger) *downloader.Service {
	return downloader.NewService(log)
}

func provideConverter(log *slog.Logger, cfg config.Config) *convert.Converter {
	return convert.NewConverter(log, cfg.Convert.FFmpegPath, cfg.Convert.GIFWidth, cfg.Convert.GIFFPS)
}

func provideOrchestrator(log *slog.Logger, dl *downloader.Service, conv *convert.Converter, requests *store.RequestRepository, cfg config.Config) *request.Orchestrator {
	return request.NewOrchestrator(log, dl, conv, requests, cfg.Download.Dir)
}

func provideBotAPI(cfg config.Config) (bot.API, error) {
	return bot.NewBotAPI(cfg.Telegram)
}

func provideBotService(
	log *slog.Logger,
	api bot.API,
	resolver *platform.Resolver,
	codec *callback.Codec,
	dl *downloader.Service,
	orchestrator *request.Orchestrator,
	requests *store.RequestRepository,
	users *store.UserRepository,
	stats *store.StatsRepository,
	cfg config.Config,
) *bot.Service {
	return bot.NewService(log, api, resolver, codec, dl, orchestrator, requests, users, stats, cfg)
}

// startCachePurger sweeps expired callback references hourly.
func startCachePurger(lc fx.Lifecycle, log *slog.Logger, cache *store.CallbackCache) {
	c := cron.New()
	_, err := c.AddFunc("@hourly", func() {
		if _, err := cache.PurgeExpired(context.Background()); err != nil {
			log.Warn("callback cache purge failed", slog.String("error", err.Error()))
		}
	})
	if err != nil {
		log.Error("schedule cache purge failed", slog.String("error", err.Error()))
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error { c.Start(); return nil },
		OnStop:  func(ctx context.Context) error { c.Stop(); return nil },
	})
}

func startBot(lc fx.Lifecycle, log *slog.Logger, svc *bot.Service, shutdowner fx.Shutdowner, cfg config.Config) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := os.MkdirAll(cfg.Download.Dir, 0o755); err != nil {
				cancel()
				return fmt.Errorf("create download dir: %w", err)
			}
			go func() {
				if err := svc.Run(ctx); err != nil && ctx.Err() == nil {
					log.Error("bot stopped unexpectedly", slog.String("error", err.Error()))
					_ = shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(context.Context) error { cancel(); return nil },
	})
}
