package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KotFed0t/stock_screener/config"
	"github.com/KotFed0t/stock_screener/data"
	"github.com/KotFed0t/stock_screener/data/cache"
	"github.com/KotFed0t/stock_screener/data/repository/postgres"
	"github.com/KotFed0t/stock_screener/data/session"
	"github.com/KotFed0t/stock_screener/internal/externalApi"
	"github.com/KotFed0t/stock_screener/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/stock_screener/internal/externalApi/nasdaqApi"
	"github.com/KotFed0t/stock_screener/internal/externalApi/tdaApi"
	"github.com/KotFed0t/stock_screener/internal/progressTracker"
	"github.com/KotFed0t/stock_screener/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/stock_screener/internal/scheduler"
	"github.com/KotFed0t/stock_screener/internal/service/acquireService"
	"github.com/KotFed0t/stock_screener/internal/service/universeService"
	"github.com/KotFed0t/stock_screener/internal/tgbot"
	"github.com/KotFed0t/stock_screener/internal/transport/telegram"
	"github.com/KotFed0t/stock_screener/utils"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	ctx, cancel := context.WithCancel(utils.NewCtxWithRqID(context.Background()))
	defer cancel()

	tdaApiClient := tdaApi.New(cfg)
	if err := tdaApiClient.ValidateCredential(ctx); err != nil {
		if errors.Is(err, externalApi.ErrInvalidCredential) {
			slog.Error("TDA api key rejected, check TDA_API_KEY")
		} else {
			slog.Error("can't validate TDA api key", slog.String("err", err.Error()))
		}
		os.Exit(1)
	}

	var universeCache universeService.Cache
	if cfg.Redis.Enabled {
		redisClient := data.NewRedisClient(cfg)
		defer redisClient.Close()
		universeCache = cache.NewRedisCache(redisClient, cfg)
	}

	var universeRepo universeService.Repository
	if cfg.Postgres.Enabled {
		pgClient := data.NewPostgresClient(cfg)
		defer pgClient.Close()
		universeRepo = postgres.NewPostgres(cfg, pgClient)
	}

	var cloudStorage telegram.CloudStorage
	var driveApi *googleDriveApi.GoogleDriveApi
	if cfg.GoogleDrive.Enabled {
		driveApi = googleDriveApi.New(ctx, cfg)
		cloudStorage = driveApi
	}

	universeSrv := universeService.New(cfg, nasdaqApi.New(cfg), universeCache, universeRepo)
	tracker := progressTracker.New()
	acquireSrv := acquireService.New(cfg, tdaApiClient, tracker)

	sessions := session.NewMemorySession(cfg)

	sched := scheduler.New()
	sched.NewIntervalJob("evict chat sessions", sessions.EvictExpired, cfg.Jobs.EvictSessionsInterval, false)
	if driveApi != nil {
		sched.NewIntervalJob("delete old exports", driveApi.DeleteOldFiles, cfg.Jobs.DeleteOldExportsInterval, true)
	}
	sched.Start()
	defer sched.Stop()

	tgController := telegram.NewController(cfg, sessions, xslsxGenerator.New(), cloudStorage)

	tgBot := tgbot.New(cfg, tgController)
	tgBot.Start()
	defer tgBot.Stop()

	loaded := make(chan error, 1)
	go func() {
		loaded <- loadStocks(ctx, cfg, universeSrv, acquireSrv, tracker, sched, sessions)
	}()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)

	select {
	case err := <-loaded:
		if err != nil {
			slog.Error("stocks loading failed", slog.String("err", err.Error()))
			return
		}
	case <-interrupt:
		tracker.Cancel()
		return
	}

	<-interrupt
}

func loadStocks(
	ctx context.Context,
	cfg *config.Config,
	universeSrv *universeService.UniverseService,
	acquireSrv *acquireService.AcquireService,
	tracker *progressTracker.Tracker,
	sched *scheduler.Scheduler,
	sessions *session.MemorySession,
) error {
	tickers, err := universeSrv.LoadUniverse(ctx)
	if err != nil {
		return err
	}

	progressJob := sched.NewQuietIntervalJob("log loading progress", tracker.LogProgress, cfg.Jobs.ProgressLogInterval, false)
	defer sched.RemoveJob(progressJob)

	baseline, err := acquireSrv.Acquire(ctx, tickers)
	if err != nil {
		return err
	}

	sessions.SetBaseline(baseline)
	slog.Info("stocks loaded", slog.Int("rows", baseline.Len()), slog.Int("columns", len(baseline.Columns)))

	return nil
}

func setupLogger(cfg *config.Config) {
	var logLevel slog.Level

	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warning":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(log)
}
