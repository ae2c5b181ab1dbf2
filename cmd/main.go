package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/KotFed0t/patrimoine_tracker_bot/config"
	"github.com/KotFed0t/patrimoine_tracker_bot/data"
	"github.com/KotFed0t/patrimoine_tracker_bot/data/repository"
	"github.com/KotFed0t/patrimoine_tracker_bot/data/session"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/externalApi"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/externalApi/cloudStorageApi/googleDriveApi"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/externalApi/coinGeckoApi"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/externalApi/coinbaseApi"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/externalApi/cryptoCompareApi"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/externalApi/finnhubApi"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/externalApi/yahooApi"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/reportGenerator/xslsxGenerator"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/scheduler"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/service/currency"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/service/patrimoineService"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/service/pricing"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/tgbot"
	"github.com/KotFed0t/patrimoine_tracker_bot/internal/transport/telegram"
	"github.com/go-resty/resty/v2"
)

func main() {
	cfg := config.MustLoad()

	setupLogger(cfg)

	slog.Debug("config", slog.Any("cfg", cfg))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgClient := data.NewPostgresClient(cfg)
	defer pgClient.Close()

	pgRepo := repository.NewPostgres(cfg, pgClient)

	redisClient := data.NewRedisClient(cfg)
	defer redisClient.Close()

	redisSession := session.NewRedisSession(redisClient, cfg)

	proxyClient := resty.New().
		SetDebug(cfg.API.Debug).
		SetTimeout(cfg.API.Timeout)
	proxyChain := externalApi.NewProxyChain(proxyClient, cfg.API.CorsProxies)

	cryptoCompare := cryptoCompareApi.New(cfg)
	coinbase := coinbaseApi.New(cfg)
	coinGecko := coinGeckoApi.New(cfg, proxyChain)
	finnhub := finnhubApi.New(cfg)
	yahoo := yahooApi.New(cfg, proxyChain)

	quoteCache := pricing.NewQuoteCache(cfg.Cache.QuotesExpiration)
	resolver := pricing.NewResolver(
		quoteCache,
		[]pricing.CryptoSource{cryptoCompare, coinbase, coinGecko},
		finnhub,
		yahoo,
		func() string { return cfg.API.Finnhub.Token },
	)

	rates := currency.New(yahoo)

	reportGenerator := xslsxGenerator.New()

	googleCloudStorage := googleDriveApi.New(ctx, cfg)

	patrimoineSrv := patrimoineService.New(cfg, pgRepo, resolver, rates, coinGecko, finnhub, reportGenerator, googleCloudStorage)

	sched := scheduler.New()
	sched.NewIntervalJob("refresh prices", patrimoineSrv.RefreshPrices, cfg.Jobs.RefreshPricesInterval, true)
	sched.NewCrontabJob("drive cleanup", googleCloudStorage.DeleteOldFiles, cfg.Jobs.DriveCleanupCrontab, false)
	sched.Start()
	defer sched.Stop()

	tgController := telegram.NewController(patrimoineSrv, redisSession)

	tgBot := tgbot.New(cfg, tgController, redisSession)
	tgBot.Start()
	defer tgBot.Stop()

	// Waiting interruption signal
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-interrupt
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
