package app

import (
	"context"

	"github.com/jperaza/finbot/internal/config"
	"github.com/jperaza/finbot/internal/delivery/telegram"
	"github.com/jperaza/finbot/internal/infra/db"
	"github.com/jperaza/finbot/internal/infra/log"
	"github.com/jperaza/finbot/internal/infra/market"
	"github.com/jperaza/finbot/internal/infra/ollama"
	"github.com/jperaza/finbot/internal/infra/yahoo"
	"github.com/jperaza/finbot/internal/usecase"
	"go.uber.org/zap"
)

type App struct {
	bot       *telegram.Bot
	checker   *usecase.AlertChecker
	logger    *zap.Logger
	cleanupFn func() error
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	logger, err := log.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	dbConn, err := db.Open(cfg, logger)
	if err != nil {
		return nil, err
	}

	alertRepo := db.NewAlertRepository(dbConn)
	yahooClient := yahoo.NewClient(cfg.YahooQuoteBaseURL, cfg.YahooSearchBaseURL, cfg.YahooTimeout, logger)
	llmClient := ollama.NewClient(cfg.OllamaAPIURL, cfg.OllamaModel, cfg.OllamaTimeout, logger)
	priceCache := market.NewPriceCache(yahooClient, cfg.PriceTTL, cfg.HistoryTTL, cfg.CacheMaxEntries, logger)

	symbolUC := usecase.NewSymbolUsecase(priceCache, yahooClient, cfg.ResolveTTL, logger)
	alertUC := usecase.NewAlertUsecase(alertRepo, llmClient, symbolUC, logger)
	quoteUC := usecase.NewQuoteUsecase(symbolUC, priceCache, llmClient, logger)
	intentUC := usecase.NewIntentUsecase(llmClient, logger)
	shockUC := usecase.NewShockUsecase(priceCache, cfg.ShockThreshold15m, cfg.ShockThreshold1h)

	api, err := telegram.NewAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, err
	}

	notifier := telegram.NewNotifier(api, logger)
	checker := usecase.NewAlertChecker(alertRepo, priceCache, notifier, cfg.CheckInterval, logger)
	handlers := telegram.NewHandlers(intentUC, alertUC, quoteUC, shockUC, symbolUC, llmClient, logger)
	bot := telegram.NewBot(api, handlers, cfg.TelegramPollTimeout)

	cleanup := func() error {
		sqlDB, err := dbConn.DB()
		if err != nil {
			return err
		}
		return sqlDB.Close()
	}

	return &App{bot: bot, checker: checker, logger: logger, cleanupFn: cleanup}, nil
}

func (a *App) Run(ctx context.Context) error {
	a.logger.Info("finbot service starting")
	if err := a.checker.Start(ctx); err != nil {
		return err
	}

	a.logger.Info("finbot service started")
	return a.bot.Start(ctx)
}

func (a *App) Shutdown() {
	a.logger.Info("finbot service shutting down")
	a.checker.Stop()
	if a.cleanupFn != nil {
		if err := a.cleanupFn(); err != nil {
			a.logger.Warn("failed to close database", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
