package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sangam-admin/internal/api"
	"sangam-admin/internal/config"
	"sangam-admin/internal/metrics"
	"sangam-admin/internal/migrations"
	"sangam-admin/internal/payout"
	"sangam-admin/internal/policy"
	"sangam-admin/internal/promotion"
	"sangam-admin/internal/referral"
	"sangam-admin/internal/scheduler"
	"sangam-admin/internal/stats"
	"sangam-admin/internal/store"

	"go.uber.org/zap"
)

func main() {
	// Инициализация логгера
	logger, err := initLogger()
	if err != nil {
		fmt.Printf("Ошибка инициализации логгера: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("запуск приложения Sangam Admin")

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("ошибка загрузки конфигурации", zap.Error(err))
	}

	// Инициализация базы данных
	store, err := store.NewStore(cfg, logger)
	if err != nil {
		logger.Fatal("ошибка инициализации базы данных", zap.Error(err))
	}
	defer store.Close()

	// Применение миграций
	if err := migrations.RunMigrations(cfg, logger); err != nil {
		logger.Fatal("ошибка применения миграций", zap.Error(err))
	}

	// Инициализация клиента статистики
	statsClient := stats.NewClient(cfg.Stats.APIURL, cfg.Stats.APIKey, logger)
	logger.Info("клиент API статистики инициализирован", zap.String("url", cfg.Stats.APIURL))

	// Недоступность API статистики не мешает запуску: счетчики
	// обновятся при следующем цикле планировщика
	healthCtx, healthCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := statsClient.HealthCheck(healthCtx); err != nil {
		logger.Warn("API статистики недоступен при запуске", zap.Error(err))
	}
	healthCancel()

	// Инициализация метрик
	metricsSystem := metrics.New(logger)
	metricsHandler := metrics.NewHandler(metricsSystem, logger)

	// Инициализация сервисов
	policyService := policy.NewService(store.Policy(), logger)
	promotionService := promotion.NewService(store.Promotion(), store.Policy(), statsClient, logger)
	referralService := referral.NewService(store.Referral(), store.Mediator(), metricsSystem, logger)
	payoutService := payout.NewService(
		store.Promotion(),
		store.Referral(),
		store.Mediator(),
		store.Payout(),
		metricsSystem,
		cfg.Payout.RewardPerPurchase,
		logger,
	)
	logger.Info("конфигурация выплат",
		zap.String("reward_per_purchase", cfg.Payout.RewardPerPurchase.String()),
		zap.String("currency", cfg.Payout.Currency))

	// Инициализация HTTP обработчиков
	payoutHandler := api.NewPayoutHandler(payoutService, cfg.App.APIToken, logger)
	adminHandler := api.NewAdminHandler(policyService, promotionService, referralService, cfg.App.APIToken, logger)

	// Инициализация планировщика задач
	taskScheduler := scheduler.NewScheduler(logger)
	taskScheduler.AddJob(scheduler.NewStatsRefreshJob(promotionService, metricsSystem, logger))

	// Создание канала для graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Обработка сигналов для graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Запуск HTTP сервера
	go startHTTPServer(ctx, cfg.App.Port, metricsHandler, payoutHandler, adminHandler, logger)

	// Запуск планировщика задач (каждый час)
	go taskScheduler.Start(ctx, time.Hour)

	logger.Info("приложение запущено и готово к работе",
		zap.String("address", fmt.Sprintf("http://localhost:%d", cfg.App.Port)),
	)

	// Ожидание сигнала завершения
	<-sigChan
	logger.Info("получен сигнал завершения, начинаем graceful shutdown")

	cancel()
	logger.Info("приложение завершено")
}

// initLogger инициализирует логгер
func initLogger() (*zap.Logger, error) {
	config := zap.NewDevelopmentConfig()
	config.OutputPaths = []string{"stdout", "logs/app.log"}
	config.ErrorOutputPaths = []string{"stderr", "logs/error.log"}

	// Создаем директорию для логов если её нет
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("ошибка создания директории логов: %w", err)
	}

	return config.Build()
}

// startHTTPServer запускает HTTP сервер метрик и административного API
func startHTTPServer(ctx context.Context, port int, metricsHandler *metrics.Handler, payoutHandler *api.PayoutHandler, adminHandler *api.AdminHandler, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metricsHandler.MetricsHandler())
	mux.HandleFunc("/health", metricsHandler.HealthHandler)

	// Административный API выплат
	mux.HandleFunc("/api/payouts", payoutHandler.HandleRequestPayout)
	mux.HandleFunc("/api/payouts/balance", payoutHandler.HandleBalance)
	mux.HandleFunc("/api/payouts/history", payoutHandler.HandlePayoutHistory)

	// Административный API политик, промоакций и рефералов
	mux.HandleFunc("/api/policies", adminHandler.HandlePolicies)
	mux.HandleFunc("/api/policies/default", adminHandler.HandleSetDefaultPolicy)
	mux.HandleFunc("/api/promotions", adminHandler.HandlePromotions)
	mux.HandleFunc("/api/promotions/refresh", adminHandler.HandleRefreshStats)
	mux.HandleFunc("/api/referrals/code", adminHandler.HandleReferralCode)
	mux.HandleFunc("/api/referrals/event", adminHandler.HandleReferralEvent)
	mux.HandleFunc("/api/referrals/ledger", adminHandler.HandleReferralLedger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	logger.Info("HTTP сервер запущен", zap.String("address", server.Addr))

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("ошибка HTTP сервера", zap.Error(err))
		}
	}()

	// Ожидание сигнала завершения
	<-ctx.Done()

	// Graceful shutdown HTTP сервера
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("ошибка при остановке HTTP сервера", zap.Error(err))
	}

	logger.Info("HTTP сервер остановлен")
}
