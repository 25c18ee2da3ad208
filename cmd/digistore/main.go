// Точка входа Digistore — админка продажи цифровых товаров по платёжным
// ссылкам. Загружает конфигурацию, подключается к PostgreSQL, применяет
// миграции, создаёт сервисный слой и API handlers, запускает HTTP-сервер
// с graceful shutdown.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/arturkryukov/digistore/internal/api/handlers"
	"github.com/arturkryukov/digistore/internal/config"
	"github.com/arturkryukov/digistore/internal/database"
	"github.com/arturkryukov/digistore/internal/repository"
	"github.com/arturkryukov/digistore/internal/server"
	"github.com/arturkryukov/digistore/internal/service"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)
	logger.Info("Digistore запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("DS_PAYMENT_INSTRUCTIONS") == "" {
		logger.Warn("DS_PAYMENT_INSTRUCTIONS не задана, используются реквизиты по умолчанию")
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		logger.Error("Ошибка миграций БД", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("Ошибка подключения к PostgreSQL", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	// 5. Repositories
	productRepo := repository.NewProductRepository(pool)
	linkRepo := repository.NewPaymentLinkRepository(pool)
	txRunner := repository.NewTxRunner(pool)

	// 6. Services
	catalogSvc := service.NewCatalogService(productRepo, linkRepo, txRunner, logger)
	linkSvc := service.NewPaymentLinkService(
		linkRepo, productRepo,
		cfg.PaymentInstructions, cfg.LinkTTL,
		logger,
	)
	dashboardSvc := service.NewDashboardService(linkRepo, productRepo, logger)

	// 7. Readiness checker и API handler
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker)

	apiHandler := handlers.NewAPIHandler(
		healthHandler,
		catalogSvc,
		linkSvc,
		dashboardSvc,
		logger,
	)

	// 8. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler)
	if err := srv.Run(); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Digistore остановлен")
}
