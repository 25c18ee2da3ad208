package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/arturkryukov/digistore/internal/domain/model"
	"github.com/arturkryukov/digistore/internal/repository"
)

// recentPaymentsLimit — сколько последних ссылок попадает в сводку.
const recentPaymentsLimit = 10

// DashboardService — сводные данные для главной страницы админки.
type DashboardService struct {
	links    repository.PaymentLinkRepository
	products repository.ProductRepository
	logger   *slog.Logger
}

// NewDashboardService создаёт сервис сводки.
func NewDashboardService(
	links repository.PaymentLinkRepository,
	products repository.ProductRepository,
	logger *slog.Logger,
) *DashboardService {
	return &DashboardService{
		links:    links,
		products: products,
		logger:   logger.With(slog.String("component", "dashboard_service")),
	}
}

// PendingPayments возвращает очередь проверки: ссылки со статусом
// uploaded вместе с товарами, новые первыми.
func (s *DashboardService) PendingPayments(ctx context.Context) ([]*model.PaymentLinkWithProduct, error) {
	list, err := s.links.ListUploadedWithProduct(ctx)
	if err != nil {
		return nil, fmt.Errorf("очередь проверки оплат: %w", err)
	}
	return list, nil
}

// Stats собирает показатели сводки. Счётчики считаются независимыми
// запросами: сводка — ориентир, а не отчётность, лёгкая рассинхронизация
// между ними допустима.
func (s *DashboardService) Stats(ctx context.Context) (*model.DashboardStats, error) {
	totalProducts, err := s.products.CountActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт активных товаров: %w", err)
	}

	totalSales, err := s.links.CountByStatus(ctx, model.StatusConfirmed)
	if err != nil {
		return nil, fmt.Errorf("подсчёт подтверждённых продаж: %w", err)
	}

	pending, err := s.links.CountByStatus(ctx, model.StatusUploaded)
	if err != nil {
		return nil, fmt.Errorf("подсчёт оплат на проверке: %w", err)
	}

	revenue, err := s.links.SumConfirmedRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("подсчёт выручки: %w", err)
	}

	recent, err := s.links.ListRecent(ctx, recentPaymentsLimit)
	if err != nil {
		return nil, fmt.Errorf("последние ссылки: %w", err)
	}

	return &model.DashboardStats{
		TotalProducts:   totalProducts,
		TotalSales:      totalSales,
		PendingPayments: pending,
		TotalRevenue:    revenue,
		RecentPayments:  recent,
	}, nil
}
