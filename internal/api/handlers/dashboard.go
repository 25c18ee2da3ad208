// dashboard.go — обработчики сводки админки.
// /api/v1/payments/pending — очередь проверки оплат
// /api/v1/dashboard/stats — показатели главной страницы
package handlers

import (
	"net/http"

	apierrors "github.com/arturkryukov/digistore/internal/api/errors"
	"github.com/arturkryukov/digistore/internal/domain/model"
)

// ListPendingPayments — GET /api/v1/payments/pending.
// Ссылки со статусом uploaded вместе с товарами, новые первыми.
func (h *APIHandler) ListPendingPayments(w http.ResponseWriter, r *http.Request) {
	pending, err := h.dashboard.PendingPayments(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения очереди проверки", "error", err)
		apierrors.InternalError(w, "Ошибка получения очереди проверки оплат")
		return
	}

	out := make([]paymentLinkWithProductResponse, 0, len(pending))
	for _, lp := range pending {
		out = append(out, mapPaymentLinkWithProduct(lp))
	}
	writeJSON(w, http.StatusOK, out)
}

// dashboardStatsResponse — JSON-представление сводки.
type dashboardStatsResponse struct {
	TotalProducts   int                   `json:"total_products"`
	TotalSales      int                   `json:"total_sales"`
	PendingPayments int                   `json:"pending_payments"`
	TotalRevenue    string                `json:"total_revenue"`
	RecentPayments  []paymentLinkResponse `json:"recent_payments"`
}

// GetDashboardStats — GET /api/v1/dashboard/stats.
func (h *APIHandler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dashboard.Stats(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения сводки", "error", err)
		apierrors.InternalError(w, "Ошибка получения сводки")
		return
	}

	writeJSON(w, http.StatusOK, mapDashboardStats(stats))
}

func mapDashboardStats(stats *model.DashboardStats) dashboardStatsResponse {
	recent := make([]paymentLinkResponse, 0, len(stats.RecentPayments))
	for _, l := range stats.RecentPayments {
		recent = append(recent, mapPaymentLink(l))
	}
	return dashboardStatsResponse{
		TotalProducts:   stats.TotalProducts,
		TotalSales:      stats.TotalSales,
		PendingPayments: stats.PendingPayments,
		TotalRevenue:    stats.TotalRevenue.String(),
		RecentPayments:  recent,
	}
}
