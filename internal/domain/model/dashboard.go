package model

import "github.com/shopspring/decimal"

// DashboardStats — сводные показатели для панели администратора.
type DashboardStats struct {
	// TotalProducts — количество активных товаров
	TotalProducts int
	// TotalSales — количество подтверждённых продаж
	TotalSales int
	// PendingPayments — количество ссылок, ожидающих проверки (uploaded)
	PendingPayments int
	// TotalRevenue — суммарная выручка по подтверждённым продажам
	TotalRevenue decimal.Decimal
	// RecentPayments — 10 последних платёжных ссылок
	RecentPayments []*PaymentLink
}
