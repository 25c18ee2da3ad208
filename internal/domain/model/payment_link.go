package model

import "time"

// PaymentStatus — статус платёжной ссылки.
// Жизненный цикл: pending → uploaded → confirmed (успешное завершение);
// из любого нетерминального статуса возможен переход в expired.
type PaymentStatus string

const (
	// StatusPending — ссылка создана, ожидается подтверждение оплаты от покупателя.
	StatusPending PaymentStatus = "pending"
	// StatusUploaded — покупатель загрузил подтверждение перевода, ожидается проверка админом.
	StatusUploaded PaymentStatus = "uploaded"
	// StatusConfirmed — оплата подтверждена, выдан токен скачивания. Терминальный.
	StatusConfirmed PaymentStatus = "confirmed"
	// StatusExpired — срок действия ссылки истёк. Терминальный.
	StatusExpired PaymentStatus = "expired"
)

// Valid проверяет, что статус входит в закрытый набор значений.
func (s PaymentStatus) Valid() bool {
	switch s {
	case StatusPending, StatusUploaded, StatusConfirmed, StatusExpired:
		return true
	}
	return false
}

// IsTerminal — после терминального статуса переходы не выполняются.
func (s PaymentStatus) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusExpired
}

// PaymentLink — платёжная ссылка на покупку одного товара.
// Хранится в таблице payment_links. Каждая ссылка проживает собственный
// жизненный цикл независимо от других ссылок на тот же товар.
type PaymentLink struct {
	// ID — UUID ссылки
	ID string
	// ProductID — UUID товара
	ProductID string
	// UniqueCode — короткий публичный код ссылки, уникален и неизменяем
	UniqueCode string
	// BuyerName — имя покупателя (опционально до загрузки подтверждения)
	BuyerName *string
	// BuyerEmail — email покупателя (опционально до загрузки подтверждения)
	BuyerEmail *string
	// Status — текущий статус жизненного цикла
	Status PaymentStatus
	// PaymentProofURL — ссылка на подтверждение перевода (опционально)
	PaymentProofURL *string
	// PaymentInstructions — платёжные реквизиты, фиксируются при создании
	PaymentInstructions string
	// ExpiresAt — срок действия ссылки (опционально)
	ExpiresAt *time.Time
	// ConfirmedAt — время подтверждения оплаты (только для confirmed)
	ConfirmedAt *time.Time
	// DownloadToken — одноразовый токен скачивания, выдаётся ровно один раз при подтверждении
	DownloadToken *string
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// PaymentLinkWithProduct — платёжная ссылка вместе с товаром.
// Используется страницей покупателя и списком ожидающих проверки платежей.
type PaymentLinkWithProduct struct {
	PaymentLink
	Product Product
}

// FileRef — файловые реквизиты товара, выдаваемые при скачивании по токену.
type FileRef struct {
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
}
