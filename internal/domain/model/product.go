package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product — цифровой товар каталога.
// Хранится в таблице products.
type Product struct {
	// ID — UUID товара
	ID string
	// Name — название товара
	Name string
	// Description — описание (опционально)
	Description *string
	// Price — цена, numeric(10,2), строго больше нуля
	Price decimal.Decimal
	// FileURL — ссылка на файл товара (опционально)
	FileURL *string
	// FileName — имя файла товара (опционально)
	FileName *string
	// IsActive — активен ли товар (по неактивным нельзя создавать платёжные ссылки)
	IsActive bool
	// CreatedAt — время создания записи
	CreatedAt time.Time
	// UpdatedAt — время последнего обновления
	UpdatedAt time.Time
}

// HasFile сообщает, заданы ли у товара обе файловые ссылки.
// Без них скачивание по токену невозможно.
func (p *Product) HasFile() bool {
	return p.FileURL != nil && *p.FileURL != "" && p.FileName != nil && *p.FileName != ""
}
