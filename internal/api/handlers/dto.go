// dto.go — JSON-представления доменных моделей и вспомогательные
// типы декодирования запросов.
package handlers

import (
	"encoding/json"
	"time"

	"github.com/arturkryukov/digistore/internal/domain/model"
)

// optionalField различает три состояния поля PATCH-запроса:
// ключ отсутствует (Set=false), ключ со значением null (Set=true, Value=nil),
// ключ со значением (Set=true, Value задан).
// encoding/json вызывает UnmarshalJSON только для присутствующих ключей.
type optionalField[T any] struct {
	Set   bool
	Value *T
}

func (o *optionalField[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Value = nil
		return nil
	}
	return json.Unmarshal(data, &o.Value)
}

// productResponse — JSON-представление товара.
type productResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       string  `json:"price"`
	FileURL     *string `json:"file_url"`
	FileName    *string `json:"file_name"`
	IsActive    bool    `json:"is_active"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

func mapProduct(p *model.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		FileURL:     p.FileURL,
		FileName:    p.FileName,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   p.UpdatedAt.Format(time.RFC3339),
	}
}

func mapProducts(products []*model.Product) []productResponse {
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, mapProduct(p))
	}
	return out
}

// paymentLinkResponse — JSON-представление платёжной ссылки.
type paymentLinkResponse struct {
	ID                  string  `json:"id"`
	ProductID           string  `json:"product_id"`
	UniqueCode          string  `json:"unique_code"`
	BuyerName           *string `json:"buyer_name"`
	BuyerEmail          *string `json:"buyer_email"`
	Status              string  `json:"status"`
	PaymentProofURL     *string `json:"payment_proof_url"`
	PaymentInstructions string  `json:"payment_instructions"`
	ExpiresAt           *string `json:"expires_at"`
	ConfirmedAt         *string `json:"confirmed_at"`
	DownloadToken       *string `json:"download_token"`
	CreatedAt           string  `json:"created_at"`
	UpdatedAt           string  `json:"updated_at"`
}

func mapPaymentLink(l *model.PaymentLink) paymentLinkResponse {
	return paymentLinkResponse{
		ID:                  l.ID,
		ProductID:           l.ProductID,
		UniqueCode:          l.UniqueCode,
		BuyerName:           l.BuyerName,
		BuyerEmail:          l.BuyerEmail,
		Status:              string(l.Status),
		PaymentProofURL:     l.PaymentProofURL,
		PaymentInstructions: l.PaymentInstructions,
		ExpiresAt:           fmtTimePtr(l.ExpiresAt),
		ConfirmedAt:         fmtTimePtr(l.ConfirmedAt),
		DownloadToken:       l.DownloadToken,
		CreatedAt:           l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:           l.UpdatedAt.Format(time.RFC3339),
	}
}

// paymentLinkWithProductResponse — ссылка вместе с товаром.
type paymentLinkWithProductResponse struct {
	paymentLinkResponse
	Product productResponse `json:"product"`
}

func mapPaymentLinkWithProduct(lp *model.PaymentLinkWithProduct) paymentLinkWithProductResponse {
	return paymentLinkWithProductResponse{
		paymentLinkResponse: mapPaymentLink(&lp.PaymentLink),
		Product:             mapProduct(&lp.Product),
	}
}

func fmtTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
