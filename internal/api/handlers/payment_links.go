// payment_links.go — обработчики /api/v1/payment-links endpoints.
// Создание ссылки, страница покупателя, загрузка подтверждения,
// подтверждение оплаты админом.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	apierrors "github.com/arturkryukov/digistore/internal/api/errors"
	"github.com/arturkryukov/digistore/internal/service"
)

// generateLinkRequest — тело POST /api/v1/payment-links.
type generateLinkRequest struct {
	ProductID      string  `json:"product_id"`
	BuyerName      *string `json:"buyer_name"`
	BuyerEmail     *string `json:"buyer_email"`
	ExpiresInHours int     `json:"expires_in_hours"`
}

// GeneratePaymentLink — POST /api/v1/payment-links.
// Создаёт платёжную ссылку на активный товар.
func (h *APIHandler) GeneratePaymentLink(w http.ResponseWriter, r *http.Request) {
	var req generateLinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if _, err := uuid.Parse(req.ProductID); err != nil {
		apierrors.ValidationError(w, "Некорректный ID товара")
		return
	}
	if req.ExpiresInHours < 0 {
		apierrors.ValidationError(w, "Срок действия не может быть отрицательным")
		return
	}
	if req.BuyerEmail != nil && !validEmail(*req.BuyerEmail) {
		apierrors.ValidationError(w, "Некорректный email покупателя")
		return
	}

	l, err := h.links.Generate(r.Context(), service.GenerateInput{
		ProductID:      req.ProductID,
		BuyerName:      req.BuyerName,
		BuyerEmail:     req.BuyerEmail,
		ExpiresInHours: req.ExpiresInHours,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Товар не найден")
			return
		}
		if errors.Is(err, service.ErrInvalidState) {
			apierrors.InvalidState(w, err.Error())
			return
		}
		h.logger.Error("Ошибка создания платёжной ссылки", "product_id", req.ProductID, "error", err)
		apierrors.InternalError(w, "Ошибка создания платёжной ссылки")
		return
	}

	writeJSON(w, http.StatusCreated, mapPaymentLink(l))
}

// GetPaymentLink — GET /api/v1/payment-links/{code}.
// Страница покупателя: ссылка вместе с товаром. Просроченная pending-ссылка
// при чтении переводится в expired.
func (h *APIHandler) GetPaymentLink(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	lp, err := h.links.GetByCode(r.Context(), code)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Платёжная ссылка не найдена")
			return
		}
		h.logger.Error("Ошибка получения платёжной ссылки", "code", code, "error", err)
		apierrors.InternalError(w, "Ошибка получения платёжной ссылки")
		return
	}

	writeJSON(w, http.StatusOK, mapPaymentLinkWithProduct(lp))
}

// uploadProofRequest — тело POST /api/v1/payment-links/{code}/proof.
type uploadProofRequest struct {
	BuyerName       string `json:"buyer_name"`
	BuyerEmail      string `json:"buyer_email"`
	PaymentProofURL string `json:"payment_proof_url"`
}

// UploadProof — POST /api/v1/payment-links/{code}/proof.
// Покупатель загружает подтверждение перевода: pending → uploaded.
func (h *APIHandler) UploadProof(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	var req uploadProofRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if req.BuyerName == "" {
		apierrors.ValidationError(w, "Имя покупателя обязательно")
		return
	}
	if !validEmail(req.BuyerEmail) {
		apierrors.ValidationError(w, "Некорректный email покупателя")
		return
	}
	if !validHTTPURL(req.PaymentProofURL) {
		apierrors.ValidationError(w, "Некорректная ссылка на подтверждение перевода")
		return
	}

	l, err := h.links.UploadProof(r.Context(), code, req.BuyerName, req.BuyerEmail, req.PaymentProofURL)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Платёжная ссылка не найдена")
			return
		}
		if errors.Is(err, service.ErrInvalidState) {
			apierrors.InvalidState(w, err.Error())
			return
		}
		h.logger.Error("Ошибка загрузки подтверждения", "code", code, "error", err)
		apierrors.InternalError(w, "Ошибка загрузки подтверждения оплаты")
		return
	}

	writeJSON(w, http.StatusOK, mapPaymentLink(l))
}

// ConfirmPayment — POST /api/v1/payment-links/{id}/confirm.
// Админ подтверждает оплату: uploaded → confirmed, выдаётся токен скачивания.
func (h *APIHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		apierrors.ValidationError(w, "Некорректный ID платёжной ссылки")
		return
	}

	l, err := h.links.Confirm(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Платёжная ссылка не найдена")
			return
		}
		if errors.Is(err, service.ErrInvalidState) {
			apierrors.InvalidState(w, err.Error())
			return
		}
		h.logger.Error("Ошибка подтверждения оплаты", "payment_link_id", id, "error", err)
		apierrors.InternalError(w, "Ошибка подтверждения оплаты")
		return
	}

	writeJSON(w, http.StatusOK, mapPaymentLink(l))
}

// validEmail проверяет синтаксис email-адреса.
func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

// validHTTPURL принимает только абсолютные http(s) URL.
func validHTTPURL(s string) bool {
	u, err := url.ParseRequestURI(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
