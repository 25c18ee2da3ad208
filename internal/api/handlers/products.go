// products.go — обработчики /api/v1/products endpoints.
// CRUD каталога товаров с guarded-удалением.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	apierrors "github.com/arturkryukov/digistore/internal/api/errors"
	"github.com/arturkryukov/digistore/internal/service"
)

// createProductRequest — тело POST /api/v1/products.
// Цена передаётся строкой, чтобы не терять точность на float.
type createProductRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description"`
	Price       string  `json:"price"`
	FileURL     *string `json:"file_url"`
	FileName    *string `json:"file_name"`
	IsActive    *bool   `json:"is_active"`
}

// CreateProduct — POST /api/v1/products.
func (h *APIHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	if req.Name == "" {
		apierrors.ValidationError(w, "Название товара обязательно")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		apierrors.ValidationError(w, "Некорректная цена: "+req.Price)
		return
	}

	// Новый товар активен, если явно не указано иное
	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	p, err := h.catalog.Create(r.Context(), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		FileURL:     req.FileURL,
		FileName:    req.FileName,
		IsActive:    isActive,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		h.logger.Error("Ошибка создания товара", "error", err)
		apierrors.InternalError(w, "Ошибка создания товара")
		return
	}

	writeJSON(w, http.StatusCreated, mapProduct(p))
}

// ListProducts — GET /api/v1/products.
// Активные товары первыми, внутри группы новые первыми.
func (h *APIHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.List(r.Context())
	if err != nil {
		h.logger.Error("Ошибка получения списка товаров", "error", err)
		apierrors.InternalError(w, "Ошибка получения списка товаров")
		return
	}

	writeJSON(w, http.StatusOK, mapProducts(products))
}

// GetProduct — GET /api/v1/products/{id}.
func (h *APIHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		apierrors.ValidationError(w, "Некорректный ID товара")
		return
	}

	p, err := h.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Товар не найден")
			return
		}
		h.logger.Error("Ошибка получения товара", "product_id", id, "error", err)
		apierrors.InternalError(w, "Ошибка получения товара")
		return
	}

	writeJSON(w, http.StatusOK, mapProduct(p))
}

// updateProductRequest — тело PATCH /api/v1/products/{id}.
// Для nullable-полей различаются отсутствие ключа, null и значение.
type updateProductRequest struct {
	Name        *string               `json:"name"`
	Price       *string               `json:"price"`
	IsActive    *bool                 `json:"is_active"`
	Description optionalField[string] `json:"description"`
	FileURL     optionalField[string] `json:"file_url"`
	FileName    optionalField[string] `json:"file_name"`
}

// UpdateProduct — PATCH /api/v1/products/{id}.
// Частичное обновление: не переданные поля сохраняют значения.
func (h *APIHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		apierrors.ValidationError(w, "Некорректный ID товара")
		return
	}

	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Некорректный JSON: "+err.Error())
		return
	}

	patch := service.ProductPatch{
		Name:     req.Name,
		IsActive: req.IsActive,
		Description: service.Nullable[string]{
			Set:   req.Description.Set,
			Value: req.Description.Value,
		},
		FileURL: service.Nullable[string]{
			Set:   req.FileURL.Set,
			Value: req.FileURL.Value,
		},
		FileName: service.Nullable[string]{
			Set:   req.FileName.Set,
			Value: req.FileName.Value,
		},
	}
	if req.Price != nil {
		price, err := decimal.NewFromString(*req.Price)
		if err != nil {
			apierrors.ValidationError(w, "Некорректная цена: "+*req.Price)
			return
		}
		patch.Price = &price
	}

	p, err := h.catalog.Update(r.Context(), id, patch)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Товар не найден")
			return
		}
		if errors.Is(err, service.ErrValidation) {
			apierrors.ValidationError(w, err.Error())
			return
		}
		h.logger.Error("Ошибка обновления товара", "product_id", id, "error", err)
		apierrors.InternalError(w, "Ошибка обновления товара")
		return
	}

	writeJSON(w, http.StatusOK, mapProduct(p))
}

// deleteProductResponse — результат guarded-удаления.
type deleteProductResponse struct {
	Deleted bool `json:"deleted"`
}

// DeleteProduct — DELETE /api/v1/products/{id}.
// Товар удаляется только если все его ссылки истекли; иначе deleted=false.
func (h *APIHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		apierrors.ValidationError(w, "Некорректный ID товара")
		return
	}

	deleted, err := h.catalog.Delete(r.Context(), id)
	if err != nil {
		h.logger.Error("Ошибка удаления товара", "product_id", id, "error", err)
		apierrors.InternalError(w, "Ошибка удаления товара")
		return
	}

	writeJSON(w, http.StatusOK, deleteProductResponse{Deleted: deleted})
}
