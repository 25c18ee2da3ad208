// catalog.go — сервис каталога товаров.
// CRUD товаров и guarded-удаление: товар с неистёкшими платёжными
// ссылками удалить нельзя, у покупателей остаётся доступ к покупкам.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/arturkryukov/digistore/internal/domain/model"
	"github.com/arturkryukov/digistore/internal/repository"
)

// Nullable — трёхзначное поле PATCH-запроса:
// Set=false — поле не передано, значение не меняется;
// Set=true, Value=nil — явный null, поле очищается;
// Set=true, Value!=nil — новое значение.
type Nullable[T any] struct {
	Set   bool
	Value *T
}

// ProductPatch — частичное обновление товара.
// nil-указатель означает «не менять»; для nullable-полей
// используется Nullable, различающий отсутствие и явный null.
type ProductPatch struct {
	Name        *string
	Price       *decimal.Decimal
	IsActive    *bool
	Description Nullable[string]
	FileURL     Nullable[string]
	FileName    Nullable[string]
}

// CatalogService — сервис каталога товаров.
type CatalogService struct {
	products repository.ProductRepository
	links    repository.PaymentLinkRepository
	// tx может быть nil в unit-тестах: guarded-удаление тогда выполняется
	// без транзакции поверх переданных репозиториев.
	tx     *repository.TxRunner
	logger *slog.Logger
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(
	products repository.ProductRepository,
	links repository.PaymentLinkRepository,
	tx *repository.TxRunner,
	logger *slog.Logger,
) *CatalogService {
	return &CatalogService{
		products: products,
		links:    links,
		tx:       tx,
		logger:   logger.With(slog.String("component", "catalog_service")),
	}
}

// CreateProductInput — входные данные создания товара.
type CreateProductInput struct {
	Name        string
	Description *string
	Price       decimal.Decimal
	FileURL     *string
	FileName    *string
	IsActive    bool
}

// Create создаёт товар. Название обязательно, цена строго положительна.
func (s *CatalogService) Create(ctx context.Context, in CreateProductInput) (*model.Product, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: название товара обязательно", ErrValidation)
	}
	if !in.Price.IsPositive() {
		return nil, fmt.Errorf("%w: цена должна быть больше нуля", ErrValidation)
	}

	p := &model.Product{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		FileURL:     in.FileURL,
		FileName:    in.FileName,
		IsActive:    in.IsActive,
	}

	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("создание товара: %w", err)
	}

	s.logger.Info("Товар создан",
		slog.String("product_id", p.ID),
		slog.String("name", p.Name),
		slog.String("price", p.Price.String()),
	)

	return p, nil
}

// List возвращает все товары: активные первыми, внутри группы новые первыми.
func (s *CatalogService) List(ctx context.Context) ([]*model.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение списка товаров: %w", err)
	}
	return products, nil
}

// Get возвращает товар по ID.
func (s *CatalogService) Get(ctx context.Context, id string) (*model.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение товара: %w", err)
	}
	return p, nil
}

// Update применяет частичное обновление: не переданные поля сохраняют
// значения, явный null очищает nullable-поле.
func (s *CatalogService) Update(ctx context.Context, id string, patch ProductPatch) (*model.Product, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение товара для обновления: %w", err)
	}

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return nil, fmt.Errorf("%w: название товара не может быть пустым", ErrValidation)
		}
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		if !patch.Price.IsPositive() {
			return nil, fmt.Errorf("%w: цена должна быть больше нуля", ErrValidation)
		}
		p.Price = *patch.Price
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.Description.Set {
		p.Description = patch.Description.Value
	}
	if patch.FileURL.Set {
		p.FileURL = patch.FileURL.Value
	}
	if patch.FileName.Set {
		p.FileName = patch.FileName.Value
	}

	if err := s.products.Update(ctx, p); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("обновление товара: %w", err)
	}

	s.logger.Info("Товар обновлён", slog.String("product_id", id))

	return p, nil
}

// Delete выполняет guarded-удаление товара.
// Возвращает false без ошибки, если товара нет либо у него есть хотя бы
// одна неистёкшая ссылка: для админки оба исхода штатные.
// Истёкшие ссылки удаляются первыми, затем сам товар — одной транзакцией.
func (s *CatalogService) Delete(ctx context.Context, id string) (bool, error) {
	if s.tx == nil {
		return s.deleteGuarded(ctx, s.products, s.links, id)
	}

	var deleted bool
	err := s.tx.RunInTx(ctx, func(tx pgx.Tx) error {
		var txErr error
		deleted, txErr = s.deleteGuarded(ctx,
			repository.NewProductRepository(tx),
			repository.NewPaymentLinkRepository(tx),
			id,
		)
		return txErr
	})
	if err != nil {
		return false, fmt.Errorf("удаление товара: %w", err)
	}
	return deleted, nil
}

// deleteGuarded — тело guarded-удаления поверх переданных репозиториев.
func (s *CatalogService) deleteGuarded(
	ctx context.Context,
	products repository.ProductRepository,
	links repository.PaymentLinkRepository,
	id string,
) (bool, error) {
	if _, err := products.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	productLinks, err := links.ListByProduct(ctx, id)
	if err != nil {
		return false, err
	}
	for _, l := range productLinks {
		if l.Status != model.StatusExpired {
			s.logger.Info("Удаление товара заблокировано неистёкшей ссылкой",
				slog.String("product_id", id),
				slog.String("payment_link_id", l.ID),
				slog.String("status", string(l.Status)),
			)
			return false, nil
		}
	}

	// Сначала истёкшие ссылки (FK), затем товар
	if err := links.DeleteExpiredByProduct(ctx, id); err != nil {
		return false, err
	}
	if err := products.Delete(ctx, id); err != nil {
		return false, err
	}

	s.logger.Info("Товар удалён",
		slog.String("product_id", id),
		slog.Int("expired_links_removed", len(productLinks)),
	)

	return true, nil
}
