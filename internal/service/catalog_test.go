package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/arturkryukov/digistore/internal/domain/model"
)

func strptr(s string) *string { return &s }

func newCatalogForTest() (*CatalogService, *fakeProductRepo, *fakeLinkRepo) {
	products := newFakeProductRepo()
	links := newFakeLinkRepo(products)
	return NewCatalogService(products, links, nil, testLogger()), products, links
}

// TestCatalogCreate проверяет валидацию входных данных при создании товара.
func TestCatalogCreate(t *testing.T) {
	tests := []struct {
		name    string
		input   CreateProductInput
		wantErr error
	}{
		{
			name: "валидный товар",
			input: CreateProductInput{
				Name:     "Шаблон лендинга",
				Price:    decimal.NewFromFloat(150000),
				IsActive: true,
			},
		},
		{
			name: "пустое название",
			input: CreateProductInput{
				Name:  "",
				Price: decimal.NewFromInt(100),
			},
			wantErr: ErrValidation,
		},
		{
			name: "название из пробелов",
			input: CreateProductInput{
				Name:  "   ",
				Price: decimal.NewFromInt(100),
			},
			wantErr: ErrValidation,
		},
		{
			name: "нулевая цена",
			input: CreateProductInput{
				Name:  "Товар",
				Price: decimal.Zero,
			},
			wantErr: ErrValidation,
		},
		{
			name: "отрицательная цена",
			input: CreateProductInput{
				Name:  "Товар",
				Price: decimal.NewFromInt(-5),
			},
			wantErr: ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newCatalogForTest()
			p, err := svc.Create(context.Background(), tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ожидалась ошибка %v, получено %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if p.ID == "" {
				t.Error("товару не присвоен ID")
			}
			if !p.Price.Equal(tt.input.Price) {
				t.Errorf("цена %s, ожидалось %s", p.Price, tt.input.Price)
			}
		})
	}
}

// TestCatalogUpdate проверяет частичное обновление: не переданные поля
// сохраняются, явный null очищает nullable-поле.
func TestCatalogUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newCatalogForTest()

	p, err := svc.Create(ctx, CreateProductInput{
		Name:        "Курс по Go",
		Description: strptr("Видеокурс"),
		Price:       decimal.NewFromInt(500),
		FileURL:     strptr("https://files.example.com/go-course.zip"),
		FileName:    strptr("go-course.zip"),
		IsActive:    true,
	})
	if err != nil {
		t.Fatalf("создание товара: %v", err)
	}

	t.Run("обновление только цены", func(t *testing.T) {
		newPrice := decimal.NewFromInt(700)
		got, err := svc.Update(ctx, p.ID, ProductPatch{Price: &newPrice})
		if err != nil {
			t.Fatalf("обновление: %v", err)
		}
		if !got.Price.Equal(newPrice) {
			t.Errorf("цена %s, ожидалось %s", got.Price, newPrice)
		}
		if got.Name != "Курс по Go" {
			t.Errorf("название изменилось: %q", got.Name)
		}
		if got.Description == nil || *got.Description != "Видеокурс" {
			t.Error("описание не сохранилось")
		}
	})

	t.Run("явный null очищает описание", func(t *testing.T) {
		got, err := svc.Update(ctx, p.ID, ProductPatch{
			Description: Nullable[string]{Set: true, Value: nil},
		})
		if err != nil {
			t.Fatalf("обновление: %v", err)
		}
		if got.Description != nil {
			t.Errorf("описание не очищено: %q", *got.Description)
		}
	})

	t.Run("невалидная цена отклоняется", func(t *testing.T) {
		bad := decimal.Zero
		if _, err := svc.Update(ctx, p.ID, ProductPatch{Price: &bad}); !errors.Is(err, ErrValidation) {
			t.Fatalf("ожидалась ErrValidation, получено %v", err)
		}
	})

	t.Run("неизвестный товар", func(t *testing.T) {
		name := "Новое имя"
		if _, err := svc.Update(ctx, "missing", ProductPatch{Name: &name}); !errors.Is(err, ErrNotFound) {
			t.Fatalf("ожидалась ErrNotFound, получено %v", err)
		}
	})
}

// TestCatalogDelete проверяет guarded-удаление товара.
func TestCatalogDelete(t *testing.T) {
	ctx := context.Background()

	seedProduct := func(t *testing.T, svc *CatalogService) *model.Product {
		t.Helper()
		p, err := svc.Create(ctx, CreateProductInput{
			Name:     "Товар",
			Price:    decimal.NewFromInt(100),
			IsActive: true,
		})
		if err != nil {
			t.Fatalf("создание товара: %v", err)
		}
		return p
	}

	seedLink := func(t *testing.T, links *fakeLinkRepo, productID string, status model.PaymentStatus) *model.PaymentLink {
		t.Helper()
		l := &model.PaymentLink{
			ID:         "link-" + string(status),
			ProductID:  productID,
			UniqueCode: "CODE" + string(status[0]) + "123",
			Status:     status,
		}
		if err := links.Create(ctx, l); err != nil {
			t.Fatalf("создание ссылки: %v", err)
		}
		return l
	}

	t.Run("товар без ссылок удаляется", func(t *testing.T) {
		svc, products, _ := newCatalogForTest()
		p := seedProduct(t, svc)

		deleted, err := svc.Delete(ctx, p.ID)
		if err != nil {
			t.Fatalf("удаление: %v", err)
		}
		if !deleted {
			t.Fatal("товар не удалён")
		}
		if _, ok := products.products[p.ID]; ok {
			t.Error("товар остался в хранилище")
		}
	})

	t.Run("неистёкшая ссылка блокирует удаление", func(t *testing.T) {
		for _, status := range []model.PaymentStatus{model.StatusPending, model.StatusUploaded, model.StatusConfirmed} {
			svc, products, links := newCatalogForTest()
			p := seedProduct(t, svc)
			seedLink(t, links, p.ID, status)

			deleted, err := svc.Delete(ctx, p.ID)
			if err != nil {
				t.Fatalf("статус %s: удаление: %v", status, err)
			}
			if deleted {
				t.Errorf("статус %s: товар удалён вопреки блокировке", status)
			}
			if _, ok := products.products[p.ID]; !ok {
				t.Errorf("статус %s: товар исчез из хранилища", status)
			}
		}
	})

	t.Run("истёкшие ссылки удаляются вместе с товаром", func(t *testing.T) {
		svc, products, links := newCatalogForTest()
		p := seedProduct(t, svc)
		l := seedLink(t, links, p.ID, model.StatusExpired)

		deleted, err := svc.Delete(ctx, p.ID)
		if err != nil {
			t.Fatalf("удаление: %v", err)
		}
		if !deleted {
			t.Fatal("товар не удалён")
		}
		if _, ok := products.products[p.ID]; ok {
			t.Error("товар остался в хранилище")
		}
		if _, ok := links.links[l.ID]; ok {
			t.Error("истёкшая ссылка осталась в хранилище")
		}
	})

	t.Run("неизвестный товар — false без ошибки", func(t *testing.T) {
		svc, _, _ := newCatalogForTest()
		deleted, err := svc.Delete(ctx, "missing")
		if err != nil {
			t.Fatalf("удаление: %v", err)
		}
		if deleted {
			t.Error("удаление несуществующего товара вернуло true")
		}
	})
}
