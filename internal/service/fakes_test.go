// fakes_test.go — in-memory реализации репозиториев для unit-тестов сервисов.
// Поведение повторяет контракт SQL-слоя: сигнальные ошибки, условные
// переходы статусов, сортировки.
package service

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/arturkryukov/digistore/internal/domain/model"
	"github.com/arturkryukov/digistore/internal/repository"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeProductRepo struct {
	products map[string]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[string]*model.Product)}
}

func (f *fakeProductRepo) Create(_ context.Context, p *model.Product) error {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeProductRepo) GetByID(_ context.Context, id string) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) List(_ context.Context) ([]*model.Product, error) {
	out := make([]*model.Product, 0, len(f.products))
	for _, p := range f.products {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsActive != out[j].IsActive {
			return out[i].IsActive
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeProductRepo) Update(_ context.Context, p *model.Product) error {
	if _, ok := f.products[p.ID]; !ok {
		return repository.ErrNotFound
	}
	p.UpdatedAt = time.Now().UTC()
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeProductRepo) Delete(_ context.Context, id string) error {
	if _, ok := f.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) CountActive(_ context.Context) (int, error) {
	n := 0
	for _, p := range f.products {
		if p.IsActive {
			n++
		}
	}
	return n, nil
}

type fakeLinkRepo struct {
	links    map[string]*model.PaymentLink // по ID
	byCode   map[string]string             // unique_code → ID
	products *fakeProductRepo              // для join-запросов
	// conflictsLeft имитирует коллизии unique_code при вставке
	conflictsLeft int
	createCalls   int
}

func newFakeLinkRepo(products *fakeProductRepo) *fakeLinkRepo {
	return &fakeLinkRepo{
		links:    make(map[string]*model.PaymentLink),
		byCode:   make(map[string]string),
		products: products,
	}
}

func (f *fakeLinkRepo) Create(_ context.Context, l *model.PaymentLink) error {
	f.createCalls++
	if f.conflictsLeft > 0 {
		f.conflictsLeft--
		return repository.ErrConflict
	}
	if _, ok := f.byCode[l.UniqueCode]; ok {
		return repository.ErrConflict
	}
	now := time.Now().UTC()
	l.CreatedAt = now
	l.UpdatedAt = now
	cp := *l
	f.links[l.ID] = &cp
	f.byCode[l.UniqueCode] = l.ID
	return nil
}

func (f *fakeLinkRepo) GetByID(_ context.Context, id string) (*model.PaymentLink, error) {
	l, ok := f.links[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLinkRepo) GetByCode(_ context.Context, code string) (*model.PaymentLink, error) {
	id, ok := f.byCode[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f.links[id]
	return &cp, nil
}

func (f *fakeLinkRepo) GetByCodeWithProduct(ctx context.Context, code string) (*model.PaymentLinkWithProduct, error) {
	l, err := f.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	p, ok := f.products.products[l.ProductID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &model.PaymentLinkWithProduct{PaymentLink: *l, Product: *p}, nil
}

func (f *fakeLinkRepo) ListByProduct(_ context.Context, productID string) ([]*model.PaymentLink, error) {
	var out []*model.PaymentLink
	for _, l := range f.links {
		if l.ProductID == productID {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeLinkRepo) MarkUploaded(_ context.Context, code, buyerName, buyerEmail, proofURL string) (*model.PaymentLink, error) {
	id, ok := f.byCode[code]
	if !ok {
		return nil, repository.ErrNotFound
	}
	l := f.links[id]
	if l.Status != model.StatusPending {
		// условный UPDATE не нашёл строку
		return nil, repository.ErrNotFound
	}
	l.Status = model.StatusUploaded
	l.BuyerName = &buyerName
	l.BuyerEmail = &buyerEmail
	l.PaymentProofURL = &proofURL
	l.UpdatedAt = time.Now().UTC()
	cp := *l
	return &cp, nil
}

func (f *fakeLinkRepo) Confirm(_ context.Context, id, downloadToken string, confirmedAt time.Time) (*model.PaymentLink, error) {
	l, ok := f.links[id]
	if !ok || l.Status != model.StatusUploaded {
		return nil, repository.ErrNotFound
	}
	l.Status = model.StatusConfirmed
	l.DownloadToken = &downloadToken
	l.ConfirmedAt = &confirmedAt
	l.UpdatedAt = time.Now().UTC()
	cp := *l
	return &cp, nil
}

func (f *fakeLinkRepo) MarkExpired(_ context.Context, id string) (bool, error) {
	l, ok := f.links[id]
	if !ok || l.Status != model.StatusPending {
		return false, nil
	}
	l.Status = model.StatusExpired
	l.UpdatedAt = time.Now().UTC()
	return true, nil
}

func (f *fakeLinkRepo) GetFileByDownloadToken(_ context.Context, token string) (*model.FileRef, error) {
	for _, l := range f.links {
		if l.DownloadToken == nil || *l.DownloadToken != token {
			continue
		}
		if l.Status != model.StatusConfirmed {
			return nil, repository.ErrNotFound
		}
		p, ok := f.products.products[l.ProductID]
		if !ok || p.FileURL == nil || *p.FileURL == "" || p.FileName == nil || *p.FileName == "" {
			return nil, repository.ErrNotFound
		}
		return &model.FileRef{FileURL: *p.FileURL, FileName: *p.FileName}, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeLinkRepo) ListUploadedWithProduct(_ context.Context) ([]*model.PaymentLinkWithProduct, error) {
	var out []*model.PaymentLinkWithProduct
	for _, l := range f.links {
		if l.Status != model.StatusUploaded {
			continue
		}
		p, ok := f.products.products[l.ProductID]
		if !ok {
			continue
		}
		out = append(out, &model.PaymentLinkWithProduct{PaymentLink: *l, Product: *p})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeLinkRepo) ListRecent(_ context.Context, limit int) ([]*model.PaymentLink, error) {
	out := make([]*model.PaymentLink, 0, len(f.links))
	for _, l := range f.links {
		cp := *l
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeLinkRepo) CountByStatus(_ context.Context, status model.PaymentStatus) (int, error) {
	n := 0
	for _, l := range f.links {
		if l.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeLinkRepo) SumConfirmedRevenue(_ context.Context) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, l := range f.links {
		if l.Status != model.StatusConfirmed {
			continue
		}
		if p, ok := f.products.products[l.ProductID]; ok {
			sum = sum.Add(p.Price)
		}
	}
	return sum, nil
}

func (f *fakeLinkRepo) DeleteExpiredByProduct(_ context.Context, productID string) error {
	for id, l := range f.links {
		if l.ProductID == productID && l.Status == model.StatusExpired {
			delete(f.byCode, l.UniqueCode)
			delete(f.links, id)
		}
	}
	return nil
}
