// payment_link.go — движок жизненного цикла платёжной ссылки.
// Статусы: pending → uploaded → confirmed; pending → expired по сроку.
// Каждый переход — одиночный условный UPDATE в репозитории, поэтому
// конкурентные запросы не могут выполнить один переход дважды.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/arturkryukov/digistore/internal/domain/model"
	"github.com/arturkryukov/digistore/internal/repository"
)

// codeRetries — число попыток вставки при коллизии публичного кода.
const codeRetries = 5

// PaymentLinkService — сервис жизненного цикла платёжных ссылок.
type PaymentLinkService struct {
	links    repository.PaymentLinkRepository
	products repository.ProductRepository
	// instructions — платёжные реквизиты, фиксируются в каждой ссылке
	instructions string
	// defaultTTL — срок действия, если клиент не передал свой
	defaultTTL time.Duration
	logger     *slog.Logger
	// now подменяется в тестах
	now func() time.Time
}

// NewPaymentLinkService создаёт сервис платёжных ссылок.
func NewPaymentLinkService(
	links repository.PaymentLinkRepository,
	products repository.ProductRepository,
	instructions string,
	defaultTTL time.Duration,
	logger *slog.Logger,
) *PaymentLinkService {
	return &PaymentLinkService{
		links:        links,
		products:     products,
		instructions: instructions,
		defaultTTL:   defaultTTL,
		logger:       logger.With(slog.String("component", "payment_link_service")),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// GenerateInput — входные данные создания платёжной ссылки.
type GenerateInput struct {
	ProductID      string
	BuyerName      *string
	BuyerEmail     *string
	ExpiresInHours int // 0 — срок по умолчанию из конфигурации
}

// Generate создаёт платёжную ссылку на активный товар.
// ErrNotFound — товара нет; ErrInvalidState — товар не активен.
func (s *PaymentLinkService) Generate(ctx context.Context, in GenerateInput) (*model.PaymentLink, error) {
	product, err := s.products.GetByID(ctx, in.ProductID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: товар не найден", ErrNotFound)
		}
		return nil, fmt.Errorf("проверка товара: %w", err)
	}
	if !product.IsActive {
		return nil, fmt.Errorf("%w: товар не активен (not active)", ErrInvalidState)
	}

	ttl := s.defaultTTL
	if in.ExpiresInHours > 0 {
		ttl = time.Duration(in.ExpiresInHours) * time.Hour
	}
	expiresAt := s.now().Add(ttl)

	// Коллизия кода маловероятна, но unique-индекс её поймает —
	// тогда вставка повторяется с новым кодом.
	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := newUniqueCode()
		if err != nil {
			return nil, err
		}

		l := &model.PaymentLink{
			ID:                  uuid.NewString(),
			ProductID:           in.ProductID,
			UniqueCode:          code,
			BuyerName:           in.BuyerName,
			BuyerEmail:          in.BuyerEmail,
			Status:              model.StatusPending,
			PaymentInstructions: s.instructions,
			ExpiresAt:           &expiresAt,
		}

		if err := s.links.Create(ctx, l); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				continue
			}
			return nil, fmt.Errorf("создание платёжной ссылки: %w", err)
		}

		s.logger.Info("Платёжная ссылка создана",
			slog.String("payment_link_id", l.ID),
			slog.String("product_id", in.ProductID),
			slog.String("code", code),
			slog.Time("expires_at", expiresAt),
		)

		return l, nil
	}

	return nil, fmt.Errorf("не удалось подобрать уникальный код за %d попыток", codeRetries)
}

// GetByCode возвращает ссылку с товаром для страницы покупателя.
// Истечение вычисляется лениво: просроченная pending-ссылка при чтении
// атомарно переводится в expired. Ссылку в uploaded срок не трогает —
// покупатель успел, очередь за проверкой админом.
func (s *PaymentLinkService) GetByCode(ctx context.Context, code string) (*model.PaymentLinkWithProduct, error) {
	lp, err := s.links.GetByCodeWithProduct(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("получение ссылки: %w", err)
	}

	if lp.Status == model.StatusPending && lp.ExpiresAt != nil && lp.ExpiresAt.Before(s.now()) {
		flipped, err := s.links.MarkExpired(ctx, lp.ID)
		if err != nil {
			return nil, fmt.Errorf("пометка ссылки истёкшей: %w", err)
		}
		if flipped {
			s.logger.Info("Ссылка истекла",
				slog.String("payment_link_id", lp.ID),
				slog.String("code", code),
			)
		}
		// Перечитываем: при гонке статус могла успеть сменить другая операция
		lp, err = s.links.GetByCodeWithProduct(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, ErrNotFound
			}
			return nil, fmt.Errorf("повторное чтение ссылки: %w", err)
		}
	}

	return lp, nil
}

// UploadProof переводит ссылку pending → uploaded, сохраняя данные
// покупателя и ссылку на подтверждение перевода.
// ErrNotFound — кода нет; ErrInvalidState — ссылка уже не в pending.
func (s *PaymentLinkService) UploadProof(ctx context.Context, code, buyerName, buyerEmail, proofURL string) (*model.PaymentLink, error) {
	l, err := s.links.MarkUploaded(ctx, code, buyerName, buyerEmail, proofURL)
	if err == nil {
		s.logger.Info("Подтверждение оплаты загружено",
			slog.String("payment_link_id", l.ID),
			slog.String("code", code),
			slog.String("buyer_email", buyerEmail),
		)
		return l, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("загрузка подтверждения: %w", err)
	}

	// CAS не нашёл строку: различаем «нет ссылки» и «не тот статус»
	current, getErr := s.links.GetByCode(ctx, code)
	if getErr != nil {
		if errors.Is(getErr, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: платёжная ссылка не найдена", ErrNotFound)
		}
		return nil, fmt.Errorf("чтение ссылки после отказа перехода: %w", getErr)
	}
	return nil, fmt.Errorf("%w: ссылка не в статусе pending, текущий статус '%s'",
		ErrInvalidState, current.Status)
}

// Confirm переводит ссылку uploaded → confirmed и выдаёт токен скачивания.
// Токен выдаётся ровно один раз: повторное подтверждение не проходит CAS
// и завершается ErrInvalidState с фактическим статусом.
func (s *PaymentLinkService) Confirm(ctx context.Context, id string) (*model.PaymentLink, error) {
	token, err := newDownloadToken()
	if err != nil {
		return nil, err
	}

	l, err := s.links.Confirm(ctx, id, token, s.now())
	if err == nil {
		s.logger.Info("Оплата подтверждена",
			slog.String("payment_link_id", l.ID),
			slog.String("code", l.UniqueCode),
		)
		return l, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("подтверждение оплаты: %w", err)
	}

	current, getErr := s.links.GetByID(ctx, id)
	if getErr != nil {
		if errors.Is(getErr, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: платёжная ссылка не найдена", ErrNotFound)
		}
		return nil, fmt.Errorf("чтение ссылки после отказа подтверждения: %w", getErr)
	}
	return nil, fmt.Errorf("%w: нельзя подтвердить оплату в статусе '%s', требуется 'uploaded'",
		ErrInvalidState, current.Status)
}

// Redeem возвращает файловые реквизиты товара по токену скачивания.
// Любое невыполненное условие — неизвестный токен, неподтверждённая
// ссылка, товар без файла — даёт одинаковый nil-результат, чтобы ответ
// не раскрывал, какая именно проверка не прошла.
func (s *PaymentLinkService) Redeem(ctx context.Context, token string) (*model.FileRef, error) {
	ref, err := s.links.GetFileByDownloadToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("поиск по токену скачивания: %w", err)
	}
	return ref, nil
}
