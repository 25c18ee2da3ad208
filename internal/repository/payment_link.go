package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/arturkryukov/digistore/internal/domain/model"
)

// PaymentLinkRepository — интерфейс доступа к таблице payment_links.
// Переходы статусов выполняются одиночными условными UPDATE (compare-and-swap
// по текущему статусу), что закрывает гонку двух одновременных запросов.
type PaymentLinkRepository interface {
	// Create создаёт новую ссылку в статусе pending.
	// Возвращает ErrConflict при коллизии unique_code.
	Create(ctx context.Context, l *model.PaymentLink) error
	// GetByID возвращает ссылку по UUID.
	GetByID(ctx context.Context, id string) (*model.PaymentLink, error)
	// GetByCode возвращает ссылку по публичному коду.
	GetByCode(ctx context.Context, code string) (*model.PaymentLink, error)
	// GetByCodeWithProduct возвращает ссылку вместе с товаром.
	GetByCodeWithProduct(ctx context.Context, code string) (*model.PaymentLinkWithProduct, error)
	// ListByProduct возвращает все ссылки товара.
	ListByProduct(ctx context.Context, productID string) ([]*model.PaymentLink, error)
	// MarkUploaded атомарно переводит pending → uploaded, записывая данные
	// покупателя и ссылку на подтверждение. ErrNotFound, если ссылка
	// отсутствует либо уже не в pending.
	MarkUploaded(ctx context.Context, code, buyerName, buyerEmail, proofURL string) (*model.PaymentLink, error)
	// Confirm атомарно переводит uploaded → confirmed, выдавая токен
	// скачивания. ErrNotFound, если ссылка отсутствует либо не в uploaded.
	Confirm(ctx context.Context, id, downloadToken string, confirmedAt time.Time) (*model.PaymentLink, error)
	// MarkExpired атомарно переводит pending → expired.
	// Возвращает true, если переход выполнен этим вызовом.
	MarkExpired(ctx context.Context, id string) (bool, error)
	// GetFileByDownloadToken возвращает файловые реквизиты товара по токену
	// подтверждённой ссылки. ErrNotFound во всех остальных случаях.
	GetFileByDownloadToken(ctx context.Context, token string) (*model.FileRef, error)
	// ListUploadedWithProduct возвращает ссылки в статусе uploaded
	// с товарами, новые первыми.
	ListUploadedWithProduct(ctx context.Context) ([]*model.PaymentLinkWithProduct, error)
	// ListRecent возвращает последние созданные ссылки.
	ListRecent(ctx context.Context, limit int) ([]*model.PaymentLink, error)
	// CountByStatus возвращает количество ссылок в указанном статусе.
	CountByStatus(ctx context.Context, status model.PaymentStatus) (int, error)
	// SumConfirmedRevenue возвращает сумму цен товаров по подтверждённым ссылкам.
	SumConfirmedRevenue(ctx context.Context) (decimal.Decimal, error)
	// DeleteExpiredByProduct удаляет истёкшие ссылки товара.
	// Вызывается перед удалением товара для снятия FK-ограничения.
	DeleteExpiredByProduct(ctx context.Context, productID string) error
}

// paymentLinkRepo — реализация PaymentLinkRepository.
type paymentLinkRepo struct {
	db DBTX
}

// NewPaymentLinkRepository создаёт репозиторий платёжных ссылок.
func NewPaymentLinkRepository(db DBTX) PaymentLinkRepository {
	return &paymentLinkRepo{db: db}
}

const paymentLinkColumns = `id, product_id, unique_code, buyer_name, buyer_email, status,
		payment_proof_url, payment_instructions, expires_at, confirmed_at,
		download_token, created_at, updated_at`

func (r *paymentLinkRepo) Create(ctx context.Context, l *model.PaymentLink) error {
	query := `
		INSERT INTO payment_links (id, product_id, unique_code, buyer_name, buyer_email,
			status, payment_instructions, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		l.ID, l.ProductID, l.UniqueCode, l.BuyerName, l.BuyerEmail,
		string(l.Status), l.PaymentInstructions, l.ExpiresAt,
	).Scan(&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: код ссылки уже занят", ErrConflict)
		}
		return fmt.Errorf("ошибка создания платёжной ссылки: %w", err)
	}
	return nil
}

func (r *paymentLinkRepo) GetByID(ctx context.Context, id string) (*model.PaymentLink, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_links WHERE id = $1`, paymentLinkColumns)

	l, err := scanPaymentLink(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения платёжной ссылки: %w", err)
	}
	return l, nil
}

func (r *paymentLinkRepo) GetByCode(ctx context.Context, code string) (*model.PaymentLink, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_links WHERE unique_code = $1`, paymentLinkColumns)

	l, err := scanPaymentLink(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения платёжной ссылки по коду: %w", err)
	}
	return l, nil
}

func (r *paymentLinkRepo) GetByCodeWithProduct(ctx context.Context, code string) (*model.PaymentLinkWithProduct, error) {
	query := `
		SELECT l.id, l.product_id, l.unique_code, l.buyer_name, l.buyer_email, l.status,
			l.payment_proof_url, l.payment_instructions, l.expires_at, l.confirmed_at,
			l.download_token, l.created_at, l.updated_at,
			p.id, p.name, p.description, p.price::text, p.file_url, p.file_name,
			p.is_active, p.created_at, p.updated_at
		FROM payment_links l
		JOIN products p ON p.id = l.product_id
		WHERE l.unique_code = $1`

	lp, err := scanPaymentLinkWithProduct(r.db.QueryRow(ctx, query, code))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения ссылки с товаром: %w", err)
	}
	return lp, nil
}

func (r *paymentLinkRepo) ListByProduct(ctx context.Context, productID string) ([]*model.PaymentLink, error) {
	query := fmt.Sprintf(`SELECT %s FROM payment_links WHERE product_id = $1`, paymentLinkColumns)

	rows, err := r.db.Query(ctx, query, productID)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ссылок товара: %w", err)
	}
	defer rows.Close()

	return collectPaymentLinks(rows)
}

func (r *paymentLinkRepo) MarkUploaded(ctx context.Context, code, buyerName, buyerEmail, proofURL string) (*model.PaymentLink, error) {
	// Условие status = 'pending' входит в сам UPDATE: два конкурентных
	// запроса не смогут оба выполнить переход.
	query := fmt.Sprintf(`
		UPDATE payment_links
		SET buyer_name = $2, buyer_email = $3, payment_proof_url = $4,
			status = 'uploaded', updated_at = now()
		WHERE unique_code = $1 AND status = 'pending'
		RETURNING %s`, paymentLinkColumns)

	l, err := scanPaymentLink(r.db.QueryRow(ctx, query, code, buyerName, buyerEmail, proofURL))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка перехода в uploaded: %w", err)
	}
	return l, nil
}

func (r *paymentLinkRepo) Confirm(ctx context.Context, id, downloadToken string, confirmedAt time.Time) (*model.PaymentLink, error) {
	// CAS по статусу: повторное подтверждение не найдёт строку в uploaded
	// и не перевыпустит токен.
	query := fmt.Sprintf(`
		UPDATE payment_links
		SET status = 'confirmed', download_token = $2, confirmed_at = $3, updated_at = now()
		WHERE id = $1 AND status = 'uploaded'
		RETURNING %s`, paymentLinkColumns)

	l, err := scanPaymentLink(r.db.QueryRow(ctx, query, id, downloadToken, confirmedAt))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: токен скачивания уже выдан", ErrConflict)
		}
		return nil, fmt.Errorf("ошибка подтверждения оплаты: %w", err)
	}
	return l, nil
}

func (r *paymentLinkRepo) MarkExpired(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE payment_links
		SET status = 'expired', updated_at = now()
		WHERE id = $1 AND status = 'pending'`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("ошибка перехода в expired: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *paymentLinkRepo) GetFileByDownloadToken(ctx context.Context, token string) (*model.FileRef, error) {
	// Единый ErrNotFound для неизвестного токена, неподтверждённой ссылки
	// и товара без файла: ответ не раскрывает, какое условие не выполнено.
	query := `
		SELECT p.file_url, p.file_name
		FROM payment_links l
		JOIN products p ON p.id = l.product_id
		WHERE l.download_token = $1 AND l.status = 'confirmed'`

	var fileURL, fileName *string
	err := r.db.QueryRow(ctx, query, token).Scan(&fileURL, &fileName)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка поиска по токену скачивания: %w", err)
	}
	if fileURL == nil || *fileURL == "" || fileName == nil || *fileName == "" {
		return nil, ErrNotFound
	}
	return &model.FileRef{FileURL: *fileURL, FileName: *fileName}, nil
}

func (r *paymentLinkRepo) ListUploadedWithProduct(ctx context.Context) ([]*model.PaymentLinkWithProduct, error) {
	query := `
		SELECT l.id, l.product_id, l.unique_code, l.buyer_name, l.buyer_email, l.status,
			l.payment_proof_url, l.payment_instructions, l.expires_at, l.confirmed_at,
			l.download_token, l.created_at, l.updated_at,
			p.id, p.name, p.description, p.price::text, p.file_url, p.file_name,
			p.is_active, p.created_at, p.updated_at
		FROM payment_links l
		JOIN products p ON p.id = l.product_id
		WHERE l.status = 'uploaded'
		ORDER BY l.created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения ожидающих платежей: %w", err)
	}
	defer rows.Close()

	var result []*model.PaymentLinkWithProduct
	for rows.Next() {
		lp, err := scanPaymentLinkWithProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования ссылки с товаром: %w", err)
		}
		result = append(result, lp)
	}
	return result, rows.Err()
}

func (r *paymentLinkRepo) ListRecent(ctx context.Context, limit int) ([]*model.PaymentLink, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM payment_links
		ORDER BY created_at DESC
		LIMIT $1`, paymentLinkColumns)

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения последних ссылок: %w", err)
	}
	defer rows.Close()

	return collectPaymentLinks(rows)
}

func (r *paymentLinkRepo) CountByStatus(ctx context.Context, status model.PaymentStatus) (int, error) {
	var count int
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM payment_links WHERE status = $1`, string(status),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта ссылок по статусу: %w", err)
	}
	return count, nil
}

func (r *paymentLinkRepo) SumConfirmedRevenue(ctx context.Context) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(p.price), 0)::text
		FROM payment_links l
		JOIN products p ON p.id = l.product_id
		WHERE l.status = 'confirmed'`

	var sum string
	if err := r.db.QueryRow(ctx, query).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("ошибка подсчёта выручки: %w", err)
	}

	revenue, err := decimal.NewFromString(sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("некорректная сумма выручки %q: %w", sum, err)
	}
	return revenue, nil
}

func (r *paymentLinkRepo) DeleteExpiredByProduct(ctx context.Context, productID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM payment_links WHERE product_id = $1 AND status = 'expired'`, productID)
	if err != nil {
		return fmt.Errorf("ошибка удаления истёкших ссылок: %w", err)
	}
	return nil
}

// scanPaymentLink сканирует строку payment_links в model.PaymentLink.
// Порядок колонок — как в paymentLinkColumns.
func scanPaymentLink(row pgx.Row) (*model.PaymentLink, error) {
	l := &model.PaymentLink{}
	if err := row.Scan(
		&l.ID, &l.ProductID, &l.UniqueCode, &l.BuyerName, &l.BuyerEmail, &l.Status,
		&l.PaymentProofURL, &l.PaymentInstructions, &l.ExpiresAt, &l.ConfirmedAt,
		&l.DownloadToken, &l.CreatedAt, &l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return l, nil
}

// scanPaymentLinkWithProduct сканирует строку join-а payment_links × products.
func scanPaymentLinkWithProduct(row pgx.Row) (*model.PaymentLinkWithProduct, error) {
	lp := &model.PaymentLinkWithProduct{}
	var price string
	if err := row.Scan(
		&lp.ID, &lp.ProductID, &lp.UniqueCode, &lp.BuyerName, &lp.BuyerEmail, &lp.Status,
		&lp.PaymentProofURL, &lp.PaymentInstructions, &lp.ExpiresAt, &lp.ConfirmedAt,
		&lp.DownloadToken, &lp.CreatedAt, &lp.UpdatedAt,
		&lp.Product.ID, &lp.Product.Name, &lp.Product.Description, &price,
		&lp.Product.FileURL, &lp.Product.FileName, &lp.Product.IsActive,
		&lp.Product.CreatedAt, &lp.Product.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	lp.Product.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("некорректная цена %q: %w", price, err)
	}
	return lp, nil
}

// collectPaymentLinks вычитывает все строки курсора в срез.
func collectPaymentLinks(rows pgx.Rows) ([]*model.PaymentLink, error) {
	var result []*model.PaymentLink
	for rows.Next() {
		l, err := scanPaymentLink(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования платёжной ссылки: %w", err)
		}
		result = append(result, l)
	}
	return result, rows.Err()
}
