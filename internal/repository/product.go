package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/arturkryukov/digistore/internal/domain/model"
)

// ProductRepository — интерфейс CRUD для таблицы products.
type ProductRepository interface {
	// Create создаёт новый товар.
	Create(ctx context.Context, p *model.Product) error
	// GetByID возвращает товар по UUID.
	GetByID(ctx context.Context, id string) (*model.Product, error)
	// List возвращает все товары: сначала активные, внутри группы — новые первыми.
	List(ctx context.Context) ([]*model.Product, error)
	// Update перезаписывает изменяемые поля товара.
	Update(ctx context.Context, p *model.Product) error
	// Delete удаляет товар. Вызывается только внутри guarded-транзакции,
	// когда ни одной неистёкшей ссылки на товар не осталось.
	Delete(ctx context.Context, id string) error
	// CountActive возвращает количество активных товаров.
	CountActive(ctx context.Context) (int, error)
}

// productRepo — реализация ProductRepository.
type productRepo struct {
	db DBTX
}

// NewProductRepository создаёт репозиторий товаров.
func NewProductRepository(db DBTX) ProductRepository {
	return &productRepo{db: db}
}

// Цена в БД — numeric(10,2); pgx принимает её текстовое представление
// и отдаёт обратно через ::text, откуда парсится decimal без потери точности.
const productColumns = `id, name, description, price::text, file_url, file_name,
		is_active, created_at, updated_at`

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	query := `
		INSERT INTO products (id, name, description, price, file_url, file_name, is_active)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		RETURNING created_at, updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Price.String(), p.FileURL, p.FileName, p.IsActive,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: товар с таким ID уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания товара: %w", err)
	}
	return nil
}

func (r *productRepo) GetByID(ctx context.Context, id string) (*model.Product, error) {
	query := fmt.Sprintf(`SELECT %s FROM products WHERE id = $1`, productColumns)

	p, err := scanProduct(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения товара: %w", err)
	}
	return p, nil
}

func (r *productRepo) List(ctx context.Context) ([]*model.Product, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM products
		ORDER BY is_active DESC, created_at DESC`, productColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка товаров: %w", err)
	}
	defer rows.Close()

	var result []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования товара: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (r *productRepo) Update(ctx context.Context, p *model.Product) error {
	query := `
		UPDATE products
		SET name = $2, description = $3, price = $4::numeric, file_url = $5,
			file_name = $6, is_active = $7, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.QueryRow(ctx, query,
		p.ID, p.Name, p.Description, p.Price.String(), p.FileURL, p.FileName, p.IsActive,
	).Scan(&p.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка обновления товара: %w", err)
	}
	return nil
}

func (r *productRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления товара: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *productRepo) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE is_active`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("ошибка подсчёта активных товаров: %w", err)
	}
	return count, nil
}

// scanProduct сканирует строку products в model.Product.
// Порядок колонок — как в productColumns.
func scanProduct(row pgx.Row) (*model.Product, error) {
	p := &model.Product{}
	var price string
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &price, &p.FileURL, &p.FileName,
		&p.IsActive, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	p.Price, err = decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("некорректная цена %q: %w", price, err)
	}
	return p, nil
}
