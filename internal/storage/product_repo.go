package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_product_store.go -package=mocks routine-advisor/internal/storage ProductStore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// ProductStore defines the read operations served by the catalog endpoints.
type ProductStore interface {
	// List returns products matching the filter, ordered by ID.
	List(ctx context.Context, filter ProductFilter) ([]Product, error)
	// GetByID returns a single product.
	// Returns ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id int64) (Product, error)
}

// ProductRepo provides methods for product operations.
// It implements the ProductStore interface.
type ProductRepo struct {
	db *sql.DB
}

// NewProductRepo creates a new ProductRepo.
func NewProductRepo(db *sql.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// Upsert inserts a product or replaces the fields of an existing one with the same ID.
func (r *ProductRepo) Upsert(ctx context.Context, p Product) error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("product %d: name is required", p.ID)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, brand, category, description, image, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT (id) DO UPDATE SET
		 name = excluded.name, brand = excluded.brand, category = excluded.category,
		 description = excluded.description, image = excluded.image, updated_at = CURRENT_TIMESTAMP`,
		p.ID, p.Name, p.Brand, p.Category, p.Description, p.Image,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	return nil
}

// List returns products matching the filter, ordered by ID.
func (r *ProductRepo) List(ctx context.Context, filter ProductFilter) ([]Product, error) {
	query := "SELECT id, name, brand, category, description, image FROM products"
	var conds []string
	var args []any

	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		conds = append(conds, "instr(fold(name), ?) > 0")
		args = append(args, strings.ToLower(q))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Brand, &p.Category, &p.Description, &p.Image); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, nil
}

// GetByID returns a single product.
// Returns ErrNotFound if it does not exist.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.db.QueryRowContext(ctx,
		"SELECT id, name, brand, category, description, image FROM products WHERE id = ?",
		id,
	).Scan(&p.ID, &p.Name, &p.Brand, &p.Category, &p.Description, &p.Image)

	if errors.Is(err, sql.ErrNoRows) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("failed to query product: %w", err)
	}

	return p, nil
}

// Count returns the number of products in the catalog.
func (r *ProductRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM products").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}
