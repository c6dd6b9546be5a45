package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/invman/internal/model"
)

const productSelect = `SELECT p.id, p.name, p.description, p.price, p.stock, p.category_id,
	c.name, p.created_at, p.updated_at
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id`

// ProductFilter narrows ListProducts. Zero values mean no filter.
type ProductFilter struct {
	CategoryID int64
	InStock    bool
	MaxStock   *int
}

func scanProduct(row interface{ Scan(...any) error }) (*model.Product, error) {
	p := &model.Product{}
	var categoryName sql.NullString
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Stock, &p.CategoryID,
		&categoryName, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if p.CategoryID != nil {
		p.Category = &model.CategoryRef{ID: *p.CategoryID, Name: categoryName.String}
	}
	return p, nil
}

func checkCategory(ctx context.Context, q querier, categoryID *int64) error {
	if categoryID == nil {
		return nil
	}
	ok, err := exists(ctx, q, "categories", *categoryID)
	if err != nil {
		return fmt.Errorf("checking category: %w", err)
	}
	if !ok {
		return fmt.Errorf("category %d: %w", *categoryID, ErrInvalidReference)
	}
	return nil
}

// CreateProduct creates a new product.
func CreateProduct(ctx context.Context, db *sql.DB, req model.ProductRequest) (*model.Product, error) {
	if err := checkCategory(ctx, db, req.CategoryID); err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO products (name, description, price, stock, category_id) VALUES (?, ?, ?, ?, ?)`,
		req.Name, req.Description, req.Price, req.Stock, req.CategoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting product id: %w", err)
	}
	return GetProduct(ctx, db, id)
}

// GetProduct returns a product by ID.
func GetProduct(ctx context.Context, db *sql.DB, id int64) (*model.Product, error) {
	return getProduct(ctx, db, id)
}

func getProduct(ctx context.Context, q querier, id int64) (*model.Product, error) {
	p, err := scanProduct(q.QueryRowContext(ctx, productSelect+` WHERE p.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	return p, nil
}

// ListProducts returns products matching the filter, ordered by name.
func ListProducts(ctx context.Context, db *sql.DB, f ProductFilter) ([]model.Product, error) {
	query := productSelect + ` WHERE 1=1`
	var args []any

	if f.CategoryID > 0 {
		query += ` AND p.category_id = ?`
		args = append(args, f.CategoryID)
	}
	if f.InStock {
		query += ` AND p.stock > 0`
	}
	if f.MaxStock != nil {
		query += ` AND p.stock <= ?`
		args = append(args, *f.MaxStock)
	}

	query += ` ORDER BY p.name, p.id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// UpdateProduct replaces a product's fields.
func UpdateProduct(ctx context.Context, db *sql.DB, id int64, req model.ProductRequest) (*model.Product, error) {
	if err := checkCategory(ctx, db, req.CategoryID); err != nil {
		return nil, fmt.Errorf("updating product: %w", err)
	}

	res, err := db.ExecContext(ctx,
		`UPDATE products SET name = ?, description = ?, price = ?, stock = ?, category_id = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		req.Name, req.Description, req.Price, req.Stock, req.CategoryID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating product: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return nil, fmt.Errorf("updating product %d: %w", id, err)
	}
	return GetProduct(ctx, db, id)
}

// DeleteProduct deletes a product. Products referenced by transfers or orders are kept.
func DeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("deleting product %d: %w", id, ErrInUse)
	}
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("deleting product %d: %w", id, err)
	}
	return nil
}

// adjustStock adds delta to a product's stock within q. A result below zero
// is reported as ErrInsufficientStock.
func adjustStock(ctx context.Context, q querier, productID int64, delta int) error {
	var stock int
	err := q.QueryRowContext(ctx, `SELECT stock FROM products WHERE id = ?`, productID).Scan(&stock)
	if err == sql.ErrNoRows {
		return fmt.Errorf("product %d: %w", productID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("reading stock: %w", err)
	}
	if stock+delta < 0 {
		return fmt.Errorf("product %d has %d, need %d: %w", productID, stock, -delta, ErrInsufficientStock)
	}
	_, err = q.ExecContext(ctx,
		`UPDATE products SET stock = stock + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		delta, productID,
	)
	if err != nil {
		return fmt.Errorf("updating stock: %w", err)
	}
	return nil
}
