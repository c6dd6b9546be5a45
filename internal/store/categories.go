package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/invman/internal/model"
)

const categoryColumns = `id, name, description, locator_id, sub_inventory_id, created_at, updated_at`

func scanCategory(row interface{ Scan(...any) error }) (*model.Category, error) {
	c := &model.Category{}
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.LocatorID, &c.SubInventoryID, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// resolvePlacement validates the locator and sub-inventory a category is pinned to.
// A locator without a sub-inventory inherits the locator's sub-inventory.
func resolvePlacement(ctx context.Context, q querier, req *model.CategoryRequest) error {
	if req.LocatorID != nil {
		var subID int64
		err := q.QueryRowContext(ctx,
			`SELECT sub_inventory_id FROM locators WHERE id = ?`, *req.LocatorID,
		).Scan(&subID)
		if err == sql.ErrNoRows {
			return fmt.Errorf("locator %d: %w", *req.LocatorID, ErrInvalidReference)
		}
		if err != nil {
			return fmt.Errorf("checking locator: %w", err)
		}
		if req.SubInventoryID == nil {
			req.SubInventoryID = &subID
		} else if *req.SubInventoryID != subID {
			return fmt.Errorf("locator %d is not in sub-inventory %d: %w", *req.LocatorID, *req.SubInventoryID, ErrInvalidReference)
		}
		return nil
	}
	if req.SubInventoryID != nil {
		ok, err := exists(ctx, q, "sub_inventories", *req.SubInventoryID)
		if err != nil {
			return fmt.Errorf("checking sub-inventory: %w", err)
		}
		if !ok {
			return fmt.Errorf("sub-inventory %d: %w", *req.SubInventoryID, ErrInvalidReference)
		}
	}
	return nil
}

// CreateCategory creates a new category.
func CreateCategory(ctx context.Context, db *sql.DB, req model.CategoryRequest) (*model.Category, error) {
	if err := resolvePlacement(ctx, db, &req); err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO categories (name, description, locator_id, sub_inventory_id) VALUES (?, ?, ?, ?)`,
		req.Name, req.Description, req.LocatorID, req.SubInventoryID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting category id: %w", err)
	}
	return GetCategory(ctx, db, id)
}

// GetCategory returns a category by ID.
func GetCategory(ctx context.Context, db *sql.DB, id int64) (*model.Category, error) {
	c, err := scanCategory(db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting category: %w", err)
	}
	return c, nil
}

// ListCategories returns all categories ordered by name.
func ListCategories(ctx context.Context, db *sql.DB) ([]model.Category, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var categories []model.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// UpdateCategory replaces a category's fields.
func UpdateCategory(ctx context.Context, db *sql.DB, id int64, req model.CategoryRequest) (*model.Category, error) {
	if err := resolvePlacement(ctx, db, &req); err != nil {
		return nil, fmt.Errorf("updating category: %w", err)
	}

	res, err := db.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ?, locator_id = ?, sub_inventory_id = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		req.Name, req.Description, req.LocatorID, req.SubInventoryID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating category: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return nil, fmt.Errorf("updating category %d: %w", id, err)
	}
	return GetCategory(ctx, db, id)
}

// DeleteCategory deletes a category. Its products become uncategorised.
func DeleteCategory(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting category: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("deleting category %d: %w", id, err)
	}
	return nil
}
