package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/invman/internal/model"
)

const transferSelect = `SELECT id, product_id, source_location, destination_location,
	source_category, destination_category, quantity, status, notes, created_by, created_at, updated_at,
	source_product_name, source_subinventory_name, source_locator_name, source_category_name,
	destination_subinventory_name, destination_locator_name, destination_category_name
	FROM stock_transfers`

// dbTimeFormat matches SQLite's CURRENT_TIMESTAMP.
const dbTimeFormat = "2006-01-02 15:04:05"

func scanTransfer(row interface{ Scan(...any) error }) (*model.Transfer, error) {
	t := &model.Transfer{}
	err := row.Scan(&t.ID, &t.ProductID, &t.SourceLocation, &t.DestinationLocation,
		&t.SourceCategory, &t.DestinationCategory, &t.Quantity, &t.Status, &t.Notes, &t.CreatedBy,
		&t.CreatedAt, &t.UpdatedAt,
		&t.SourceProductName, &t.SourceSubInventoryName, &t.SourceLocatorName, &t.SourceCategoryName,
		&t.DestinationSubInventoryName, &t.DestinationLocatorName, &t.DestinationCategoryName)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func categoryName(ctx context.Context, q querier, id *int64) (string, error) {
	if id == nil {
		return "", nil
	}
	var name string
	err := q.QueryRowContext(ctx, `SELECT name FROM categories WHERE id = ?`, *id).Scan(&name)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("category %d: %w", *id, ErrInvalidReference)
	}
	if err != nil {
		return "", fmt.Errorf("getting category: %w", err)
	}
	return name, nil
}

// CreateTransfer records a pending transfer. Stock is only checked here; it
// moves when the transfer is completed.
func CreateTransfer(ctx context.Context, db *sql.DB, req model.TransferRequest, createdBy *int64) (*model.Transfer, error) {
	if req.SourceLocation == req.DestinationLocation {
		return nil, fmt.Errorf("creating transfer: %w", ErrSameLocation)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("creating transfer: quantity must be positive")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	product, err := getProduct(ctx, tx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("creating transfer: product %d: %w", req.ProductID, ErrNotFound)
	}
	if product.Stock < req.Quantity {
		return nil, fmt.Errorf("creating transfer: requested %d, available %d: %w",
			req.Quantity, product.Stock, ErrInsufficientStock)
	}

	t := model.Transfer{SourceProductName: product.Name}
	if t.SourceSubInventoryName, t.SourceLocatorName, err = locatorNames(ctx, tx, req.SourceLocation); err != nil {
		return nil, fmt.Errorf("creating transfer: source %w", err)
	}
	if t.DestinationSubInventoryName, t.DestinationLocatorName, err = locatorNames(ctx, tx, req.DestinationLocation); err != nil {
		return nil, fmt.Errorf("creating transfer: destination %w", err)
	}
	if t.SourceCategoryName, err = categoryName(ctx, tx, req.SourceCategory); err != nil {
		return nil, fmt.Errorf("creating transfer: source %w", err)
	}
	if t.DestinationCategoryName, err = categoryName(ctx, tx, req.DestinationCategory); err != nil {
		return nil, fmt.Errorf("creating transfer: destination %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO stock_transfers (product_id, source_location, destination_location,
		     source_category, destination_category, quantity, status, notes, created_by,
		     source_product_name, source_subinventory_name, source_locator_name, source_category_name,
		     destination_subinventory_name, destination_locator_name, destination_category_name)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		req.ProductID, req.SourceLocation, req.DestinationLocation,
		req.SourceCategory, req.DestinationCategory, req.Quantity, model.TransferPending, req.Notes, createdBy,
		t.SourceProductName, t.SourceSubInventoryName, t.SourceLocatorName, t.SourceCategoryName,
		t.DestinationSubInventoryName, t.DestinationLocatorName, t.DestinationCategoryName,
	)
	if err != nil {
		return nil, fmt.Errorf("recording transfer: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transfer: %w", err)
	}

	id, _ := result.LastInsertId()
	return GetTransfer(ctx, db, id)
}

// GetTransfer returns a transfer by ID.
func GetTransfer(ctx context.Context, db *sql.DB, id int64) (*model.Transfer, error) {
	return getTransfer(ctx, db, id)
}

func getTransfer(ctx context.Context, q querier, id int64) (*model.Transfer, error) {
	t, err := scanTransfer(q.QueryRowContext(ctx, transferSelect+` WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting transfer: %w", err)
	}
	return t, nil
}

// ListTransfers returns transfers matching the filter, newest first.
func ListTransfers(ctx context.Context, db *sql.DB, f model.TransferFilter) ([]model.Transfer, error) {
	query := transferSelect + ` WHERE 1=1`
	var args []any

	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if f.StartDate != nil {
		query += ` AND created_at >= ?`
		args = append(args, f.StartDate.UTC().Format(dbTimeFormat))
	}
	if f.EndDate != nil {
		query += ` AND created_at <= ?`
		args = append(args, f.EndDate.UTC().Format(dbTimeFormat))
	}

	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing transfers: %w", err)
	}
	defer rows.Close()

	var transfers []model.Transfer
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning transfer: %w", err)
		}
		transfers = append(transfers, *t)
	}
	return transfers, rows.Err()
}

// transition loads a transfer in tx, checks action against its status and
// returns the loaded transfer with the target status.
func transition(ctx context.Context, tx *sql.Tx, id int64, action model.TransferAction) (*model.Transfer, model.TransferStatus, error) {
	t, err := getTransfer(ctx, tx, id)
	if err != nil {
		return nil, "", err
	}
	if t == nil {
		return nil, "", fmt.Errorf("transfer %d: %w", id, ErrNotFound)
	}
	next, err := t.Status.Next(action)
	if err != nil {
		return nil, "", err
	}
	return t, next, nil
}

func setTransferStatus(ctx context.Context, tx *sql.Tx, id int64, status model.TransferStatus) error {
	_, err := tx.ExecContext(ctx,
		`UPDATE stock_transfers SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("updating transfer status: %w", err)
	}
	return nil
}

// ApproveTransfer moves a pending transfer to processing.
func ApproveTransfer(ctx context.Context, db *sql.DB, id int64) (*model.Transfer, error) {
	return applyTransition(ctx, db, id, model.ActionApprove, nil)
}

// CancelTransfer cancels a pending or processing transfer.
func CancelTransfer(ctx context.Context, db *sql.DB, id int64) (*model.Transfer, error) {
	return applyTransition(ctx, db, id, model.ActionCancel, nil)
}

// CompleteTransfer moves the stock of a processing transfer and marks it completed.
// The source product is debited; the product with the same name in the
// destination category is credited, or created when there is none.
func CompleteTransfer(ctx context.Context, db *sql.DB, id int64) (*model.Transfer, error) {
	return applyTransition(ctx, db, id, model.ActionComplete, moveStock)
}

func applyTransition(ctx context.Context, db *sql.DB, id int64, action model.TransferAction,
	effect func(context.Context, *sql.Tx, *model.Transfer) error) (*model.Transfer, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	t, next, err := transition(ctx, tx, id, action)
	if err != nil {
		return nil, err
	}
	if effect != nil {
		if err := effect(ctx, tx, t); err != nil {
			return nil, err
		}
	}
	if err := setTransferStatus(ctx, tx, id, next); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transfer %s: %w", action, err)
	}
	return GetTransfer(ctx, db, id)
}

func moveStock(ctx context.Context, tx *sql.Tx, t *model.Transfer) error {
	source, err := getProduct(ctx, tx, t.ProductID)
	if err != nil {
		return err
	}
	if source == nil {
		return fmt.Errorf("source product %d: %w", t.ProductID, ErrNotFound)
	}
	if source.Stock < t.Quantity {
		return fmt.Errorf("requested %d, available %d: %w", t.Quantity, source.Stock, ErrInsufficientStock)
	}

	if err := adjustStock(ctx, tx, source.ID, -t.Quantity); err != nil {
		return err
	}

	if t.DestinationCategory != nil {
		var destID int64
		err := tx.QueryRowContext(ctx,
			`SELECT id FROM products WHERE name = ? AND category_id = ? ORDER BY id LIMIT 1`,
			source.Name, *t.DestinationCategory,
		).Scan(&destID)
		switch {
		case err == nil:
			return adjustStock(ctx, tx, destID, t.Quantity)
		case err != sql.ErrNoRows:
			return fmt.Errorf("finding destination product: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO products (name, description, price, stock, category_id) VALUES (?, ?, ?, ?, ?)`,
		source.Name, source.Description, source.Price, t.Quantity, t.DestinationCategory,
	)
	if err != nil {
		return fmt.Errorf("creating destination product: %w", err)
	}
	return nil
}
