package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/invman/internal/model"
)

const orderSelect = `SELECT o.id, o.user_id, o.customer_id, COALESCE(c.name, ''), o.type, o.status,
	o.total, o.created_at, o.updated_at
	FROM orders o
	LEFT JOIN customers c ON c.id = o.customer_id`

func scanOrder(row interface{ Scan(...any) error }) (*model.Order, error) {
	o := &model.Order{}
	if err := row.Scan(&o.ID, &o.UserID, &o.CustomerID, &o.CustomerName, &o.Type, &o.Status,
		&o.Total, &o.CreatedAt, &o.UpdatedAt); err != nil {
		return nil, err
	}
	return o, nil
}

// CreateOrder creates a pending order. Sell orders must be covered by current
// stock; stock itself only changes on approval. Items without a price take the
// product's price.
func CreateOrder(ctx context.Context, db *sql.DB, userID int64, req model.OrderRequest) (*model.Order, error) {
	if req.Type != model.OrderSell && req.Type != model.OrderPurchase {
		return nil, fmt.Errorf("creating order: invalid type %q", req.Type)
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("creating order: no items")
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if req.CustomerID != nil {
		ok, err := exists(ctx, tx, "customers", *req.CustomerID)
		if err != nil {
			return nil, fmt.Errorf("checking customer: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("creating order: customer %d: %w", *req.CustomerID, ErrInvalidReference)
		}
	}

	items := make([]model.OrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		p, err := getProduct(ctx, tx, it.ProductID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, fmt.Errorf("creating order: product %d: %w", it.ProductID, ErrInvalidReference)
		}
		if req.Type == model.OrderSell && p.Stock < it.Quantity {
			return nil, fmt.Errorf("creating order: %s has %d, need %d: %w", p.Name, p.Stock, it.Quantity, ErrInsufficientStock)
		}
		price := it.Price
		if price.IsZero() {
			price = p.Price
		}
		items = append(items, model.OrderItem{ProductID: p.ID, ProductName: p.Name, Quantity: it.Quantity, Price: price})
	}

	result, err := tx.ExecContext(ctx,
		`INSERT INTO orders (user_id, customer_id, type, status, total) VALUES (?, ?, ?, ?, ?)`,
		userID, req.CustomerID, req.Type, model.OrderPending, model.OrderTotal(items),
	)
	if err != nil {
		return nil, fmt.Errorf("creating order: %w", err)
	}
	orderID, _ := result.LastInsertId()

	for _, it := range items {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, product_id, product_name, quantity, price) VALUES (?, ?, ?, ?, ?)`,
			orderID, it.ProductID, it.ProductName, it.Quantity, it.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("creating order item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order: %w", err)
	}
	return GetOrder(ctx, db, orderID)
}

// GetOrder returns an order with its items.
func GetOrder(ctx context.Context, db *sql.DB, id int64) (*model.Order, error) {
	return getOrder(ctx, db, id)
}

func getOrder(ctx context.Context, q querier, id int64) (*model.Order, error) {
	o, err := scanOrder(q.QueryRowContext(ctx, orderSelect+` WHERE o.id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting order: %w", err)
	}
	if o.Items, err = orderItems(ctx, q, o.ID); err != nil {
		return nil, err
	}
	return o, nil
}

func orderItems(ctx context.Context, q querier, orderID int64) ([]model.OrderItem, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, order_id, product_id, product_name, quantity, price FROM order_items WHERE order_id = ? ORDER BY id`,
		orderID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		var it model.OrderItem
		if err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.ProductName, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// ListOrders returns orders, optionally filtered by status, newest first.
func ListOrders(ctx context.Context, db *sql.DB, status model.OrderStatus) ([]model.Order, error) {
	query := orderSelect
	var args []any
	if status != "" {
		query += ` WHERE o.status = ?`
		args = append(args, status)
	}
	query += ` ORDER BY o.created_at DESC, o.id DESC`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning order: %w", err)
		}
		orders = append(orders, *o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	for i := range orders {
		if orders[i].Items, err = orderItems(ctx, db, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func setOrderStatus(ctx context.Context, q querier, id int64, status model.OrderStatus) error {
	_, err := q.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, id,
	)
	if err != nil {
		return fmt.Errorf("updating order status: %w", err)
	}
	return nil
}

// ApproveOrder completes a pending or processing order, moving stock out for
// sell orders and in for purchase orders.
func ApproveOrder(ctx context.Context, db *sql.DB, id int64) (*model.Order, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	o, err := getOrder(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err := o.Status.CanApprove(); err != nil {
		return nil, err
	}

	sign := 1
	if o.Type == model.OrderSell {
		sign = -1
	}
	for _, it := range o.Items {
		if err := adjustStock(ctx, tx, it.ProductID, sign*it.Quantity); err != nil {
			return nil, fmt.Errorf("approving order %d: %w", id, err)
		}
	}

	if err := setOrderStatus(ctx, tx, id, model.OrderCompleted); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing order approval: %w", err)
	}
	return GetOrder(ctx, db, id)
}

// RejectOrder cancels a pending or processing order.
func RejectOrder(ctx context.Context, db *sql.DB, id int64) (*model.Order, error) {
	o, err := GetOrder(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if err := o.Status.CanReject(); err != nil {
		return nil, err
	}
	if err := setOrderStatus(ctx, db, id, model.OrderCancelled); err != nil {
		return nil, err
	}
	return GetOrder(ctx, db, id)
}

// UpdateOrderStatus sets the status of an open order without moving stock.
func UpdateOrderStatus(ctx context.Context, db *sql.DB, id int64, status model.OrderStatus) (*model.Order, error) {
	if status != model.OrderPending && status != model.OrderProcessing && status != model.OrderCompleted {
		return nil, fmt.Errorf("invalid order status %q", status)
	}
	o, err := GetOrder(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, fmt.Errorf("order %d: %w", id, ErrNotFound)
	}
	if o.Status == model.OrderCompleted || o.Status == model.OrderCancelled {
		return nil, fmt.Errorf("cannot change order with status '%s': %w", o.Status, model.ErrInvalidTransition)
	}
	if err := setOrderStatus(ctx, db, id, status); err != nil {
		return nil, err
	}
	return GetOrder(ctx, db, id)
}

// DeleteOrder deletes an order and its items.
func DeleteOrder(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("deleting order %d: %w", id, err)
	}
	return nil
}
