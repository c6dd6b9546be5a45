package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// OrderType distinguishes sales from purchases.
type OrderType string

// Order types.
const (
	OrderSell     OrderType = "sell"
	OrderPurchase OrderType = "purchase"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

// Order statuses.
const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
	OrderCancelled  OrderStatus = "cancelled"
)

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderCompleted, OrderCancelled:
		return true
	}
	return false
}

// CanApprove reports whether an order in status s can be approved.
func (s OrderStatus) CanApprove() error {
	if s == OrderPending || s == OrderProcessing {
		return nil
	}
	return fmt.Errorf("cannot approve order with status '%s': %w", s, ErrInvalidTransition)
}

// CanReject reports whether an order in status s can be rejected.
func (s OrderStatus) CanReject() error {
	if s == OrderPending || s == OrderProcessing {
		return nil
	}
	return fmt.Errorf("cannot reject order with status '%s': %w", s, ErrInvalidTransition)
}

// Order is a sale to a customer or a purchase from a supplier.
type Order struct {
	ID           int64           `json:"id"`
	UserID       int64           `json:"user_id"`
	CustomerID   *int64          `json:"customer_id,omitempty"`
	CustomerName string          `json:"customer_name,omitempty"`
	Type         OrderType       `json:"type"`
	Status       OrderStatus     `json:"status"`
	Total        decimal.Decimal `json:"total"`
	Items        []OrderItem     `json:"items"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// OrderItem is a single order line.
type OrderItem struct {
	ID          int64           `json:"id"`
	OrderID     int64           `json:"order_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

// Subtotal is price times quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderTotal sums the item subtotals.
func OrderTotal(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// OrderRequest is the body of POST /orders.
type OrderRequest struct {
	CustomerID *int64             `json:"customer_id" validate:"omitempty,gt=0"`
	Type       OrderType          `json:"type" validate:"required,oneof=sell purchase"`
	Items      []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

// OrderItemRequest is a line of an OrderRequest. A zero price takes the product price.
type OrderItemRequest struct {
	ProductID int64           `json:"product_id" validate:"required,gt=0"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
	Price     decimal.Decimal `json:"price"`
}
