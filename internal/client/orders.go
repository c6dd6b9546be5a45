package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/erazemk/invman/internal/model"
)

// Orders lists orders, optionally by status.
func (c *Client) Orders(ctx context.Context, status model.OrderStatus) ([]model.Order, error) {
	path := "/orders"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var orders []model.Order
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: path}, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CreateOrder places an order.
func (c *Client) CreateOrder(ctx context.Context, req model.OrderRequest) (*model.Order, error) {
	var order model.Order
	if err := c.doJSON(ctx, request{method: http.MethodPost, path: "/orders", body: req}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) orderAction(ctx context.Context, id int64, action string, body any) (*model.Order, error) {
	var order model.Order
	path := fmt.Sprintf("/orders/%d/%s", id, action)
	if err := c.doJSON(ctx, request{method: http.MethodPut, path: path, body: body}, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// ApproveOrder completes an order and moves its stock.
func (c *Client) ApproveOrder(ctx context.Context, id int64) (*model.Order, error) {
	return c.orderAction(ctx, id, "approve", nil)
}

// RejectOrder cancels an order.
func (c *Client) RejectOrder(ctx context.Context, id int64) (*model.Order, error) {
	return c.orderAction(ctx, id, "reject", nil)
}

// UpdateOrderStatus sets an open order's status.
func (c *Client) UpdateOrderStatus(ctx context.Context, id int64, status model.OrderStatus) (*model.Order, error) {
	return c.orderAction(ctx, id, "status", map[string]model.OrderStatus{"status": status})
}

// DeleteOrder deletes an order.
func (c *Client) DeleteOrder(ctx context.Context, id int64) error {
	return c.doJSON(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/orders/%d", id)}, nil)
}

// OrderReport writes the order's xlsx report to w.
func (c *Client) OrderReport(ctx context.Context, id int64, w io.Writer) error {
	return c.download(ctx, fmt.Sprintf("/orders/%d/report", id), w)
}
