package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/erazemk/invman/internal/model"
)

// TransferQuery narrows Transfers. Zero values mean no filter.
type TransferQuery struct {
	Status    model.TransferStatus
	StartDate time.Time
	EndDate   time.Time
}

func (q TransferQuery) encode() string {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if !q.StartDate.IsZero() {
		v.Set("start_date", q.StartDate.Format(time.RFC3339))
	}
	if !q.EndDate.IsZero() {
		v.Set("end_date", q.EndDate.Format(time.RFC3339))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// Transfers lists stock transfers, newest first.
func (c *Client) Transfers(ctx context.Context, q TransferQuery) ([]model.Transfer, error) {
	var transfers []model.Transfer
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/stock-transfers" + q.encode()}, &transfers); err != nil {
		return nil, err
	}
	return transfers, nil
}

// Transfer returns one stock transfer.
func (c *Client) Transfer(ctx context.Context, id int64) (*model.Transfer, error) {
	var t model.Transfer
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/stock-transfers/%d", id)}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTransfer submits a stock transfer.
func (c *Client) CreateTransfer(ctx context.Context, req model.TransferRequest) (*model.Transfer, error) {
	var t model.Transfer
	if err := c.doJSON(ctx, request{method: http.MethodPost, path: "/stock-transfers", body: req}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// TransferAction applies a lifecycle action to a transfer.
func (c *Client) TransferAction(ctx context.Context, id int64, action model.TransferAction) (*model.Transfer, error) {
	var t model.Transfer
	path := fmt.Sprintf("/stock-transfers/%d/%s", id, action)
	if err := c.doJSON(ctx, request{method: http.MethodPut, path: path}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// TransferReport writes the transfer's xlsx report to w.
func (c *Client) TransferReport(ctx context.Context, id int64, w io.Writer) error {
	return c.download(ctx, fmt.Sprintf("/stock-transfers/%d/report", id), w)
}
