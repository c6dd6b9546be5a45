package api

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/erazemk/invman/internal/model"
	"github.com/erazemk/invman/internal/report"
	"github.com/erazemk/invman/internal/store"
)

// OrdersHandler handles order endpoints.
type OrdersHandler struct {
	DB *sql.DB
}

type orderStatusRequest struct {
	Status model.OrderStatus `json:"status" validate:"required,oneof=pending processing completed"`
}

// List handles GET /orders. Supports ?status.
func (h *OrdersHandler) List(w http.ResponseWriter, r *http.Request) {
	status := model.OrderStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		jsonError(w, http.StatusBadRequest, "invalid status")
		return
	}

	orders, err := store.ListOrders(r.Context(), h.DB, status)
	if err != nil {
		storeError(w, err, "failed to list orders")
		return
	}
	if orders == nil {
		orders = []model.Order{}
	}
	jsonResponse(w, http.StatusOK, orders)
}

// Create handles POST /orders.
func (h *OrdersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.OrderRequest
	if !decodeValid(w, r, &req) {
		return
	}
	for _, it := range req.Items {
		if it.Price.IsNegative() {
			jsonError(w, http.StatusBadRequest, "price must not be negative")
			return
		}
	}

	claims := GetClaims(r.Context())
	order, err := store.CreateOrder(r.Context(), h.DB, claims.UserID, req)
	if err != nil {
		storeError(w, err, "failed to create order")
		return
	}

	slog.Info("order created", "user", claims.Subject, "order", order.ID,
		"type", order.Type, "total", order.Total.StringFixed(2))
	jsonResponse(w, http.StatusCreated, order)
}

// Approve handles PUT /orders/{id}/approve.
func (h *OrdersHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "approve", store.ApproveOrder)
}

// Reject handles PUT /orders/{id}/reject.
func (h *OrdersHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, "reject", store.RejectOrder)
}

func (h *OrdersHandler) review(w http.ResponseWriter, r *http.Request, action string,
	apply func(context.Context, *sql.DB, int64) (*model.Order, error)) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := apply(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to "+action+" order")
		return
	}

	slog.Info("order "+action, "user", GetClaims(r.Context()).Subject, "order", id, "status", order.Status)
	jsonResponse(w, http.StatusOK, order)
}

// UpdateStatus handles PUT /orders/{id}/status.
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req orderStatusRequest
	if !decodeValid(w, r, &req) {
		return
	}

	order, err := store.UpdateOrderStatus(r.Context(), h.DB, id, req.Status)
	if err != nil {
		storeError(w, err, "failed to update order status")
		return
	}
	jsonResponse(w, http.StatusOK, order)
}

// Delete handles DELETE /orders/{id}.
func (h *OrdersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteOrder(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "failed to delete order")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Report handles GET /orders/{id}/report.
func (h *OrdersHandler) Report(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	order, err := store.GetOrder(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get order")
		return
	}
	if order == nil {
		jsonError(w, http.StatusNotFound, "Order not found")
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="order_%d.xlsx"`, id))
	if err := report.Order(w, order); err != nil {
		slog.Error("writing order report", "order", id, "error", err)
	}
}
