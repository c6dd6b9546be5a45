package api

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/invman/internal/metrics"
	"github.com/erazemk/invman/internal/model"
	"github.com/erazemk/invman/internal/report"
	"github.com/erazemk/invman/internal/store"
)

// TransfersHandler handles stock transfer endpoints.
type TransfersHandler struct {
	DB      *sql.DB
	Metrics *metrics.Metrics
}

// Create handles POST /stock-transfers.
func (h *TransfersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.TransferRequest
	if !decodeValid(w, r, &req) {
		return
	}

	claims := GetClaims(r.Context())
	var userID *int64
	if claims != nil {
		userID = &claims.UserID
	}

	transfer, err := store.CreateTransfer(r.Context(), h.DB, req, userID)
	if err != nil {
		storeError(w, err, "failed to create transfer")
		return
	}

	slog.Info("transfer created", "user", claims.Subject, "transfer", transfer.ID,
		"product", transfer.SourceProductName, "quantity", transfer.Quantity,
		"from", transfer.SourcePath(), "to", transfer.DestinationPath())
	jsonResponse(w, http.StatusCreated, transfer)
}

// List handles GET /stock-transfers. Supports ?status, ?start_date and ?end_date.
func (h *TransfersHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f model.TransferFilter

	if v := q.Get("status"); v != "" {
		f.Status = model.TransferStatus(v)
		if !f.Status.Valid() {
			jsonError(w, http.StatusBadRequest, "invalid status")
			return
		}
	}
	if v := q.Get("start_date"); v != "" {
		t, err := parseDateBound(v, false)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid start_date")
			return
		}
		f.StartDate = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := parseDateBound(v, true)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid end_date")
			return
		}
		f.EndDate = &t
	}

	transfers, err := store.ListTransfers(r.Context(), h.DB, f)
	if err != nil {
		storeError(w, err, "failed to list transfers")
		return
	}
	if transfers == nil {
		transfers = []model.Transfer{}
	}
	jsonResponse(w, http.StatusOK, transfers)
}

// parseDateBound accepts RFC 3339 timestamps or plain dates. A plain end date
// covers the whole day.
func parseDateBound(v string, end bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, err
	}
	if end {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

// Get handles GET /stock-transfers/{id}.
func (h *TransfersHandler) Get(w http.ResponseWriter, r *http.Request) {
	transfer, ok := h.load(w, r)
	if !ok {
		return
	}
	jsonResponse(w, http.StatusOK, transfer)
}

func (h *TransfersHandler) load(w http.ResponseWriter, r *http.Request) (*model.Transfer, bool) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return nil, false
	}

	transfer, err := store.GetTransfer(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get transfer")
		return nil, false
	}
	if transfer == nil {
		jsonError(w, http.StatusNotFound, "Transfer not found")
		return nil, false
	}
	return transfer, true
}

// Approve handles PUT /stock-transfers/{id}/approve.
func (h *TransfersHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, model.ActionApprove, store.ApproveTransfer)
}

// Complete handles PUT /stock-transfers/{id}/complete.
func (h *TransfersHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, model.ActionComplete, store.CompleteTransfer)
}

// Cancel handles PUT /stock-transfers/{id}/cancel.
func (h *TransfersHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.act(w, r, model.ActionCancel, store.CancelTransfer)
}

func (h *TransfersHandler) act(w http.ResponseWriter, r *http.Request, action model.TransferAction,
	apply func(context.Context, *sql.DB, int64) (*model.Transfer, error)) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	transfer, err := apply(r.Context(), h.DB, id)
	h.Metrics.TransferAction(string(action), err)
	if err != nil {
		storeError(w, err, fmt.Sprintf("failed to %s transfer", action))
		return
	}

	slog.Info("transfer "+string(action), "user", GetClaims(r.Context()).Subject,
		"transfer", id, "status", transfer.Status)
	jsonResponse(w, http.StatusOK, transfer)
}

// Report handles GET /stock-transfers/{id}/report.
func (h *TransfersHandler) Report(w http.ResponseWriter, r *http.Request) {
	transfer, ok := h.load(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", report.ContentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="stock_transfer_%d.xlsx"`, transfer.ID))
	if err := report.Transfer(w, transfer); err != nil {
		slog.Error("writing transfer report", "transfer", transfer.ID, "error", err)
	}
}
