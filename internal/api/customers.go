package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/invman/internal/model"
	"github.com/erazemk/invman/internal/store"
)

// CustomersHandler handles customer endpoints.
type CustomersHandler struct {
	DB *sql.DB
}

// List handles GET /customers.
func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := store.ListCustomers(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list customers")
		return
	}
	if customers == nil {
		customers = []model.Customer{}
	}
	jsonResponse(w, http.StatusOK, customers)
}

// Create handles POST /customers.
func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CustomerRequest
	if !decodeValid(w, r, &req) {
		return
	}

	customer, err := store.CreateCustomer(r.Context(), h.DB, req)
	if err != nil {
		storeError(w, err, "failed to create customer")
		return
	}
	jsonResponse(w, http.StatusCreated, customer)
}

// Get handles GET /customers/{id}.
func (h *CustomersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	customer, err := store.GetCustomer(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get customer")
		return
	}
	if customer == nil {
		jsonError(w, http.StatusNotFound, "Customer not found")
		return
	}
	jsonResponse(w, http.StatusOK, customer)
}

// Update handles PUT /customers/{id}.
func (h *CustomersHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.CustomerRequest
	if !decodeValid(w, r, &req) {
		return
	}

	customer, err := store.UpdateCustomer(r.Context(), h.DB, id, req)
	if err != nil {
		storeError(w, err, "failed to update customer")
		return
	}
	jsonResponse(w, http.StatusOK, customer)
}

// Delete handles DELETE /customers/{id}.
func (h *CustomersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteCustomer(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "failed to delete customer")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
