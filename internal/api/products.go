package api

import (
	"database/sql"
	"net/http"
	"strconv"

	"github.com/erazemk/invman/internal/model"
	"github.com/erazemk/invman/internal/store"
)

// ProductsHandler handles product endpoints.
type ProductsHandler struct {
	DB *sql.DB
}

// List handles GET /products. Supports ?category_id, ?in_stock and ?max_stock.
func (h *ProductsHandler) List(w http.ResponseWriter, r *http.Request) {
	var f store.ProductFilter
	q := r.URL.Query()

	if v := q.Get("category_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil || id <= 0 {
			jsonError(w, http.StatusBadRequest, "invalid category_id")
			return
		}
		f.CategoryID = id
	}
	if v := q.Get("in_stock"); v != "" {
		inStock, err := strconv.ParseBool(v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "invalid in_stock")
			return
		}
		f.InStock = inStock
	}
	if v := q.Get("max_stock"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			jsonError(w, http.StatusBadRequest, "invalid max_stock")
			return
		}
		f.MaxStock = &n
	}

	h.list(w, r, f)
}

// ByCategory handles GET /products/by-category/{id}.
func (h *ProductsHandler) ByCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	f := store.ProductFilter{CategoryID: id}
	if v := r.URL.Query().Get("in_stock"); v != "" {
		f.InStock, _ = strconv.ParseBool(v)
	}
	h.list(w, r, f)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request, f store.ProductFilter) {
	products, err := store.ListProducts(r.Context(), h.DB, f)
	if err != nil {
		storeError(w, err, "failed to list products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	jsonResponse(w, http.StatusOK, products)
}

// Create handles POST /products.
func (h *ProductsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.ProductRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if req.Price.IsNegative() {
		jsonError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	product, err := store.CreateProduct(r.Context(), h.DB, req)
	if err != nil {
		storeError(w, err, "failed to create product")
		return
	}
	jsonResponse(w, http.StatusCreated, product)
}

// Get handles GET /products/{id}.
func (h *ProductsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	product, err := store.GetProduct(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get product")
		return
	}
	if product == nil {
		jsonError(w, http.StatusNotFound, "Product not found")
		return
	}
	jsonResponse(w, http.StatusOK, product)
}

// Update handles PUT /products/{id}.
func (h *ProductsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.ProductRequest
	if !decodeValid(w, r, &req) {
		return
	}
	if req.Price.IsNegative() {
		jsonError(w, http.StatusBadRequest, "price must not be negative")
		return
	}

	product, err := store.UpdateProduct(r.Context(), h.DB, id, req)
	if err != nil {
		storeError(w, err, "failed to update product")
		return
	}
	jsonResponse(w, http.StatusOK, product)
}

// Delete handles DELETE /products/{id}.
func (h *ProductsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteProduct(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "failed to delete product")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
