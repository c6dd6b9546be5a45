package api

import (
	"database/sql"
	"net/http"

	"github.com/erazemk/invman/internal/model"
	"github.com/erazemk/invman/internal/store"
)

// CategoriesHandler handles category endpoints.
type CategoriesHandler struct {
	DB *sql.DB
}

// List handles GET /categories.
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	categories, err := store.ListCategories(r.Context(), h.DB)
	if err != nil {
		storeError(w, err, "failed to list categories")
		return
	}
	if categories == nil {
		categories = []model.Category{}
	}
	jsonResponse(w, http.StatusOK, categories)
}

// Create handles POST /categories.
func (h *CategoriesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CategoryRequest
	if !decodeValid(w, r, &req) {
		return
	}

	category, err := store.CreateCategory(r.Context(), h.DB, req)
	if err != nil {
		storeError(w, err, "failed to create category")
		return
	}
	jsonResponse(w, http.StatusCreated, category)
}

// Update handles PUT /categories/{id}.
func (h *CategoriesHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.CategoryRequest
	if !decodeValid(w, r, &req) {
		return
	}

	category, err := store.UpdateCategory(r.Context(), h.DB, id, req)
	if err != nil {
		storeError(w, err, "failed to update category")
		return
	}
	jsonResponse(w, http.StatusOK, category)
}

// Delete handles DELETE /categories/{id}. Products in it become uncategorised.
func (h *CategoriesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	if err := store.DeleteCategory(r.Context(), h.DB, id); err != nil {
		storeError(w, err, "failed to delete category")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Products handles GET /categories/{id}/products.
func (h *CategoriesHandler) Products(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if !h.categoryExists(w, r, id) {
		return
	}

	products, err := store.ListProducts(r.Context(), h.DB, store.ProductFilter{CategoryID: id})
	if err != nil {
		storeError(w, err, "failed to list products")
		return
	}
	if products == nil {
		products = []model.Product{}
	}
	jsonResponse(w, http.StatusOK, products)
}

// CreateProduct handles POST /categories/{id}/products.
func (h *CategoriesHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req model.ProductRequest
	if !decodeValid(w, r, &req) {
		return
	}
	req.CategoryID = &id

	product, err := store.CreateProduct(r.Context(), h.DB, req)
	if err != nil {
		storeError(w, err, "failed to create product")
		return
	}
	jsonResponse(w, http.StatusCreated, product)
}

func (h *CategoriesHandler) categoryExists(w http.ResponseWriter, r *http.Request, id int64) bool {
	category, err := store.GetCategory(r.Context(), h.DB, id)
	if err != nil {
		storeError(w, err, "failed to get category")
		return false
	}
	if category == nil {
		jsonError(w, http.StatusNotFound, "Category not found")
		return false
	}
	return true
}
