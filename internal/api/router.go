package api

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/bwmarrin/snowflake"

	"github.com/erazemk/invman/internal/metrics"
	"github.com/erazemk/invman/internal/model"
)

// NewRouter creates the API router with all endpoints registered. A nil m
// disables instrumentation and the /metrics endpoint.
func NewRouter(db *sql.DB, jwtSecret string, m *metrics.Metrics) http.Handler {
	mux := http.NewServeMux()

	authHandler := &AuthHandler{DB: db, JWTSecret: jwtSecret}
	usersHandler := &UsersHandler{DB: db}
	orgHandler := &OrganizationsHandler{DB: db}
	categoriesHandler := &CategoriesHandler{DB: db}
	productsHandler := &ProductsHandler{DB: db}
	customersHandler := &CustomersHandler{DB: db}
	ordersHandler := &OrdersHandler{DB: db}
	transfersHandler := &TransfersHandler{DB: db, Metrics: m}

	authMW := AuthMiddleware(jwtSecret, db)
	authed := func(h http.HandlerFunc) http.Handler { return authMW(h) }
	gated := func(perm model.Permission, h http.HandlerFunc) http.Handler {
		return authMW(RequirePermission(perm)(h))
	}

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if m != nil {
		mux.Handle("GET /metrics", m.Handler())
	}

	// Public auth.
	mux.HandleFunc("POST /auth/signup", authHandler.Signup)
	mux.HandleFunc("POST /auth/login", authHandler.Login)
	mux.HandleFunc("POST /auth/refresh", authHandler.Refresh)
	mux.Handle("POST /auth/logout", authed(authHandler.Logout))

	// Users.
	mux.Handle("GET /users", gated(model.PermManageUsers, usersHandler.List))
	mux.Handle("GET /users/me", authed(usersHandler.Me))
	mux.Handle("POST /users/change-password", authed(authHandler.ChangePassword))

	// Organization hierarchy: read (all), write (catalog managers).
	mux.Handle("GET /organization", authed(orgHandler.List))
	mux.Handle("POST /organization", gated(model.PermManageCatalog, orgHandler.Create))
	mux.Handle("PUT /organization/{id}/attachment", gated(model.PermManageCatalog, orgHandler.UploadAttachment))
	mux.Handle("GET /organization/{id}/attachment", authed(orgHandler.GetAttachment))
	mux.Handle("POST /organization/{id}/sub-inventory", gated(model.PermManageCatalog, orgHandler.CreateSubInventory))
	mux.Handle("PUT /organization/{id}/sub-inventory/{sid}", gated(model.PermManageCatalog, orgHandler.UpdateSubInventory))
	mux.Handle("DELETE /organization/{id}/sub-inventory/{sid}", gated(model.PermManageCatalog, orgHandler.DeleteSubInventory))
	mux.Handle("POST /organization/{id}/sub-inventory/{sid}/locator", gated(model.PermManageCatalog, orgHandler.CreateLocator))
	mux.Handle("PUT /organization/{id}/sub-inventory/{sid}/locator/{lid}", gated(model.PermManageCatalog, orgHandler.UpdateLocator))
	mux.Handle("DELETE /organization/{id}/sub-inventory/{sid}/locator/{lid}", gated(model.PermManageCatalog, orgHandler.DeleteLocator))

	// Categories.
	mux.Handle("GET /categories", authed(categoriesHandler.List))
	mux.Handle("POST /categories", gated(model.PermManageCatalog, categoriesHandler.Create))
	mux.Handle("PUT /categories/{id}", gated(model.PermManageCatalog, categoriesHandler.Update))
	mux.Handle("DELETE /categories/{id}", gated(model.PermManageCatalog, categoriesHandler.Delete))
	mux.Handle("GET /categories/{id}/products", authed(categoriesHandler.Products))
	mux.Handle("POST /categories/{id}/products", gated(model.PermManageCatalog, categoriesHandler.CreateProduct))

	// Products.
	mux.Handle("GET /products", authed(productsHandler.List))
	mux.Handle("POST /products", gated(model.PermManageCatalog, productsHandler.Create))
	mux.Handle("GET /products/by-category/{id}", authed(productsHandler.ByCategory))
	mux.Handle("GET /products/{id}", authed(productsHandler.Get))
	mux.Handle("PUT /products/{id}", gated(model.PermManageCatalog, productsHandler.Update))
	mux.Handle("DELETE /products/{id}", gated(model.PermManageCatalog, productsHandler.Delete))

	// Customers.
	mux.Handle("GET /customers", authed(customersHandler.List))
	mux.Handle("POST /customers", gated(model.PermManageCustomers, customersHandler.Create))
	mux.Handle("GET /customers/{id}", authed(customersHandler.Get))
	mux.Handle("PUT /customers/{id}", gated(model.PermManageCustomers, customersHandler.Update))
	mux.Handle("DELETE /customers/{id}", gated(model.PermManageCustomers, customersHandler.Delete))

	// Orders: anyone signed in may place one, reviewers decide.
	mux.Handle("GET /orders", authed(ordersHandler.List))
	mux.Handle("POST /orders", authed(ordersHandler.Create))
	mux.Handle("GET /orders/{id}/report", authed(ordersHandler.Report))
	mux.Handle("PUT /orders/{id}/status", gated(model.PermReviewOrder, ordersHandler.UpdateStatus))
	mux.Handle("PUT /orders/{id}/approve", gated(model.PermReviewOrder, ordersHandler.Approve))
	mux.Handle("PUT /orders/{id}/reject", gated(model.PermReviewOrder, ordersHandler.Reject))
	mux.Handle("DELETE /orders/{id}", gated(model.PermReviewOrder, ordersHandler.Delete))

	// Stock transfers.
	mux.Handle("GET /stock-transfers", authed(transfersHandler.List))
	mux.Handle("POST /stock-transfers", gated(model.PermCreateTransfer, transfersHandler.Create))
	mux.Handle("GET /stock-transfers/{id}", authed(transfersHandler.Get))
	mux.Handle("GET /stock-transfers/{id}/report", authed(transfersHandler.Report))
	mux.Handle("PUT /stock-transfers/{id}/approve", gated(model.PermReviewTransfer, transfersHandler.Approve))
	mux.Handle("PUT /stock-transfers/{id}/complete", gated(model.PermReviewTransfer, transfersHandler.Complete))
	mux.Handle("PUT /stock-transfers/{id}/cancel", gated(model.PermReviewTransfer, transfersHandler.Cancel))

	node, err := snowflake.NewNode(1)
	if err != nil {
		slog.Error("creating request id node", "error", err)
		return LoggingMiddleware(m.Middleware(mux))
	}
	return RequestIDMiddleware(node)(LoggingMiddleware(m.Middleware(mux)))
}
