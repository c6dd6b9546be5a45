package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/invman/internal/db"
	"github.com/erazemk/invman/internal/metrics"
	"github.com/erazemk/invman/internal/model"
	"github.com/erazemk/invman/internal/report"
	"github.com/erazemk/invman/internal/store"
)

const (
	testJWTSecret = "test-secret"
	testPassword  = "password1"
)

type testServer struct {
	*httptest.Server
	db      *sql.DB
	metrics *metrics.Metrics
}

func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	database := db.NewTestDB(t)
	m := metrics.New()
	server := httptest.NewServer(NewRouter(database, testJWTSecret, m))
	t.Cleanup(server.Close)
	return &testServer{Server: server, db: database, metrics: m}
}

// userToken creates a user with the given role and logs them in.
func (s *testServer) userToken(t *testing.T, email string, role model.Role) string {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if _, err := store.CreateUser(context.Background(), s.db, email, strings.Split(email, "@")[0], string(hash), role); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	resp := s.do(t, "POST", "/auth/login", "", map[string]any{
		"email": email, "password": testPassword, "isAdmin": role == model.RoleAdmin,
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login %s: status %d", email, resp.StatusCode)
	}
	var login LoginResponse
	json.NewDecoder(resp.Body).Decode(&login)
	if login.AccessToken == "" {
		t.Fatal("empty access token from login")
	}
	return login.AccessToken
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	return resp
}

func (s *testServer) metricsText(t *testing.T) string {
	t.Helper()
	resp := s.do(t, "GET", "/metrics", "", nil)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
	var buf bytes.Buffer
	buf.ReadFrom(resp.Body)
	return buf.String()
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return v
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		var body map[string]any
		json.NewDecoder(resp.Body).Decode(&body)
		resp.Body.Close()
		t.Fatalf("status = %d, want %d (body %v)", resp.StatusCode, want, body)
	}
}

// seedCatalog creates an organization with two locators, a category and a
// product with 10 in stock.
func (s *testServer) seedCatalog(t *testing.T) (src, dst int64, product *model.Product) {
	t.Helper()
	ctx := context.Background()
	org, err := store.CreateOrganization(ctx, s.db, model.OrganizationRequest{
		Name: "Acme",
		SubInventories: []model.SubInventoryWithLocators{
			{SubInventoryRequest: model.SubInventoryRequest{Name: "Raw"}, Locators: []model.LocatorRequest{{Code: "A-01"}}},
			{SubInventoryRequest: model.SubInventoryRequest{Name: "Finished"}, Locators: []model.LocatorRequest{{Code: "B-01"}}},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	src = org.SubInventories[0].Locators[0].ID
	dst = org.SubInventories[1].Locators[0].ID

	cat, err := store.CreateCategory(ctx, s.db, model.CategoryRequest{Name: "Bolts", LocatorID: &src})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	product, err = store.CreateProduct(ctx, s.db, model.ProductRequest{
		Name: "M8 bolt", Price: decimal.RequireFromString("0.25"), Stock: 10, CategoryID: &cat.ID,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	return src, dst, product
}

func TestLoginEndpoint(t *testing.T) {
	s := setupTestServer(t)
	s.userToken(t, "admin@example.com", model.RoleAdmin)
	s.userToken(t, "keeper@example.com", model.RoleStockKeeper)

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantDetail string
	}{
		{"wrong password", map[string]any{"email": "admin@example.com", "password": "nope", "isAdmin": true},
			http.StatusUnauthorized, "Invalid email or password"},
		{"unknown email", map[string]any{"email": "ghost@example.com", "password": testPassword},
			http.StatusUnauthorized, "Invalid email or password"},
		{"admin without admin login", map[string]any{"email": "admin@example.com", "password": testPassword},
			http.StatusForbidden, "Please use admin login."},
		{"non-admin on admin login", map[string]any{"email": "keeper@example.com", "password": testPassword, "isAdmin": true},
			http.StatusForbidden, "Access denied. Admin privileges required."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, "POST", "/auth/login", "", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}
			body := decodeBody[map[string]string](t, resp)
			if body["detail"] != tt.wantDetail {
				t.Errorf("detail = %q, want %q", body["detail"], tt.wantDetail)
			}
		})
	}
}

func TestSignupAndMe(t *testing.T) {
	s := setupTestServer(t)

	resp := s.do(t, "POST", "/auth/signup", "", map[string]any{
		"email": "New@Example.com", "username": "newbie", "password": testPassword, "privileges": 2,
	})
	expectStatus(t, resp, http.StatusCreated)
	user := decodeBody[model.User](t, resp)
	if user.Email != "new@example.com" || user.Privileges != model.RoleStockKeeper {
		t.Errorf("signup user = %+v", user)
	}

	resp = s.do(t, "POST", "/auth/signup", "", map[string]any{
		"email": "new@example.com", "username": "again", "password": testPassword, "privileges": 2,
	})
	expectStatus(t, resp, http.StatusConflict)
	resp.Body.Close()

	resp = s.do(t, "POST", "/auth/signup", "", map[string]any{
		"email": "short@example.com", "username": "short", "password": "abc", "privileges": 2,
	})
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = s.do(t, "POST", "/auth/login", "", map[string]any{"email": "new@example.com", "password": testPassword})
	expectStatus(t, resp, http.StatusOK)
	login := decodeBody[LoginResponse](t, resp)
	if login.TokenType != "bearer" || login.RefreshToken == "" {
		t.Errorf("login response = %+v", login)
	}
	if login.User.Username != "newbie" {
		t.Errorf("login user = %+v", login.User)
	}

	resp = s.do(t, "GET", "/users/me", login.AccessToken, nil)
	expectStatus(t, resp, http.StatusOK)
	me := decodeBody[model.User](t, resp)
	if me.Email != "new@example.com" {
		t.Errorf("me = %+v", me)
	}
}

func TestRefreshAndLogout(t *testing.T) {
	s := setupTestServer(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	store.CreateUser(context.Background(), s.db, "im@example.com", "im", string(hash), model.RoleInventoryManager)

	resp := s.do(t, "POST", "/auth/login", "", map[string]any{"email": "im@example.com", "password": testPassword})
	expectStatus(t, resp, http.StatusOK)
	login := decodeBody[LoginResponse](t, resp)

	resp = s.do(t, "POST", "/auth/refresh", "", map[string]string{"refresh_token": login.RefreshToken})
	expectStatus(t, resp, http.StatusOK)
	refreshed := decodeBody[LoginResponse](t, resp)
	if refreshed.AccessToken == "" {
		t.Fatal("empty access token from refresh")
	}

	// A refresh token is single use.
	resp = s.do(t, "POST", "/auth/refresh", "", map[string]string{"refresh_token": login.RefreshToken})
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	// An access token is not a refresh token.
	resp = s.do(t, "POST", "/auth/refresh", "", map[string]string{"refresh_token": refreshed.AccessToken})
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()

	resp = s.do(t, "POST", "/auth/logout", refreshed.AccessToken, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = s.do(t, "GET", "/users/me", refreshed.AccessToken, nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	body := decodeBody[map[string]string](t, resp)
	if body["detail"] != "Token has been revoked" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestChangePassword(t *testing.T) {
	s := setupTestServer(t)
	token := s.userToken(t, "keeper@example.com", model.RoleStockKeeper)

	resp := s.do(t, "POST", "/users/change-password", token, map[string]string{
		"current_password": "wrong-one", "new_password": "brandnew1",
	})
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = s.do(t, "POST", "/users/change-password", token, map[string]string{
		"current_password": testPassword, "new_password": "brandnew1",
	})
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = s.do(t, "POST", "/auth/login", "", map[string]any{"email": "keeper@example.com", "password": "brandnew1"})
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()
}

func TestUnauthenticatedAccess(t *testing.T) {
	s := setupTestServer(t)

	for _, path := range []string{"/products", "/stock-transfers", "/organization", "/users/me"} {
		resp := s.do(t, "GET", path, "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("GET %s: status = %d, want 401", path, resp.StatusCode)
		}
		resp.Body.Close()
	}

	resp := s.do(t, "GET", "/products", "not-a-token", nil)
	expectStatus(t, resp, http.StatusUnauthorized)
	resp.Body.Close()
}

func TestRoleBasedAccess(t *testing.T) {
	s := setupTestServer(t)
	src, dst, product := s.seedCatalog(t)
	keeper := s.userToken(t, "keeper@example.com", model.RoleStockKeeper)
	manager := s.userToken(t, "manager@example.com", model.RoleInventoryManager)

	// Only admins list users.
	resp := s.do(t, "GET", "/users", manager, nil)
	expectStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	// Stock keepers cannot edit the catalog.
	resp = s.do(t, "POST", "/categories", keeper, map[string]string{"name": "Nuts"})
	expectStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	// Inventory managers cannot create transfers.
	req := map[string]any{
		"product_id": product.ID, "source_location": src, "destination_location": dst, "quantity": 1,
	}
	resp = s.do(t, "POST", "/stock-transfers", manager, req)
	expectStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = s.do(t, "POST", "/stock-transfers", keeper, req)
	expectStatus(t, resp, http.StatusCreated)
	transfer := decodeBody[model.Transfer](t, resp)

	// Stock keepers cannot review transfers.
	resp = s.do(t, "PUT", "/stock-transfers/"+itoa(transfer.ID)+"/approve", keeper, nil)
	expectStatus(t, resp, http.StatusForbidden)
	body := decodeBody[map[string]string](t, resp)
	if body["detail"] != "Insufficient permissions" {
		t.Errorf("detail = %q", body["detail"])
	}
}

func TestTransferLifecycle(t *testing.T) {
	s := setupTestServer(t)
	src, dst, product := s.seedCatalog(t)
	keeper := s.userToken(t, "keeper@example.com", model.RoleStockKeeper)
	manager := s.userToken(t, "manager@example.com", model.RoleInventoryManager)

	resp := s.do(t, "POST", "/stock-transfers", keeper, map[string]any{
		"product_id": product.ID, "source_location": src, "destination_location": dst,
		"quantity": 4, "notes": "restock line 2",
	})
	expectStatus(t, resp, http.StatusCreated)
	transfer := decodeBody[model.Transfer](t, resp)
	if transfer.Status != model.TransferPending {
		t.Fatalf("status = %q, want pending", transfer.Status)
	}
	if transfer.SourcePath() != "Raw > A-01" || transfer.DestinationPath() != "Finished > B-01" {
		t.Errorf("paths = %q -> %q", transfer.SourcePath(), transfer.DestinationPath())
	}
	path := "/stock-transfers/" + itoa(transfer.ID)

	// Completing a pending transfer is not allowed.
	resp = s.do(t, "PUT", path+"/complete", manager, nil)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = s.do(t, "PUT", path+"/approve", manager, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[model.Transfer](t, resp); got.Status != model.TransferProcessing {
		t.Fatalf("status = %q, want processing", got.Status)
	}

	resp = s.do(t, "PUT", path+"/complete", manager, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[model.Transfer](t, resp); got.Status != model.TransferCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}

	resp = s.do(t, "GET", "/products/"+itoa(product.ID), keeper, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[model.Product](t, resp); got.Stock != 6 {
		t.Errorf("source stock = %d, want 6", got.Stock)
	}

	// Terminal transfers cannot be cancelled.
	resp = s.do(t, "PUT", path+"/cancel", manager, nil)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = s.do(t, "GET", "/stock-transfers?status=completed", keeper, nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decodeBody[[]model.Transfer](t, resp); len(list) != 1 || list[0].ID != transfer.ID {
		t.Errorf("completed transfers = %+v", list)
	}

	if text := s.metricsText(t); !strings.Contains(text, `invman_transfer_actions_total{action="approve",outcome="ok"} 1`) ||
		!strings.Contains(text, `invman_transfer_actions_total{action="complete",outcome="error"} 1`) {
		t.Errorf("transfer action counters missing from metrics output")
	}
}

func TestCreateTransferRejections(t *testing.T) {
	s := setupTestServer(t)
	src, dst, product := s.seedCatalog(t)
	keeper := s.userToken(t, "keeper@example.com", model.RoleStockKeeper)

	tests := []struct {
		name       string
		body       map[string]any
		wantDetail string
	}{
		{"same location",
			map[string]any{"product_id": product.ID, "source_location": src, "destination_location": src, "quantity": 1},
			"Source and destination locations must be different"},
		{"insufficient stock",
			map[string]any{"product_id": product.ID, "source_location": src, "destination_location": dst, "quantity": 11},
			""},
		{"missing quantity",
			map[string]any{"product_id": product.ID, "source_location": src, "destination_location": dst},
			""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := s.do(t, "POST", "/stock-transfers", keeper, tt.body)
			if resp.StatusCode != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", resp.StatusCode)
			}
			body := decodeBody[map[string]string](t, resp)
			if tt.wantDetail != "" && body["detail"] != tt.wantDetail {
				t.Errorf("detail = %q, want %q", body["detail"], tt.wantDetail)
			}
			if body["detail"] == "" {
				t.Error("empty detail")
			}
		})
	}

	resp := s.do(t, "POST", "/stock-transfers", keeper, map[string]any{
		"product_id": 999, "source_location": src, "destination_location": dst, "quantity": 1,
	})
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()
}

func TestListTransfersDateFilter(t *testing.T) {
	s := setupTestServer(t)
	src, dst, product := s.seedCatalog(t)
	keeper := s.userToken(t, "keeper@example.com", model.RoleStockKeeper)

	resp := s.do(t, "POST", "/stock-transfers", keeper, map[string]any{
		"product_id": product.ID, "source_location": src, "destination_location": dst, "quantity": 1,
	})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = s.do(t, "GET", "/stock-transfers?end_date=2000-01-01", keeper, nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decodeBody[[]model.Transfer](t, resp); len(list) != 0 {
		t.Errorf("transfers before 2000 = %d, want 0", len(list))
	}

	resp = s.do(t, "GET", "/stock-transfers?start_date=2000-01-01", keeper, nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decodeBody[[]model.Transfer](t, resp); len(list) != 1 {
		t.Errorf("transfers since 2000 = %d, want 1", len(list))
	}

	resp = s.do(t, "GET", "/stock-transfers?start_date=yesterday", keeper, nil)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = s.do(t, "GET", "/stock-transfers?status=lost", keeper, nil)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()
}

func TestTransferReport(t *testing.T) {
	s := setupTestServer(t)
	src, dst, product := s.seedCatalog(t)
	keeper := s.userToken(t, "keeper@example.com", model.RoleStockKeeper)

	resp := s.do(t, "POST", "/stock-transfers", keeper, map[string]any{
		"product_id": product.ID, "source_location": src, "destination_location": dst, "quantity": 2,
	})
	expectStatus(t, resp, http.StatusCreated)
	transfer := decodeBody[model.Transfer](t, resp)

	resp = s.do(t, "GET", "/stock-transfers/"+itoa(transfer.ID)+"/report", keeper, nil)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != report.ContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "stock_transfer_") {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestCatalogFlow(t *testing.T) {
	s := setupTestServer(t)
	manager := s.userToken(t, "manager@example.com", model.RoleInventoryManager)

	resp := s.do(t, "POST", "/organization", manager, map[string]any{
		"name": "Acme",
		"sub_inventories": []map[string]any{
			{"name": "Raw", "locators": []map[string]any{{"code": "A-01"}}},
		},
	})
	expectStatus(t, resp, http.StatusCreated)
	org := decodeBody[model.Organization](t, resp)
	sub := org.SubInventories[0]
	loc := sub.Locators[0]

	resp = s.do(t, "POST", "/organization/"+itoa(org.ID)+"/sub-inventory/"+itoa(sub.ID)+"/locator", manager,
		map[string]any{"code": "A-02", "length": 2.5})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = s.do(t, "GET", "/organization", manager, nil)
	expectStatus(t, resp, http.StatusOK)
	orgs := decodeBody[[]model.Organization](t, resp)
	if len(orgs) != 1 || len(orgs[0].SubInventories[0].Locators) != 2 {
		t.Fatalf("organizations = %+v", orgs)
	}

	resp = s.do(t, "POST", "/categories", manager, map[string]any{"name": "Bolts", "locator_id": loc.ID})
	expectStatus(t, resp, http.StatusCreated)
	cat := decodeBody[model.Category](t, resp)
	if cat.SubInventoryID == nil || *cat.SubInventoryID != sub.ID {
		t.Errorf("category sub-inventory = %v, want %d", cat.SubInventoryID, sub.ID)
	}

	resp = s.do(t, "POST", "/categories", manager, map[string]any{"name": "Ghost", "locator_id": 999})
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = s.do(t, "POST", "/categories/"+itoa(cat.ID)+"/products", manager,
		map[string]any{"name": "M8 bolt", "price": "0.25", "stock": 5})
	expectStatus(t, resp, http.StatusCreated)
	product := decodeBody[model.Product](t, resp)
	if !product.InCategory(cat.ID) {
		t.Errorf("product category = %v, want %d", product.CategoryID, cat.ID)
	}

	resp = s.do(t, "POST", "/products", manager, map[string]any{"name": "Washer", "price": "0.05", "stock": 100})
	expectStatus(t, resp, http.StatusCreated)
	resp.Body.Close()

	resp = s.do(t, "GET", "/products/by-category/"+itoa(cat.ID), manager, nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decodeBody[[]model.Product](t, resp); len(list) != 1 || list[0].Name != "M8 bolt" {
		t.Errorf("by-category = %+v", list)
	}

	resp = s.do(t, "GET", "/products?max_stock=20", manager, nil)
	expectStatus(t, resp, http.StatusOK)
	if list := decodeBody[[]model.Product](t, resp); len(list) != 1 || list[0].Stock != 5 {
		t.Errorf("low stock = %+v", list)
	}

	resp = s.do(t, "DELETE", "/categories/"+itoa(cat.ID), manager, nil)
	expectStatus(t, resp, http.StatusNoContent)
	resp.Body.Close()

	resp = s.do(t, "GET", "/products/"+itoa(product.ID), manager, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[model.Product](t, resp); got.CategoryID != nil {
		t.Errorf("category after delete = %v, want nil", *got.CategoryID)
	}
}

func TestOrderFlow(t *testing.T) {
	s := setupTestServer(t)
	_, _, product := s.seedCatalog(t)
	keeper := s.userToken(t, "keeper@example.com", model.RoleStockKeeper)
	manager := s.userToken(t, "manager@example.com", model.RoleInventoryManager)

	resp := s.do(t, "POST", "/customers", keeper, map[string]any{"name": "Bob", "email": "bob@example.com"})
	expectStatus(t, resp, http.StatusCreated)
	customer := decodeBody[model.Customer](t, resp)

	resp = s.do(t, "POST", "/customers", keeper, map[string]any{"name": "Bad", "email": "not-an-email"})
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = s.do(t, "POST", "/orders", keeper, map[string]any{
		"customer_id": customer.ID, "type": "sell",
		"items": []map[string]any{{"product_id": product.ID, "quantity": 4}},
	})
	expectStatus(t, resp, http.StatusCreated)
	order := decodeBody[model.Order](t, resp)
	if !order.Total.Equal(decimal.RequireFromString("1")) {
		t.Errorf("total = %s, want 1", order.Total)
	}

	path := "/orders/" + itoa(order.ID)
	resp = s.do(t, "PUT", path+"/approve", keeper, nil)
	expectStatus(t, resp, http.StatusForbidden)
	resp.Body.Close()

	resp = s.do(t, "PUT", path+"/approve", manager, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[model.Order](t, resp); got.Status != model.OrderCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}

	resp = s.do(t, "PUT", path+"/reject", manager, nil)
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = s.do(t, "PUT", path+"/status", manager, map[string]string{"status": "cancelled"})
	expectStatus(t, resp, http.StatusBadRequest)
	resp.Body.Close()

	resp = s.do(t, "GET", path+"/report", keeper, nil)
	expectStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = s.do(t, "GET", "/products/"+itoa(product.ID), keeper, nil)
	expectStatus(t, resp, http.StatusOK)
	if got := decodeBody[model.Product](t, resp); got.Stock != 6 {
		t.Errorf("stock = %d, want 6", got.Stock)
	}
}

func TestOrganizationAttachment(t *testing.T) {
	s := setupTestServer(t)
	manager := s.userToken(t, "manager@example.com", model.RoleInventoryManager)
	org, err := store.CreateOrganization(context.Background(), s.db, model.OrganizationRequest{Name: "Acme"})
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}
	path := "/organization/" + itoa(org.ID) + "/attachment"

	resp := s.do(t, "GET", path, manager, nil)
	expectStatus(t, resp, http.StatusNotFound)
	resp.Body.Close()

	req, _ := http.NewRequest("PUT", s.URL+path, bytes.NewReader(testPNG(t, 2000, 1000)))
	req.Header.Set("Authorization", "Bearer "+manager)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	expectStatus(t, resp, http.StatusOK)
	info := decodeBody[map[string]int](t, resp)
	if info["width"] != 1024 || info["height"] != 512 {
		t.Errorf("stored size = %dx%d, want 1024x512", info["width"], info["height"])
	}

	resp = s.do(t, "GET", path+"?thumb=1", manager, nil)
	defer resp.Body.Close()
	expectStatus(t, resp, http.StatusOK)
	if ct := resp.Header.Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	s := setupTestServer(t)

	resp := s.do(t, "GET", "/health", "", nil)
	expectStatus(t, resp, http.StatusOK)
	if id := resp.Header.Get("X-Request-ID"); id == "" {
		t.Error("missing X-Request-ID")
	}
	resp.Body.Close()

	if !strings.Contains(s.metricsText(t), `invman_http_requests_total{method="GET",route="GET /health",status="200"} 1`) {
		t.Errorf("metrics output missing health request counter")
	}
}
