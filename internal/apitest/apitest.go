// Package apitest runs the API over an in-memory database for client tests.
package apitest

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/erazemk/invman/internal/api"
	"github.com/erazemk/invman/internal/db"
	"github.com/erazemk/invman/internal/metrics"
	"github.com/erazemk/invman/internal/model"
	"github.com/erazemk/invman/internal/store"
)

// Password is the password of every seeded user.
const Password = "password1"

// Seeded user emails.
const (
	AdminEmail   = "admin@example.com"
	ManagerEmail = "manager@example.com"
	KeeperEmail  = "keeper@example.com"
)

// Server is a running API with seeded users and catalog.
type Server struct {
	*httptest.Server
	DB      *sql.DB
	Metrics *metrics.Metrics

	// Organization has sub-inventories Raw (locator A-01) and Finished
	// (locator B-01).
	Organization *model.Organization
	SourceLoc    int64
	DestLoc      int64
	// Bolts sits on A-01, BoltsFG on B-01.
	Bolts   *model.Category
	BoltsFG *model.Category
	// Bolt has 10 in stock in Bolts; Nut has none.
	Bolt *model.Product
	Nut  *model.Product

	mu       sync.Mutex
	requests map[string]int
}

// NewServer starts a seeded API server that is closed with the test.
func NewServer(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		DB:       db.NewTestDB(t),
		Metrics:  metrics.New(),
		requests: make(map[string]int),
	}
	s.seed(t)

	router := api.NewRouter(s.DB, "apitest-secret", s.Metrics)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.Method+" "+r.URL.Path]++
		s.mu.Unlock()
		router.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// Requests returns how many requests were served for key, e.g. "GET /products".
func (s *Server) Requests(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[key]
}

// ResetRequests zeroes all request counts.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	s.requests = make(map[string]int)
	s.mu.Unlock()
}

func (s *Server) seed(t *testing.T) {
	t.Helper()
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}
	for _, u := range []struct {
		email string
		role  model.Role
	}{
		{AdminEmail, model.RoleAdmin},
		{ManagerEmail, model.RoleInventoryManager},
		{KeeperEmail, model.RoleStockKeeper},
	} {
		if _, err := store.CreateUser(ctx, s.DB, u.email, u.role.String(), string(hash), u.role); err != nil {
			t.Fatalf("creating user %s: %v", u.email, err)
		}
	}

	s.Organization, err = store.CreateOrganization(ctx, s.DB, model.OrganizationRequest{
		Name: "Acme",
		SubInventories: []model.SubInventoryWithLocators{
			{SubInventoryRequest: model.SubInventoryRequest{Name: "Raw"}, Locators: []model.LocatorRequest{{Code: "A-01"}}},
			{SubInventoryRequest: model.SubInventoryRequest{Name: "Finished"}, Locators: []model.LocatorRequest{{Code: "B-01"}}},
		},
	})
	if err != nil {
		t.Fatalf("creating organization: %v", err)
	}
	s.SourceLoc = s.Organization.SubInventories[0].Locators[0].ID
	s.DestLoc = s.Organization.SubInventories[1].Locators[0].ID

	if s.Bolts, err = store.CreateCategory(ctx, s.DB, model.CategoryRequest{Name: "Bolts", LocatorID: &s.SourceLoc}); err != nil {
		t.Fatalf("creating category: %v", err)
	}
	if s.BoltsFG, err = store.CreateCategory(ctx, s.DB, model.CategoryRequest{Name: "Bolts FG", LocatorID: &s.DestLoc}); err != nil {
		t.Fatalf("creating category: %v", err)
	}
	if s.Bolt, err = store.CreateProduct(ctx, s.DB, model.ProductRequest{
		Name: "M8 bolt", Price: decimal.RequireFromString("0.25"), Stock: 10, CategoryID: &s.Bolts.ID,
	}); err != nil {
		t.Fatalf("creating product: %v", err)
	}
	if s.Nut, err = store.CreateProduct(ctx, s.DB, model.ProductRequest{
		Name: "M8 nut", Price: decimal.RequireFromString("0.10"), Stock: 0, CategoryID: &s.Bolts.ID,
	}); err != nil {
		t.Fatalf("creating product: %v", err)
	}
}
