package store

import (
	"context"
	"database/sql"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/invman/internal/model"
)

type fixture struct {
	org     *model.Organization
	srcLoc  int64
	dstLoc  int64
	srcCat  *model.Category
	dstCat  *model.Category
	product *model.Product
	userID  int64
}

// seed creates an organization with two sub-inventories of one locator each,
// a category pinned to each locator and a product with 10 in stock.
func seed(t *testing.T, database *sql.DB) fixture {
	t.Helper()
	ctx := context.Background()

	org, err := CreateOrganization(ctx, database, model.OrganizationRequest{
		Name: "Acme",
		SubInventories: []model.SubInventoryWithLocators{
			{SubInventoryRequest: model.SubInventoryRequest{Name: "Raw"}, Locators: []model.LocatorRequest{{Code: "A-01"}}},
			{SubInventoryRequest: model.SubInventoryRequest{Name: "Finished"}, Locators: []model.LocatorRequest{{Code: "B-01"}}},
		},
	})
	if err != nil {
		t.Fatalf("CreateOrganization: %v", err)
	}

	f := fixture{
		org:    org,
		srcLoc: org.SubInventories[0].Locators[0].ID,
		dstLoc: org.SubInventories[1].Locators[0].ID,
	}
	if f.srcCat, err = CreateCategory(ctx, database, model.CategoryRequest{Name: "Bolts", LocatorID: &f.srcLoc}); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if f.dstCat, err = CreateCategory(ctx, database, model.CategoryRequest{Name: "Bolts FG", LocatorID: &f.dstLoc}); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	if f.product, err = CreateProduct(ctx, database, model.ProductRequest{
		Name: "M8 bolt", Price: decimal.RequireFromString("0.25"), Stock: 10, CategoryID: &f.srcCat.ID,
	}); err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	u, err := CreateUser(ctx, database, "keeper@example.com", "keeper", "hash", model.RoleStockKeeper)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	f.userID = u.ID
	return f
}

func (f fixture) transferRequest(qty int) model.TransferRequest {
	return model.TransferRequest{
		ProductID:           f.product.ID,
		SourceLocation:      f.srcLoc,
		DestinationLocation: f.dstLoc,
		SourceCategory:      &f.srcCat.ID,
		DestinationCategory: &f.dstCat.ID,
		Quantity:            qty,
	}
}
