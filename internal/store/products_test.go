package store

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/erazemk/invman/internal/db"
	"github.com/erazemk/invman/internal/model"
)

func TestCategoryPlacement(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	f := seed(t, database)

	// The sub-inventory is derived from the locator.
	if f.srcCat.SubInventoryID == nil || *f.srcCat.SubInventoryID != f.org.SubInventories[0].ID {
		t.Errorf("expected derived sub-inventory, got %v", f.srcCat.SubInventoryID)
	}

	wrongSub := f.org.SubInventories[1].ID
	_, err := CreateCategory(ctx, database, model.CategoryRequest{Name: "X", LocatorID: &f.srcLoc, SubInventoryID: &wrongSub})
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference for mismatched sub-inventory, got %v", err)
	}

	missing := int64(999)
	if _, err := CreateCategory(ctx, database, model.CategoryRequest{Name: "X", LocatorID: &missing}); !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference for missing locator, got %v", err)
	}

	updated, err := UpdateCategory(ctx, database, f.srcCat.ID, model.CategoryRequest{Name: "Fasteners"})
	if err != nil {
		t.Fatalf("UpdateCategory: %v", err)
	}
	if updated.Name != "Fasteners" || updated.LocatorID != nil {
		t.Errorf("unexpected category after update: %+v", updated)
	}

	cats, _ := ListCategories(ctx, database)
	if len(cats) != 2 {
		t.Errorf("expected 2 categories, got %d", len(cats))
	}
}

func TestDeleteCategoryUncategorisesProducts(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	f := seed(t, database)

	if err := DeleteCategory(ctx, database, f.srcCat.ID); err != nil {
		t.Fatalf("DeleteCategory: %v", err)
	}
	p, _ := GetProduct(ctx, database, f.product.ID)
	if p.CategoryID != nil || p.Category != nil {
		t.Errorf("expected product without category, got %+v", p)
	}
	if err := DeleteCategory(ctx, database, f.srcCat.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestListProductsFilters(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	f := seed(t, database)

	CreateProduct(ctx, database, model.ProductRequest{Name: "M10 bolt", Stock: 0, CategoryID: &f.srcCat.ID})
	CreateProduct(ctx, database, model.ProductRequest{Name: "Washer", Stock: 50, Price: decimal.NewFromInt(1)})

	all, _ := ListProducts(ctx, database, ProductFilter{})
	if len(all) != 3 {
		t.Errorf("expected 3 products, got %d", len(all))
	}

	inCat, _ := ListProducts(ctx, database, ProductFilter{CategoryID: f.srcCat.ID})
	if len(inCat) != 2 {
		t.Errorf("expected 2 products in category, got %d", len(inCat))
	}

	inStock, _ := ListProducts(ctx, database, ProductFilter{CategoryID: f.srcCat.ID, InStock: true})
	if len(inStock) != 1 || inStock[0].Name != "M8 bolt" {
		t.Errorf("expected only stocked product, got %+v", inStock)
	}

	threshold := model.DefaultLowStockThreshold
	low, _ := ListProducts(ctx, database, ProductFilter{MaxStock: &threshold})
	if len(low) != 2 {
		t.Errorf("expected 2 low-stock products, got %d", len(low))
	}

	p := inStock[0]
	if p.Category == nil || p.Category.Name != "Bolts" {
		t.Errorf("expected embedded category, got %+v", p.Category)
	}
	if !p.Price.Equal(decimal.RequireFromString("0.25")) {
		t.Errorf("expected price 0.25, got %s", p.Price)
	}
}

func TestCreateProductUnknownCategory(t *testing.T) {
	database := db.NewTestDB(t)
	missing := int64(42)

	_, err := CreateProduct(context.Background(), database, model.ProductRequest{Name: "X", CategoryID: &missing})
	if !errors.Is(err, ErrInvalidReference) {
		t.Errorf("expected ErrInvalidReference, got %v", err)
	}
}

func TestDeleteProduct(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	f := seed(t, database)

	CreateTransfer(ctx, database, f.transferRequest(1), nil)
	if err := DeleteProduct(ctx, database, f.product.ID); !errors.Is(err, ErrInUse) {
		t.Errorf("expected ErrInUse for referenced product, got %v", err)
	}

	free, _ := CreateProduct(ctx, database, model.ProductRequest{Name: "Spare"})
	if err := DeleteProduct(ctx, database, free.ID); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if p, _ := GetProduct(ctx, database, free.ID); p != nil {
		t.Error("expected product to be gone")
	}
}
