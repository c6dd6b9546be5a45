// Package catalog caches the organization hierarchy, categories and products
// the client reads repeatedly.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/erazemk/invman/internal/cache"
	"github.com/erazemk/invman/internal/client"
	"github.com/erazemk/invman/internal/metrics"
	"github.com/erazemk/invman/internal/model"
)

// Cache lifetimes.
const (
	OrganizationTTL = 5 * time.Minute
	CategoryTTL     = 5 * time.Minute
	ProductTTL      = 2 * time.Minute
)

// ErrNoOrganization is returned when the backend has no organization yet.
var ErrNoOrganization = errors.New("no organization configured")

// Source is the part of the API the catalog reads from.
type Source interface {
	Organizations(ctx context.Context) ([]model.Organization, error)
	Categories(ctx context.Context) ([]model.Category, error)
	Products(ctx context.Context, q client.ProductQuery) ([]model.Product, error)
	ProductsByCategory(ctx context.Context, categoryID int64, inStock bool) ([]model.Product, error)
}

type categoryKey struct {
	id      int64
	inStock bool
}

// Catalog is a read-through cache over a Source.
type Catalog struct {
	src     Source
	Metrics *metrics.Metrics

	orgs       *cache.Value[[]model.Organization]
	categories *cache.Value[[]model.Category]
	products   *cache.Value[[]model.Product]
	byCategory *cache.Keyed[categoryKey, []model.Product]
}

// New returns an empty catalog reading from src. A nil now uses time.Now.
func New(src Source, now func() time.Time) *Catalog {
	return &Catalog{
		src:        src,
		orgs:       cache.NewValue[[]model.Organization](OrganizationTTL, now),
		categories: cache.NewValue[[]model.Category](CategoryTTL, now),
		products:   cache.NewValue[[]model.Product](ProductTTL, now),
		byCategory: cache.NewKeyed[categoryKey, []model.Product](ProductTTL, now),
	}
}

func (c *Catalog) record(name string, hit bool) {
	if hit {
		c.Metrics.CacheHit(name)
	} else {
		c.Metrics.CacheMiss(name)
	}
}

// Organizations returns every organization.
func (c *Catalog) Organizations(ctx context.Context, force bool) ([]model.Organization, error) {
	orgs, hit, err := c.orgs.Get(ctx, force, c.src.Organizations)
	if err != nil {
		return nil, fmt.Errorf("fetching organization: %w", err)
	}
	c.record("organization", hit)
	return orgs, nil
}

// Organization returns the first organization, which the client works in.
func (c *Catalog) Organization(ctx context.Context, force bool) (*model.Organization, error) {
	orgs, err := c.Organizations(ctx, force)
	if err != nil {
		return nil, err
	}
	if len(orgs) == 0 {
		return nil, ErrNoOrganization
	}
	return &orgs[0], nil
}

// Categories returns every category.
func (c *Catalog) Categories(ctx context.Context, force bool) ([]model.Category, error) {
	categories, hit, err := c.categories.Get(ctx, force, c.src.Categories)
	if err != nil {
		return nil, fmt.Errorf("fetching categories: %w", err)
	}
	c.record("categories", hit)
	return categories, nil
}

// CategoriesAt returns the categories placed on a locator.
func (c *Catalog) CategoriesAt(ctx context.Context, locatorID int64) ([]model.Category, error) {
	all, err := c.Categories(ctx, false)
	if err != nil {
		return nil, err
	}
	var out []model.Category
	for _, cat := range all {
		if cat.LocatorID != nil && *cat.LocatorID == locatorID {
			out = append(out, cat)
		}
	}
	return out, nil
}

// Products returns every product.
func (c *Catalog) Products(ctx context.Context, force bool) ([]model.Product, error) {
	products, hit, err := c.products.Get(ctx, force, c.fetchAllProducts)
	if err != nil {
		return nil, fmt.Errorf("fetching products: %w", err)
	}
	c.record("products", hit)
	return products, nil
}

func (c *Catalog) fetchAllProducts(ctx context.Context) ([]model.Product, error) {
	return c.src.Products(ctx, client.ProductQuery{})
}

// ProductsByCategory returns a category's products, only those in stock when
// requireStock is set. If the by-category endpoint fails the full product
// list is filtered instead.
func (c *Catalog) ProductsByCategory(ctx context.Context, categoryID int64, requireStock bool) ([]model.Product, error) {
	key := categoryKey{id: categoryID, inStock: requireStock}
	products, hit, err := c.byCategory.Get(ctx, key, false, func(ctx context.Context) ([]model.Product, error) {
		products, err := c.src.ProductsByCategory(ctx, categoryID, requireStock)
		if err == nil {
			return products, nil
		}
		if errors.Is(err, client.ErrUnauthorized) || ctx.Err() != nil {
			return nil, err
		}
		slog.Warn("products by category failed, filtering all products", "category", categoryID, "error", err)
		return c.filterProducts(ctx, categoryID, requireStock)
	})
	if err != nil {
		return nil, fmt.Errorf("fetching products of category %d: %w", categoryID, err)
	}
	c.record("products_by_category", hit)
	return products, nil
}

func (c *Catalog) filterProducts(ctx context.Context, categoryID int64, requireStock bool) ([]model.Product, error) {
	all, err := c.Products(ctx, false)
	if err != nil {
		return nil, err
	}
	var out []model.Product
	for _, p := range all {
		if p.InCategory(categoryID) && (!requireStock || p.Stock > 0) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Product finds a product in the cached list.
func (c *Catalog) Product(ctx context.Context, id int64) (*model.Product, error) {
	all, err := c.Products(ctx, false)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, fmt.Errorf("product %d not found", id)
}

// InvalidateProducts drops every cached product list. Call it after anything
// that changes stock.
func (c *Catalog) InvalidateProducts() {
	c.products.Invalidate()
	c.byCategory.InvalidateAll()
}

// InvalidateOrganization drops the cached hierarchy and categories.
func (c *Catalog) InvalidateOrganization() {
	c.orgs.Invalidate()
	c.categories.Invalidate()
}
