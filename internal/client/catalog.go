package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/erazemk/invman/internal/model"
)

// Organizations returns every organization with its sub-inventories and locators.
func (c *Client) Organizations(ctx context.Context) ([]model.Organization, error) {
	var orgs []model.Organization
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/organization"}, &orgs); err != nil {
		return nil, err
	}
	return orgs, nil
}

// CreateOrganization creates an organization with nested sub-inventories and locators.
func (c *Client) CreateOrganization(ctx context.Context, req model.OrganizationRequest) (*model.Organization, error) {
	var org model.Organization
	if err := c.doJSON(ctx, request{method: http.MethodPost, path: "/organization", body: req}, &org); err != nil {
		return nil, err
	}
	return &org, nil
}

func subInventoryPath(orgID, subID int64) string {
	return fmt.Sprintf("/organization/%d/sub-inventory/%d", orgID, subID)
}

// CreateSubInventory adds a sub-inventory to an organization.
func (c *Client) CreateSubInventory(ctx context.Context, orgID int64, req model.SubInventoryRequest) (*model.SubInventory, error) {
	var sub model.SubInventory
	path := fmt.Sprintf("/organization/%d/sub-inventory", orgID)
	if err := c.doJSON(ctx, request{method: http.MethodPost, path: path, body: req}, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// UpdateSubInventory renames or retypes a sub-inventory.
func (c *Client) UpdateSubInventory(ctx context.Context, orgID, subID int64, req model.SubInventoryRequest) error {
	return c.doJSON(ctx, request{method: http.MethodPut, path: subInventoryPath(orgID, subID), body: req}, nil)
}

// DeleteSubInventory deletes a sub-inventory and its locators.
func (c *Client) DeleteSubInventory(ctx context.Context, orgID, subID int64) error {
	return c.doJSON(ctx, request{method: http.MethodDelete, path: subInventoryPath(orgID, subID)}, nil)
}

// CreateLocator adds a locator to a sub-inventory.
func (c *Client) CreateLocator(ctx context.Context, orgID, subID int64, req model.LocatorRequest) (*model.Locator, error) {
	var loc model.Locator
	path := subInventoryPath(orgID, subID) + "/locator"
	if err := c.doJSON(ctx, request{method: http.MethodPost, path: path, body: req}, &loc); err != nil {
		return nil, err
	}
	return &loc, nil
}

// UpdateLocator replaces a locator's fields.
func (c *Client) UpdateLocator(ctx context.Context, orgID, subID, locID int64, req model.LocatorRequest) error {
	path := fmt.Sprintf("%s/locator/%d", subInventoryPath(orgID, subID), locID)
	return c.doJSON(ctx, request{method: http.MethodPut, path: path, body: req}, nil)
}

// DeleteLocator deletes a locator.
func (c *Client) DeleteLocator(ctx context.Context, orgID, subID, locID int64) error {
	path := fmt.Sprintf("%s/locator/%d", subInventoryPath(orgID, subID), locID)
	return c.doJSON(ctx, request{method: http.MethodDelete, path: path}, nil)
}

// UploadAttachment uploads an image for an organization.
func (c *Client) UploadAttachment(ctx context.Context, orgID int64, image []byte) error {
	return c.doJSON(ctx, request{
		method:      http.MethodPut,
		path:        fmt.Sprintf("/organization/%d/attachment", orgID),
		raw:         bytes.NewReader(image),
		contentType: "application/octet-stream",
	}, nil)
}

// Categories lists all categories.
func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var categories []model.Category
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/categories"}, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}

// CreateCategory creates a category.
func (c *Client) CreateCategory(ctx context.Context, req model.CategoryRequest) (*model.Category, error) {
	var category model.Category
	if err := c.doJSON(ctx, request{method: http.MethodPost, path: "/categories", body: req}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// UpdateCategory replaces a category's fields.
func (c *Client) UpdateCategory(ctx context.Context, id int64, req model.CategoryRequest) (*model.Category, error) {
	var category model.Category
	path := fmt.Sprintf("/categories/%d", id)
	if err := c.doJSON(ctx, request{method: http.MethodPut, path: path, body: req}, &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// DeleteCategory deletes a category; its products become uncategorised.
func (c *Client) DeleteCategory(ctx context.Context, id int64) error {
	return c.doJSON(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/categories/%d", id)}, nil)
}

// CategoryProducts lists the products of a category.
func (c *Client) CategoryProducts(ctx context.Context, id int64) ([]model.Product, error) {
	var products []model.Product
	path := fmt.Sprintf("/categories/%d/products", id)
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: path}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ProductQuery narrows Products. Zero values mean no filter.
type ProductQuery struct {
	CategoryID int64
	InStock    bool
	MaxStock   *int
}

func (q ProductQuery) encode() string {
	v := url.Values{}
	if q.CategoryID > 0 {
		v.Set("category_id", strconv.FormatInt(q.CategoryID, 10))
	}
	if q.InStock {
		v.Set("in_stock", "true")
	}
	if q.MaxStock != nil {
		v.Set("max_stock", strconv.Itoa(*q.MaxStock))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

// Products lists products.
func (c *Client) Products(ctx context.Context, q ProductQuery) ([]model.Product, error) {
	var products []model.Product
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/products" + q.encode()}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// ProductsByCategory lists a category's products, optionally only those in stock.
func (c *Client) ProductsByCategory(ctx context.Context, categoryID int64, inStock bool) ([]model.Product, error) {
	var products []model.Product
	path := fmt.Sprintf("/products/by-category/%d", categoryID)
	if inStock {
		path += "?in_stock=true"
	}
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: path}, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Product returns one product.
func (c *Client) Product(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: fmt.Sprintf("/products/%d", id)}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// CreateProduct creates a product.
func (c *Client) CreateProduct(ctx context.Context, req model.ProductRequest) (*model.Product, error) {
	var product model.Product
	if err := c.doJSON(ctx, request{method: http.MethodPost, path: "/products", body: req}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct replaces a product's fields.
func (c *Client) UpdateProduct(ctx context.Context, id int64, req model.ProductRequest) (*model.Product, error) {
	var product model.Product
	path := fmt.Sprintf("/products/%d", id)
	if err := c.doJSON(ctx, request{method: http.MethodPut, path: path, body: req}, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct deletes a product.
func (c *Client) DeleteProduct(ctx context.Context, id int64) error {
	return c.doJSON(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/products/%d", id)}, nil)
}

// Customers lists all customers.
func (c *Client) Customers(ctx context.Context) ([]model.Customer, error) {
	var customers []model.Customer
	if err := c.doJSON(ctx, request{method: http.MethodGet, path: "/customers"}, &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

// CreateCustomer creates a customer.
func (c *Client) CreateCustomer(ctx context.Context, req model.CustomerRequest) (*model.Customer, error) {
	var customer model.Customer
	if err := c.doJSON(ctx, request{method: http.MethodPost, path: "/customers", body: req}, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// DeleteCustomer deletes a customer.
func (c *Client) DeleteCustomer(ctx context.Context, id int64) error {
	return c.doJSON(ctx, request{method: http.MethodDelete, path: fmt.Sprintf("/customers/%d", id)}, nil)
}

// download streams a 2xx response body to w.
func (c *Client) download(ctx context.Context, path string, w io.Writer) error {
	resp, err := c.do(ctx, request{method: http.MethodGet, path: path})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("downloading %s: %w", path, err)
	}
	return nil
}
