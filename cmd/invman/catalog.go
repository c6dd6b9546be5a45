package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/erazemk/invman/internal/catalog"
	"github.com/erazemk/invman/internal/client"
	"github.com/erazemk/invman/internal/model"
)

func runOrg(ctx context.Context, a *app, args []string) error {
	fs := a.flags("org")
	if err := a.connect(fs, args); err != nil {
		return err
	}
	org, err := a.catalog.Organization(ctx, false)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s (#%d)\n", org.Name, org.ID)
	if org.LegalAddress != "" {
		fmt.Fprintf(a.out, "  %s\n", org.LegalAddress)
	}
	tw := a.table()
	for _, si := range org.SubInventories {
		fmt.Fprintf(tw, "  %s\t#%d\t%s\n", si.Name, si.ID, si.Type)
		for _, l := range si.Locators {
			fmt.Fprintf(tw, "    %s\t#%d\t%s\n", l.Code, l.ID, l.Description)
		}
	}
	return tw.Flush()
}

func runCategories(ctx context.Context, a *app, args []string) error {
	fs := a.flags("categories")
	locator := fs.Int64("locator", 0, "only categories at this locator")
	if err := a.connect(fs, args); err != nil {
		return err
	}

	var (
		categories []model.Category
		err        error
	)
	if *locator > 0 {
		categories, err = a.catalog.CategoriesAt(ctx, *locator)
	} else {
		categories, err = a.catalog.Categories(ctx, false)
	}
	if err != nil {
		return err
	}

	org, err := a.catalog.Organization(ctx, false)
	if err != nil && !errors.Is(err, catalog.ErrNoOrganization) {
		return err
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tLOCATION")
	for _, c := range categories {
		where := "-"
		if c.LocatorID != nil {
			where = org.LocatorPath(*c.LocatorID)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", c.ID, c.Name, where)
	}
	return tw.Flush()
}

func runProducts(ctx context.Context, a *app, args []string) error {
	fs := a.flags("products")
	category := fs.Int64("category", 0, "only products in this category")
	inStock := fs.Bool("in-stock", false, "only products with stock")
	low := fs.Int("low", 0, "only products with stock below this level")
	if err := a.connect(fs, args); err != nil {
		return err
	}

	var (
		products []model.Product
		err      error
	)
	switch {
	case *low > 0:
		below := *low - 1
		products, err = a.client.Products(ctx, client.ProductQuery{CategoryID: *category, InStock: *inStock, MaxStock: &below})
	case *category > 0:
		products, err = a.catalog.ProductsByCategory(ctx, *category, *inStock)
	default:
		products, err = a.catalog.Products(ctx, false)
		if *inStock {
			products = withStock(products)
		}
	}
	if err != nil {
		return err
	}

	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tCATEGORY\tPRICE\tSTOCK")
	for _, p := range products {
		category := "-"
		if p.Category != nil {
			category = p.Category.Name
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", p.ID, p.Name, category, p.Price.StringFixed(2), p.Stock)
	}
	return tw.Flush()
}

func withStock(products []model.Product) []model.Product {
	var out []model.Product
	for _, p := range products {
		if p.Stock > 0 {
			out = append(out, p)
		}
	}
	return out
}

func runCustomers(ctx context.Context, a *app, args []string) error {
	fs := a.flags("customers")
	if err := a.connect(fs, args); err != nil {
		return err
	}
	customers, err := a.client.Customers(ctx)
	if err != nil {
		return err
	}
	tw := a.table()
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tCITY")
	for _, c := range customers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Phone, c.City)
	}
	return tw.Flush()
}
