// Package dashboard builds the role-specific summary shown after login.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/sync/errgroup"

	"github.com/erazemk/invman/internal/client"
	"github.com/erazemk/invman/internal/model"
	"github.com/erazemk/invman/internal/session"
)

// Source is the part of the client the dashboards read from.
type Source interface {
	Products(ctx context.Context, q client.ProductQuery) ([]model.Product, error)
	Categories(ctx context.Context) ([]model.Category, error)
	Users(ctx context.Context) ([]model.User, error)
	Orders(ctx context.Context, status model.OrderStatus) ([]model.Order, error)
	Transfers(ctx context.Context, q client.TransferQuery) ([]model.Transfer, error)
}

// AdminSummary counts everything in the system.
type AdminSummary struct {
	Products   int
	Categories int
	Users      int
	Orders     int
	Transfers  map[model.TransferStatus]int
}

// ManagerSummary lists the transfers waiting on a reviewer and the products
// running low.
type ManagerSummary struct {
	AwaitingApproval   []model.Transfer
	AwaitingCompletion []model.Transfer
	LowStock           []model.Product
	Threshold          int
}

// KeeperSummary lists stocked products and the keeper's open transfers.
type KeeperSummary struct {
	InStock []model.Product
	Units   int
	Pending []model.Transfer
}

// Dashboard is the summary for one user. Exactly one of the role summaries is set.
type Dashboard struct {
	User    session.User
	Admin   *AdminSummary
	Manager *ManagerSummary
	Keeper  *KeeperSummary
}

// Build loads the dashboard for user. threshold is the stock level below which
// products count as low; zero uses model.DefaultLowStockThreshold.
func Build(ctx context.Context, src Source, user session.User, threshold int) (*Dashboard, error) {
	if threshold <= 0 {
		threshold = model.DefaultLowStockThreshold
	}
	d := &Dashboard{User: user}

	var err error
	switch user.Privileges {
	case model.RoleAdmin:
		d.Admin, err = buildAdmin(ctx, src)
	case model.RoleInventoryManager:
		d.Manager, err = buildManager(ctx, src, threshold)
	case model.RoleStockKeeper:
		d.Keeper, err = buildKeeper(ctx, src)
	default:
		return nil, fmt.Errorf("no dashboard for privilege level %d", user.Privileges)
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func buildAdmin(ctx context.Context, src Source) (*AdminSummary, error) {
	var (
		products   []model.Product
		categories []model.Category
		users      []model.User
		orders     []model.Order
		transfers  []model.Transfer
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		products, err = src.Products(ctx, client.ProductQuery{})
		return wrap("products", err)
	})
	g.Go(func() (err error) {
		categories, err = src.Categories(ctx)
		return wrap("categories", err)
	})
	g.Go(func() (err error) {
		users, err = src.Users(ctx)
		return wrap("users", err)
	})
	g.Go(func() (err error) {
		orders, err = src.Orders(ctx, "")
		return wrap("orders", err)
	})
	g.Go(func() (err error) {
		transfers, err = src.Transfers(ctx, client.TransferQuery{})
		return wrap("transfers", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := &AdminSummary{
		Products:   len(products),
		Categories: len(categories),
		Users:      len(users),
		Orders:     len(orders),
		Transfers:  make(map[model.TransferStatus]int),
	}
	for _, t := range transfers {
		s.Transfers[t.Status]++
	}
	return s, nil
}

func buildManager(ctx context.Context, src Source, threshold int) (*ManagerSummary, error) {
	s := &ManagerSummary{Threshold: threshold}
	below := threshold - 1

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.AwaitingApproval, err = src.Transfers(ctx, client.TransferQuery{Status: model.TransferPending})
		return wrap("pending transfers", err)
	})
	g.Go(func() (err error) {
		s.AwaitingCompletion, err = src.Transfers(ctx, client.TransferQuery{Status: model.TransferProcessing})
		return wrap("processing transfers", err)
	})
	g.Go(func() (err error) {
		s.LowStock, err = src.Products(ctx, client.ProductQuery{MaxStock: &below})
		return wrap("low stock products", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

func buildKeeper(ctx context.Context, src Source) (*KeeperSummary, error) {
	s := &KeeperSummary{}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		s.InStock, err = src.Products(ctx, client.ProductQuery{InStock: true})
		return wrap("products", err)
	})
	g.Go(func() (err error) {
		s.Pending, err = src.Transfers(ctx, client.TransferQuery{Status: model.TransferPending})
		return wrap("pending transfers", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, p := range s.InStock {
		s.Units += p.Stock
	}
	return s, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("loading %s: %w", what, err)
	}
	return nil
}

// transferStatuses is the display order of the admin status breakdown.
var transferStatuses = []model.TransferStatus{
	model.TransferPending,
	model.TransferProcessing,
	model.TransferCompleted,
	model.TransferCancelled,
}

// Render writes the dashboard as aligned text.
func (d *Dashboard) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Signed in as %s (%s)\n\n", d.User.Username, d.User.Privileges)

	switch {
	case d.Admin != nil:
		s := d.Admin
		fmt.Fprintf(tw, "Products\t%d\n", s.Products)
		fmt.Fprintf(tw, "Categories\t%d\n", s.Categories)
		fmt.Fprintf(tw, "Users\t%d\n", s.Users)
		fmt.Fprintf(tw, "Orders\t%d\n", s.Orders)
		fmt.Fprintln(tw, "\nTransfers")
		for _, status := range transferStatuses {
			fmt.Fprintf(tw, "  %s\t%d\n", status, s.Transfers[status])
		}

	case d.Manager != nil:
		s := d.Manager
		fmt.Fprintf(tw, "Awaiting approval (%d)\n", len(s.AwaitingApproval))
		writeTransfers(tw, s.AwaitingApproval)
		fmt.Fprintf(tw, "\nAwaiting completion (%d)\n", len(s.AwaitingCompletion))
		writeTransfers(tw, s.AwaitingCompletion)
		fmt.Fprintf(tw, "\nLow stock, below %d (%d)\n", s.Threshold, len(s.LowStock))
		writeProducts(tw, s.LowStock)

	case d.Keeper != nil:
		s := d.Keeper
		fmt.Fprintf(tw, "In stock: %d products, %d units\n", len(s.InStock), s.Units)
		writeProducts(tw, s.InStock)
		fmt.Fprintf(tw, "\nPending transfers (%d)\n", len(s.Pending))
		writeTransfers(tw, s.Pending)
	}

	return tw.Flush()
}

func writeTransfers(w io.Writer, transfers []model.Transfer) {
	if len(transfers) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for _, t := range transfers {
		fmt.Fprintf(w, "  #%d\t%s\t%d\t%s\t-> %s\t%s\n",
			t.ID, t.SourceProductName, t.Quantity, t.SourcePath(), t.DestinationPath(), t.CreatedAt.Format("2006-01-02"))
	}
}

func writeProducts(w io.Writer, products []model.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for _, p := range products {
		category := "-"
		if p.Category != nil {
			category = p.Category.Name
		}
		fmt.Fprintf(w, "  %s\t%s\t%d\n", p.Name, category, p.Stock)
	}
}
