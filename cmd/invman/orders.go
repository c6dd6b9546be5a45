package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/erazemk/invman/internal/model"
)

func runOrders(ctx context.Context, a *app, args []string) error {
	sub := "list"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "list":
		return ordersList(ctx, a, args)
	case "approve", "reject":
		return ordersReview(ctx, a, sub, args)
	case "report":
		return ordersReport(ctx, a, args)
	}
	return fmt.Errorf("unknown orders command: %s (want list, approve, reject or report)", sub)
}

func ordersList(ctx context.Context, a *app, args []string) error {
	fs := a.flags("orders list")
	status := fs.String("status", "", "pending, processing, completed or cancelled")
	if err := a.connect(fs, args); err != nil {
		return err
	}
	if *status != "" && !model.OrderStatus(*status).Valid() {
		return fmt.Errorf("invalid order status: %s", *status)
	}

	orders, err := a.client.Orders(ctx, model.OrderStatus(*status))
	if err != nil {
		return err
	}
	tw := a.table()
	fmt.Fprintln(tw, "ID\tTYPE\tSTATUS\tCUSTOMER\tITEMS\tTOTAL\tCREATED")
	for _, o := range orders {
		customer := o.CustomerName
		if customer == "" {
			customer = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			o.ID, o.Type, o.Status, customer, len(o.Items), o.Total.StringFixed(2), o.CreatedAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func ordersReview(ctx context.Context, a *app, action string, args []string) error {
	fs := a.flags("orders " + action)
	a.confirmFlag(fs)
	if err := a.connect(fs, args); err != nil {
		return err
	}
	id, err := argID(fs, "order")
	if err != nil {
		return err
	}

	ok, err := a.ask(fmt.Sprintf("%s order #%d?", map[string]string{"approve": "Approve", "reject": "Reject"}[action], id))
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("cancelled")
	}

	var o *model.Order
	if action == "approve" {
		o, err = a.client.ApproveOrder(ctx, id)
	} else {
		o, err = a.client.RejectOrder(ctx, id)
	}
	if err != nil {
		return err
	}
	a.catalog.InvalidateProducts()
	fmt.Fprintf(a.out, "Order #%d is now %s\n", o.ID, o.Status)
	return nil
}

func ordersReport(ctx context.Context, a *app, args []string) error {
	fs := a.flags("orders report")
	output := fs.String("o", "", "output file (default: order_<id>.xlsx)")
	if err := a.connect(fs, args); err != nil {
		return err
	}
	id, err := argID(fs, "order")
	if err != nil {
		return err
	}
	if *output == "" {
		*output = fmt.Sprintf("order_%d.xlsx", id)
	}
	return download(*output, func(f *os.File) error {
		return a.client.OrderReport(ctx, id, f)
	}, a)
}

// download writes a report to path, removing the file if fetching fails.
func download(path string, fetch func(*os.File) error, a *app) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fetch(f); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	fmt.Fprintf(a.out, "Saved %s\n", path)
	return nil
}
