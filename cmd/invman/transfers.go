package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/erazemk/invman/internal/client"
	"github.com/erazemk/invman/internal/model"
	"github.com/erazemk/invman/internal/transfer"
)

func runTransfers(ctx context.Context, a *app, args []string) error {
	sub := "list"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		sub, args = args[0], args[1:]
	}
	switch sub {
	case "list":
		return transfersList(ctx, a, args)
	case "show":
		return transfersShow(ctx, a, args)
	case "new":
		return transfersNew(ctx, a, args)
	case "approve", "complete", "cancel":
		return transfersAction(ctx, a, model.TransferAction(sub), args)
	case "report":
		return transfersReport(ctx, a, args)
	case "watch":
		return transfersWatch(ctx, a, args)
	}
	return fmt.Errorf("unknown transfers command: %s (want list, show, new, approve, complete, cancel, report or watch)", sub)
}

// queryFlags registers the list filters on fs.
func queryFlags(fs *flag.FlagSet) func() (client.TransferQuery, error) {
	status := fs.String("status", "", "pending, processing, completed or cancelled")
	from := fs.String("from", "", "created on or after this date (YYYY-MM-DD)")
	to := fs.String("to", "", "created on or before this date (YYYY-MM-DD)")

	return func() (client.TransferQuery, error) {
		var q client.TransferQuery
		if *status != "" {
			q.Status = model.TransferStatus(*status)
			if !q.Status.Valid() {
				return q, fmt.Errorf("invalid transfer status: %s", *status)
			}
		}
		if *from != "" {
			d, err := time.Parse(time.DateOnly, *from)
			if err != nil {
				return q, fmt.Errorf("invalid -from date: %w", err)
			}
			q.StartDate = d
		}
		if *to != "" {
			d, err := time.Parse(time.DateOnly, *to)
			if err != nil {
				return q, fmt.Errorf("invalid -to date: %w", err)
			}
			q.EndDate = d.Add(24*time.Hour - time.Second)
		}
		if !q.StartDate.IsZero() && !q.EndDate.IsZero() && q.EndDate.Before(q.StartDate) {
			return q, errors.New("-to is before -from")
		}
		return q, nil
	}
}

func transfersList(ctx context.Context, a *app, args []string) error {
	fs := a.flags("transfers list")
	query := queryFlags(fs)
	if err := a.connect(fs, args); err != nil {
		return err
	}
	q, err := query()
	if err != nil {
		return err
	}
	transfers, err := a.client.Transfers(ctx, q)
	if err != nil {
		return err
	}
	return writeTransferTable(a.out, transfers)
}

func writeTransferTable(w io.Writer, transfers []model.Transfer) error {
	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRODUCT\tQTY\tFROM\tTO\tCREATED")
	for _, t := range transfers {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n",
			t.ID, t.Status, t.SourceProductName, t.Quantity, t.SourcePath(), t.DestinationPath(),
			t.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func transfersShow(ctx context.Context, a *app, args []string) error {
	fs := a.flags("transfers show")
	if err := a.connect(fs, args); err != nil {
		return err
	}
	id, err := argID(fs, "transfer")
	if err != nil {
		return err
	}
	t, err := a.client.Transfer(ctx, id)
	if err != nil {
		return err
	}

	tw := a.table()
	fmt.Fprintf(tw, "Transfer\t#%d\n", t.ID)
	fmt.Fprintf(tw, "Status\t%s\n", t.Status)
	fmt.Fprintf(tw, "Product\t%s (#%d)\n", t.SourceProductName, t.ProductID)
	fmt.Fprintf(tw, "Quantity\t%d\n", t.Quantity)
	fmt.Fprintf(tw, "From\t%s\n", t.SourcePath())
	if t.SourceCategoryName != "" {
		fmt.Fprintf(tw, "Source category\t%s\n", t.SourceCategoryName)
	}
	fmt.Fprintf(tw, "To\t%s\n", t.DestinationPath())
	if t.DestinationCategoryName != "" {
		fmt.Fprintf(tw, "Destination category\t%s\n", t.DestinationCategoryName)
	}
	if t.Notes != "" {
		fmt.Fprintf(tw, "Notes\t%s\n", t.Notes)
	}
	fmt.Fprintf(tw, "Created\t%s\n", t.CreatedAt.Local().Format(time.DateTime))
	fmt.Fprintf(tw, "Updated\t%s\n", t.UpdatedAt.Local().Format(time.DateTime))
	if next := nextActions(t.Status); next != "" {
		fmt.Fprintf(tw, "Actions\t%s\n", next)
	}
	return tw.Flush()
}

func nextActions(s model.TransferStatus) string {
	var out string
	for _, action := range []model.TransferAction{model.ActionApprove, model.ActionComplete, model.ActionCancel} {
		if s.Allows(action) {
			if out != "" {
				out += ", "
			}
			out += string(action)
		}
	}
	return out
}

func transfersAction(ctx context.Context, a *app, action model.TransferAction, args []string) error {
	fs := a.flags("transfers " + string(action))
	a.confirmFlag(fs)
	if err := a.connect(fs, args); err != nil {
		return err
	}
	id, err := argID(fs, "transfer")
	if err != nil {
		return err
	}

	t, err := a.client.Transfer(ctx, id)
	if err != nil {
		return err
	}
	svc := &transfer.Service{API: a.client, Products: a.catalog, Confirm: a}
	updated, err := svc.Apply(ctx, t, action)
	if errors.Is(err, transfer.ErrDeclined) {
		fmt.Fprintln(a.out, "Nothing changed")
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Transfer #%d is now %s\n", updated.ID, updated.Status)
	return nil
}

func transfersReport(ctx context.Context, a *app, args []string) error {
	fs := a.flags("transfers report")
	output := fs.String("o", "", "output file (default: stock_transfer_<id>.xlsx)")
	if err := a.connect(fs, args); err != nil {
		return err
	}
	id, err := argID(fs, "transfer")
	if err != nil {
		return err
	}
	if *output == "" {
		*output = fmt.Sprintf("stock_transfer_%d.xlsx", id)
	}
	return download(*output, func(f *os.File) error {
		return a.client.TransferReport(ctx, id, f)
	}, a)
}

func transfersWatch(ctx context.Context, a *app, args []string) error {
	fs := a.flags("transfers watch")
	query := queryFlags(fs)
	interval := fs.Duration("interval", a.cfg.PollInterval, "poll interval")
	if err := a.connect(fs, args); err != nil {
		return err
	}
	q, err := query()
	if err != nil {
		return err
	}

	var fatal error
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := &transfer.Poller{
		API:      a.client,
		Query:    q,
		Interval: *interval,
		OnUpdate: func(transfers []model.Transfer) {
			fmt.Fprintf(a.out, "\n%s  %d transfers\n", time.Now().Format(time.TimeOnly), len(transfers))
			writeTransferTable(a.out, transfers)
		},
		OnError: func(err error) {
			if errors.Is(err, client.ErrUnauthorized) {
				fatal = err
				cancel()
				return
			}
			fmt.Fprintf(a.out, "refresh failed: %v\n", err)
		},
	}

	err = p.Run(ctx)
	if fatal != nil {
		return fatal
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// transfersNew fills a transfer form from flags and prompts for whatever is
// still missing, one stage at a time.
func transfersNew(ctx context.Context, a *app, args []string) error {
	fs := a.flags("transfers new")
	srcSub := fs.Int64("from-sub", 0, "source sub-inventory id")
	srcLoc := fs.Int64("from", 0, "source locator id")
	srcCat := fs.Int64("category", 0, "source category id")
	productID := fs.Int64("product", 0, "product id")
	dstSub := fs.Int64("to-sub", 0, "destination sub-inventory id")
	dstLoc := fs.Int64("to", 0, "destination locator id")
	dstCat := fs.Int64("to-category", 0, "destination category id")
	qty := fs.Int("qty", 0, "quantity")
	notes := fs.String("notes", "", "notes")
	a.confirmFlag(fs)
	if err := a.connect(fs, args); err != nil {
		return err
	}

	org, err := a.catalog.Organization(ctx, false)
	if err != nil {
		return err
	}

	f := &transfer.Form{Notes: *notes}
	f.SetSourceSubInventory(*srcSub)
	f.SetSourceLocator(*srcLoc)
	f.SetSourceCategory(*srcCat)
	if *productID > 0 {
		p, err := a.catalog.Product(ctx, *productID)
		if err != nil {
			return err
		}
		f.SetProduct(*p)
	}
	f.SetDestinationSubInventory(*dstSub)
	f.SetDestinationLocator(*dstLoc)
	f.SetDestinationCategory(*dstCat)
	f.SetQuantity(*qty)

	askedDestCategory := *dstCat > 0
	for f.Stage() != transfer.StageReady {
		switch f.Stage() {
		case transfer.StageSourceSubInventory:
			id, err := a.choose("Source sub-inventory", subInventoryOptions(org))
			if err != nil {
				return err
			}
			f.SetSourceSubInventory(id)
		case transfer.StageSourceLocator:
			id, err := a.choose("Source locator", locatorOptions(org, f.SourceSubInventory))
			if err != nil {
				return err
			}
			f.SetSourceLocator(id)
		case transfer.StageProduct:
			if f.SourceCategory == 0 {
				categories, err := a.catalog.CategoriesAt(ctx, f.SourceLocator)
				if err != nil {
					return err
				}
				if len(categories) > 0 {
					id, err := a.chooseOptional("Source category", categoryOptions(categories))
					if err != nil {
						return err
					}
					f.SetSourceCategory(id)
				}
			}
			var products []model.Product
			if f.SourceCategory > 0 {
				products, err = a.catalog.ProductsByCategory(ctx, f.SourceCategory, true)
			} else {
				products, err = a.catalog.Products(ctx, false)
				products = withStock(products)
			}
			if err != nil {
				return err
			}
			opts := make([]option, len(products))
			for i, p := range products {
				opts[i] = option{p.ID, fmt.Sprintf("%s (stock %d)", p.Name, p.Stock)}
			}
			id, err := a.choose("Product", opts)
			if err != nil {
				return err
			}
			for _, p := range products {
				if p.ID == id {
					f.SetProduct(p)
				}
			}
		case transfer.StageDestinationSubInventory:
			id, err := a.choose("Destination sub-inventory", subInventoryOptions(org))
			if err != nil {
				return err
			}
			f.SetDestinationSubInventory(id)
		case transfer.StageDestinationLocator:
			id, err := a.choose("Destination locator", locatorOptions(org, f.DestinationSubInventory))
			if err != nil {
				return err
			}
			f.SetDestinationLocator(id)
		case transfer.StageQuantity:
			n, err := a.promptInt(fmt.Sprintf("Quantity (available %d): ", f.ProductStock()))
			if err != nil {
				return err
			}
			if n <= 0 {
				fmt.Fprintln(a.out, transfer.ErrInvalidQuantity)
				continue
			}
			f.SetQuantity(int(n))
		default:
			return fmt.Errorf("unexpected form stage: %s", f.Stage())
		}
	}

	if !askedDestCategory {
		categories, err := a.catalog.CategoriesAt(ctx, f.DestinationLocator)
		if err != nil {
			return err
		}
		if len(categories) > 0 {
			id, err := a.chooseOptional("Destination category", categoryOptions(categories))
			if err != nil {
				return err
			}
			f.SetDestinationCategory(id)
		}
	}

	if err := f.Validate(); err != nil {
		return err
	}
	ok, err := a.ask(fmt.Sprintf("Transfer %d from %s to %s?",
		f.Quantity, org.LocatorPath(f.SourceLocator), org.LocatorPath(f.DestinationLocator)))
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(a.out, "Nothing changed")
		return nil
	}

	svc := &transfer.Service{API: a.client, Products: a.catalog}
	t, err := svc.Submit(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created transfer #%d (%s)\n", t.ID, t.Status)
	return nil
}

type option struct {
	id    int64
	label string
}

func subInventoryOptions(org *model.Organization) []option {
	opts := make([]option, len(org.SubInventories))
	for i, si := range org.SubInventories {
		opts[i] = option{si.ID, si.Name}
	}
	return opts
}

func locatorOptions(org *model.Organization, subID int64) []option {
	si := org.SubInventory(subID)
	if si == nil {
		return nil
	}
	opts := make([]option, len(si.Locators))
	for i, l := range si.Locators {
		opts[i] = option{l.ID, l.Code}
	}
	return opts
}

func categoryOptions(categories []model.Category) []option {
	opts := make([]option, len(categories))
	for i, c := range categories {
		opts[i] = option{c.ID, c.Name}
	}
	return opts
}

// choose lists opts and reads an id until it names one of them.
func (a *app) choose(label string, opts []option) (int64, error) {
	if len(opts) == 0 {
		return 0, fmt.Errorf("no %s available", label)
	}
	a.listOptions(label, opts)
	for {
		id, err := a.promptInt(label + " id: ")
		if err != nil {
			return 0, err
		}
		if hasOption(opts, id) {
			return id, nil
		}
		fmt.Fprintf(a.out, "no %s with id %d\n", label, id)
	}
}

// chooseOptional is choose with an empty answer meaning none.
func (a *app) chooseOptional(label string, opts []option) (int64, error) {
	a.listOptions(label, opts)
	for {
		s, err := a.prompt(label + " id (blank for none): ")
		if err != nil {
			return 0, err
		}
		if s == "" {
			return 0, nil
		}
		id, err := strconv.ParseInt(s, 10, 64)
		if err == nil && hasOption(opts, id) {
			return id, nil
		}
		fmt.Fprintf(a.out, "no %s with id %s\n", label, s)
	}
}

func (a *app) listOptions(label string, opts []option) {
	tw := a.table()
	fmt.Fprintf(tw, "%s:\n", label)
	for _, o := range opts {
		fmt.Fprintf(tw, "  %d\t%s\n", o.id, o.label)
	}
	tw.Flush()
}

func hasOption(opts []option, id int64) bool {
	for _, o := range opts {
		if o.id == id {
			return true
		}
	}
	return false
}
