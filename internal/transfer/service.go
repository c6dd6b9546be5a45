package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/erazemk/invman/internal/client"
	"github.com/erazemk/invman/internal/model"
)

// ErrDeclined is returned when the user does not confirm an action.
var ErrDeclined = errors.New("action not confirmed")

// API is the part of the client the workflow uses.
type API interface {
	CreateTransfer(ctx context.Context, req model.TransferRequest) (*model.Transfer, error)
	TransferAction(ctx context.Context, id int64, action model.TransferAction) (*model.Transfer, error)
	Transfers(ctx context.Context, q client.TransferQuery) ([]model.Transfer, error)
}

// ProductCache is invalidated after stock moves.
type ProductCache interface {
	InvalidateProducts()
}

// Summary describes an action awaiting confirmation.
type Summary struct {
	Action   model.TransferAction
	Transfer *model.Transfer
}

func (s Summary) String() string {
	t := s.Transfer
	return fmt.Sprintf("%s transfer #%d: %d x %s from %s to %s?",
		verbs[s.Action], t.ID, t.Quantity, productName(t), t.SourcePath(), t.DestinationPath())
}

var verbs = map[model.TransferAction]string{
	model.ActionApprove:  "Approve",
	model.ActionComplete: "Complete",
	model.ActionCancel:   "Cancel",
}

func productName(t *model.Transfer) string {
	if t.SourceProductName != "" {
		return t.SourceProductName
	}
	return fmt.Sprintf("product %d", t.ProductID)
}

// Confirmer asks the user to confirm an action.
type Confirmer interface {
	Confirm(ctx context.Context, s Summary) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, s Summary) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, s Summary) (bool, error) {
	return f(ctx, s)
}

// AlwaysConfirm confirms every action.
var AlwaysConfirm = ConfirmFunc(func(context.Context, Summary) (bool, error) { return true, nil })

// Service submits transfer forms and applies reviewer actions.
type Service struct {
	API      API
	Products ProductCache
	Confirm  Confirmer
	// Refresh, when set, is called after every change so the transfer list
	// can reload in the background.
	Refresh func()
}

// Submit validates f and creates the transfer. Invalid forms fail without a
// request. On success product caches are invalidated, the list is refreshed
// and the form is reset.
func (s *Service) Submit(ctx context.Context, f *Form) (*model.Transfer, error) {
	req, err := f.Request()
	if err != nil {
		f.fail(err)
		return nil, err
	}

	f.outcome = StageSubmitting
	t, err := s.API.CreateTransfer(ctx, req)
	if err != nil {
		f.fail(err)
		return nil, err
	}

	slog.Info("transfer submitted", "transfer", t.ID, "product", t.SourceProductName, "quantity", t.Quantity)
	s.invalidateProducts()
	s.refresh()

	f.Reset()
	f.outcome = StageSucceeded
	f.last = t
	return t, nil
}

// Apply runs action on t after confirmation. Actions the current status does
// not allow are rejected without a request, as is a declined confirmation.
func (s *Service) Apply(ctx context.Context, t *model.Transfer, action model.TransferAction) (*model.Transfer, error) {
	if _, err := t.Status.Next(action); err != nil {
		return nil, err
	}

	confirm := s.Confirm
	if confirm == nil {
		confirm = AlwaysConfirm
	}
	ok, err := confirm.Confirm(ctx, Summary{Action: action, Transfer: t})
	if err != nil {
		return nil, fmt.Errorf("confirming %s: %w", action, err)
	}
	if !ok {
		return nil, ErrDeclined
	}

	updated, err := s.API.TransferAction(ctx, t.ID, action)
	if err != nil {
		return nil, err
	}

	slog.Info("transfer updated", "transfer", t.ID, "action", action, "status", updated.Status)
	if action == model.ActionComplete {
		s.invalidateProducts()
	}
	s.refresh()
	return updated, nil
}

// Approve moves a pending transfer to processing.
func (s *Service) Approve(ctx context.Context, t *model.Transfer) (*model.Transfer, error) {
	return s.Apply(ctx, t, model.ActionApprove)
}

// Complete finishes a processing transfer; the server moves the stock.
func (s *Service) Complete(ctx context.Context, t *model.Transfer) (*model.Transfer, error) {
	return s.Apply(ctx, t, model.ActionComplete)
}

// Cancel cancels a pending or processing transfer.
func (s *Service) Cancel(ctx context.Context, t *model.Transfer) (*model.Transfer, error) {
	return s.Apply(ctx, t, model.ActionCancel)
}

func (s *Service) invalidateProducts() {
	if s.Products != nil {
		s.Products.InvalidateProducts()
	}
}

func (s *Service) refresh() {
	if s.Refresh != nil {
		s.Refresh()
	}
}
