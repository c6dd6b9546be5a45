// Package transfer drives the client side of the stock transfer workflow:
// the progressive transfer form, reviewer actions and the polled list.
package transfer

import (
	"errors"
	"fmt"

	"github.com/erazemk/invman/internal/model"
)

// Form validation errors.
var (
	ErrSameLocation    = errors.New("Source and destination locations cannot be the same location")
	ErrInvalidQuantity = errors.New("Quantity must be a positive whole number")
)

// MissingFieldError names a required field that has not been chosen.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "Please select " + e.Field
}

// StockError is returned when the quantity exceeds the stock last seen for the product.
type StockError struct {
	Product   string
	Requested int
	Available int
}

func (e *StockError) Error() string {
	return fmt.Sprintf("Insufficient stock for %s: requested %d, available %d", e.Product, e.Requested, e.Available)
}

// Stage is the step the form is waiting on.
type Stage int

// Form stages, in order.
const (
	StageSourceSubInventory Stage = iota
	StageSourceLocator
	StageProduct
	StageDestinationSubInventory
	StageDestinationLocator
	StageQuantity
	StageReady
	StageSubmitting
	StageSucceeded
	StageFailed
)

var stageNames = [...]string{
	"source sub-inventory",
	"source locator",
	"product",
	"destination sub-inventory",
	"destination locator",
	"quantity",
	"ready",
	"submitting",
	"succeeded",
	"failed",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("Stage(%d)", int(s))
	}
	return stageNames[s]
}

// Form holds the selections of a transfer being composed. Changing a
// selection clears every selection that depends on it. Zero ids are unset.
type Form struct {
	SourceSubInventory      int64
	SourceLocator           int64
	SourceCategory          int64
	ProductID               int64
	DestinationSubInventory int64
	DestinationLocator      int64
	DestinationCategory     int64
	Quantity                int
	Notes                   string

	productName  string
	productStock int
	// stockKnown is set by SetProduct. A ProductID assigned directly has no
	// stock figure and is left to the server to check.
	stockKnown bool

	// outcome is StageSubmitting, StageSucceeded or StageFailed, and zero
	// while the form is being edited.
	outcome Stage
	err     error
	last    *model.Transfer
}

// SetSourceSubInventory selects the source sub-inventory.
func (f *Form) SetSourceSubInventory(id int64) {
	if f.SourceSubInventory == id {
		return
	}
	f.touch()
	f.SourceSubInventory = id
	f.SourceLocator = 0
	f.SourceCategory = 0
	f.clearProduct()
}

// SetSourceLocator selects the source locator.
func (f *Form) SetSourceLocator(id int64) {
	if f.SourceLocator == id {
		return
	}
	f.touch()
	f.SourceLocator = id
	f.SourceCategory = 0
	f.clearProduct()
}

// SetSourceCategory selects the optional category the product is taken from.
func (f *Form) SetSourceCategory(id int64) {
	if f.SourceCategory == id {
		return
	}
	f.touch()
	f.SourceCategory = id
	f.clearProduct()
}

// SetProduct selects the product and remembers its stock for validation.
func (f *Form) SetProduct(p model.Product) {
	f.touch()
	f.ProductID = p.ID
	f.productName = p.Name
	f.productStock = p.Stock
	f.stockKnown = true
}

func (f *Form) clearProduct() {
	f.ProductID = 0
	f.productName = ""
	f.productStock = 0
	f.stockKnown = false
}

// SetDestinationSubInventory selects the destination sub-inventory.
func (f *Form) SetDestinationSubInventory(id int64) {
	if f.DestinationSubInventory == id {
		return
	}
	f.touch()
	f.DestinationSubInventory = id
	f.DestinationLocator = 0
	f.DestinationCategory = 0
}

// SetDestinationLocator selects the destination locator.
func (f *Form) SetDestinationLocator(id int64) {
	if f.DestinationLocator == id {
		return
	}
	f.touch()
	f.DestinationLocator = id
	f.DestinationCategory = 0
}

// SetDestinationCategory selects the optional destination category.
func (f *Form) SetDestinationCategory(id int64) {
	f.touch()
	f.DestinationCategory = id
}

// SetQuantity sets the quantity to move.
func (f *Form) SetQuantity(n int) {
	f.touch()
	f.Quantity = n
}

// touch returns a finished form to editing.
func (f *Form) touch() {
	if f.outcome != StageSubmitting {
		f.outcome = 0
		f.err = nil
	}
}

// Stage reports the first missing selection, or the submission state. A
// chosen locator satisfies its sub-inventory step. Categories are optional
// and have no stage.
func (f *Form) Stage() Stage {
	if f.outcome != 0 {
		return f.outcome
	}
	switch {
	case f.SourceSubInventory == 0 && f.SourceLocator == 0:
		return StageSourceSubInventory
	case f.SourceLocator == 0:
		return StageSourceLocator
	case f.ProductID == 0:
		return StageProduct
	case f.DestinationSubInventory == 0 && f.DestinationLocator == 0:
		return StageDestinationSubInventory
	case f.DestinationLocator == 0:
		return StageDestinationLocator
	case f.Quantity <= 0:
		return StageQuantity
	}
	return StageReady
}

func (f *Form) fail(err error) {
	f.outcome = StageFailed
	f.err = err
}

// Err returns the error of a failed submission.
func (f *Form) Err() error {
	return f.err
}

// Last returns the transfer created by the last successful submission.
func (f *Form) Last() *model.Transfer {
	return f.last
}

// ProductStock returns the stock last seen for the selected product.
func (f *Form) ProductStock() int {
	return f.productStock
}

// Validate checks the form without contacting the server. Identical source
// and destination locators are reported before anything else. Stock is
// checked against the figure captured when the product was selected; the
// server checks again on create and on completion.
func (f *Form) Validate() error {
	if f.SourceLocator != 0 && f.SourceLocator == f.DestinationLocator {
		return ErrSameLocation
	}
	required := []struct {
		set  bool
		name string
	}{
		{f.SourceLocator != 0, "a source locator"},
		{f.ProductID != 0, "a product"},
		{f.DestinationLocator != 0, "a destination locator"},
	}
	for _, r := range required {
		if !r.set {
			return &MissingFieldError{Field: r.name}
		}
	}
	if f.Quantity <= 0 {
		return ErrInvalidQuantity
	}
	if f.stockKnown && f.Quantity > f.productStock {
		return &StockError{Product: f.productName, Requested: f.Quantity, Available: f.productStock}
	}
	return nil
}

// Request builds the create request after validating the form.
func (f *Form) Request() (model.TransferRequest, error) {
	if err := f.Validate(); err != nil {
		return model.TransferRequest{}, err
	}
	req := model.TransferRequest{
		ProductID:           f.ProductID,
		SourceLocation:      f.SourceLocator,
		DestinationLocation: f.DestinationLocator,
		Quantity:            f.Quantity,
		Notes:               f.Notes,
	}
	if f.SourceCategory != 0 {
		id := f.SourceCategory
		req.SourceCategory = &id
	}
	if f.DestinationCategory != 0 {
		id := f.DestinationCategory
		req.DestinationCategory = &id
	}
	return req, nil
}

// Reset clears every selection.
func (f *Form) Reset() {
	*f = Form{}
}
