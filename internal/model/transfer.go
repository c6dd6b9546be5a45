package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidTransition is returned when an action is not allowed from the current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransferStatus is the lifecycle state of a stock transfer.
type TransferStatus string

// Transfer statuses.
const (
	TransferPending    TransferStatus = "pending"
	TransferProcessing TransferStatus = "processing"
	TransferCompleted  TransferStatus = "completed"
	TransferCancelled  TransferStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s TransferStatus) Valid() bool {
	switch s {
	case TransferPending, TransferProcessing, TransferCompleted, TransferCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further action is possible.
func (s TransferStatus) Terminal() bool {
	return s == TransferCompleted || s == TransferCancelled
}

// TransferAction is a lifecycle action applied by a reviewer.
type TransferAction string

// Transfer actions.
const (
	ActionApprove  TransferAction = "approve"
	ActionComplete TransferAction = "complete"
	ActionCancel   TransferAction = "cancel"
)

// Allows reports whether action may be applied in status s.
func (s TransferStatus) Allows(action TransferAction) bool {
	_, err := s.Next(action)
	return err == nil
}

// Next returns the status reached by applying action to s.
func (s TransferStatus) Next(action TransferAction) (TransferStatus, error) {
	switch {
	case action == ActionApprove && s == TransferPending:
		return TransferProcessing, nil
	case action == ActionComplete && s == TransferProcessing:
		return TransferCompleted, nil
	case action == ActionCancel && (s == TransferPending || s == TransferProcessing):
		return TransferCancelled, nil
	}
	return s, fmt.Errorf("cannot %s transfer with status '%s': %w", action, s, ErrInvalidTransition)
}

// Transfer is a request to move a quantity of one product between two locators.
type Transfer struct {
	ID                  int64          `json:"id"`
	ProductID           int64          `json:"product_id"`
	SourceLocation      int64          `json:"source_location"`
	DestinationLocation int64          `json:"destination_location"`
	SourceCategory      *int64         `json:"source_category,omitempty"`
	DestinationCategory *int64         `json:"destination_category,omitempty"`
	Quantity            int            `json:"quantity"`
	Status              TransferStatus `json:"status"`
	Notes               string         `json:"notes,omitempty"`
	CreatedBy           *int64         `json:"created_by,omitempty"`
	CreatedAt           time.Time      `json:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at"`

	// Names captured at creation so lists render without joins.
	SourceProductName           string `json:"source_product_name,omitempty"`
	SourceSubInventoryName      string `json:"source_subinventory_name,omitempty"`
	SourceLocatorName           string `json:"source_locator_name,omitempty"`
	SourceCategoryName          string `json:"source_category_name,omitempty"`
	DestinationSubInventoryName string `json:"destination_subinventory_name,omitempty"`
	DestinationLocatorName      string `json:"destination_locator_name,omitempty"`
	DestinationCategoryName     string `json:"destination_category_name,omitempty"`
}

// SourcePath renders the source as "sub-inventory > locator".
func (t *Transfer) SourcePath() string {
	return locationPath(t.SourceSubInventoryName, t.SourceLocatorName)
}

// DestinationPath renders the destination as "sub-inventory > locator".
func (t *Transfer) DestinationPath() string {
	return locationPath(t.DestinationSubInventoryName, t.DestinationLocatorName)
}

func locationPath(subInventory, locator string) string {
	if locator == "" {
		locator = "Unknown"
	}
	if subInventory == "" {
		return locator
	}
	return subInventory + " > " + locator
}

// TransferRequest is the body of POST /stock-transfers.
type TransferRequest struct {
	ProductID           int64  `json:"product_id" validate:"required,gt=0"`
	SourceLocation      int64  `json:"source_location" validate:"required,gt=0"`
	DestinationLocation int64  `json:"destination_location" validate:"required,gt=0"`
	SourceCategory      *int64 `json:"source_category,omitempty" validate:"omitempty,gt=0"`
	DestinationCategory *int64 `json:"destination_category,omitempty" validate:"omitempty,gt=0"`
	Quantity            int    `json:"quantity" validate:"required,gt=0"`
	Notes               string `json:"notes,omitempty" validate:"max=2000"`
}

// TransferFilter narrows GET /stock-transfers.
type TransferFilter struct {
	Status    TransferStatus
	StartDate *time.Time
	EndDate   *time.Time
}
