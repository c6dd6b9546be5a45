package model

import "time"

// Organization is the root of the storage hierarchy.
type Organization struct {
	ID             int64          `json:"id"`
	Name           string         `json:"name"`
	LegalAddress   string         `json:"legal_address,omitempty"`
	GSTNumber      string         `json:"gst_number,omitempty"`
	VATNumber      string         `json:"vat_number,omitempty"`
	CIN            string         `json:"cin,omitempty"`
	PANNumber      string         `json:"pan_number,omitempty"`
	StartDate      string         `json:"start_date,omitempty"`
	HasAttachment  bool           `json:"has_attachment"`
	CreatedAt      time.Time      `json:"created_at"`
	SubInventories []SubInventory `json:"sub_inventories"`
}

// SubInventory groups locators inside an organization.
type SubInventory struct {
	ID             int64     `json:"id"`
	OrganizationID int64     `json:"organization_id"`
	Name           string    `json:"name"`
	Type           string    `json:"type,omitempty"`
	Locators       []Locator `json:"locators"`
}

// Locator is a physical storage location within a sub-inventory.
type Locator struct {
	ID             int64   `json:"id"`
	SubInventoryID int64   `json:"sub_inventory_id"`
	Code           string  `json:"code"`
	Description    string  `json:"description,omitempty"`
	Length         float64 `json:"length,omitempty"`
	Width          float64 `json:"width,omitempty"`
	Height         float64 `json:"height,omitempty"`
}

// SubInventory returns the sub-inventory with the given id, or nil.
func (o *Organization) SubInventory(id int64) *SubInventory {
	if o == nil {
		return nil
	}
	for i := range o.SubInventories {
		if o.SubInventories[i].ID == id {
			return &o.SubInventories[i]
		}
	}
	return nil
}

// FindLocator returns the locator with the given id along with its sub-inventory.
func (o *Organization) FindLocator(id int64) (*SubInventory, *Locator) {
	if o == nil {
		return nil, nil
	}
	for i := range o.SubInventories {
		si := &o.SubInventories[i]
		if l := si.Locator(id); l != nil {
			return si, l
		}
	}
	return nil, nil
}

// Locator returns the locator with the given id, or nil.
func (s *SubInventory) Locator(id int64) *Locator {
	for i := range s.Locators {
		if s.Locators[i].ID == id {
			return &s.Locators[i]
		}
	}
	return nil
}

// LocatorPath renders a locator as "sub-inventory > code".
func (o *Organization) LocatorPath(id int64) string {
	si, l := o.FindLocator(id)
	if l == nil {
		return "Unknown Location"
	}
	return si.Name + " > " + l.Code
}

// SubInventoryRequest is the body for creating or updating a sub-inventory.
type SubInventoryRequest struct {
	Name string `json:"name" validate:"required,max=200"`
	Type string `json:"type" validate:"max=100"`
}

// LocatorRequest is the body for creating or updating a locator.
type LocatorRequest struct {
	Code        string  `json:"code" validate:"required,max=100"`
	Description string  `json:"description" validate:"max=1000"`
	Length      float64 `json:"length" validate:"gte=0"`
	Width       float64 `json:"width" validate:"gte=0"`
	Height      float64 `json:"height" validate:"gte=0"`
}

// OrganizationRequest is the body of POST /organization.
type OrganizationRequest struct {
	Name           string                     `json:"name" validate:"required,max=200"`
	LegalAddress   string                     `json:"legal_address" validate:"max=500"`
	GSTNumber      string                     `json:"gst_number" validate:"max=50"`
	VATNumber      string                     `json:"vat_number" validate:"max=50"`
	CIN            string                     `json:"cin" validate:"max=50"`
	PANNumber      string                     `json:"pan_number" validate:"max=50"`
	StartDate      string                     `json:"start_date" validate:"omitempty,len=10"`
	SubInventories []SubInventoryWithLocators `json:"sub_inventories" validate:"dive"`
}

// SubInventoryWithLocators is a nested sub-inventory in an organization request.
type SubInventoryWithLocators struct {
	SubInventoryRequest
	Locators []LocatorRequest `json:"locators" validate:"dive"`
}
