package model

import "time"

// Customer is a buyer referenced by sell orders.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	City      string    `json:"city,omitempty"`
	State     string    `json:"state,omitempty"`
	Pin       string    `json:"pin,omitempty"`
	GST       string    `json:"gst,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// CustomerRequest is the body for creating or updating a customer.
type CustomerRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"max=30"`
	Address string `json:"address" validate:"max=500"`
	City    string `json:"city" validate:"max=100"`
	State   string `json:"state" validate:"max=100"`
	Pin     string `json:"pin" validate:"max=12"`
	GST     string `json:"gst" validate:"max=50"`
}
