package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/invman/internal/model"
)

const customerColumns = `id, name, email, phone, address, city, state, pin, gst, created_at`

func scanCustomer(row interface{ Scan(...any) error }) (*model.Customer, error) {
	c := &model.Customer{}
	if err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.City, &c.State, &c.Pin, &c.GST, &c.CreatedAt); err != nil {
		return nil, err
	}
	return c, nil
}

// CreateCustomer creates a customer. Emails are unique.
func CreateCustomer(ctx context.Context, db *sql.DB, req model.CustomerRequest) (*model.Customer, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO customers (name, email, phone, address, city, state, pin, gst) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		req.Name, strings.ToLower(req.Email), req.Phone, req.Address, req.City, req.State, req.Pin, req.GST,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("creating customer %s: %w", req.Email, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("creating customer: %w", err)
	}
	id, _ := result.LastInsertId()
	return GetCustomer(ctx, db, id)
}

// GetCustomer returns a customer by ID.
func GetCustomer(ctx context.Context, db *sql.DB, id int64) (*model.Customer, error) {
	c, err := scanCustomer(db.QueryRowContext(ctx, `SELECT `+customerColumns+` FROM customers WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting customer: %w", err)
	}
	return c, nil
}

// ListCustomers returns all customers ordered by name.
func ListCustomers(ctx context.Context, db *sql.DB) ([]model.Customer, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+customerColumns+` FROM customers ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	var customers []model.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning customer: %w", err)
		}
		customers = append(customers, *c)
	}
	return customers, rows.Err()
}

// UpdateCustomer replaces a customer's fields.
func UpdateCustomer(ctx context.Context, db *sql.DB, id int64, req model.CustomerRequest) (*model.Customer, error) {
	res, err := db.ExecContext(ctx,
		`UPDATE customers SET name = ?, email = ?, phone = ?, address = ?, city = ?, state = ?, pin = ?, gst = ?
		 WHERE id = ?`,
		req.Name, strings.ToLower(req.Email), req.Phone, req.Address, req.City, req.State, req.Pin, req.GST, id,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("updating customer %d: %w", id, ErrDuplicate)
	}
	if err != nil {
		return nil, fmt.Errorf("updating customer: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return nil, fmt.Errorf("updating customer %d: %w", id, err)
	}
	return GetCustomer(ctx, db, id)
}

// DeleteCustomer deletes a customer. Their orders keep the recorded name.
func DeleteCustomer(ctx context.Context, db *sql.DB, id int64) error {
	res, err := db.ExecContext(ctx, `DELETE FROM customers WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting customer: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("deleting customer %d: %w", id, err)
	}
	return nil
}
