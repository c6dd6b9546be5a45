package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/invman/internal/model"
)

const orgColumns = `id, name, legal_address, gst_number, vat_number, cin, pan_number, start_date,
	attachment IS NOT NULL, created_at`

// CreateOrganization creates an organization with its nested sub-inventories and locators.
func CreateOrganization(ctx context.Context, db *sql.DB, req model.OrganizationRequest) (*model.Organization, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO organizations (name, legal_address, gst_number, vat_number, cin, pan_number, start_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		req.Name, req.LegalAddress, req.GSTNumber, req.VATNumber, req.CIN, req.PANNumber, req.StartDate,
	)
	if err != nil {
		return nil, fmt.Errorf("creating organization: %w", err)
	}
	orgID, _ := result.LastInsertId()

	for _, si := range req.SubInventories {
		sub, err := insertSubInventory(ctx, tx, orgID, si.SubInventoryRequest)
		if err != nil {
			return nil, err
		}
		for _, l := range si.Locators {
			if _, err := insertLocator(ctx, tx, sub.ID, l); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing organization: %w", err)
	}

	return GetOrganization(ctx, db, orgID)
}

// GetOrganization returns an organization with its sub-inventories and locators.
func GetOrganization(ctx context.Context, db *sql.DB, id int64) (*model.Organization, error) {
	o := &model.Organization{}
	err := db.QueryRowContext(ctx,
		`SELECT `+orgColumns+` FROM organizations WHERE id = ?`, id,
	).Scan(&o.ID, &o.Name, &o.LegalAddress, &o.GSTNumber, &o.VATNumber, &o.CIN, &o.PANNumber,
		&o.StartDate, &o.HasAttachment, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting organization: %w", err)
	}

	if err := loadHierarchy(ctx, db, o); err != nil {
		return nil, err
	}
	return o, nil
}

// ListOrganizations returns all organizations with their hierarchy, oldest first.
func ListOrganizations(ctx context.Context, db *sql.DB) ([]model.Organization, error) {
	rows, err := db.QueryContext(ctx, `SELECT `+orgColumns+` FROM organizations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}

	var orgs []model.Organization
	for rows.Next() {
		var o model.Organization
		if err := rows.Scan(&o.ID, &o.Name, &o.LegalAddress, &o.GSTNumber, &o.VATNumber, &o.CIN,
			&o.PANNumber, &o.StartDate, &o.HasAttachment, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning organization: %w", err)
		}
		orgs = append(orgs, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing organizations: %w", err)
	}

	// Rows must be closed before loading children: the pool holds a single connection.
	for i := range orgs {
		if err := loadHierarchy(ctx, db, &orgs[i]); err != nil {
			return nil, err
		}
	}
	return orgs, nil
}

func loadHierarchy(ctx context.Context, q querier, o *model.Organization) error {
	rows, err := q.QueryContext(ctx,
		`SELECT id, organization_id, name, type FROM sub_inventories WHERE organization_id = ? ORDER BY id`, o.ID,
	)
	if err != nil {
		return fmt.Errorf("listing sub-inventories: %w", err)
	}
	o.SubInventories = []model.SubInventory{}
	index := map[int64]int{}
	for rows.Next() {
		si := model.SubInventory{Locators: []model.Locator{}}
		if err := rows.Scan(&si.ID, &si.OrganizationID, &si.Name, &si.Type); err != nil {
			rows.Close()
			return fmt.Errorf("scanning sub-inventory: %w", err)
		}
		index[si.ID] = len(o.SubInventories)
		o.SubInventories = append(o.SubInventories, si)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("listing sub-inventories: %w", err)
	}

	rows, err = q.QueryContext(ctx,
		`SELECT l.id, l.sub_inventory_id, l.code, l.description, l.length, l.width, l.height
		 FROM locators l
		 JOIN sub_inventories s ON s.id = l.sub_inventory_id
		 WHERE s.organization_id = ?
		 ORDER BY l.id`, o.ID,
	)
	if err != nil {
		return fmt.Errorf("listing locators: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		l, err := scanLocator(rows)
		if err != nil {
			return fmt.Errorf("scanning locator: %w", err)
		}
		if i, ok := index[l.SubInventoryID]; ok {
			o.SubInventories[i].Locators = append(o.SubInventories[i].Locators, *l)
		}
	}
	return rows.Err()
}

func scanLocator(row interface{ Scan(...any) error }) (*model.Locator, error) {
	l := &model.Locator{}
	if err := row.Scan(&l.ID, &l.SubInventoryID, &l.Code, &l.Description, &l.Length, &l.Width, &l.Height); err != nil {
		return nil, err
	}
	return l, nil
}

func insertSubInventory(ctx context.Context, q querier, orgID int64, req model.SubInventoryRequest) (*model.SubInventory, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO sub_inventories (organization_id, name, type) VALUES (?, ?, ?)`,
		orgID, req.Name, req.Type,
	)
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("creating sub-inventory: organization %d: %w", orgID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("creating sub-inventory: %w", err)
	}
	id, _ := result.LastInsertId()
	return &model.SubInventory{ID: id, OrganizationID: orgID, Name: req.Name, Type: req.Type, Locators: []model.Locator{}}, nil
}

func insertLocator(ctx context.Context, q querier, subID int64, req model.LocatorRequest) (*model.Locator, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO locators (sub_inventory_id, code, description, length, width, height) VALUES (?, ?, ?, ?, ?, ?)`,
		subID, req.Code, req.Description, req.Length, req.Width, req.Height,
	)
	if isForeignKeyViolation(err) {
		return nil, fmt.Errorf("creating locator: sub-inventory %d: %w", subID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("creating locator: %w", err)
	}
	id, _ := result.LastInsertId()
	return &model.Locator{
		ID: id, SubInventoryID: subID, Code: req.Code, Description: req.Description,
		Length: req.Length, Width: req.Width, Height: req.Height,
	}, nil
}

// CreateSubInventory adds a sub-inventory to an organization.
func CreateSubInventory(ctx context.Context, db *sql.DB, orgID int64, req model.SubInventoryRequest) (*model.SubInventory, error) {
	return insertSubInventory(ctx, db, orgID, req)
}

// UpdateSubInventory renames or retypes a sub-inventory of an organization.
func UpdateSubInventory(ctx context.Context, db *sql.DB, orgID, id int64, req model.SubInventoryRequest) error {
	res, err := db.ExecContext(ctx,
		`UPDATE sub_inventories SET name = ?, type = ? WHERE id = ? AND organization_id = ?`,
		req.Name, req.Type, id, orgID,
	)
	if err != nil {
		return fmt.Errorf("updating sub-inventory: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("updating sub-inventory %d: %w", id, err)
	}
	return nil
}

// DeleteSubInventory removes a sub-inventory and its locators.
func DeleteSubInventory(ctx context.Context, db *sql.DB, orgID, id int64) error {
	res, err := db.ExecContext(ctx,
		`DELETE FROM sub_inventories WHERE id = ? AND organization_id = ?`, id, orgID,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("deleting sub-inventory %d: %w", id, ErrInUse)
	}
	if err != nil {
		return fmt.Errorf("deleting sub-inventory: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("deleting sub-inventory %d: %w", id, err)
	}
	return nil
}

// subInventoryInOrg checks that a sub-inventory belongs to an organization.
func subInventoryInOrg(ctx context.Context, q querier, orgID, subID int64) error {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sub_inventories WHERE id = ? AND organization_id = ?`, subID, orgID,
	).Scan(&n)
	if err != nil {
		return fmt.Errorf("checking sub-inventory: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("sub-inventory %d in organization %d: %w", subID, orgID, ErrNotFound)
	}
	return nil
}

// CreateLocator adds a locator to a sub-inventory of an organization.
func CreateLocator(ctx context.Context, db *sql.DB, orgID, subID int64, req model.LocatorRequest) (*model.Locator, error) {
	if err := subInventoryInOrg(ctx, db, orgID, subID); err != nil {
		return nil, err
	}
	return insertLocator(ctx, db, subID, req)
}

// UpdateLocator updates a locator of a sub-inventory.
func UpdateLocator(ctx context.Context, db *sql.DB, orgID, subID, id int64, req model.LocatorRequest) error {
	if err := subInventoryInOrg(ctx, db, orgID, subID); err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		`UPDATE locators SET code = ?, description = ?, length = ?, width = ?, height = ?
		 WHERE id = ? AND sub_inventory_id = ?`,
		req.Code, req.Description, req.Length, req.Width, req.Height, id, subID,
	)
	if err != nil {
		return fmt.Errorf("updating locator: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("updating locator %d: %w", id, err)
	}
	return nil
}

// DeleteLocator removes a locator. Locators referenced by transfers cannot be removed.
func DeleteLocator(ctx context.Context, db *sql.DB, orgID, subID, id int64) error {
	if err := subInventoryInOrg(ctx, db, orgID, subID); err != nil {
		return err
	}
	res, err := db.ExecContext(ctx,
		`DELETE FROM locators WHERE id = ? AND sub_inventory_id = ?`, id, subID,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("deleting locator %d: %w", id, ErrInUse)
	}
	if err != nil {
		return fmt.Errorf("deleting locator: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("deleting locator %d: %w", id, err)
	}
	return nil
}

// locatorNames returns the sub-inventory name and code of a locator.
func locatorNames(ctx context.Context, q querier, locatorID int64) (subName, code string, err error) {
	err = q.QueryRowContext(ctx,
		`SELECT s.name, l.code FROM locators l JOIN sub_inventories s ON s.id = l.sub_inventory_id WHERE l.id = ?`,
		locatorID,
	).Scan(&subName, &code)
	if err == sql.ErrNoRows {
		return "", "", fmt.Errorf("locator %d: %w", locatorID, ErrInvalidReference)
	}
	if err != nil {
		return "", "", fmt.Errorf("getting locator: %w", err)
	}
	return subName, code, nil
}

// SetOrganizationAttachment stores an attachment image on an organization.
func SetOrganizationAttachment(ctx context.Context, db *sql.DB, id int64, data []byte, mime string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE organizations SET attachment = ?, attachment_mime = ? WHERE id = ?`,
		data, mime, id,
	)
	if err != nil {
		return fmt.Errorf("storing organization attachment: %w", err)
	}
	if err := affectedOrNotFound(res); err != nil {
		return fmt.Errorf("storing organization attachment: %w", err)
	}
	return nil
}

// GetOrganizationAttachment returns the attachment of an organization, or nil data if none.
func GetOrganizationAttachment(ctx context.Context, db *sql.DB, id int64) ([]byte, string, error) {
	var data []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT attachment, attachment_mime FROM organizations WHERE id = ?`, id,
	).Scan(&data, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting organization attachment: %w", err)
	}
	return data, mime.String, nil
}
