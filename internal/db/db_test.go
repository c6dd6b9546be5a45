package db

import "testing"

func TestMigrateIdempotent(t *testing.T) {
	database := NewTestDB(t)

	if err := Migrate(database); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}

	var fk int
	if err := database.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("reading pragma: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}
}

func TestTransferLocationCheck(t *testing.T) {
	database := NewTestDB(t)

	stmts := []string{
		`INSERT INTO organizations (id, name) VALUES (1, 'Acme')`,
		`INSERT INTO sub_inventories (id, organization_id, name) VALUES (1, 1, 'Main')`,
		`INSERT INTO locators (id, sub_inventory_id, code) VALUES (1, 1, 'A-01')`,
		`INSERT INTO products (id, name, stock) VALUES (1, 'Bolt', 10)`,
	}
	for _, s := range stmts {
		if _, err := database.Exec(s); err != nil {
			t.Fatalf("%s: %v", s, err)
		}
	}

	_, err := database.Exec(`INSERT INTO stock_transfers (product_id, source_location, destination_location, quantity)
		VALUES (1, 1, 1, 2)`)
	if err == nil {
		t.Error("expected check constraint to reject same source and destination")
	}
}
