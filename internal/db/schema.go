package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    email         TEXT NOT NULL UNIQUE,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    privileges    INTEGER NOT NULL CHECK (privileges IN (1, 2, 3)),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS organizations (
    id              INTEGER PRIMARY KEY,
    name            TEXT NOT NULL,
    legal_address   TEXT NOT NULL DEFAULT '',
    gst_number      TEXT NOT NULL DEFAULT '',
    vat_number      TEXT NOT NULL DEFAULT '',
    cin             TEXT NOT NULL DEFAULT '',
    pan_number      TEXT NOT NULL DEFAULT '',
    start_date      TEXT NOT NULL DEFAULT '',
    attachment      BLOB,
    attachment_mime TEXT,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sub_inventories (
    id              INTEGER PRIMARY KEY,
    organization_id INTEGER NOT NULL REFERENCES organizations(id) ON DELETE CASCADE,
    name            TEXT NOT NULL,
    type            TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS locators (
    id               INTEGER PRIMARY KEY,
    sub_inventory_id INTEGER NOT NULL REFERENCES sub_inventories(id) ON DELETE CASCADE,
    code             TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    length           REAL NOT NULL DEFAULT 0,
    width            REAL NOT NULL DEFAULT 0,
    height           REAL NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS categories (
    id               INTEGER PRIMARY KEY,
    name             TEXT NOT NULL,
    description      TEXT NOT NULL DEFAULT '',
    locator_id       INTEGER REFERENCES locators(id) ON DELETE SET NULL,
    sub_inventory_id INTEGER REFERENCES sub_inventories(id) ON DELETE SET NULL,
    created_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at       DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS products (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    price       TEXT NOT NULL DEFAULT '0',
    stock       INTEGER NOT NULL DEFAULT 0 CHECK (stock >= 0),
    category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL,
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS stock_transfers (
    id                            INTEGER PRIMARY KEY,
    product_id                    INTEGER NOT NULL REFERENCES products(id),
    source_location               INTEGER NOT NULL REFERENCES locators(id),
    destination_location          INTEGER NOT NULL REFERENCES locators(id),
    source_category               INTEGER REFERENCES categories(id) ON DELETE SET NULL,
    destination_category          INTEGER REFERENCES categories(id) ON DELETE SET NULL,
    quantity                      INTEGER NOT NULL CHECK (quantity > 0),
    status                        TEXT NOT NULL DEFAULT 'pending'
                                  CHECK (status IN ('pending', 'processing', 'completed', 'cancelled')),
    notes                         TEXT NOT NULL DEFAULT '',
    created_by                    INTEGER REFERENCES users(id),
    created_at                    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at                    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    source_product_name           TEXT NOT NULL DEFAULT '',
    source_subinventory_name      TEXT NOT NULL DEFAULT '',
    source_locator_name           TEXT NOT NULL DEFAULT '',
    source_category_name          TEXT NOT NULL DEFAULT '',
    destination_subinventory_name TEXT NOT NULL DEFAULT '',
    destination_locator_name      TEXT NOT NULL DEFAULT '',
    destination_category_name     TEXT NOT NULL DEFAULT '',
    CHECK (source_location <> destination_location)
);

CREATE TABLE IF NOT EXISTS customers (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    email      TEXT NOT NULL UNIQUE,
    phone      TEXT NOT NULL DEFAULT '',
    address    TEXT NOT NULL DEFAULT '',
    city       TEXT NOT NULL DEFAULT '',
    state      TEXT NOT NULL DEFAULT '',
    pin        TEXT NOT NULL DEFAULT '',
    gst        TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS orders (
    id          INTEGER PRIMARY KEY,
    user_id     INTEGER NOT NULL REFERENCES users(id),
    customer_id INTEGER REFERENCES customers(id) ON DELETE SET NULL,
    type        TEXT NOT NULL CHECK (type IN ('sell', 'purchase')),
    status      TEXT NOT NULL DEFAULT 'pending'
                CHECK (status IN ('pending', 'processing', 'completed', 'cancelled')),
    total       TEXT NOT NULL DEFAULT '0',
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS order_items (
    id           INTEGER PRIMARY KEY,
    order_id     INTEGER NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
    product_id   INTEGER NOT NULL REFERENCES products(id),
    product_name TEXT NOT NULL DEFAULT '',
    quantity     INTEGER NOT NULL CHECK (quantity > 0),
    price        TEXT NOT NULL DEFAULT '0'
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
