package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// IMPORTANT: The orders table must be created BEFORE expenses and photos
// due to the foreign key constraints.
const schema = `
CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    client TEXT NOT NULL,
    status TEXT NOT NULL,
    amount INTEGER NOT NULL,
    date TEXT NOT NULL,
    income INTEGER,
    notes TEXT
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    order_id TEXT NOT NULL,
    title TEXT NOT NULL,
    category TEXT NOT NULL,
    amount INTEGER NOT NULL,
    date TEXT NOT NULL,
    notes TEXT,
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS photos (
    id TEXT PRIMARY KEY,
    order_id TEXT NOT NULL,
    file_path TEXT NOT NULL,
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_expenses_order_id ON expenses(order_id);
CREATE INDEX IF NOT EXISTS idx_photos_order_id ON photos(order_id);
CREATE INDEX IF NOT EXISTS idx_orders_date ON orders(date);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
