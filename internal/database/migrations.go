package database

import "fmt"

func (d *Database) RunMigrations() error {
	_, err := d.db.Exec(`
		CREATE TABLE IF NOT EXISTS properties (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			location TEXT NOT NULL DEFAULT '',
			price INTEGER NOT NULL CHECK (price >= 0),
			owner TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			created_at INTEGER NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create properties table: %w", err)
	}

	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS property_documents (
			property_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			reference TEXT NOT NULL,
			PRIMARY KEY (property_id, position),
			FOREIGN KEY (property_id) REFERENCES properties(id) ON DELETE CASCADE
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create property_documents table: %w", err)
	}

	_, err = d.db.Exec(`
		CREATE TABLE IF NOT EXISTS settlements (
			id TEXT PRIMARY KEY,
			property_id TEXT NOT NULL,
			buyer TEXT NOT NULL,
			seller TEXT NOT NULL,
			value INTEGER NOT NULL,
			created_at INTEGER NOT NULL,
			FOREIGN KEY (property_id) REFERENCES properties(id)
		);
	`)
	if err != nil {
		return fmt.Errorf("failed to create settlements table: %w", err)
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_properties_active
		ON properties(is_active);
	`)
	if err != nil {
		return err
	}

	_, err = d.db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_settlements_property_id
		ON settlements(property_id);
	`)
	if err != nil {
		return err
	}

	return nil
}
