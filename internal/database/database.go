package database

import (
	"database/sql"
	"deedledger/server/internal/models"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

type Database struct {
	db *sql.DB
}

func NewDatabase(dbPath string) (*Database, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign keys
	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, err
	}

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	return d.db.Close()
}

// GetProperty returns the property with the given ID, or nil if no such
// record exists.
func (d *Database) GetProperty(id string) (*models.Property, error) {
	var p models.Property
	var createdAt int64
	var isActive int

	err := d.db.QueryRow(`
		SELECT id, title, description, location, price, owner, is_active, created_at
		FROM properties
		WHERE id = ?
	`, id).Scan(&p.ID, &p.Title, &p.Description, &p.Location, &p.Price, &p.Owner, &isActive, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query property: %w", err)
	}

	p.IsActive = isActive != 0
	p.CreatedAt = time.Unix(createdAt, 0).UTC()

	docs, err := d.getDocuments(p.ID)
	if err != nil {
		return nil, err
	}
	p.Documents = docs

	return &p, nil
}

// GetAllProperties returns every property in insertion order.
func (d *Database) GetAllProperties() ([]models.Property, error) {
	return d.queryProperties(`
		SELECT id, title, description, location, price, owner, is_active, created_at
		FROM properties
		ORDER BY rowid
	`)
}

// GetActiveProperties returns properties still listed for sale, in the
// same relative order as GetAllProperties.
func (d *Database) GetActiveProperties() ([]models.Property, error) {
	return d.queryProperties(`
		SELECT id, title, description, location, price, owner, is_active, created_at
		FROM properties
		WHERE is_active = 1
		ORDER BY rowid
	`)
}

func (d *Database) queryProperties(query string) ([]models.Property, error) {
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query properties: %w", err)
	}
	defer rows.Close()

	var properties []models.Property
	for rows.Next() {
		var p models.Property
		var createdAt int64
		var isActive int

		err := rows.Scan(&p.ID, &p.Title, &p.Description, &p.Location, &p.Price, &p.Owner, &isActive, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan property: %w", err)
		}

		p.IsActive = isActive != 0
		p.CreatedAt = time.Unix(createdAt, 0).UTC()
		properties = append(properties, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating properties: %w", err)
	}

	for i := range properties {
		docs, err := d.getDocuments(properties[i].ID)
		if err != nil {
			return nil, err
		}
		properties[i].Documents = docs
	}

	return properties, nil
}

func (d *Database) getDocuments(propertyID string) ([]string, error) {
	rows, err := d.db.Query(`
		SELECT reference FROM property_documents
		WHERE property_id = ?
		ORDER BY position
	`, propertyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer rows.Close()

	docs := []string{}
	for rows.Next() {
		var ref string
		if err := rows.Scan(&ref); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating documents: %w", err)
	}

	return docs, nil
}

// InsertProperty stores a new property together with its document
// references in a single transaction.
func (d *Database) InsertProperty(p *models.Property) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	isActive := 0
	if p.IsActive {
		isActive = 1
	}

	_, err = tx.Exec(`
		INSERT INTO properties (id, title, description, location, price, owner, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, p.ID, p.Title, p.Description, p.Location, p.Price, string(p.Owner), isActive, p.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert property: %w", err)
	}

	for i, ref := range p.Documents {
		_, err = tx.Exec(`
			INSERT INTO property_documents (property_id, position, reference)
			VALUES (?, ?, ?)
		`, p.ID, i, ref)
		if err != nil {
			return fmt.Errorf("failed to insert document: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// UpdateListing sets the price and active flag of a property. All other
// columns are untouched.
func (d *Database) UpdateListing(id string, price int64, isActive bool) error {
	active := 0
	if isActive {
		active = 1
	}

	result, err := d.db.Exec(`
		UPDATE properties SET price = ?, is_active = ? WHERE id = ?
	`, price, active, id)
	if err != nil {
		return fmt.Errorf("failed to update listing: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("property not found: %s", id)
	}

	return nil
}

// ExecutePurchase applies the full effect of a settled purchase in one
// transaction: the property changes owner and is delisted, and the
// settlement record is appended. Either both land or neither does.
func (d *Database) ExecutePurchase(propertyID string, newOwner models.Identity, rec *models.Settlement) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE properties SET owner = ?, is_active = 0 WHERE id = ?
	`, string(newOwner), propertyID)
	if err != nil {
		return fmt.Errorf("failed to transfer ownership: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("property not found: %s", propertyID)
	}

	_, err = tx.Exec(`
		INSERT INTO settlements (id, property_id, buyer, seller, value, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.PropertyID, string(rec.Buyer), string(rec.Seller), rec.Value, rec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetSettlement returns the settlement with the given ID, or nil if no
// such record exists.
func (d *Database) GetSettlement(id string) (*models.Settlement, error) {
	var rec models.Settlement
	var createdAt int64

	err := d.db.QueryRow(`
		SELECT id, property_id, buyer, seller, value, created_at
		FROM settlements
		WHERE id = ?
	`, id).Scan(&rec.ID, &rec.PropertyID, &rec.Buyer, &rec.Seller, &rec.Value, &createdAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query settlement: %w", err)
	}

	rec.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &rec, nil
}

// GetAllSettlements returns the full audit trail in insertion order.
func (d *Database) GetAllSettlements() ([]models.Settlement, error) {
	rows, err := d.db.Query(`
		SELECT id, property_id, buyer, seller, value, created_at
		FROM settlements
		ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer rows.Close()

	var settlements []models.Settlement
	for rows.Next() {
		var rec models.Settlement
		var createdAt int64

		if err := rows.Scan(&rec.ID, &rec.PropertyID, &rec.Buyer, &rec.Seller, &rec.Value, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}

		rec.CreatedAt = time.Unix(createdAt, 0).UTC()
		settlements = append(settlements, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating settlements: %w", err)
	}

	return settlements, nil
}
