package models

import "time"

// Identity is an opaque, comparable token for a market participant
// (owner, buyer or seller). The ledger assigns it no further structure.
type Identity string

// Property is a registry record for a single real-estate listing.
// ID and CreatedAt are immutable after creation; Owner and IsActive
// change only through an owner update or a settled purchase.
type Property struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Price       int64     `json:"price"`
	Owner       Identity  `json:"owner"`
	Documents   []string  `json:"documents"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
