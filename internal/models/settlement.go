package models

import "time"

// Settlement is the audit record of a completed purchase. Records are
// append-only: once written they are never updated or deleted.
type Settlement struct {
	ID         string    `json:"settlement_id"`
	PropertyID string    `json:"property_id"`
	Buyer      Identity  `json:"buyer"`
	Seller     Identity  `json:"seller"`
	Value      int64     `json:"value"`
	CreatedAt  time.Time `json:"created_at"`
}
