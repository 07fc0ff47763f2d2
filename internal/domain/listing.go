package domain

import "time"

// Status is the lifecycle state of a canonical listing.
type Status string

const (
	// StatusDraft is a listing not yet published by its seller.
	StatusDraft Status = "draft"
	// StatusActive is a published, discoverable listing.
	StatusActive Status = "active"
	// StatusSold marks a completed sale.
	StatusSold Status = "sold"
	// StatusRemoved marks a listing withdrawn by the seller or a moderator.
	StatusRemoved Status = "removed"
)

// Listing is the canonical record owned by the relational store.
// The discovery pipeline only ever reads it; all mutation happens upstream.
type Listing struct {
	ID            int64
	Title         string
	Description   string
	Price         int64 // minor currency units, never negative
	CategoryID    int64
	SubcategoryID int64
	Manufacturer  string
	Model         string
	Condition     string
	Action        string
	Status        Status
	LocationCode  string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Eligible reports whether the listing qualifies for the search index.
// Draft, sold and removed listings must not be discoverable even while they
// still exist in the canonical store.
func (l *Listing) Eligible() bool {
	return l.Status == StatusActive
}
