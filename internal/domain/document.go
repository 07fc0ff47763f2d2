package domain

import "time"

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Document is the denormalized index projection of a Listing.
// Coordinates and the display location are resolved from the seller's
// location code at index time; both may be absent when the code does not
// resolve, in which case the document simply never matches a radius filter
// and sorts last on distance.
type Document struct {
	ID            int64
	Title         string
	Description   string
	Manufacturer  string
	Model         string
	Condition     string
	Action        string
	CategoryID    int64
	SubcategoryID int64
	Price         int64
	City          string
	Region        string
	Coordinates   *Coordinates
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewDocument projects a canonical listing into its index document.
// coords, city and region come from the gazetteer; any of them may be zero
// when the seller's location code is unknown.
func NewDocument(l *Listing, coords *Coordinates, city, region string) *Document {
	return &Document{
		ID:            l.ID,
		Title:         l.Title,
		Description:   l.Description,
		Manufacturer:  l.Manufacturer,
		Model:         l.Model,
		Condition:     l.Condition,
		Action:        l.Action,
		CategoryID:    l.CategoryID,
		SubcategoryID: l.SubcategoryID,
		Price:         l.Price,
		City:          city,
		Region:        region,
		Coordinates:   coords,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}
}
