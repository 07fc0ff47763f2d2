package index

import (
	"strconv"
	"strings"
	"time"

	"github.com/armorymarket/discovery/internal/domain"
)

// Indexed field names. The planner and the schema both reference these.
const (
	FieldID           = "id"
	FieldTitle        = "title"
	FieldDescription  = "description"
	FieldManufacturer = "manufacturer"
	FieldMfrText      = "manufacturer_text"
	FieldModel        = "model"
	FieldCondition    = "condition"
	FieldAction       = "action"
	FieldCategory     = "category"
	FieldSubcategory  = "subcategory"
	FieldPrice        = "price"
	FieldCreatedAt    = "created_at"
	FieldUpdatedAt    = "updated_at"
	FieldLocation     = "location"

	fieldCity   = "city"
	fieldRegion = "region"
)

// buildHashFields flattens a document for HSET. The location field is
// written only when coordinates resolved, so geo clauses can never
// spuriously match a coordinate-less document.
func buildHashFields(doc *domain.Document) map[string]string {
	m := map[string]string{
		FieldID:           strconv.FormatInt(doc.ID, 10),
		FieldTitle:        doc.Title,
		FieldDescription:  doc.Description,
		FieldManufacturer: doc.Manufacturer,
		FieldModel:        doc.Model,
		FieldCondition:    doc.Condition,
		FieldAction:       doc.Action,
		FieldCategory:     strconv.FormatInt(doc.CategoryID, 10),
		FieldSubcategory:  strconv.FormatInt(doc.SubcategoryID, 10),
		FieldPrice:        strconv.FormatInt(doc.Price, 10),
		FieldCreatedAt:    strconv.FormatInt(doc.CreatedAt.Unix(), 10),
		FieldUpdatedAt:    strconv.FormatInt(doc.UpdatedAt.Unix(), 10),
		fieldCity:         doc.City,
		fieldRegion:       doc.Region,
	}
	if c := doc.Coordinates; c != nil {
		m[FieldLocation] = formatPoint(c.Longitude, c.Latitude)
	}
	return m
}

// parseHashFields rebuilds a document from its flat hash form.
func parseHashFields(m map[string]string) domain.Document {
	doc := domain.Document{
		Title:        m[FieldTitle],
		Description:  m[FieldDescription],
		Manufacturer: m[FieldManufacturer],
		Model:        m[FieldModel],
		Condition:    m[FieldCondition],
		Action:       m[FieldAction],
		City:         m[fieldCity],
		Region:       m[fieldRegion],
	}
	doc.ID, _ = strconv.ParseInt(m[FieldID], 10, 64)
	doc.CategoryID, _ = strconv.ParseInt(m[FieldCategory], 10, 64)
	doc.SubcategoryID, _ = strconv.ParseInt(m[FieldSubcategory], 10, 64)
	doc.Price, _ = strconv.ParseInt(m[FieldPrice], 10, 64)

	if sec, err := strconv.ParseInt(m[FieldCreatedAt], 10, 64); err == nil {
		doc.CreatedAt = time.Unix(sec, 0).UTC()
	}
	if sec, err := strconv.ParseInt(m[FieldUpdatedAt], 10, 64); err == nil {
		doc.UpdatedAt = time.Unix(sec, 0).UTC()
	}
	if coords := parsePoint(m[FieldLocation]); coords != nil {
		doc.Coordinates = coords
	}
	return doc
}

// formatPoint renders "lon,lat", the engine's GEO field format.
func formatPoint(lon, lat float64) string {
	return strconv.FormatFloat(lon, 'f', -1, 64) + "," + strconv.FormatFloat(lat, 'f', -1, 64)
}

func parsePoint(s string) *domain.Coordinates {
	lonRaw, latRaw, ok := strings.Cut(s, ",")
	if !ok {
		return nil
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return nil
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil
	}
	return &domain.Coordinates{Latitude: lat, Longitude: lon}
}
