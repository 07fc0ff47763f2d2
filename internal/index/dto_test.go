package index

import (
	"reflect"
	"testing"
	"time"

	"github.com/armorymarket/discovery/internal/domain"
)

func testDocument() *domain.Document {
	return &domain.Document{
		ID:            42,
		Title:         "Remington 870 Wingmaster",
		Description:   "Well maintained pump shotgun",
		Manufacturer:  "Remington",
		Model:         "870",
		Condition:     "used",
		Action:        "pump",
		CategoryID:    2,
		SubcategoryID: 7,
		Price:         64900,
		City:          "Kingston",
		Region:        "Ontario",
		Coordinates:   &domain.Coordinates{Latitude: 44.2312, Longitude: -76.486},
		CreatedAt:     time.Unix(1700000000, 0).UTC(),
		UpdatedAt:     time.Unix(1700086400, 0).UTC(),
	}
}

func TestHashFieldsRoundTrip(t *testing.T) {
	want := testDocument()
	got := parseHashFields(buildHashFields(want))
	if !reflect.DeepEqual(got, *want) {
		t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, *want)
	}
}

func TestBuildHashFields_NoCoordinates(t *testing.T) {
	doc := testDocument()
	doc.Coordinates = nil

	fields := buildHashFields(doc)
	if _, ok := fields[FieldLocation]; ok {
		t.Error("location field must be absent for coordinate-less documents")
	}

	back := parseHashFields(fields)
	if back.Coordinates != nil {
		t.Errorf("Coordinates = %+v, want nil", back.Coordinates)
	}
}

func TestBuildHashFields_GeoFormat(t *testing.T) {
	fields := buildHashFields(testDocument())
	if got := fields[FieldLocation]; got != "-76.486,44.2312" {
		t.Errorf("location = %q, want lon,lat", got)
	}
}
