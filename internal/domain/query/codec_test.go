package query

import (
	"net/url"
	"reflect"
	"testing"
)

func int64Ptr(v int64) *int64     { return &v }
func floatPtr(v float64) *float64 { return &v }

func TestRoundTrip_NonDefaultFields(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{
			name:  "text only",
			state: State{Text: "remington 870", Sort: SortRelevance, Page: 1},
		},
		{
			name: "everything",
			state: State{
				Text:          "bolt action",
				CategoryID:    3,
				Actions:       []string{"bolt", "lever"},
				Conditions:    []string{"new"},
				Manufacturers: []string{"Remington", "Tikka"},
				MinPrice:      int64Ptr(50000),
				MaxPrice:      int64Ptr(120000),
				LocationCode:  "K7L4V1",
				RadiusKm:      floatPtr(150),
				Sort:          SortClosest,
				Page:          3,
			},
		},
		{
			name:  "price range only",
			state: State{MinPrice: int64Ptr(0), MaxPrice: int64Ptr(9900), Sort: SortPriceAsc, Page: 1},
		},
		{
			name:  "geo without radius",
			state: State{LocationCode: "T2P", Sort: SortNewest, Page: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DecodeString(EncodeString(tt.state))
			want := tt.state.Normalize()
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestEncode_DefaultsOmitted(t *testing.T) {
	if got := EncodeString(DefaultState()); got != "" {
		t.Errorf("default state encoded to %q, want empty", got)
	}

	s := State{Sort: SortRelevance, Page: 1, Text: "glock"}
	values := Encode(s)
	for _, key := range []string{paramSort, paramPage, paramCategory, paramMinPrice} {
		if values.Has(key) {
			t.Errorf("default-valued %q should be omitted, got %q", key, values.Get(key))
		}
	}
}

func TestDecode_Liberal(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		check func(t *testing.T, s State)
	}{
		{
			name: "unknown keys ignored",
			raw:  "q=sako&utm_source=mail&session=abc",
			check: func(t *testing.T, s State) {
				if s.Text != "sako" {
					t.Errorf("Text = %q", s.Text)
				}
			},
		},
		{
			name: "unparseable numerics dropped",
			raw:  "min=cheap&max=12x&radius=far&cat=guns",
			check: func(t *testing.T, s State) {
				if s.MinPrice != nil || s.MaxPrice != nil || s.RadiusKm != nil || s.CategoryID != 0 {
					t.Errorf("expected dropped numerics, got %+v", s)
				}
			},
		},
		{
			name: "negative price dropped",
			raw:  "min=-5",
			check: func(t *testing.T, s State) {
				if s.MinPrice != nil {
					t.Errorf("MinPrice = %v, want nil", *s.MinPrice)
				}
			},
		},
		{
			name: "page clamped to one",
			raw:  "page=-2",
			check: func(t *testing.T, s State) {
				if s.Page != 1 {
					t.Errorf("Page = %d, want 1", s.Page)
				}
			},
		},
		{
			name: "repeated and comma-delimited multi values merge",
			raw:  "action=semi&action=bolt,lever&action=semi",
			check: func(t *testing.T, s State) {
				want := []string{"bolt", "lever", "semi"}
				if !reflect.DeepEqual(s.Actions, want) {
					t.Errorf("Actions = %v, want %v", s.Actions, want)
				}
			},
		},
		{
			name: "unknown sort falls back to relevance",
			raw:  "sort=cheapest_first",
			check: func(t *testing.T, s State) {
				if s.Sort != SortRelevance {
					t.Errorf("Sort = %q", s.Sort)
				}
			},
		},
		{
			name: "location code normalized",
			raw:  "loc=k7l 4v1",
			check: func(t *testing.T, s State) {
				if s.LocationCode != "K7L4V1" {
					t.Errorf("LocationCode = %q", s.LocationCode)
				}
			},
		},
		{
			name: "malformed query string yields defaults",
			raw:  "%zz=;;;",
			check: func(t *testing.T, s State) {
				if !s.IsDefault() {
					t.Errorf("expected default state, got %+v", s)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, DecodeString(tt.raw))
		})
	}
}

func TestDecode_NeverViolatesInvariants(t *testing.T) {
	inputs := []string{
		"page=0", "page=abc", "radius=-10", "radius=0", "cat=-1",
		"min=-1&max=-2", "sort=", "q=", "loc=++",
	}
	for _, raw := range inputs {
		s := DecodeString(raw)
		if s.Page < 1 {
			t.Errorf("%q: page %d < 1", raw, s.Page)
		}
		if s.RadiusKm != nil && *s.RadiusKm <= 0 {
			t.Errorf("%q: non-positive radius kept", raw)
		}
		if s.MinPrice != nil && *s.MinPrice < 0 {
			t.Errorf("%q: negative min price kept", raw)
		}
		if s.Sort == "" {
			t.Errorf("%q: empty sort", raw)
		}
	}
}

func TestEncode_CanonicalOrdering(t *testing.T) {
	a := State{Manufacturers: []string{"Tikka", "Bergara", "Tikka"}}
	b := State{Manufacturers: []string{"Bergara", "Tikka"}}
	if EncodeString(a) != EncodeString(b) {
		t.Errorf("equivalent states encode differently: %q vs %q", EncodeString(a), EncodeString(b))
	}

	values, err := url.ParseQuery(EncodeString(a))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := values.Get(paramMfr); got != "Bergara,Tikka" {
		t.Errorf("mfr = %q, want sorted comma-joined form", got)
	}
}
