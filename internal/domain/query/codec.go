package query

import (
	"net/url"
	"strconv"
	"strings"
)

// URL parameter names. Short on purpose: these land in shareable links.
const (
	paramText     = "q"
	paramCategory = "cat"
	paramAction   = "action"
	paramCond     = "cond"
	paramMfr      = "mfr"
	paramMinPrice = "min"
	paramMaxPrice = "max"
	paramLocation = "loc"
	paramRadius   = "radius"
	paramSort     = "sort"
	paramPage     = "page"
)

// Decode parses URL query values into a normalized State. The decode is
// deliberately liberal: unknown keys are ignored, unparseable numbers are
// dropped, multi-value params accept both repeated keys and comma-delimited
// single values. It never fails.
func Decode(values url.Values) State {
	s := DefaultState()

	s.Text = values.Get(paramText)
	s.LocationCode = values.Get(paramLocation)
	s.Actions = splitMulti(values[paramAction])
	s.Conditions = splitMulti(values[paramCond])
	s.Manufacturers = splitMulti(values[paramMfr])
	s.Sort = ParseSort(values.Get(paramSort))

	if v, err := strconv.ParseInt(values.Get(paramCategory), 10, 64); err == nil && v > 0 {
		s.CategoryID = v
	}
	if v, err := strconv.ParseInt(values.Get(paramMinPrice), 10, 64); err == nil && v >= 0 {
		s.MinPrice = &v
	}
	if v, err := strconv.ParseInt(values.Get(paramMaxPrice), 10, 64); err == nil && v >= 0 {
		s.MaxPrice = &v
	}
	if v, err := strconv.ParseFloat(values.Get(paramRadius), 64); err == nil && v > 0 {
		s.RadiusKm = &v
	}
	if v, err := strconv.Atoi(values.Get(paramPage)); err == nil {
		s.Page = v
	}

	return s.Normalize()
}

// DecodeString parses a raw query string. Malformed escaping yields the
// default state rather than an error.
func DecodeString(raw string) State {
	values, err := url.ParseQuery(raw)
	if err != nil {
		return DefaultState()
	}
	return Decode(values)
}

// Encode serializes a State to URL values in canonical minimal form:
// default-valued fields are omitted, multi-value facets are comma-joined in
// sorted order. Decode(Encode(s)) == s.Normalize().
func Encode(s State) url.Values {
	s = s.Normalize()
	values := url.Values{}

	if s.Text != "" {
		values.Set(paramText, s.Text)
	}
	if s.CategoryID > 0 {
		values.Set(paramCategory, strconv.FormatInt(s.CategoryID, 10))
	}
	setMulti(values, paramAction, s.Actions)
	setMulti(values, paramCond, s.Conditions)
	setMulti(values, paramMfr, s.Manufacturers)
	if s.MinPrice != nil {
		values.Set(paramMinPrice, strconv.FormatInt(*s.MinPrice, 10))
	}
	if s.MaxPrice != nil {
		values.Set(paramMaxPrice, strconv.FormatInt(*s.MaxPrice, 10))
	}
	if s.LocationCode != "" {
		values.Set(paramLocation, s.LocationCode)
	}
	if s.RadiusKm != nil {
		values.Set(paramRadius, strconv.FormatFloat(*s.RadiusKm, 'f', -1, 64))
	}
	if s.Sort != SortRelevance {
		values.Set(paramSort, string(s.Sort))
	}
	if s.Page > 1 {
		values.Set(paramPage, strconv.Itoa(s.Page))
	}

	return values
}

// EncodeString returns the canonical query-string form of a State.
func EncodeString(s State) string {
	return Encode(s).Encode()
}

func splitMulti(raw []string) []string {
	var out []string
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func setMulti(values url.Values, key string, vals []string) {
	if len(vals) > 0 {
		values.Set(key, strings.Join(vals, ","))
	}
}
