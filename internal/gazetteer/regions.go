package gazetteer

// Region is an administrative region offered as filter vocabulary.
type Region struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// regions is a static reference list rather than a projection of the data
// file: the file carries name variants ("Quebec" vs "Québec") that would
// otherwise surface as duplicate filter options.
var regions = []Region{
	{Code: "AB", Name: "Alberta"},
	{Code: "BC", Name: "British Columbia"},
	{Code: "MB", Name: "Manitoba"},
	{Code: "NB", Name: "New Brunswick"},
	{Code: "NL", Name: "Newfoundland and Labrador"},
	{Code: "NS", Name: "Nova Scotia"},
	{Code: "NT", Name: "Northwest Territories"},
	{Code: "NU", Name: "Nunavut"},
	{Code: "ON", Name: "Ontario"},
	{Code: "PE", Name: "Prince Edward Island"},
	{Code: "QC", Name: "Quebec"},
	{Code: "SK", Name: "Saskatchewan"},
	{Code: "YT", Name: "Yukon"},
}

// AllRegions returns the ordered region reference list.
func AllRegions() []Region {
	out := make([]Region, len(regions))
	copy(out, regions)
	return out
}
