// Package gazetteer resolves postal/location codes to coordinates and
// administrative regions. The table is loaded once at process start and is
// immutable afterwards, so concurrent reads need no locking.
package gazetteer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/armorymarket/discovery/internal/domain"
)

// prefixLen is the coarse lookup granularity: the forward sortation area of
// a Canadian postal code.
const prefixLen = 3

// minColumns is the narrowest row the tab-delimited source may have:
// country, code, city, region, region code, four reserved columns, then
// latitude and longitude.
const minColumns = 11

const (
	colCode      = 1
	colCity      = 2
	colRegion    = 3
	colRegionKey = 4
	colLatitude  = 9
	colLongitude = 10
)

// DataLoadError means the gazetteer source was unreadable or yielded no
// usable rows. Fatal at startup.
type DataLoadError struct {
	Source string
	Err    error
}

func (e *DataLoadError) Error() string {
	return fmt.Sprintf("gazetteer load %s: %v", e.Source, e.Err)
}

func (e *DataLoadError) Unwrap() error { return e.Err }

// Entry is one resolved location.
type Entry struct {
	LocationCode string
	City         string
	Region       string
	RegionCode   string
	Coordinates  *domain.Coordinates // nil when the source row had no usable lat/lon
}

// Index is the read-only lookup table over the loaded entries.
type Index struct {
	exact  map[string]Entry
	prefix map[string]Entry
	count  int
}

// Load parses the tab-delimited location table from r. Rows with fewer than
// 11 columns or without a code are skipped; a source that yields no entries
// at all fails with DataLoadError. Every full code also registers its
// 3-character prefix, first-seen entry winning, so prefix fallback returns
// an approximate centroid rather than an exact one.
func Load(r io.Reader) (*Index, error) {
	idx := &Index{
		exact:  make(map[string]Entry),
		prefix: make(map[string]Entry),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		cols := strings.Split(scanner.Text(), "\t")
		if len(cols) < minColumns {
			continue
		}

		code := Normalize(cols[colCode])
		city := strings.TrimSpace(cols[colCity])
		if code == "" || city == "" {
			continue
		}

		entry := Entry{
			LocationCode: code,
			City:         city,
			Region:       strings.TrimSpace(cols[colRegion]),
			RegionCode:   strings.TrimSpace(cols[colRegionKey]),
			Coordinates:  parseCoordinates(cols[colLatitude], cols[colLongitude]),
		}

		if _, dup := idx.exact[code]; !dup {
			idx.exact[code] = entry
			idx.count++
		}
		if len(code) >= prefixLen {
			p := code[:prefixLen]
			if _, dup := idx.prefix[p]; !dup {
				idx.prefix[p] = entry
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, &DataLoadError{Source: "reader", Err: err}
	}
	if idx.count == 0 {
		return nil, &DataLoadError{Source: "reader", Err: fmt.Errorf("no usable rows")}
	}

	return idx, nil
}

// LoadFile loads the gazetteer table from a file path.
func LoadFile(path string) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &DataLoadError{Source: path, Err: err}
	}
	defer f.Close()

	idx, err := Load(f)
	if err != nil {
		var le *DataLoadError
		if errors.As(err, &le) {
			le.Source = path
		}
		return nil, err
	}
	return idx, nil
}

// Resolve looks up a location code: whitespace stripped, uppercased, exact
// match first, 3-character prefix fallback on miss. Returns
// domain.ErrNotFound when neither matches.
func (idx *Index) Resolve(code string) (Entry, error) {
	norm := Normalize(code)
	if norm == "" {
		return Entry{}, domain.ErrNotFound
	}
	if e, ok := idx.exact[norm]; ok {
		return e, nil
	}
	if len(norm) >= prefixLen {
		if e, ok := idx.prefix[norm[:prefixLen]]; ok {
			return e, nil
		}
	}
	return Entry{}, domain.ErrNotFound
}

// Locate resolves a code straight to coordinates. ok is false on a miss or
// when the matched entry has none.
func (idx *Index) Locate(code string) (*domain.Coordinates, bool) {
	e, err := idx.Resolve(code)
	if err != nil || e.Coordinates == nil {
		return nil, false
	}
	return e.Coordinates, true
}

// Place resolves a code to its display location and coordinates in one
// call, for document projection at index time. A miss yields zero values.
func (idx *Index) Place(code string) (city, region string, coords *domain.Coordinates) {
	e, err := idx.Resolve(code)
	if err != nil {
		return "", "", nil
	}
	return e.City, e.Region, e.Coordinates
}

// Len returns the number of distinct full codes loaded.
func (idx *Index) Len() int { return idx.count }

// Normalize strips all whitespace from a location code and uppercases it.
func Normalize(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

func parseCoordinates(latRaw, lonRaw string) *domain.Coordinates {
	lat, err := strconv.ParseFloat(strings.TrimSpace(latRaw), 64)
	if err != nil {
		return nil
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonRaw), 64)
	if err != nil {
		return nil
	}
	return &domain.Coordinates{Latitude: lat, Longitude: lon}
}
