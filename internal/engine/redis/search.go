package redis

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/redis/rueidis"

	"github.com/armorymarket/discovery/internal/engine"
)

const defaultFacetLimit = 100

// Search executes a planned query: one FT.AGGREGATE for the ranked page,
// one FT.SEARCH LIMIT 0 0 for the exact total, and one FT.AGGREGATE
// GROUPBY per facet request, all pipelined in a single DoMulti round-trip.
func (s *Store) Search(ctx context.Context, q *engine.Query) (*engine.Result, error) {
	if q.Index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	raw := buildQueryString(q.Text, q.Filters)

	cmds := make([]rueidis.Completed, 0, 2+len(q.Facets))
	cmds = append(cmds,
		s.b().Arbitrary("FT.AGGREGATE").Args(buildAggregateArgs(q, raw)...).Build(),
		s.b().Arbitrary("FT.SEARCH").Args(q.Index, raw, "LIMIT", "0", "0", "DIALECT", "2").Build(),
	)
	for i := range q.Facets {
		cmds = append(cmds, s.b().Arbitrary("FT.AGGREGATE").Args(buildFacetArgs(q.Index, &q.Facets[i])...).Build())
	}

	replies := s.client.DoMulti(ctx, cmds...)

	pageRaw, err := replies[0].ToArray()
	if err != nil {
		return nil, &engine.Error{Op: engine.OpAggregate, Err: err}
	}
	hits := parseHits(pageRaw, q)

	countRaw, err := replies[1].ToArray()
	if err != nil {
		return nil, &engine.Error{Op: engine.OpSearch, Err: err}
	}
	total := 0
	if len(countRaw) > 0 {
		if n, err := countRaw[0].AsInt64(); err == nil {
			total = int(n)
		}
	}

	res := &engine.Result{Total: total, Hits: hits, Facets: make(map[string]map[string]int, len(q.Facets))}
	for i := range q.Facets {
		facetRaw, err := replies[2+i].ToArray()
		if err != nil {
			return nil, &engine.Error{Op: engine.OpAggregate, Err: fmt.Errorf("facet %s: %w", q.Facets[i].Name, err)}
		}
		res.Facets[q.Facets[i].Name] = parseFacetCounts(facetRaw, q.Facets[i].Field)
	}

	return res, nil
}

// SearchCount returns the number of documents matching a raw query via
// FT.SEARCH with LIMIT 0 0.
func (s *Store) SearchCount(ctx context.Context, index, query string) (int, error) {
	cmd := s.b().Arbitrary("FT.SEARCH").Args(index, query, "LIMIT", "0", "0", "DIALECT", "2").Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return 0, &engine.Error{Op: engine.OpSearch, Err: err}
	}
	if len(raw) == 0 {
		return 0, nil
	}
	total, err := raw[0].AsInt64()
	if err != nil {
		return 0, fmt.Errorf("parse count: %w", err)
	}
	return int(total), nil
}

// --- Query compilation ---

// buildQueryString compiles structured filters plus free text into
// RediSearch query syntax. Empty input compiles to match-all.
func buildQueryString(text string, filters []engine.Clause) string {
	var parts []string
	for _, c := range filters {
		if compiled := buildClause(c); compiled != "" {
			parts = append(parts, compiled)
		}
	}
	if trimmed := strings.TrimSpace(text); trimmed != "" {
		parts = append(parts, "("+escapeText(trimmed)+")")
	}
	if len(parts) == 0 {
		return "*"
	}
	return strings.Join(parts, " ")
}

func buildClause(c engine.Clause) string {
	switch c.Kind {
	case engine.ClauseTagIn:
		if len(c.Values) == 0 {
			return ""
		}
		escaped := make([]string, len(c.Values))
		for i, v := range c.Values {
			escaped[i] = tagEscaper.Replace(v)
		}
		return fmt.Sprintf("@%s:{%s}", c.Field, strings.Join(escaped, "|"))

	case engine.ClauseRange:
		minBound, maxBound := "-inf", "+inf"
		if c.Min != nil {
			minBound = strconv.FormatFloat(*c.Min, 'g', -1, 64)
		}
		if c.Max != nil {
			maxBound = strconv.FormatFloat(*c.Max, 'g', -1, 64)
		}
		return fmt.Sprintf("@%s:[%s %s]", c.Field, minBound, maxBound)

	case engine.ClauseGeoRadius:
		return fmt.Sprintf("@%s:[%s %s %s km]",
			c.Field, formatCoord(c.Lon), formatCoord(c.Lat),
			strconv.FormatFloat(c.RadiusKm, 'f', -1, 64))

	default:
		return ""
	}
}

// buildAggregateArgs compiles the main ranked page into FT.AGGREGATE args.
func buildAggregateArgs(q *engine.Query, raw string) []string {
	args := []string{q.Index, raw}

	if q.WithScores {
		args = append(args, "ADDSCORES")
	}

	args = append(args, "LOAD", "1", "@id")

	if d := q.Distance; d != nil {
		expr := fmt.Sprintf("geodistance(@%s,%s,%s)", d.Field, formatCoord(d.Longitude), formatCoord(d.Latitude))
		args = append(args, "APPLY", expr, "AS", d.As)
	}

	if len(q.SortBy) > 0 {
		args = append(args, "SORTBY", strconv.Itoa(len(q.SortBy)*2))
		for _, k := range q.SortBy {
			args = append(args, "@"+k.Field, string(k.Dir))
		}
	}

	args = append(args,
		"LIMIT", strconv.Itoa(q.Offset), strconv.Itoa(q.Limit),
		"DIALECT", "2",
	)
	return args
}

// buildFacetArgs compiles one facet count request into FT.AGGREGATE args.
func buildFacetArgs(index string, f *engine.FacetRequest) []string {
	limit := f.Limit
	if limit <= 0 {
		limit = defaultFacetLimit
	}
	return []string{
		index, buildQueryString(f.Text, f.Filters),
		"GROUPBY", "1", "@" + f.Field,
		"REDUCE", "COUNT", "0", "AS", "count",
		"SORTBY", "2", "@count", "DESC",
		"LIMIT", "0", strconv.Itoa(limit),
		"DIALECT", "2",
	}
}

// --- Result parsing ---

// parseHits walks an FT.AGGREGATE reply: [n, row1, row2, ...] where each row
// is a flat field/value pair array.
func parseHits(raw []rueidis.RedisMessage, q *engine.Query) []engine.Hit {
	if len(raw) < 2 {
		return nil
	}

	hits := make([]engine.Hit, 0, len(raw)-1)
	for _, msg := range raw[1:] {
		row, err := msg.ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(row)

		id, err := strconv.ParseInt(fields["id"], 10, 64)
		if err != nil {
			continue // row without a loadable id is unusable
		}

		hit := engine.Hit{ID: id}
		if v, ok := fields["__score"]; ok {
			hit.Score, _ = strconv.ParseFloat(v, 64)
		}
		if d := q.Distance; d != nil {
			if v, ok := fields[d.As]; ok {
				hit.DistanceM, _ = strconv.ParseFloat(v, 64)
			}
		}
		hits = append(hits, hit)
	}

	return hits
}

// parseFacetCounts walks a GROUPBY reply into value -> count.
func parseFacetCounts(raw []rueidis.RedisMessage, field string) map[string]int {
	counts := make(map[string]int)
	if len(raw) < 2 {
		return counts
	}
	for _, msg := range raw[1:] {
		row, err := msg.ToArray()
		if err != nil {
			continue
		}
		fields := parseFieldPairs(row)
		value, ok := fields[field]
		if !ok || value == "" {
			continue
		}
		if n, err := strconv.Atoi(fields["count"]); err == nil {
			counts[value] = n
		}
	}
	return counts
}

// parseFieldPairs converts a flat [k1, v1, k2, v2, ...] reply into a map.
func parseFieldPairs(row []rueidis.RedisMessage) map[string]string {
	fields := make(map[string]string, len(row)/2)
	for i := 0; i+1 < len(row); i += 2 {
		k, err := row[i].ToString()
		if err != nil {
			continue
		}
		v, err := row[i+1].ToString()
		if err != nil {
			continue
		}
		fields[k] = v
	}
	return fields
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escapeText escapes RediSearch query syntax in user-supplied text so free
// terms cannot inject operators.
func escapeText(s string) string {
	return textEscaper.Replace(s)
}

var textEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
	`;`, `\;`,
	`+`, `\+`,
)

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	" ", "\\ ",
)
