// Package normalize turns a flat, label-interspersed leads extract into data
// rows tagged with the regional group announced by the nearest preceding
// marker row.
package normalize

import "strings"

// Stats counts what happened to each raw row during normalization.
type Stats struct {
	Total         int `json:"total"`
	Kept          int `json:"kept"`
	Markers       int `json:"markers"`
	EmptyCode     int `json:"empty_code"`
	HeaderRepeats int `json:"header_repeats"`
	Unresolvable  int `json:"unresolvable"`
	Excluded      int `json:"excluded"`
	// CoercedCells counts non-empty metric cells that were not numeric and
	// were replaced by 0.
	CoercedCells int `json:"coerced_cells"`
}

// Dropped is the number of non-marker rows that did not become data rows.
func (s Stats) Dropped() int {
	return s.EmptyCode + s.HeaderRepeats + s.Unresolvable + s.Excluded
}

// Normalizer applies the cleaning rules. The zero value is not usable; call New.
type Normalizer struct {
	matcher       Matcher
	headerLiteral string
}

// Option customizes a Normalizer.
type Option func(*Normalizer)

// WithHeaderLiteral sets the office code text that identifies a repeated
// header row. An empty literal disables the check.
func WithHeaderLiteral(s string) Option {
	return func(n *Normalizer) { n.headerLiteral = strings.TrimSpace(s) }
}

// New returns a Normalizer using m to recognize marker and excluded rows.
// A nil matcher uses DefaultMatcher.
func New(m Matcher, opts ...Option) *Normalizer {
	if m == nil {
		m = DefaultMatcher()
	}
	n := &Normalizer{matcher: m, headerLiteral: DefaultHeaderLiteral}
	for _, o := range opts {
		o(n)
	}
	return n
}

// scan carries the forward-fill state across rows.
type scan struct {
	group string
	rows  []DataRow
	stats Stats
}

// Normalize returns the data rows in source order. It never fails: input
// with no rows or no marker yields an empty result.
func (n *Normalizer) Normalize(rows []RawRow) ([]DataRow, Stats) {
	acc := &scan{rows: make([]DataRow, 0, len(rows))}
	for _, r := range rows {
		n.step(acc, r)
	}
	acc.stats.Kept = len(acc.rows)
	return acc.rows, acc.stats
}

func (n *Normalizer) step(acc *scan, r RawRow) {
	acc.stats.Total++
	code := strings.TrimSpace(r.OfficeCode)
	if code == "" {
		acc.stats.EmptyCode++
		return
	}
	if n.headerLiteral != "" && strings.EqualFold(code, n.headerLiteral) {
		acc.stats.HeaderRepeats++
		return
	}
	if n.matcher.IsGroupMarker(r) {
		acc.stats.Markers++
		acc.group = groupLabel(n.matcher, r)
		return
	}
	if acc.group == "" {
		acc.stats.Unresolvable++
		return
	}
	if n.matcher.IsExcluded(r) {
		acc.stats.Excluded++
		return
	}
	row := DataRow{
		Line:       r.Line,
		OfficeCode: code,
		BranchName: strings.TrimSpace(r.BranchName),
		Group:      acc.group,
	}
	row.LeadsPrimary = acc.coerce(r.LeadsPrimary)
	row.LeadsSecondary = acc.coerce(r.LeadsSecondary)
	row.GrandTotal = acc.coerce(r.GrandTotal)
	acc.rows = append(acc.rows, row)
}

func (acc *scan) coerce(s string) int64 {
	v, ok := coerce(s)
	if !ok {
		acc.stats.CoercedCells++
	}
	return v
}
