package normalize

import "strings"

const (
	// DefaultGroupSentinel opens a new regional group when found in the
	// office code or branch name column.
	DefaultGroupSentinel = "JUMLAH DATA AREA"
	// DefaultExcludeSentinel marks grand-total rows in the branch name column.
	DefaultExcludeSentinel = "Grand Total"
	// DefaultHeaderLiteral is the office code column header that may be
	// repeated inside the extract.
	DefaultHeaderLiteral = "OFFICE_CODE"
)

// Matcher classifies raw rows. Implementations must be pure.
type Matcher interface {
	IsGroupMarker(r RawRow) bool
	IsExcluded(r RawRow) bool
}

// Labeler is implemented by matchers that know which cell of a marker row
// carries the group text. Matchers without it fall back to the office code,
// or the branch name when the office code is empty.
type Labeler interface {
	GroupLabel(r RawRow) string
}

// SentinelMatcher matches rows by substring sentinels.
type SentinelMatcher struct {
	GroupSentinel   string
	ExcludeSentinel string
}

// DefaultMatcher returns the sentinels used by the regional leads report.
func DefaultMatcher() SentinelMatcher {
	return SentinelMatcher{
		GroupSentinel:   DefaultGroupSentinel,
		ExcludeSentinel: DefaultExcludeSentinel,
	}
}

func (m SentinelMatcher) IsGroupMarker(r RawRow) bool {
	if m.GroupSentinel == "" {
		return false
	}
	return strings.Contains(r.OfficeCode, m.GroupSentinel) || strings.Contains(r.BranchName, m.GroupSentinel)
}

func (m SentinelMatcher) IsExcluded(r RawRow) bool {
	if m.ExcludeSentinel == "" {
		return false
	}
	return strings.Contains(r.BranchName, m.ExcludeSentinel)
}

// GroupLabel prefers the office code cell when it holds the sentinel.
func (m SentinelMatcher) GroupLabel(r RawRow) string {
	if m.GroupSentinel != "" && strings.Contains(r.OfficeCode, m.GroupSentinel) {
		return strings.TrimSpace(r.OfficeCode)
	}
	return strings.TrimSpace(r.BranchName)
}

// MatcherFuncs adapts plain predicates to Matcher. Nil funcs never match.
type MatcherFuncs struct {
	Marker  func(RawRow) bool
	Exclude func(RawRow) bool
}

func (f MatcherFuncs) IsGroupMarker(r RawRow) bool { return f.Marker != nil && f.Marker(r) }
func (f MatcherFuncs) IsExcluded(r RawRow) bool    { return f.Exclude != nil && f.Exclude(r) }

func groupLabel(m Matcher, r RawRow) string {
	if l, ok := m.(Labeler); ok {
		return l.GroupLabel(r)
	}
	if s := strings.TrimSpace(r.OfficeCode); s != "" {
		return s
	}
	return strings.TrimSpace(r.BranchName)
}
