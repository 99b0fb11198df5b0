package normalize_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/KaramelBytes/areamail-cli/internal/normalize"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(recs ...[]string) []normalize.RawRow {
	return normalize.RowsFromRecords(recs, 0)
}

func TestNormalize_SingleGroupCoercesMalformedCells(t *testing.T) {
	in := rows(
		[]string{"JUMLAH DATA AREA WEST", "", "", "", ""},
		[]string{"001", "BranchA", "10", "5", "15"},
		[]string{"002", "BranchB", "x", "3", "3"},
	)
	out, st := normalize.New(nil).Normalize(in)

	require.Len(t, out, 2)
	assert.Equal(t, "JUMLAH DATA AREA WEST", out[0].Group)
	assert.Equal(t, "JUMLAH DATA AREA WEST", out[1].Group)
	assert.Equal(t, int64(10), out[0].LeadsPrimary)
	assert.Equal(t, int64(15), out[0].GrandTotal)
	assert.Equal(t, int64(0), out[1].LeadsPrimary)
	assert.Equal(t, int64(3), out[1].LeadsSecondary)
	assert.Equal(t, 1, st.Markers)
	assert.Equal(t, 1, st.CoercedCells)
	assert.Equal(t, 2, st.Kept)
}

func TestNormalize_DropsRowsBeforeFirstMarker(t *testing.T) {
	in := rows(
		[]string{"000", "Orphan", "1", "1", "2"},
		[]string{"JUMLAH DATA AREA WEST", "", "", "", ""},
		[]string{"001", "BranchA", "1", "1", "2"},
	)
	out, st := normalize.New(nil).Normalize(in)

	require.Len(t, out, 1)
	for _, r := range out {
		assert.NotEqual(t, "Orphan", r.BranchName)
	}
	assert.Equal(t, 1, st.Unresolvable)
}

func TestNormalize_ExcludesGrandTotalAndHeaderRepeats(t *testing.T) {
	in := rows(
		[]string{"JUMLAH DATA AREA WEST", "", "", "", ""},
		[]string{"OFFICE_CODE", "NAMA_CABANG", "LEADS_NMC", "LEADS_AMITRA", "GRAND_TOTAL"},
		[]string{"001", "BranchA", "1", "2", "3"},
		[]string{"", "Grand Total", "100", "50", "150"},
		[]string{"TOTAL", "Grand Total", "100", "50", "150"},
	)
	out, st := normalize.New(nil).Normalize(in)

	require.Len(t, out, 1)
	assert.Equal(t, "BranchA", out[0].BranchName)
	assert.Equal(t, 1, st.HeaderRepeats)
	assert.Equal(t, 1, st.EmptyCode)
	assert.Equal(t, 1, st.Excluded)
	assert.Equal(t, st.Total, st.Kept+st.Markers+st.Dropped())
}

func TestNormalize_MarkerInBranchColumn(t *testing.T) {
	in := rows(
		[]string{"A1", "JUMLAH DATA AREA EAST", "9", "9", "18"},
		[]string{"101", "Timur", "4", "4", "8"},
	)
	out, st := normalize.New(nil).Normalize(in)

	require.Len(t, out, 1)
	assert.Equal(t, "JUMLAH DATA AREA EAST", out[0].Group)
	assert.Equal(t, 1, st.Markers)
}

func TestNormalize_EmptyAndMarkerlessInput(t *testing.T) {
	n := normalize.New(nil)

	out, st := n.Normalize(nil)
	assert.Empty(t, out)
	assert.Zero(t, st.Total)

	out, st = n.Normalize(rows([]string{"001", "A", "1", "1", "2"}))
	assert.Empty(t, out)
	assert.Equal(t, 1, st.Unresolvable)
}

// Every data row carries the nearest preceding marker, and a later marker
// never relabels earlier rows.
func TestNormalize_ForwardFillIsMonotonic(t *testing.T) {
	recs := [][]string{
		{"JUMLAH DATA AREA A", "", "", "", ""},
		{"1", "a1", "1", "1", "1"},
		{"2", "a2", "1", "1", "1"},
		{"x", "JUMLAH DATA AREA B", "", "", ""},
		{"3", "b1", "1", "1", "1"},
		{"JUMLAH DATA AREA A", "", "", "", ""},
		{"4", "a3", "1", "1", "1"},
	}
	out, _ := normalize.New(nil).Normalize(normalize.RowsFromRecords(recs, 0))
	require.Len(t, out, 4)

	var current string
	byLine := map[int]string{}
	for i, r := range recs {
		if strings.Contains(r[0], "JUMLAH") {
			current = strings.TrimSpace(r[0])
			continue
		}
		if strings.Contains(r[1], "JUMLAH") {
			current = r[1]
			continue
		}
		byLine[i+1] = current
	}
	for _, r := range out {
		assert.Equal(t, byLine[r.Line], r.Group, "line %d", r.Line)
	}
	assert.Equal(t, "JUMLAH DATA AREA A", out[3].Group)
}

func TestNormalize_InjectedPredicates(t *testing.T) {
	m := normalize.MatcherFuncs{
		Marker:  func(r normalize.RawRow) bool { return strings.HasPrefix(r.OfficeCode, "## ") },
		Exclude: func(r normalize.RawRow) bool { return r.BranchName == "skip" },
	}
	in := rows(
		[]string{"## North", "", "", "", ""},
		[]string{"1", "keep", "1", "2", "3"},
		[]string{"2", "skip", "1", "2", "3"},
		[]string{"JUMLAH DATA AREA WEST", "x", "", "", ""},
	)
	out, st := normalize.New(m, normalize.WithHeaderLiteral("")).Normalize(in)

	require.Len(t, out, 2)
	assert.Equal(t, "## North", out[0].Group)
	assert.Equal(t, "JUMLAH DATA AREA WEST", out[1].OfficeCode, "default sentinel is not consulted")
	assert.Equal(t, 1, st.Excluded)
}

func TestRowsFromRecords_StartColumnAndPadding(t *testing.T) {
	recs := [][]string{
		{"ignored", " 001 ", "Branch", "7"},
	}
	got := normalize.RowsFromRecords(recs, 1)
	require.Len(t, got, 1)
	assert.Equal(t, normalize.RawRow{
		Line:         1,
		OfficeCode:   "001",
		BranchName:   "Branch",
		LeadsPrimary: "7",
	}, got[0])
}

func TestCoerceInt(t *testing.T) {
	cases := map[string]int64{
		"":                     0,
		"  ":                   0,
		"15":                   15,
		"15.0":                 15,
		"15.9":                 15,
		"-3.7":                 -3,
		"1e3":                  1000,
		"\u00a042\u00a0":       42,
		"x":                    0,
		"1,000":                0,
		"NaN":                  0,
		"99999999999999999999": 0,
		"1e50000000":           0,
		"-1e50000000":          0,
		"1e-50000000":          0,
		"0e99999999":           0,
		"9.2e18":               9200000000000000000,
	}
	for in, want := range cases {
		assert.Equal(t, want, normalize.CoerceInt(in), "input %q", in)
	}
}

func TestCoerceInt_Idempotent(t *testing.T) {
	for _, in := range []string{"", "x", "12", "12.5", "-0.4", "3e2", "abc12", "1,5"} {
		once := normalize.CoerceInt(in)
		twice := normalize.CoerceInt(strconv.FormatInt(once, 10))
		assert.Equal(t, once, twice, "input %q", in)
	}
}
