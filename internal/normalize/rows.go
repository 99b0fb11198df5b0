package normalize

import "strings"

// Columns is the number of positional columns consumed from each record.
const Columns = 5

// RawRow is one row of the uncleaned extract. All fields are kept as the
// text that was read; nothing is validated at this stage.
type RawRow struct {
	Line           int // 1-based record number in the source sheet
	OfficeCode     string
	BranchName     string
	LeadsPrimary   string
	LeadsSecondary string
	GrandTotal     string
}

// DataRow is a cleaned row tagged with the group it belongs to.
type DataRow struct {
	Line           int    `json:"line"`
	OfficeCode     string `json:"office_code"`
	BranchName     string `json:"branch_name"`
	LeadsPrimary   int64  `json:"leads_primary"`
	LeadsSecondary int64  `json:"leads_secondary"`
	GrandTotal     int64  `json:"grand_total"`
	Group          string `json:"group"`
}

// RowsFromRecords maps sheet records onto RawRow using five positional
// columns starting at startCol (0-based). Short records are padded with
// empty cells; extra cells are ignored.
func RowsFromRecords(records [][]string, startCol int) []RawRow {
	if startCol < 0 {
		startCol = 0
	}
	out := make([]RawRow, 0, len(records))
	for i, rec := range records {
		cell := func(j int) string {
			idx := startCol + j
			if idx >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[idx])
		}
		out = append(out, RawRow{
			Line:           i + 1,
			OfficeCode:     cell(0),
			BranchName:     cell(1),
			LeadsPrimary:   cell(2),
			LeadsSecondary: cell(3),
			GrandTotal:     cell(4),
		})
	}
	return out
}
