package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/KaramelBytes/areamail-cli/internal/normalize"
	"github.com/KaramelBytes/areamail-cli/internal/sheet"
	"github.com/KaramelBytes/areamail-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	inspHead  int
	inspJSON  bool
	inspNames bool
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <report.xlsx|csv>",
	Short: "Show how a report normalizes: dropped rows, groups and a preview",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		path := args[0]

		if inspNames {
			names, err := sheet.SheetNames(path)
			if err != nil {
				return err
			}
			for i, n := range names {
				fmt.Fprintf(out, "%d. %s\n", i+1, n)
			}
			return nil
		}

		res, err := runPipeline(path)
		if err != nil {
			return err
		}
		if inspJSON {
			return writeInspectJSON(out, res)
		}

		st := res.Stats
		fmt.Fprintf(out, "File: %s\n", filepath.Base(res.Path))
		if l := sheetLabel(res.Sheet); l != "" {
			fmt.Fprintf(out, "Sheet: %s\n", l)
		}
		fmt.Fprintf(out, "Rows read: %d\n", st.Total)
		fmt.Fprintf(out, "  group markers:     %d\n", st.Markers)
		fmt.Fprintf(out, "  data rows kept:    %d\n", st.Kept)
		fmt.Fprintf(out, "  empty office code: %d\n", st.EmptyCode)
		fmt.Fprintf(out, "  repeated headers:  %d\n", st.HeaderRepeats)
		fmt.Fprintf(out, "  before 1st marker: %d\n", st.Unresolvable)
		fmt.Fprintf(out, "  summary rows:      %d\n", st.Excluded)
		if st.CoercedCells > 0 {
			fmt.Fprintf(out, "⚠ %d non-numeric metric cell(s) treated as 0\n", st.CoercedCells)
		}

		fmt.Fprintf(out, "\nGroups (%d):\n", len(res.Reports))
		tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "#\tTITLE\tROWS\tGRAND TOTAL")
		for i, rep := range res.Reports {
			var sum int64
			for _, r := range rep.Rows {
				sum += r.GrandTotal
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", i+1, rep.Title, len(rep.Rows), sum)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if inspHead > 0 {
			fmt.Fprintf(out, "\nFirst %d row(s) as read:\n", min(inspHead, len(res.Raw)))
			writeHead(out, res.Raw, inspHead)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().IntVar(&inspHead, "head", 5, "number of raw rows to preview (0 disables)")
	inspectCmd.Flags().BoolVar(&inspJSON, "json", false, "print stats and normalized rows as JSON")
	inspectCmd.Flags().BoolVar(&inspNames, "sheets", false, "list worksheet names of an .xlsx file and exit")
	addSheetFlags(inspectCmd)
}

func writeInspectJSON(w io.Writer, res *pipelineResult) error {
	type group struct {
		Group string `json:"group"`
		Title string `json:"title"`
		Rows  int    `json:"rows"`
	}
	doc := struct {
		Input  string              `json:"input"`
		Stats  normalize.Stats     `json:"stats"`
		Groups []group             `json:"groups"`
		Rows   []normalize.DataRow `json:"rows"`
	}{Input: res.Path, Stats: res.Stats, Groups: []group{}, Rows: res.Rows}
	for _, rep := range res.Reports {
		doc.Groups = append(doc.Groups, group{Group: rep.Group, Title: rep.Title, Rows: len(rep.Rows)})
	}
	b, err := utils.PrettyJSON(doc)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func writeHead(w io.Writer, rows []normalize.RawRow, n int) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LINE\tOFFICE_CODE\tBRANCH\tM1\tM2\tTOTAL")
	for i, r := range rows {
		if i >= n {
			break
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.Line, clip(r.OfficeCode, 32), clip(r.BranchName, 32), r.LeadsPrimary, r.LeadsSecondary, r.GrandTotal)
	}
	_ = tw.Flush()
}

func clip(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
