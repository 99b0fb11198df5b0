package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/KaramelBytes/areamail-cli/internal/dispatch"
	"github.com/KaramelBytes/areamail-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	prevOutputDir string
	prevGroup     string
)

var previewCmd = &cobra.Command{
	Use:   "preview <report.xlsx|csv>",
	Short: "Render subjects and HTML bodies without creating drafts",
	Long: `Render every group of the report. Without --output the subjects are
printed; with --output each body is written as <group>.html for review in a
browser. --group prints a single body to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		res, err := runPipeline(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if prevGroup != "" {
			for _, rep := range res.Reports {
				if rep.Title == prevGroup || rep.Group == prevGroup {
					fmt.Fprint(out, rep.Body)
					return nil
				}
			}
			return fmt.Errorf("group %q not found (%d groups in %s)", prevGroup, len(res.Reports), filepath.Base(res.Path))
		}

		if prevOutputDir == "" {
			for i, rep := range res.Reports {
				fmt.Fprintf(out, "%d. %s (%d rows)\n", i+1, rep.Subject, len(rep.Rows))
			}
			fmt.Fprintf(out, "%d group(s)\n", len(res.Reports))
			return nil
		}

		if err := utils.EnsureDir(prevOutputDir); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
		// Re-running preview overwrites; only titles that slug alike get a suffix.
		seen := map[string]int{}
		for _, rep := range res.Reports {
			base := dispatch.FileBase(rep.Title)
			seen[base]++
			if n := seen[base]; n > 1 {
				base = fmt.Sprintf("%s__%d", base, n)
			}
			path := filepath.Join(prevOutputDir, base+".html")
			if err := utils.SafeWriteFile(path, []byte(rep.Body)); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ %s → %s\n", rep.Title, path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().StringVarP(&prevOutputDir, "output", "o", "", "directory for rendered <group>.html files")
	previewCmd.Flags().StringVarP(&prevGroup, "group", "g", "", "print the body of one group (title or full label)")
	addSheetFlags(previewCmd)
}
