package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/areamail-cli/internal/dispatch"
	"github.com/KaramelBytes/areamail-cli/internal/gauth"
	"github.com/KaramelBytes/areamail-cli/internal/manifest"
	"github.com/KaramelBytes/areamail-cli/internal/recipients"
	"github.com/KaramelBytes/areamail-cli/internal/report"
	"github.com/KaramelBytes/areamail-cli/internal/sheet"
	"github.com/spf13/cobra"
)

var (
	distBackend     string
	distOutputDir   string
	distRecipients  string
	distTo          string
	distCc          string
	distDryRun      bool
	distConcurrency int
)

var distributeCmd = &cobra.Command{
	Use:   "distribute <report.xlsx|csv>",
	Short: "Create one email draft per regional group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireConfig(); err != nil {
			return err
		}
		if distBackend != "" {
			cfg.Backend = strings.ToLower(distBackend)
		}
		if distOutputDir != "" {
			cfg.OutputDir = distOutputDir
		}
		if distConcurrency > 0 {
			cfg.Concurrency = distConcurrency
		}
		if err := cfg.ValidateDispatch(); err != nil {
			return err
		}

		res, err := runPipeline(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(res.Reports) == 0 {
			fmt.Fprintf(out, "⚠ No groups found in %s (%d rows read)\n", filepath.Base(res.Path), res.Stats.Total)
			return nil
		}

		dir, err := loadRecipients()
		if err != nil {
			return err
		}
		drafts := make([]dispatch.Draft, 0, len(res.Reports))
		for _, rep := range res.Reports {
			drafts = append(drafts, draftFor(rep, dir))
		}

		if distDryRun {
			for _, d := range drafts {
				fmt.Fprintf(out, "• %s → %s\n  %s\n", d.Title, addrList(d.To), d.Subject)
			}
			fmt.Fprintf(out, "Dry run: %d group(s), %d row(s); no drafts created\n", len(drafts), res.Stats.Kept)
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		drafter, err := newDrafter(ctx)
		if err != nil {
			return err
		}

		m := manifest.New(res.Path, cfg.Backend)
		m.Sheet = sheetLabel(res.Sheet)
		m.Stats = res.Stats
		runLog := log.With("run_id", m.RunID)
		runLog.Info("dispatching", "groups", len(drafts), "backend", cfg.Backend, "concurrency", cfg.Concurrency)

		runner := dispatch.NewRunner(drafter,
			dispatch.WithConcurrency(cfg.Concurrency),
			dispatch.WithLogger(runLog),
			dispatch.WithTimeout(groupTimeout()),
		)
		results := runner.Run(ctx, drafts)

		for i, r := range results {
			d := drafts[i]
			m.Add(manifest.GroupOutcome{
				Group:   d.Group,
				Title:   d.Title,
				Subject: d.Subject,
				Rows:    len(res.Reports[i].Rows),
				To:      d.To,
				Cc:      d.Cc,
				Ref:     r.Ref,
			}, r.Err)
			if r.OK() {
				fmt.Fprintf(out, "✓ %s (%d rows) → %s\n", d.Title, len(res.Reports[i].Rows), r.Ref)
			} else {
				fmt.Fprintf(out, "✗ %s: %v\n", d.Title, r.Err)
			}
		}

		path, err := m.Save(cfg.OutputDir)
		if err != nil {
			runLog.Warn("manifest not written", "err", err)
		} else {
			fmt.Fprintf(out, "Manifest: %s\n", path)
		}

		failed := dispatch.Failed(results)
		fmt.Fprintf(out, "Created %d/%d draft(s)\n", len(results)-failed, len(results))
		if failed > 0 {
			return fmt.Errorf("%d of %d group(s) failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(distributeCmd)
	distributeCmd.Flags().StringVar(&distBackend, "backend", "", "draft backend: gmail|dir (overrides config)")
	distributeCmd.Flags().StringVarP(&distOutputDir, "output", "o", "", "output directory for .eml drafts and the run manifest")
	distributeCmd.Flags().StringVar(&distRecipients, "recipients", "", "PIC workbook/CSV mapping AREA to TO/CC (overrides config)")
	distributeCmd.Flags().StringVar(&distTo, "to", "", "fallback recipient(s), comma separated")
	distributeCmd.Flags().StringVar(&distCc, "cc", "", "fallback CC address(es), comma separated")
	distributeCmd.Flags().BoolVar(&distDryRun, "dry-run", false, "render drafts and print the plan without creating anything")
	distributeCmd.Flags().IntVar(&distConcurrency, "concurrency", 0, "parallel draft operations (overrides config)")
	addSheetFlags(distributeCmd)
}

func addSheetFlags(c *cobra.Command) {
	c.Flags().StringVar(&flagSheetName, "sheet-name", "", "worksheet name for .xlsx input")
	c.Flags().IntVar(&flagSheetIndex, "sheet-index", 0, "1-based worksheet index for .xlsx input")
	c.Flags().IntVar(&flagStartCol, "start-column", -1, "0-based column holding OFFICE_CODE (overrides config)")
}

func loadRecipients() (*recipients.Directory, error) {
	fallback := recipients.Contact{
		To: recipients.ParseAddresses(cfg.DefaultRecipient),
		Cc: recipients.ParseAddresses(cfg.DefaultCC),
	}
	if distTo != "" {
		fallback.To = recipients.ParseAddresses(distTo)
	}
	if distCc != "" {
		fallback.Cc = recipients.ParseAddresses(distCc)
	}
	path := cfg.RecipientsFile
	if distRecipients != "" {
		path = distRecipients
	}
	if path == "" {
		return recipients.NewDirectory(fallback), nil
	}
	dir, err := recipients.Load(path, sheet.Selector{Name: cfg.RecipientsSheet}, fallback)
	if err != nil {
		return nil, err
	}
	log.Debug("recipients loaded", "file", path, "areas", dir.Len())
	return dir, nil
}

func draftFor(rep report.Report, dir *recipients.Directory) dispatch.Draft {
	c, ok := dir.Lookup(rep.Title)
	if !ok {
		log.Debug("no recipient entry, using fallback", "group", rep.Title)
	}
	return dispatch.Draft{
		Group:    rep.Group,
		Title:    rep.Title,
		From:     cfg.Sender,
		To:       c.To,
		Cc:       c.Cc,
		Subject:  rep.Subject,
		HTMLBody: rep.Body,
	}
}

func newDrafter(ctx context.Context) (dispatch.Drafter, error) {
	switch cfg.Backend {
	case "dir":
		return dispatch.NewDirDrafter(cfg.OutputDir)
	case "gmail":
		oc, err := gauth.LoadConfig(cfg.CredentialsPath, dispatch.GmailComposeScope)
		if err != nil {
			return nil, err
		}
		ts, err := gauth.TokenSource(ctx, oc, cfg.TokenPath)
		if err != nil {
			return nil, err
		}
		return dispatch.NewGmailDrafter(ctx, ts, dispatch.GmailOptions{
			BaseURL:        cfg.GmailBaseURL,
			Timeout:        time.Duration(cfg.HTTPTimeoutSec) * time.Second,
			RetryMax:       cfg.RetryMaxAttempts,
			RetryBaseDelay: time.Duration(cfg.RetryBaseDelayMs) * time.Millisecond,
			RetryMaxDelay:  time.Duration(cfg.RetryMaxDelayMs) * time.Millisecond,
			Debug:          debug,
		}), nil
	default:
		return nil, fmt.Errorf("unknown backend %q (use gmail or dir)", cfg.Backend)
	}
}

// groupTimeout bounds one group including every retry and backoff.
func groupTimeout() time.Duration {
	per := time.Duration(cfg.HTTPTimeoutSec)*time.Second + time.Duration(cfg.RetryMaxDelayMs)*time.Millisecond
	return per * time.Duration(max(cfg.RetryMaxAttempts, 1))
}

func addrList(a []string) string {
	if len(a) == 0 {
		return "(no recipient)"
	}
	return strings.Join(a, ", ")
}

func sheetLabel(sel sheet.Selector) string {
	if sel.Name != "" {
		return sel.Name
	}
	if sel.Index > 0 {
		return fmt.Sprintf("#%d", sel.Index)
	}
	return ""
}
