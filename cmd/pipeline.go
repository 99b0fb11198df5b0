package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/KaramelBytes/areamail-cli/internal/normalize"
	"github.com/KaramelBytes/areamail-cli/internal/report"
	"github.com/KaramelBytes/areamail-cli/internal/sheet"
)

// Per-command sheet selection; zero values fall back to config.
var (
	flagSheetName  string
	flagSheetIndex int
	flagStartCol   int
)

// pipelineResult is everything read and derived from one input file.
type pipelineResult struct {
	Path    string
	Sheet   sheet.Selector
	Raw     []normalize.RawRow
	Rows    []normalize.DataRow
	Stats   normalize.Stats
	Reports []report.Report
}

func sheetSelector() sheet.Selector {
	sel := sheet.Selector{Name: cfg.SheetName, Index: cfg.SheetIndex}
	if flagSheetName != "" {
		sel = sheet.Selector{Name: flagSheetName}
	} else if flagSheetIndex > 0 {
		sel = sheet.Selector{Index: flagSheetIndex}
	}
	return sel
}

func startColumn() int {
	if flagStartCol >= 0 {
		return flagStartCol
	}
	return cfg.StartColumn
}

func newNormalizer() *normalize.Normalizer {
	m := normalize.SentinelMatcher{GroupSentinel: cfg.GroupSentinel, ExcludeSentinel: cfg.ExcludeSentinel}
	return normalize.New(m, normalize.WithHeaderLiteral(cfg.HeaderLiteral))
}

func newGenerator() (*report.Generator, error) {
	opt := report.DefaultOptions()
	opt.Sentinel = cfg.GroupSentinel
	if cfg.Organization != "" {
		opt.Organization = cfg.Organization
	}
	if strings.TrimSpace(cfg.SubjectTemplate) != "" {
		opt.SubjectTemplate = cfg.SubjectTemplate
	}
	return report.NewGenerator(opt)
}

// runPipeline reads path and runs normalization and generation. Data-quality
// findings are logged, not treated as errors.
func runPipeline(path string) (*pipelineResult, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	sel := sheetSelector()
	records, err := sheet.ReadFile(path, sel)
	if err != nil {
		return nil, err
	}
	res := &pipelineResult{Path: path, Sheet: sel}
	res.Raw = normalize.RowsFromRecords(records, startColumn())
	res.Rows, res.Stats = newNormalizer().Normalize(res.Raw)

	gen, err := newGenerator()
	if err != nil {
		return nil, err
	}
	res.Reports, err = gen.Generate(res.Rows)
	if err != nil {
		return nil, err
	}

	st := res.Stats
	log.Debug("normalized", "input", path, "rows", st.Total, "kept", st.Kept, "dropped", st.Dropped(), "groups", len(res.Reports))
	if st.CoercedCells > 0 {
		log.Warn("non-numeric metric cells treated as 0", "cells", st.CoercedCells)
	}
	if st.Unresolvable > 0 {
		log.Warn("rows before the first group marker were skipped", "rows", st.Unresolvable)
	}
	if len(res.Reports) == 0 {
		log.Warn("no groups found", "input", path, "sentinel", cfg.GroupSentinel)
	}
	return res, nil
}
