package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/runner"
)

const (
	summaryFile = "summary.json"
	ledgerFile  = "ledger.csv"
)

// Dir returns the directory a run's files are stored under.
func Dir(symbol, runID string) string {
	return path.Join("runs", sanitize(symbol), runID)
}

// Save writes the run summary and its ledger. It returns the run directory.
func Save(ctx context.Context, store Store, rep *runner.Report) (string, error) {
	dir := Dir(rep.Symbol, rep.RunID)

	summary, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding summary: %w", err)
	}
	if err := store.Write(ctx, path.Join(dir, summaryFile), summary); err != nil {
		return "", fmt.Errorf("writing summary: %w", err)
	}

	var ledger bytes.Buffer
	if err := WriteLedgerCSV(&ledger, rep.Result.Trades, rep.Mode); err != nil {
		return "", fmt.Errorf("encoding ledger: %w", err)
	}
	if err := store.Write(ctx, path.Join(dir, ledgerFile), ledger.Bytes()); err != nil {
		return "", fmt.Errorf("writing ledger: %w", err)
	}
	return dir, nil
}

// Load reads back a saved summary. Per-bar signals are not persisted.
func Load(ctx context.Context, store Store, symbol, runID string) (*runner.Report, error) {
	name := path.Join(Dir(symbol, runID), summaryFile)
	ok, err := store.Exists(ctx, name)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, core.WrapError(core.ErrReportNotFound, fmt.Errorf("%s/%s", symbol, runID))
	}
	data, err := store.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	var rep runner.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, fmt.Errorf("decoding summary: %w", err)
	}
	return &rep, nil
}

// ListRuns returns the run IDs saved for a symbol.
func ListRuns(ctx context.Context, store Store, symbol string) ([]string, error) {
	paths, err := store.List(ctx, path.Join("runs", sanitize(symbol)))
	if err != nil {
		return nil, err
	}
	ids := []string{}
	for _, p := range paths {
		if path.Base(p) != summaryFile {
			continue
		}
		ids = append(ids, path.Base(path.Dir(p)))
	}
	return ids, nil
}

func sanitize(symbol string) string {
	s := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ' ', ':':
			return '_'
		}
		return r
	}, symbol)
	if s == "" {
		return "unknown"
	}
	return s
}
