// Package dataset loads OHLCV series from CSV files.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/strategylab/internal/core"
)

var timeAliases = map[string]bool{
	"timestamp": true,
	"date":      true,
	"time":      true,
	"datetime":  true,
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

type columns struct {
	time, open, high, low, close, volume int
	indicators                           map[string]int
}

// LoadFile reads a CSV file. An empty symbol defaults to the file name
// without extension.
func LoadFile(path, symbol, interval string) (core.Series, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return core.Series{}, core.WrapError(core.ErrDatasetNotFound, err)
		}
		return core.Series{}, err
	}
	defer f.Close()

	if symbol == "" {
		symbol = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return LoadCSV(f, symbol, interval)
}

// LoadCSV parses a header row followed by one bar per row. Columns other
// than the OHLCV fields become indicator columns; empty, nan and null cells
// are not-available values.
func LoadCSV(r io.Reader, symbol, interval string) (core.Series, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return core.Series{}, core.ErrNoData
		}
		return core.Series{}, fmt.Errorf("reading header: %w", err)
	}
	cols, err := mapColumns(header)
	if err != nil {
		return core.Series{}, err
	}

	s := core.Series{Symbol: symbol, Interval: interval}
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return core.Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		b, err := parseBar(rec, cols)
		if err != nil {
			return core.Series{}, fmt.Errorf("line %d: %w", line, err)
		}
		s.Bars = append(s.Bars, b)
	}

	if err := s.Validate(); err != nil {
		return core.Series{}, err
	}
	return s, nil
}

func mapColumns(header []string) (columns, error) {
	cols := columns{time: -1, open: -1, high: -1, low: -1, close: -1, volume: -1, indicators: map[string]int{}}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(h))
		switch {
		case timeAliases[name] && cols.time < 0:
			cols.time = i
		case name == core.FieldOpen:
			cols.open = i
		case name == core.FieldHigh:
			cols.high = i
		case name == core.FieldLow:
			cols.low = i
		case name == core.FieldClose:
			cols.close = i
		case name == core.FieldVolume:
			cols.volume = i
		case name != "":
			cols.indicators[name] = i
		}
	}

	required := map[string]int{
		"timestamp":      cols.time,
		core.FieldOpen:   cols.open,
		core.FieldHigh:   cols.high,
		core.FieldLow:    cols.low,
		core.FieldClose:  cols.close,
		core.FieldVolume: cols.volume,
	}
	var missing []string
	for name, idx := range required {
		if idx < 0 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return cols, core.WrapError(core.ErrNoData, fmt.Errorf("missing columns: %s", strings.Join(missing, ", ")))
	}
	return cols, nil
}

func parseBar(rec []string, cols columns) (core.Bar, error) {
	field := func(i int) string {
		if i < len(rec) {
			return strings.TrimSpace(rec[i])
		}
		return ""
	}

	ts, err := parseTime(field(cols.time))
	if err != nil {
		return core.Bar{}, err
	}
	b := core.Bar{Time: ts, Indicators: make(map[string]float64, len(cols.indicators))}

	for _, f := range []struct {
		name string
		idx  int
		dst  *float64
	}{
		{core.FieldOpen, cols.open, &b.Open},
		{core.FieldHigh, cols.high, &b.High},
		{core.FieldLow, cols.low, &b.Low},
		{core.FieldClose, cols.close, &b.Close},
		{core.FieldVolume, cols.volume, &b.Volume},
	} {
		v, err := parseFloat(field(f.idx))
		if err != nil {
			return core.Bar{}, fmt.Errorf("%s: %w", f.name, err)
		}
		if math.IsNaN(v) {
			return core.Bar{}, fmt.Errorf("%s: missing value", f.name)
		}
		*f.dst = v
	}

	for name, idx := range cols.indicators {
		v, err := parseFloat(field(idx))
		if err != nil {
			// non-numeric extra columns are ignored
			continue
		}
		b.Indicators[name] = v
	}
	return b, nil
}

func parseFloat(s string) (float64, error) {
	switch strings.ToLower(s) {
	case "", "nan", "null", "na", "none":
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
