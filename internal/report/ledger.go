package report

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/newthinker/strategylab/internal/backtest"
)

var (
	continuousHeader = []string{
		"entry_time", "exit_time", "entry_price", "exit_price", "exit_reason", "return",
	}
	binaryHeader = []string{
		"direction", "execution_time", "expiration_time", "execution_price", "expiration_price",
		"outcome", "return", "benefit",
	}
)

// WriteLedgerCSV writes one row per closed trade with mode-specific columns.
func WriteLedgerCSV(w io.Writer, trades []backtest.Trade, mode backtest.Mode) error {
	cw := csv.NewWriter(w)

	header := continuousHeader
	if mode == backtest.ModeBinary {
		header = binaryHeader
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, t := range trades {
		var row []string
		if mode == backtest.ModeBinary {
			row = []string{
				string(t.Direction),
				formatTime(t.EntryTime), formatTime(t.ExitTime),
				formatF(t.EntryPrice), formatF(t.ExitPrice),
				string(t.Outcome), formatF(t.Return), formatF(t.Benefit),
			}
		} else {
			row = []string{
				formatTime(t.EntryTime), formatTime(t.ExitTime),
				formatF(t.EntryPrice), formatF(t.ExitPrice),
				string(t.ExitReason), formatF(t.Return),
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatTime(t time.Time) string { return t.Format(time.RFC3339) }

func formatF(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }
