package runner

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
	"strings"

	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/learn"
)

type memoEntry struct {
	res *learn.Result
	err error
}

// memoKey identifies a fit by the series content and every fit parameter.
func memoKey(s core.Series, cfg learn.Config) string {
	features := cfg.Features
	if len(features) == 0 {
		features = learn.DefaultFeatures
	}

	h := fnv.New64a()
	var buf [8]byte
	for _, b := range s.Bars {
		binary.LittleEndian.PutUint64(buf[:], uint64(b.Time.UnixNano()))
		h.Write(buf[:])
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(b.Close))
		h.Write(buf[:])
		for _, f := range features {
			v, _ := b.Value(f)
			binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
			h.Write(buf[:])
		}
	}

	model := ""
	if cfg.Trainer != nil {
		model = cfg.Trainer.Name()
	}
	return fmt.Sprintf("%s|%x|%s|%d|%g|%g|%s",
		s.Symbol, h.Sum64(), strings.Join(features, ","), cfg.Horizon, cfg.Threshold, cfg.TrainFraction, model)
}
