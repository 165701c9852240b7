// Package api holds the JSON handlers behind /api/v1.
package api

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/dataset"
	"github.com/newthinker/strategylab/internal/indicator"
	"github.com/newthinker/strategylab/internal/metrics"
)

// Datasets resolves dataset names under a data directory and loads them
// through a shared cache.
type Datasets struct {
	Dir     string
	Cache   *dataset.Cache
	Metrics *metrics.Registry
}

// Path maps a dataset name to a file under Dir. Names cannot escape Dir and
// default to the .csv extension.
func (d Datasets) Path(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", core.WrapError(core.ErrConfigMissing, fmt.Errorf("dataset name is empty"))
	}
	clean := filepath.Clean("/" + filepath.FromSlash(name))
	if filepath.Ext(clean) == "" {
		clean += ".csv"
	}
	return filepath.Join(d.Dir, clean), nil
}

// Load reads a dataset. With needIndicators set, indicator columns are
// computed whenever the file does not already carry all of them.
func (d Datasets) Load(name, symbol, interval string, needIndicators bool) (core.Series, error) {
	path, err := d.Path(name)
	if err != nil {
		return core.Series{}, err
	}
	s, err := d.Cache.Load(path, symbol, interval, false)
	if err == nil && needIndicators && !indicator.HasIndicators(s) {
		s, err = d.Cache.Load(path, symbol, interval, true)
	}
	if d.Metrics != nil {
		d.Metrics.SetDatasetsCached(d.Cache.Len())
	}
	return s, err
}
