package dataset

import (
	"fmt"
	"os"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/newthinker/strategylab/internal/core"
	"github.com/newthinker/strategylab/internal/indicator"
)

// Cache memoizes loaded series keyed by path, modification time and
// whether indicators were computed.
type Cache struct {
	internal *cache.Cache
	params   indicator.Params
}

// NewCache returns a Cache with the given expiration and cleanup interval.
func NewCache(defaultExpiration, cleanupInterval time.Duration, params indicator.Params) *Cache {
	return &Cache{
		internal: cache.New(defaultExpiration, cleanupInterval),
		params:   params,
	}
}

// Load returns the series at path, reading it only when the file changed.
// With annotate set, indicator columns are computed after loading.
// Returned series share bars with the cache and must not be mutated.
func (c *Cache) Load(path, symbol, interval string, annotate bool) (core.Series, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return core.Series{}, core.WrapError(core.ErrDatasetNotFound, err)
		}
		return core.Series{}, err
	}

	key := fmt.Sprintf("%s|%d|%s|%s|%t", path, info.ModTime().UnixNano(), symbol, interval, annotate)
	if v, ok := c.internal.Get(key); ok {
		if s, ok := v.(core.Series); ok {
			return s, nil
		}
	}

	s, err := LoadFile(path, symbol, interval)
	if err != nil {
		return core.Series{}, err
	}
	if annotate {
		s = indicator.Annotate(s, c.params)
	}
	c.internal.SetDefault(key, s)
	return s, nil
}

// Len returns the number of cached series.
func (c *Cache) Len() int {
	return c.internal.ItemCount()
}

// Flush drops every cached series.
func (c *Cache) Flush() {
	c.internal.Flush()
}
