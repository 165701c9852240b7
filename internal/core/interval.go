package core

import (
	"fmt"
	"strconv"
	"strings"
)

// IntervalMinutes converts a bar interval such as "5m", "1h", "1d", "1wk"
// or "1mo" to minutes. Months count as 30 days.
func IntervalMinutes(interval string) (int, error) {
	s := strings.ToLower(strings.TrimSpace(interval))
	if s == "" {
		return 0, WrapError(ErrConfigInvalid, fmt.Errorf("empty interval"))
	}

	units := []struct {
		suffix  string
		minutes int
	}{
		{"mo", 30 * 24 * 60},
		{"wk", 7 * 24 * 60},
		{"m", 1},
		{"h", 60},
		{"d", 24 * 60},
	}

	for _, u := range units {
		if !strings.HasSuffix(s, u.suffix) {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSuffix(s, u.suffix))
		if err != nil || n <= 0 {
			return 0, WrapError(ErrConfigInvalid, fmt.Errorf("invalid interval %q", interval))
		}
		return n * u.minutes, nil
	}

	return 0, WrapError(ErrConfigInvalid, fmt.Errorf("unknown interval unit in %q", interval))
}
