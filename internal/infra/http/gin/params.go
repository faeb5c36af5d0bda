package ginserver

import (
	"fmt"
	"time"

	"stayquote/internal/domain/shared/daterange"
)

// parseDays parses optional YYYY-MM-DD values keyed by field name. Empty
// values stay zero.
func parseDays(fields map[string]string) (map[string]time.Time, error) {
	out := make(map[string]time.Time, len(fields))
	for name, raw := range fields {
		d, err := daterange.ParseDay(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		out[name] = d
	}
	return out, nil
}
