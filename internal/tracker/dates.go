package tracker

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// parseDate accepts ISO-8601 timestamps or plain dates. An empty string
// yields nil, matching a cleared date field.
func parseDate(field, raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, invalid(field, "invalid date %q, expected ISO-8601", raw)
}

func parseDatePtr(field string, raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	return parseDate(field, *raw)
}
