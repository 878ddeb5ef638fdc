package utils

import (
	"fmt"
	"strings"
	"time"
)

// timestampLayouts cover the shapes gate devices and the store produce:
// RFC 3339 with or without sub-second precision, and bare ISO 8601
// without a zone marker.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp normalizes a raw timestamp value into a time.Time.
// Accepts native times and string encodings. Returns an error and the
// zero time for anything unparsable; the zero time sorts before every
// real timestamp, so a broken record never wins a most-recent tie-break.
func ParseTimestamp(raw interface{}) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("timestamp is missing")
	case time.Time:
		return v.UTC(), nil
	case *time.Time:
		if v == nil {
			return time.Time{}, fmt.Errorf("timestamp is missing")
		}
		return v.UTC(), nil
	case string:
		return parseTimestampString(v)
	default:
		return parseTimestampString(fmt.Sprintf("%v", raw))
	}
}

func parseTimestampString(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("timestamp is empty")
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp format %q", s)
}
