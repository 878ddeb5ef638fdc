package utils

import (
	"testing"
	"time"
)

func TestParseTimestampNativeTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	got, err := ParseTimestamp(now)
	if err != nil {
		t.Fatalf("ParseTimestamp returned error: %v", err)
	}
	if !got.Equal(now) {
		t.Fatalf("ParseTimestamp = %v, want %v", got, now)
	}
}

func TestParseTimestampStrings(t *testing.T) {
	want := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		raw  string
	}{
		{"rfc3339 with z", "2024-05-01T10:30:00Z"},
		{"rfc3339 with offset", "2024-05-01T10:30:00+00:00"},
		{"bare iso", "2024-05-01T10:30:00"},
		{"space separated", "2024-05-01 10:30:00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimestamp(tc.raw)
			if err != nil {
				t.Fatalf("ParseTimestamp(%q) returned error: %v", tc.raw, err)
			}
			if !got.Equal(want) {
				t.Fatalf("ParseTimestamp(%q) = %v, want %v", tc.raw, got, want)
			}
		})
	}
}

func TestParseTimestampUnparsable(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
	}{
		{"garbage", "not-a-timestamp"},
		{"empty string", ""},
		{"nil", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseTimestamp(tc.raw)
			if err == nil {
				t.Fatalf("ParseTimestamp(%v) expected error", tc.raw)
			}
			if !got.IsZero() {
				t.Fatalf("ParseTimestamp(%v) = %v, want zero time", tc.raw, got)
			}
		})
	}
}

// The zero time must sort before every real timestamp so broken records
// never win a most-recent tie-break.
func TestUnparsableTimestampSortsFirst(t *testing.T) {
	broken, _ := ParseTimestamp("garbage")
	real, err := ParseTimestamp("2024-05-01T10:30:00Z")
	if err != nil {
		t.Fatalf("ParseTimestamp returned error: %v", err)
	}
	if !broken.Before(real) {
		t.Fatalf("zero time %v should sort before %v", broken, real)
	}
}
