package parking

import (
	"testing"
	"time"
)

func strp(s string) *string { return &s }

func TestNormalizePlaceholderPlates(t *testing.T) {
	tests := []struct {
		name  string
		plate *string
	}{
		{"nil plate", nil},
		{"empty", strp("")},
		{"na", strp("N/A")},
		{"detecting", strp("Detecting...")},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ev := Normalize(Session{PlateNumber: tc.plate})
			if ev.HasPlate() {
				t.Fatalf("placeholder plate %v normalized to %q, want absent", tc.plate, *ev.Plate)
			}
		})
	}
}

func TestNormalizeResolvedEvidence(t *testing.T) {
	ts := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	ev := Normalize(Session{
		PlateNumber: strp(" 30A-12345 "),
		FaceIndex:   "f1",
		Timestamp:   ts,
	})

	if !ev.HasPlate() || *ev.Plate != "30A-12345" {
		t.Fatalf("plate = %v, want 30A-12345", ev.Plate)
	}
	if !ev.HasFace() || *ev.Face != "f1" {
		t.Fatalf("face = %v, want f1", ev.Face)
	}
	if !ev.Time.Equal(ts) {
		t.Fatalf("time = %v, want %v", ev.Time, ts)
	}
}

func TestNormalizeAbsentFace(t *testing.T) {
	ev := Normalize(Session{FaceIndex: ""})
	if ev.HasFace() {
		t.Fatal("empty face index should normalize to absent")
	}
}
