package service

import (
	"testing"

	"parking-service/internal/domain/parking"
)

func TestVerifiedPairsValidPair(t *testing.T) {
	env := newTestEnv(t)
	env.addEntry(t, "e1", "30A-12345", "f1", ts(10, 0))
	env.addExit(t, "x1", "30A-12345", "f1", ts(10, 30))
	env.addVerification(t, "x1", true)
	env.addMap(t, "e1", "x1")

	pairs, err := env.pairing.VerifiedPairs(env.ctx)
	if err != nil {
		t.Fatalf("VerifiedPairs returned error: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}

	pair := pairs[0]
	if !pair.IsValidPair {
		t.Fatal("expected pair to be valid")
	}
	if !pair.FaceMatchVerified {
		t.Fatal("expected verification to be present")
	}
	if pair.FaceMatchResult == nil || !*pair.FaceMatchResult {
		t.Fatal("expected a passing face match result")
	}
	if pair.EntrySessionID != "e1" || pair.ExitSessionID != "x1" {
		t.Fatalf("unexpected pair ids: %s, %s", pair.EntrySessionID, pair.ExitSessionID)
	}
}

func TestVerifiedPairsInvalidity(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, env *testEnv)
	}{
		{
			name: "no verification record",
			setup: func(t *testing.T, env *testEnv) {
				env.addEntry(t, "e1", "30A-12345", "f1", ts(10, 0))
				env.addExit(t, "x1", "30A-12345", "f1", ts(10, 30))
				env.addMap(t, "e1", "x1")
			},
		},
		{
			name: "failed face match",
			setup: func(t *testing.T, env *testEnv) {
				env.addEntry(t, "e1", "30A-12345", "f1", ts(10, 0))
				env.addExit(t, "x1", "30A-12345", "f1", ts(10, 30))
				env.addVerification(t, "x1", false)
				env.addMap(t, "e1", "x1")
			},
		},
		{
			name: "entry not before exit",
			setup: func(t *testing.T, env *testEnv) {
				env.addEntry(t, "e1", "30A-12345", "f1", ts(11, 0))
				env.addExit(t, "x1", "30A-12345", "f1", ts(10, 30))
				env.addVerification(t, "x1", true)
				env.addMap(t, "e1", "x1")
			},
		},
		{
			name: "plate disagreement",
			setup: func(t *testing.T, env *testEnv) {
				env.addEntry(t, "e1", "30A-12345", "f1", ts(10, 0))
				env.addExit(t, "x1", "99Z-00000", "f1", ts(10, 30))
				env.addVerification(t, "x1", true)
				env.addMap(t, "e1", "x1")
			},
		},
		{
			name: "face disagreement",
			setup: func(t *testing.T, env *testEnv) {
				env.addEntry(t, "e1", "30A-12345", "f1", ts(10, 0))
				env.addExit(t, "x1", "30A-12345", "f9", ts(10, 30))
				env.addVerification(t, "x1", true)
				env.addMap(t, "e1", "x1")
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := newTestEnv(t)
			tc.setup(t, env)

			pairs, err := env.pairing.VerifiedPairs(env.ctx)
			if err != nil {
				t.Fatalf("VerifiedPairs returned error: %v", err)
			}
			if len(pairs) != 1 {
				t.Fatalf("expected 1 pair, got %d", len(pairs))
			}
			if pairs[0].IsValidPair {
				t.Fatal("expected pair to be invalid")
			}
		})
	}
}

// Absent plate or face evidence on one side must not invalidate a pair.
func TestVerifiedPairsPartialEvidenceAccepted(t *testing.T) {
	env := newTestEnv(t)
	env.addSession(t, parking.Session{
		ID:        "e1",
		Gate:      parking.GateIn,
		Timestamp: ts(10, 0),
		FaceIndex: "f1",
		// plate never resolved on entry
	})
	env.addSession(t, parking.Session{
		ID:          "x1",
		Gate:        parking.GateOut,
		Timestamp:   ts(10, 30),
		PlateNumber: strp("30A-12345"),
		// face never detected on exit
	})
	env.addVerification(t, "x1", true)
	env.addMap(t, "e1", "x1")

	pairs, err := env.pairing.VerifiedPairs(env.ctx)
	if err != nil {
		t.Fatalf("VerifiedPairs returned error: %v", err)
	}
	if len(pairs) != 1 || !pairs[0].IsValidPair {
		t.Fatalf("partial evidence should not invalidate the pair: %+v", pairs)
	}
}

// Placeholder plates count as absent, never as a mismatch.
func TestVerifiedPairsPlaceholderPlateIsAbsent(t *testing.T) {
	env := newTestEnv(t)
	env.addEntry(t, "e1", "Detecting...", "f1", ts(10, 0))
	env.addExit(t, "x1", "30A-12345", "f1", ts(10, 30))
	env.addVerification(t, "x1", true)
	env.addMap(t, "e1", "x1")

	pairs, err := env.pairing.VerifiedPairs(env.ctx)
	if err != nil {
		t.Fatalf("VerifiedPairs returned error: %v", err)
	}
	if len(pairs) != 1 || !pairs[0].IsValidPair {
		t.Fatal("placeholder entry plate should not conflict with the exit plate")
	}
}

func TestVerifiedPairsSkipsMissingSessions(t *testing.T) {
	env := newTestEnv(t)
	env.addEntry(t, "e1", "30A-12345", "f1", ts(10, 0))
	env.addMap(t, "e1", "x-gone")

	pairs, err := env.pairing.VerifiedPairs(env.ctx)
	if err != nil {
		t.Fatalf("VerifiedPairs returned error: %v", err)
	}
	if len(pairs) != 0 {
		t.Fatalf("pair referencing a missing session should be skipped, got %+v", pairs)
	}
}

// With conflicting verification records for one exit, any passing
// record wins.
func TestVerifiedPairsAnyTrueWins(t *testing.T) {
	env := newTestEnv(t)
	env.addEntry(t, "e1", "30A-12345", "f1", ts(10, 0))
	env.addExit(t, "x1", "30A-12345", "f1", ts(10, 30))
	env.addVerification(t, "x1", false)
	env.addVerification(t, "x1", true)
	env.addVerification(t, "x1", false)
	env.addMap(t, "e1", "x1")

	pairs, err := env.pairing.VerifiedPairs(env.ctx)
	if err != nil {
		t.Fatalf("VerifiedPairs returned error: %v", err)
	}
	if len(pairs) != 1 {
		t.Fatalf("expected 1 pair, got %d", len(pairs))
	}
	if !pairs[0].IsValidPair {
		t.Fatal("a passing verification among conflicting records should validate the pair")
	}
	if pairs[0].FaceMatchResult == nil || !*pairs[0].FaceMatchResult {
		t.Fatal("face match result should report the passing record")
	}
}
