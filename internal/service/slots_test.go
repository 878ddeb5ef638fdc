package service

import (
	"errors"
	"testing"

	"parking-service/internal/domain/parking"
)

func TestTotalSlotsLazyDefault(t *testing.T) {
	env := newTestEnv(t)

	total, err := env.slots.TotalSlots(env.ctx)
	if err != nil {
		t.Fatalf("TotalSlots returned error: %v", err)
	}
	if total != 10 {
		t.Fatalf("total = %d, want default 10", total)
	}

	// The counter document is created on first read.
	counter, err := env.repo.SlotCounter(env.ctx)
	if err != nil {
		t.Fatalf("slot counter not created: %v", err)
	}
	if counter.Total != 10 || counter.Available != 10 {
		t.Fatalf("counter = %+v, want 10/10", counter)
	}
}

func TestUpdateTotalSlotsRoundTrip(t *testing.T) {
	env := newTestEnv(t)

	for _, n := range []int{0, 5, 42} {
		if _, err := env.slots.UpdateTotalSlots(env.ctx, n); err != nil {
			t.Fatalf("UpdateTotalSlots(%d) returned error: %v", n, err)
		}
		total, err := env.slots.TotalSlots(env.ctx)
		if err != nil {
			t.Fatalf("TotalSlots returned error: %v", err)
		}
		if total != n {
			t.Fatalf("total = %d, want %d", total, n)
		}
	}
}

func TestUpdateTotalSlotsRejectsNegative(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.slots.UpdateTotalSlots(env.ctx, 7); err != nil {
		t.Fatalf("seed update returned error: %v", err)
	}

	_, err := env.slots.UpdateTotalSlots(env.ctx, -1)
	if !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("error = %v, want ErrInvalidArgument", err)
	}

	// Stored value unchanged.
	total, err := env.slots.TotalSlots(env.ctx)
	if err != nil {
		t.Fatalf("TotalSlots returned error: %v", err)
	}
	if total != 7 {
		t.Fatalf("total = %d, want 7 after rejected update", total)
	}
}

// availableSlots is clamped at zero when occupancy exceeds capacity.
func TestAvailableSlotsClamped(t *testing.T) {
	env := newTestEnv(t)
	plates := []string{"10A-00001", "10A-00002", "10A-00003", "10A-00004", "10A-00005", "10A-00006", "10A-00007"}
	for i, plate := range plates {
		env.addEntry(t, plate, plate, "f", ts(9, i))
	}

	if _, err := env.slots.UpdateTotalSlots(env.ctx, 5); err != nil {
		t.Fatalf("UpdateTotalSlots returned error: %v", err)
	}

	available, err := env.slots.AvailableSlots(env.ctx)
	if err != nil {
		t.Fatalf("AvailableSlots returned error: %v", err)
	}
	if available != 0 {
		t.Fatalf("available = %d, want 0 (clamped)", available)
	}
}

// Holding total fixed, available moves down by one on entry and back up
// by one after the matching exit is finalized.
func TestAvailableSlotsTracksOccupancy(t *testing.T) {
	env := newTestEnv(t)

	before, err := env.slots.AvailableSlots(env.ctx)
	if err != nil {
		t.Fatalf("AvailableSlots returned error: %v", err)
	}

	env.addEntry(t, "e1", "30A-12345", "f1", ts(10, 0))

	afterEntry, err := env.slots.AvailableSlots(env.ctx)
	if err != nil {
		t.Fatalf("AvailableSlots returned error: %v", err)
	}
	if afterEntry != before-1 {
		t.Fatalf("available after entry = %d, want %d", afterEntry, before-1)
	}

	env.addExit(t, "x1", "30A-12345", "f1", ts(10, 30))
	env.addVerification(t, "x1", true)
	if _, err := env.sessions.FinalizeExit(env.ctx, "x1"); err != nil {
		t.Fatalf("FinalizeExit returned error: %v", err)
	}

	afterExit, err := env.slots.AvailableSlots(env.ctx)
	if err != nil {
		t.Fatalf("AvailableSlots returned error: %v", err)
	}
	if afterExit != before {
		t.Fatalf("available after exit = %d, want %d", afterExit, before)
	}
}

// The persisted available value is refreshed as a cache on every read.
func TestAvailableSlotsPersistsCache(t *testing.T) {
	env := newTestEnv(t)
	env.addEntry(t, "e1", "30A-12345", "f1", ts(10, 0))

	available, err := env.slots.AvailableSlots(env.ctx)
	if err != nil {
		t.Fatalf("AvailableSlots returned error: %v", err)
	}

	counter, err := env.repo.SlotCounter(env.ctx)
	if err != nil {
		t.Fatalf("SlotCounter returned error: %v", err)
	}
	if counter.Available != available {
		t.Fatalf("persisted available = %d, computed %d", counter.Available, available)
	}
}

func TestDashboardStats(t *testing.T) {
	env := newTestEnv(t)
	env.addEntry(t, "e1", "30A-12345", "f1", ts(10, 0))
	env.addEntry(t, "e2", "51B-67890", "f2", ts(10, 5))

	stats := env.sessions.DashboardStats(env.ctx)
	want := parking.DashboardStats{
		CurrentVehicles: 2,
		TotalEntries:    2,
		AvailableSlots:  8,
		TotalSlots:      10,
	}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}
