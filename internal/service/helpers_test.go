package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"parking-service/internal/docstore"
	"parking-service/internal/domain/parking"
	"parking-service/internal/repository"
)

type testEnv struct {
	ctx       context.Context
	store     *docstore.MemoryStore
	repo      *repository.ParkingRepository
	pairing   *PairingService
	occupancy *OccupancyService
	slots     *SlotService
	sessions  *SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	log := zerolog.Nop()
	store := docstore.NewMemoryStore()
	repo := repository.NewParkingRepository(store, log)

	pairing := NewPairingService(repo, log)
	occupancy := NewOccupancyService(repo, pairing, log)
	slots := NewSlotService(repo, occupancy, 10, log)
	sessions := NewSessionService(repo, occupancy, slots, log)

	return &testEnv{
		ctx:       context.Background(),
		store:     store,
		repo:      repo,
		pairing:   pairing,
		occupancy: occupancy,
		slots:     slots,
		sessions:  sessions,
	}
}

func strp(s string) *string { return &s }

func ts(hour, min int) time.Time {
	return time.Date(2024, 5, 1, hour, min, 0, 0, time.UTC)
}

func (e *testEnv) addSession(t *testing.T, s parking.Session) {
	t.Helper()
	if err := e.repo.CreateSession(e.ctx, s); err != nil {
		t.Fatalf("create session %s: %v", s.ID, err)
	}
}

func (e *testEnv) addEntry(t *testing.T, id, plate, face string, at time.Time) {
	t.Helper()
	e.addSession(t, parking.Session{
		ID:          id,
		Gate:        parking.GateIn,
		Timestamp:   at,
		FaceIndex:   face,
		PlateNumber: strp(plate),
	})
}

func (e *testEnv) addExit(t *testing.T, id, plate, face string, at time.Time) {
	t.Helper()
	e.addSession(t, parking.Session{
		ID:          id,
		Gate:        parking.GateOut,
		Timestamp:   at,
		FaceIndex:   face,
		PlateNumber: strp(plate),
	})
}

func (e *testEnv) addVerification(t *testing.T, sessionID string, isMatch bool) {
	t.Helper()
	if _, err := e.repo.CreateVerification(e.ctx, sessionID, isMatch); err != nil {
		t.Fatalf("create verification for %s: %v", sessionID, err)
	}
}

func (e *testEnv) addMap(t *testing.T, entryID, exitID string) {
	t.Helper()
	if _, err := e.repo.CreateSessionMap(e.ctx, entryID, exitID); err != nil {
		t.Fatalf("create session map (%s, %s): %v", entryID, exitID, err)
	}
}
