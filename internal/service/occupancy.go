package service

import (
	"context"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"parking-service/internal/domain/parking"
	"parking-service/internal/repository"
)

// OccupancyService derives which vehicles are currently inside the
// parking area. It is the single occupancy source; slot accounting and
// dashboard stats must go through it rather than re-derive their own
// notion of "parked".
type OccupancyService struct {
	repo    *repository.ParkingRepository
	pairing *PairingService
	log     zerolog.Logger
}

func NewOccupancyService(repo *repository.ParkingRepository, pairing *PairingService, log zerolog.Logger) *OccupancyService {
	return &OccupancyService{repo: repo, pairing: pairing, log: log}
}

// CurrentVehicles enumerates entries without a verified exit. Entries
// whose plate number is still unresolved are excluded, so unidentified
// vehicles are never overcounted.
func (s *OccupancyService) CurrentVehicles(ctx context.Context) (*parking.Occupancy, error) {
	pairs, err := s.pairing.VerifiedPairs(ctx)
	if err != nil {
		return nil, err
	}

	exitedEntries := make(map[string]struct{})
	for _, pair := range pairs {
		if pair.IsValidPair && pair.FaceMatchResult != nil && *pair.FaceMatchResult {
			exitedEntries[pair.EntrySessionID] = struct{}{}
		}
	}

	entries, err := s.repo.SessionsByGate(ctx, parking.GateIn)
	if err != nil {
		return nil, wrapStoreErr("load entry sessions", err)
	}

	vehicles := make([]parking.Vehicle, 0, len(entries))
	for _, entry := range entries {
		if _, exited := exitedEntries[entry.ID]; exited {
			continue
		}
		ev := parking.Normalize(entry)
		if !ev.HasPlate() {
			continue
		}
		vehicles = append(vehicles, parking.Vehicle{
			SessionID:   entry.ID,
			FaceIndex:   entry.FaceIndex,
			PlateNumber: *ev.Plate,
			EntryTime:   ev.Time,
			Status:      parking.StatusCurrentlyParked,
		})
	}

	return &parking.Occupancy{
		Count:         len(vehicles),
		Vehicles:      vehicles,
		VerifiedExits: len(exitedEntries),
		TotalEntries:  len(entries),
	}, nil
}

// GroupedSessions builds the dashboard list: completed visits from
// valid pairs, then unpaired entries as active, then unpaired exits as
// failed. An invalid pair is not grouped; its two sides fall through to
// the unmatched buckets so the visible list stays consistent with the
// occupancy count.
func (s *OccupancyService) GroupedSessions(ctx context.Context) ([]parking.GroupedSession, error) {
	pairs, err := s.pairing.VerifiedPairs(ctx)
	if err != nil {
		return nil, err
	}

	grouped := make([]parking.GroupedSession, 0, len(pairs))
	used := make(map[string]struct{})

	for _, pair := range pairs {
		if !pair.IsValidPair || pair.FaceMatchResult == nil || !*pair.FaceMatchResult {
			continue
		}

		entry := pair.EntrySession
		exit := pair.ExitSession

		row := parking.GroupedSession{
			FaceID:            firstNonEmpty(entry.FaceIndex, exit.FaceIndex, "Unknown"),
			LicensePlate:      pairPlate(entry, exit),
			Status:            parking.StatusCompleted,
			EntrySessionID:    strPtr(pair.EntrySessionID),
			ExitSessionID:     strPtr(pair.ExitSessionID),
			FaceImageRef:      strPtr(entry.FaceImageRef),
			PlateImageRef:     strPtr(entry.PlateImageRef),
			ExitFaceImageRef:  strPtr(exit.FaceImageRef),
			ExitPlateImageRef: strPtr(exit.PlateImageRef),
			FaceMatchVerified: pair.FaceMatchVerified,
			FaceMatchResult:   pair.FaceMatchResult,
		}
		if !entry.Timestamp.IsZero() {
			t := entry.Timestamp
			row.EntryTime = &t
		}
		if !exit.Timestamp.IsZero() {
			t := exit.Timestamp
			row.ExitTime = &t
		}
		if row.EntryTime != nil && row.ExitTime != nil {
			minutes := int(row.ExitTime.Sub(*row.EntryTime).Minutes())
			row.DurationMinutes = &minutes
		}

		grouped = append(grouped, row)
		used[pair.EntrySessionID] = struct{}{}
		used[pair.ExitSessionID] = struct{}{}
	}

	entries, err := s.repo.SessionsByGate(ctx, parking.GateIn)
	if err != nil {
		return nil, wrapStoreErr("load entry sessions", err)
	}
	for _, entry := range entries {
		if _, ok := used[entry.ID]; ok {
			continue
		}
		row := parking.GroupedSession{
			FaceID:         firstNonEmpty(entry.FaceIndex, "Unknown"),
			LicensePlate:   sessionPlate(entry),
			Status:         parking.StatusActive,
			EntrySessionID: strPtr(entry.ID),
			FaceImageRef:   strPtr(entry.FaceImageRef),
			PlateImageRef:  strPtr(entry.PlateImageRef),
		}
		if !entry.Timestamp.IsZero() {
			t := entry.Timestamp
			row.EntryTime = &t
		}
		grouped = append(grouped, row)
		used[entry.ID] = struct{}{}
	}

	exits, err := s.repo.SessionsByGate(ctx, parking.GateOut)
	if err != nil {
		return nil, wrapStoreErr("load exit sessions", err)
	}
	for _, exit := range exits {
		if _, ok := used[exit.ID]; ok {
			continue
		}
		row := parking.GroupedSession{
			FaceID:            firstNonEmpty(exit.FaceIndex, "Unknown"),
			LicensePlate:      sessionPlate(exit),
			Status:            parking.StatusFailed,
			ExitSessionID:     strPtr(exit.ID),
			ExitFaceImageRef:  strPtr(exit.FaceImageRef),
			ExitPlateImageRef: strPtr(exit.PlateImageRef),
		}
		if !exit.Timestamp.IsZero() {
			t := exit.Timestamp
			row.ExitTime = &t
		}
		grouped = append(grouped, row)
	}

	sort.SliceStable(grouped, func(i, j int) bool {
		return lastActivity(grouped[i]).After(lastActivity(grouped[j]))
	})

	return grouped, nil
}

func lastActivity(g parking.GroupedSession) time.Time {
	var t time.Time
	if g.EntryTime != nil {
		t = *g.EntryTime
	}
	if g.ExitTime != nil && g.ExitTime.After(t) {
		t = *g.ExitTime
	}
	return t
}

// pairPlate prefers the entry's resolved plate, then the exit's.
func pairPlate(entry, exit parking.Session) string {
	if ev := parking.Normalize(entry); ev.HasPlate() {
		return *ev.Plate
	}
	if ev := parking.Normalize(exit); ev.HasPlate() {
		return *ev.Plate
	}
	return "Unknown"
}

func sessionPlate(s parking.Session) string {
	if ev := parking.Normalize(s); ev.HasPlate() {
		return *ev.Plate
	}
	return "Unknown"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func strPtr(s string) *string { return &s }
