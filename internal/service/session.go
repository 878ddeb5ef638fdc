package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parking-service/internal/docstore"
	"parking-service/internal/domain/parking"
	"parking-service/internal/repository"
	"parking-service/internal/utils"
)

// SessionService owns the session lifecycle: gate-event creation, plate
// back-fill, verification ingestion, and the finalize-exit transition
// that commits a pairing decision back to the store.
type SessionService struct {
	repo      *repository.ParkingRepository
	occupancy *OccupancyService
	slots     *SlotService
	log       zerolog.Logger
}

func NewSessionService(repo *repository.ParkingRepository, occupancy *OccupancyService, slots *SlotService, log zerolog.Logger) *SessionService {
	return &SessionService{
		repo:      repo,
		occupancy: occupancy,
		slots:     slots,
		log:       log,
	}
}

type CreateSessionInput struct {
	Gate          parking.Gate
	PlateImageRef string
	FaceImageRef  string
	FaceIndex     string
	PlateNumber   *string
}

// CreateSession records a new gate event. isOut is always false at
// creation regardless of gate; finalization is an explicit separate
// step, never triggered here.
func (s *SessionService) CreateSession(ctx context.Context, in CreateSessionInput) (*parking.Session, error) {
	if in.Gate != parking.GateIn && in.Gate != parking.GateOut {
		return nil, fmt.Errorf("%w: gate must be %q or %q", ErrInvalidArgument, parking.GateIn, parking.GateOut)
	}

	var plate *string
	if in.PlateNumber != nil {
		if normalized := utils.NormalizePlate(*in.PlateNumber); normalized != "" {
			plate = &normalized
		}
	}

	session := parking.Session{
		ID:            uuid.New().String(),
		PlateImageRef: in.PlateImageRef,
		FaceImageRef:  in.FaceImageRef,
		Timestamp:     time.Now().UTC(),
		Gate:          in.Gate,
		IsOut:         false,
		FaceIndex:     in.FaceIndex,
		PlateNumber:   plate,
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		s.log.Error().Err(err).Str("gate", string(in.Gate)).Msg("failed to create session")
		return nil, wrapStoreErr("create session", err)
	}

	ev := parking.Normalize(session)
	if ev.HasPlate() {
		if err := s.repo.SetPlateHint(ctx, *ev.Plate, session.ID); err != nil {
			return nil, wrapStoreErr("update plate map", err)
		}
	}

	s.log.Info().
		Str("session_id", session.ID).
		Str("gate", string(session.Gate)).
		Str("face_index", session.FaceIndex).
		Msg("session created")

	return &session, nil
}

func (s *SessionService) GetSession(ctx context.Context, id string) (*parking.Session, error) {
	session, err := s.repo.GetSession(ctx, id)
	if err != nil {
		return nil, wrapStoreErr("get session", err)
	}
	return session, nil
}

// SessionsByGate lists sessions for one gate, most recent first.
func (s *SessionService) SessionsByGate(ctx context.Context, gate parking.Gate, limit int) ([]parking.Session, error) {
	if gate != parking.GateIn && gate != parking.GateOut {
		return nil, fmt.Errorf("%w: gate must be %q or %q", ErrInvalidArgument, parking.GateIn, parking.GateOut)
	}
	sessions, err := s.repo.SessionsByGate(ctx, gate)
	if err != nil {
		return nil, wrapStoreErr("list sessions", err)
	}
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Timestamp.After(sessions[j].Timestamp)
	})
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// SessionByPlate resolves a session via the PlateMap hint.
func (s *SessionService) SessionByPlate(ctx context.Context, plate string) (*parking.Session, error) {
	normalized := utils.NormalizePlate(plate)
	if normalized == "" {
		return nil, fmt.Errorf("%w: plate number is required", ErrInvalidArgument)
	}
	sessionID, err := s.repo.PlateHint(ctx, normalized)
	if err != nil {
		return nil, wrapStoreErr("look up plate map", err)
	}
	return s.GetSession(ctx, sessionID)
}

// UpdatePlateNumber back-fills a session's plate once asynchronous OCR
// completes. Does not re-trigger pairing.
func (s *SessionService) UpdatePlateNumber(ctx context.Context, sessionID, plate string) error {
	normalized := utils.NormalizePlate(plate)
	if normalized == "" {
		return fmt.Errorf("%w: plate number is empty or a placeholder", ErrInvalidArgument)
	}

	if err := s.repo.UpdatePlateNumber(ctx, sessionID, normalized); err != nil {
		return wrapStoreErr("update plate number", err)
	}
	if err := s.repo.SetPlateHint(ctx, normalized, sessionID); err != nil {
		return wrapStoreErr("update plate map", err)
	}

	s.log.Info().
		Str("session_id", sessionID).
		Str("plate", normalized).
		Msg("plate number back-filled")
	return nil
}

// RecordVerification persists a face-match verdict for an exit session.
func (s *SessionService) RecordVerification(ctx context.Context, sessionID string, isMatch bool) (string, error) {
	if sessionID == "" {
		return "", fmt.Errorf("%w: session id is required", ErrInvalidArgument)
	}
	id, err := s.repo.CreateVerification(ctx, sessionID, isMatch)
	if err != nil {
		return "", wrapStoreErr("create verification", err)
	}
	s.log.Info().
		Str("session_id", sessionID).
		Bool("is_match", isMatch).
		Msg("face match verification recorded")
	return id, nil
}

// FinalizeExit commits a pairing decision for a verified exit session:
// it claims the most recent qualifying entry, then materializes the
// (entry, exit) map row. The claim is a compare-and-swap on the entry's
// isOut flag, so two exits racing for the same entry cannot both win;
// the loser moves on to the next candidate. The map row is written
// last, being the least reversible step.
func (s *SessionService) FinalizeExit(ctx context.Context, exitSessionID string) (*parking.FinalizeResult, error) {
	exit, err := s.repo.GetSession(ctx, exitSessionID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: exit session %s", ErrNotFound, exitSessionID)
		}
		return nil, wrapStoreErr("get exit session", err)
	}
	if exit.Gate != parking.GateOut {
		return nil, fmt.Errorf("%w: session %s is not an exit session", ErrInvalidState, exitSessionID)
	}

	ev := parking.Normalize(*exit)
	if !ev.HasPlate() || !ev.HasFace() {
		return nil, fmt.Errorf("%w: exit session missing plate number or face index", ErrMissingEvidence)
	}

	verifications, err := s.repo.PassingVerifications(ctx, exitSessionID)
	if err != nil {
		return nil, wrapStoreErr("load verifications", err)
	}
	if len(verifications) == 0 {
		return nil, fmt.Errorf("%w: no passing face match for exit session", ErrUnverified)
	}

	candidates, err := s.repo.OpenEntryCandidates(ctx, *ev.Plate, *ev.Face)
	if err != nil {
		return nil, wrapStoreErr("load entry candidates", err)
	}

	qualifying := candidates[:0]
	for _, c := range candidates {
		if !c.Timestamp.After(ev.Time) {
			qualifying = append(qualifying, c)
		}
	}
	if len(qualifying) == 0 {
		return nil, fmt.Errorf("%w: no matching entry session to finalize", ErrNoMatch)
	}

	// Most recent qualifying entry first: the latest unexited entry for
	// this identity is the one exiting now.
	sort.SliceStable(qualifying, func(i, j int) bool {
		return qualifying[i].Timestamp.After(qualifying[j].Timestamp)
	})

	var entryID string
	for _, candidate := range qualifying {
		claimed, err := s.repo.ClaimEntry(ctx, candidate.ID)
		if err != nil {
			return nil, wrapStoreErr("claim entry session", err)
		}
		if claimed {
			entryID = candidate.ID
			break
		}
		s.log.Warn().
			Str("entry_session_id", candidate.ID).
			Str("exit_session_id", exitSessionID).
			Msg("entry session already claimed by a concurrent exit")
	}
	if entryID == "" {
		return nil, fmt.Errorf("%w: all candidate entry sessions already claimed", ErrNoMatch)
	}

	mapID, err := s.repo.FindSessionMap(ctx, entryID, exitSessionID)
	if err != nil {
		return nil, wrapStoreErr("look up session map", err)
	}
	if mapID == "" {
		mapID, err = s.repo.CreateSessionMap(ctx, entryID, exitSessionID)
		if err != nil {
			return nil, wrapStoreErr("create session map", err)
		}
	}

	count := 0
	if occ, err := s.occupancy.CurrentVehicles(ctx); err != nil {
		s.log.Warn().Err(err).Msg("failed to recompute occupancy after finalize")
	} else {
		count = occ.Count
	}

	s.log.Info().
		Str("entry_session_id", entryID).
		Str("exit_session_id", exitSessionID).
		Str("session_map_id", mapID).
		Int("current_vehicle_count", count).
		Msg("exit finalized")

	return &parking.FinalizeResult{
		EntrySessionID:      entryID,
		ExitSessionID:       exitSessionID,
		SessionMapID:        mapID,
		CurrentVehicleCount: count,
	}, nil
}

// DashboardStats aggregates the dashboard numbers. Degrades to safe
// defaults instead of failing; the dashboard tolerates stale zeros,
// not 500s.
func (s *SessionService) DashboardStats(ctx context.Context) parking.DashboardStats {
	stats := parking.DashboardStats{}

	if occ, err := s.occupancy.CurrentVehicles(ctx); err != nil {
		s.log.Error().Err(err).Msg("dashboard stats: occupancy unavailable")
	} else {
		stats.CurrentVehicles = occ.Count
		stats.TotalEntries = occ.TotalEntries
	}

	total, err := s.slots.TotalSlots(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("dashboard stats: slot counter unavailable")
		stats.TotalSlots = total
		stats.AvailableSlots = total
		return stats
	}
	stats.TotalSlots = total

	if available, err := s.slots.AvailableSlots(ctx); err != nil {
		s.log.Error().Err(err).Msg("dashboard stats: available slots unavailable")
		stats.AvailableSlots = total
	} else {
		stats.AvailableSlots = available
	}

	return stats
}
