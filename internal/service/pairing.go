package service

import (
	"context"

	"github.com/rs/zerolog"

	"parking-service/internal/domain/parking"
	"parking-service/internal/repository"
)

// PairingService reconciles entry/exit session pairs. It validates the
// claims already materialized as SessionMap rows against verification
// verdicts and plate/face/ordering agreement; it never searches the
// full In×Out cross-product. Proposing new pairs is the lifecycle
// manager's job at finalize time.
type PairingService struct {
	repo *repository.ParkingRepository
	log  zerolog.Logger
}

func NewPairingService(repo *repository.ParkingRepository, log zerolog.Logger) *PairingService {
	return &PairingService{repo: repo, log: log}
}

// VerifiedPairs returns one record per SessionMap row with its
// verification outcome and validity verdict. Rows referencing missing
// sessions are skipped and logged, not fatal.
func (s *PairingService) VerifiedPairs(ctx context.Context) ([]parking.SessionPair, error) {
	maps, err := s.repo.AllSessionMaps(ctx)
	if err != nil {
		return nil, wrapStoreErr("load session maps", err)
	}

	verifications, err := s.repo.AllVerifications(ctx)
	if err != nil {
		return nil, wrapStoreErr("load verifications", err)
	}

	sessions, err := s.repo.AllSessions(ctx)
	if err != nil {
		return nil, wrapStoreErr("load sessions", err)
	}
	byID := make(map[string]parking.Session, len(sessions))
	for _, sess := range sessions {
		byID[sess.ID] = sess
	}

	pairs := make([]parking.SessionPair, 0, len(maps))
	for _, m := range maps {
		if m.EntrySessionID == "" || m.ExitSessionID == "" {
			continue
		}
		entry, okEntry := byID[m.EntrySessionID]
		exit, okExit := byID[m.ExitSessionID]
		if !okEntry || !okExit {
			s.log.Warn().
				Str("map_id", m.ID).
				Str("entry_session_id", m.EntrySessionID).
				Str("exit_session_id", m.ExitSessionID).
				Msg("session map references missing session")
			continue
		}

		verification := findVerification(m.ExitSessionID, verifications)

		pair := parking.SessionPair{
			EntrySessionID:    m.EntrySessionID,
			ExitSessionID:     m.ExitSessionID,
			EntrySession:      entry,
			ExitSession:       exit,
			FaceMatchVerified: verification != nil,
		}
		if verification != nil {
			result := verification.IsMatch
			pair.FaceMatchResult = &result
		}
		pair.IsValidPair = isValidPair(entry, exit, verification)

		pairs = append(pairs, pair)
	}

	return pairs, nil
}

// findVerification picks the verification verdict for an exit session.
// When multiple records exist, any passing one wins.
func findVerification(sessionID string, verifications []parking.MatchingVerify) *parking.MatchingVerify {
	var found *parking.MatchingVerify
	for i := range verifications {
		v := &verifications[i]
		if v.SessionID != sessionID {
			continue
		}
		if v.IsMatch {
			return v
		}
		if found == nil {
			found = v
		}
	}
	return found
}

// isValidPair applies the full agreement test: a passing verification,
// entry strictly before exit, and plate/face equality wherever both
// sides carry the signal. Absent evidence on one side never
// invalidates a pair; OCR and detection are unreliable enough that
// partial agreement is accepted.
func isValidPair(entry, exit parking.Session, verification *parking.MatchingVerify) bool {
	if verification == nil || !verification.IsMatch {
		return false
	}

	entryEv := parking.Normalize(entry)
	exitEv := parking.Normalize(exit)

	if !entryEv.Time.IsZero() && !exitEv.Time.IsZero() && !entryEv.Time.Before(exitEv.Time) {
		return false
	}
	if entryEv.HasPlate() && exitEv.HasPlate() && *entryEv.Plate != *exitEv.Plate {
		return false
	}
	if entryEv.HasFace() && exitEv.HasFace() && *entryEv.Face != *exitEv.Face {
		return false
	}
	return true
}
