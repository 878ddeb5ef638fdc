package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parking-service/internal/docstore"
	"parking-service/internal/domain/parking"
	"parking-service/internal/utils"
)

const (
	collectionSession        = "Session"
	collectionMatchingVerify = "MatchingVerify"
	collectionSessionMap     = "SessionMap"
	collectionPlateMap       = "PlateMap"
	collectionParkingMeta    = "ParkingMeta"

	docSlotCounter = "slotCounter"
)

// ParkingRepository is the typed access layer over the document store.
// It owns the field encoding for every collection; ambiguous shapes in
// stored data (field casing, timestamp formats) are normalized here and
// never leak past it.
type ParkingRepository struct {
	store docstore.Store
	log   zerolog.Logger
}

func NewParkingRepository(store docstore.Store, log zerolog.Logger) *ParkingRepository {
	return &ParkingRepository{store: store, log: log}
}

// ── Sessions ─────────────────────────────────────────────────────────

func (r *ParkingRepository) CreateSession(ctx context.Context, s parking.Session) error {
	return r.store.Set(ctx, collectionSession, s.ID, encodeSession(s))
}

func (r *ParkingRepository) GetSession(ctx context.Context, id string) (*parking.Session, error) {
	doc, err := r.store.Get(ctx, collectionSession, id)
	if err != nil {
		return nil, err
	}
	s := r.decodeSession(*doc)
	return &s, nil
}

func (r *ParkingRepository) AllSessions(ctx context.Context) ([]parking.Session, error) {
	docs, err := r.store.Query(ctx, collectionSession)
	if err != nil {
		return nil, err
	}
	return r.decodeSessions(docs), nil
}

func (r *ParkingRepository) SessionsByGate(ctx context.Context, gate parking.Gate) ([]parking.Session, error) {
	docs, err := r.store.Query(ctx, collectionSession, docstore.Eq("gate", string(gate)))
	if err != nil {
		return nil, err
	}
	return r.decodeSessions(docs), nil
}

// OpenEntryCandidates returns unresolved entry sessions carrying the
// exact plate and face identity an exit claims.
func (r *ParkingRepository) OpenEntryCandidates(ctx context.Context, plate, faceIndex string) ([]parking.Session, error) {
	docs, err := r.store.Query(ctx, collectionSession,
		docstore.Eq("gate", string(parking.GateIn)),
		docstore.Eq("isOut", false),
		docstore.Eq("plateNumber", plate),
		docstore.Eq("faceIndex", faceIndex),
	)
	if err != nil {
		return nil, err
	}
	return r.decodeSessions(docs), nil
}

func (r *ParkingRepository) UpdatePlateNumber(ctx context.Context, id, plate string) error {
	return r.store.Update(ctx, collectionSession, id, map[string]interface{}{
		"plateNumber": plate,
	})
}

// ClaimEntry atomically flips an entry session's isOut flag from false
// to true. Returns false when another exit already claimed it.
func (r *ParkingRepository) ClaimEntry(ctx context.Context, entryID string) (bool, error) {
	return r.store.UpdateIf(ctx, collectionSession, entryID, "isOut", false, map[string]interface{}{
		"isOut": true,
	})
}

// ── Matching verifications ───────────────────────────────────────────

func (r *ParkingRepository) CreateVerification(ctx context.Context, sessionID string, isMatch bool) (string, error) {
	id := uuid.New().String()
	err := r.store.Set(ctx, collectionMatchingVerify, id, map[string]interface{}{
		"sessionID": sessionID,
		"isMatch":   isMatch,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *ParkingRepository) AllVerifications(ctx context.Context) ([]parking.MatchingVerify, error) {
	docs, err := r.store.Query(ctx, collectionMatchingVerify)
	if err != nil {
		return nil, err
	}
	out := make([]parking.MatchingVerify, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decodeVerification(doc))
	}
	return out, nil
}

// PassingVerifications returns verification records for the exit
// session with isMatch true.
func (r *ParkingRepository) PassingVerifications(ctx context.Context, sessionID string) ([]parking.MatchingVerify, error) {
	docs, err := r.store.Query(ctx, collectionMatchingVerify,
		docstore.Eq("sessionID", sessionID),
		docstore.Eq("isMatch", true),
	)
	if err != nil {
		return nil, err
	}
	out := make([]parking.MatchingVerify, 0, len(docs))
	for _, doc := range docs {
		out = append(out, decodeVerification(doc))
	}
	return out, nil
}

// ── Session maps ─────────────────────────────────────────────────────

func (r *ParkingRepository) CreateSessionMap(ctx context.Context, entryID, exitID string) (string, error) {
	id := uuid.New().String()
	err := r.store.Set(ctx, collectionSessionMap, id, map[string]interface{}{
		"entrySessionID": entryID,
		"exitSessionID":  exitID,
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// FindSessionMap returns the map id for an exact (entry, exit) pair, or
// "" when none exists.
func (r *ParkingRepository) FindSessionMap(ctx context.Context, entryID, exitID string) (string, error) {
	docs, err := r.store.Query(ctx, collectionSessionMap,
		docstore.Eq("entrySessionID", entryID),
		docstore.Eq("exitSessionID", exitID),
	)
	if err != nil {
		return "", err
	}
	if len(docs) == 0 {
		return "", nil
	}
	return docs[0].ID, nil
}

func (r *ParkingRepository) AllSessionMaps(ctx context.Context) ([]parking.SessionMap, error) {
	docs, err := r.store.Query(ctx, collectionSessionMap)
	if err != nil {
		return nil, err
	}
	out := make([]parking.SessionMap, 0, len(docs))
	for _, doc := range docs {
		out = append(out, parking.SessionMap{
			ID:             doc.ID,
			EntrySessionID: stringField(doc.Fields, "entrySessionID"),
			ExitSessionID:  stringField(doc.Fields, "exitSessionID"),
		})
	}
	return out, nil
}

// ── Plate map ────────────────────────────────────────────────────────

// SetPlateHint records the most recent session id seen for a plate.
// A fast-lookup hint only, never authoritative for pairing.
func (r *ParkingRepository) SetPlateHint(ctx context.Context, plate, sessionID string) error {
	return r.store.Set(ctx, collectionPlateMap, plate, map[string]interface{}{
		"sessionID": sessionID,
	})
}

func (r *ParkingRepository) PlateHint(ctx context.Context, plate string) (string, error) {
	doc, err := r.store.Get(ctx, collectionPlateMap, plate)
	if err != nil {
		return "", err
	}
	return stringField(doc.Fields, "sessionID"), nil
}

// ── Slot counter ─────────────────────────────────────────────────────

func (r *ParkingRepository) SlotCounter(ctx context.Context) (*parking.SlotCounter, error) {
	doc, err := r.store.Get(ctx, collectionParkingMeta, docSlotCounter)
	if err != nil {
		return nil, err
	}
	return &parking.SlotCounter{
		Total:     intField(doc.Fields, "total"),
		Available: intField(doc.Fields, "available"),
	}, nil
}

func (r *ParkingRepository) SetSlotCounter(ctx context.Context, total, available int) error {
	return r.store.Set(ctx, collectionParkingMeta, docSlotCounter, map[string]interface{}{
		"total":     total,
		"available": available,
	})
}

func (r *ParkingRepository) SetAvailableSlots(ctx context.Context, available int) error {
	return r.store.Update(ctx, collectionParkingMeta, docSlotCounter, map[string]interface{}{
		"available": available,
	})
}

// ── Encoding ─────────────────────────────────────────────────────────

func encodeSession(s parking.Session) map[string]interface{} {
	fields := map[string]interface{}{
		"plateImageRef": s.PlateImageRef,
		"faceImageRef":  s.FaceImageRef,
		"timestamp":     s.Timestamp.UTC().Format(time.RFC3339Nano),
		"gate":          string(s.Gate),
		"isOut":         s.IsOut,
		"faceIndex":     s.FaceIndex,
	}
	if s.PlateNumber != nil {
		fields["plateNumber"] = *s.PlateNumber
	} else {
		fields["plateNumber"] = nil
	}
	return fields
}

func (r *ParkingRepository) decodeSession(doc docstore.Document) parking.Session {
	s := parking.Session{
		ID:            doc.ID,
		PlateImageRef: stringField(doc.Fields, "plateImageRef"),
		FaceImageRef:  stringField(doc.Fields, "faceImageRef"),
		Gate:          parking.Gate(stringField(doc.Fields, "gate")),
		IsOut:         boolField(doc.Fields, "isOut"),
		FaceIndex:     stringField(doc.Fields, "faceIndex"),
	}

	// Legacy documents carry the plate under lowercase "platenumber".
	plate, ok := doc.Fields["plateNumber"]
	if !ok || plate == nil {
		plate = doc.Fields["platenumber"]
	}
	if str, ok := plate.(string); ok {
		s.PlateNumber = &str
	}

	ts, err := utils.ParseTimestamp(doc.Fields["timestamp"])
	if err != nil {
		r.log.Warn().
			Str("session_id", doc.ID).
			Interface("timestamp", doc.Fields["timestamp"]).
			Err(err).
			Msg("session has unparsable timestamp")
	}
	s.Timestamp = ts

	return s
}

func (r *ParkingRepository) decodeSessions(docs []docstore.Document) []parking.Session {
	out := make([]parking.Session, 0, len(docs))
	for _, doc := range docs {
		out = append(out, r.decodeSession(doc))
	}
	return out
}

func decodeVerification(doc docstore.Document) parking.MatchingVerify {
	return parking.MatchingVerify{
		ID:        doc.ID,
		SessionID: stringField(doc.Fields, "sessionID"),
		IsMatch:   boolField(doc.Fields, "isMatch"),
	}
}

func stringField(fields map[string]interface{}, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func boolField(fields map[string]interface{}, key string) bool {
	if v, ok := fields[key].(bool); ok {
		return v
	}
	return false
}

func intField(fields map[string]interface{}, key string) int {
	switch v := fields[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
