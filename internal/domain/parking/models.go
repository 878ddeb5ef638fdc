package parking

import (
	"time"
)

type Gate string

const (
	GateIn  Gate = "In"
	GateOut Gate = "Out"
)

// Session is one record per physical gate event. PlateNumber stays nil
// until the OCR step back-fills it; IsOut is flipped on the entry record
// once an exit has been finalized against it.
type Session struct {
	ID            string    `json:"session_id"`
	PlateImageRef string    `json:"plateImageRef"`
	FaceImageRef  string    `json:"faceImageRef"`
	Timestamp     time.Time `json:"timestamp"`
	Gate          Gate      `json:"gate"`
	IsOut         bool      `json:"isOut"`
	FaceIndex     string    `json:"faceIndex,omitempty"`
	PlateNumber   *string   `json:"plateNumber"`
}

type MatchingVerify struct {
	ID        string `json:"verify_id"`
	SessionID string `json:"sessionID"`
	IsMatch   bool   `json:"isMatch"`
}

type SessionMap struct {
	ID             string `json:"map_id"`
	EntrySessionID string `json:"entrySessionID"`
	ExitSessionID  string `json:"exitSessionID"`
}

// SlotCounter is the ParkingMeta/slotCounter singleton. Available is a
// denormalized cache of total minus live occupancy, never authoritative.
type SlotCounter struct {
	Total     int `json:"total"`
	Available int `json:"available"`
}

// SessionPair is one reconciled SessionMap row with its verification
// outcome. FaceMatchResult is nil when no verification record exists.
type SessionPair struct {
	EntrySessionID    string  `json:"entry_session_id"`
	ExitSessionID     string  `json:"exit_session_id"`
	EntrySession      Session `json:"entry_session"`
	ExitSession       Session `json:"exit_session"`
	FaceMatchVerified bool    `json:"face_match_verified"`
	FaceMatchResult   *bool   `json:"face_match_result"`
	IsValidPair       bool    `json:"is_valid_pair"`
}

type Vehicle struct {
	SessionID   string    `json:"session_id"`
	FaceIndex   string    `json:"face_index,omitempty"`
	PlateNumber string    `json:"plate_number"`
	EntryTime   time.Time `json:"entry_time"`
	Status      string    `json:"status"`
}

type Occupancy struct {
	Count         int       `json:"count"`
	Vehicles      []Vehicle `json:"vehicles"`
	VerifiedExits int       `json:"verified_exits"`
	TotalEntries  int       `json:"total_entries"`
}

const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusFailed    = "failed"

	StatusCurrentlyParked = "currently_parked"
)

// GroupedSession is the dashboard view row: a completed visit, an
// unpaired entry still parked, or an exit with no valid entry pairing.
type GroupedSession struct {
	FaceID            string     `json:"face_id"`
	LicensePlate      string     `json:"license_plate"`
	EntryTime         *time.Time `json:"entry_time"`
	ExitTime          *time.Time `json:"exit_time"`
	Status            string     `json:"status"`
	DurationMinutes   *int       `json:"duration,omitempty"`
	EntrySessionID    *string    `json:"entry_session_id"`
	ExitSessionID     *string    `json:"exit_session_id"`
	FaceImageRef      *string    `json:"face_image_ref"`
	PlateImageRef     *string    `json:"plate_image_ref"`
	ExitFaceImageRef  *string    `json:"exit_face_image_ref"`
	ExitPlateImageRef *string    `json:"exit_plate_image_ref"`
	FaceMatchVerified bool       `json:"face_match_verified"`
	FaceMatchResult   *bool      `json:"face_match_result"`
}

type FinalizeResult struct {
	EntrySessionID      string `json:"entry_session_id"`
	ExitSessionID       string `json:"exit_session_id"`
	SessionMapID        string `json:"session_map_id"`
	CurrentVehicleCount int    `json:"current_vehicle_count"`
}

type DashboardStats struct {
	CurrentVehicles int `json:"current_vehicles"`
	TotalEntries    int `json:"total_entries"`
	AvailableSlots  int `json:"available_slots"`
	TotalSlots      int `json:"total_slots"`
}
