package parking

import (
	"time"

	"parking-service/internal/utils"
)

// Evidence is the normalized identity signal carried by one session:
// a resolved plate number, a face identifier, and a comparable time.
// Nil means the signal is absent or still a detection placeholder.
type Evidence struct {
	Plate *string
	Face  *string
	Time  time.Time
}

// Normalize extracts pairing evidence from a session. Pure; placeholder
// plates ("", "N/A", "Detecting...") and empty face indices map to nil.
func Normalize(s Session) Evidence {
	ev := Evidence{Time: s.Timestamp}
	if s.PlateNumber != nil {
		if plate := utils.NormalizePlate(*s.PlateNumber); plate != "" {
			ev.Plate = &plate
		}
	}
	if face := s.FaceIndex; face != "" {
		ev.Face = &face
	}
	return ev
}

// HasPlate reports whether the session carries a resolved plate number.
func (e Evidence) HasPlate() bool { return e.Plate != nil }

// HasFace reports whether the session carries a face identifier.
func (e Evidence) HasFace() bool { return e.Face != nil }
