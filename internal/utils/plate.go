package utils

import (
	"strings"
)

// placeholders are sentinel values the capture devices write before OCR
// has produced a real plate number. Semantically equivalent to absent.
var placeholders = map[string]struct{}{
	"":             {},
	"N/A":          {},
	"Detecting...": {},
}

// NormalizePlate returns the trimmed plate number, or "" when the value
// is empty or a detection placeholder.
func NormalizePlate(raw string) string {
	plate := strings.TrimSpace(raw)
	if _, ok := placeholders[plate]; ok {
		return ""
	}
	return plate
}

// IsPlaceholderPlate reports whether raw carries no usable plate number.
func IsPlaceholderPlate(raw string) bool {
	return NormalizePlate(raw) == ""
}
