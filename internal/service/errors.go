package service

import (
	"errors"
	"fmt"

	"parking-service/internal/docstore"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("invalid state")
	ErrMissingEvidence = errors.New("missing evidence")
	ErrUnverified      = errors.New("unverified")
	ErrNoMatch         = errors.New("no match")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrStorage         = errors.New("storage error")
)

// wrapStoreErr maps raw store failures onto the service taxonomy:
// missing documents become ErrNotFound, everything else is a retryable
// ErrStorage.
func wrapStoreErr(op string, err error) error {
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, op)
	}
	return fmt.Errorf("%w: %s: %v", ErrStorage, op, err)
}
