// Package docstore provides a minimal document-store abstraction:
// keyed collections of schemaless documents with equality queries and
// single-document atomic writes. Backends must guarantee per-document
// atomicity only; cross-document transactions are not part of the
// contract.
package docstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("document not found")

// Document is one stored record. Fields holds JSON-compatible values
// (string, bool, float64, nil); callers own any richer typing.
type Document struct {
	ID     string
	Fields map[string]interface{}
}

// Filter is an equality predicate on one field. Multiple filters passed
// to Query are combined with logical AND.
type Filter struct {
	Field string
	Value interface{}
}

func Eq(field string, value interface{}) Filter {
	return Filter{Field: field, Value: value}
}

type Store interface {
	// Get returns the document or ErrNotFound.
	Get(ctx context.Context, collection, id string) (*Document, error)

	// Set creates or fully replaces a document.
	Set(ctx context.Context, collection, id string, fields map[string]interface{}) error

	// Update merges fields into an existing document. ErrNotFound if
	// the document does not exist.
	Update(ctx context.Context, collection, id string, fields map[string]interface{}) error

	// UpdateIf atomically merges fields only when the document's
	// current value for field equals expect. Returns false without
	// error when the precondition does not hold, ErrNotFound when the
	// document is absent. This is the compare-and-swap primitive the
	// exit-finalization claim depends on.
	UpdateIf(ctx context.Context, collection, id, field string, expect interface{}, fields map[string]interface{}) (bool, error)

	// Query returns every document in the collection matching all
	// filters. Order is unspecified.
	Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error)
}
