package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore keeps every collection in one documents table with a
// JSONB fields column, so equality queries work on any field without
// per-collection schemas.
type PostgresStore struct {
	db *gorm.DB
}

func NewPostgresStore(db *gorm.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type documentRecord struct {
	ID         int64             `gorm:"primaryKey"`
	Collection string            `gorm:"not null"`
	DocID      string            `gorm:"not null"`
	Fields     datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentRecord) TableName() string { return "documents" }

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var rec documentRecord
	err := s.db.WithContext(ctx).
		Where("collection = ? AND doc_id = ?", collection, id).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	if err != nil {
		return nil, err
	}
	return &Document{ID: rec.DocID, Fields: map[string]interface{}(rec.Fields)}, nil
}

func (s *PostgresStore) Set(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	rec := documentRecord{
		Collection: collection,
		DocID:      id,
		Fields:     datatypes.JSONMap(fields),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"fields", "updated_at"}),
		}).
		Create(&rec).Error
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	merge, err := mergeExpr(fields)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&documentRecord{}).
		Where("collection = ? AND doc_id = ?", collection, id).
		Updates(map[string]interface{}{"fields": merge, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s/%s", ErrNotFound, collection, id)
	}
	return nil
}

func (s *PostgresStore) UpdateIf(ctx context.Context, collection, id, field string, expect interface{}, fields map[string]interface{}) (bool, error) {
	merge, err := mergeExpr(fields)
	if err != nil {
		return false, err
	}
	res := s.db.WithContext(ctx).Model(&documentRecord{}).
		Where("collection = ? AND doc_id = ? AND fields->>? = ?", collection, id, field, jsonText(expect)).
		Updates(map[string]interface{}{"fields": merge, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}
	// Distinguish a failed precondition from a missing document.
	if _, err := s.Get(ctx, collection, id); err != nil {
		return false, err
	}
	return false, nil
}

func (s *PostgresStore) Query(ctx context.Context, collection string, filters ...Filter) ([]Document, error) {
	query := s.db.WithContext(ctx).Model(&documentRecord{}).
		Where("collection = ?", collection)
	for _, f := range filters {
		query = query.Where("fields->>? = ?", f.Field, jsonText(f.Value))
	}

	var recs []documentRecord
	if err := query.Find(&recs).Error; err != nil {
		return nil, err
	}

	docs := make([]Document, 0, len(recs))
	for _, rec := range recs {
		docs = append(docs, Document{ID: rec.DocID, Fields: map[string]interface{}(rec.Fields)})
	}
	return docs, nil
}

// mergeExpr builds a JSONB concatenation so partial updates stay a
// single atomic statement.
func mergeExpr(fields map[string]interface{}) (interface{}, error) {
	b, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal partial fields: %w", err)
	}
	return gorm.Expr("fields || ?::jsonb", string(b)), nil
}

// jsonText renders a filter value the way Postgres' ->> operator
// renders the stored JSON scalar.
func jsonText(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", t)
	}
}
