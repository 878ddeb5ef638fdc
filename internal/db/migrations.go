package db

import (
	"fmt"

	"gorm.io/gorm"
)

var migrationStatements = []string{
	`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	`CREATE TABLE IF NOT EXISTS documents (
		id              BIGSERIAL PRIMARY KEY,
		collection      TEXT NOT NULL,
		doc_id          TEXT NOT NULL,
		fields          JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ux_documents_collection_doc_id ON documents(collection, doc_id);`,
	`CREATE INDEX IF NOT EXISTS idx_documents_gate ON documents(collection, (fields->>'gate'));`,
	`CREATE INDEX IF NOT EXISTS idx_documents_plate_number ON documents(collection, (fields->>'plateNumber'));`,
	`CREATE INDEX IF NOT EXISTS idx_documents_session_id ON documents(collection, (fields->>'sessionID'));`,
	`CREATE INDEX IF NOT EXISTS idx_documents_entry_session_id ON documents(collection, (fields->>'entrySessionID'));`,
	`INSERT INTO documents (collection, doc_id, fields)
		SELECT 'ParkingMeta', 'slotCounter', '{"total": 10, "available": 10}'::jsonb
		WHERE NOT EXISTS (
			SELECT 1 FROM documents WHERE collection = 'ParkingMeta' AND doc_id = 'slotCounter'
		);`,
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
