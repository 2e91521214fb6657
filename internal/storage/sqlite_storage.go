package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/glebarez/sqlite"

	"github.com/pet-assistant/backend/internal/search"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS services (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	position    INTEGER NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS service_keywords (
	service_id INTEGER NOT NULL,
	position   INTEGER NOT NULL,
	keyword    TEXT NOT NULL,
	FOREIGN KEY(service_id) REFERENCES services(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_service_keywords_service ON service_keywords(service_id);
`

// SQLiteStorage keeps the catalog in a SQLite database
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens (or creates) the database at path and ensures the schema
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite catalog: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create catalog schema: %w", err)
	}
	return &SQLiteStorage{db: db}, nil
}

// Load returns all services in catalog order with their keywords
func (s *SQLiteStorage) Load(ctx context.Context) ([]search.ServiceRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, description FROM services ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query services: %w", err)
	}
	defer rows.Close()

	records := []search.ServiceRecord{}
	index := make(map[int64]int)
	for rows.Next() {
		var (
			id  int64
			rec search.ServiceRecord
		)
		if err := rows.Scan(&id, &rec.Title, &rec.Description); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		index[id] = len(records)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read services: %w", err)
	}

	kwRows, err := s.db.QueryContext(ctx, `SELECT service_id, keyword FROM service_keywords ORDER BY service_id, position`)
	if err != nil {
		return nil, fmt.Errorf("failed to query keywords: %w", err)
	}
	defer kwRows.Close()

	for kwRows.Next() {
		var (
			id      int64
			keyword string
		)
		if err := kwRows.Scan(&id, &keyword); err != nil {
			return nil, fmt.Errorf("failed to scan keyword: %w", err)
		}
		if i, ok := index[id]; ok {
			records[i].Keywords = append(records[i].Keywords, keyword)
		}
	}
	if err := kwRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read keywords: %w", err)
	}

	return records, nil
}

// Save replaces the stored catalog in a single transaction
func (s *SQLiteStorage) Save(ctx context.Context, records []search.ServiceRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM service_keywords`); err != nil {
		return fmt.Errorf("failed to clear keywords: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM services`); err != nil {
		return fmt.Errorf("failed to clear services: %w", err)
	}

	svcStmt, err := tx.PrepareContext(ctx, `INSERT INTO services(position, title, description) VALUES(?, ?, ?)`)
	if err != nil {
		return err
	}
	defer svcStmt.Close()

	kwStmt, err := tx.PrepareContext(ctx, `INSERT INTO service_keywords(service_id, position, keyword) VALUES(?, ?, ?)`)
	if err != nil {
		return err
	}
	defer kwStmt.Close()

	for i, rec := range records {
		res, err := svcStmt.ExecContext(ctx, i, rec.Title, rec.Description)
		if err != nil {
			return fmt.Errorf("failed to insert service %d: %w", i, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for j, kw := range rec.Keywords {
			if _, err := kwStmt.ExecContext(ctx, id, j, kw); err != nil {
				return fmt.Errorf("failed to insert keyword for service %d: %w", i, err)
			}
		}
	}

	return tx.Commit()
}

// Close closes the database
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
