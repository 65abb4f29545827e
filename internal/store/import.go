package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pavelanni/questionbd/internal/model"
)

// FileHash returns the hex sha256 used to track imported catalog files.
func FileHash(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}

// ImportCatalog parses a JSON array of documents, checks each with check
// (if non-nil) and stores them all in one transaction together with the
// file's hash. Nothing is stored if any row fails.
func (s *Store) ImportCatalog(name string, data []byte, check func(model.Document) error) (int, error) {
	var rows []model.DocumentImport
	if err := json.Unmarshal(data, &rows); err != nil {
		return 0, fmt.Errorf("parse %s: %w", name, err)
	}
	docs := make([]model.Document, 0, len(rows))
	for i, row := range rows {
		d := row.Document()
		if check != nil {
			if err := check(d); err != nil {
				return 0, fmt.Errorf("%s row %d: %w", name, i+1, err)
			}
		}
		docs = append(docs, d)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := s.now()
	for _, d := range docs {
		d.ID = uuid.NewString()
		d.CreatedAt = now
		if err := insertDocument(tx, d); err != nil {
			return 0, fmt.Errorf("insert document from %s: %w", name, err)
		}
	}
	hash := FileHash(data)
	if _, err := tx.Exec(
		`INSERT INTO imported_files (path, hash, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = excluded.hash, imported_at = excluded.imported_at`,
		name, hash, now,
	); err != nil {
		return 0, fmt.Errorf("record import of %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	slog.Info("imported catalog", "file", name, "count", len(docs))
	return len(docs), nil
}
