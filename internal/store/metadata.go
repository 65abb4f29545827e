package store

import (
	"database/sql"
	_ "embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/google/uuid"

	"github.com/pavelanni/questionbd/internal/model"
)

const (
	// CatalogVersion is the schema version of the catalog area. Opening a
	// store whose stored version is older discards every document and
	// reseeds the built-in list; bookmarks, accounts and sessions survive.
	CatalogVersion = 4
	// AccountsVersion is the schema version of the accounts area.
	AccountsVersion = 1

	catalogVersionKey  = "catalog_schema_version"
	accountsVersionKey = "accounts_schema_version"
)

//go:embed seed/documents.json
var seedDocuments []byte

// SetMetadata upserts a key-value pair in the metadata table.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO metadata (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = ?`,
		key, value, value,
	)
	return err
}

// GetMetadata returns the value for a metadata key.
// Returns empty string and nil error if the key is missing.
func (s *Store) GetMetadata(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

func (s *Store) versionOf(key string) (int, error) {
	v, err := s.GetMetadata(key)
	if err != nil || v == "" {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return n, nil
}

// CatalogSchemaVersion returns the stored catalog version.
func (s *Store) CatalogSchemaVersion() (int, error) {
	return s.versionOf(catalogVersionKey)
}

func (s *Store) migrateCatalog() error {
	accounts, err := s.versionOf(accountsVersionKey)
	if err != nil {
		return err
	}
	if accounts < AccountsVersion {
		if err := s.SetMetadata(accountsVersionKey, strconv.Itoa(AccountsVersion)); err != nil {
			return err
		}
	}

	stored, err := s.versionOf(catalogVersionKey)
	if err != nil {
		return err
	}
	if stored >= CatalogVersion {
		return nil
	}
	if err := s.ReseedCatalog(); err != nil {
		return err
	}
	slog.Info("catalog reseeded", "from_version", stored, "to_version", CatalogVersion)
	return s.SetMetadata(catalogVersionKey, strconv.Itoa(CatalogVersion))
}

// SeedDocuments returns the built-in catalog.
func SeedDocuments() ([]model.Document, error) {
	var rows []model.DocumentImport
	if err := json.Unmarshal(seedDocuments, &rows); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	docs := make([]model.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, r.Document())
	}
	return docs, nil
}

// ReseedCatalog replaces every document with the built-in list.
func (s *Store) ReseedCatalog() error {
	docs, err := SeedDocuments()
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM documents`); err != nil {
		return err
	}
	now := s.now()
	for _, d := range docs {
		d.ID = uuid.NewString()
		d.CreatedAt = now
		if err := insertDocument(tx, d); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetImportedFileHash returns the sha256 recorded for a catalog file, or
// empty string if it was never imported.
func (s *Store) GetImportedFileHash(path string) (string, error) {
	var hash string
	err := s.db.QueryRow(`SELECT hash FROM imported_files WHERE path = ?`, path).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return hash, err
}

// SetImportedFileHash records that a catalog file was imported.
func (s *Store) SetImportedFileHash(path, hash string) error {
	_, err := s.db.Exec(
		`INSERT INTO imported_files (path, hash, imported_at) VALUES (?, ?, ?)
		 ON CONFLICT(path) DO UPDATE SET hash = ?, imported_at = ?`,
		path, hash, s.now(), hash, s.now(),
	)
	return err
}
