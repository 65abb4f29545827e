package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/pavelanni/questionbd/internal/model"
)

const documentColumns = `id, title, category, board_name, grp, department, semester, bcs_number,
	year, subject_name, subject_code, type, url, created_at`

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

type scanner interface {
	Scan(dest ...any) error
}

func insertDocument(e execer, d model.Document) error {
	_, err := e.Exec(
		`INSERT INTO documents (`+documentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.Category, d.BoardName, d.Group, d.Department, d.Semester, d.BCSNumber,
		d.Year, d.SubjectName, d.SubjectCode, d.Type, d.URL, d.CreatedAt,
	)
	return err
}

func scanDocument(sc scanner) (model.Document, error) {
	var d model.Document
	err := sc.Scan(&d.ID, &d.Title, &d.Category, &d.BoardName, &d.Group, &d.Department, &d.Semester,
		&d.BCSNumber, &d.Year, &d.SubjectName, &d.SubjectCode, &d.Type, &d.URL, &d.CreatedAt)
	return d, err
}

// AddDocument stores a document under a fresh id and returns the id.
// ID and CreatedAt on the argument are ignored.
func (s *Store) AddDocument(d model.Document) (string, error) {
	d.ID = uuid.NewString()
	d.CreatedAt = s.now()
	if err := insertDocument(s.db, d); err != nil {
		return "", fmt.Errorf("insert document: %w", err)
	}
	return d.ID, nil
}

// ListDocuments returns every document in insertion order.
func (s *Store) ListDocuments() ([]model.Document, error) {
	rows, err := s.db.Query(`SELECT ` + documentColumns + ` FROM documents ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// GetDocument returns a document by id, or nil if it does not exist.
func (s *Store) GetDocument(id string) (*model.Document, error) {
	d, err := scanDocument(s.db.QueryRow(`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// DeleteDocument removes a document. Unknown ids are ignored and bookmarks
// pointing at the document are left in place.
func (s *Store) DeleteDocument(id string) error {
	_, err := s.db.Exec(`DELETE FROM documents WHERE id = ?`, id)
	return err
}

// DocumentCount returns the number of documents in the catalog.
func (s *Store) DocumentCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&count)
	return count, err
}

// ToggleBookmark adds id to the device's bookmarks if absent and removes it
// if present. It reports whether the id is bookmarked afterwards.
func (s *Store) ToggleBookmark(deviceID, id string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM bookmarks WHERE device_id = ? AND document_id = ?`, deviceID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	bookmarked := n == 0
	if bookmarked {
		if _, err := tx.Exec(`INSERT INTO bookmarks (device_id, document_id) VALUES (?, ?)`, deviceID, id); err != nil {
			return false, err
		}
	}
	return bookmarked, tx.Commit()
}

// ListBookmarks returns the raw bookmarked ids of a device in the order they
// were added. Ids of deleted documents are included.
func (s *Store) ListBookmarks(deviceID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT document_id FROM bookmarks WHERE device_id = ? ORDER BY seq`, deviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ResolveBookmarks returns the bookmarked documents that still exist, in
// catalog order. Orphaned ids are dropped silently.
func (s *Store) ResolveBookmarks(deviceID string) ([]model.Document, error) {
	ids, err := s.ListBookmarks(deviceID)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	marked := make(map[string]bool, len(ids))
	for _, id := range ids {
		marked[id] = true
	}
	docs, err := s.ListDocuments()
	if err != nil {
		return nil, err
	}
	var out []model.Document
	for _, d := range docs {
		if marked[d.ID] {
			out = append(out, d)
		}
	}
	return out, nil
}
