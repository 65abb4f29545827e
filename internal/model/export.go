package model

import "time"

// CatalogExport is the top-level JSON structure written by the export command.
type CatalogExport struct {
	ExportedAt     time.Time      `json:"exported_at"`
	CatalogVersion int            `json:"catalog_version"`
	Documents      []Document     `json:"documents,omitempty"`
	Unlocks        []UnlockExport `json:"unlocks,omitempty"`
}

// UnlockExport holds one unlock request joined with its account for review.
type UnlockExport struct {
	UnlockRequest
	AccountName string `json:"account_name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
}
