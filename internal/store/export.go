package store

import (
	"fmt"

	"github.com/pavelanni/questionbd/internal/model"
)

// ExportCatalog builds the catalog dump written by the export command:
// every document plus every unlock request joined with its account.
func (s *Store) ExportCatalog() (*model.CatalogExport, error) {
	docs, err := s.ListDocuments()
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	unlocks, err := s.ListUnlocks("")
	if err != nil {
		return nil, fmt.Errorf("list unlocks: %w", err)
	}
	accounts, err := s.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	byID := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}

	out := &model.CatalogExport{
		ExportedAt:     s.now(),
		CatalogVersion: CatalogVersion,
		Documents:      docs,
	}
	for _, u := range unlocks {
		ue := model.UnlockExport{UnlockRequest: u}
		if a, ok := byID[u.AccountID]; ok {
			ue.AccountName = a.AccountName
			ue.Email = a.Email
			ue.Phone = a.Phone
		}
		out.Unlocks = append(out.Unlocks, ue)
	}
	return out, nil
}
