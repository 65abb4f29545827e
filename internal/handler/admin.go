package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	appI18n "github.com/pavelanni/questionbd/internal/i18n"
	"github.com/pavelanni/questionbd/internal/model"
	"github.com/pavelanni/questionbd/internal/store"
	"github.com/pavelanni/questionbd/internal/validate"
)

func (h *Handler) handleAdminDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.ListDocuments()
	if err != nil {
		writeInternalError(w, r, "failed to list documents", err)
		return
	}
	if docs == nil {
		docs = []model.Document{}
	}
	writeJSON(w, http.StatusOK, docs)
}

func (h *Handler) handleAddDocument(w http.ResponseWriter, r *http.Request) {
	var form model.DocumentImport
	if !decodeJSON(w, r, &form) {
		return
	}
	doc := form.Document()
	if err := validate.Document(doc); err != nil {
		writeValidationError(w, r, err)
		return
	}
	id, err := h.store.AddDocument(doc)
	if err != nil {
		writeInternalError(w, r, "failed to add document", err)
		return
	}
	slog.InfoContext(r.Context(), "document added", "id", id, "category", doc.Category, "title", doc.Title)
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":      id,
		"message": appI18n.T(r.Context(), "DocumentAdded"),
	})
}

// handleImportDocuments accepts a catalog JSON file as multipart upload.
// A file whose content was already imported under the same name is skipped.
func (h *Handler) handleImportDocuments(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeError(w, r, http.StatusBadRequest, "too_large", "ValidationFailed")
		return
	}
	file, header, err := r.FormFile("catalog_file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "no_file", "ValidationFailed")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeInternalError(w, r, "failed to read upload", err)
		return
	}
	storedHash, err := h.store.GetImportedFileHash(header.Filename)
	if err != nil {
		writeInternalError(w, r, "failed to check import status", err)
		return
	}
	if storedHash == store.FileHash(data) {
		writeJSON(w, http.StatusOK, map[string]any{"imported": 0, "duplicate": true})
		return
	}

	count, err := h.store.ImportCatalog(header.Filename, data, validate.Document)
	if err != nil {
		writeValidationError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"imported": count,
		"message":  appI18n.T(r.Context(), "DocumentAdded"),
	})
}

func (h *Handler) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")
	if err := h.store.DeleteDocument(id); err != nil {
		writeInternalError(w, r, "failed to delete document", err)
		return
	}
	slog.InfoContext(r.Context(), "document deleted", "id", id)
	writeJSON(w, http.StatusOK, map[string]string{"message": appI18n.T(r.Context(), "DocumentDeleted")})
}

func (h *Handler) handleAdminUnlocks(w http.ResponseWriter, r *http.Request) {
	status := model.PaymentStatus(r.URL.Query().Get("status"))
	switch status {
	case "", model.PaymentPending, model.PaymentApproved, model.PaymentRejected:
	default:
		writeError(w, r, http.StatusBadRequest, "validation_failed", "ValidationFailed")
		return
	}
	unlocks, err := h.store.ListUnlocks(status)
	if err != nil {
		writeInternalError(w, r, "failed to list unlocks", err)
		return
	}
	if unlocks == nil {
		unlocks = []model.UnlockRequest{}
	}
	writeJSON(w, http.StatusOK, unlocks)
}

func (h *Handler) handleApproveUnlock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "unlockID")
	changed, err := h.store.ApproveUnlock(id)
	if err != nil {
		writeInternalError(w, r, "failed to approve unlock", err)
		return
	}
	if !changed {
		h.writeUnchanged(w, r, id)
		return
	}

	u, err := h.store.GetUnlock(id)
	if err != nil {
		writeInternalError(w, r, "failed to load unlock", err)
		return
	}
	// Logged-in devices of the payer see the paid flag without logging in again.
	if err := h.store.SetSessionPaid(u.AccountID, true); err != nil {
		slog.ErrorContext(r.Context(), "failed to refresh sessions", "account_id", u.AccountID, "error", err)
	}
	slog.InfoContext(r.Context(), "unlock approved", "id", id, "account_id", u.AccountID)
	writeJSON(w, http.StatusOK, map[string]any{
		"unlock":  u,
		"changed": true,
		"message": appI18n.T(r.Context(), "UnlockApproved"),
	})
}

func (h *Handler) handleRejectUnlock(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "unlockID")
	changed, err := h.store.RejectUnlock(id)
	if err != nil {
		writeInternalError(w, r, "failed to reject unlock", err)
		return
	}
	if !changed {
		h.writeUnchanged(w, r, id)
		return
	}
	u, err := h.store.GetUnlock(id)
	if err != nil {
		writeInternalError(w, r, "failed to load unlock", err)
		return
	}
	slog.InfoContext(r.Context(), "unlock rejected", "id", id)
	writeJSON(w, http.StatusOK, map[string]any{
		"unlock":  u,
		"changed": true,
		"message": appI18n.T(r.Context(), "UnlockRejected"),
	})
}

// writeUnchanged answers an approve or reject that did nothing: 404 for an
// unknown id, 200 with changed=false for an already resolved request.
func (h *Handler) writeUnchanged(w http.ResponseWriter, r *http.Request, id string) {
	u, err := h.store.GetUnlock(id)
	if err != nil {
		writeInternalError(w, r, "failed to load unlock", err)
		return
	}
	if u == nil {
		writeError(w, r, http.StatusNotFound, "not_found", "NotFound")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"unlock":  u,
		"changed": false,
		"message": appI18n.T(r.Context(), "UnlockUnchanged"),
	})
}

func (h *Handler) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers()
	if err != nil {
		writeInternalError(w, r, "failed to list users", err)
		return
	}
	if users == nil {
		users = []model.Account{}
	}
	writeJSON(w, http.StatusOK, users)
}
