package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pavelanni/questionbd/internal/access"
	"github.com/pavelanni/questionbd/internal/assistant"
	appI18n "github.com/pavelanni/questionbd/internal/i18n"
	"github.com/pavelanni/questionbd/internal/model"
	"github.com/pavelanni/questionbd/internal/security"
	"github.com/pavelanni/questionbd/internal/session"
	"github.com/pavelanni/questionbd/internal/store"
	"github.com/pavelanni/questionbd/internal/taxonomy"
	"github.com/pavelanni/questionbd/internal/validate"
)

const maxBodyBytes = 1 << 20

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store     *store.Store
	sessions  *session.Manager
	router    *taxonomy.Router
	hasher    security.Hasher
	assistant *assistant.Client
	config    model.AppConfig
}

// New creates a new Handler. asst may be nil, which disables the
// assistant endpoint.
func New(s *store.Store, sessions *session.Manager, hasher security.Hasher, asst *assistant.Client, cfg model.AppConfig) (*Handler, error) {
	if s == nil || sessions == nil || hasher == nil {
		return nil, errors.New("handler: store, sessions and hasher are required")
	}
	return &Handler{
		store:     s,
		sessions:  sessions,
		router:    taxonomy.NewRouter(s),
		hasher:    hasher,
		assistant: asst,
		config:    cfg,
	}, nil
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Use(requestLogger)
	r.Use(h.deviceMiddleware)
	r.Use(h.loadSession)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/register", h.handleRegister)
		r.Post("/auth/login", h.handleLogin)
		r.Post("/auth/verify", h.handleVerify)
		r.Post("/auth/resend", h.handleResend)
		r.Post("/auth/forgot", h.handleForgot)
		r.Post("/auth/reset", h.handleReset)
		r.Post("/auth/logout", h.handleLogout)
		r.Get("/auth/session", h.handleSession)

		r.Get("/browse", h.handleBrowse)
		r.Get("/browse/*", h.handleBrowse)
		r.Get("/search", h.handleSearch)
		r.Get("/documents/{documentID}", h.handleDocument)
		r.Get("/bookmarks", h.handleBookmarks)
		r.Post("/bookmarks/{documentID}", h.handleToggleBookmark)
		r.Get("/payment-info", h.handlePaymentInfo)

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)
			r.Post("/unlocks", h.handleSubmitUnlock)
			r.Get("/unlocks", h.handleMyUnlocks)
			r.Post("/assistant", h.handleAssistant)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.requireSession)
			r.Use(requireRole(model.UserRoleAdmin))
			r.Get("/documents", h.handleAdminDocuments)
			r.Post("/documents", h.handleAddDocument)
			r.Post("/documents/import", h.handleImportDocuments)
			r.Delete("/documents/{documentID}", h.handleDeleteDocument)
			r.Get("/unlocks", h.handleAdminUnlocks)
			r.Post("/unlocks/{unlockID}/approve", h.handleApproveUnlock)
			r.Post("/unlocks/{unlockID}/reject", h.handleRejectUnlock)
			r.Get("/users", h.handleAdminUsers)
		})
	})
}

// BasePathMiddleware stores the configured base path in the request context.
func (h *Handler) BasePathMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := model.ContextWithBasePath(r.Context(), h.config.BasePath)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs one line per request with the final status code.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError writes a localized error. code is a stable machine-readable
// value; msgID selects the message shown to the user.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, msgID string) {
	writeJSON(w, status, errorResponse{Error: code, Message: appI18n.T(r.Context(), msgID)})
}

func writeValidationError(w http.ResponseWriter, r *http.Request, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error:   "validation_failed",
		Message: appI18n.Td(r.Context(), "ValidationFailed", map[string]any{"Reason": err.Error()}),
	})
}

func writeInternalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	slog.ErrorContext(r.Context(), msg, "error", err)
	writeError(w, r, http.StatusInternalServerError, "internal", "InternalError")
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeValidationError(w, r, fmt.Errorf("invalid JSON body: %w", err))
		return false
	}
	return true
}

// viewer returns the logged-in user and their approved unlocks. Guests get
// nil for both.
func (h *Handler) viewer(r *http.Request) (*model.SessionUser, []model.UnlockRequest, error) {
	user := model.UserFromContext(r.Context())
	if user == nil {
		return nil, nil, nil
	}
	unlocks, err := h.store.ApprovedUnlocks(user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load unlocks: %w", err)
	}
	return user, unlocks, nil
}

func (h *Handler) handleBrowse(w http.ResponseWriter, r *http.Request) {
	var path []string
	for _, seg := range strings.Split(chi.URLParam(r, "*"), "/") {
		if seg == "" {
			continue
		}
		if unescaped, err := url.PathUnescape(seg); err == nil {
			seg = unescaped
		}
		path = append(path, seg)
	}

	user, unlocks, err := h.viewer(r)
	if err != nil {
		writeInternalError(w, r, "browse", err)
		return
	}
	node, err := h.router.Resolve(path, user, unlocks)
	if err != nil {
		writeInternalError(w, r, "resolve path", err)
		return
	}
	if node.Path == nil {
		node.Path = []string{}
	}
	status := http.StatusOK
	if node.Kind == taxonomy.KindNotFound {
		status = http.StatusNotFound
	}
	writeJSON(w, status, node)
}

type searchResponse struct {
	Query   string         `json:"query"`
	Count   int            `json:"count"`
	Message string         `json:"message"`
	Results []taxonomy.Hit `json:"results"`
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	qs := r.URL.Query()
	q := taxonomy.SearchQuery{
		Text:       qs.Get("q"),
		Category:   model.Category(qs.Get("category")),
		Board:      qs.Get("board"),
		Group:      qs.Get("group"),
		Department: qs.Get("department"),
	}
	if y := qs.Get("year"); y != "" {
		year, err := strconv.Atoi(y)
		if err != nil {
			writeValidationError(w, r, errors.New("year must be a number"))
			return
		}
		q.Year = year
	}

	user, unlocks, err := h.viewer(r)
	if err != nil {
		writeInternalError(w, r, "search", err)
		return
	}
	hits, err := h.router.Search(q, user, unlocks)
	if err != nil {
		writeInternalError(w, r, "search", err)
		return
	}
	if hits == nil {
		hits = []taxonomy.Hit{}
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Query:   taxonomy.NormalizeQuery(q.Text),
		Count:   len(hits),
		Message: appI18n.Tp(r.Context(), "ResultsFound", len(hits)),
		Results: hits,
	})
}

type lockedResponse struct {
	errorResponse
	Scope model.ScopeKey `json:"scope"`
}

func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.GetDocument(chi.URLParam(r, "documentID"))
	if err != nil {
		writeInternalError(w, r, "get document", err)
		return
	}
	if doc == nil {
		writeError(w, r, http.StatusNotFound, "not_found", "DocumentNotFound")
		return
	}

	user, unlocks, err := h.viewer(r)
	if err != nil {
		writeInternalError(w, r, "get document", err)
		return
	}
	if !access.CanOpen(*doc, user, unlocks) {
		scope := access.ScopeFor(access.TargetForDocument(*doc))
		writeJSON(w, http.StatusForbidden, lockedResponse{
			errorResponse: errorResponse{
				Error: "locked",
				Message: appI18n.Td(r.Context(), "ContentLocked", map[string]any{
					"ExamType": scope.ExamType, "GroupOrProgram": scope.GroupOrProgram,
				}),
			},
			Scope: scope,
		})
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleBookmarks(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.ResolveBookmarks(model.DeviceIDFromContext(r.Context()))
	if err != nil {
		writeInternalError(w, r, "list bookmarks", err)
		return
	}
	user, unlocks, err := h.viewer(r)
	if err != nil {
		writeInternalError(w, r, "list bookmarks", err)
		return
	}
	hits := make([]taxonomy.Hit, 0, len(docs))
	for _, d := range docs {
		hits = append(hits, taxonomy.NewHit(d, user, unlocks))
	}
	writeJSON(w, http.StatusOK, hits)
}

func (h *Handler) handleToggleBookmark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "documentID")
	bookmarked, err := h.store.ToggleBookmark(model.DeviceIDFromContext(r.Context()), id)
	if err != nil {
		writeInternalError(w, r, "toggle bookmark", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documentId": id, "bookmarked": bookmarked})
}

func (h *Handler) handlePaymentInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, model.PaymentInfo{
		Payee:   h.config.Payee,
		Amount:  h.config.Fee,
		Methods: []model.PaymentMethod{model.PaymentBKash, model.PaymentNagad},
	})
}

type unlockForm struct {
	ExamType       model.Category      `json:"examType"`
	BoardName      string              `json:"boardName"`
	GroupOrProgram string              `json:"groupOrProgram"`
	Method         model.PaymentMethod `json:"method"`
	TransactionID  string              `json:"transactionId"`
	SenderNumber   string              `json:"senderNumber"`
}

func (h *Handler) handleSubmitUnlock(w http.ResponseWriter, r *http.Request) {
	var form unlockForm
	if !decodeJSON(w, r, &form) {
		return
	}
	scope := model.ScopeKey{
		ExamType:       form.ExamType,
		GroupOrProgram: strings.TrimSpace(form.GroupOrProgram),
	}
	if scope.ExamType.HasBoards() {
		scope.BoardName = strings.TrimSpace(form.BoardName)
	}
	if err := validate.Payment(scope, form.Method, form.TransactionID); err != nil {
		writeValidationError(w, r, err)
		return
	}

	user := model.UserFromContext(r.Context())
	id, err := h.store.SubmitPayment(user.ID, scope, form.Method,
		strings.TrimSpace(form.TransactionID), strings.TrimSpace(form.SenderNumber))
	if err != nil {
		writeInternalError(w, r, "submit payment", err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":      id,
		"status":  string(model.PaymentPending),
		"message": appI18n.T(r.Context(), "PaymentSubmitted"),
	})
}

func (h *Handler) handleMyUnlocks(w http.ResponseWriter, r *http.Request) {
	user := model.UserFromContext(r.Context())
	unlocks, err := h.store.ListUnlocksForAccount(user.ID)
	if err != nil {
		writeInternalError(w, r, "list unlocks", err)
		return
	}
	if unlocks == nil {
		unlocks = []model.UnlockRequest{}
	}
	writeJSON(w, http.StatusOK, unlocks)
}

type assistantForm struct {
	DocumentID string           `json:"documentId"`
	Prompt     string           `json:"prompt"`
	History    []assistant.Turn `json:"history"`
}

func (h *Handler) handleAssistant(w http.ResponseWriter, r *http.Request) {
	if h.assistant == nil {
		writeError(w, r, http.StatusServiceUnavailable, "unavailable", "AssistantUnavailable")
		return
	}
	var form assistantForm
	if !decodeJSON(w, r, &form) {
		return
	}

	var doc *model.Document
	if form.DocumentID != "" {
		d, err := h.store.GetDocument(form.DocumentID)
		if err != nil {
			writeInternalError(w, r, "get document", err)
			return
		}
		if d == nil {
			writeError(w, r, http.StatusNotFound, "not_found", "DocumentNotFound")
			return
		}
		user, unlocks, err := h.viewer(r)
		if err != nil {
			writeInternalError(w, r, "assistant", err)
			return
		}
		if !access.CanOpen(*d, user, unlocks) {
			writeError(w, r, http.StatusForbidden, "locked", "Forbidden")
			return
		}
		doc = d
	}

	answer, err := h.assistant.Ask(r.Context(), doc, form.History, form.Prompt)
	switch {
	case errors.Is(err, assistant.ErrEmptyPrompt), errors.Is(err, assistant.ErrPromptTooLong):
		writeValidationError(w, r, err)
		return
	case err != nil:
		slog.ErrorContext(r.Context(), "assistant request failed", "error", err)
		writeError(w, r, http.StatusBadGateway, "unavailable", "AssistantUnavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"answer": answer})
}
