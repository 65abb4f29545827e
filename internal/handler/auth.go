package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	appI18n "github.com/pavelanni/questionbd/internal/i18n"
	"github.com/pavelanni/questionbd/internal/model"
	"github.com/pavelanni/questionbd/internal/security"
	"github.com/pavelanni/questionbd/internal/store"
	"github.com/pavelanni/questionbd/internal/validate"
)

const (
	deviceCookieName = "qbd_device"
	deviceCookieAge  = 365 * 24 * 60 * 60
)

func (h *Handler) cookiePath() string {
	if h.config.BasePath != "" {
		return h.config.BasePath + "/"
	}
	return "/"
}

// deviceMiddleware identifies the browser with a long-lived random cookie.
// Sessions and bookmarks are keyed by it.
func (h *Handler) deviceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var deviceID string
		if cookie, err := r.Cookie(deviceCookieName); err == nil && cookie.Value != "" {
			deviceID = cookie.Value
		} else {
			token, err := security.NewToken()
			if err != nil {
				writeInternalError(w, r, "failed to generate device id", err)
				return
			}
			deviceID = token
			http.SetCookie(w, &http.Cookie{
				Name:     deviceCookieName,
				Value:    deviceID,
				Path:     h.cookiePath(),
				MaxAge:   deviceCookieAge,
				HttpOnly: true,
				Secure:   h.config.SecureCookies,
				SameSite: http.SameSiteLaxMode,
			})
		}
		ctx := model.ContextWithDeviceID(r.Context(), deviceID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loadSession attaches the device's live session, if any. Expired
// sessions are cleared here.
func (h *Handler) loadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.Check(r.Context(), model.DeviceIDFromContext(r.Context()))
		if err != nil {
			writeInternalError(w, r, "failed to check session", err)
			return
		}
		if sess != nil {
			r = r.WithContext(model.ContextWithSession(r.Context(), sess))
		}
		next.ServeHTTP(w, r)
	})
}

// requireSession rejects guests.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if model.UserFromContext(r.Context()) == nil {
			writeError(w, r, http.StatusUnauthorized, "unauthorized", "LoginRequired")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireRole returns middleware that checks the user has one of the allowed roles.
func requireRole(allowed ...model.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := model.UserFromContext(r.Context())
			if user == nil {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "LoginRequired")
				return
			}
			for _, role := range allowed {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeError(w, r, http.StatusForbidden, "forbidden", "Forbidden")
		})
	}
}

// otpResponse is returned whenever a passcode was issued. DemoOTP is only
// filled in when ExposeOTP is configured, since there is no SMS gateway.
type otpResponse struct {
	AccountID           string `json:"accountId"`
	PendingVerification bool   `json:"pendingVerification,omitempty"`
	Message             string `json:"message"`
	DemoOTP             string `json:"demoOtp,omitempty"`
}

func (h *Handler) otpIssued(r *http.Request, accountID, code string, pending bool) otpResponse {
	slog.InfoContext(r.Context(), "otp issued", "account_id", accountID)
	resp := otpResponse{
		AccountID:           accountID,
		PendingVerification: pending,
		Message:             appI18n.T(r.Context(), "OTPSent"),
	}
	if h.config.ExposeOTP {
		resp.DemoOTP = code
	}
	return resp
}

var otpMessages = map[model.OTPResult]string{
	model.OTPNoRecord:        "OTPNoRecord",
	model.OTPExpired:         "OTPExpired",
	model.OTPTooManyAttempts: "OTPTooManyAttempts",
	model.OTPMismatch:        "OTPMismatch",
}

func writeOTPFailure(w http.ResponseWriter, r *http.Request, result model.OTPResult) {
	msgID, ok := otpMessages[result]
	if !ok {
		msgID = "OTPMismatch"
	}
	writeError(w, r, http.StatusBadRequest, string(result), msgID)
}

type registerForm struct {
	AccountName string `json:"accountName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Password    string `json:"password"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var form registerForm
	if !decodeJSON(w, r, &form) {
		return
	}
	form.Email = strings.TrimSpace(form.Email)
	form.Phone = strings.TrimSpace(form.Phone)
	if err := validate.Register(validate.Registration{
		AccountName: form.AccountName,
		FirstName:   form.FirstName,
		LastName:    form.LastName,
		Email:       form.Email,
		Phone:       form.Phone,
		Password:    form.Password,
	}); err != nil {
		writeValidationError(w, r, err)
		return
	}

	for _, ident := range []string{form.Email, form.Phone} {
		existing, err := h.store.GetUserByIdentifier(ident)
		if err != nil {
			writeInternalError(w, r, "failed to look up account", err)
			return
		}
		if existing != nil {
			writeError(w, r, http.StatusConflict, "account_exists", "AccountExists")
			return
		}
	}

	id, err := h.store.RegisterUser(model.Account{
		AccountName:  strings.TrimSpace(form.AccountName),
		FirstName:    strings.TrimSpace(form.FirstName),
		LastName:     strings.TrimSpace(form.LastName),
		Email:        form.Email,
		Phone:        form.Phone,
		PasswordHash: hash,
	})
	if err != nil {
		writeInternalError(w, r, "failed to register account", err)
		return
	}
	code, err := h.store.GenerateOTP(id, model.OTPPurposeVerify)
	if err != nil {
		writeInternalError(w, r, "failed to issue otp", err)
		return
	}
	writeJSON(w, http.StatusCreated, h.otpIssued(r, id, code, true))
}

type loginForm struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type sessionResponse struct {
	Authenticated bool           `json:"authenticated"`
	Session       *model.Session `json:"session,omitempty"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if !decodeJSON(w, r, &form) {
		return
	}

	acct, err := h.store.GetUserByIdentifier(strings.TrimSpace(form.Identifier))
	if err != nil {
		writeInternalError(w, r, "failed to get account", err)
		return
	}
	if acct == nil {
		writeError(w, r, http.StatusUnauthorized, "invalid_credentials", "InvalidCredentials")
		return
	}
	ok, err := h.hasher.Verify(form.Password, acct.PasswordHash)
	if err != nil {
		slog.WarnContext(r.Context(), "password verification failed", "account_id", acct.ID, "error", err)
	}
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "invalid_credentials", "InvalidCredentials")
		return
	}

	if !acct.IsVerified {
		code, err := h.store.GenerateOTP(acct.ID, model.OTPPurposeVerify)
		if err != nil {
			writeInternalError(w, r, "failed to issue otp", err)
			return
		}
		writeJSON(w, http.StatusOK, h.otpIssued(r, acct.ID, code, true))
		return
	}

	unlocks, err := h.store.ApprovedUnlocks(acct.ID)
	if err != nil {
		writeInternalError(w, r, "failed to load unlocks", err)
		return
	}
	sess, err := h.sessions.Login(r.Context(), model.DeviceIDFromContext(r.Context()), acct.Projection(len(unlocks) > 0))
	if err != nil {
		writeInternalError(w, r, "failed to create session", err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: true, Session: sess})
}

type verifyForm struct {
	AccountID string `json:"accountId"`
	OTP       string `json:"otp"`
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	var form verifyForm
	if !decodeJSON(w, r, &form) {
		return
	}
	ok, result, err := h.store.VerifyOTP(form.AccountID, strings.TrimSpace(form.OTP))
	if err != nil {
		writeInternalError(w, r, "failed to verify otp", err)
		return
	}
	if !ok {
		writeOTPFailure(w, r, result)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"verified": true,
		"message":  appI18n.T(r.Context(), "AccountVerified"),
	})
}

func (h *Handler) handleResend(w http.ResponseWriter, r *http.Request) {
	var form struct {
		AccountID string `json:"accountId"`
	}
	if !decodeJSON(w, r, &form) {
		return
	}
	code, err := h.store.ResendOTP(form.AccountID)
	switch {
	case errors.Is(err, store.ErrNoOTP):
		writeError(w, r, http.StatusBadRequest, string(model.OTPNoRecord), "OTPNoRecord")
		return
	case errors.Is(err, store.ErrResendLimit):
		writeError(w, r, http.StatusTooManyRequests, "resend_limit", "OTPResendLimit")
		return
	case err != nil:
		writeInternalError(w, r, "failed to resend otp", err)
		return
	}
	writeJSON(w, http.StatusOK, h.otpIssued(r, form.AccountID, code, false))
}

func (h *Handler) handleForgot(w http.ResponseWriter, r *http.Request) {
	var form struct {
		Identifier string `json:"identifier"`
	}
	if !decodeJSON(w, r, &form) {
		return
	}
	acct, err := h.store.GetUserByIdentifier(strings.TrimSpace(form.Identifier))
	if err != nil {
		writeInternalError(w, r, "failed to get account", err)
		return
	}
	if acct == nil {
		writeError(w, r, http.StatusNotFound, "not_found", "AccountNotFound")
		return
	}
	code, err := h.store.GenerateOTP(acct.ID, model.OTPPurposeReset)
	if err != nil {
		writeInternalError(w, r, "failed to issue otp", err)
		return
	}
	writeJSON(w, http.StatusOK, h.otpIssued(r, acct.ID, code, false))
}

type resetForm struct {
	AccountID string `json:"accountId"`
	OTP       string `json:"otp"`
	Password  string `json:"password"`
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	var form resetForm
	if !decodeJSON(w, r, &form) {
		return
	}
	if err := validate.Password(form.Password); err != nil {
		writeValidationError(w, r, err)
		return
	}

	// Only a passcode from the reset flow can change the password.
	rec, err := h.store.GetOTP(form.AccountID)
	if err != nil {
		writeInternalError(w, r, "failed to get otp", err)
		return
	}
	if rec == nil || rec.Purpose != model.OTPPurposeReset {
		writeOTPFailure(w, r, model.OTPNoRecord)
		return
	}
	// Hash first: a verified passcode is consumed.
	hash, err := h.hasher.Hash(form.Password)
	if err != nil {
		writeInternalError(w, r, "failed to hash password", err)
		return
	}
	ok, result, err := h.store.VerifyOTP(form.AccountID, strings.TrimSpace(form.OTP))
	if err != nil {
		writeInternalError(w, r, "failed to verify otp", err)
		return
	}
	if !ok {
		writeOTPFailure(w, r, result)
		return
	}
	if err := h.store.UpdateUser(form.AccountID, model.AccountUpdate{PasswordHash: &hash}); err != nil {
		writeInternalError(w, r, "failed to update password", err)
		return
	}
	if err := h.store.DeleteSessionsForAccount(form.AccountID); err != nil {
		slog.ErrorContext(r.Context(), "failed to clear sessions after reset", "account_id", form.AccountID, "error", err)
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": appI18n.T(r.Context(), "PasswordReset")})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Logout(r.Context(), model.DeviceIDFromContext(r.Context())); err != nil {
		writeInternalError(w, r, "failed to clear session", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": appI18n.T(r.Context(), "LoggedOut")})
}

func (h *Handler) handleSession(w http.ResponseWriter, r *http.Request) {
	sess := model.SessionFromContext(r.Context())
	writeJSON(w, http.StatusOK, sessionResponse{Authenticated: sess != nil, Session: sess})
}
