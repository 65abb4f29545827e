package model

import (
	"context"
	"time"
)

// UserRole represents an account's access level.
type UserRole string

const (
	// UserRoleUser is a standard account.
	UserRoleUser UserRole = "user"
	// UserRoleAdmin can manage the catalog and review unlock requests.
	UserRoleAdmin UserRole = "admin"
)

// Account is a registered user.
type Account struct {
	ID           string    `json:"id"`
	AccountName  string    `json:"account_name"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	PasswordHash string    `json:"-"`
	IsVerified   bool      `json:"is_verified"`
	Role         UserRole  `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName joins first and last name, falling back to the account name.
func (a Account) DisplayName() string {
	name := a.FirstName
	if a.LastName != "" {
		if name != "" {
			name += " "
		}
		name += a.LastName
	}
	if name == "" {
		return a.AccountName
	}
	return name
}

// Projection returns the public view of the account installed into a session.
func (a Account) Projection(isPaid bool) SessionUser {
	return SessionUser{
		ID:     a.ID,
		Name:   a.DisplayName(),
		Email:  a.Email,
		Role:   a.Role,
		IsPaid: isPaid,
	}
}

// AccountUpdate carries a partial update. Nil fields are left unchanged.
type AccountUpdate struct {
	AccountName  *string
	FirstName    *string
	LastName     *string
	Email        *string
	Phone        *string
	PasswordHash *string
}

// SessionUser is the public projection of the logged-in account.
type SessionUser struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
	IsPaid bool     `json:"is_paid"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *SessionUser) IsAdmin() bool {
	return u != nil && u.Role == UserRoleAdmin
}

// Session is the current login of one device.
type Session struct {
	DeviceID  string      `json:"-"`
	User      SessionUser `json:"user"`
	CreatedAt time.Time   `json:"created_at"`
	ExpiresAt time.Time   `json:"expires_at"`
}

// Expired reports whether the session is past its expiry at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// OTPPurpose records which flow issued a passcode.
type OTPPurpose string

const (
	OTPPurposeVerify OTPPurpose = "verify"
	OTPPurposeReset  OTPPurpose = "reset"
)

// OTPRecord is the single live passcode of an account.
type OTPRecord struct {
	AccountID string     `json:"account_id"`
	Code      string     `json:"-"`
	Purpose   OTPPurpose `json:"purpose"`
	ExpiresAt time.Time  `json:"expires_at"`
	Attempts  int        `json:"attempts"`
	Resends   int        `json:"resends"`
}

// OTPResult explains the outcome of a verification attempt.
type OTPResult string

const (
	OTPOK              OTPResult = "ok"
	OTPNoRecord        OTPResult = "no_record"
	OTPExpired         OTPResult = "expired"
	OTPTooManyAttempts OTPResult = "too_many_attempts"
	OTPMismatch        OTPResult = "mismatch"
)

// PaymentMethod is one of the supported mobile-payment channels.
type PaymentMethod string

const (
	PaymentBKash PaymentMethod = "bKash"
	PaymentNagad PaymentMethod = "Nagad"
)

// Valid reports whether m is a supported channel.
func (m PaymentMethod) Valid() bool {
	return m == PaymentBKash || m == PaymentNagad
}

// PaymentStatus is the review state of an unlock request.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentApproved PaymentStatus = "Approved"
	PaymentRejected PaymentStatus = "Rejected"
)

// ScopeKey is the tuple documents and unlock requests are matched on.
// BoardName is only meaningful for SSC and HSC.
type ScopeKey struct {
	ExamType       Category `json:"exam_type"`
	BoardName      string   `json:"board_name,omitempty"`
	GroupOrProgram string   `json:"group_or_program"`
}

// UnlockRequest is a user's claim of a manual payment for one scope.
type UnlockRequest struct {
	ID            string        `json:"id"`
	AccountID     string        `json:"account_id"`
	Scope         ScopeKey      `json:"scope"`
	Method        PaymentMethod `json:"payment_method"`
	TransactionID string        `json:"transaction_id"`
	SenderNumber  string        `json:"sender_number,omitempty"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	UnlockStatus  bool          `json:"unlock_status"`
	SubmittedAt   time.Time     `json:"submitted_at"`
	UnlockedAt    *time.Time    `json:"unlocked_at,omitempty"`
}

// PaymentInfo describes where a manual transfer is sent.
type PaymentInfo struct {
	Payee   string          `json:"payee"`
	Amount  string          `json:"amount"`
	Methods []PaymentMethod `json:"methods"`
}

// AppConfig holds runtime parameters set via CLI flags.
type AppConfig struct {
	BasePath      string // URL prefix for sub-path deployments
	SecureCookies bool   // Set Secure flag on cookies (disable for local dev)
	Payee         string
	Fee           string
	ExposeOTP     bool // echo issued passcodes in responses (no SMS/email gateway)
}

type sessionCtxKey struct{}

// ContextWithSession stores the active session in the request context.
func ContextWithSession(ctx context.Context, s *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey{}, s)
}

// SessionFromContext retrieves the active session from context, or nil.
func SessionFromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionCtxKey{}).(*Session)
	return s
}

// UserFromContext retrieves the logged-in user from context, or nil.
func UserFromContext(ctx context.Context) *SessionUser {
	if s := SessionFromContext(ctx); s != nil {
		return &s.User
	}
	return nil
}

type deviceCtxKey struct{}

// ContextWithDeviceID stores the device identifier in context.
func ContextWithDeviceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deviceCtxKey{}, id)
}

// DeviceIDFromContext retrieves the device identifier (empty string if not set).
func DeviceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(deviceCtxKey{}).(string)
	return id
}

type basePathCtxKey struct{}

// ContextWithBasePath stores the base path prefix in context.
func ContextWithBasePath(ctx context.Context, basePath string) context.Context {
	return context.WithValue(ctx, basePathCtxKey{}, basePath)
}

// BasePathFromContext retrieves the base path from context (empty string if not set).
func BasePathFromContext(ctx context.Context) string {
	bp, _ := ctx.Value(basePathCtxKey{}).(string)
	return bp
}
