package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/pavelanni/questionbd/internal/model"
	"github.com/pavelanni/questionbd/internal/security"
)

const (
	// OTPTTL is how long a passcode stays valid after it is issued.
	OTPTTL = 5 * time.Minute
	// MaxOTPAttempts is the number of wrong guesses after which a passcode is dead.
	MaxOTPAttempts = 3
	// MaxOTPResends caps how often one flow may reissue its passcode.
	MaxOTPResends = 3
)

var (
	ErrResendLimit = errors.New("resend limit reached")
	ErrNoOTP       = errors.New("no passcode pending")
)

// GenerateOTP issues a fresh 6-digit passcode for the account, replacing
// any previous one. Attempts and resends start at zero.
func (s *Store) GenerateOTP(accountID string, purpose model.OTPPurpose) (string, error) {
	code, err := security.NewOTPCode()
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(
		`INSERT INTO otps (account_id, code, purpose, expires_at, attempts, resends)
		 VALUES (?, ?, ?, ?, 0, 0)
		 ON CONFLICT(account_id) DO UPDATE SET
		   code = excluded.code, purpose = excluded.purpose,
		   expires_at = excluded.expires_at, attempts = 0, resends = 0`,
		accountID, code, purpose, s.now().Add(OTPTTL),
	)
	if err != nil {
		return "", err
	}
	return code, nil
}

// ResendOTP reissues the passcode of the account's current flow with a new
// code and expiry and zero attempts. It fails with ErrNoOTP when no flow is
// pending and ErrResendLimit after MaxOTPResends resends.
func (s *Store) ResendOTP(accountID string) (string, error) {
	rec, err := s.GetOTP(accountID)
	if err != nil {
		return "", err
	}
	if rec == nil {
		return "", ErrNoOTP
	}
	if rec.Resends >= MaxOTPResends {
		return "", ErrResendLimit
	}
	code, err := security.NewOTPCode()
	if err != nil {
		return "", err
	}
	_, err = s.db.Exec(
		`UPDATE otps SET code = ?, expires_at = ?, attempts = 0, resends = resends + 1
		 WHERE account_id = ?`,
		code, s.now().Add(OTPTTL), accountID,
	)
	if err != nil {
		return "", err
	}
	return code, nil
}

// GetOTP returns the live passcode record of an account, or nil.
func (s *Store) GetOTP(accountID string) (*model.OTPRecord, error) {
	var r model.OTPRecord
	err := s.db.QueryRow(
		`SELECT account_id, code, purpose, expires_at, attempts, resends FROM otps WHERE account_id = ?`,
		accountID,
	).Scan(&r.AccountID, &r.Code, &r.Purpose, &r.ExpiresAt, &r.Attempts, &r.Resends)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// VerifyOTP checks code against the account's passcode. A mismatch counts
// as an attempt. A match marks the account verified and consumes the
// passcode. The result explains a false outcome.
func (s *Store) VerifyOTP(accountID, code string) (bool, model.OTPResult, error) {
	rec, err := s.GetOTP(accountID)
	if err != nil {
		return false, "", err
	}
	switch {
	case rec == nil:
		return false, model.OTPNoRecord, nil
	case s.now().After(rec.ExpiresAt):
		return false, model.OTPExpired, nil
	case rec.Attempts >= MaxOTPAttempts:
		return false, model.OTPTooManyAttempts, nil
	case rec.Code != code:
		if _, err := s.db.Exec(`UPDATE otps SET attempts = attempts + 1 WHERE account_id = ?`, accountID); err != nil {
			return false, "", err
		}
		return false, model.OTPMismatch, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return false, "", err
	}
	defer tx.Rollback()
	if err := s.markVerified(tx, accountID); err != nil {
		return false, "", err
	}
	if _, err := tx.Exec(`DELETE FROM otps WHERE account_id = ?`, accountID); err != nil {
		return false, "", err
	}
	if err := tx.Commit(); err != nil {
		return false, "", err
	}
	return true, model.OTPOK, nil
}
