package store

import (
	"database/sql"

	"github.com/pavelanni/questionbd/internal/model"
)

// PutSession installs the session of a device, replacing any previous one.
func (s *Store) PutSession(sess model.Session) error {
	_, err := s.db.Exec(
		`INSERT INTO device_sessions (device_id, account_id, name, email, role, is_paid, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(device_id) DO UPDATE SET
		   account_id = excluded.account_id, name = excluded.name, email = excluded.email,
		   role = excluded.role, is_paid = excluded.is_paid,
		   created_at = excluded.created_at, expires_at = excluded.expires_at`,
		sess.DeviceID, sess.User.ID, sess.User.Name, sess.User.Email, sess.User.Role, sess.User.IsPaid,
		sess.CreatedAt, sess.ExpiresAt,
	)
	return err
}

// GetSession returns the stored session of a device without checking
// expiry, or nil.
func (s *Store) GetSession(deviceID string) (*model.Session, error) {
	var sess model.Session
	err := s.db.QueryRow(
		`SELECT device_id, account_id, name, email, role, is_paid, created_at, expires_at
		 FROM device_sessions WHERE device_id = ?`, deviceID,
	).Scan(&sess.DeviceID, &sess.User.ID, &sess.User.Name, &sess.User.Email, &sess.User.Role,
		&sess.User.IsPaid, &sess.CreatedAt, &sess.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// DeleteSession clears the session of a device.
func (s *Store) DeleteSession(deviceID string) error {
	_, err := s.db.Exec(`DELETE FROM device_sessions WHERE device_id = ?`, deviceID)
	return err
}

// DeleteSessionsForAccount logs an account out on every device.
func (s *Store) DeleteSessionsForAccount(accountID string) error {
	_, err := s.db.Exec(`DELETE FROM device_sessions WHERE account_id = ?`, accountID)
	return err
}

// SetSessionPaid updates the paid flag on every live session of an account.
func (s *Store) SetSessionPaid(accountID string, paid bool) error {
	_, err := s.db.Exec(`UPDATE device_sessions SET is_paid = ? WHERE account_id = ?`, paid, accountID)
	return err
}
