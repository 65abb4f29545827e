package store

import (
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/pavelanni/questionbd/internal/model"
)

const unlockColumns = `id, account_id, exam_type, board_name, group_or_program, payment_method,
	transaction_id, sender_number, payment_status, unlock_status, submitted_at, unlocked_at`

func scanUnlock(sc scanner) (model.UnlockRequest, error) {
	var u model.UnlockRequest
	var unlockedAt sql.NullTime
	err := sc.Scan(&u.ID, &u.AccountID, &u.Scope.ExamType, &u.Scope.BoardName, &u.Scope.GroupOrProgram,
		&u.Method, &u.TransactionID, &u.SenderNumber, &u.PaymentStatus, &u.UnlockStatus,
		&u.SubmittedAt, &unlockedAt)
	if unlockedAt.Valid {
		t := unlockedAt.Time
		u.UnlockedAt = &t
	}
	return u, err
}

// SubmitPayment records a pending unlock request and returns its id.
func (s *Store) SubmitPayment(accountID string, scope model.ScopeKey, method model.PaymentMethod, transactionID, sender string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO unlock_requests (`+unlockColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, NULL)`,
		id, accountID, scope.ExamType, scope.BoardName, scope.GroupOrProgram, method,
		transactionID, sender, model.PaymentPending, s.now(),
	)
	if err != nil {
		return "", err
	}
	slog.Info("unlock requested", "id", id, "account_id", accountID,
		"exam_type", scope.ExamType, "board", scope.BoardName, "group", scope.GroupOrProgram)
	return id, nil
}

// ApproveUnlock moves a pending request to Approved and grants access.
// It reports false when the id is unknown or the request was already
// resolved; nothing is changed in that case.
func (s *Store) ApproveUnlock(id string) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE unlock_requests SET payment_status = ?, unlock_status = 1, unlocked_at = ?
		 WHERE id = ? AND payment_status = ?`,
		model.PaymentApproved, s.now(), id, model.PaymentPending,
	)
	if err != nil {
		return false, err
	}
	return changed(res)
}

// RejectUnlock moves a pending request to Rejected. Like ApproveUnlock it
// leaves resolved and unknown requests alone.
func (s *Store) RejectUnlock(id string) (bool, error) {
	res, err := s.db.Exec(
		`UPDATE unlock_requests SET payment_status = ? WHERE id = ? AND payment_status = ?`,
		model.PaymentRejected, id, model.PaymentPending,
	)
	if err != nil {
		return false, err
	}
	return changed(res)
}

func changed(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// GetUnlock returns one request, or nil.
func (s *Store) GetUnlock(id string) (*model.UnlockRequest, error) {
	u, err := scanUnlock(s.db.QueryRow(`SELECT `+unlockColumns+` FROM unlock_requests WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUnlocks returns requests in submission order. An empty status
// returns all of them.
func (s *Store) ListUnlocks(status model.PaymentStatus) ([]model.UnlockRequest, error) {
	if status == "" {
		return s.queryUnlocks(`SELECT ` + unlockColumns + ` FROM unlock_requests ORDER BY seq`)
	}
	return s.queryUnlocks(`SELECT `+unlockColumns+` FROM unlock_requests WHERE payment_status = ? ORDER BY seq`, status)
}

// ListUnlocksForAccount returns every request of one account.
func (s *Store) ListUnlocksForAccount(accountID string) ([]model.UnlockRequest, error) {
	return s.queryUnlocks(`SELECT `+unlockColumns+` FROM unlock_requests WHERE account_id = ? ORDER BY seq`, accountID)
}

// ApprovedUnlocks returns the granted requests of one account.
func (s *Store) ApprovedUnlocks(accountID string) ([]model.UnlockRequest, error) {
	return s.queryUnlocks(
		`SELECT `+unlockColumns+` FROM unlock_requests
		 WHERE account_id = ? AND unlock_status = 1 ORDER BY seq`, accountID)
}

func (s *Store) queryUnlocks(query string, args ...any) ([]model.UnlockRequest, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.UnlockRequest
	for rows.Next() {
		u, err := scanUnlock(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
