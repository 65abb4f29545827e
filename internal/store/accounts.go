package store

import (
	"database/sql"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/pavelanni/questionbd/internal/model"
)

const accountColumns = `id, account_name, first_name, last_name, email, phone, password_hash,
	is_verified, role, created_at`

func scanAccount(sc scanner) (model.Account, error) {
	var a model.Account
	err := sc.Scan(&a.ID, &a.AccountName, &a.FirstName, &a.LastName, &a.Email, &a.Phone,
		&a.PasswordHash, &a.IsVerified, &a.Role, &a.CreatedAt)
	return a, err
}

// RegisterUser inserts a new unverified account with the user role and
// returns its id. Uniqueness of email and phone is not enforced here.
func (s *Store) RegisterUser(a model.Account) (string, error) {
	return s.createAccount(a, model.UserRoleUser, false)
}

// CreateAdmin inserts a verified admin account.
func (s *Store) CreateAdmin(a model.Account) (string, error) {
	return s.createAccount(a, model.UserRoleAdmin, true)
}

func (s *Store) createAccount(a model.Account, role model.UserRole, verified bool) (string, error) {
	a.ID = uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO accounts (`+accountColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.AccountName, a.FirstName, a.LastName, a.Email, a.Phone, a.PasswordHash,
		verified, role, s.now(),
	)
	if err != nil {
		slog.Error("failed to create account", "email", a.Email, "error", err)
		return "", err
	}
	slog.Info("created account", "id", a.ID, "role", role)
	return a.ID, nil
}

// GetUserByIdentifier returns the first account whose email or phone equals
// value exactly, or nil if none does.
func (s *Store) GetUserByIdentifier(value string) (*model.Account, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	a, err := scanAccount(s.db.QueryRow(
		`SELECT `+accountColumns+` FROM accounts WHERE email = ? OR phone = ? ORDER BY seq LIMIT 1`,
		value, value,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// GetUserByID returns an account by id, or nil if not found.
func (s *Store) GetUserByID(id string) (*model.Account, error) {
	a, err := scanAccount(s.db.QueryRow(`SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListUsers returns all accounts in registration order.
func (s *Store) ListUsers() ([]model.Account, error) {
	rows, err := s.db.Query(`SELECT ` + accountColumns + ` FROM accounts ORDER BY seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var accounts []model.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// UserCount returns the total number of accounts.
func (s *Store) UserCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM accounts`).Scan(&count)
	return count, err
}

// UpdateUser merges the non-nil fields of u into the account. Unknown ids
// are ignored.
func (s *Store) UpdateUser(id string, u model.AccountUpdate) error {
	var sets []string
	var args []any
	add := func(col string, v *string) {
		if v != nil {
			sets = append(sets, col+" = ?")
			args = append(args, *v)
		}
	}
	add("account_name", u.AccountName)
	add("first_name", u.FirstName)
	add("last_name", u.LastName)
	add("email", u.Email)
	add("phone", u.Phone)
	add("password_hash", u.PasswordHash)
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := s.db.Exec(`UPDATE accounts SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	return err
}

func (s *Store) markVerified(e execer, id string) error {
	_, err := e.Exec(`UPDATE accounts SET is_verified = 1 WHERE id = ?`, id)
	return err
}
