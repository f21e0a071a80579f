package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"parcel-tracker/internal/models"
)

// BalanceUpdate is the new balance for one account.
type BalanceUpdate struct {
	Username string
	Balance  int64
}

// CreateUser inserts a new account.
func (db *DB) CreateUser(ctx context.Context, username, passwordHash string, role models.Role, balance int64) (*models.Account, error) {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO users (username, password_hash, role, balance) VALUES (?, ?, ?, ?)",
		username, passwordHash, role, balance,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return db.GetUser(ctx, username)
}

// GetUser retrieves an account by username.
func (db *DB) GetUser(ctx context.Context, username string) (*models.Account, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT username, password_hash, role, balance, created_at FROM users WHERE username = ?",
		username,
	)

	var a models.Account
	if err := row.Scan(&a.Username, &a.PasswordHash, &a.Role, &a.Balance, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &a, nil
}

// UpdatePassword replaces the stored password hash of an account.
func (db *DB) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	result, err := db.conn.ExecContext(ctx,
		"UPDATE users SET password_hash = ? WHERE username = ?",
		passwordHash, username,
	)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireOneRow(result)
}

// SetBalances writes every balance in a single transaction. Either all rows are
// updated or none is.
func (db *DB) SetBalances(ctx context.Context, updates ...BalanceUpdate) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin balance transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, "UPDATE users SET balance = ? WHERE username = ?")
	if err != nil {
		return fmt.Errorf("prepare balance update: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		result, err := stmt.ExecContext(ctx, u.Balance, u.Username)
		if err != nil {
			return fmt.Errorf("update balance of %s: %w", u.Username, err)
		}
		if err := requireOneRow(result); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetAdministrator retrieves the administrator account.
func (db *DB) GetAdministrator(ctx context.Context) (*models.Account, error) {
	row := db.conn.QueryRowContext(ctx,
		"SELECT username, password_hash, role, balance, created_at FROM users WHERE role = ? ORDER BY created_at LIMIT 1",
		models.RoleAdministrator,
	)

	var a models.Account
	if err := row.Scan(&a.Username, &a.PasswordHash, &a.Role, &a.Balance, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get administrator: %w", err)
	}
	return &a, nil
}

func requireOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
