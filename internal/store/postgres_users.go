package store

import (
	"context"
	"fmt"
	"time"
)

// GetByLogin looks up a user by login name.
func (p *Postgres) GetByLogin(ctx context.Context, login string) (User, error) {
	var u User
	err := p.pool.QueryRow(ctx,
		`SELECT id, login, email, password_hash, display_name, active, locked, failed_attempts, last_login_at
		 FROM users WHERE login = $1`,
		login,
	).Scan(&u.ID, &u.Login, &u.Email, &u.PasswordHash, &u.DisplayName, &u.Active, &u.Locked, &u.FailedAttempts, &u.LastLoginAt)
	if err != nil {
		return User{}, fmt.Errorf("looking up user %q: %w", login, err)
	}
	return u, nil
}

// IncrementFailedAttempts bumps the failed-attempt counter on a failed login.
func (p *Postgres) IncrementFailedAttempts(ctx context.Context, userID int64) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE users SET failed_attempts = failed_attempts + 1 WHERE id = $1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("incrementing failed attempts for user %d: %w", userID, err)
	}
	return nil
}

// ResetFailedAttempts clears the failed-attempt counter and records the
// successful login time.
func (p *Postgres) ResetFailedAttempts(ctx context.Context, userID int64, loginAt time.Time) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE users SET failed_attempts = 0, last_login_at = $2 WHERE id = $1`,
		userID, loginAt,
	)
	if err != nil {
		return fmt.Errorf("resetting failed attempts for user %d: %w", userID, err)
	}
	return nil
}
