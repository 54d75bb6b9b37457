package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// ErrTokenNotFound is returned when FindValid has no matching, unrevoked,
// unexpired token record.
var ErrTokenNotFound = errors.New("store: token not found")

// CreateToken persists a token record, satisfying TokenStore.
func (p *Postgres) CreateToken(ctx context.Context, rec TokenRecord) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO tokens (token, user_id, kind, issued_at, expires_at, revoked)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.Token, rec.UserID, string(rec.Kind), rec.IssuedAt, rec.ExpiresAt, rec.Revoked,
	)
	if err != nil {
		return fmt.Errorf("inserting token record for user %d: %w", rec.UserID, err)
	}
	return nil
}

// FindValid returns the token record if it exists, is unrevoked, and has not
// expired as of now, satisfying TokenStore.
func (p *Postgres) FindValid(ctx context.Context, userID int64, token string, now time.Time) (TokenRecord, error) {
	var rec TokenRecord
	var kind string
	err := p.pool.QueryRow(ctx,
		`SELECT token, user_id, kind, issued_at, expires_at, revoked, revoked_at
		 FROM tokens
		 WHERE user_id = $1 AND token = $2 AND revoked = false AND expires_at > $3`,
		userID, token, now,
	).Scan(&rec.Token, &rec.UserID, &kind, &rec.IssuedAt, &rec.ExpiresAt, &rec.Revoked, &rec.RevokedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return TokenRecord{}, ErrTokenNotFound
	}
	if err != nil {
		return TokenRecord{}, fmt.Errorf("looking up token for user %d: %w", userID, err)
	}
	rec.Kind = TokenKind(kind)
	return rec, nil
}

// Delete revokes a token record, satisfying TokenStore. Revocation is
// recorded rather than a row deletion, so the audit trail survives logout.
func (p *Postgres) Delete(ctx context.Context, userID int64, token string) error {
	_, err := p.pool.Exec(ctx,
		`UPDATE tokens SET revoked = true, revoked_at = now() WHERE user_id = $1 AND token = $2`,
		userID, token,
	)
	if err != nil {
		return fmt.Errorf("revoking token for user %d: %w", userID, err)
	}
	return nil
}
