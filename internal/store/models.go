// Package store implements the durable record store: users, token records,
// transaction records, the IBAN registry, vendors, and the audit log. It is
// PostgreSQL-backed via jackc/pgx/v5, modeled on the db.DBTX/db.New(pool)
// pattern.
package store

import "time"

// TokenKind distinguishes access from refresh tokens.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "ACCESS"
	TokenKindRefresh TokenKind = "REFRESH"
)

// User is the durable user record.
type User struct {
	ID             int64
	Login          string
	Email          string
	PasswordHash   string
	DisplayName    string
	Active         bool
	Locked         bool
	FailedAttempts int
	LastLoginAt    *time.Time
}

// TokenRecord is the durable token record.
type TokenRecord struct {
	Token     string
	UserID    int64
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
}

// Vendor is a read-only input to the fraud engine.
type Vendor struct {
	ID           int64
	Name         string
	IBAN         string
	RiskBucket   string
	Active       bool
	TotalCount   int64
	FlaggedCount int64
}

// IBANRecord is one entry in the IBAN registry.
type IBANRecord struct {
	IBAN  string
	Risky bool
}

// AuditEvent is one append-only audit log entry.
type AuditEvent struct {
	UserID     *int64
	Action     string
	Resource   string
	ResourceID string
	ClientIP   string
	UserAgent  string
	Detail     map[string]any
	CreatedAt  time.Time
}
