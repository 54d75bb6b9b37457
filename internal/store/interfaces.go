package store

import (
	"context"
	"time"
)

// UserStore owns the user record: the edge service owns user and token
// records.
type UserStore interface {
	GetByLogin(ctx context.Context, login string) (User, error)
	IncrementFailedAttempts(ctx context.Context, userID int64) error
	ResetFailedAttempts(ctx context.Context, userID int64, loginAt time.Time) error
}

// TokenStore owns token records, consulted as the durable fallback layer of
// the token subsystem.
type TokenStore interface {
	CreateToken(ctx context.Context, rec TokenRecord) error
	FindValid(ctx context.Context, userID int64, token string, now time.Time) (TokenRecord, error)
	Delete(ctx context.Context, userID int64, token string) error
}

// VendorStore is a read-only input to the fraud engine, consulted via
// fraud.VendorLookup (satisfied structurally by *Postgres) for post-scoring
// vendor risk-bucket observability.
type VendorStore interface {
	Get(ctx context.Context, vendorID int64) (Vendor, error)
}

// AuditStore appends audit events.
type AuditStore interface {
	Append(ctx context.Context, event AuditEvent) error
}

// The transaction store and IBAN registry are implemented in this package
// (see postgres_transactions.go and postgres_ibans.go) against the
// fraud.TransactionStore, fraud.VelocityCounter, and fraud.RiskyIBANLookup
// interfaces directly, since Go interface satisfaction is structural and
// those are the only consumers.
