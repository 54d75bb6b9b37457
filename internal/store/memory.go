package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/riskshield/fraudguard/internal/fraud"
)

// ErrUserNotFound and ErrVendorNotFound mirror the not-found sentinel the
// Postgres implementation reports via a wrapped pgx.ErrNoRows.
var (
	ErrUserNotFound   = errors.New("store: user not found")
	ErrVendorNotFound = errors.New("store: vendor not found")
)

// Memory is an in-memory fake of the full store surface, used by package
// tests that exercise auth and fraud flows without a database, mirroring the
// kv.Memory fake pattern.
type Memory struct {
	mu sync.Mutex

	Users        map[int64]User
	usersByLogin map[string]int64

	Tokens map[string]TokenRecord // keyed by token

	Vendors map[int64]Vendor

	IBANs map[string]bool

	Transactions []fraud.TransactionRecord

	AuditEvents []AuditEvent
}

// NewMemory builds an empty in-memory store fake.
func NewMemory() *Memory {
	return &Memory{
		Users:        map[int64]User{},
		usersByLogin: map[string]int64{},
		Tokens:       map[string]TokenRecord{},
		Vendors:      map[int64]Vendor{},
		IBANs:        map[string]bool{},
	}
}

// SeedUser registers a user and indexes it by login, for test setup.
func (m *Memory) SeedUser(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Users[u.ID] = u
	m.usersByLogin[u.Login] = u.ID
}

// SeedVendor registers a vendor, for test setup.
func (m *Memory) SeedVendor(v Vendor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Vendors[v.ID] = v
}

// SeedIBAN marks an IBAN risky or clean in the registry, for test setup.
func (m *Memory) SeedIBAN(iban string, risky bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.IBANs[iban] = risky
}

func (m *Memory) GetByLogin(_ context.Context, login string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.usersByLogin[login]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return m.Users[id], nil
}

func (m *Memory) IncrementFailedAttempts(_ context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.Users[userID]
	u.FailedAttempts++
	m.Users[userID] = u
	return nil
}

func (m *Memory) ResetFailedAttempts(_ context.Context, userID int64, loginAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := m.Users[userID]
	u.FailedAttempts = 0
	t := loginAt
	u.LastLoginAt = &t
	m.Users[userID] = u
	return nil
}

func (m *Memory) CreateToken(_ context.Context, rec TokenRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Tokens[rec.Token] = rec
	return nil
}

func (m *Memory) FindValid(_ context.Context, userID int64, token string, now time.Time) (TokenRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Tokens[token]
	if !ok || rec.UserID != userID || rec.Revoked || !rec.ExpiresAt.After(now) {
		return TokenRecord{}, ErrTokenNotFound
	}
	return rec, nil
}

func (m *Memory) Delete(_ context.Context, userID int64, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.Tokens[token]
	if !ok || rec.UserID != userID {
		return nil
	}
	rec.Revoked = true
	now := time.Now().UTC()
	rec.RevokedAt = &now
	m.Tokens[token] = rec
	return nil
}

func (m *Memory) Get(_ context.Context, vendorID int64) (Vendor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.Vendors[vendorID]
	if !ok {
		return Vendor{}, ErrVendorNotFound
	}
	return v, nil
}

func (m *Memory) IsRisky(_ context.Context, iban string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.IBANs[iban], nil
}

func (m *Memory) Create(_ context.Context, rec fraud.TransactionRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transactions = append(m.Transactions, rec)
	return nil
}

func (m *Memory) CountByIBANSince(_ context.Context, iban string, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, tx := range m.Transactions {
		if tx.IBAN == iban && tx.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (m *Memory) CountByVendorSince(_ context.Context, vendorID int64, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, tx := range m.Transactions {
		if tx.VendorID == vendorID && tx.CreatedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (m *Memory) Append(_ context.Context, event AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AuditEvents = append(m.AuditEvents, event)
	return nil
}
