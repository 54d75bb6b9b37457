// Package auth implements the stateful JWT subsystem: HS256
// signing/verification via go-jose, dual-storage (KV cache + durable store)
// issuance/validation with a blacklist overlay for instant revocation, and
// the login/refresh flow that sits on top of it.
package auth

import (
	"fmt"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"

	"github.com/riskshield/fraudguard/internal/store"
)

// minSecretBytes is the minimum HS256 key length required (≥ 256 bits).
const minSecretBytes = 32

// Claims are the claims embedded in a self-issued token.
type Claims struct {
	Subject string          `json:"sub"`
	UserID  int64           `json:"user_id"`
	Kind    store.TokenKind `json:"kind"`
}

// TokenSigner signs and verifies HS256 JWTs. The signature algorithm is
// pinned — ParseSigned is called with an explicit allow-list so a token
// declaring a different algorithm is rejected outright, guarding against
// algorithm-downgrade attacks.
type TokenSigner struct {
	key []byte
}

// NewTokenSigner validates the secret length and builds a signer.
func NewTokenSigner(secret string) (*TokenSigner, error) {
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("jwt secret must be at least %d bytes, got %d", minSecretBytes, len(secret))
	}
	return &TokenSigner{key: []byte(secret)}, nil
}

// Sign issues a token for the given claims, expiring at exp. Clock skew
// tolerance is 0 — expiry is checked strictly on parse.
func (s *TokenSigner) Sign(claims Claims, issuedAt, exp time.Time) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.HS256, Key: s.key},
		(&jose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("creating signer: %w", err)
	}

	registered := jwt.Claims{
		Subject:  claims.Subject,
		IssuedAt: jwt.NewNumericDate(issuedAt),
		Expiry:   jwt.NewNumericDate(exp),
	}

	token, err := jwt.Signed(signer).Claims(registered).Claims(claims).Serialize()
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry and returns the claims. now is
// passed explicitly so tests can control it.
func (s *TokenSigner) Verify(raw string, now time.Time) (*Claims, time.Time, error) {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing token: %w", err)
	}

	var registered jwt.Claims
	var custom Claims
	if err := tok.Claims(s.key, &registered, &custom); err != nil {
		return nil, time.Time{}, fmt.Errorf("verifying signature: %w", err)
	}

	if err := registered.ValidateWithLeeway(jwt.Expected{Time: now}, 0); err != nil {
		return nil, time.Time{}, fmt.Errorf("validating claims: %w", err)
	}

	exp := now
	if registered.Expiry != nil {
		exp = registered.Expiry.Time()
	}
	return &custom, exp, nil
}

// ExtractSubject parses claims without validating signature or expiry, used
// for logging and ahead of the full validate chain. It also returns the
// declared expiry, needed by revoke to size the blacklist entry's TTL.
func (s *TokenSigner) ExtractSubject(raw string) (*Claims, time.Time, error) {
	tok, err := jwt.ParseSigned(raw, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("parsing token: %w", err)
	}
	var custom Claims
	var registered jwt.Claims
	if err := tok.UnsafeClaimsWithoutVerification(&custom, &registered); err != nil {
		return nil, time.Time{}, fmt.Errorf("reading claims: %w", err)
	}
	var exp time.Time
	if registered.Expiry != nil {
		exp = registered.Expiry.Time()
	}
	return &custom, exp, nil
}
