package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/riskshield/fraudguard/internal/apperr"
	"github.com/riskshield/fraudguard/internal/kv"
	"github.com/riskshield/fraudguard/internal/store"
)

// Lifetimes are the default ACCESS/REFRESH token lifetimes, overridable via
// JWT_ACCESS_EXPIRATION / JWT_REFRESH_EXPIRATION.
type Lifetimes struct {
	Access  time.Duration
	Refresh time.Duration
}

// DefaultLifetimes is 15 minutes access / 7 days refresh (900000ms / 604800000ms).
var DefaultLifetimes = Lifetimes{
	Access:  15 * time.Minute,
	Refresh: 7 * 24 * time.Hour,
}

// TokenService implements the dual-storage (KV + durable) token subsystem
// with a blacklist overlay, following a cache-aside-with-blacklist design.
type TokenService struct {
	signer    *TokenSigner
	kv        kv.Client
	tokens    store.TokenStore
	lifetimes Lifetimes
	logger    *slog.Logger
}

// NewTokenService wires the signer, KV cache, and durable token store.
func NewTokenService(signer *TokenSigner, kvClient kv.Client, tokens store.TokenStore, lifetimes Lifetimes, logger *slog.Logger) *TokenService {
	return &TokenService{signer: signer, kv: kvClient, tokens: tokens, lifetimes: lifetimes, logger: logger}
}

func kvTokenKey(token string) string     { return "jwt:token:" + token }
func kvBlacklistKey(token string) string { return "jwt:blacklist:" + token }

// Issue signs a new token of the given kind for the user and writes it to
// the KV cache and durable store in a single logical step; a durable write
// failure fails the issuance.
func (s *TokenService) Issue(ctx context.Context, userID int64, login string, kind store.TokenKind) (string, time.Time, error) {
	lifetime := s.lifetimes.Access
	if kind == store.TokenKindRefresh {
		lifetime = s.lifetimes.Refresh
	}

	now := time.Now().UTC()
	exp := now.Add(lifetime)

	token, err := s.signer.Sign(Claims{Subject: login, UserID: userID, Kind: kind}, now, exp)
	if err != nil {
		return "", time.Time{}, apperr.Wrap(apperr.KindInternal, "issuing token", err)
	}

	if err := s.tokens.CreateToken(ctx, store.TokenRecord{
		Token:     token,
		UserID:    userID,
		Kind:      kind,
		IssuedAt:  now,
		ExpiresAt: exp,
	}); err != nil {
		return "", time.Time{}, apperr.Wrap(apperr.KindUpstreamUnavailable, "authentication temporarily unavailable", err)
	}

	if err := s.kv.Set(ctx, kvTokenKey(token), strconv.FormatInt(userID, 10), lifetime); err != nil {
		s.logger.Warn("token kv cache write failed", "error", err)
	}

	return token, exp, nil
}

// Validate runs the layered check: blacklist, signature and expiry, KV fast
// path, durable fallback with KV re-population. Any ambiguity rejects,
// per the fail-closed policy.
func (s *TokenService) Validate(ctx context.Context, token string) (*Claims, error) {
	blacklisted, err := s.kv.Exists(ctx, kvBlacklistKey(token))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTokenInvalid, "token validation unavailable", err)
	}
	if blacklisted {
		return nil, apperr.New(apperr.KindTokenRevoked, "token has been revoked")
	}

	claims, exp, err := s.signer.Verify(token, time.Now().UTC())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindTokenInvalid, "invalid token", err)
	}

	if ok, err := s.kv.Exists(ctx, kvTokenKey(token)); err == nil && ok {
		return claims, nil
	}

	rec, err := s.tokens.FindValid(ctx, claims.UserID, token, time.Now().UTC())
	if err != nil {
		if errors.Is(err, store.ErrTokenNotFound) {
			return nil, apperr.New(apperr.KindTokenInvalid, "token not recognized")
		}
		return nil, apperr.Wrap(apperr.KindTokenInvalid, "token validation unavailable", err)
	}

	remaining := time.Until(exp)
	if remaining > 0 {
		if err := s.kv.Set(ctx, kvTokenKey(token), strconv.FormatInt(rec.UserID, 10), remaining); err != nil {
			s.logger.Warn("token kv re-population failed", "error", err)
		}
	}

	return claims, nil
}

// Revoke parses the token's claims to recover its remaining TTL, writes the
// blacklist entry (authoritative), and best-effort deletes the KV and
// durable records.
func (s *TokenService) Revoke(ctx context.Context, token string) error {
	claims, exp, err := s.signer.ExtractSubject(token)
	if err != nil {
		return apperr.Wrap(apperr.KindTokenInvalid, "cannot parse token to revoke", err)
	}

	remaining := time.Until(exp)
	if remaining > 0 {
		if err := s.kv.Set(ctx, kvBlacklistKey(token), "1", remaining); err != nil {
			return apperr.Wrap(apperr.KindInternal, "revocation unavailable", err)
		}
	}

	if err := s.kv.Del(ctx, kvTokenKey(token)); err != nil {
		s.logger.Warn("token kv delete failed on revoke", "error", err)
	}
	if err := s.tokens.Delete(ctx, claims.UserID, token); err != nil {
		s.logger.Warn("durable token delete failed on revoke", "error", err)
	}

	return nil
}

// ExtractSubject parses claims without semantic validation, used for
// logging and ahead of the refresh flow's full validation.
func (s *TokenService) ExtractSubject(token string) (*Claims, error) {
	claims, _, err := s.signer.ExtractSubject(token)
	if err != nil {
		return nil, fmt.Errorf("extracting subject: %w", err)
	}
	return claims, nil
}
