package auth

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/riskshield/fraudguard/internal/apperr"
	"github.com/riskshield/fraudguard/internal/audit"
	"github.com/riskshield/fraudguard/internal/store"
)

// LoginResult is returned on a successful login or refresh.
type LoginResult struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
}

// Authenticator implements the login and refresh flows, modeled on
// LoginHandler but generalized away from its tenant-scanning lookup to a
// single-tenant user store.
type Authenticator struct {
	users     store.UserStore
	tokens    *TokenService
	audit     *audit.Writer
	rateLimit *RateLimiter
	logger    *slog.Logger
}

// NewAuthenticator wires the user store, token service, audit sink, and
// login rate limiter.
func NewAuthenticator(users store.UserStore, tokens *TokenService, auditWriter *audit.Writer, rateLimit *RateLimiter, logger *slog.Logger) *Authenticator {
	return &Authenticator{users: users, tokens: tokens, audit: auditWriter, rateLimit: rateLimit, logger: logger}
}

// Login implements the login flow: lookup, active/locked checks,
// constant-time password comparison, token issuance, counter reset, audit.
// It is preceded by a per-IP rate-limit check, an ambient hardening layer
// on top of the core login contract.
func (a *Authenticator) Login(ctx context.Context, r *http.Request, username, password string) (LoginResult, error) {
	ip := audit.ClientIP(r).String()
	if allowed, err := a.rateLimit.Allowed(ctx, ip); err != nil {
		a.logger.Warn("rate limit check failed", "error", err)
	} else if !allowed {
		a.audit.LogFromRequest(r, nil, "login.rate_limited", "user", username, nil)
		return LoginResult{}, apperr.New(apperr.KindAuthCredentialsInvalid, "too many login attempts, try again later")
	}

	user, err := a.users.GetByLogin(ctx, username)
	if err != nil {
		a.audit.LogFromRequest(r, nil, "login.failed", "user", username, map[string]any{"reason": "not_found"})
		return LoginResult{}, apperr.New(apperr.KindAuthCredentialsInvalid, "invalid username or password")
	}

	if !user.Active {
		a.audit.LogFromRequest(r, &user.ID, "login.failed", "user", username, map[string]any{"reason": "inactive"})
		return LoginResult{}, apperr.New(apperr.KindAccountInactive, "account is inactive")
	}
	if user.Locked {
		a.audit.LogFromRequest(r, &user.ID, "login.failed", "user", username, map[string]any{"reason": "locked"})
		return LoginResult{}, apperr.New(apperr.KindAccountLocked, "account is locked")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if incErr := a.users.IncrementFailedAttempts(ctx, user.ID); incErr != nil {
			a.logger.Warn("incrementing failed attempts", "error", incErr)
		}
		if rlErr := a.rateLimit.RecordFailure(ctx, ip); rlErr != nil {
			a.logger.Warn("recording rate limit failure", "error", rlErr)
		}
		a.audit.LogFromRequest(r, &user.ID, "login.failed", "user", username, map[string]any{"reason": "bad_password"})
		return LoginResult{}, apperr.New(apperr.KindAuthCredentialsInvalid, "invalid username or password")
	}

	access, _, err := a.tokens.Issue(ctx, user.ID, user.Login, store.TokenKindAccess)
	if err != nil {
		return LoginResult{}, err
	}
	refresh, _, err := a.tokens.Issue(ctx, user.ID, user.Login, store.TokenKindRefresh)
	if err != nil {
		return LoginResult{}, err
	}

	if err := a.users.ResetFailedAttempts(ctx, user.ID, time.Now().UTC()); err != nil {
		a.logger.Warn("resetting failed attempts", "error", err)
	}
	if err := a.rateLimit.Reset(ctx, ip); err != nil {
		a.logger.Warn("resetting rate limit", "error", err)
	}

	a.audit.LogFromRequest(r, &user.ID, "login.success", "user", username, nil)

	return LoginResult{AccessToken: access, RefreshToken: refresh, ExpiresIn: a.tokens.lifetimes.Access}, nil
}

// Refresh implements the refresh flow: validate the refresh token,
// re-resolve the user and require it still be active, and issue a new
// ACCESS token. The REFRESH token itself is reused, not rotated.
func (a *Authenticator) Refresh(ctx context.Context, r *http.Request, refreshToken string) (LoginResult, error) {
	claims, err := a.tokens.Validate(ctx, refreshToken)
	if err != nil {
		return LoginResult{}, err
	}
	if claims.Kind != store.TokenKindRefresh {
		return LoginResult{}, apperr.New(apperr.KindTokenInvalid, "not a refresh token")
	}

	user, err := a.users.GetByLogin(ctx, claims.Subject)
	if err != nil {
		return LoginResult{}, apperr.Wrap(apperr.KindTokenInvalid, "subject no longer resolves", err)
	}
	if !user.Active {
		return LoginResult{}, apperr.New(apperr.KindAccountInactive, "account is inactive")
	}

	access, _, err := a.tokens.Issue(ctx, user.ID, user.Login, store.TokenKindAccess)
	if err != nil {
		return LoginResult{}, err
	}

	a.audit.LogFromRequest(r, &user.ID, "token.refreshed", "user", user.Login, nil)

	return LoginResult{AccessToken: access, RefreshToken: refreshToken, ExpiresIn: a.tokens.lifetimes.Access}, nil
}

// Logout revokes the given access token.
func (a *Authenticator) Logout(ctx context.Context, r *http.Request, token string) error {
	claims, extractErr := a.tokens.ExtractSubject(token)
	if err := a.tokens.Revoke(ctx, token); err != nil {
		return err
	}
	if extractErr == nil {
		a.audit.LogFromRequest(r, nil, "logout", "user", claims.Subject, nil)
	}
	return nil
}
