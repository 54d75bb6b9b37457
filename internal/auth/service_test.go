package auth

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskshield/fraudguard/internal/apperr"
	"github.com/riskshield/fraudguard/internal/kv"
	"github.com/riskshield/fraudguard/internal/store"
)

func buildTokenService(t *testing.T) (*TokenService, *kv.Memory, *store.Memory) {
	t.Helper()
	signer, err := NewTokenSigner(testSecret)
	require.NoError(t, err)

	mem := kv.NewMemory()
	tokens := store.NewMemory()
	lifetimes := Lifetimes{Access: 15 * time.Minute, Refresh: 7 * 24 * time.Hour}

	return NewTokenService(signer, mem, tokens, lifetimes, slog.Default()), mem, tokens
}

func TestTokenService_IssueValidateRevoke(t *testing.T) {
	svc, _, _ := buildTokenService(t)
	ctx := context.Background()

	token, exp, err := svc.Issue(ctx, 1, "alice", store.TokenKindAccess)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.True(t, exp.After(time.Now()))

	claims, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)

	require.NoError(t, svc.Revoke(ctx, token))

	_, err = svc.Validate(ctx, token)
	assert.Error(t, err)
	assert.Equal(t, apperr.KindTokenRevoked, apperr.KindOf(err))
}

func TestTokenService_Issue_FailsWhenDurableStoreUnavailable(t *testing.T) {
	signer, err := NewTokenSigner(testSecret)
	require.NoError(t, err)
	mem := kv.NewMemory()
	svc := NewTokenService(signer, mem, &failingTokenStore{}, DefaultLifetimes, slog.Default())

	_, _, err = svc.Issue(context.Background(), 1, "alice", store.TokenKindAccess)
	assert.Error(t, err)
	assert.Equal(t, apperr.KindUpstreamUnavailable, apperr.KindOf(err))
}

type failingTokenStore struct{}

func (failingTokenStore) CreateToken(context.Context, store.TokenRecord) error {
	return assertFakeErr
}
func (failingTokenStore) FindValid(context.Context, int64, string, time.Time) (store.TokenRecord, error) {
	return store.TokenRecord{}, assertFakeErr
}
func (failingTokenStore) Delete(context.Context, int64, string) error { return nil }

var assertFakeErr = apperr.New(apperr.KindInternal, "boom")

func TestTokenService_Validate_FailsClosedOnBlacklistReadError(t *testing.T) {
	svc, mem, _ := buildTokenService(t)
	ctx := context.Background()

	token, _, err := svc.Issue(ctx, 1, "alice", store.TokenKindAccess)
	require.NoError(t, err)

	mem.FailNext = 1
	_, err = svc.Validate(ctx, token)
	assert.Error(t, err, "blacklist check errors must reject, never admit")
}

func TestTokenService_Validate_FallsBackToDurableWhenKVMisses(t *testing.T) {
	svc, mem, _ := buildTokenService(t)
	ctx := context.Background()

	token, _, err := svc.Issue(ctx, 5, "carol", store.TokenKindAccess)
	require.NoError(t, err)

	// Simulate a KV cache eviction: delete the token key but keep the
	// durable record, forcing the fallback path.
	require.NoError(t, mem.Del(ctx, kvTokenKey(token)))

	claims, err := svc.Validate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "carol", claims.Subject)

	// Validate must have re-populated the KV cache from the durable record.
	exists, err := mem.Exists(ctx, kvTokenKey(token))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestTokenService_Validate_RejectsUnknownToken(t *testing.T) {
	svc, _, _ := buildTokenService(t)
	signer, err := NewTokenSigner(testSecret)
	require.NoError(t, err)

	now := time.Now().UTC()
	forged, err := signer.Sign(Claims{Subject: "mallory", UserID: 999, Kind: store.TokenKindAccess}, now, now.Add(time.Minute))
	require.NoError(t, err)

	_, err = svc.Validate(context.Background(), forged)
	assert.Error(t, err)
}

func TestTokenService_Revoke_IsIdempotent(t *testing.T) {
	svc, _, _ := buildTokenService(t)
	ctx := context.Background()

	token, _, err := svc.Issue(ctx, 1, "alice", store.TokenKindAccess)
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, token))
	require.NoError(t, svc.Revoke(ctx, token))
}
