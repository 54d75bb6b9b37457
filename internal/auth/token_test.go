package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskshield/fraudguard/internal/store"
)

const testSecret = "this-is-a-32-byte-minimum-secret!!"

func TestNewTokenSigner_RejectsShortSecret(t *testing.T) {
	_, err := NewTokenSigner("too-short")
	assert.Error(t, err)
}

func TestNewTokenSigner_AcceptsValidSecret(t *testing.T) {
	signer, err := NewTokenSigner(testSecret)
	require.NoError(t, err)
	assert.NotNil(t, signer)
}

func TestSignAndVerify_RoundTrip(t *testing.T) {
	signer, err := NewTokenSigner(testSecret)
	require.NoError(t, err)

	now := time.Now().UTC()
	claims := Claims{Subject: "alice", UserID: 42, Kind: store.TokenKindAccess}

	token, err := signer.Sign(claims, now, now.Add(15*time.Minute))
	require.NoError(t, err)
	assert.True(t, strings.Count(token, ".") == 2, "expected a compact JWS with 3 segments")

	got, exp, err := signer.Verify(token, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, claims.Subject, got.Subject)
	assert.Equal(t, claims.UserID, got.UserID)
	assert.Equal(t, claims.Kind, got.Kind)
	assert.WithinDuration(t, now.Add(15*time.Minute), exp, time.Second)
}

func TestVerify_RejectsExpiredToken(t *testing.T) {
	signer, err := NewTokenSigner(testSecret)
	require.NoError(t, err)

	now := time.Now().UTC()
	token, err := signer.Sign(Claims{Subject: "alice", UserID: 1, Kind: store.TokenKindAccess}, now, now.Add(time.Minute))
	require.NoError(t, err)

	_, _, err = signer.Verify(token, now.Add(2*time.Minute))
	assert.Error(t, err)
}

func TestVerify_RejectsTamperedSignature(t *testing.T) {
	signer, err := NewTokenSigner(testSecret)
	require.NoError(t, err)

	now := time.Now().UTC()
	token, err := signer.Sign(Claims{Subject: "alice", UserID: 1, Kind: store.TokenKindAccess}, now, now.Add(time.Minute))
	require.NoError(t, err)

	tampered := token[:len(token)-2] + "xx"
	_, _, err = signer.Verify(tampered, now)
	assert.Error(t, err)
}

func TestVerify_RejectsWrongKey(t *testing.T) {
	signer, err := NewTokenSigner(testSecret)
	require.NoError(t, err)
	other, err := NewTokenSigner("a-completely-different-32-byte-secret")
	require.NoError(t, err)

	now := time.Now().UTC()
	token, err := signer.Sign(Claims{Subject: "alice", UserID: 1, Kind: store.TokenKindAccess}, now, now.Add(time.Minute))
	require.NoError(t, err)

	_, _, err = other.Verify(token, now)
	assert.Error(t, err)
}

func TestExtractSubject_IgnoresExpiry(t *testing.T) {
	signer, err := NewTokenSigner(testSecret)
	require.NoError(t, err)

	now := time.Now().UTC()
	token, err := signer.Sign(Claims{Subject: "bob", UserID: 9, Kind: store.TokenKindRefresh}, now, now.Add(-time.Hour))
	require.NoError(t, err)

	// Verify rejects the already-expired token...
	_, _, err = signer.Verify(token, now)
	assert.Error(t, err)

	// ...but ExtractSubject still reads the claims, unsigned-verification style.
	claims, exp, err := signer.ExtractSubject(token)
	require.NoError(t, err)
	assert.Equal(t, "bob", claims.Subject)
	assert.WithinDuration(t, now.Add(-time.Hour), exp, time.Second)
}
