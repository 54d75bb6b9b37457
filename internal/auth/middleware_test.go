package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskshield/fraudguard/internal/store"
)

func TestRequireBearer_RejectsMissingHeader(t *testing.T) {
	svc, _, _ := buildTokenService(t)
	called := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	RequireBearer(svc)(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, called)
}

func TestRequireBearer_RejectsInvalidToken(t *testing.T) {
	svc, _, _ := buildTokenService(t)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer not-a-real-token")
	w := httptest.NewRecorder()
	RequireBearer(svc)(next).ServeHTTP(w, r)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireBearer_AcceptsValidTokenAndSetsContext(t *testing.T) {
	svc, _, _ := buildTokenService(t)
	token, _, err := svc.Issue(context.Background(), 7, "alice", store.TokenKindAccess)
	require.NoError(t, err)

	var gotClaims *Claims
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotClaims = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	RequireBearer(svc)(next).ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, gotClaims)
	assert.Equal(t, "alice", gotClaims.Subject)
}

func TestFromContext_NoClaimsReturnsNil(t *testing.T) {
	assert.Nil(t, FromContext(context.Background()))
}
