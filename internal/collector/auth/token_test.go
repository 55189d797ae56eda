package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthServer(t *testing.T, calls *int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*calls++
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.FormValue("grant_type"))
		assert.Equal(t, "test-id", r.FormValue("client_id"))
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"access_token": "token-abc",
			"expires_in":   3600,
			"token_type":   "bearer",
		})
	}))
}

func TestTokenCachedUntilExpiry(t *testing.T) {
	calls := 0
	srv := newAuthServer(t, &calls)
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "test-id", "test-secret", srv.Client(), logrus.New())
	ctx := context.Background()

	token, err := ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-abc", token)

	// 缓存命中，不再请求
	_, err = ts.Token(ctx)
	require.NoError(t, err)
	_, err = ts.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestInvalidateForcesRefresh(t *testing.T) {
	calls := 0
	srv := newAuthServer(t, &calls)
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "test-id", "test-secret", srv.Client(), logrus.New())
	ctx := context.Background()

	_, err := ts.Token(ctx)
	require.NoError(t, err)

	token, err := ts.Invalidate(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-abc", token)
	assert.Equal(t, 2, calls)
}

func TestTokenErrorOnBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	ts := NewTokenSource(srv.URL, "bad-id", "bad-secret", srv.Client(), logrus.New())
	_, err := ts.Token(context.Background())
	assert.Error(t, err)
}
