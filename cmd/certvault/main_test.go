package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/MacJediWizard/certvault/internal/client"
	"github.com/MacJediWizard/certvault/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"version", "login", "logout", "verify", "issue", "certificates", "revoke", "config"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
}

func TestValidateServerURL(t *testing.T) {
	assert.NoError(t, validateServerURL("https://certs.example.edu"))
	assert.NoError(t, validateServerURL("http://localhost:8080"))
	assert.Error(t, validateServerURL("ftp://certs.example.edu"))
	assert.Error(t, validateServerURL("certs.example.edu"))
}

func TestWithSessionRefreshesExpiredToken(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/certificates/my":
			calls.Add(1)
			if r.Header.Get("Authorization") != "Bearer fresh" {
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid or expired token"}`))
				return
			}
			_, _ = w.Write([]byte(`{"certificates":[]}`))
		case "/api/auth/refresh":
			_ = json.NewEncoder(w).Encode(client.TokenResponse{AccessToken: "fresh", RefreshToken: "next"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := &config.ClientConfig{ServerURL: srv.URL, AccessToken: "stale", RefreshToken: "old"}
	require.NoError(t, cfg.SaveDefault())

	err := withSession(context.Background(), func(ctx context.Context, c *client.Client) error {
		_, err := c.ListMyCertificates(ctx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())

	saved, err := config.LoadDefault()
	require.NoError(t, err)
	assert.Equal(t, "fresh", saved.AccessToken)
	assert.Equal(t, "next", saved.RefreshToken)
}

func TestWithSessionRequiresLogin(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg := &config.ClientConfig{ServerURL: "http://localhost:8080"}
	require.NoError(t, cfg.SaveDefault())

	err := withSession(context.Background(), func(context.Context, *client.Client) error { return nil })
	assert.ErrorContains(t, err, "not logged in")
}
