package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestLoginStoresToken(t *testing.T) {
	var sawAuth string
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "admin@system.com", body["email"])
			_ = json.NewEncoder(w).Encode(TokenResponse{AccessToken: "acc", RefreshToken: "ref", TokenType: "Bearer", Role: models.UserRoleSystemAdmin})
		case "/api/certificates/my":
			sawAuth = r.Header.Get("Authorization")
			_ = json.NewEncoder(w).Encode(map[string]any{"certificates": []*models.Certificate{{ID: 1}}})
		default:
			http.NotFound(w, r)
		}
	})

	c := New(srv.URL+"/", "")
	resp, err := c.Login(context.Background(), "admin@system.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, "ref", resp.RefreshToken)

	certs, err := c.ListMyCertificates(context.Background())
	require.NoError(t, err)
	assert.Len(t, certs, 1)
	assert.Equal(t, "Bearer acc", sawAuth)
}

func TestVerifyMiss(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/verify/BOGUS000000", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"certificate not found"}`))
	})

	_, err := New(srv.URL, "").Verify(context.Background(), "BOGUS000000")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "certificate not found", apiErr.Message)
}

func TestUnauthorizedWithToken(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid or expired token"}`))
	})

	_, err := New(srv.URL, "stale").ListCertificates(context.Background())

	assert.True(t, errors.Is(err, ErrUnauthorized))
}

func TestIssueAndUpdateStatus(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/certificates":
			var req IssueRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, int64(1), req.CourseID)
			assert.Equal(t, "student@system.com", req.RecipientEmail)
			_ = json.NewEncoder(w).Encode(models.Certificate{ID: 7, VerificationCode: "ABCDEFGHJKLM", Status: models.CertificateStatusActive})
		case r.Method == http.MethodPut && r.URL.Path == "/api/certificates/7":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			_ = json.NewEncoder(w).Encode(models.Certificate{ID: 7, Status: models.CertificateStatus(body["status"])})
		default:
			http.NotFound(w, r)
		}
	})

	c := New(srv.URL, "acc")
	cert, err := c.Issue(context.Background(), IssueRequest{CourseID: 1, RecipientEmail: "student@system.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), cert.ID)

	cert, err = c.UpdateStatus(context.Background(), 7, models.CertificateStatusRevoked)
	require.NoError(t, err)
	assert.Equal(t, models.CertificateStatusRevoked, cert.Status)
}
