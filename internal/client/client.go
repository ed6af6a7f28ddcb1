// Package client provides an HTTP client for the certvault API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MacJediWizard/certvault/internal/models"
)

// ErrUnauthorized is returned when the server rejects the access token.
var ErrUnauthorized = errors.New("not logged in or session expired")

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// Client is an HTTP client for communicating with a certvault server.
type Client struct {
	serverURL   string
	accessToken string
	httpClient  *http.Client
}

// New creates a new API client. accessToken may be empty for public calls.
func New(serverURL, accessToken string) *Client {
	return &Client{
		serverURL:   strings.TrimSuffix(serverURL, "/"),
		accessToken: accessToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// TokenResponse is returned by login and refresh.
type TokenResponse struct {
	AccessToken     string          `json:"accessToken"`
	RefreshToken    string          `json:"refreshToken"`
	TokenType       string          `json:"tokenType"`
	AccessExpiresAt time.Time       `json:"accessExpiresAt"`
	UserID          int64           `json:"userId"`
	FullName        string          `json:"fullName"`
	Email           string          `json:"email"`
	Role            models.UserRole `json:"role"`
}

// Login exchanges credentials for tokens. The client keeps the new access token.
func (c *Client) Login(ctx context.Context, email, password string) (*TokenResponse, error) {
	var resp TokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &resp); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	c.accessToken = resp.AccessToken
	return &resp, nil
}

// Refresh exchanges a refresh token for a new pair. The client keeps the new access token.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	var resp TokenResponse
	body := map[string]string{"refreshToken": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", body, &resp); err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	c.accessToken = resp.AccessToken
	return &resp, nil
}

// PublicCertificate is the anonymous verification view.
type PublicCertificate struct {
	CertificateNumber string                   `json:"certificateNumber"`
	VerificationCode  string                   `json:"verificationCode"`
	CourseName        string                   `json:"courseName"`
	RecipientName     string                   `json:"recipientName"`
	IssueDate         time.Time                `json:"issueDate"`
	Status            models.CertificateStatus `json:"status"`
	Valid             bool                     `json:"valid"`
}

// Verify looks up a certificate by verification code. A miss is an *APIError with status 404.
func (c *Client) Verify(ctx context.Context, code string) (*PublicCertificate, error) {
	var cert PublicCertificate
	if err := c.do(ctx, http.MethodGet, "/api/verify/"+url.PathEscape(code), nil, &cert); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	return &cert, nil
}

// IssueRequest selects the course and recipient of a new certificate.
type IssueRequest struct {
	CourseID       int64  `json:"courseId"`
	RecipientID    *int64 `json:"recipientId,omitempty"`
	RecipientEmail string `json:"recipientEmail,omitempty"`
}

// Issue creates a certificate.
func (c *Client) Issue(ctx context.Context, req IssueRequest) (*models.Certificate, error) {
	var cert models.Certificate
	if err := c.do(ctx, http.MethodPost, "/api/certificates", req, &cert); err != nil {
		return nil, fmt.Errorf("issue certificate: %w", err)
	}
	return &cert, nil
}

// ListCertificates returns every certificate (admin roles only).
func (c *Client) ListCertificates(ctx context.Context) ([]*models.Certificate, error) {
	return c.listCertificates(ctx, "/api/certificates")
}

// ListMyCertificates returns the caller's own certificates.
func (c *Client) ListMyCertificates(ctx context.Context) ([]*models.Certificate, error) {
	return c.listCertificates(ctx, "/api/certificates/my")
}

func (c *Client) listCertificates(ctx context.Context, path string) ([]*models.Certificate, error) {
	var resp struct {
		Certificates []*models.Certificate `json:"certificates"`
	}
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return resp.Certificates, nil
}

// UpdateStatus changes a certificate's status.
func (c *Client) UpdateStatus(ctx context.Context, id int64, status models.CertificateStatus) (*models.Certificate, error) {
	var cert models.Certificate
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, http.MethodPut, "/api/certificates/"+strconv.FormatInt(id, 10), body, &cert); err != nil {
		return nil, fmt.Errorf("update certificate status: %w", err)
	}
	return &cert, nil
}

// Version returns the server build information.
func (c *Client) Version(ctx context.Context) (map[string]string, error) {
	var info map[string]string
	if err := c.do(ctx, http.MethodGet, "/version", nil, &info); err != nil {
		return nil, fmt.Errorf("get server version: %w", err)
	}
	return info, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, result any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.serverURL+path, body)
	if err != nil {
		return err
	}
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errBody struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(data, &errBody)
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: errBody.Error}
		if resp.StatusCode == http.StatusUnauthorized && c.accessToken != "" {
			return fmt.Errorf("%w: %w", ErrUnauthorized, apiErr)
		}
		return apiErr
	}

	if result != nil {
		return json.Unmarshal(data, result)
	}
	return nil
}
