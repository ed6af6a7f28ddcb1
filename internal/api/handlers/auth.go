package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MacJediWizard/certvault/internal/api/middleware"
	"github.com/MacJediWizard/certvault/internal/auth"
	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Authenticator defines the credential operations used by AuthHandler.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password, sourceAddress string) (*auth.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.LoginResult, error)
	Register(ctx context.Context, params auth.RegisterParams) (*models.User, error)
}

// UserLookup resolves the authenticated user's profile.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// AuthHandler handles authentication-related HTTP endpoints.
type AuthHandler struct {
	authenticator Authenticator
	users         UserLookup
	logger        zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authenticator Authenticator, users UserLookup, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		users:         users,
		logger:        logger.With().Str("component", "auth_handler").Logger(),
	}
}

// RegisterPublicRoutes registers auth routes that don't require authentication.
func (h *AuthHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("/auth")
	{
		authGroup.POST("/login", h.Login)
		authGroup.POST("/register", h.Register)
		authGroup.POST("/refresh", h.Refresh)
	}
}

// RegisterRoutes registers routes that require an authenticated identity.
func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/users/me", h.Me)
}

// LoginRequest is the request body for a credential exchange.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the request body for a token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RegisterRequest is the request body for creating an account.
type RegisterRequest struct {
	FullName      string `json:"fullName" binding:"required,max=255"`
	Email         string `json:"email" binding:"required,email,max=255"`
	Password      string `json:"password" binding:"required,min=8,max=72"`
	Role          string `json:"role"`
	InstitutionID *int64 `json:"institutionId"`
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

func newTokenResponse(result *auth.LoginResult) TokenResponse {
	return TokenResponse{
		AccessToken:     result.Tokens.AccessToken,
		RefreshToken:    result.Tokens.RefreshToken,
		TokenType:       auth.TokenType,
		AccessExpiresAt: result.Tokens.AccessExpiresAt,
		UserID:          result.User.ID,
		FullName:        result.User.FullName,
		Email:           result.User.Email,
		Role:            result.User.Role,
	}
}

// Login exchanges credentials for an access and refresh token pair.
//
//	@Summary		Log in
//	@Description	Exchanges an email and password for an access and refresh token pair. Unknown email, wrong password and inactive account all produce the same 401.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Credentials"
//	@Success		200		{object}	TokenResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		401		{object}	map[string]string
//	@Failure		429		{object}	map[string]string
//	@Router			/api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	result, err := h.authenticator.Authenticate(c.Request.Context(), req.Email, req.Password, SourceAddress(c.Request))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, newTokenResponse(result))
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": auth.ErrInvalidCredentials.Error()})
	case errors.Is(err, auth.ErrLoginRateLimited):
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many login attempts, try again later"})
	default:
		h.logger.Error().Err(err).Msg("login failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Refresh exchanges a refresh token for a new token pair.
//
//	@Summary		Refresh tokens
//	@Description	Exchanges a refresh token for a new token pair.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RefreshRequest	true	"Refresh token"
//	@Success		200		{object}	TokenResponse
//	@Failure		400		{object}	map[string]string
//	@Failure		401		{object}	map[string]string
//	@Router			/api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refreshToken is required"})
		return
	}

	result, err := h.authenticator.Refresh(c.Request.Context(), req.RefreshToken)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, newTokenResponse(result))
	case errors.Is(err, auth.ErrInvalidToken), errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
	default:
		h.logger.Error().Err(err).Msg("token refresh failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Register creates a new user account.
//
//	@Summary		Register
//	@Description	Creates a user account. The role defaults to STUDENT; privileged roles are refused unless self-signup for them is enabled.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		RegisterRequest	true	"Account details"
//	@Success		201		{object}	models.User
//	@Failure		400		{object}	map[string]string
//	@Failure		403		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Failure		409		{object}	map[string]string
//	@Router			/api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	user, err := h.authenticator.Register(c.Request.Context(), auth.RegisterParams{
		FullName:      req.FullName,
		Email:         req.Email,
		Password:      req.Password,
		Role:          models.UserRole(strings.ToUpper(strings.TrimSpace(req.Role))),
		InstitutionID: req.InstitutionID,
	})
	switch {
	case err == nil:
		c.JSON(http.StatusCreated, user)
	case errors.Is(err, auth.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": auth.ErrDuplicateEmail.Error()})
	case errors.Is(err, auth.ErrInstitutionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": auth.ErrInstitutionNotFound.Error()})
	case errors.Is(err, auth.ErrInvalidRole):
		c.JSON(http.StatusBadRequest, gin.H{"error": auth.ErrInvalidRole.Error()})
	case errors.Is(err, auth.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "role cannot be self-assigned"})
	default:
		h.logger.Error().Err(err).Msg("registration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// Me returns the authenticated user's profile.
//
//	@Summary		Current user
//	@Description	Returns the profile of the authenticated user.
//	@Tags			Users
//	@Produce		json
//	@Success		200	{object}	models.User
//	@Failure		401	{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/api/users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	identity := middleware.RequireIdentity(c)
	if identity == nil {
		return
	}

	user, err := h.users.GetUserByID(c.Request.Context(), identity.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		h.logger.Error().Err(err).Int64("user_id", identity.UserID).Msg("failed to load user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}

	c.JSON(http.StatusOK, user)
}
