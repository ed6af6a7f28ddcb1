package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"

	// MinSecretLength is the minimum accepted HMAC signing secret length in bytes.
	MinSecretLength = 32
)

// TokenConfig configures token signing and lifetimes.
type TokenConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Leeway     time.Duration
}

// Identity is the validated claim carried by an access token.
type Identity struct {
	UserID int64           `json:"userId"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role"`
	Active bool            `json:"active"`
}

// IdentityFromUser builds the claim for a stored user.
func IdentityFromUser(u *models.User) Identity {
	return Identity{
		UserID: u.ID,
		Email:  u.Email,
		Role:   u.Role,
		Active: u.Active,
	}
}

type tokenClaims struct {
	UserID int64           `json:"uid,omitempty"`
	Email  string          `json:"email"`
	Role   models.UserRole `json:"role,omitempty"`
	Active bool            `json:"active,omitempty"`
	Type   string          `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is a freshly signed access and refresh token.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenManager signs and validates HS256 tokens.
type TokenManager struct {
	config TokenConfig
	now    func() time.Time
}

// NewTokenManager validates cfg and returns a TokenManager.
func NewTokenManager(cfg TokenConfig) (*TokenManager, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("signing secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "certvault"
	}
	return &TokenManager{config: cfg, now: time.Now}, nil
}

// IssueTokens signs a new access and refresh token for identity.
func (m *TokenManager) IssueTokens(identity Identity) (*TokenPair, error) {
	now := m.now()
	accessExp := now.Add(m.config.AccessTTL)
	refreshExp := now.Add(m.config.RefreshTTL)

	access, err := m.sign(tokenClaims{
		UserID: identity.UserID,
		Email:  identity.Email,
		Role:   identity.Role,
		Active: identity.Active,
		Type:   tokenTypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.Email,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh, err := m.sign(tokenClaims{
		Email: identity.Email,
		Type:  tokenTypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   identity.Email,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(refreshExp),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Validate checks an access token and returns its identity claim.
func (m *TokenManager) Validate(accessToken string) (*Identity, error) {
	claims, err := m.parse(accessToken, tokenTypeAccess)
	if err != nil {
		return nil, err
	}
	if claims.UserID <= 0 || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return &Identity{
		UserID: claims.UserID,
		Email:  claims.Email,
		Role:   claims.Role,
		Active: claims.Active,
	}, nil
}

// ValidateRefresh checks a refresh token and returns the email it was issued to.
func (m *TokenManager) ValidateRefresh(refreshToken string) (string, error) {
	claims, err := m.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return "", err
	}
	if claims.Email == "" {
		return "", ErrInvalidToken
	}
	return claims.Email, nil
}

func (m *TokenManager) sign(claims tokenClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

func (m *TokenManager) parse(tokenStr, wantType string) (*tokenClaims, error) {
	if tokenStr == "" {
		return nil, ErrInvalidToken
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}

	claims := &tokenClaims{}
	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, claims, func(*jwt.Token) (any, error) {
		return m.config.Secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid || claims.Type != wantType {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
