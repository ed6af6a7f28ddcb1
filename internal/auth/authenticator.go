package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/rs/zerolog"
)

// TokenType is the scheme clients must use in the Authorization header.
const TokenType = "Bearer"

// UserStore is the persistence interface the Authenticator needs.
type UserStore interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetInstitutionByID(ctx context.Context, id int64) (*models.Institution, error)
}

// LoginRecorder receives login outcomes, typically for metrics.
type LoginRecorder interface {
	RecordLogin(result string)
}

// AuthenticatorConfig holds optional collaborators and policy switches.
type AuthenticatorConfig struct {
	// Throttle locks out repeated failures. Nil disables throttling.
	Throttle LoginThrottle
	// Recorder observes login outcomes. Nil disables recording.
	Recorder LoginRecorder
	// AllowPrivilegedSignup lets self-registration pick SYSTEM_ADMIN or CERTIFICATE_ADMIN.
	AllowPrivilegedSignup bool
}

// LoginResult is returned by a successful login or refresh.
type LoginResult struct {
	Tokens *TokenPair
	User   *models.User
}

// RegisterParams holds the fields accepted by Register.
type RegisterParams struct {
	FullName      string
	Email         string
	Password      string
	Role          models.UserRole
	InstitutionID *int64
}

// Authenticator verifies credentials, registers users and issues tokens.
type Authenticator struct {
	store  UserStore
	tokens *TokenManager
	config AuthenticatorConfig
	logger zerolog.Logger
}

// NewAuthenticator creates a new Authenticator.
func NewAuthenticator(store UserStore, tokens *TokenManager, cfg AuthenticatorConfig, logger zerolog.Logger) *Authenticator {
	return &Authenticator{
		store:  store,
		tokens: tokens,
		config: cfg,
		logger: logger.With().Str("component", "authenticator").Logger(),
	}
}

// Authenticate checks an email and password and issues a token pair.
// Unknown email, wrong password and disabled accounts all yield ErrInvalidCredentials.
func (a *Authenticator) Authenticate(ctx context.Context, email, password, sourceAddress string) (*LoginResult, error) {
	email = models.NormalizeEmail(email)

	if err := a.checkThrottle(ctx, email, sourceAddress); err != nil {
		a.record("throttled")
		return nil, err
	}

	user, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("get user by email: %w", err)
		}
		burnPasswordCheck(password)
		a.logger.Debug().Msg("login for unknown email")
		return nil, a.fail(ctx, email, sourceAddress)
	}

	if err := VerifyPassword(password, user.PasswordHash); err != nil {
		a.logger.Debug().Int64("user_id", user.ID).Msg("password mismatch")
		return nil, a.fail(ctx, email, sourceAddress)
	}

	if !user.Active {
		a.logger.Info().Int64("user_id", user.ID).Msg("login for disabled account")
		return nil, a.fail(ctx, email, sourceAddress)
	}

	pair, err := a.tokens.IssueTokens(IdentityFromUser(user))
	if err != nil {
		return nil, err
	}

	if a.config.Throttle != nil {
		if err := a.config.Throttle.Reset(ctx, email, sourceAddress); err != nil {
			a.logger.Warn().Err(err).Msg("failed to reset login throttle")
		}
	}
	a.record("success")
	a.logger.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user logged in")

	return &LoginResult{Tokens: pair, User: user}, nil
}

// Validate checks an access token. It is a thin wrapper over the TokenManager.
func (a *Authenticator) Validate(accessToken string) (*Identity, error) {
	return a.tokens.Validate(accessToken)
}

// Refresh exchanges a refresh token for a new token pair.
func (a *Authenticator) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	email, err := a.tokens.ValidateRefresh(refreshToken)
	if err != nil {
		return nil, err
	}

	user, err := a.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	if !user.Active {
		return nil, ErrInvalidToken
	}

	pair, err := a.tokens.IssueTokens(IdentityFromUser(user))
	if err != nil {
		return nil, err
	}
	return &LoginResult{Tokens: pair, User: user}, nil
}

// Register creates a new user account. The role defaults to STUDENT.
func (a *Authenticator) Register(ctx context.Context, params RegisterParams) (*models.User, error) {
	role := models.UserRole(strings.ToUpper(strings.TrimSpace(string(params.Role))))
	if role == "" {
		role = models.UserRoleStudent
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	if role.Privileged() && !a.config.AllowPrivilegedSignup {
		return nil, ErrForbidden
	}

	email := models.NormalizeEmail(params.Email)
	_, err := a.store.GetUserByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, ErrDuplicateEmail
	case !errors.Is(err, models.ErrNotFound):
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if params.InstitutionID != nil {
		if _, err := a.store.GetInstitutionByID(ctx, *params.InstitutionID); err != nil {
			if errors.Is(err, models.ErrNotFound) {
				return nil, ErrInstitutionNotFound
			}
			return nil, fmt.Errorf("get institution: %w", err)
		}
	}

	hash, err := HashPassword(params.Password)
	if err != nil {
		return nil, err
	}

	user := models.NewUser(params.FullName, email, hash, role, params.InstitutionID)
	if err := a.store.CreateUser(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	a.logger.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

func (a *Authenticator) checkThrottle(ctx context.Context, email, ip string) error {
	if a.config.Throttle == nil {
		return nil
	}
	err := a.config.Throttle.Check(ctx, email, ip)
	if errors.Is(err, ErrLoginRateLimited) {
		return err
	}
	if err != nil {
		a.logger.Warn().Err(err).Msg("login throttle check failed, allowing attempt")
	}
	return nil
}

func (a *Authenticator) fail(ctx context.Context, email, ip string) error {
	a.record("failure")
	if a.config.Throttle != nil {
		if err := a.config.Throttle.RecordFailure(ctx, email, ip); err != nil {
			a.logger.Warn().Err(err).Msg("failed to record login failure")
		}
	}
	return ErrInvalidCredentials
}

func (a *Authenticator) record(result string) {
	if a.config.Recorder != nil {
		a.config.Recorder.RecordLogin(result)
	}
}
