package certificates

import (
	"context"
	"errors"
	"fmt"

	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/rs/zerolog"
)

// VerifierStore is the persistence interface used by Verifier.
type VerifierStore interface {
	GetCertificateByCode(ctx context.Context, code string) (*models.Certificate, error)
	CreateVerificationLog(ctx context.Context, log *models.VerificationLog) error
}

// Verifier answers public verification lookups and records each one.
type Verifier struct {
	store    VerifierStore
	recorder Recorder
	logger   zerolog.Logger
}

// NewVerifier creates a new Verifier. recorder may be nil.
func NewVerifier(store VerifierStore, recorder Recorder, logger zerolog.Logger) *Verifier {
	return &Verifier{
		store:    store,
		recorder: recorder,
		logger:   logger.With().Str("component", "certificate_verifier").Logger(),
	}
}

// Verify looks up a certificate by verification code. Exactly one audit
// entry is appended per completed lookup. A miss returns ErrNotFound; if the
// audit entry cannot be written the lookup result is withheld.
func (v *Verifier) Verify(ctx context.Context, code, verifierInfo, sourceAddress string) (*models.Certificate, error) {
	code = NormalizeCode(code)

	var cert *models.Certificate
	if ValidCode(code) {
		found, err := v.store.GetCertificateByCode(ctx, code)
		switch {
		case err == nil:
			cert = found
		case !errors.Is(err, models.ErrNotFound):
			// The outcome is unknown, so no audit entry is written; the caller gets a 500.
			return nil, fmt.Errorf("get certificate by code: %w", err)
		}
	}

	var certID *int64
	if cert != nil {
		id := cert.ID
		certID = &id
	}

	entry := models.NewVerificationLog(certID, code, verifierInfo, sourceAddress)
	if err := v.store.CreateVerificationLog(ctx, entry); err != nil {
		v.logger.Error().Err(err).Str("code", entry.RequestedCode).Msg("failed to record verification attempt")
		return nil, fmt.Errorf("%w: %v", ErrAuditWriteFailed, err)
	}

	if v.recorder != nil {
		v.recorder.RecordVerification(cert != nil)
	}

	if cert == nil {
		v.logger.Debug().Str("code", entry.RequestedCode).Str("source", entry.SourceAddress).Msg("verification miss")
		return nil, ErrNotFound
	}

	v.logger.Debug().Int64("certificate_id", cert.ID).Str("source", entry.SourceAddress).Msg("verification hit")
	return cert, nil
}
