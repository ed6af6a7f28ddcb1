package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/MacJediWizard/certvault/internal/certificates"
	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Verifier defines the public verification operation.
type Verifier interface {
	Verify(ctx context.Context, code, verifierInfo, sourceAddress string) (*models.Certificate, error)
}

// VerifyHandler serves the unauthenticated verification endpoint.
type VerifyHandler struct {
	verifier Verifier
	logger   zerolog.Logger
}

// NewVerifyHandler creates a new VerifyHandler.
func NewVerifyHandler(verifier Verifier, logger zerolog.Logger) *VerifyHandler {
	return &VerifyHandler{
		verifier: verifier,
		logger:   logger.With().Str("component", "verify_handler").Logger(),
	}
}

// RegisterPublicRoutes registers the verification route. It requires no authentication.
func (h *VerifyHandler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("/verify/:code", h.Verify)
}

// PublicCertificate is the certificate view returned to anonymous verifiers.
// The recipient's email is omitted.
type PublicCertificate struct {
	CertificateNumber string                   `json:"certificateNumber"`
	VerificationCode  string                   `json:"verificationCode"`
	CourseName        string                   `json:"courseName"`
	RecipientName     string                   `json:"recipientName"`
	IssueDate         time.Time                `json:"issueDate"`
	Status            models.CertificateStatus `json:"status"`
	Valid             bool                     `json:"valid"`
}

// NewPublicCertificate builds the public view of cert.
func NewPublicCertificate(cert *models.Certificate) PublicCertificate {
	return PublicCertificate{
		CertificateNumber: cert.CertificateNumber,
		VerificationCode:  cert.VerificationCode,
		CourseName:        cert.CourseName,
		RecipientName:     cert.RecipientName,
		IssueDate:         cert.IssueDate,
		Status:            cert.Status,
		Valid:             cert.Status == models.CertificateStatusActive,
	}
}

// Verify looks up a certificate by its verification code and records the attempt.
//
//	@Summary		Verify certificate
//	@Description	Public lookup by verification code. Every call is recorded in the verification log. The recipient email is never returned.
//	@Tags			Verification
//	@Produce		json
//	@Param			code	path		string	true	"Verification code"
//	@Success		200		{object}	PublicCertificate
//	@Failure		404		{object}	map[string]string
//	@Router			/api/verify/{code} [get]
func (h *VerifyHandler) Verify(c *gin.Context) {
	cert, err := h.verifier.Verify(
		c.Request.Context(),
		c.Param("code"),
		c.GetHeader("User-Agent"),
		SourceAddress(c.Request),
	)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, NewPublicCertificate(cert))
	case errors.Is(err, certificates.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "certificate not found"})
	default:
		h.logger.Error().Err(err).Msg("verification failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
