package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/MacJediWizard/certvault/internal/api/middleware"
	"github.com/MacJediWizard/certvault/internal/auth"
	"github.com/MacJediWizard/certvault/internal/certificates"
	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// CertificateService defines the certificate operations used by CertificatesHandler.
type CertificateService interface {
	Issue(ctx context.Context, req certificates.IssueRequest) (*models.Certificate, error)
	Get(ctx context.Context, id int64) (*models.Certificate, error)
	List(ctx context.Context) ([]*models.Certificate, error)
	ListForRecipient(ctx context.Context, recipientID int64) ([]*models.Certificate, error)
	UpdateStatus(ctx context.Context, id int64, status models.CertificateStatus) (*models.Certificate, error)
	Delete(ctx context.Context, id int64) error
	ListVerifications(ctx context.Context, certificateID int64) ([]*models.VerificationLog, error)
}

// CertificatesHandler handles certificate lifecycle HTTP endpoints.
type CertificatesHandler struct {
	service CertificateService
	logger  zerolog.Logger
}

// NewCertificatesHandler creates a new CertificatesHandler.
func NewCertificatesHandler(service CertificateService, logger zerolog.Logger) *CertificatesHandler {
	return &CertificatesHandler{
		service: service,
		logger:  logger.With().Str("component", "certificates_handler").Logger(),
	}
}

// RegisterRoutes registers certificate routes on the given router group.
// Every route is guarded by the role table before the handler runs.
func (h *CertificatesHandler) RegisterRoutes(r *gin.RouterGroup) {
	guard := func(op auth.Operation) gin.HandlerFunc {
		return middleware.RequirePermission(op, h.logger)
	}

	certs := r.Group("/certificates")
	{
		certs.GET("", guard(auth.OpCertificateList), h.List)
		certs.POST("", guard(auth.OpCertificateIssue), h.Issue)
		certs.GET("/my", guard(auth.OpCertificateListOwn), h.ListMine)
		certs.GET("/:id", guard(auth.OpCertificateRead), h.Get)
		certs.PUT("/:id", guard(auth.OpCertificateUpdateStatus), h.UpdateStatus)
		certs.DELETE("/:id", guard(auth.OpCertificateDelete), h.Delete)
		certs.GET("/:id/verifications", guard(auth.OpCertificateAuditRead), h.ListVerifications)
	}
}

// IssueCertificateRequest is the request body for issuing a certificate.
// RecipientID takes precedence over RecipientEmail when both are set.
type IssueCertificateRequest struct {
	CourseID       int64  `json:"courseId" binding:"required,gt=0"`
	RecipientID    *int64 `json:"recipientId"`
	RecipientEmail string `json:"recipientEmail"`
}

// UpdateStatusRequest is the request body for a status change.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// List returns every certificate.
//
//	@Summary		List certificates
//	@Description	Returns every certificate. Requires CERTIFICATE_ADMIN or SYSTEM_ADMIN.
//	@Tags			Certificates
//	@Produce		json
//	@Success		200	{object}	map[string][]models.Certificate
//	@Failure		401	{object}	map[string]string
//	@Failure		403	{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/api/certificates [get]
func (h *CertificatesHandler) List(c *gin.Context) {
	certs, err := h.service.List(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "failed to list certificates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"certificates": certs})
}

// ListMine returns the certificates awarded to the authenticated user.
//
//	@Summary		List own certificates
//	@Description	Returns the certificates awarded to the authenticated user.
//	@Tags			Certificates
//	@Produce		json
//	@Success		200	{object}	map[string][]models.Certificate
//	@Failure		401	{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/api/certificates/my [get]
func (h *CertificatesHandler) ListMine(c *gin.Context) {
	identity := middleware.RequireIdentity(c)
	if identity == nil {
		return
	}

	certs, err := h.service.ListForRecipient(c.Request.Context(), identity.UserID)
	if err != nil {
		h.respondError(c, err, "failed to list own certificates")
		return
	}
	c.JSON(http.StatusOK, gin.H{"certificates": certs})
}

// Get returns a specific certificate by ID.
//
//	@Summary		Get certificate
//	@Description	Returns a certificate by ID.
//	@Tags			Certificates
//	@Produce		json
//	@Param			id	path		int	true	"Certificate ID"
//	@Success		200	{object}	models.Certificate
//	@Failure		400	{object}	map[string]string
//	@Failure		401	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/api/certificates/{id} [get]
func (h *CertificatesHandler) Get(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid certificate ID"})
		return
	}

	cert, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to get certificate")
		return
	}
	c.JSON(http.StatusOK, cert)
}

// Issue creates a new certificate for a course and recipient.
//
//	@Summary		Issue certificate
//	@Description	Issues a new ACTIVE certificate for a course and recipient. Requires CERTIFICATE_ADMIN, INSTRUCTOR or SYSTEM_ADMIN.
//	@Tags			Certificates
//	@Accept			json
//	@Produce		json
//	@Param			request	body		IssueCertificateRequest	true	"Course and recipient"
//	@Success		200		{object}	models.Certificate
//	@Failure		400		{object}	map[string]string
//	@Failure		401		{object}	map[string]string
//	@Failure		403		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/api/certificates [post]
func (h *CertificatesHandler) Issue(c *gin.Context) {
	identity := middleware.RequireIdentity(c)
	if identity == nil {
		return
	}

	var req IssueCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	cert, err := h.service.Issue(c.Request.Context(), certificates.IssueRequest{
		CourseID:       req.CourseID,
		RecipientID:    req.RecipientID,
		RecipientEmail: req.RecipientEmail,
	})
	if err != nil {
		h.respondError(c, err, "failed to issue certificate")
		return
	}

	h.logger.Info().
		Int64("issuer_id", identity.UserID).
		Int64("certificate_id", cert.ID).
		Msg("certificate issued via API")

	c.JSON(http.StatusOK, cert)
}

// UpdateStatus changes a certificate's status.
//
//	@Summary		Update certificate status
//	@Description	Sets the status to ACTIVE, REVOKED or EXPIRED. Requires CERTIFICATE_ADMIN or SYSTEM_ADMIN.
//	@Tags			Certificates
//	@Accept			json
//	@Produce		json
//	@Param			id		path		int					true	"Certificate ID"
//	@Param			request	body		UpdateStatusRequest	true	"New status"
//	@Success		200		{object}	models.Certificate
//	@Failure		400		{object}	map[string]string
//	@Failure		401		{object}	map[string]string
//	@Failure		403		{object}	map[string]string
//	@Failure		404		{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/api/certificates/{id} [put]
func (h *CertificatesHandler) UpdateStatus(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid certificate ID"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	cert, err := h.service.UpdateStatus(c.Request.Context(), id, models.CertificateStatus(req.Status))
	if err != nil {
		h.respondError(c, err, "failed to update certificate status")
		return
	}
	c.JSON(http.StatusOK, cert)
}

// Delete removes a certificate.
//
//	@Summary		Delete certificate
//	@Description	Deletes a certificate. Its verification log entries are kept. Requires CERTIFICATE_ADMIN or SYSTEM_ADMIN.
//	@Tags			Certificates
//	@Produce		json
//	@Param			id	path		int	true	"Certificate ID"
//	@Success		200	{object}	map[string]string
//	@Failure		400	{object}	map[string]string
//	@Failure		401	{object}	map[string]string
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/api/certificates/{id} [delete]
func (h *CertificatesHandler) Delete(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid certificate ID"})
		return
	}

	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "failed to delete certificate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "certificate deleted"})
}

// ListVerifications returns the verification audit trail for a certificate.
//
//	@Summary		List verification attempts
//	@Description	Returns the verification log for a certificate. Requires CERTIFICATE_ADMIN or SYSTEM_ADMIN.
//	@Tags			Certificates
//	@Produce		json
//	@Param			id	path		int	true	"Certificate ID"
//	@Success		200	{object}	map[string][]models.VerificationLog
//	@Failure		400	{object}	map[string]string
//	@Failure		401	{object}	map[string]string
//	@Failure		403	{object}	map[string]string
//	@Failure		404	{object}	map[string]string
//	@Security		BearerAuth
//	@Router			/api/certificates/{id}/verifications [get]
func (h *CertificatesHandler) ListVerifications(c *gin.Context) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid certificate ID"})
		return
	}

	logs, err := h.service.ListVerifications(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to list verification logs")
		return
	}
	c.JSON(http.StatusOK, gin.H{"verifications": logs})
}

func (h *CertificatesHandler) respondError(c *gin.Context, err error, msg string) {
	switch {
	case errors.Is(err, certificates.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": "courseId and one of recipientId or recipientEmail are required"})
	case errors.Is(err, certificates.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": certificates.ErrInvalidStatus.Error()})
	case errors.Is(err, certificates.ErrCourseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": certificates.ErrCourseNotFound.Error()})
	case errors.Is(err, certificates.ErrRecipientNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": certificates.ErrRecipientNotFound.Error()})
	case errors.Is(err, certificates.ErrCertificateNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": certificates.ErrCertificateNotFound.Error()})
	default:
		h.logger.Error().Err(err).Str("path", c.FullPath()).Msg(msg)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
