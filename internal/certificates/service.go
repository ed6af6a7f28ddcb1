package certificates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/rs/zerolog"
)

// MaxIssueAttempts bounds regeneration after a uniqueness collision.
const MaxIssueAttempts = 5

// Store is the persistence interface used by Service.
type Store interface {
	GetCourseByID(ctx context.Context, id int64) (*models.Course, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	CreateCertificate(ctx context.Context, cert *models.Certificate) error
	GetCertificateByID(ctx context.Context, id int64) (*models.Certificate, error)
	ListCertificates(ctx context.Context) ([]*models.Certificate, error)
	ListCertificatesByRecipient(ctx context.Context, recipientID int64) ([]*models.Certificate, error)
	UpdateCertificateStatus(ctx context.Context, id int64, status models.CertificateStatus) (*models.Certificate, error)
	DeleteCertificate(ctx context.Context, id int64) error

	ListVerificationLogsByCertificate(ctx context.Context, certificateID int64) ([]*models.VerificationLog, error)
}

// Recorder observes issuance and verification outcomes, typically for metrics.
type Recorder interface {
	RecordIssued()
	RecordVerification(found bool)
}

// IssueRequest selects a course and a recipient. RecipientID wins over RecipientEmail.
type IssueRequest struct {
	CourseID       int64
	RecipientID    *int64
	RecipientEmail string
}

// Service issues certificates and manages their lifecycle.
type Service struct {
	store    Store
	codes    CodeGenerator
	recorder Recorder
	now      func() time.Time
	logger   zerolog.Logger
}

// NewService creates a new Service. recorder may be nil.
func NewService(store Store, recorder Recorder, logger zerolog.Logger) *Service {
	return &Service{
		store:    store,
		codes:    RandomCodes{},
		recorder: recorder,
		now:      time.Now,
		logger:   logger.With().Str("component", "certificate_service").Logger(),
	}
}

// Issue creates a new ACTIVE certificate. Issuing twice for the same pair creates two certificates.
func (s *Service) Issue(ctx context.Context, req IssueRequest) (*models.Certificate, error) {
	email := models.NormalizeEmail(req.RecipientEmail)
	if req.CourseID <= 0 || (req.RecipientID == nil && email == "") {
		return nil, ErrInvalidRequest
	}

	course, err := s.store.GetCourseByID(ctx, req.CourseID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrCourseNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}

	recipient, err := s.resolveRecipient(ctx, req.RecipientID, email)
	if err != nil {
		return nil, err
	}

	issuedAt := s.now().UTC()
	for attempt := 1; attempt <= MaxIssueAttempts; attempt++ {
		number, err := s.codes.CertificateNumber(issuedAt)
		if err != nil {
			return nil, err
		}
		code, err := s.codes.VerificationCode()
		if err != nil {
			return nil, err
		}

		cert := models.NewCertificate(number, code, course.ID, recipient.ID, issuedAt)
		err = s.store.CreateCertificate(ctx, cert)
		if errors.Is(err, models.ErrDuplicate) {
			s.logger.Warn().Int("attempt", attempt).Msg("certificate identifier collision, regenerating")
			continue
		}
		if errors.Is(err, models.ErrNotFound) {
			// A course or recipient was removed between lookup and insert.
			return nil, s.missingReference(ctx, course.ID)
		}
		if err != nil {
			return nil, fmt.Errorf("create certificate: %w", err)
		}

		cert.CourseName = course.Name
		cert.RecipientName = recipient.FullName
		cert.RecipientEmail = recipient.Email

		if s.recorder != nil {
			s.recorder.RecordIssued()
		}
		s.logger.Info().
			Int64("certificate_id", cert.ID).
			Str("certificate_number", cert.CertificateNumber).
			Int64("course_id", course.ID).
			Int64("recipient_id", recipient.ID).
			Msg("certificate issued")
		return cert, nil
	}

	return nil, ErrCodeSpaceExhausted
}

// missingReference reports which side of a rejected insert no longer exists.
func (s *Service) missingReference(ctx context.Context, courseID int64) error {
	if _, err := s.store.GetCourseByID(ctx, courseID); errors.Is(err, models.ErrNotFound) {
		return ErrCourseNotFound
	}
	return ErrRecipientNotFound
}

func (s *Service) resolveRecipient(ctx context.Context, id *int64, email string) (*models.User, error) {
	var (
		user *models.User
		err  error
	)
	if id != nil {
		user, err = s.store.GetUserByID(ctx, *id)
	} else {
		user, err = s.store.GetUserByEmail(ctx, email)
	}
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, fmt.Errorf("get recipient: %w", err)
	}
	return user, nil
}

// Get returns a certificate by id.
func (s *Service) Get(ctx context.Context, id int64) (*models.Certificate, error) {
	cert, err := s.store.GetCertificateByID(ctx, id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("get certificate: %w", err)
	}
	return cert, nil
}

// List returns every certificate.
func (s *Service) List(ctx context.Context) ([]*models.Certificate, error) {
	certs, err := s.store.ListCertificates(ctx)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}

// ListForRecipient returns the certificates awarded to one user.
func (s *Service) ListForRecipient(ctx context.Context, recipientID int64) ([]*models.Certificate, error) {
	certs, err := s.store.ListCertificatesByRecipient(ctx, recipientID)
	if err != nil {
		return nil, fmt.Errorf("list certificates for recipient: %w", err)
	}
	return certs, nil
}

// UpdateStatus changes only the status of a certificate.
func (s *Service) UpdateStatus(ctx context.Context, id int64, status models.CertificateStatus) (*models.Certificate, error) {
	status = models.CertificateStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	cert, err := s.store.UpdateCertificateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, ErrCertificateNotFound
		}
		return nil, fmt.Errorf("update certificate status: %w", err)
	}

	s.logger.Info().Int64("certificate_id", id).Str("status", string(status)).Msg("certificate status updated")
	return cert, nil
}

// Delete removes a certificate. Verification logs that reference it are kept.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteCertificate(ctx, id); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return ErrCertificateNotFound
		}
		return fmt.Errorf("delete certificate: %w", err)
	}
	s.logger.Info().Int64("certificate_id", id).Msg("certificate deleted")
	return nil
}

// ListVerifications returns the audit trail recorded for a certificate.
func (s *Service) ListVerifications(ctx context.Context, certificateID int64) ([]*models.VerificationLog, error) {
	logs, err := s.store.ListVerificationLogsByCertificate(ctx, certificateID)
	if err != nil {
		return nil, fmt.Errorf("list verification logs: %w", err)
	}
	return logs, nil
}
