package certificates

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MacJediWizard/certvault/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(store Store, recorder Recorder) *Service {
	return NewService(store, recorder, zerolog.Nop())
}

func int64Ptr(v int64) *int64 { return &v }

func TestService_Issue(t *testing.T) {
	ctx := context.Background()

	t.Run("by recipient id", func(t *testing.T) {
		store := newMemStore()
		rec := &countingRecorder{}
		svc := newTestService(store, rec)
		fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
		svc.now = func() time.Time { return fixed }

		cert, err := svc.Issue(ctx, IssueRequest{CourseID: 1, RecipientID: int64Ptr(4)})
		require.NoError(t, err)
		assert.NotZero(t, cert.ID)
		assert.Equal(t, models.CertificateStatusActive, cert.Status)
		assert.Equal(t, fixed, cert.IssueDate)
		assert.True(t, ValidCode(cert.VerificationCode))
		assert.Contains(t, cert.CertificateNumber, "CERT-20260102030405-")
		assert.Equal(t, "Go Fundamentals", cert.CourseName)
		assert.Equal(t, "Student User", cert.RecipientName)
		assert.Equal(t, 1, rec.issued)
	})

	t.Run("by recipient email", func(t *testing.T) {
		svc := newTestService(newMemStore(), nil)
		cert, err := svc.Issue(ctx, IssueRequest{CourseID: 1, RecipientEmail: " Student@System.com "})
		require.NoError(t, err)
		assert.Equal(t, int64(4), cert.RecipientID)
	})

	t.Run("recipient id wins over email", func(t *testing.T) {
		svc := newTestService(newMemStore(), nil)
		cert, err := svc.Issue(ctx, IssueRequest{CourseID: 1, RecipientID: int64Ptr(1), RecipientEmail: "student@system.com"})
		require.NoError(t, err)
		assert.Equal(t, int64(1), cert.RecipientID)
	})

	t.Run("no recipient", func(t *testing.T) {
		svc := newTestService(newMemStore(), nil)
		_, err := svc.Issue(ctx, IssueRequest{CourseID: 1})
		assert.True(t, errors.Is(err, ErrInvalidRequest))
	})

	t.Run("no course", func(t *testing.T) {
		svc := newTestService(newMemStore(), nil)
		_, err := svc.Issue(ctx, IssueRequest{RecipientID: int64Ptr(4)})
		assert.True(t, errors.Is(err, ErrInvalidRequest))
	})

	t.Run("unknown course", func(t *testing.T) {
		svc := newTestService(newMemStore(), nil)
		_, err := svc.Issue(ctx, IssueRequest{CourseID: 99, RecipientID: int64Ptr(4)})
		assert.True(t, errors.Is(err, ErrCourseNotFound))
	})

	t.Run("unknown recipient", func(t *testing.T) {
		svc := newTestService(newMemStore(), nil)
		_, err := svc.Issue(ctx, IssueRequest{CourseID: 1, RecipientEmail: "ghost@system.com"})
		assert.True(t, errors.Is(err, ErrRecipientNotFound))

		_, err = svc.Issue(ctx, IssueRequest{CourseID: 1, RecipientID: int64Ptr(77)})
		assert.True(t, errors.Is(err, ErrRecipientNotFound))
	})

	t.Run("same pair twice yields distinct certificates", func(t *testing.T) {
		store := newMemStore()
		svc := newTestService(store, nil)

		first, err := svc.Issue(ctx, IssueRequest{CourseID: 1, RecipientID: int64Ptr(4)})
		require.NoError(t, err)
		second, err := svc.Issue(ctx, IssueRequest{CourseID: 1, RecipientID: int64Ptr(4)})
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
		assert.NotEqual(t, first.CertificateNumber, second.CertificateNumber)
		assert.NotEqual(t, first.VerificationCode, second.VerificationCode)

		mine, err := svc.ListForRecipient(ctx, 4)
		require.NoError(t, err)
		assert.Len(t, mine, 2)
	})
}

func TestService_IssueRetriesOnCollision(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store, nil)
	svc.codes = &fixedCodes{codes: []string{"DUPLICATECOD", "DUPLICATECOD"}}

	first, err := svc.Issue(ctx, IssueRequest{CourseID: 1, RecipientID: int64Ptr(4)})
	require.NoError(t, err)
	assert.Equal(t, "DUPLICATECOD", first.VerificationCode)

	second, err := svc.Issue(ctx, IssueRequest{CourseID: 1, RecipientID: int64Ptr(4)})
	require.NoError(t, err)
	assert.NotEqual(t, "DUPLICATECOD", second.VerificationCode)
}

func TestService_IssueGivesUpAfterMaxAttempts(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore(), nil)
	svc.codes = failingCodes{}

	_, err := svc.Issue(ctx, IssueRequest{CourseID: 1, RecipientID: int64Ptr(4)})
	require.NoError(t, err)

	_, err = svc.Issue(ctx, IssueRequest{CourseID: 1, RecipientID: int64Ptr(4)})
	assert.True(t, errors.Is(err, ErrCodeSpaceExhausted))
}

// vanishingStore removes a referenced row just before the certificate insert.
type vanishingStore struct {
	*memStore
	dropCourse bool
}

func (v *vanishingStore) CreateCertificate(ctx context.Context, cert *models.Certificate) error {
	v.mu.Lock()
	if v.dropCourse {
		delete(v.courses, cert.CourseID)
	} else {
		delete(v.users, cert.RecipientID)
	}
	v.mu.Unlock()
	return v.memStore.CreateCertificate(ctx, cert)
}

func TestService_IssueReferenceRemovedDuringInsert(t *testing.T) {
	ctx := context.Background()

	t.Run("course", func(t *testing.T) {
		store := &vanishingStore{memStore: newMemStore(), dropCourse: true}
		_, err := newTestService(store, nil).Issue(ctx, IssueRequest{CourseID: 1, RecipientID: int64Ptr(4)})
		assert.True(t, errors.Is(err, ErrCourseNotFound), "got %v", err)
	})

	t.Run("recipient", func(t *testing.T) {
		store := &vanishingStore{memStore: newMemStore()}
		_, err := newTestService(store, nil).Issue(ctx, IssueRequest{CourseID: 1, RecipientID: int64Ptr(4)})
		assert.True(t, errors.Is(err, ErrRecipientNotFound), "got %v", err)
	})
}

func TestService_ConcurrentIssueNeverCollides(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store, nil)

	const n = 64
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Issue(ctx, IssueRequest{CourseID: 1, RecipientID: int64Ptr(4)})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	certs, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, certs, n)

	numbers := make(map[string]bool)
	codes := make(map[string]bool)
	for _, c := range certs {
		assert.False(t, numbers[c.CertificateNumber], "duplicate number %s", c.CertificateNumber)
		assert.False(t, codes[c.VerificationCode], "duplicate code %s", c.VerificationCode)
		numbers[c.CertificateNumber] = true
		codes[c.VerificationCode] = true
	}
}

func TestService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	svc := newTestService(store, nil)

	cert, err := svc.Issue(ctx, IssueRequest{CourseID: 1, RecipientID: int64Ptr(4)})
	require.NoError(t, err)

	t.Run("revoke", func(t *testing.T) {
		updated, err := svc.UpdateStatus(ctx, cert.ID, "revoked")
		require.NoError(t, err)
		assert.Equal(t, models.CertificateStatusRevoked, updated.Status)
		assert.Equal(t, cert.CertificateNumber, updated.CertificateNumber)
		assert.Equal(t, cert.VerificationCode, updated.VerificationCode)
		assert.Equal(t, cert.IssueDate, updated.IssueDate)
	})

	t.Run("invalid status", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, cert.ID, "ARCHIVED")
		assert.True(t, errors.Is(err, ErrInvalidStatus))
	})

	t.Run("unknown certificate", func(t *testing.T) {
		_, err := svc.UpdateStatus(ctx, 999, models.CertificateStatusExpired)
		assert.True(t, errors.Is(err, ErrCertificateNotFound))
	})
}

func TestService_GetAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemStore(), nil)

	cert, err := svc.Issue(ctx, IssueRequest{CourseID: 1, RecipientID: int64Ptr(4)})
	require.NoError(t, err)

	got, err := svc.Get(ctx, cert.ID)
	require.NoError(t, err)
	assert.Equal(t, cert.VerificationCode, got.VerificationCode)

	require.NoError(t, svc.Delete(ctx, cert.ID))

	_, err = svc.Get(ctx, cert.ID)
	assert.True(t, errors.Is(err, ErrCertificateNotFound))

	err = svc.Delete(ctx, cert.ID)
	assert.True(t, errors.Is(err, ErrCertificateNotFound))
}
