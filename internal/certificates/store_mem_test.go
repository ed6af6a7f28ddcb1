package certificates

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/MacJediWizard/certvault/internal/models"
)

// errValueTooLong mirrors the database rejecting text longer than its column.
var errValueTooLong = errors.New("value too long for column")

// memStore is an in-memory Store with the same unique indexes as the database.
type memStore struct {
	mu       sync.Mutex
	courses  map[int64]*models.Course
	users    map[int64]*models.User
	certs    map[int64]*models.Certificate
	numbers  map[string]int64
	codes    map[string]int64
	logs     []*models.VerificationLog
	nextCert int64
	nextLog  int64

	logErr    error
	lookupErr error
}

func newMemStore() *memStore {
	return &memStore{
		courses: map[int64]*models.Course{
			1: {ID: 1, Name: "Go Fundamentals"},
		},
		users: map[int64]*models.User{
			1: {ID: 1, FullName: "System Admin", Email: "admin@system.com", Role: models.UserRoleSystemAdmin, Active: true},
			4: {ID: 4, FullName: "Student User", Email: "student@system.com", Role: models.UserRoleStudent, Active: true},
		},
		certs:   make(map[int64]*models.Certificate),
		numbers: make(map[string]int64),
		codes:   make(map[string]int64),
	}
}

func (m *memStore) GetCourseByID(_ context.Context, id int64) (*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.courses[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return c, nil
}

func (m *memStore) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return u, nil
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *memStore) CreateCertificate(_ context.Context, cert *models.Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.numbers[cert.CertificateNumber]; ok {
		return models.ErrDuplicate
	}
	if _, ok := m.codes[cert.VerificationCode]; ok {
		return models.ErrDuplicate
	}
	if m.courses[cert.CourseID] == nil || m.users[cert.RecipientID] == nil {
		return models.ErrNotFound
	}
	m.nextCert++
	cert.ID = m.nextCert
	stored := *cert
	m.certs[cert.ID] = &stored
	m.numbers[cert.CertificateNumber] = cert.ID
	m.codes[cert.VerificationCode] = cert.ID
	return nil
}

func (m *memStore) GetCertificateByID(_ context.Context, id int64) (*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.certs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (m *memStore) GetCertificateByCode(_ context.Context, code string) (*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lookupErr != nil {
		return nil, m.lookupErr
	}
	id, ok := m.codes[code]
	if !ok {
		return nil, models.ErrNotFound
	}
	out := *m.certs[id]
	return &out, nil
}

func (m *memStore) ListCertificates(_ context.Context) ([]*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Certificate
	for _, c := range m.certs {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) ListCertificatesByRecipient(ctx context.Context, recipientID int64) ([]*models.Certificate, error) {
	all, _ := m.ListCertificates(ctx)
	var out []*models.Certificate
	for _, c := range all {
		if c.RecipientID == recipientID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) UpdateCertificateStatus(_ context.Context, id int64, status models.CertificateStatus) (*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.certs[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	c.Status = status
	out := *c
	return &out, nil
}

func (m *memStore) DeleteCertificate(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.certs[id]
	if !ok {
		return models.ErrNotFound
	}
	delete(m.numbers, c.CertificateNumber)
	delete(m.codes, c.VerificationCode)
	delete(m.certs, id)
	return nil
}

func (m *memStore) CreateVerificationLog(_ context.Context, log *models.VerificationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.logErr != nil {
		return m.logErr
	}
	if utf8.RuneCountInString(log.RequestedCode) > models.MaxRequestedCodeLength ||
		utf8.RuneCountInString(log.SourceAddress) > models.MaxSourceAddressLength {
		return errValueTooLong
	}
	m.nextLog++
	log.ID = m.nextLog
	m.logs = append(m.logs, log)
	return nil
}

func (m *memStore) ListVerificationLogsByCertificate(_ context.Context, certificateID int64) ([]*models.VerificationLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.VerificationLog
	for _, l := range m.logs {
		if l.CertificateID != nil && *l.CertificateID == certificateID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) logCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.logs)
}

// fixedCodes replays the given codes in order, then falls back to RandomCodes.
type fixedCodes struct {
	mu    sync.Mutex
	codes []string
}

func (f *fixedCodes) next() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.codes) == 0 {
		return "", false
	}
	c := f.codes[0]
	f.codes = f.codes[1:]
	return c, true
}

func (f *fixedCodes) CertificateNumber(issuedAt time.Time) (string, error) {
	return RandomCodes{}.CertificateNumber(issuedAt)
}

func (f *fixedCodes) VerificationCode() (string, error) {
	if c, ok := f.next(); ok {
		return c, nil
	}
	return RandomCodes{}.VerificationCode()
}

type failingCodes struct{}

func (failingCodes) CertificateNumber(time.Time) (string, error) { return "CERT-FIXED", nil }
func (failingCodes) VerificationCode() (string, error)          { return "AAAAAAAAAAAA", nil }

type countingRecorder struct {
	mu     sync.Mutex
	issued int
	hits   int
	misses int
}

func (r *countingRecorder) RecordIssued() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.issued++
}

func (r *countingRecorder) RecordVerification(found bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if found {
		r.hits++
	} else {
		r.misses++
	}
}

var errBoom = errors.New("boom")
