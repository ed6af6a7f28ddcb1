package models

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestNewUser(t *testing.T) {
	instID := int64(3)
	user := NewUser("  Test User ", " User@Example.COM ", "$2a$10$hash", UserRoleInstructor, &instID)

	if user.FullName != "Test User" {
		t.Errorf("expected FullName 'Test User', got %q", user.FullName)
	}
	if user.Email != "user@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if !user.Active {
		t.Error("expected new user to be active")
	}
	if user.InstitutionID == nil || *user.InstitutionID != 3 {
		t.Errorf("expected InstitutionID 3, got %v", user.InstitutionID)
	}
	if user.CreatedAt.IsZero() || !user.CreatedAt.Equal(user.UpdatedAt) {
		t.Error("expected CreatedAt and UpdatedAt to be set to the same instant")
	}
}

func TestUserJSONOmitsPasswordHash(t *testing.T) {
	data, err := json.Marshal(NewUser("A", "a@example.com", "secret-hash", UserRoleStudent, nil))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(data), "secret-hash") {
		t.Fatalf("password hash leaked: %s", data)
	}
}

func TestUserRole(t *testing.T) {
	tests := []struct {
		role       UserRole
		valid      bool
		privileged bool
	}{
		{UserRoleSystemAdmin, true, true},
		{UserRoleCertificateAdmin, true, true},
		{UserRoleInstructor, true, false},
		{UserRoleStudent, true, false},
		{UserRole("student"), false, false},
		{UserRole(""), false, false},
	}

	for _, tt := range tests {
		if got := tt.role.Valid(); got != tt.valid {
			t.Errorf("%q.Valid() = %v, want %v", tt.role, got, tt.valid)
		}
		if got := tt.role.Privileged(); got != tt.privileged {
			t.Errorf("%q.Privileged() = %v, want %v", tt.role, got, tt.privileged)
		}
	}
}

func TestCertificateStatus(t *testing.T) {
	for _, s := range AllCertificateStatuses {
		if !s.Valid() {
			t.Errorf("expected %s to be valid", s)
		}
	}
	for _, s := range []CertificateStatus{"active", "PENDING", ""} {
		if s.Valid() {
			t.Errorf("expected %q to be invalid", s)
		}
	}
}

func TestNewCertificate(t *testing.T) {
	issuedAt := time.Date(2026, 3, 1, 9, 30, 0, 0, time.FixedZone("EST", -5*3600))
	cert := NewCertificate("CERT-20260301143000-ABC123", "ABCDEFGHJKLM", 1, 4, issuedAt)

	if cert.Status != CertificateStatusActive {
		t.Errorf("expected ACTIVE, got %s", cert.Status)
	}
	if cert.IssueDate.Location() != time.UTC || !cert.IssueDate.Equal(issuedAt) {
		t.Errorf("expected issue date normalized to UTC, got %v", cert.IssueDate)
	}
	if cert.CourseID != 1 || cert.RecipientID != 4 {
		t.Errorf("unexpected references course=%d recipient=%d", cert.CourseID, cert.RecipientID)
	}
}

func TestNewVerificationLog(t *testing.T) {
	id := int64(10)

	hit := NewVerificationLog(&id, "ABCDEFGHJKLM", "curl/8.0", "192.0.2.1")
	if !hit.Result || hit.CertificateID == nil || *hit.CertificateID != 10 {
		t.Errorf("expected hit entry referencing 10, got %+v", hit)
	}

	miss := NewVerificationLog(nil, "BOGUS000000", "", "192.0.2.1")
	if miss.Result || miss.CertificateID != nil {
		t.Errorf("expected miss entry, got %+v", miss)
	}
	if miss.RequestedCode != "BOGUS000000" || miss.VerifiedAt.IsZero() {
		t.Errorf("expected code and timestamp recorded, got %+v", miss)
	}
}

func TestNewCourse(t *testing.T) {
	course := NewCourse("  Introduction to Programming ", "Basics", "Pass the final", nil)
	if course.Name != "Introduction to Programming" {
		t.Errorf("expected trimmed name, got %q", course.Name)
	}
	if course.CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}
}

func TestNewInstitution(t *testing.T) {
	inst := NewInstitution(" Example University ", "1 Campus Way", "registrar@example.edu", "")
	if inst.Name != "Example University" {
		t.Errorf("expected trimmed name, got %q", inst.Name)
	}
}

func TestNewVerificationLogClampsInput(t *testing.T) {
	entry := NewVerificationLog(nil, strings.Repeat("A", 200), strings.Repeat("u", 600), strings.Repeat("9", 300))

	if len(entry.RequestedCode) != MaxRequestedCodeLength {
		t.Errorf("expected code clamped to %d, got %d", MaxRequestedCodeLength, len(entry.RequestedCode))
	}
	if len(entry.SourceAddress) != MaxSourceAddressLength {
		t.Errorf("expected source clamped to %d, got %d", MaxSourceAddressLength, len(entry.SourceAddress))
	}
	if len(entry.VerifierInfo) != MaxVerifierInfoLength {
		t.Errorf("expected verifier info clamped to %d, got %d", MaxVerifierInfoLength, len(entry.VerifierInfo))
	}

	mixed := NewVerificationLog(nil, "AB\x00C\xffD", "", strings.Repeat("é", 70))
	if mixed.RequestedCode != "ABCD" {
		t.Errorf("expected NUL and invalid bytes dropped, got %q", mixed.RequestedCode)
	}
	if n := utf8.RuneCountInString(mixed.SourceAddress); n != MaxSourceAddressLength {
		t.Errorf("expected %d characters, got %d", MaxSourceAddressLength, n)
	}
	if !utf8.ValidString(mixed.SourceAddress) {
		t.Error("expected clamped source address to stay valid UTF-8")
	}
}
