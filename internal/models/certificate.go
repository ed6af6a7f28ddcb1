package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

// CertificateStatus represents the lifecycle state of a certificate.
type CertificateStatus string

const (
	// CertificateStatusActive is a valid, current certificate.
	CertificateStatusActive CertificateStatus = "ACTIVE"
	// CertificateStatusRevoked has been withdrawn by an administrator.
	CertificateStatusRevoked CertificateStatus = "REVOKED"
	// CertificateStatusExpired is past its validity period.
	CertificateStatusExpired CertificateStatus = "EXPIRED"
)

// AllCertificateStatuses lists every known status.
var AllCertificateStatuses = []CertificateStatus{
	CertificateStatusActive,
	CertificateStatusRevoked,
	CertificateStatusExpired,
}

// Valid reports whether s is a known status.
func (s CertificateStatus) Valid() bool {
	switch s {
	case CertificateStatusActive, CertificateStatusRevoked, CertificateStatusExpired:
		return true
	}
	return false
}

// Certificate is an award bound to exactly one course and one recipient.
// CertificateNumber and VerificationCode are unique across all certificates.
type Certificate struct {
	ID                int64             `json:"id"`
	CertificateNumber string            `json:"certificateNumber"`
	VerificationCode  string            `json:"verificationCode"`
	CourseID          int64             `json:"courseId"`
	RecipientID       int64             `json:"recipientId"`
	IssueDate         time.Time         `json:"issueDate"`
	Status            CertificateStatus `json:"status"`

	// Joined from courses and users on read.
	CourseName     string `json:"courseName,omitempty"`
	RecipientName  string `json:"recipientName,omitempty"`
	RecipientEmail string `json:"recipientEmail,omitempty"`
}

// NewCertificate creates a new ACTIVE certificate issued at issuedAt.
func NewCertificate(number, code string, courseID, recipientID int64, issuedAt time.Time) *Certificate {
	return &Certificate{
		CertificateNumber: number,
		VerificationCode:  code,
		CourseID:          courseID,
		RecipientID:       recipientID,
		IssueDate:         issuedAt.UTC(),
		Status:            CertificateStatusActive,
	}
}

// VerificationLog records a single public verification attempt. Rows are never updated.
type VerificationLog struct {
	ID            int64     `json:"id"`
	CertificateID *int64    `json:"certificateId,omitempty"`
	RequestedCode string    `json:"requestedCode"`
	VerifierInfo  string    `json:"verifierInfo,omitempty"`
	Result        bool      `json:"result"`
	SourceAddress string    `json:"sourceAddress,omitempty"`
	VerifiedAt    time.Time `json:"verifiedAt"`
}

// Column limits for the caller-supplied parts of a VerificationLog.
const (
	MaxRequestedCodeLength = 64
	MaxSourceAddressLength = 64
	MaxVerifierInfoLength  = 512
)

// NewVerificationLog creates a log entry. A nil certificateID records a miss.
// Caller-supplied text is clamped to the column limits.
func NewVerificationLog(certificateID *int64, code, verifierInfo, sourceAddress string) *VerificationLog {
	return &VerificationLog{
		CertificateID: certificateID,
		RequestedCode: clampText(code, MaxRequestedCodeLength),
		VerifierInfo:  clampText(verifierInfo, MaxVerifierInfoLength),
		Result:        certificateID != nil,
		SourceAddress: clampText(sourceAddress, MaxSourceAddressLength),
		VerifiedAt:    time.Now().UTC(),
	}
}

// clampText drops invalid UTF-8 and NUL bytes, which Postgres text columns
// reject, and cuts s to at most limit characters.
func clampText(s string, limit int) string {
	s = strings.ReplaceAll(strings.ToValidUTF8(s, ""), "\x00", "")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
