// Package certificates implements certificate issuance, lifecycle and public verification.
package certificates

import "errors"

var (
	// ErrInvalidRequest is returned when an issue request names no recipient or course.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCourseNotFound is returned when the course does not exist.
	ErrCourseNotFound = errors.New("course not found")
	// ErrRecipientNotFound is returned when the recipient user does not exist.
	ErrRecipientNotFound = errors.New("recipient not found")
	// ErrCertificateNotFound is returned when a certificate id does not exist.
	ErrCertificateNotFound = errors.New("certificate not found")
	// ErrInvalidStatus is returned for a status outside ACTIVE, REVOKED, EXPIRED.
	ErrInvalidStatus = errors.New("invalid certificate status")
	// ErrNotFound is the verification miss outcome. It is not a failure.
	ErrNotFound = errors.New("certificate not found")
	// ErrAuditWriteFailed is returned when a verification attempt could not be logged.
	ErrAuditWriteFailed = errors.New("verification audit write failed")
	// ErrCodeSpaceExhausted is returned when every generated number or code collided.
	ErrCodeSpaceExhausted = errors.New("could not generate unique certificate identifiers")
)
