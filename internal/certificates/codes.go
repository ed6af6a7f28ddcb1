package certificates

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

const (
	// CodeAlphabet is the set of characters used in verification codes and number suffixes.
	CodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// VerificationCodeLength is the length of a verification code.
	VerificationCodeLength = 12
	// CertificateNumberPrefix starts every certificate number.
	CertificateNumberPrefix = "CERT-"

	numberSuffixLength = 6
	numberTimeLayout   = "20060102150405"
)

// CodeGenerator produces certificate numbers and verification codes.
type CodeGenerator interface {
	CertificateNumber(issuedAt time.Time) (string, error)
	VerificationCode() (string, error)
}

// RandomCodes is the crypto/rand backed CodeGenerator.
type RandomCodes struct{}

// CertificateNumber returns CERT-<UTC timestamp>-<random suffix>.
func (RandomCodes) CertificateNumber(issuedAt time.Time) (string, error) {
	suffix, err := randomString(numberSuffixLength)
	if err != nil {
		return "", err
	}
	return CertificateNumberPrefix + issuedAt.UTC().Format(numberTimeLayout) + "-" + suffix, nil
}

// VerificationCode returns a 12 character uppercase alphanumeric code.
func (RandomCodes) VerificationCode() (string, error) {
	return randomString(VerificationCodeLength)
}

func randomString(n int) (string, error) {
	max := big.NewInt(int64(len(CodeAlphabet)))
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate random code: %w", err)
		}
		b.WriteByte(CodeAlphabet[idx.Int64()])
	}
	return b.String(), nil
}

// NormalizeCode canonicalizes user supplied verification codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether a normalized code could have been generated.
func ValidCode(code string) bool {
	if len(code) != VerificationCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(CodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}
