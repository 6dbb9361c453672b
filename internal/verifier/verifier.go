// Package verifier decides, best effort, whether an email address belongs to
// a domain that can plausibly receive mail. No mail is ever delivered.
package verifier

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// Rejection reasons returned to callers. DNS failure classes are collapsed
// into ReasonDomainNotReachable.
const (
	ReasonBadFormat          = "Bad email format"
	ReasonNoMXRecords        = "No MX records for domain"
	ReasonDomainNotReachable = "Domain not reachable"
	ReasonInvalidDomain      = "Invalid domain format"
	ReasonInvalidEmailDomain = "Invalid email domain"
)

// ErrBadFormat is returned when the input is not shaped like an email address.
// Callers treat it as a request error rather than a verdict.
var ErrBadFormat = errors.New("bad email format")

// emailPart excludes '@' and every character a browser regex treats as
// whitespace, which is wider than RE2's \s.
const emailPart = `[^\s\v\p{Z}\x{FEFF}@]+`

var emailRegex = regexp.MustCompile(`^` + emailPart + `@` + emailPart + `\.` + emailPart + `$`)

// EmailVerificationResult is the verdict for one address.
type EmailVerificationResult struct {
	IsValid bool   `json:"valid"`
	Reason  string `json:"error,omitempty"`
}

// Valid returns an accepting result.
func Valid() *EmailVerificationResult {
	return &EmailVerificationResult{IsValid: true}
}

// Invalid returns a rejecting result carrying reason.
func Invalid(reason string) *EmailVerificationResult {
	return &EmailVerificationResult{IsValid: false, Reason: reason}
}

// EmailVerifier checks whether an address can plausibly receive mail.
type EmailVerifier interface {
	VerifyEmail(ctx context.Context, email string) (*EmailVerificationResult, error)
}

// IsEmailFormat reports whether s matches the permissive local@domain.tld shape.
func IsEmailFormat(s string) bool {
	return emailRegex.MatchString(s)
}

// Domain returns the lower-cased part after the last '@', or an empty string.
func Domain(email string) string {
	at := strings.LastIndex(email, "@")
	if at == -1 {
		return ""
	}
	return strings.ToLower(email[at+1:])
}
