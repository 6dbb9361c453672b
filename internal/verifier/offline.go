package verifier

import (
	"context"
	"regexp"
)

// label(.label)+ with an alphabetic top-level label of at least two characters
var domainRegex = regexp.MustCompile(`^(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

// OfflineEmailVerifier checks only the shape of the domain. It exists so that
// local development does not depend on outbound DNS.
type OfflineEmailVerifier struct{}

func (v *OfflineEmailVerifier) VerifyEmail(ctx context.Context, email string) (*EmailVerificationResult, error) {
	if !IsDomainShape(Domain(email)) {
		return Invalid(ReasonInvalidDomain), nil
	}
	return Valid(), nil
}

func NewOfflineVerifier() *OfflineEmailVerifier {
	return &OfflineEmailVerifier{}
}

// IsDomainShape reports whether domain looks like a registrable host name.
func IsDomainShape(domain string) bool {
	return domainRegex.MatchString(domain)
}
