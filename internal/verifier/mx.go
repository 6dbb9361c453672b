package verifier

import (
	"context"
	"log/slog"
	"net"
	"strings"
)

// MXResolver looks up the mail exchangers of a domain.
type MXResolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// MXVerifier accepts an address when its domain publishes at least one MX
// record. A single lookup is made per call and nothing is cached.
type MXVerifier struct {
	Resolver MXResolver
}

func NewMXVerifier(r MXResolver) *MXVerifier {
	return &MXVerifier{Resolver: r}
}

func (v *MXVerifier) VerifyEmail(ctx context.Context, email string) (*EmailVerificationResult, error) {
	email = strings.TrimSpace(email)
	if !IsEmailFormat(email) {
		return nil, ErrBadFormat
	}

	domain := Domain(email)
	if domain == "" {
		return nil, ErrBadFormat
	}

	mx, err := v.Resolver.LookupMX(ctx, domain)
	if len(mx) > 0 {
		return Valid(), nil
	}
	if err != nil {
		slog.DebugContext(ctx, "mx lookup failed", "domain", domain, "error", err)
		return Invalid(ReasonDomainNotReachable), nil
	}

	return Invalid(ReasonNoMXRecords), nil
}
