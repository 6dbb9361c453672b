// Package prefilter rejects obviously unusable contact addresses before any
// network check is made, and delegates the rest to an EmailVerifier.
package prefilter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/cruxstack/receptionist-functions-go/internal/opa"
	"github.com/cruxstack/receptionist-functions-go/internal/verifier"
)

const (
	ErrInvalidFormat  = "Invalid email format"
	ErrBusinessEmail  = "Please use a business email address"
	ErrValidBusiness  = "Please use a valid business email address"
	ErrUnableToVerify = "Unable to verify domain - please check and try again"
)

var freeEmailProviders = map[string]struct{}{
	"gmail.com":      {},
	"yahoo.com":      {},
	"hotmail.com":    {},
	"outlook.com":    {},
	"aol.com":        {},
	"icloud.com":     {},
	"me.com":         {},
	"live.com":       {},
	"msn.com":        {},
	"ymail.com":      {},
	"rocketmail.com": {},
	"mail.com":       {},
	"protonmail.com": {},
	"tutanota.com":   {},
}

var suspiciousDomains = map[string]struct{}{
	"test.com":    {},
	"example.com": {},
	"demo.com":    {},
	"fake.com":    {},
	"temp.com":    {},
}

type Result struct {
	IsValid bool   `json:"isValid"`
	Error   string `json:"error,omitempty"`
}

// DomainPolicy is an optional extra rule set consulted after the deny-lists.
type DomainPolicy interface {
	Decide(ctx context.Context, email, domain string) (*opa.DomainDecision, error)
}

type Prefilter struct {
	// Local skips the network and checks only the domain shape.
	Local bool
	// Remote performs the authoritative check in production.
	Remote verifier.EmailVerifier
	Policy DomainPolicy
}

func New(local bool, remote verifier.EmailVerifier, policy DomainPolicy) *Prefilter {
	return &Prefilter{
		Local:  local,
		Remote: remote,
		Policy: policy,
	}
}

// IsFreeProvider reports whether domain belongs to a consumer webmail service.
func IsFreeProvider(domain string) bool {
	_, ok := freeEmailProviders[strings.ToLower(domain)]
	return ok
}

// IsSuspicious reports whether domain is a well-known placeholder domain.
func IsSuspicious(domain string) bool {
	_, ok := suspiciousDomains[strings.ToLower(domain)]
	return ok
}

func (p *Prefilter) Check(ctx context.Context, email string) Result {
	domain := firstDomain(email)
	if domain == "" {
		return reject(ErrInvalidFormat)
	}

	if IsFreeProvider(domain) {
		return reject(ErrBusinessEmail)
	}
	if IsSuspicious(domain) {
		return reject(ErrValidBusiness)
	}

	if p.Policy != nil {
		d, err := p.Policy.Decide(ctx, email, domain)
		if err != nil {
			slog.WarnContext(ctx, "domain policy evaluation failed, ignoring", "domain", domain, "error", err)
		} else if d.Action == opa.ActionDeny {
			if d.Reason == "" {
				return reject(ErrValidBusiness)
			}
			return reject(d.Reason)
		}
	}

	// the local check judges the same first-'@' domain the deny-lists saw
	if p.Local {
		if !verifier.IsDomainShape(domain) {
			return reject(verifier.ReasonInvalidDomain)
		}
		return Result{IsValid: true}
	}

	v := p.Remote
	if v == nil {
		slog.ErrorContext(ctx, "no domain verifier configured")
		return reject(ErrUnableToVerify)
	}

	result, err := v.VerifyEmail(ctx, email)
	if err != nil {
		slog.WarnContext(ctx, "domain verification unavailable", "domain", domain, "error", err)
		return reject(ErrUnableToVerify)
	}
	if !result.IsValid {
		return reject(result.Reason)
	}

	return Result{IsValid: true}
}

func reject(reason string) Result {
	return Result{IsValid: false, Error: reason}
}

// firstDomain mirrors the form's split on '@': the part after the first '@'.
func firstDomain(email string) string {
	parts := strings.Split(strings.TrimSpace(email), "@")
	if len(parts) < 2 {
		return ""
	}
	return strings.ToLower(parts[1])
}
