// Package leadform validates the contact details a visitor submits before
// talking to the receptionist.
package leadform

import (
	"context"
	"strings"

	"github.com/cruxstack/receptionist-functions-go/internal/prefilter"
	"github.com/cruxstack/receptionist-functions-go/internal/verifier"
)

const (
	ErrNameRequired  = "Name is required"
	ErrNameTooShort  = "Name must be at least 2 characters"
	ErrEmailRequired = "Email is required"
	ErrEmailFormat   = "Please enter a valid email address"
	ErrTermsRequired = "You must agree to the terms"
)

type Lead struct {
	Name          string `json:"customerName"`
	Email         string `json:"customerEmail"`
	AgreedToTerms bool   `json:"agreedToTerms"`
}

// FieldErrors maps a field name to its message. Empty means the lead is valid.
type FieldErrors map[string]string

type Validator struct {
	Prefilter    *prefilter.Prefilter
	RequireTerms bool
}

func (v *Validator) Validate(ctx context.Context, lead Lead) FieldErrors {
	errs := FieldErrors{}

	name := strings.TrimSpace(lead.Name)
	switch {
	case name == "":
		errs["name"] = ErrNameRequired
	case len([]rune(name)) < 2:
		errs["name"] = ErrNameTooShort
	}

	email := strings.TrimSpace(lead.Email)
	switch {
	case email == "":
		errs["email"] = ErrEmailRequired
	case !verifier.IsEmailFormat(email):
		errs["email"] = ErrEmailFormat
	case v.Prefilter != nil:
		if r := v.Prefilter.Check(ctx, email); !r.IsValid {
			errs["email"] = r.Error
		}
	}

	if v.RequireTerms && !lead.AgreedToTerms {
		errs["agreedToTerms"] = ErrTermsRequired
	}

	return errs
}
