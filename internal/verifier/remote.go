package verifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sendgrid/rest"
)

// RemoteEmailVerifier asks a deployed validate-email function for a verdict.
// Only an HTTP 200 carries a verdict; anything else means the check could not
// be performed and is returned as an error.
type RemoteEmailVerifier struct {
	Endpoint string
}

func (v *RemoteEmailVerifier) VerifyEmail(ctx context.Context, email string) (*EmailVerificationResult, error) {
	request := rest.Request{
		Method:      rest.Get,
		BaseURL:     v.Endpoint,
		Headers:     map[string]string{"Accept": "application/json"},
		QueryParams: map[string]string{"email": email},
	}

	response, err := rest.SendWithContext(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("validation endpoint error: %w", err)
	}
	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("validation endpoint returned status %d", response.StatusCode)
	}

	var payload EmailVerificationResult
	if err := json.Unmarshal([]byte(response.Body), &payload); err != nil {
		return nil, fmt.Errorf("validation endpoint unmarshal error: %w", err)
	}

	if payload.IsValid {
		return Valid(), nil
	}
	if payload.Reason == "" {
		return Invalid(ReasonInvalidEmailDomain), nil
	}
	return Invalid(payload.Reason), nil
}

func NewRemoteVerifier(endpoint string) *RemoteEmailVerifier {
	return &RemoteEmailVerifier{Endpoint: endpoint}
}
