package functions

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cruxstack/receptionist-functions-go/internal/verifier"
)

const validateEmailMethods = "GET, OPTIONS"

type validateEmailResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ValidateEmailHandler answers GET ?email= with a DNS-based verdict.
// Request-shape problems are 4xx, DNS verdicts are always 200 and
// unexpected failures are 500 without detail.
type ValidateEmailHandler struct {
	Verifier verifier.EmailVerifier
}

func NewValidateEmailHandler(v verifier.EmailVerifier) *ValidateEmailHandler {
	return &ValidateEmailHandler{Verifier: v}
}

// Handler returns the panic-safe entry point.
func (h *ValidateEmailHandler) Handler() HandlerFunc {
	return recoverTo(h.Handle, "validate-email", internalError)
}

func (h *ValidateEmailHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	switch req.HTTPMethod {
	case http.MethodOptions:
		return preflightResponse(validateEmailMethods), nil
	case http.MethodGet:
	default:
		return validateEmailJSON(http.StatusMethodNotAllowed, false, "Method not allowed"), nil
	}

	email := req.QueryStringParameters["email"]
	if email == "" {
		return validateEmailJSON(http.StatusBadRequest, false, "Email parameter is required"), nil
	}

	result, err := h.Verifier.VerifyEmail(ctx, email)
	if errors.Is(err, verifier.ErrBadFormat) {
		return validateEmailJSON(http.StatusBadRequest, false, verifier.ReasonBadFormat), nil
	}
	if err != nil || result == nil {
		slog.ErrorContext(ctx, "email validation error", "error", err)
		return internalError(), nil
	}

	slog.DebugContext(ctx, "email validated",
		"domain", verifier.Domain(strings.TrimSpace(email)),
		"valid", result.IsValid,
		"reason", result.Reason,
	)

	return validateEmailJSON(http.StatusOK, result.IsValid, result.Reason), nil
}

func validateEmailJSON(status int, valid bool, reason string) events.APIGatewayProxyResponse {
	if valid {
		reason = ""
	}
	return jsonResponse(status, validateEmailMethods, validateEmailResponse{Valid: valid, Error: reason})
}

func internalError() events.APIGatewayProxyResponse {
	return validateEmailJSON(http.StatusInternalServerError, false, "Internal server error")
}
