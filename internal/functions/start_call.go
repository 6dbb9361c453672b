package functions

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cruxstack/receptionist-functions-go/internal/leadform"
	"github.com/cruxstack/receptionist-functions-go/internal/voice"
)

const startCallMethods = "POST, OPTIONS"

type CallStarter interface {
	StartWebCall(ctx context.Context, assistantID string, metadata voice.CallMetadata) (*voice.WebCall, error)
}

type LeadNotifier interface {
	Notify(ctx context.Context, customerName, customerEmail, callID string) error
}

type startCallResponse struct {
	Started    bool   `json:"started"`
	CallID     string `json:"callId,omitempty"`
	WebCallURL string `json:"webCallUrl,omitempty"`
}

type StartCallHandler struct {
	Voice       CallStarter
	AssistantID string
	Form        *leadform.Validator
	Notifier    LeadNotifier
}

func (h *StartCallHandler) Handler() HandlerFunc {
	return recoverTo(h.Handle, "start-call", callError)
}

func (h *StartCallHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	switch req.HTTPMethod {
	case http.MethodOptions:
		return preflightResponse(startCallMethods), nil
	case http.MethodPost:
	default:
		return errorJSON(http.StatusMethodNotAllowed, "Method not allowed"), nil
	}

	var lead leadform.Lead
	if err := json.Unmarshal([]byte(req.Body), &lead); err != nil {
		return errorJSON(http.StatusBadRequest, "Invalid JSON"), nil
	}

	lead.Name = strings.TrimSpace(lead.Name)
	lead.Email = strings.TrimSpace(lead.Email)
	if lead.Name == "" || lead.Email == "" {
		return errorJSON(http.StatusBadRequest, "Missing name or email"), nil
	}

	if h.Form != nil {
		if errs := h.Form.Validate(ctx, lead); len(errs) > 0 {
			return jsonResponse(http.StatusBadRequest, startCallMethods, map[string]any{
				"error":  "Invalid contact details",
				"fields": errs,
			}), nil
		}
	}

	if h.Voice == nil || h.AssistantID == "" {
		slog.ErrorContext(ctx, "start-call misconfigured: voice server key or assistant id missing")
		return callError(), nil
	}

	call, err := h.Voice.StartWebCall(ctx, h.AssistantID, voice.CallMetadata{
		CustomerName:  lead.Name,
		CustomerEmail: lead.Email,
	})
	if err != nil {
		slog.ErrorContext(ctx, "start-call error", "error", err)
		return callError(), nil
	}

	if h.Notifier != nil {
		if err := h.Notifier.Notify(ctx, lead.Name, lead.Email, call.ID); err != nil {
			slog.WarnContext(ctx, "lead notification failed", "call_id", call.ID, "error", err)
		}
	}

	return jsonResponse(http.StatusOK, startCallMethods, startCallResponse{
		Started:    true,
		CallID:     call.ID,
		WebCallURL: call.WebCallURL,
	}), nil
}

func errorJSON(status int, msg string) events.APIGatewayProxyResponse {
	return jsonResponse(status, startCallMethods, map[string]string{"error": msg})
}

func callError() events.APIGatewayProxyResponse {
	return errorJSON(http.StatusInternalServerError, "Call failed")
}
