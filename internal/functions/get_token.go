package functions

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

const getTokenMethods = "GET, OPTIONS"

type TokenCreator interface {
	CreateSessionToken(ctx context.Context, assistantID string, ttl time.Duration) (string, error)
}

type GetTokenHandler struct {
	Voice       TokenCreator
	AssistantID string
	TTL         time.Duration
}

func (h *GetTokenHandler) Handler() HandlerFunc {
	return recoverTo(h.Handle, "get-token", tokenError)
}

func (h *GetTokenHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	switch req.HTTPMethod {
	case http.MethodOptions:
		return preflightResponse(getTokenMethods), nil
	case http.MethodGet:
	default:
		return jsonResponse(http.StatusMethodNotAllowed, getTokenMethods, map[string]string{"error": "Method not allowed"}), nil
	}

	if h.Voice == nil || h.AssistantID == "" {
		slog.ErrorContext(ctx, "get-token misconfigured: voice server key or assistant id missing")
		return tokenError(), nil
	}

	token, err := h.Voice.CreateSessionToken(ctx, h.AssistantID, h.TTL)
	if err != nil {
		slog.ErrorContext(ctx, "get-token error", "error", err)
		return tokenError(), nil
	}

	return jsonResponse(http.StatusOK, getTokenMethods, map[string]string{"sessionToken": token}), nil
}

func tokenError() events.APIGatewayProxyResponse {
	return jsonResponse(http.StatusInternalServerError, getTokenMethods, map[string]string{"error": "Could not create session token"})
}
