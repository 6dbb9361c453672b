// Package functions holds the serverless HTTP handlers behind the marketing
// site. Each handler answers an API Gateway proxy event and never returns an
// error to the runtime.
package functions

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/aws/aws-lambda-go/events"
)

// HandlerFunc is the signature every function exposes to lambda.Start.
type HandlerFunc func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

func corsHeaders(methods string) map[string]string {
	return map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type",
		"Access-Control-Allow-Methods": methods,
		"Content-Type":                 "application/json",
	}
}

func jsonResponse(status int, methods string, body any) events.APIGatewayProxyResponse {
	bs, err := json.Marshal(body)
	if err != nil {
		slog.Error("failed to marshal response body", "error", err)
		status = http.StatusInternalServerError
		bs = []byte(`{"error":"Internal server error"}`)
	}

	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    corsHeaders(methods),
		Body:       string(bs),
	}
}

func preflightResponse(methods string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    corsHeaders(methods),
		Body:       "",
	}
}

// recoverTo turns a panic in fn into the given fallback response.
func recoverTo(fn HandlerFunc, name string, fallback func() events.APIGatewayProxyResponse) HandlerFunc {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (resp events.APIGatewayProxyResponse, err error) {
		defer func() {
			if r := recover(); r != nil {
				slog.ErrorContext(ctx, "handler panic",
					"function", name,
					"panic", fmt.Sprint(r),
					"stack", string(debug.Stack()),
				)
				resp, err = fallback(), nil
			}
		}()
		return fn(ctx, req)
	}
}
