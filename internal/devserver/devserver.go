// Package devserver serves the functions over plain HTTP for local
// development, using the same paths the site calls in production.
package devserver

import (
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cruxstack/receptionist-functions-go/internal/functions"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const functionsPrefix = "/.netlify/functions"

// maxBodyBytes caps request bodies; the functions only take small JSON forms.
const maxBodyBytes = 64 << 10

type Handlers struct {
	ValidateEmail functions.HandlerFunc
	GetToken      functions.HandlerFunc
	StartCall     functions.HandlerFunc
}

// NewRouter mounts every non-nil handler under /.netlify/functions/<name>.
// validate-email is also reachable as /api/validate-email.
func NewRouter(h Handlers) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if h.ValidateEmail != nil {
		r.HandleFunc(functionsPrefix+"/validate-email", Adapt(h.ValidateEmail))
		r.HandleFunc("/api/validate-email", Adapt(h.ValidateEmail))
	}
	if h.GetToken != nil {
		r.HandleFunc(functionsPrefix+"/get-token", Adapt(h.GetToken))
	}
	if h.StartCall != nil {
		r.HandleFunc(functionsPrefix+"/start-call", Adapt(h.StartCall))
	}

	return r
}

// Adapt converts between net/http and API Gateway proxy events.
func Adapt(fn functions.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req, err := ToProxyRequest(r)
		if err != nil {
			http.Error(w, `{"error":"Invalid request body"}`, http.StatusBadRequest)
			return
		}

		resp, err := fn(r.Context(), req)
		if err != nil {
			slog.ErrorContext(r.Context(), "function returned error", "path", r.URL.Path, "error", err)
			http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
			return
		}

		WriteProxyResponse(w, resp)
	}
}

func ToProxyRequest(r *http.Request) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return events.APIGatewayProxyRequest{}, err
	}

	headers := make(map[string]string, len(r.Header))
	multiHeaders := make(map[string][]string, len(r.Header))
	for k, v := range r.Header {
		headers[k] = strings.Join(v, ",")
		multiHeaders[k] = v
	}

	q := r.URL.Query()
	params := make(map[string]string, len(q))
	multiParams := make(map[string][]string, len(q))
	for k, v := range q {
		if len(v) > 0 {
			params[k] = v[0]
		}
		multiParams[k] = v
	}

	return events.APIGatewayProxyRequest{
		Resource:                        r.URL.Path,
		Path:                            r.URL.Path,
		HTTPMethod:                      r.Method,
		Headers:                         headers,
		MultiValueHeaders:               multiHeaders,
		QueryStringParameters:           params,
		MultiValueQueryStringParameters: multiParams,
		Body:                            string(body),
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:  middleware.GetReqID(r.Context()),
			HTTPMethod: r.Method,
			Path:       r.URL.Path,
			Identity: events.APIGatewayRequestIdentity{
				SourceIP:  r.RemoteAddr,
				UserAgent: r.UserAgent(),
			},
		},
	}, nil
}

func WriteProxyResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) {
	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	for k, vs := range resp.MultiValueHeaders {
		for _, v := range vs {
			w.Header().Add(k, v)
		}
	}

	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = io.WriteString(w, resp.Body)
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		slog.InfoContext(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
