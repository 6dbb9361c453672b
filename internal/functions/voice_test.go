package functions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/cruxstack/receptionist-functions-go/internal/leadform"
	"github.com/cruxstack/receptionist-functions-go/internal/prefilter"
	"github.com/cruxstack/receptionist-functions-go/internal/voice"
)

type fakeVoice struct {
	mu        sync.Mutex
	token     string
	call      *voice.WebCall
	err       error
	ttl       time.Duration
	assistant string
	metadata  []voice.CallMetadata
}

func (f *fakeVoice) CreateSessionToken(ctx context.Context, assistantID string, ttl time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assistant = assistantID
	f.ttl = ttl
	return f.token, f.err
}

func (f *fakeVoice) StartWebCall(ctx context.Context, assistantID string, metadata voice.CallMetadata) (*voice.WebCall, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assistant = assistantID
	f.metadata = append(f.metadata, metadata)
	return f.call, f.err
}

func (f *fakeVoice) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.metadata)
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (n *fakeNotifier) Notify(ctx context.Context, customerName, customerEmail, callID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, customerName+"|"+customerEmail+"|"+callID)
	return n.err
}

func decodeMap(t *testing.T, body string) map[string]any {
	t.Helper()
	m := map[string]any{}
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatalf("invalid response body %q: %v", body, err)
	}
	return m
}

func TestGetToken(t *testing.T) {
	v := &fakeVoice{token: "tok_abc"}
	h := (&GetTokenHandler{Voice: v, AssistantID: "asst_123", TTL: 5 * time.Minute}).Handler()

	resp, err := h(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	assertCORS(t, resp, getTokenMethods)
	if got := decodeMap(t, resp.Body)["sessionToken"]; got != "tok_abc" {
		t.Errorf("expected token tok_abc, got %v", got)
	}
	if v.assistant != "asst_123" || v.ttl != 5*time.Minute {
		t.Errorf("unexpected request: assistant=%q ttl=%v", v.assistant, v.ttl)
	}
}

func TestGetToken_Failures(t *testing.T) {
	testCases := []struct {
		name       string
		handler    *GetTokenHandler
		method     string
		wantStatus int
		wantError  string
	}{
		{
			name:       "upstream error",
			handler:    &GetTokenHandler{Voice: &fakeVoice{err: errors.New("401")}, AssistantID: "asst_123"},
			method:     http.MethodGet,
			wantStatus: http.StatusInternalServerError,
			wantError:  "Could not create session token",
		},
		{
			name:       "missing assistant",
			handler:    &GetTokenHandler{Voice: &fakeVoice{token: "tok"}},
			method:     http.MethodGet,
			wantStatus: http.StatusInternalServerError,
			wantError:  "Could not create session token",
		},
		{
			name:       "wrong method",
			handler:    &GetTokenHandler{Voice: &fakeVoice{token: "tok"}, AssistantID: "asst_123"},
			method:     http.MethodDelete,
			wantStatus: http.StatusMethodNotAllowed,
			wantError:  "Method not allowed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := tc.handler.Handler()(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: tc.method})
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, resp.StatusCode)
			}
			if got := decodeMap(t, resp.Body)["error"]; got != tc.wantError {
				t.Errorf("expected error %q, got %v", tc.wantError, got)
			}
		})
	}
}

func newTestStartCall(v *fakeVoice, n LeadNotifier) HandlerFunc {
	h := &StartCallHandler{
		Voice:       v,
		AssistantID: "asst_123",
		Form:        &leadform.Validator{Prefilter: prefilter.New(true, nil, nil)},
		Notifier:    n,
	}
	return h.Handler()
}

func post(body string) events.APIGatewayProxyRequest {
	return events.APIGatewayProxyRequest{HTTPMethod: http.MethodPost, Body: body}
}

func TestStartCall_Success(t *testing.T) {
	v := &fakeVoice{call: &voice.WebCall{ID: "call_1", WebCallURL: "https://call.example/1"}}
	n := &fakeNotifier{}
	h := newTestStartCall(v, n)

	resp, err := h(context.Background(), post(`{"customerName":"Jane Doe","customerEmail":"jane@acmecorp.com"}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.StatusCode, resp.Body)
	}
	assertCORS(t, resp, startCallMethods)

	body := decodeMap(t, resp.Body)
	if body["started"] != true || body["callId"] != "call_1" || body["webCallUrl"] != "https://call.example/1" {
		t.Errorf("unexpected body %s", resp.Body)
	}

	if len(v.metadata) != 1 || v.metadata[0].CustomerName != "Jane Doe" || v.metadata[0].CustomerEmail != "jane@acmecorp.com" {
		t.Errorf("unexpected call metadata %+v", v.metadata)
	}
	if len(n.calls) != 1 || n.calls[0] != "Jane Doe|jane@acmecorp.com|call_1" {
		t.Errorf("unexpected notifications %v", n.calls)
	}
}

func TestStartCall_NotifyFailureIgnored(t *testing.T) {
	v := &fakeVoice{call: &voice.WebCall{ID: "call_2"}}
	h := newTestStartCall(v, &fakeNotifier{err: errors.New("ses down")})

	resp, _ := h(context.Background(), post(`{"customerName":"Jane Doe","customerEmail":"jane@acmecorp.com"}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestStartCall_TermsRequired(t *testing.T) {
	v := &fakeVoice{call: &voice.WebCall{ID: "call_3"}}
	n := &fakeNotifier{}
	h := (&StartCallHandler{
		Voice:       v,
		AssistantID: "asst_123",
		Form:        &leadform.Validator{Prefilter: prefilter.New(true, nil, nil), RequireTerms: true},
		Notifier:    n,
	}).Handler()

	resp, err := h(context.Background(), post(`{"customerName":"Jane Doe","customerEmail":"jane@acmecorp.com","agreedToTerms":false}`))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d (%s)", resp.StatusCode, resp.Body)
	}
	fields, _ := decodeMap(t, resp.Body)["fields"].(map[string]any)
	if fields["agreedToTerms"] != leadform.ErrTermsRequired {
		t.Errorf("expected terms field error, got %v", fields)
	}
	if v.Calls() != 0 || len(n.calls) != 0 {
		t.Errorf("expected no call or notification, got %d calls and %v", v.Calls(), n.calls)
	}

	resp, _ = h(context.Background(), post(`{"customerName":"Jane Doe","customerEmail":"jane@acmecorp.com","agreedToTerms":true}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 once terms are agreed, got %d (%s)", resp.StatusCode, resp.Body)
	}
}

func TestStartCall_Rejections(t *testing.T) {
	testCases := []struct {
		name       string
		req        events.APIGatewayProxyRequest
		voiceErr   error
		wantStatus int
		wantError  string
		wantField  string
	}{
		{
			name:       "invalid json",
			req:        post(`{"customerName":`),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid JSON",
		},
		{
			name:       "missing email",
			req:        post(`{"customerName":"Jane Doe"}`),
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing name or email",
		},
		{
			name:       "blank name",
			req:        post(`{"customerName":"  ","customerEmail":"jane@acmecorp.com"}`),
			wantStatus: http.StatusBadRequest,
			wantError:  "Missing name or email",
		},
		{
			name:       "free provider",
			req:        post(`{"customerName":"Jane Doe","customerEmail":"jane@gmail.com"}`),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid contact details",
			wantField:  prefilter.ErrBusinessEmail,
		},
		{
			name:       "bad email format",
			req:        post(`{"customerName":"Jane Doe","customerEmail":"jane-at-acmecorp"}`),
			wantStatus: http.StatusBadRequest,
			wantError:  "Invalid contact details",
			wantField:  leadform.ErrEmailFormat,
		},
		{
			name:       "voice failure",
			req:        post(`{"customerName":"Jane Doe","customerEmail":"jane@acmecorp.com"}`),
			voiceErr:   errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "Call failed",
		},
		{
			name:       "wrong method",
			req:        events.APIGatewayProxyRequest{HTTPMethod: http.MethodGet},
			wantStatus: http.StatusMethodNotAllowed,
			wantError:  "Method not allowed",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			v := &fakeVoice{err: tc.voiceErr}
			n := &fakeNotifier{}
			resp, err := newTestStartCall(v, n)(context.Background(), tc.req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("expected %d, got %d (%s)", tc.wantStatus, resp.StatusCode, resp.Body)
			}

			body := decodeMap(t, resp.Body)
			if body["error"] != tc.wantError {
				t.Errorf("expected error %q, got %v", tc.wantError, body["error"])
			}
			if tc.wantField != "" {
				fields, _ := body["fields"].(map[string]any)
				if fields["email"] != tc.wantField {
					t.Errorf("expected email field error %q, got %v", tc.wantField, body["fields"])
				}
			}
			if tc.voiceErr == nil && v.Calls() != 0 {
				t.Errorf("expected no call to be started, got %d", v.Calls())
			}
			if len(n.calls) != 0 {
				t.Errorf("expected no notification, got %v", n.calls)
			}
		})
	}
}

func TestStartCall_Preflight(t *testing.T) {
	resp, _ := newTestStartCall(&fakeVoice{}, nil)(context.Background(), events.APIGatewayProxyRequest{HTTPMethod: http.MethodOptions})
	if resp.StatusCode != http.StatusOK || resp.Body != "" {
		t.Errorf("unexpected preflight response %d %q", resp.StatusCode, resp.Body)
	}
	assertCORS(t, resp, startCallMethods)
}
