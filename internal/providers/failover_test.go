package providers

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/cruxstack/receptionist-functions-go/internal/types"
)

// mockProvider is a test provider that can be configured to fail or succeed
type mockProvider struct {
	name      string
	sendErr   error
	healthy   bool
	sendCount int
	last      *types.LeadNotification
	mu        sync.Mutex
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) Send(ctx context.Context, n *types.LeadNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendCount++
	m.last = n
	return m.sendErr
}

func (m *mockProvider) IsHealthy(ctx context.Context) bool {
	return m.healthy
}

func (m *mockProvider) GetSendCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sendCount
}

func newTestLead() *types.LeadNotification {
	return &types.LeadNotification{
		DestinationAddress: "sales@acmecorp.com",
		SourceAddress:      "site@acmecorp.com",
		CustomerName:       "Ada",
		CustomerEmail:      "ada@customer.io",
		Providers: &types.NotifyProviderMap{
			SES:      &types.NotifyProviderData{TemplateID: "template-ses"},
			SendGrid: &types.NotifyProviderData{TemplateID: "template-sg"},
		},
	}
}

func TestFailoverProvider_SendsToFirstHealthyProvider(t *testing.T) {
	primary := &mockProvider{name: "ses", healthy: true}
	secondary := &mockProvider{name: "sendgrid", healthy: true}

	fp := NewFailoverProvider([]Provider{primary, secondary})

	if err := fp.Send(context.Background(), newTestLead()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if primary.GetSendCount() != 1 {
		t.Errorf("expected primary to be called once, got %d", primary.GetSendCount())
	}
	if secondary.GetSendCount() != 0 {
		t.Errorf("expected secondary to not be called, got %d", secondary.GetSendCount())
	}
}

func TestFailoverProvider_SkipsUnhealthyProvider(t *testing.T) {
	primary := &mockProvider{name: "ses", healthy: false}
	secondary := &mockProvider{name: "sendgrid", healthy: true}

	fp := NewFailoverProvider([]Provider{primary, secondary})

	if err := fp.Send(context.Background(), newTestLead()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if primary.GetSendCount() != 0 {
		t.Errorf("expected primary to be skipped (unhealthy), got %d calls", primary.GetSendCount())
	}
	if secondary.GetSendCount() != 1 {
		t.Errorf("expected secondary to be called once, got %d", secondary.GetSendCount())
	}
}

func TestFailoverProvider_FailsOverOnSendError(t *testing.T) {
	primary := &mockProvider{name: "ses", healthy: true, sendErr: errors.New("send failed")}
	secondary := &mockProvider{name: "sendgrid", healthy: true}

	fp := NewFailoverProvider([]Provider{primary, secondary})

	if err := fp.Send(context.Background(), newTestLead()); err != nil {
		t.Fatalf("expected no error (should failover), got: %v", err)
	}
	if primary.GetSendCount() != 1 || secondary.GetSendCount() != 1 {
		t.Errorf("expected both providers called once, got %d and %d", primary.GetSendCount(), secondary.GetSendCount())
	}
}

func TestFailoverProvider_ReturnsNilWhenAllFail(t *testing.T) {
	primary := &mockProvider{name: "ses", healthy: true, sendErr: errors.New("primary failed")}
	secondary := &mockProvider{name: "sendgrid", healthy: true, sendErr: errors.New("secondary failed")}

	fp := NewFailoverProvider([]Provider{primary, secondary})

	if err := fp.Send(context.Background(), newTestLead()); err != nil {
		t.Fatalf("expected nil error (warns only), got: %v", err)
	}
	if primary.GetSendCount() != 1 || secondary.GetSendCount() != 1 {
		t.Errorf("expected both providers called once, got %d and %d", primary.GetSendCount(), secondary.GetSendCount())
	}
}

func TestFailoverProvider_SkipsProviderWithoutConfig(t *testing.T) {
	primary := &mockProvider{name: "ses", healthy: true}
	secondary := &mockProvider{name: "sendgrid", healthy: true}

	fp := NewFailoverProvider([]Provider{secondary, primary})

	lead := newTestLead()
	lead.Providers.SendGrid = nil

	if err := fp.Send(context.Background(), lead); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if secondary.GetSendCount() != 0 {
		t.Errorf("expected sendgrid to be skipped (no config), got %d", secondary.GetSendCount())
	}
	if primary.GetSendCount() != 1 {
		t.Errorf("expected ses to be called, got %d", primary.GetSendCount())
	}
}

func TestFailoverProvider_Name(t *testing.T) {
	fp := NewFailoverProvider([]Provider{})
	if fp.Name() != "failover" {
		t.Errorf("expected name 'failover', got '%s'", fp.Name())
	}
}

func TestHasProviderConfig(t *testing.T) {
	tests := []struct {
		name         string
		lead         *types.LeadNotification
		providerName string
		expected     bool
	}{
		{"nil providers", &types.LeadNotification{}, "ses", false},
		{
			"ses with config",
			&types.LeadNotification{Providers: &types.NotifyProviderMap{SES: &types.NotifyProviderData{TemplateID: "t"}}},
			"ses",
			true,
		},
		{
			"ses without template id",
			&types.LeadNotification{Providers: &types.NotifyProviderMap{SES: &types.NotifyProviderData{}}},
			"ses",
			false,
		},
		{
			"sendgrid with config",
			&types.LeadNotification{Providers: &types.NotifyProviderMap{SendGrid: &types.NotifyProviderData{TemplateID: "t"}}},
			"sendgrid",
			true,
		},
		{
			"unknown provider",
			&types.LeadNotification{Providers: &types.NotifyProviderMap{SES: &types.NotifyProviderData{TemplateID: "t"}}},
			"unknown",
			false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := hasProviderConfig(tc.lead, tc.providerName); got != tc.expected {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}
