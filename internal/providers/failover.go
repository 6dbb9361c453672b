package providers

import (
	"context"
	"log/slog"

	"github.com/cruxstack/receptionist-functions-go/internal/types"
)

// FailoverProvider tries each provider in order until one sends the
// notification. Unhealthy providers and providers without a template are
// skipped.
type FailoverProvider struct {
	providers []Provider
}

func NewFailoverProvider(providers []Provider) *FailoverProvider {
	return &FailoverProvider{
		providers: providers,
	}
}

func (f *FailoverProvider) Name() string {
	return "failover"
}

// Send never returns an error: a lost lead notification is logged and must
// not fail the visitor's call.
func (f *FailoverProvider) Send(ctx context.Context, n *types.LeadNotification) error {
	var lastErr error

	for _, p := range f.providers {
		name := p.Name()

		if !hasProviderConfig(n, name) {
			slog.WarnContext(ctx, "provider missing template config, skipping", "provider", name)
			continue
		}

		if hc, ok := p.(HealthChecker); ok && !hc.IsHealthy(ctx) {
			slog.WarnContext(ctx, "provider unhealthy, skipping", "provider", name)
			continue
		}

		err := p.Send(ctx, n)
		if err == nil {
			slog.InfoContext(ctx, "lead notification sent", "provider", name)
			return nil
		}

		slog.WarnContext(ctx, "provider send failed, trying next",
			"provider", name,
			"error", err,
		)
		lastErr = err
	}

	if lastErr != nil {
		slog.WarnContext(ctx, "all providers failed to send lead notification",
			"last_error", lastErr,
			"destination", n.DestinationAddress,
		)
	} else {
		slog.WarnContext(ctx, "no providers available to send lead notification",
			"destination", n.DestinationAddress,
		)
	}

	return nil
}

func hasProviderConfig(n *types.LeadNotification, providerName string) bool {
	if n.Providers == nil {
		return false
	}

	switch providerName {
	case "ses":
		return n.Providers.SES != nil && n.Providers.SES.TemplateID != ""
	case "sendgrid":
		return n.Providers.SendGrid != nil && n.Providers.SendGrid.TemplateID != ""
	default:
		return false
	}
}
