package providers

import (
	"context"
	"fmt"
	"net/mail"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/cruxstack/receptionist-functions-go/internal/config"
	"github.com/cruxstack/receptionist-functions-go/internal/types"
)

type Provider interface {
	Name() string
	Send(ctx context.Context, n *types.LeadNotification) error
}

// NewProvider builds the configured provider, wrapped in a failover chain
// when failover providers are configured.
func NewProvider(cfg *config.Config) (Provider, error) {
	names := cfg.LeadNotifyProviders()
	chain := make([]Provider, 0, len(names))
	for _, name := range names {
		p, err := newNamedProvider(cfg, name)
		if err != nil {
			return nil, err
		}
		chain = append(chain, p)
	}

	if len(chain) == 1 {
		return chain[0], nil
	}
	return NewFailoverProvider(chain), nil
}

func newNamedProvider(cfg *config.Config, name string) (Provider, error) {
	switch name {
	case "ses":
		if cfg.AWSConfig == nil {
			return nil, fmt.Errorf("aws config is required for ses provider")
		}
		p := NewSESProvider(ses.NewFromConfig(*cfg.AWSConfig), !cfg.AppSendEnabled)
		if len(cfg.AppLeadNotifyFailoverProviders) > 0 {
			p.Health = NewSESHealthChecker(sesv2.NewFromConfig(*cfg.AWSConfig), cfg.AppLeadNotifyCacheTTL)
		}
		return p, nil
	case "sendgrid":
		return NewSendGridProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unknown lead notify provider: %s", name)
	}
}

// MergeTemplateData copies additional into base, overwriting existing keys.
func MergeTemplateData(base, additional map[string]any) map[string]any {
	if base == nil {
		base = make(map[string]any, len(additional))
	}
	for k, v := range additional {
		base[k] = v
	}
	return base
}

// ParseNameAddr splits "Name <addr>" into its parts. Unparseable input is
// returned as the address.
func ParseNameAddr(s string) (string, string) {
	a, err := mail.ParseAddress(s)
	if err != nil {
		return "", s
	}
	return a.Name, a.Address
}
