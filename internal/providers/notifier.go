package providers

import (
	"context"
	"fmt"

	"github.com/cruxstack/receptionist-functions-go/internal/config"
	"github.com/cruxstack/receptionist-functions-go/internal/templates"
	"github.com/cruxstack/receptionist-functions-go/internal/types"
)

// Notifier tells the sales inbox about visitors who started a call.
type Notifier struct {
	Provider           Provider
	SourceAddress      string
	DestinationAddress string
	SESTemplateID      string
	SendGridTemplateID string
	TemplateData       map[string]any
}

// NewNotifier returns nil when lead notification is disabled.
func NewNotifier(cfg *config.Config) (*Notifier, error) {
	if !cfg.AppLeadNotifyEnabled {
		return nil, nil
	}

	data, err := templates.ParseTemplateData(cfg.AppLeadNotifyTemplateData)
	if err != nil {
		return nil, err
	}

	p, err := NewProvider(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create lead notify provider: %w", err)
	}

	return &Notifier{
		Provider:           p,
		SourceAddress:      cfg.AppLeadNotifySrcAddress,
		DestinationAddress: cfg.AppLeadNotifyDstAddress,
		SESTemplateID:      cfg.AppLeadNotifySESTemplateID,
		SendGridTemplateID: cfg.AppLeadNotifySendGridTemplateID,
		TemplateData:       data,
	}, nil
}

func (n *Notifier) Notify(ctx context.Context, customerName, customerEmail, callID string) error {
	msg := &types.LeadNotification{
		DestinationAddress: n.DestinationAddress,
		SourceAddress:      n.SourceAddress,
		CustomerName:       customerName,
		CustomerEmail:      customerEmail,
		CallID:             callID,
		Providers:          &types.NotifyProviderMap{},
	}
	if n.SESTemplateID != "" {
		msg.Providers.SES = &types.NotifyProviderData{
			TemplateID:   n.SESTemplateID,
			TemplateData: templates.CloneTemplateData(n.TemplateData),
		}
	}
	if n.SendGridTemplateID != "" {
		msg.Providers.SendGrid = &types.NotifyProviderData{
			TemplateID:   n.SendGridTemplateID,
			TemplateData: templates.CloneTemplateData(n.TemplateData),
		}
	}

	if !hasProviderConfig(msg, n.Provider.Name()) && n.Provider.Name() != "failover" {
		return fmt.Errorf("no template configured for provider %s", n.Provider.Name())
	}

	return n.Provider.Send(ctx, msg)
}
