package providers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cruxstack/receptionist-functions-go/internal/config"
	"github.com/cruxstack/receptionist-functions-go/internal/types"
	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

type SendGridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type SendGridProvider struct {
	Client SendGridClient
	DryRun bool
}

func NewSendGridProvider(cfg *config.Config) *SendGridProvider {
	return &SendGridProvider{
		Client: sendgrid.NewSendClient(cfg.SendGridEmailSendApiKey),
		DryRun: !cfg.AppSendEnabled,
	}
}

func (p *SendGridProvider) Name() string {
	return "sendgrid"
}

func (p *SendGridProvider) Send(ctx context.Context, n *types.LeadNotification) error {
	data := MergeTemplateData(n.Providers.SendGrid.TemplateData, leadFields(n))

	if p.DryRun {
		slog.DebugContext(ctx, "dry-run sendgrid send",
			"template_id", n.Providers.SendGrid.TemplateID,
			"template_data", data,
			"src_address", n.SourceAddress,
			"dst_address", n.DestinationAddress,
		)
		return nil
	}

	srcName, srcAddr := ParseNameAddr(n.SourceAddress)
	_, dstAddr := ParseNameAddr(n.DestinationAddress)

	msg := mail.NewV3Mail()
	msg.SetFrom(mail.NewEmail(srcName, srcAddr))
	msg.SetReplyTo(mail.NewEmail(n.CustomerName, n.CustomerEmail))
	msg.SetTemplateID(n.Providers.SendGrid.TemplateID)

	personalization := mail.NewPersonalization()
	personalization.AddTos(mail.NewEmail("", dstAddr))
	for k, v := range data {
		personalization.SetDynamicTemplateData(k, v)
	}
	msg.AddPersonalizations(personalization)

	resp, err := p.Client.SendWithContext(ctx, msg)
	if err != nil {
		return fmt.Errorf("sendgrid api error: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sendgrid send failed: status=%d body=%s", resp.StatusCode, resp.Body)
	}

	return nil
}
