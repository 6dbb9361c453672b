package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	awstypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/cruxstack/receptionist-functions-go/internal/types"
)

type SESAPI interface {
	SendTemplatedEmail(ctx context.Context, params *ses.SendTemplatedEmailInput, optFns ...func(*ses.Options)) (*ses.SendTemplatedEmailOutput, error)
}

type SESProvider struct {
	Client SESAPI
	DryRun bool
	Health HealthChecker
}

func NewSESProvider(client SESAPI, dryRun bool) *SESProvider {
	return &SESProvider{
		Client: client,
		DryRun: dryRun,
	}
}

func (p *SESProvider) Name() string {
	return "ses"
}

func (p *SESProvider) IsHealthy(ctx context.Context) bool {
	if p.Health == nil {
		return true
	}
	return p.Health.IsHealthy(ctx)
}

func (p *SESProvider) Send(ctx context.Context, n *types.LeadNotification) error {
	data := MergeTemplateData(n.Providers.SES.TemplateData, leadFields(n))

	dataJSON, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("error marshaling template data: %w", err)
	}

	if p.DryRun {
		slog.DebugContext(ctx, "dry-run ses send",
			"template_id", n.Providers.SES.TemplateID,
			"template_data", string(dataJSON),
			"src_address", n.SourceAddress,
			"dst_address", n.DestinationAddress,
		)
		return nil
	}

	_, err = p.Client.SendTemplatedEmail(ctx, &ses.SendTemplatedEmailInput{
		Source:           awssdk.String(n.SourceAddress),
		Template:         awssdk.String(n.Providers.SES.TemplateID),
		TemplateData:     awssdk.String(string(dataJSON)),
		Destination:      &awstypes.Destination{ToAddresses: []string{n.DestinationAddress}},
		ReplyToAddresses: []string{n.CustomerEmail},
	})
	if err != nil {
		return fmt.Errorf("error sending templated email: %w", err)
	}

	return nil
}

func leadFields(n *types.LeadNotification) map[string]any {
	return map[string]any{
		"customerName":  n.CustomerName,
		"customerEmail": n.CustomerEmail,
		"callId":        n.CallID,
	}
}
