package providers

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
)

type SESAccountAPI interface {
	GetAccount(ctx context.Context, params *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
}

// SESHealthChecker reports SES as unhealthy while account sending is paused,
// so lead notifications fail over without waiting for a rejected send.
type SESHealthChecker struct {
	*CachedProbe
}

func NewSESHealthChecker(client SESAccountAPI, cacheTTL time.Duration) *SESHealthChecker {
	return &SESHealthChecker{
		CachedProbe: NewCachedProbe(cacheTTL, func(ctx context.Context) bool {
			return sesSendingEnabled(ctx, client)
		}),
	}
}

func sesSendingEnabled(ctx context.Context, client SESAccountAPI) bool {
	account, err := client.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		slog.WarnContext(ctx, "ses account lookup failed, treating as unhealthy", "error", err)
		return false
	}
	if account.SendingEnabled {
		return true
	}

	slog.WarnContext(ctx, "ses sending paused for account",
		"enforcement_status", aws.ToString(account.EnforcementStatus),
		"production_access", account.ProductionAccessEnabled,
	)
	return false
}
