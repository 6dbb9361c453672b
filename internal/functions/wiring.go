package functions

import (
	"context"
	"fmt"

	"github.com/cruxstack/receptionist-functions-go/internal/config"
	"github.com/cruxstack/receptionist-functions-go/internal/leadform"
	"github.com/cruxstack/receptionist-functions-go/internal/opa"
	"github.com/cruxstack/receptionist-functions-go/internal/prefilter"
	"github.com/cruxstack/receptionist-functions-go/internal/providers"
	"github.com/cruxstack/receptionist-functions-go/internal/secrets"
	"github.com/cruxstack/receptionist-functions-go/internal/verifier"
	"github.com/cruxstack/receptionist-functions-go/internal/voice"
)

func NewValidateEmailFromConfig(cfg *config.Config) (*ValidateEmailHandler, error) {
	r, err := verifier.NewResolver(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create dns resolver: %w", err)
	}
	return NewValidateEmailHandler(verifier.NewMXVerifier(r)), nil
}

func NewGetTokenFromConfig(ctx context.Context, cfg *config.Config) (*GetTokenHandler, error) {
	client, err := newVoiceClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &GetTokenHandler{
		Voice:       client,
		AssistantID: cfg.VoiceAssistantID,
		TTL:         cfg.VoiceTokenTTL,
	}, nil
}

func NewStartCallFromConfig(ctx context.Context, cfg *config.Config) (*StartCallHandler, error) {
	client, err := newVoiceClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	pf, err := NewPrefilter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	h := &StartCallHandler{
		Voice:       client,
		AssistantID: cfg.VoiceAssistantID,
		Form:        &leadform.Validator{Prefilter: pf, RequireTerms: cfg.AppRequireTerms},
	}

	n, err := providers.NewNotifier(cfg)
	if err != nil {
		return nil, err
	}
	if n != nil {
		h.Notifier = n
	}

	return h, nil
}

// NewPrefilter builds the form prefilter. In production it delegates to the
// deployed validate-email endpoint when one is configured, otherwise to an
// in-process MX check.
func NewPrefilter(ctx context.Context, cfg *config.Config) (*prefilter.Prefilter, error) {
	var remote verifier.EmailVerifier
	if !cfg.IsLocal() {
		if cfg.AppEmailValidationURL != "" {
			remote = verifier.NewRemoteVerifier(cfg.AppEmailValidationURL)
		} else {
			r, err := verifier.NewResolver(cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to create dns resolver: %w", err)
			}
			remote = verifier.NewMXVerifier(r)
		}
	}

	pf := prefilter.New(cfg.IsLocal(), remote, nil)
	if cfg.AppEmailPolicyPath != "" {
		policy, err := opa.LoadDomainPolicy(ctx, cfg.AppEmailPolicyPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load email domain policy: %w", err)
		}
		pf.Policy = policy
	}

	return pf, nil
}

func newVoiceClient(ctx context.Context, cfg *config.Config) (*voice.Client, error) {
	if err := cfg.ValidateVoice(); err != nil {
		return nil, err
	}
	key, err := secrets.VoiceServerKey(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return voice.NewClient(cfg, key), nil
}
