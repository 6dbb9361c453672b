// Package secrets resolves API keys that may be stored encrypted in the
// function environment.
package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/cruxstack/receptionist-functions-go/internal/config"
)

type Decrypter interface {
	Decrypt(ctx context.Context, value string) (string, error)
}

// PlainDecrypter returns values unchanged.
type PlainDecrypter struct{}

func (PlainDecrypter) Decrypt(ctx context.Context, value string) (string, error) {
	return value, nil
}

func New(cfg *config.Config) (Decrypter, error) {
	switch cfg.AppSecretsMode {
	case config.SecretsModePlain, "":
		return PlainDecrypter{}, nil
	case config.SecretsModeKMS:
		if cfg.AWSConfig == nil {
			return nil, fmt.Errorf("aws config is required for kms secrets")
		}
		return NewKMSDecrypter(kms.NewFromConfig(*cfg.AWSConfig), cfg.AppKmsKeyId), nil
	case config.SecretsModeEnvelope:
		return NewEnvelopeDecrypter(cfg.AppKmsKeyId), nil
	default:
		return nil, fmt.Errorf("unknown secrets mode: %s", cfg.AppSecretsMode)
	}
}

// VoiceServerKey returns the decrypted voice server key.
func VoiceServerKey(ctx context.Context, cfg *config.Config) (string, error) {
	d, err := New(cfg)
	if err != nil {
		return "", err
	}

	key, err := d.Decrypt(ctx, cfg.VoiceServerKey)
	if err != nil {
		return "", fmt.Errorf("failed to decrypt voice server key: %w", err)
	}

	return key, nil
}
