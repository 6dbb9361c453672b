package secrets

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/chainifynet/aws-encryption-sdk-go/pkg/client"
	"github.com/chainifynet/aws-encryption-sdk-go/pkg/clientconfig"
	"github.com/chainifynet/aws-encryption-sdk-go/pkg/materials"
	"github.com/chainifynet/aws-encryption-sdk-go/pkg/providers/kmsprovider"
	"github.com/chainifynet/aws-encryption-sdk-go/pkg/suite"
)

// EnvelopeDecrypter decrypts base64 messages produced by the AWS Encryption SDK.
type EnvelopeDecrypter struct {
	KeyID string
}

func NewEnvelopeDecrypter(keyID string) *EnvelopeDecrypter {
	return &EnvelopeDecrypter{KeyID: keyID}
}

func (d *EnvelopeDecrypter) Decrypt(ctx context.Context, value string) (string, error) {
	if value == "" {
		return "", nil
	}

	cipherText, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", err
	}

	cfg, err := clientconfig.NewConfigWithOpts(
		clientconfig.WithCommitmentPolicy(suite.CommitmentPolicyForbidEncryptAllowDecrypt),
	)
	if err != nil {
		return "", fmt.Errorf("client config setup failed: %w", err)
	}
	c := client.NewClientWithConfig(cfg)

	kmsKeyProvider, err := kmsprovider.New(d.KeyID)
	if err != nil {
		return "", fmt.Errorf("kms key provider setup failed: %w", err)
	}

	cmm, err := materials.NewDefault(kmsKeyProvider)
	if err != nil {
		return "", fmt.Errorf("materials manager setup failed: %w", err)
	}

	plaintext, _, err := c.Decrypt(ctx, cipherText, cmm)
	if err != nil {
		return "", fmt.Errorf("decryption failed: %w", err)
	}

	return string(plaintext), nil
}
