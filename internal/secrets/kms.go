package secrets

import (
	"context"
	"encoding/base64"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

type KMSAPI interface {
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// KMSDecrypter decrypts base64 ciphertext produced by a direct kms:Encrypt call.
type KMSDecrypter struct {
	Client KMSAPI
	KeyID  string
}

func NewKMSDecrypter(client KMSAPI, keyID string) *KMSDecrypter {
	return &KMSDecrypter{Client: client, KeyID: keyID}
}

func (d *KMSDecrypter) Decrypt(ctx context.Context, value string) (string, error) {
	if value == "" {
		return "", nil
	}

	blob, err := base64.StdEncoding.DecodeString(value)
	if err != nil {
		return "", err
	}

	out, err := d.Client.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob: blob,
		KeyId:          aws.String(d.KeyID),
	})
	if err != nil {
		return "", err
	}

	return string(out.Plaintext), nil
}
