// Package secrets reads string secrets from AWS Secrets Manager.
package secrets

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/cockroachdb/errors"

	errUtils "github.com/umsi-mads/mads/errors"
	madsaws "github.com/umsi-mads/mads/pkg/aws"
)

// API is the subset of the Secrets Manager client used here.
type API interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Client reads secrets.
type Client struct {
	api API
}

// New creates a Client from SDK configuration.
func New(cfg awssdk.Config) *Client {
	return &Client{api: secretsmanager.NewFromConfig(cfg)}
}

// NewWithAPI creates a Client over an existing API implementation.
func NewWithAPI(api API) *Client {
	return &Client{api: api}
}

// SecretString returns the current string value of the secret.
func (c *Client) SecretString(ctx context.Context, secretID string) (string, error) {
	out, err := c.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{SecretId: awssdk.String(secretID)})
	if err != nil {
		return "", madsaws.Wrap(err, errUtils.ErrSecretNotFound, "reading secret %s", secretID)
	}
	if out.SecretString == nil {
		return "", errors.Wrapf(errUtils.ErrSecretNotFound, "secret %s has no string value", secretID)
	}
	return *out.SecretString, nil
}
