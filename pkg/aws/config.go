// Package aws loads SDK configuration shared by the ECR, S3, Secrets Manager and SES facades.
package aws

import (
	"context"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/smithy-go"
	"github.com/cockroachdb/errors"

	errUtils "github.com/umsi-mads/mads/errors"
	log "github.com/umsi-mads/mads/pkg/logger"
)

// LoadConfig resolves credentials the standard SDK way. An empty region defers to the
// environment and shared config.
func LoadConfig(ctx context.Context, region string) (awssdk.Config, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		log.Debug("Using explicit region", "region", region)
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return awssdk.Config{}, errUtils.Build(errors.Wrap(err, "resolving AWS credentials")).
			WithSentinel(errUtils.ErrLoadAWSConfig).
			WithHint("Check AWS_PROFILE, AWS_REGION or the build role attached to the runner").
			Err()
	}
	return cfg, nil
}

// ErrorCode returns the service error code carried by err, or "" for non-API errors.
func ErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// Wrap marks err with sentinel and attaches the service error code as context.
func Wrap(err error, sentinel error, format string, args ...any) error {
	builder := errUtils.Build(errors.Wrapf(err, format, args...)).WithSentinel(sentinel)
	if code := ErrorCode(err); code != "" {
		builder = builder.WithContext("aws_error", code)
	}
	return builder.Err()
}
