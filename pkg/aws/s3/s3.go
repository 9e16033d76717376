// Package s3 is a narrow facade over Amazon S3: key search, object download and presigned URLs.
package s3

import (
	"context"
	"io"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/samber/lo"

	errUtils "github.com/umsi-mads/mads/errors"
	madsaws "github.com/umsi-mads/mads/pkg/aws"
	log "github.com/umsi-mads/mads/pkg/logger"
)

// DefaultPresignTTL is the lifetime of presigned URLs when none is given.
const DefaultPresignTTL = 15 * time.Minute

// API is the subset of the S3 client used here.
type API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// PresignAPI is the subset of the S3 presign client used here.
type PresignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Client wraps the S3 operations builds need.
type Client struct {
	api     API
	presign PresignAPI
}

// New creates a Client from SDK configuration.
func New(cfg awssdk.Config) *Client {
	client := s3.NewFromConfig(cfg)
	return &Client{api: client, presign: s3.NewPresignClient(client)}
}

// NewWithAPI creates a Client over existing implementations.
func NewWithAPI(api API, presign PresignAPI) *Client {
	return &Client{api: api, presign: presign}
}

// FindKeys lists keys under prefix that contain every one of the contains terms.
func (c *Client) FindKeys(ctx context.Context, bucket, prefix string, contains ...string) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: awssdk.String(bucket),
		Prefix: awssdk.String(prefix),
	})

	var keys []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, madsaws.Wrap(err, errUtils.ErrS3ListObjects, "listing s3://%s/%s", bucket, prefix)
		}
		for _, obj := range page.Contents {
			key := awssdk.ToString(obj.Key)
			if lo.EveryBy(contains, func(term string) bool { return strings.Contains(key, term) }) {
				keys = append(keys, key)
			}
		}
	}

	log.Debug("Searched bucket", "bucket", bucket, "prefix", prefix, "contains", contains, "matches", len(keys))
	return keys, nil
}

// FindKey returns the first key FindKeys would, or "" when nothing matches.
func (c *Client) FindKey(ctx context.Context, bucket, prefix string, contains ...string) (string, error) {
	keys, err := c.FindKeys(ctx, bucket, prefix, contains...)
	if err != nil || len(keys) == 0 {
		return "", err
	}
	return keys[0], nil
}

// GetObject downloads an object into memory.
func (c *Client) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{Bucket: awssdk.String(bucket), Key: awssdk.String(key)})
	if err != nil {
		return nil, madsaws.Wrap(err, errUtils.ErrS3GetObject, "getting s3://%s/%s", bucket, key)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, madsaws.Wrap(err, errUtils.ErrS3GetObject, "reading s3://%s/%s", bucket, key)
	}
	return body, nil
}

// PresignGetObject returns a URL that downloads the object until ttl elapses. A zero ttl uses DefaultPresignTTL.
func (c *Client) PresignGetObject(ctx context.Context, bucket, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultPresignTTL
	}
	req, err := c.presign.PresignGetObject(ctx,
		&s3.GetObjectInput{Bucket: awssdk.String(bucket), Key: awssdk.String(key)},
		s3.WithPresignExpires(ttl),
	)
	if err != nil {
		return "", madsaws.Wrap(err, errUtils.ErrS3Presign, "presigning s3://%s/%s", bucket, key)
	}
	return req.URL, nil
}
