// Package ecr is a narrow facade over Amazon ECR: registry authorization and image tag listing.
package ecr

import (
	"context"
	"encoding/base64"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ecr"
	"github.com/cockroachdb/errors"

	errUtils "github.com/umsi-mads/mads/errors"
	madsaws "github.com/umsi-mads/mads/pkg/aws"
	log "github.com/umsi-mads/mads/pkg/logger"
)

// Supports ecr and ecr-fips across partitions (incl. .cn).
var registryRe = regexp.MustCompile(`^(?P<acct>\d{12})\.dkr\.(?P<svc>ecr(?:-fips)?)\.(?P<region>[a-z0-9-]+)\.amazonaws\.com(?:\.cn)?$`)

// API is the subset of the ECR client used here.
type API interface {
	GetAuthorizationToken(ctx context.Context, params *ecr.GetAuthorizationTokenInput, optFns ...func(*ecr.Options)) (*ecr.GetAuthorizationTokenOutput, error)
	DescribeImages(ctx context.Context, params *ecr.DescribeImagesInput, optFns ...func(*ecr.Options)) (*ecr.DescribeImagesOutput, error)
}

// Client exposes authorization tokens and image tags.
type Client struct {
	api API
}

// New creates a Client from SDK configuration.
func New(cfg awssdk.Config) *Client {
	return &Client{api: ecr.NewFromConfig(cfg)}
}

// NewWithAPI creates a Client over an existing API implementation.
func NewWithAPI(api API) *Client {
	return &Client{api: api}
}

// Credentials are docker login credentials for one registry.
type Credentials struct {
	Username  string
	Password  string
	Endpoint  string
	ExpiresAt time.Time
}

// AuthorizationToken fetches and decodes a registry token. registryIDs selects accounts; none means the caller's.
func (c *Client) AuthorizationToken(ctx context.Context, registryIDs ...string) (Credentials, error) {
	out, err := c.api.GetAuthorizationToken(ctx, &ecr.GetAuthorizationTokenInput{RegistryIds: registryIDs})
	if err != nil {
		return Credentials{}, madsaws.Wrap(err, errUtils.ErrECRAuthFailed, "calling ecr:GetAuthorizationToken")
	}
	if len(out.AuthorizationData) == 0 {
		return Credentials{}, errUtils.ErrECRNoAuthData
	}

	data := out.AuthorizationData[0]
	token := awssdk.ToString(data.AuthorizationToken)
	if token == "" {
		return Credentials{}, errors.Wrap(errUtils.ErrECRInvalidToken, "empty token")
	}
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return Credentials{}, errUtils.Mark(errors.Wrap(err, "decoding token"), errUtils.ErrECRInvalidToken)
	}

	user, pass, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return Credentials{}, errUtils.ErrECRInvalidToken
	}

	creds := Credentials{
		Username: user,
		Password: pass,
		Endpoint: awssdk.ToString(data.ProxyEndpoint),
	}
	if data.ExpiresAt != nil {
		creds.ExpiresAt = *data.ExpiresAt
	}
	log.Debug("Obtained ECR credentials", "endpoint", creds.Endpoint, "expires", creds.ExpiresAt)
	return creds, nil
}

// ImageTags lists every tag in repository, sorted.
func (c *Client) ImageTags(ctx context.Context, repository string) ([]string, error) {
	paginator := ecr.NewDescribeImagesPaginator(c.api, &ecr.DescribeImagesInput{RepositoryName: awssdk.String(repository)})

	var tags []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, madsaws.Wrap(err, errUtils.ErrECRDescribeImages, "describing images in %s", repository)
		}
		for _, image := range page.ImageDetails {
			tags = append(tags, image.ImageTags...)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// RegistryHost returns the ECR registry hostname for an account and region.
func RegistryHost(accountID, region string) string {
	return fmt.Sprintf("%s.dkr.ecr.%s.amazonaws.com", accountID, region)
}

// ParseRegistryHost extracts the account and region from an ECR registry hostname.
func ParseRegistryHost(host string) (accountID, region string, err error) {
	m := registryRe.FindStringSubmatch(host)
	if m == nil {
		return "", "", errors.Wrapf(errUtils.ErrInvalidImageReference, "not an ECR registry: %s", host)
	}
	return m[registryRe.SubexpIndex("acct")], m[registryRe.SubexpIndex("region")], nil
}
