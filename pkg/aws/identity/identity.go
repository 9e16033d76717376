package identity

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/service/sts"

	errUtils "github.com/umsi-mads/mads/errors"
	madsaws "github.com/umsi-mads/mads/pkg/aws"
	log "github.com/umsi-mads/mads/pkg/logger"
)

// CallerIdentity holds the information returned by AWS STS GetCallerIdentity.
type CallerIdentity struct {
	Account string
	Arn     string
	UserID  string
	Region  string // The AWS region from the loaded config.
}

// Getter retrieves the caller identity for a region.
//
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -source=$GOFILE -destination=mock_getter_test.go -package=identity
type Getter interface {
	GetCallerIdentity(ctx context.Context, region string) (*CallerIdentity, error)
}

// STSGetter is the production Getter.
type STSGetter struct{}

// GetCallerIdentity calls STS with the default credential chain.
func (STSGetter) GetCallerIdentity(ctx context.Context, region string) (*CallerIdentity, error) {
	cfg, err := madsaws.LoadConfig(ctx, region)
	if err != nil {
		return nil, err
	}

	output, err := sts.NewFromConfig(cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, madsaws.Wrap(err, errUtils.ErrAWSCallerIdentity, "calling sts:GetCallerIdentity")
	}

	result := &CallerIdentity{Region: cfg.Region}
	if output.Account != nil {
		result.Account = *output.Account
	}
	if output.Arn != nil {
		result.Arn = *output.Arn
	}
	if output.UserId != nil {
		result.UserID = *output.UserId
	}

	log.Debug("Retrieved AWS caller identity", "account", result.Account, "arn", result.Arn, "region", result.Region)
	return result, nil
}

type cachedIdentity struct {
	identity *CallerIdentity
	err      error
}

// Cache memoizes identities per region, including failures, so a build makes at most one STS call per region.
type Cache struct {
	getter Getter

	mu      sync.RWMutex
	entries map[string]*cachedIdentity
}

// NewCache wraps getter. A nil getter uses STS.
func NewCache(getter Getter) *Cache {
	if getter == nil {
		getter = STSGetter{}
	}
	return &Cache{getter: getter, entries: map[string]*cachedIdentity{}}
}

// GetCallerIdentity implements Getter.
func (c *Cache) GetCallerIdentity(ctx context.Context, region string) (*CallerIdentity, error) {
	c.mu.RLock()
	if cached, ok := c.entries[region]; ok {
		c.mu.RUnlock()
		return cached.identity, cached.err
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if cached, ok := c.entries[region]; ok {
		return cached.identity, cached.err
	}

	identity, err := c.getter.GetCallerIdentity(ctx, region)
	c.entries[region] = &cachedIdentity{identity: identity, err: err}
	return identity, err
}

// Clear drops every cached identity.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]*cachedIdentity{}
}
