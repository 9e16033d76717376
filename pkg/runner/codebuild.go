package runner

import (
	"strings"

	"github.com/cockroachdb/errors"

	errUtils "github.com/umsi-mads/mads/errors"
)

const (
	arnRegionField  = 3
	arnAccountField = 4
	arnMinFields    = 5
	headsPrefix     = "refs/heads/"
)

// Colloquial names for CodeBuild webhook events.
const (
	EventUpdate = "update"
	EventMerge  = "merge"
	EventPR     = "PR"
	EventManual = "manual"
)

// CodeBuild holds the fields only AWS CodeBuild provides.
type CodeBuild struct {
	Initiator       string
	BuildID         string
	BuildARN        string
	BuildURL        string
	SourceVersion   string
	ResolvedVersion string
	SourceRepoURL   string
	WebhookEvent    string
	WebhookHeadRef  string
	WebhookBaseRef  string
	BuildSucceeding string
}

func (c *CodeBuild) arnField(i int) (string, error) {
	parts := strings.Split(c.BuildARN, ":")
	if len(parts) < arnMinFields || parts[i] == "" {
		return "", errors.Wrapf(errUtils.ErrMalformedARN, "%q", c.BuildARN)
	}
	return parts[i], nil
}

// AccountID returns the AWS account from the build ARN.
func (c *CodeBuild) AccountID() (string, error) {
	return c.arnField(arnAccountField)
}

// Region returns the AWS region from the build ARN.
func (c *CodeBuild) Region() (string, error) {
	return c.arnField(arnRegionField)
}

// HeadRef is the webhook head ref without its refs/heads/ prefix.
func (c *CodeBuild) HeadRef() string {
	return strings.TrimPrefix(c.WebhookHeadRef, headsPrefix)
}

// BaseRef is the webhook base ref without its refs/heads/ prefix.
func (c *CodeBuild) BaseRef() string {
	return strings.TrimPrefix(c.WebhookBaseRef, headsPrefix)
}

// Event maps the webhook event onto update, merge, PR or manual.
func (c *CodeBuild) Event() string {
	switch {
	case c.WebhookEvent == "PUSH", c.WebhookEvent == "PULL_REQUEST_UPDATED":
		return EventUpdate
	case c.WebhookEvent == "PULL_REQUEST_MERGED":
		return EventMerge
	case strings.Contains(c.WebhookEvent, "PULL_REQUEST"):
		return EventPR
	default:
		return EventManual
	}
}

// Branch renders "head -> base" for pull requests, the head ref alone otherwise.
func (c *CodeBuild) Branch() string {
	head, base := c.HeadRef(), c.BaseRef()
	switch {
	case head != "" && base != "":
		return head + " -> " + base
	default:
		return head
	}
}

// Succeeding reports whether CodeBuild considers the build successful so far.
func (c *CodeBuild) Succeeding() bool {
	return c.BuildSucceeding == "1"
}

// CodeBuildVariant detects CodeBuild by the presence of CODEBUILD_BUILD_ID.
func CodeBuildVariant() Variant {
	return Variant{
		Kind:   KindCodeBuild,
		Detect: func(env LookupFunc) bool { return env.Has("CODEBUILD_BUILD_ID") },
		New:    NewCodeBuild,
	}
}

// NewCodeBuild reads a CodeBuild runner from CODEBUILD_* variables.
func NewCodeBuild(env LookupFunc) (*Runner, error) {
	values, err := env.require(KindCodeBuild, "CODEBUILD_SOURCE_REPO_URL", "CODEBUILD_BUILD_ID", "CODEBUILD_SOURCE_VERSION")
	if err != nil {
		return nil, err
	}

	cb := &CodeBuild{
		Initiator:       env.Get("CODEBUILD_INITIATOR"),
		BuildID:         values["CODEBUILD_BUILD_ID"],
		BuildARN:        env.Get("CODEBUILD_BUILD_ARN"),
		BuildURL:        env.Get("CODEBUILD_BUILD_URL"),
		SourceVersion:   values["CODEBUILD_SOURCE_VERSION"],
		ResolvedVersion: env.Get("CODEBUILD_RESOLVED_SOURCE_VERSION"),
		SourceRepoURL:   values["CODEBUILD_SOURCE_REPO_URL"],
		WebhookEvent:    env.Get("CODEBUILD_WEBHOOK_EVENT"),
		WebhookHeadRef:  env.Get("CODEBUILD_WEBHOOK_HEAD_REF"),
		WebhookBaseRef:  env.Get("CODEBUILD_WEBHOOK_BASE_REF"),
		BuildSucceeding: env.Get("CODEBUILD_BUILD_SUCCEEDING"),
	}

	return &Runner{
		Name:      KindCodeBuild,
		Repo:      NormalizeName(cb.SourceRepoURL),
		RunID:     cb.BuildID,
		Ref:       cb.SourceVersion,
		Event:     cb.Event(),
		HeadRef:   NormalizeName(cb.HeadRef()),
		BaseRef:   NormalizeName(cb.BaseRef()),
		CodeBuild: cb,
	}, nil
}
