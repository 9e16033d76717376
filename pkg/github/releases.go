package github

import (
	"context"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/go-github/v59/github"

	errUtils "github.com/umsi-mads/mads/errors"
	log "github.com/umsi-mads/mads/pkg/logger"
)

const maxPerPage = 100

// ReleasesOptions filters ListReleases.
type ReleasesOptions struct {
	Limit              int
	IncludePrereleases bool
	Since              *time.Time
}

// ListReleases returns published releases newest first. Drafts are never included.
func ListReleases(ctx context.Context, client *github.Client, owner, repo string, opts ReleasesOptions) ([]*github.RepositoryRelease, error) {
	log.Debug("Fetching releases", "owner", owner, "repo", repo, "limit", opts.Limit, "prereleases", opts.IncludePrereleases)

	var releases []*github.RepositoryRelease
	list := &github.ListOptions{PerPage: maxPerPage}
	for {
		page, resp, err := client.Repositories.ListReleases(ctx, owner, repo, list)
		if err != nil {
			return nil, releaseError(err, resp, owner, repo)
		}

		for _, release := range page {
			if keepRelease(release, opts) {
				releases = append(releases, release)
			}
		}
		if (opts.Limit > 0 && len(releases) >= opts.Limit) || resp.NextPage == 0 {
			break
		}
		list.Page = resp.NextPage
	}

	if opts.Limit > 0 && len(releases) > opts.Limit {
		releases = releases[:opts.Limit]
	}
	return releases, nil
}

func keepRelease(release *github.RepositoryRelease, opts ReleasesOptions) bool {
	if release.GetDraft() {
		return false
	}
	if release.GetPrerelease() && !opts.IncludePrereleases {
		return false
	}
	if opts.Since != nil && release.GetPublishedAt().Time.Before(*opts.Since) {
		return false
	}
	return true
}

// LatestRelease returns the tag of the newest release. Prereleases count only when asked for.
func LatestRelease(ctx context.Context, client *github.Client, owner, repo string, includePrereleases bool) (string, error) {
	if !includePrereleases {
		release, resp, err := client.Repositories.GetLatestRelease(ctx, owner, repo)
		if err != nil {
			return "", releaseError(err, resp, owner, repo)
		}
		return release.GetTagName(), nil
	}

	releases, err := ListReleases(ctx, client, owner, repo, ReleasesOptions{Limit: 1, IncludePrereleases: true})
	if err != nil {
		return "", err
	}
	if len(releases) == 0 {
		return "", errUtils.Build(errors.Wrapf(errUtils.ErrNoRelease, "%s/%s", owner, repo)).
			WithHint("Publish a release or install from a branch with --branch").
			Err()
	}
	return releases[0].GetTagName(), nil
}

func releaseError(err error, resp *github.Response, owner, repo string) error {
	if resp != nil && resp.StatusCode == http.StatusNotFound {
		return errUtils.Build(errors.Wrapf(err, "%s/%s", owner, repo)).
			WithSentinel(errUtils.ErrNoRelease).
			WithHint("Private repositories need GitHub app credentials or GITHUB_TOKEN").
			Err()
	}
	return errUtils.Mark(errors.Wrapf(err, "listing releases of %s/%s", owner, repo), errUtils.ErrFetchRelease)
}
