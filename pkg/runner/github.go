package runner

import (
	"fmt"
	"strings"
)

const (
	defaultGitHubServerURL = "https://github.com"
	defaultRunAttempt      = "1"
)

// GitHub holds the fields only GitHub Actions provides.
type GitHub struct {
	Actor           string
	Repository      string
	RepositoryOwner string
	ServerURL       string
	RunAttempt      string
	SHA             string
	Workflow        string
}

// URL points at the web page of the run attempt.
func (g *GitHub) URL(runID string) string {
	server := g.ServerURL
	if server == "" {
		server = defaultGitHubServerURL
	}
	attempt := g.RunAttempt
	if attempt == "" {
		attempt = defaultRunAttempt
	}
	return fmt.Sprintf("%s/%s/actions/runs/%s/attempts/%s", strings.TrimSuffix(server, "/"), g.Repository, runID, attempt)
}

// Owner returns the repository owner, falling back to the owner part of GITHUB_REPOSITORY.
func (g *GitHub) Owner() string {
	if g.RepositoryOwner != "" {
		return g.RepositoryOwner
	}
	owner, _, _ := strings.Cut(g.Repository, "/")
	return owner
}

// GitHubVariant detects GitHub Actions by the presence of GITHUB_ACTIONS.
func GitHubVariant() Variant {
	return Variant{
		Kind:   KindGitHub,
		Detect: func(env LookupFunc) bool { return env.Has("GITHUB_ACTIONS") },
		New:    NewGitHub,
	}
}

// NewGitHub reads a GitHub Actions runner from GITHUB_* variables.
func NewGitHub(env LookupFunc) (*Runner, error) {
	values, err := env.require(KindGitHub, "GITHUB_REPOSITORY", "GITHUB_RUN_ID", "GITHUB_REF_NAME", "GITHUB_EVENT_NAME")
	if err != nil {
		return nil, err
	}

	return &Runner{
		Name:    KindGitHub,
		Repo:    NormalizeName(values["GITHUB_REPOSITORY"]),
		RunID:   values["GITHUB_RUN_ID"],
		Ref:     values["GITHUB_REF_NAME"],
		Event:   values["GITHUB_EVENT_NAME"],
		HeadRef: NormalizeName(env.Get("GITHUB_HEAD_REF")),
		BaseRef: NormalizeName(env.Get("GITHUB_BASE_REF")),
		GitHub: &GitHub{
			Actor:           env.Get("GITHUB_ACTOR"),
			Repository:      values["GITHUB_REPOSITORY"],
			RepositoryOwner: env.Get("GITHUB_REPOSITORY_OWNER"),
			ServerURL:       env.Get("GITHUB_SERVER_URL"),
			RunAttempt:      env.Get("GITHUB_RUN_ATTEMPT"),
			SHA:             env.Get("GITHUB_SHA"),
			Workflow:        env.Get("GITHUB_WORKFLOW"),
		},
	}, nil
}
