package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/go-github/v59/github"
	giturl "github.com/kubescape/go-git-url"

	errUtils "github.com/umsi-mads/mads/errors"
	log "github.com/umsi-mads/mads/pkg/logger"
	"github.com/umsi-mads/mads/pkg/runner"
)

// CheckState is a commit status state. Finished resolves to success or failure.
type CheckState string

const (
	StatePending  CheckState = "pending"
	StateSuccess  CheckState = "success"
	StateFailure  CheckState = "failure"
	StateError    CheckState = "error"
	StateFinished CheckState = "finished"
)

// DefaultStatusContext labels statuses created without a context.
const DefaultStatusContext = "Build"

var statusMessages = map[CheckState]string{
	StatePending: "⏳ Build started for project %s",
	StateSuccess: "✅ Build succeeded for project %s",
	StateFailure: "❌ Build failed for project %s",
	StateError:   "⚠️ Build errored for project %s",
}

// ParseCheckState validates a state name.
func ParseCheckState(s string) (CheckState, error) {
	state := CheckState(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := statusMessages[state]; ok || state == StateFinished {
		return state, nil
	}
	return "", errUtils.Build(errors.Wrapf(errUtils.ErrInvalidCheckState, "%q", s)).
		WithHint("Use one of pending, success, failure, error or finished").
		WithExample("mads github commit-status finished --context Build").
		Usage().
		Err()
}

// Resolve turns finished into success or failure.
func (s CheckState) Resolve(succeeding bool) CheckState {
	if s != StateFinished {
		return s
	}
	if succeeding {
		return StateSuccess
	}
	return StateFailure
}

// Target is the commit a status is attached to.
type Target struct {
	Owner string
	Repo  string
	SHA   string
	URL   string
}

// TargetFromRunner locates the commit under build.
func TargetFromRunner(r *runner.Runner) (Target, error) {
	var target Target
	switch {
	case r.CodeBuild != nil:
		owner, repo, err := splitRemote(r.CodeBuild.SourceRepoURL)
		if err != nil {
			return Target{}, err
		}
		target = Target{Owner: owner, Repo: repo, SHA: r.CodeBuild.ResolvedVersion, URL: r.CodeBuild.BuildURL}
	case r.GitHub != nil:
		owner, repo, _ := strings.Cut(r.GitHub.Repository, "/")
		target = Target{Owner: owner, Repo: repo, SHA: r.GitHub.SHA, URL: r.GitHub.URL(r.RunID)}
	default:
		return Target{}, errors.Wrapf(errUtils.ErrStatusTargetUnavailable, "runner %s", r.Name)
	}

	if target.Owner == "" || target.Repo == "" || target.SHA == "" {
		return Target{}, errUtils.Build(errUtils.ErrStatusTargetUnavailable).
			WithContext("owner", target.Owner).
			WithContext("repo", target.Repo).
			WithContext("sha", target.SHA).
			Err()
	}
	return target, nil
}

func splitRemote(remote string) (owner, repo string, err error) {
	u, err := giturl.NewGitURL(remote)
	if err != nil {
		return "", "", errUtils.Mark(errors.Wrapf(err, "parsing %s", remote), errUtils.ErrStatusTargetUnavailable)
	}
	return u.GetOwnerName(), strings.TrimSuffix(u.GetRepoName(), ".git"), nil
}

// StatusOptions describe one commit status.
type StatusOptions struct {
	State       CheckState
	Context     string
	Description string
	// Succeeding resolves a finished state.
	Succeeding bool
}

// CreateCommitStatus posts a status for target.
func CreateCommitStatus(ctx context.Context, client *github.Client, target Target, opts StatusOptions) (*github.RepoStatus, error) {
	state := opts.State.Resolve(opts.Succeeding)
	message, ok := statusMessages[state]
	if !ok {
		return nil, errors.Wrapf(errUtils.ErrInvalidCheckState, "%q", opts.State)
	}

	label := opts.Context
	if label == "" {
		label = DefaultStatusContext
	}
	description := opts.Description
	if description == "" {
		description = fmt.Sprintf(message, target.Repo)
	}

	status := &github.RepoStatus{
		State:       github.String(string(state)),
		Context:     github.String(label),
		Description: github.String(description),
	}
	if target.URL != "" {
		status.TargetURL = github.String(target.URL)
	}

	created, _, err := client.Repositories.CreateStatus(ctx, target.Owner, target.Repo, target.SHA, status)
	if err != nil {
		log.Error("Failed to create commit status", "context", label, "state", state, "description", description)
		return nil, errUtils.Build(errors.Wrap(err, "creating commit status")).
			WithSentinel(errUtils.ErrCreateCommitStatus).
			WithContext("repo", target.Owner+"/"+target.Repo).
			WithContext("sha", target.SHA).
			Err()
	}

	log.Info(fmt.Sprintf("Created commit status: [%s] %s -- %s", label, state, description))
	return created, nil
}
