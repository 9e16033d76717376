package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/umsi-mads/mads/errors"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"", ""},
		{"   ", ""},
		{"mads-cli", "mads-cli"},
		{"umsi-mads/mads-cli", "mads-cli"},
		{"https://github.com/umsi-mads/mads-cli.git", "mads-cli"},
		{"git@github.com:umsi-mads/mads-cli.git", "mads-cli"},
		{"my.github.io", "my.github.io"},
		{"refs/heads/main", "main"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.input))
		})
	}
}

func TestNewGitHub(t *testing.T) {
	env := MapEnv(map[string]string{
		"GITHUB_ACTIONS":    "true",
		"GITHUB_RUN_ID":     "123",
		"GITHUB_REPOSITORY": "umsi-mads/mads-cli",
		"GITHUB_REF_NAME":   "main",
		"GITHUB_EVENT_NAME": "push",
		"GITHUB_SHA":        "0123456789abcdef",
	})

	r, err := NewGitHub(env)
	require.NoError(t, err)

	assert.Equal(t, KindGitHub, r.Name)
	assert.Equal(t, "123", r.RunID)
	assert.Equal(t, "mads-cli", r.Repo)
	assert.Equal(t, "main", r.Ref)
	assert.Equal(t, "push", r.Event)
	assert.Empty(t, r.HeadRef)
	assert.Empty(t, r.BaseRef)
	require.NotNil(t, r.GitHub)
	assert.Nil(t, r.CodeBuild)
	assert.Equal(t, "umsi-mads", r.GitHub.Owner())
	assert.Equal(t, "https://github.com/umsi-mads/mads-cli/actions/runs/123/attempts/1", r.GitHub.URL(r.RunID))
	assert.Equal(t, "main", r.Branch())
}

func TestGitHub_URL(t *testing.T) {
	g := &GitHub{Repository: "umsi-mads/mads-cli", ServerURL: "https://ghe.example.com/", RunAttempt: "3"}
	assert.Equal(t, "https://ghe.example.com/umsi-mads/mads-cli/actions/runs/9/attempts/3", g.URL("9"))
}

func TestNewGitHub_PullRequestRefs(t *testing.T) {
	r, err := NewGitHub(MapEnv(map[string]string{
		"GITHUB_RUN_ID":     "1",
		"GITHUB_REPOSITORY": "umsi-mads/mads-cli",
		"GITHUB_REF_NAME":   "42/merge",
		"GITHUB_EVENT_NAME": "pull_request",
		"GITHUB_HEAD_REF":   "feature/login",
		"GITHUB_BASE_REF":   "main",
	}))
	require.NoError(t, err)

	assert.Equal(t, "login", r.HeadRef)
	assert.Equal(t, "main", r.BaseRef)
}

func TestNewGitHub_MissingVariables(t *testing.T) {
	_, err := NewGitHub(MapEnv(map[string]string{"GITHUB_ACTIONS": "true", "GITHUB_RUN_ID": ""}))

	require.ErrorIs(t, err, errUtils.ErrMissingRunnerEnv)
	assert.Contains(t, err.Error(), "GITHUB_EVENT_NAME, GITHUB_REF_NAME, GITHUB_REPOSITORY, GITHUB_RUN_ID")
	assert.Equal(t, 2, errUtils.GetExitCode(err))
}

func codeBuildEnv() map[string]string {
	return map[string]string{
		"CODEBUILD_BUILD_ID":                "mads:1234",
		"CODEBUILD_BUILD_ARN":               "arn:aws:codebuild:us-east-2:123456789012:build/mads:1234",
		"CODEBUILD_SOURCE_REPO_URL":         "https://github.com/umsi-mads/mads-cli.git",
		"CODEBUILD_SOURCE_VERSION":          "pr/42",
		"CODEBUILD_RESOLVED_SOURCE_VERSION": "0123456789abcdef",
		"CODEBUILD_WEBHOOK_EVENT":           "PULL_REQUEST_CREATED",
		"CODEBUILD_WEBHOOK_HEAD_REF":        "refs/heads/feature/login",
		"CODEBUILD_WEBHOOK_BASE_REF":        "refs/heads/main",
	}
}

func TestNewCodeBuild(t *testing.T) {
	r, err := NewCodeBuild(MapEnv(codeBuildEnv()))
	require.NoError(t, err)

	assert.Equal(t, KindCodeBuild, r.Name)
	assert.Equal(t, "mads-cli", r.Repo)
	assert.Equal(t, "mads:1234", r.RunID)
	assert.Equal(t, "pr/42", r.Ref)
	assert.Equal(t, EventPR, r.Event)
	assert.Equal(t, "login", r.HeadRef)
	assert.Equal(t, "main", r.BaseRef)
	require.NotNil(t, r.CodeBuild)
	assert.Equal(t, "feature/login -> main", r.Branch())

	account, err := r.CodeBuild.AccountID()
	require.NoError(t, err)
	assert.Equal(t, "123456789012", account)

	region, err := r.CodeBuild.Region()
	require.NoError(t, err)
	assert.Equal(t, "us-east-2", region)
}

func TestCodeBuild_Event(t *testing.T) {
	tests := []struct {
		event string
		want  string
	}{
		{"PUSH", EventUpdate},
		{"PULL_REQUEST_UPDATED", EventUpdate},
		{"PULL_REQUEST_MERGED", EventMerge},
		{"PULL_REQUEST_CREATED", EventPR},
		{"PULL_REQUEST_REOPENED", EventPR},
		{"", EventManual},
		{"RELEASED", EventManual},
	}

	for _, tt := range tests {
		t.Run(tt.event, func(t *testing.T) {
			assert.Equal(t, tt.want, (&CodeBuild{WebhookEvent: tt.event}).Event())
		})
	}
}

func TestCodeBuild_Branch(t *testing.T) {
	assert.Equal(t, "dev", (&CodeBuild{WebhookHeadRef: "refs/heads/dev"}).Branch())
	assert.Empty(t, (&CodeBuild{WebhookBaseRef: "refs/heads/main"}).Branch())
	assert.Empty(t, (&CodeBuild{}).Branch())
}

func TestCodeBuild_MalformedARN(t *testing.T) {
	for _, arn := range []string{"", "arn:aws", "arn:aws:codebuild::"} {
		t.Run(arn, func(t *testing.T) {
			cb := &CodeBuild{BuildARN: arn}
			_, err := cb.AccountID()
			assert.ErrorIs(t, err, errUtils.ErrMalformedARN)
			_, err = cb.Region()
			assert.ErrorIs(t, err, errUtils.ErrMalformedARN)
		})
	}
}

func TestNewCodeBuild_MissingVariables(t *testing.T) {
	_, err := NewCodeBuild(MapEnv(map[string]string{"CODEBUILD_BUILD_ID": "1"}))
	require.ErrorIs(t, err, errUtils.ErrMissingRunnerEnv)
	assert.Contains(t, err.Error(), "CODEBUILD_SOURCE_REPO_URL, CODEBUILD_SOURCE_VERSION")
}

func TestCurrentRepo(t *testing.T) {
	root := filepath.Join(t.TempDir(), "course-site")
	nested := filepath.Join(root, "src", "pkg")
	require.NoError(t, os.MkdirAll(nested, 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(root, ".git"), 0o755))

	t.Chdir(nested)
	assert.Equal(t, "course-site", CurrentRepo())
}

func TestCurrentRepo_OutsideGit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "scratch")
	require.NoError(t, os.Mkdir(dir, 0o755))

	t.Chdir(dir)
	assert.Equal(t, "scratch", CurrentRepo())
}
