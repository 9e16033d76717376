package git

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/umsi-mads/mads/pkg/shell"
)

const fakeHash = "0123456789abcdef0123456789abcdef01234567"

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestReader_NotGit(t *testing.T) {
	dir := t.TempDir()

	state := (&Reader{Dir: dir}).Read(context.Background())

	assert.Equal(t, NotGit(), state)
	assert.False(t, state.IsGit())
	assert.Equal(t, NotGitMessage, state.Message)
}

func TestReader_BranchHead(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/feature/login\n")
	writeFile(t, filepath.Join(root, ".git", "refs", "heads", "feature", "login"), fakeHash+"\n")

	nested := filepath.Join(root, "src", "app")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	state := (&Reader{Dir: nested}).Read(context.Background())

	assert.Equal(t, State{Commit: "0123456", Branch: "feature/login"}, state)
	assert.True(t, state.IsGit())
}

func TestReader_DetachedHead(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "HEAD"), fakeHash+"\n")

	state := (&Reader{Dir: root}).Read(context.Background())

	assert.Equal(t, State{Commit: "0123456", Branch: DetachedBranch}, state)
}

func TestReader_PackedRefs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main\n")
	writeFile(t, filepath.Join(root, ".git", "packed-refs"),
		"# pack-refs with: peeled fully-peeled sorted\n"+
			"ffffffffffffffffffffffffffffffffffffffff refs/heads/other\n"+
			fakeHash+" refs/heads/main\n"+
			"^eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee\n")

	state := (&Reader{Dir: root}).Read(context.Background())

	assert.Equal(t, "main", state.Branch)
	assert.Equal(t, "0123456", state.Commit)
}

func TestReader_GitdirFile(t *testing.T) {
	root := t.TempDir()
	realDir := filepath.Join(root, "modules", "course")
	writeFile(t, filepath.Join(realDir, "HEAD"), "ref: refs/heads/beta\n")
	writeFile(t, filepath.Join(realDir, "refs", "heads", "beta"), fakeHash)

	checkout := filepath.Join(root, "course")
	writeFile(t, filepath.Join(checkout, ".git"), "gitdir: ../modules/course\n")

	state := (&Reader{Dir: checkout}).Read(context.Background())

	assert.Equal(t, State{Commit: "0123456", Branch: "beta"}, state)
}

func TestReader_LinkedWorktree(t *testing.T) {
	root := t.TempDir()
	mainGit := filepath.Join(root, "main", ".git")
	wt := filepath.Join(mainGit, "worktrees", "wt")
	writeFile(t, filepath.Join(wt, "HEAD"), "ref: refs/heads/topic\n")
	writeFile(t, filepath.Join(wt, "commondir"), "../..\n")
	writeFile(t, filepath.Join(mainGit, "refs", "heads", "topic"), fakeHash)

	checkout := filepath.Join(root, "wt")
	writeFile(t, filepath.Join(checkout, ".git"), "gitdir: "+wt+"\n")

	state := (&Reader{Dir: checkout}).Read(context.Background())

	assert.Equal(t, State{Commit: "0123456", Branch: "topic"}, state)
}

func TestReader_BrokenLayouts(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, root string)
	}{
		{"gitdir file points nowhere", func(t *testing.T, root string) {
			writeFile(t, filepath.Join(root, ".git"), "gitdir: /does/not/exist\n")
		}},
		{"gitdir file without prefix", func(t *testing.T, root string) {
			writeFile(t, filepath.Join(root, ".git"), "garbage\n")
		}},
		{"missing HEAD", func(t *testing.T, root string) {
			require.NoError(t, os.MkdirAll(filepath.Join(root, ".git"), 0o755))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			tt.setup(t, root)
			assert.Equal(t, NotGit(), (&Reader{Dir: root}).Read(context.Background()))
		})
	}
}

func TestReader_UnbornBranch(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main\n")

	state := (&Reader{Dir: root}).Read(context.Background())

	assert.Equal(t, State{Branch: "main"}, state)
}

func TestReader_EnrichFromRepository(t *testing.T) {
	root := t.TempDir()
	repo, err := gogit.PlainInit(root, false)
	require.NoError(t, err)

	writeFile(t, filepath.Join(root, "README.md"), "hello")
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("README.md")
	require.NoError(t, err)
	hash, err := wt.Commit("Add readme\nwith detail\n\nBody text", &gogit.CommitOptions{
		Author: &object.Signature{Name: "Builder", Email: "builder@umich.edu", When: time.Now()},
	})
	require.NoError(t, err)

	state := (&Reader{Dir: root}).Read(context.Background())

	assert.Equal(t, hash.String()[:7], state.Commit)
	assert.Equal(t, "Add readme with detail", state.Message)
	assert.Equal(t, "builder@umich.edu", state.Author)
	assert.Equal(t, "master", state.Branch)
}

func TestReader_EnrichFromGitShow(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "HEAD"), fakeHash)

	ctrl := gomock.NewController(t)
	exec := shell.NewMockExecutor(ctrl)
	exec.EXPECT().
		Run(gomock.Any(), shell.Command{Line: "git show -s --format='%s;;;%ae' 0123456", Dir: root, Silent: true}).
		Return(&shell.Result{Stdout: "Fix build;;;ci@umich.edu\n"}, nil)

	state := (&Reader{Dir: root, Exec: exec}).Read(context.Background())

	assert.Equal(t, State{Commit: "0123456", Branch: DetachedBranch, Message: "Fix build", Author: "ci@umich.edu"}, state)
}

func TestReader_GitShowFailuresSwallowed(t *testing.T) {
	tests := []struct {
		name   string
		result *shell.Result
		err    error
	}{
		{"non-zero exit", &shell.Result{ExitCode: 128, Stderr: "fatal: bad object"}, nil},
		{"executor error", nil, assert.AnError},
		{"no delimiter", &shell.Result{Stdout: "just a message"}, nil},
		{"too many delimiters", &shell.Result{Stdout: "a;;;b;;;c"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := t.TempDir()
			writeFile(t, filepath.Join(root, ".git", "HEAD"), fakeHash)

			ctrl := gomock.NewController(t)
			exec := shell.NewMockExecutor(ctrl)
			exec.EXPECT().Run(gomock.Any(), gomock.Any()).Return(tt.result, tt.err)

			state := (&Reader{Dir: root, Exec: exec}).Read(context.Background())

			assert.Equal(t, State{Commit: "0123456", Branch: DetachedBranch}, state)
		})
	}
}

func TestCache(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/main\n")

	cache := NewCache(&Reader{Dir: root})
	assert.Equal(t, "main", cache.Get(context.Background()).Branch)

	writeFile(t, filepath.Join(root, ".git", "HEAD"), "ref: refs/heads/beta\n")
	assert.Equal(t, "main", cache.Get(context.Background()).Branch, "memoized")

	cache.Reset()
	assert.Equal(t, "beta", cache.Get(context.Background()).Branch)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "one line", subject("one line\n"))
	assert.Equal(t, "wrapped subject", subject("wrapped\nsubject\n\nbody"))
	assert.Empty(t, subject(""))
}
