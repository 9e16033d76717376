// Package git reads the state of the working copy straight from the .git directory
// and derives artifact tags from it.
package git

// NotGitMessage is the Message of the State returned outside of a git project.
const NotGitMessage = "[This does not appear to be a git project]"

// DetachedBranch is the Branch of a State whose HEAD is not a branch ref.
const DetachedBranch = "HEAD"

const shortHashLen = 7

// State describes the checked out commit. Empty fields are unknown.
type State struct {
	Commit  string `yaml:"commit,omitempty"`
	Message string `yaml:"message,omitempty"`
	Author  string `yaml:"author,omitempty"`
	Branch  string `yaml:"branch,omitempty"`
}

// NotGit is the sentinel State for directories without git data.
func NotGit() State {
	return State{Message: NotGitMessage}
}

// IsGit reports whether the state was read from a repository.
func (s State) IsGit() bool {
	return s.Commit != "" || s.Branch != ""
}

// ArtifactTag derives the artifact tag for the checked out branch.
func (s State) ArtifactTag(prefix []string, opts TagOptions) string {
	return ArtifactTag(s.Branch, prefix, opts)
}

func shortHash(hash string) string {
	if len(hash) > shortHashLen {
		return hash[:shortHashLen]
	}
	return hash
}
