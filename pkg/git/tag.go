package git

import "strings"

// DefaultTag is the tag suffix for branches with no dedicated channel.
const DefaultTag = "dev"

// TagOptions tunes ArtifactTag.
type TagOptions struct {
	// UseBranch puts the branch name in the tag instead of its channel name.
	UseBranch bool
	// Default is the tag for branches with no channel, used as given. An empty
	// Default yields "" alone or "prefix-" with a prefix; callers normally pass DefaultTag.
	Default string
}

// ArtifactTag derives a deterministic tag from a branch. The first matching rule wins:
//
//   - no branch: prefix + default
//   - main or master: "latest" (or the branch name with UseBranch); with a prefix, the prefix alone
//   - beta: prefix + "beta"
//   - anything else: prefix + default (or the branch name with UseBranch)
func ArtifactTag(branch string, prefix []string, opts TagOptions) string {
	bits := append([]string(nil), prefix...)

	switch branch {
	case "":
		bits = append(bits, opts.Default)
	case "main", "master":
		if len(prefix) == 0 {
			bits = append(bits, pick(opts.UseBranch, branch, "latest"))
		}
	case "beta":
		bits = append(bits, "beta")
	default:
		bits = append(bits, pick(opts.UseBranch, branch, opts.Default))
	}

	return strings.Join(bits, "-")
}

func pick(useBranch bool, branch, fallback string) string {
	if useBranch {
		return branch
	}
	return fallback
}
