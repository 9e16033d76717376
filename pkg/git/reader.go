package git

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	log "github.com/umsi-mads/mads/pkg/logger"
	"github.com/umsi-mads/mads/pkg/shell"
)

const (
	dotGit       = ".git"
	refPrefix    = "ref: "
	gitdirPrefix = "gitdir: "
	headsPrefix  = "refs/heads/"
	showFormat   = "%s;;;%ae"
	showSep      = ";;;"
)

// Reader extracts State from the repository enclosing Dir.
type Reader struct {
	// Dir is where the upward search for .git starts. Empty means the working directory.
	Dir string
	// Exec runs the git show fallback. Nil disables it.
	Exec shell.Executor
}

// Read never fails: any problem degrades to partially filled or NotGit state.
func (r *Reader) Read(ctx context.Context) State {
	start := r.Dir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return NotGit()
		}
		start = wd
	}

	loc, ok := Locate(start)
	if !ok {
		return NotGit()
	}

	head, err := os.ReadFile(filepath.Join(loc.GitDir, "HEAD"))
	if err != nil {
		return NotGit()
	}

	var state State
	var fullHash string

	headRef := strings.TrimSpace(string(head))
	if ref, isRef := strings.CutPrefix(headRef, refPrefix); isRef {
		ref = strings.TrimSpace(ref)
		state.Branch = strings.TrimPrefix(ref, headsPrefix)
		fullHash = loc.resolveRef(ref)
	} else {
		state.Branch = DetachedBranch
		fullHash = headRef
	}
	state.Commit = shortHash(fullHash)

	if state.Commit != "" {
		r.enrich(ctx, loc, fullHash, &state)
	}
	return state
}

// enrich fills message and author from go-git, falling back to git show.
func (r *Reader) enrich(ctx context.Context, loc Location, fullHash string, state *State) {
	if message, author, ok := commitFromRepository(loc, fullHash); ok {
		state.Message, state.Author = message, author
		return
	}
	if r.Exec == nil {
		return
	}

	out, err := shell.Output(ctx, r.Exec, shell.Command{
		Line:   "git show -s --format='" + showFormat + "' " + state.Commit,
		Dir:    loc.WorkTree,
		Silent: true,
	})
	if err != nil {
		log.Debug("Unable to read commit details", "commit", state.Commit, "error", err)
		return
	}

	message, author, found := strings.Cut(out, showSep)
	if !found || strings.Contains(author, showSep) {
		return
	}
	state.Message, state.Author = message, author
}

func commitFromRepository(loc Location, fullHash string) (message, author string, ok bool) {
	if !plumbing.IsHash(fullHash) {
		return "", "", false
	}

	repo, err := gogit.PlainOpenWithOptions(loc.WorkTree, &gogit.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return "", "", false
	}

	commit, err := repo.CommitObject(plumbing.NewHash(fullHash))
	if err != nil {
		return "", "", false
	}
	return subject(commit.Message), commit.Author.Email, true
}

// subject mirrors git's %s: the first paragraph of the message joined onto one line.
func subject(message string) string {
	paragraph, _, _ := strings.Cut(strings.TrimLeft(message, "\n"), "\n\n")
	return strings.Join(strings.Fields(paragraph), " ")
}

// Location is a resolved repository on disk.
type Location struct {
	// WorkTree is the directory holding .git.
	WorkTree string
	// GitDir holds HEAD. For linked worktrees it is the per-worktree directory.
	GitDir string
	// CommonDir holds shared refs. Equal to GitDir outside of linked worktrees.
	CommonDir string
}

// Locate searches upward from start for a .git directory or gitdir file.
func Locate(start string) (Location, bool) {
	for dir := start; ; dir = filepath.Dir(dir) {
		candidate := filepath.Join(dir, dotGit)
		if info, err := os.Stat(candidate); err == nil {
			gitDir := candidate
			if !info.IsDir() {
				resolved, ok := readGitdirFile(candidate)
				if !ok {
					return Location{}, false
				}
				gitDir = resolved
			}
			if info, err := os.Stat(gitDir); err != nil || !info.IsDir() {
				return Location{}, false
			}
			return Location{WorkTree: dir, GitDir: gitDir, CommonDir: commonDir(gitDir)}, true
		}
		if filepath.Dir(dir) == dir {
			return Location{}, false
		}
	}
}

func readGitdirFile(path string) (string, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", false
	}
	target, ok := strings.CutPrefix(strings.TrimSpace(string(content)), gitdirPrefix)
	if !ok || target == "" {
		return "", false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(path), target)
	}
	return filepath.Clean(target), true
}

func commonDir(gitDir string) string {
	content, err := os.ReadFile(filepath.Join(gitDir, "commondir"))
	if err != nil {
		return gitDir
	}
	dir := strings.TrimSpace(string(content))
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(gitDir, dir)
	}
	return filepath.Clean(dir)
}

// resolveRef reads a loose ref, then the shared loose ref, then packed-refs.
func (l Location) resolveRef(ref string) string {
	for _, dir := range []string{l.GitDir, l.CommonDir} {
		if content, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(ref))); err == nil {
			return strings.TrimSpace(string(content))
		}
	}
	return packedRef(filepath.Join(l.CommonDir, "packed-refs"), ref)
}

func packedRef(path, ref string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' || line[0] == '^' {
			continue
		}
		if hash, name, ok := strings.Cut(line, " "); ok && name == ref {
			return hash
		}
	}
	return ""
}

// Cache memoizes one Read per process until Reset.
type Cache struct {
	mu     sync.Mutex
	reader *Reader
	state  *State
}

// NewCache wraps reader.
func NewCache(reader *Reader) *Cache {
	return &Cache{reader: reader}
}

// Get returns the memoized state, reading it on first use.
func (c *Cache) Get(ctx context.Context) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == nil {
		state := c.reader.Read(ctx)
		c.state = &state
	}
	return *c.state
}

// Reset forgets the memoized state.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = nil
}
