package logger

import (
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"golang.org/x/crypto/blake2b"
)

// DefaultTreeIgnore lists directory entries Tree skips.
var DefaultTreeIgnore = []string{".git", "build", ".pytest_cache", "__pycache__"}

const hashSize = 4

// TreeOptions selects which file attributes Tree prints.
type TreeOptions struct {
	Size    bool
	ModTime bool
	Hash    bool
	Ignore  []string
}

// Tree logs the contents of dir, files before directories, each level indented.
func (l *BuildLogger) Tree(dir string, opts TreeOptions) {
	if opts.Ignore == nil {
		opts.Ignore = DefaultTreeIgnore
	}

	l.Start(dir)
	l.tree(dir, opts)
	l.End(dir)
}

func (l *BuildLogger) tree(dir string, opts TreeOptions) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		l.Warn("Unable to read directory", "dir", dir, "error", err)
		return
	}

	entries = lo.Filter(entries, func(e os.DirEntry, _ int) bool {
		return !lo.Contains(opts.Ignore, e.Name())
	})
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return !entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			l.Info(entry.Name() + "/")
			l.WithIndent(DefaultIndent, func() { l.tree(path, opts) })
			continue
		}
		l.Info(describeFile(path, entry, opts))
	}
}

func describeFile(path string, entry os.DirEntry, opts TreeOptions) string {
	var attrs []string

	if info, err := entry.Info(); err == nil {
		if opts.Size {
			attrs = append(attrs, humanize.IBytes(uint64(info.Size())))
		}
		if opts.ModTime {
			attrs = append(attrs, humanize.Time(info.ModTime()))
		}
	}
	if opts.Hash {
		if sum, err := FileHash(path); err == nil {
			attrs = append(attrs, sum)
		}
	}

	if len(attrs) == 0 {
		return entry.Name()
	}
	return entry.Name() + " (" + strings.Join(attrs, ", ") + ")"
}

// FileHash returns a short blake2b digest of the file contents.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New(hashSize, nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Environ logs the environment, sorted by name.
func (l *BuildLogger) Environ(environ []string) {
	sorted := append([]string(nil), environ...)
	sort.Strings(sorted)

	l.Start("Environment")
	for _, kv := range sorted {
		l.Info(kv)
	}
	l.End("Environment")
}

// Track logs the start of name and returns a function that logs its runtime.
//
//	defer log.Default().Track("docker login")()
func (l *BuildLogger) Track(name string) func() {
	started := time.Now()
	l.Debug("Running " + name)
	return func() {
		l.Infof("%s completed after %s", name, humanDuration(time.Since(started)))
	}
}

func humanDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Round(10 * time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
