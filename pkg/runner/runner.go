// Package runner describes the CI system a build is running under.
//
// A Registry holds an ordered list of Variant values, each pairing a detection
// predicate with a constructor. The first variant whose predicate matches the
// environment is the current runner; a catch-all local variant always matches last.
package runner

import (
	"os"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"

	errUtils "github.com/umsi-mads/mads/errors"
)

// Kind identifies a runner variant.
type Kind string

const (
	KindLocal     Kind = "local"
	KindGitHub    Kind = "github"
	KindCodeBuild Kind = "codebuild"
)

// Runner is the ambient description of the current build. Empty strings mean absent.
// Exactly one of the variant detail pointers is set for the CI variants.
type Runner struct {
	Name    Kind   `yaml:"name"`
	Repo    string `yaml:"repo,omitempty"`
	RunID   string `yaml:"run_id,omitempty"`
	Ref     string `yaml:"ref,omitempty"`
	Event   string `yaml:"event,omitempty"`
	HeadRef string `yaml:"head_ref,omitempty"`
	BaseRef string `yaml:"base_ref,omitempty"`

	GitHub    *GitHub    `yaml:"github,omitempty"`
	CodeBuild *CodeBuild `yaml:"codebuild,omitempty"`
}

// Branch returns a display form of the branch the run is building.
func (r *Runner) Branch() string {
	if r.CodeBuild != nil {
		return r.CodeBuild.Branch()
	}
	return r.Ref
}

// LookupFunc reads an environment variable. It has the shape of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// OSEnv reads the process environment.
func OSEnv() LookupFunc {
	return os.LookupEnv
}

// MapEnv reads from a fixed map. Used in tests and when replaying a captured environment.
func MapEnv(env map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

// Has reports whether key is set, even to an empty value.
func (f LookupFunc) Has(key string) bool {
	_, ok := f(key)
	return ok
}

// Get returns the value of key, or "" when unset.
func (f LookupFunc) Get(key string) string {
	v, _ := f(key)
	return v
}

// require returns the values of keys, failing with every missing or blank key named.
func (f LookupFunc) require(kind Kind, keys ...string) (map[string]string, error) {
	values := make(map[string]string, len(keys))
	for _, key := range keys {
		values[key] = f.Get(key)
	}

	missing := lo.Filter(keys, func(key string, _ int) bool { return values[key] == "" })
	if len(missing) == 0 {
		return values, nil
	}
	sort.Strings(missing)

	return nil, errUtils.Build(errors.Wrapf(errUtils.ErrMissingRunnerEnv, "%s runner: %s", kind, strings.Join(missing, ", "))).
		WithHintf("Set %s or run outside of %s", strings.Join(missing, ", "), kind).
		WithContext("runner", string(kind)).
		WithExample("mads environ").
		Usage().
		Err()
}

// NormalizeName reduces a repository or ref reference to its bare name: the text
// after the last "/" with any trailing ".git" removed. Blank input stays blank.
func NormalizeName(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if i := strings.LastIndex(v, "/"); i >= 0 {
		v = v[i+1:]
	}
	return strings.TrimSuffix(v, ".git")
}
