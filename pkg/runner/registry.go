package runner

import (
	"sync"

	"github.com/cockroachdb/errors"

	errUtils "github.com/umsi-mads/mads/errors"
	log "github.com/umsi-mads/mads/pkg/logger"
)

// Variant pairs a detection predicate with the constructor for one runner kind.
type Variant struct {
	Kind Kind

	// Detect inspects the environment for markers unique to this CI system.
	Detect func(env LookupFunc) bool

	// New builds a Runner from the environment.
	New func(env LookupFunc) (*Runner, error)

	// CatchAll variants are evaluated after every other variant.
	CatchAll bool
}

// Registry evaluates variants in registration order and memoizes the result of Current.
type Registry struct {
	mu       sync.RWMutex
	env      LookupFunc
	variants []Variant
	catchAll *Variant
	current  *Variant
}

// NewRegistry creates an empty registry reading env. A nil env reads the process environment.
func NewRegistry(env LookupFunc) *Registry {
	if env == nil {
		env = OSEnv()
	}
	return &Registry{env: env}
}

// DefaultRegistry returns a registry holding GitHub Actions, CodeBuild and the local catch-all.
func DefaultRegistry(env LookupFunc) *Registry {
	r := NewRegistry(env)
	for _, v := range []Variant{GitHubVariant(), CodeBuildVariant(), LocalVariant()} {
		// The built-in variants are well formed.
		_ = r.Register(v)
	}
	return r
}

// Register adds a variant. Registration order is detection priority, except that the
// single catch-all variant is always evaluated last.
func (r *Registry) Register(v Variant) error {
	if v.Detect == nil || v.New == nil {
		return errors.Wrapf(errUtils.ErrInvalidRunnerVariant, "variant %q", v.Kind)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if v.CatchAll {
		if r.catchAll != nil {
			return errors.Wrapf(errUtils.ErrDuplicateCatchAll, "%q already registered, cannot add %q", r.catchAll.Kind, v.Kind)
		}
		r.catchAll = &v
	} else {
		r.variants = append(r.variants, v)
	}
	r.current = nil
	return nil
}

// Kinds lists registered variants in evaluation order.
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.variants)+1)
	for _, v := range r.ordered() {
		kinds = append(kinds, v.Kind)
	}
	return kinds
}

func (r *Registry) ordered() []Variant {
	ordered := append([]Variant(nil), r.variants...)
	if r.catchAll != nil {
		ordered = append(ordered, *r.catchAll)
	}
	return ordered
}

// Detect evaluates every variant against the environment without consulting the memo.
func (r *Registry) Detect() (Variant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.detect()
}

func (r *Registry) detect() (Variant, error) {
	for _, v := range r.ordered() {
		if v.Detect(r.env) {
			log.Debug("Runner detected", "runner", v.Kind)
			return v, nil
		}
	}
	return Variant{}, errUtils.Build(errUtils.ErrRunnerNotDetected).
		WithHint("Register a catch-all runner variant").
		Err()
}

// Current returns the detected variant, computing it at most once until Reset.
func (r *Registry) Current() (Variant, error) {
	r.mu.RLock()
	if r.current != nil {
		v := *r.current
		r.mu.RUnlock()
		return v, nil
	}
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		return *r.current, nil
	}

	v, err := r.detect()
	if err != nil {
		return Variant{}, err
	}
	r.current = &v
	return v, nil
}

// Load detects the current variant and constructs it from the environment.
func (r *Registry) Load() (*Runner, error) {
	v, err := r.Current()
	if err != nil {
		return nil, err
	}
	return v.New(r.env)
}

// Reset drops the memoized detection result.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nil
}
