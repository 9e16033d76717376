package runner

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errUtils "github.com/umsi-mads/mads/errors"
)

func TestDefaultRegistry_Detection(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want Kind
	}{
		{"github marker", map[string]string{"GITHUB_ACTIONS": "true"}, KindGitHub},
		{"github marker blank", map[string]string{"GITHUB_ACTIONS": ""}, KindGitHub},
		{"codebuild marker", map[string]string{"CODEBUILD_BUILD_ID": "123"}, KindCodeBuild},
		{"github wins over codebuild", map[string]string{"GITHUB_ACTIONS": "true", "CODEBUILD_BUILD_ID": "123"}, KindGitHub},
		{"no markers", map[string]string{}, KindLocal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DefaultRegistry(MapEnv(tt.env)).Current()
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Kind)
		})
	}
}

func TestRegistry_CatchAllEvaluatedLast(t *testing.T) {
	r := NewRegistry(MapEnv(map[string]string{"CODEBUILD_BUILD_ID": "1"}))
	require.NoError(t, r.Register(LocalVariant()))
	require.NoError(t, r.Register(CodeBuildVariant()))

	assert.Equal(t, []Kind{KindCodeBuild, KindLocal}, r.Kinds())

	v, err := r.Current()
	require.NoError(t, err)
	assert.Equal(t, KindCodeBuild, v.Kind)
}

func TestRegistry_DuplicateCatchAll(t *testing.T) {
	r := NewRegistry(MapEnv(nil))
	require.NoError(t, r.Register(LocalVariant()))

	err := r.Register(LocalVariant())
	assert.ErrorIs(t, err, errUtils.ErrDuplicateCatchAll)
}

func TestRegistry_InvalidVariant(t *testing.T) {
	err := NewRegistry(MapEnv(nil)).Register(Variant{Kind: "broken"})
	assert.ErrorIs(t, err, errUtils.ErrInvalidRunnerVariant)
}

func TestRegistry_NotDetectedWithoutCatchAll(t *testing.T) {
	r := NewRegistry(MapEnv(map[string]string{}))
	require.NoError(t, r.Register(GitHubVariant()))
	require.NoError(t, r.Register(CodeBuildVariant()))

	_, err := r.Current()
	assert.ErrorIs(t, err, errUtils.ErrRunnerNotDetected)

	_, err = r.Load()
	assert.ErrorIs(t, err, errUtils.ErrRunnerNotDetected)
}

func TestRegistry_CurrentIsMemoized(t *testing.T) {
	env := map[string]string{}
	r := DefaultRegistry(MapEnv(env))

	v, err := r.Current()
	require.NoError(t, err)
	assert.Equal(t, KindLocal, v.Kind)

	env["GITHUB_ACTIONS"] = "true"

	v, err = r.Current()
	require.NoError(t, err)
	assert.Equal(t, KindLocal, v.Kind, "memoized result survives environment changes")

	v, err = r.Detect()
	require.NoError(t, err)
	assert.Equal(t, KindGitHub, v.Kind, "Detect bypasses the memo")

	r.Reset()
	v, err = r.Current()
	require.NoError(t, err)
	assert.Equal(t, KindGitHub, v.Kind)
}

func TestRegistry_ConcurrentCurrent(t *testing.T) {
	calls := 0
	var mu sync.Mutex
	r := NewRegistry(MapEnv(nil))
	require.NoError(t, r.Register(Variant{
		Kind: "counting",
		Detect: func(LookupFunc) bool {
			mu.Lock()
			defer mu.Unlock()
			calls++
			return true
		},
		New: func(LookupFunc) (*Runner, error) { return &Runner{Name: "counting"}, nil },
	}))

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := r.Current()
			assert.NoError(t, err)
			assert.Equal(t, Kind("counting"), v.Kind)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, calls)
}

func TestRegistry_Load(t *testing.T) {
	r := NewRegistry(MapEnv(nil))
	fixed := time.Unix(1700000000, 0)
	require.NoError(t, r.Register(LocalVariantWith(func() string { return "/work/mads-cli" }, func() time.Time { return fixed })))

	got, err := r.Load()
	require.NoError(t, err)
	assert.Equal(t, &Runner{Name: KindLocal, Repo: "mads-cli", RunID: "1700000000", Ref: "HEAD"}, got)
}

func TestRegistry_RegisterResetsMemo(t *testing.T) {
	r := NewRegistry(MapEnv(map[string]string{"GITHUB_ACTIONS": "true"}))
	require.NoError(t, r.Register(LocalVariant()))

	v, err := r.Current()
	require.NoError(t, err)
	assert.Equal(t, KindLocal, v.Kind)

	require.NoError(t, r.Register(GitHubVariant()))
	v, err = r.Current()
	require.NoError(t, err)
	assert.Equal(t, KindGitHub, v.Kind)
}
