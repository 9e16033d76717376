package docker

import (
	"os"
	"path/filepath"

	"github.com/umsi-mads/mads/pkg/runner"
)

const buildxPlugin = "cli-plugins/docker-buildx"

// Settings come from the DOCKER_* environment.
type Settings struct {
	CacheTo   string
	CacheFrom string
	// ConfigDir is DOCKER_CONFIG, or ~/.docker when unset.
	ConfigDir string
}

// LoadSettings reads Settings from env.
func LoadSettings(env runner.LookupFunc) Settings {
	s := Settings{
		CacheTo:   env.Get("DOCKER_CACHE_TO"),
		CacheFrom: env.Get("DOCKER_CACHE_FROM"),
		ConfigDir: env.Get("DOCKER_CONFIG"),
	}
	if s.ConfigDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			s.ConfigDir = filepath.Join(home, ".docker")
		}
	}
	return s
}

// Buildx reports whether the buildx CLI plugin is installed.
func (s Settings) Buildx() bool {
	if s.ConfigDir == "" {
		return false
	}
	info, err := os.Stat(filepath.Join(s.ConfigDir, buildxPlugin))
	return err == nil && !info.IsDir()
}
