package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"

	errUtils "github.com/umsi-mads/mads/errors"
	log "github.com/umsi-mads/mads/pkg/logger"
)

const (
	// ConfigFileName is searched for in every config directory.
	ConfigFileName = "mads.yaml"
	// SystemDir is the first config directory merged.
	SystemDir = "/etc/mads"
	// ConfigPathEnvVar names an extra directory merged last.
	ConfigPathEnvVar = "MADS_CONFIG_PATH"

	envPrefix = "MADS"

	DefaultOrg      = "umsi-mads"
	DefaultFromName = "MADS Course Builds"
	DefaultRegion   = "us-east-1"
)

// LoadOptions adjusts LoadConfig.
type LoadOptions struct {
	// ConfigPath is a file or directory merged after every other source except flags.
	ConfigPath string
	// Overrides are applied last, typically from command-line flags.
	Overrides map[string]any
}

// LoadConfig merges, in order: defaults, /etc/mads, ~/.config/mads, the working
// directory, $MADS_CONFIG_PATH, opts.ConfigPath, MADS_* environment variables and overrides.
func LoadConfig(opts LoadOptions) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetTypeByDefaultValue(true)
	setDefaultConfiguration(v)

	for _, dir := range searchDirs() {
		if err := mergeConfig(v, filepath.Join(dir, ConfigFileName)); err != nil {
			return Config{}, err
		}
	}
	if opts.ConfigPath != "" {
		path := opts.ConfigPath
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			path = filepath.Join(path, ConfigFileName)
		}
		if err := mergeConfig(v, path); err != nil {
			return Config{}, err
		}
	}

	bindEnv(v)

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, errUtils.Mark(errors.Wrap(err, "decoding configuration"), errUtils.ErrLoadConfig)
	}
	cfg.ConfigFile = v.ConfigFileUsed()
	if cfg.ConfigFile == "" {
		log.Debug("No mads.yaml found, using defaults and environment")
	}
	return cfg, nil
}

// setDefaultConfiguration registers every key so environment variables can override it.
func setDefaultConfiguration(v *viper.Viper) {
	v.SetDefault("logs.level", "Info")
	v.SetDefault("logs.file", "/dev/stderr")
	v.SetDefault("github.org", DefaultOrg)
	v.SetDefault("github.app_id", int64(0))
	v.SetDefault("github.installation_id", int64(0))
	v.SetDefault("github.private_key", "")
	v.SetDefault("github.secret_id", "")
	v.SetDefault("github.api_url", "")
	v.SetDefault("image_host", "")
	v.SetDefault("ses.send_identity", "")
	v.SetDefault("ses.from_name", DefaultFromName)
	v.SetDefault("kube.region", DefaultRegion)
	v.SetDefault("aws.region", "")
}

// bindEnv maps MADS_LOGS_LEVEL style variables onto keys, plus the historical unprefixed names.
func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	legacy := map[string][]string{
		"image_host":        {"MADS_IMAGE_HOST", "IMAGE_HOST"},
		"ses.send_identity": {"MADS_SES_SEND_IDENTITY", "SES_SEND_IDENTITY"},
		"aws.region":        {"MADS_AWS_REGION", "AWS_REGION", "AWS_DEFAULT_REGION"},
	}
	for key, names := range legacy {
		// BindEnv only fails without a key.
		_ = v.BindEnv(append([]string{key}, names...)...)
	}
}

func searchDirs() []string {
	dirs := []string{SystemDir}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".config", "mads"))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if dir := os.Getenv(ConfigPathEnvVar); dir != "" {
		dirs = append(dirs, dir)
	}
	return dirs
}

// mergeConfig merges path into v. A missing file is skipped.
func mergeConfig(v *viper.Viper, path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errUtils.Mark(errors.Wrapf(err, "reading %s", path), errUtils.ErrLoadConfig)
	}

	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return errUtils.Build(errors.Wrapf(err, "merging %s", path)).
			WithSentinel(errUtils.ErrLoadConfig).
			WithHintf("Check that %s is valid YAML", path).
			WithExample("logs:\n  level: Debug\ngithub:\n  org: umsi-mads").
			Usage().
			Err()
	}
	log.Debug("Merged config", "file", path)
	return nil
}
