// Package cmd implements the mads command line.
package cmd

import (
	"os"

	"github.com/spf13/cobra"

	errUtils "github.com/umsi-mads/mads/errors"
	"github.com/umsi-mads/mads/pkg/config"
	log "github.com/umsi-mads/mads/pkg/logger"
)

// NewRootCmd builds the mads command tree.
func NewRootCmd() *cobra.Command {
	return newRootCmd(newApp())
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "mads",
		Short: "Build automation for MADS course pipelines",
		Long: `mads bundles the steps course builds share: deriving artifact tags from git,
driving docker and ECR, reporting commit statuses to GitHub, restarting
Kubernetes deployments and sending build emails.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			a.close()
		},
	}

	flags := root.PersistentFlags()
	flags.String("logs-level", "", "Logs level. Supported log levels are Trace, Debug, Info, Warning, Off")
	flags.String("logs-file", "", "The file to write logs to, in addition to stderr. '/dev/stderr' and '/dev/stdout' are accepted")
	flags.String("config", "", "A mads.yaml file, or a directory holding one, merged after the standard locations")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Show error context and stack traces")

	root.AddCommand(
		newTagCmd(a),
		newDockerCmd(a),
		newECRCmd(a),
		newS3Cmd(a),
		newGitHubCmd(a),
		newKubeCmd(a),
		newSetupCmd(a),
		newEnvironCmd(a),
		newYQCmd(a),
		newEmailCmd(a),
		newVersionCmd(),
	)
	return root
}

// setup loads configuration and configures logging before any command runs.
func (a *app) setup(cmd *cobra.Command) error {
	overrides := map[string]any{}
	for flag, key := range map[string]string{"logs-level": "logs.level", "logs-file": "logs.file"} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadConfig(config.LoadOptions{ConfigPath: configPath, Overrides: overrides})
	if err != nil {
		return err
	}
	a.cfg = cfg

	closer, err := log.Setup(cfg.Logs.Level, cfg.Logs.File)
	if err != nil {
		return errUtils.Build(err).
			WithHint("Use one of Trace, Debug, Info, Warning or Off").
			WithExample("mads --logs-level Debug tag").
			Usage().
			Err()
	}
	a.logCloser = closer
	log.Debug("Configuration loaded", "file", cfg.ConfigFile, "level", cfg.Logs.Level)
	return nil
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	a := newApp()
	defer a.close()

	if err := newRootCmd(a).Execute(); err != nil {
		formatter := errUtils.DefaultFormatterConfig()
		formatter.Verbose = a.verbose
		_, _ = os.Stderr.WriteString(errUtils.Format(err, formatter) + "\n")

		code := errUtils.GetExitCode(err)
		log.Debug("Exiting with exit code", "code", code)
		return code
	}
	return 0
}
