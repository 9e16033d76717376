package github

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	errUtils "github.com/umsi-mads/mads/errors"
	log "github.com/umsi-mads/mads/pkg/logger"
	"github.com/umsi-mads/mads/pkg/shell"
)

// CredentialsFile is the git credential store, relative to the home directory.
const CredentialsFile = ".git-credentials"

// InstallCredentials stores token as a git credential for github.com and enables the store helper.
func InstallCredentials(ctx context.Context, exec shell.Executor, home, token string) error {
	path := filepath.Join(home, CredentialsFile)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return errUtils.Mark(errors.Wrapf(err, "opening %s", path), errUtils.ErrInstallCredentials)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "https://x-access-token:%s@github.com\n", token); err != nil {
		return errUtils.Mark(errors.Wrapf(err, "writing %s", path), errUtils.ErrInstallCredentials)
	}

	cmd := shell.Command{Line: "git config --global credential.helper store"}
	res, err := exec.Run(ctx, cmd)
	if err != nil {
		return err
	}
	if err := shell.Check(cmd, res); err != nil {
		return errUtils.Mark(err, errUtils.ErrInstallCredentials)
	}

	log.Warn("Installed GitHub token to ~/" + CredentialsFile)
	return nil
}
