package juju

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/juju-qa/quickstart-deploy/internal/config"
)

// TempBootstrapHome runs fn with a temporary JUJU_HOME whose environments.yaml
// defines only e. The ssh directory of jujuHome is linked in so bootstrap keys
// are shared. After fn returns, any jenv it produced is copied back into
// jujuHome so later commands can address the environment, and the temporary
// home is removed.
func TempBootstrapHome(jujuHome string, e *config.Environment, fn func(home string) error) (err error) {
	tmp, err := os.MkdirTemp("", "juju-home-"+e.Name+"-")
	if err != nil {
		return fmt.Errorf("create temporary juju home: %w", err)
	}
	defer func() { _ = os.RemoveAll(tmp) }()

	if err := config.WriteEnvironmentsFile(filepath.Join(tmp, config.EnvironmentsFileName), e); err != nil {
		return err
	}

	if jujuHome != "" {
		sshDir := filepath.Join(jujuHome, "ssh")
		if _, statErr := os.Stat(sshDir); statErr == nil {
			if err := os.Symlink(sshDir, filepath.Join(tmp, "ssh")); err != nil {
				return fmt.Errorf("link ssh keys: %w", err)
			}
		}
	}

	runErr := fn(tmp)

	if jujuHome != "" {
		if copyErr := copyJenv(e.JenvPath(tmp), e.JenvPath(jujuHome)); copyErr != nil {
			return errors.Join(runErr, copyErr)
		}
	}
	return runErr
}

func copyJenv(src, dst string) error {
	data, err := os.ReadFile(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read jenv: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return fmt.Errorf("create environments dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o600); err != nil {
		return fmt.Errorf("write jenv: %w", err)
	}
	return nil
}
