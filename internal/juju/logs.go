package juju

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bitfield/script"
)

// NoBootstrapHost is the placeholder host used when machine 0 never reported
// an address.
const NoBootstrapHost = "N/A"

const (
	defaultSSH = "ssh -o StrictHostKeyChecking=no -o UserKnownHostsFile=/dev/null -o ConnectTimeout=30"

	// remoteLogArchive streams the machine's juju and cloud-init logs as a gzip tarball.
	remoteLogArchive = "sudo tar -czf - -C /var/log juju cloud-init-output.log"

	statusFile       = "status.yaml"
	machineArchive   = "machine-0.tar.gz"
	localLogsPattern = "*.log"
)

// LogCollector captures diagnostics from an environment into a directory.
type LogCollector struct {
	// SSH is the ssh command prefix used to reach the bootstrap host directly.
	SSH string

	client *Client
	logger *slog.Logger
}

// NewLogCollector constructs a LogCollector for client.
func NewLogCollector(client *Client) *LogCollector {
	return &LogCollector{
		SSH:    defaultSSH,
		client: client,
		logger: client.logger,
	}
}

// CollectLogs writes a status snapshot and machine 0's logs into dir. Every
// capture is attempted; the joined failures are returned.
func (l *LogCollector) CollectLogs(ctx context.Context, host, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create log dir %q: %w", dir, err)
	}
	l.logger.Info("collecting logs", "env", l.client.Env.Name, "host", host, "dir", dir)

	var errs []error
	if err := l.captureStatus(ctx, dir); err != nil {
		errs = append(errs, err)
	}

	switch {
	case l.client.Env.IsLocal():
		errs = append(errs, l.copyLocalLogs(dir))
	case host == "" || host == NoBootstrapHost:
		errs = append(errs, l.archiveViaJuju(ctx, dir))
	default:
		errs = append(errs, l.archiveViaSSH(host, dir))
	}
	return errors.Join(errs...)
}

func (l *LogCollector) captureStatus(ctx context.Context, dir string) error {
	raw, err := l.client.Capture(ctx, "status", "--format", "yaml")
	if err != nil {
		return fmt.Errorf("capture status: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, statusFile), raw, 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	return nil
}

// copyLocalLogs copies the local provider's log files, which live on this host.
func (l *LogCollector) copyLocalLogs(dir string) error {
	pattern := filepath.Join(l.client.JujuHome, l.client.Env.Name, "log", localLogsPattern)
	files, err := script.ListFiles(pattern).Slice()
	if err != nil {
		return fmt.Errorf("list local logs %q: %w", pattern, err)
	}

	var errs []error
	for _, src := range files {
		dst := filepath.Join(dir, filepath.Base(src))
		if _, err := script.File(src).WriteFile(dst); err != nil {
			errs = append(errs, fmt.Errorf("copy %q: %w", src, err))
		}
	}
	l.logger.Debug("copied local logs", "count", len(files)-len(errs))
	return errors.Join(errs...)
}

func (l *LogCollector) archiveViaSSH(host, dir string) error {
	dst := filepath.Join(dir, machineArchive)
	cmd := strings.Join([]string{l.SSH, "ubuntu@" + host, remoteLogArchive}, " ")
	if _, err := script.Exec(cmd).WriteFile(dst); err != nil {
		return fmt.Errorf("fetch logs from %s: %w", host, err)
	}
	return nil
}

// archiveViaJuju is the fallback when no address is known: juju resolves
// machine 0 itself.
func (l *LogCollector) archiveViaJuju(ctx context.Context, dir string) error {
	raw, err := l.client.Capture(ctx, "ssh", "0", remoteLogArchive)
	if err != nil {
		return fmt.Errorf("fetch logs from machine 0: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, machineArchive), raw, 0o644); err != nil {
		return fmt.Errorf("write machine archive: %w", err)
	}
	return nil
}
