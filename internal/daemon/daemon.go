package daemon

import (
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/pkg/errors"
)

// Daemon tracks the background process through its PID file.
type Daemon struct {
	pidFile string
}

func New(pidFile string) *Daemon {
	return &Daemon{pidFile: pidFile}
}

// WritePID records the current process id.
func (d *Daemon) WritePID() error {
	data := []byte(strconv.Itoa(os.Getpid()))
	if err := os.WriteFile(d.pidFile, data, 0644); err != nil {
		return errors.Wrap(err, "failed to write PID file")
	}
	return nil
}

// ReadPID returns the recorded pid, or 0 when no PID file exists.
func (d *Daemon) ReadPID() (int, error) {
	data, err := os.ReadFile(d.pidFile)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "failed to read PID file")
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, errors.Wrapf(err, "PID file %s is corrupt", d.pidFile)
	}
	return pid, nil
}

// RemovePID deletes the PID file. A missing file is not an error.
func (d *Daemon) RemovePID() error {
	if err := os.Remove(d.pidFile); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to remove PID file")
	}
	return nil
}

// IsRunning probes the recorded PID with signal 0, clearing a stale PID file
// when the process is gone.
func (d *Daemon) IsRunning() (bool, int, error) {
	pid, err := d.ReadPID()
	if err != nil || pid == 0 {
		return false, 0, err
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false, 0, nil
	}
	if err := process.Signal(syscall.Signal(0)); err != nil {
		_ = d.RemovePID()
		return false, 0, nil
	}
	return true, pid, nil
}

// Stop sends SIGTERM to the recorded process and clears the PID file.
func (d *Daemon) Stop() error {
	running, pid, err := d.IsRunning()
	if err != nil {
		return errors.Wrap(err, "failed to check daemon status")
	}
	if !running {
		return errors.New("daemon is not running")
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return errors.Wrapf(err, "failed to find process %d", pid)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		// The process died between the probe and the signal; the PID file
		// is stale either way.
		_ = d.RemovePID()
		return errors.Wrapf(err, "failed to signal process %d", pid)
	}
	return d.RemovePID()
}
