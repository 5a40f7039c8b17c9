// Package runtimepath locates the per-user files the daemon shares with its
// clients: the IPC socket and the pid file.
package runtimepath

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

const (
	socketName = "tabtile.sock"
	pidName    = "tabtile.pid"
)

// ErrAlreadyRunning is returned by ClaimPID when another live daemon owns the
// pid file.
var ErrAlreadyRunning = errors.New("daemon already running")

// Dir returns the runtime directory. Priority:
// 1) XDG_RUNTIME_DIR (if set)
// 2) /run/user/<uid> (if present)
// 3) /tmp/tabtile-runtime-<uid> (created)
func Dir() (string, error) {
	if runtimeDir := os.Getenv("XDG_RUNTIME_DIR"); runtimeDir != "" {
		return runtimeDir, nil
	}

	uid := os.Getuid()
	runUserDir := fmt.Sprintf("/run/user/%d", uid)
	if info, err := os.Stat(runUserDir); err == nil && info.IsDir() {
		return runUserDir, nil
	}

	tmpDir := fmt.Sprintf("/tmp/tabtile-runtime-%d", uid)
	if err := os.MkdirAll(tmpDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create runtime dir: %w", err)
	}
	return tmpDir, nil
}

func file(name string) (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

// SocketPath returns the daemon IPC socket path.
func SocketPath() (string, error) { return file(socketName) }

// PIDPath returns the file the running daemon records its pid in.
func PIDPath() (string, error) { return file(pidName) }

// ReadPID returns the pid recorded in the pid file and whether that process
// is still alive. A missing file is not an error.
func ReadPID() (pid int, alive bool, err error) {
	path, err := PIDPath()
	if err != nil {
		return 0, false, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false, fmt.Errorf("malformed pid file %s", path)
	}
	return pid, processAlive(pid), nil
}

// ClaimPID records the current process in the pid file. A stale or malformed
// file is replaced; a live owner yields ErrAlreadyRunning. The returned
// release func removes the file if it still names this process.
func ClaimPID() (release func(), err error) {
	path, err := PIDPath()
	if err != nil {
		return nil, err
	}
	if pid, alive, err := ReadPID(); err == nil && alive && pid != os.Getpid() {
		return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}

	self := os.Getpid()
	if err := os.WriteFile(path, []byte(strconv.Itoa(self)+"\n"), 0600); err != nil {
		return nil, fmt.Errorf("failed to write pid file: %w", err)
	}
	return func() {
		if pid, _, err := ReadPID(); err == nil && pid == self {
			os.Remove(path)
		}
	}, nil
}

func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
