package server

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// PidFile returns the path to the viewer PID file.
func PidFile() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "ontoview", "serve.pid")
}

// IsRunning checks if a background viewer is running.
func IsRunning() (bool, int) {
	data, err := os.ReadFile(PidFile())
	if err != nil {
		return false, 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return false, 0
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false, 0
	}
	// On Unix, FindProcess always succeeds. Send signal 0 to check.
	if err := proc.Signal(syscall.Signal(0)); err == nil {
		return true, pid
	}
	// Stale PID file
	_ = os.Remove(PidFile())
	return false, 0
}

// WritePid records pid in the PID file.
func WritePid(pid int) error {
	path := PidFile()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(fmt.Sprintf("%d", pid)), 0o644)
}

// RemovePid deletes the PID file.
func RemovePid() error {
	err := os.Remove(PidFile())
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
