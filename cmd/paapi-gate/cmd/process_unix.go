//go:build !windows

package cmd

import (
	"os"
	"syscall"
)

// shutdownSignals are the signals start and mcp treat as a stop request.
func shutdownSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM}
}

// running reports whether pid is a live process. Signal 0 only probes.
func running(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// requestStop delivers SIGTERM so the server drains through its signal
// handler.
func requestStop(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return proc.Signal(syscall.SIGTERM)
}
