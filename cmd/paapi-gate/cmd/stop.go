package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// How long stop waits for a graceful exit before killing the server.
const (
	stopTimeout      = 10 * time.Second
	stopPollInterval = 200 * time.Millisecond
)

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running paapi-gate server",
	Long: `Stop a running paapi-gate server by reading its PID file and asking it
to shut down. In-flight batches finish before the server exits.

The PID file is located at ~/.paapi-gate/server.pid.

Examples:
  # Stop the running server
  paapi-gate stop`,
	RunE: runStop,
}

func init() {
	rootCmd.AddCommand(stopCmd)
}

func runStop(cmd *cobra.Command, args []string) error {
	out := cmd.ErrOrStderr()
	pidPath := pidFilePath()

	pid := readPIDFile(pidPath)
	if pid == 0 {
		return fmt.Errorf("no server PID file found at %s\nIs the server running?", pidPath)
	}
	if !running(pid) {
		_ = os.Remove(pidPath)
		return fmt.Errorf("server process %d is not running (stale PID file removed)", pid)
	}

	fmt.Fprintf(out, "Stopping paapi-gate server (PID %d)...\n", pid)
	if err := requestStop(pid); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	if waitForExit(pid, stopTimeout, stopPollInterval) {
		_ = os.Remove(pidPath)
		fmt.Fprintln(out, "Server stopped.")
		return nil
	}

	fmt.Fprintf(out, "Server did not stop within %s, killing it...\n", stopTimeout)
	if proc, err := os.FindProcess(pid); err == nil {
		_ = proc.Kill()
	}
	_ = os.Remove(pidPath)
	fmt.Fprintln(out, "Server killed.")
	return nil
}

// waitForExit polls until pid exits or timeout elapses. It reports whether
// the process exited.
func waitForExit(pid int, timeout, poll time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !running(pid) {
			return true
		}
		time.Sleep(poll)
	}
	return !running(pid)
}
