package backend

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// SystemKiller terminates processes using the platform's process tools.
type SystemKiller struct {
	goos string
	run  func(ctx context.Context, name string, args ...string) ([]byte, error)
}

// NewSystemKiller returns a killer for the running platform.
func NewSystemKiller() *SystemKiller {
	return &SystemKiller{goos: runtime.GOOS, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// KillByPattern terminates every process whose command line contains pattern.
// No matching process is not an error.
func (k *SystemKiller) KillByPattern(ctx context.Context, pattern string) error {
	if pattern == "" {
		return nil
	}

	if k.goos == "windows" {
		script := fmt.Sprintf(
			"Get-CimInstance Win32_Process | Where-Object { $_.CommandLine -like '*%s*' } | ForEach-Object { Stop-Process -Id $_.ProcessId -Force }",
			strings.ReplaceAll(pattern, "'", "''"),
		)
		_, err := k.run(ctx, "powershell", "-NoProfile", "-Command", script)
		return err
	}

	_, err := k.run(ctx, "pkill", "-f", pattern)
	if noMatch(err) {
		return nil
	}
	return err
}

// KillByPort terminates whatever process is listening on port.
func (k *SystemKiller) KillByPort(ctx context.Context, port int) error {
	if port <= 0 {
		return nil
	}

	if k.goos == "windows" {
		out, err := k.run(ctx, "netstat", "-ano", "-p", "tcp")
		if err != nil {
			return err
		}
		var errs []error
		for _, pid := range windowsListeners(out, port) {
			if _, err := k.run(ctx, "taskkill", "/F", "/PID", strconv.Itoa(pid)); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	// listeners only; clients connected to the port are left alone
	out, err := k.run(ctx, "lsof", "-ti", "tcp:"+strconv.Itoa(port), "-sTCP:LISTEN")
	if noMatch(err) {
		return nil
	}
	if err != nil {
		return err
	}

	var errs []error
	for _, pid := range parsePIDs(out) {
		if pid == os.Getpid() {
			continue
		}
		proc, err := os.FindProcess(pid)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			errs = append(errs, fmt.Errorf("kill pid %d: %w", pid, err))
		}
	}
	return errors.Join(errs...)
}

// noMatch reports the exit status pkill and lsof use for "nothing found".
func noMatch(err error) bool {
	var exitErr *exec.ExitError
	return errors.As(err, &exitErr) && exitErr.ExitCode() == 1
}

func parsePIDs(out []byte) []int {
	var pids []int
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		pid, err := strconv.Atoi(strings.TrimSpace(sc.Text()))
		if err == nil && pid > 0 {
			pids = append(pids, pid)
		}
	}
	return pids
}

// windowsListeners extracts pids of LISTENING sockets on port from netstat -ano.
func windowsListeners(out []byte, port int) []int {
	suffix := ":" + strconv.Itoa(port)
	seen := make(map[int]bool)
	var pids []int

	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 5 || !strings.EqualFold(fields[0], "TCP") {
			continue
		}
		if !strings.HasSuffix(fields[1], suffix) || !strings.EqualFold(fields[3], "LISTENING") {
			continue
		}
		pid, err := strconv.Atoi(fields[4])
		if err != nil || pid <= 0 || seen[pid] {
			continue
		}
		seen[pid] = true
		pids = append(pids, pid)
	}
	return pids
}
