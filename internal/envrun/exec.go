package envrun

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"syscall"
)

// commandResult holds the outcome of one shell command.
type commandResult struct {
	ExitCode int
}

// runShell executes one command string via "sh -c" in dir.
//
// The child environment is built from an allowlist: setEnv entries, then the
// passEnv names copied from the host when present. Host variables not listed
// are invisible to the command. PATH is always forwarded so the shell can
// find tools.
//
// The command runs in its own process group; on context cancellation the
// whole group is killed so no grandchildren outlive the run.
func runShell(ctx context.Context, dir, command string, setEnv map[string]string, passEnv []string, stdout, stderr io.Writer) (commandResult, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	cmd.Dir = dir
	cmd.Env = buildEnv(setEnv, passEnv)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return commandResult{}, fmt.Errorf("starting %q: %w", command, err)
	}

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var waitErr error
	select {
	case <-ctx.Done():
		if cmd.Process != nil {
			syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		<-done
		return commandResult{}, fmt.Errorf("command %q interrupted: %w", command, ctx.Err())
	case waitErr = <-done:
	}

	if waitErr == nil {
		return commandResult{ExitCode: 0}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		if status, ok := exitErr.Sys().(syscall.WaitStatus); ok {
			return commandResult{ExitCode: status.ExitStatus()}, nil
		}
		return commandResult{ExitCode: exitErr.ExitCode()}, nil
	}
	return commandResult{}, fmt.Errorf("running %q: %w", command, waitErr)
}

// buildEnv assembles the child environment from the allowlist only.
func buildEnv(setEnv map[string]string, passEnv []string) []string {
	merged := make(map[string]string, len(setEnv)+len(passEnv)+1)
	if path, ok := os.LookupEnv("PATH"); ok {
		merged["PATH"] = path
	}
	for _, name := range passEnv {
		if v, ok := os.LookupEnv(name); ok {
			merged[name] = v
		}
	}
	for k, v := range setEnv {
		merged[k] = v
	}

	names := make([]string, 0, len(merged))
	for k := range merged {
		names = append(names, k)
	}
	sort.Strings(names)
	env := make([]string, 0, len(names))
	for _, k := range names {
		env = append(env, k+"="+merged[k])
	}
	return env
}
