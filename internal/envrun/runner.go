package envrun

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/wtimoney/krait/fsutil"
	"github.com/wtimoney/krait/internal/logging"
)

// Runner provisions environment directories and runs command chains inside
// them. One Runner serves every environment of a project.
type Runner struct {
	// BaseDir is the project root; commands run with it as working
	// directory.
	BaseDir string

	// EnvRoot is the directory holding environment directories, relative
	// to BaseDir unless absolute.
	EnvRoot string

	// InstallCommand is the dependency-install template; {packages} is
	// replaced with the space-joined dependency list.
	InstallCommand string

	// DefaultPosargs substitutes {posargs} when the caller passes none.
	DefaultPosargs []string

	// Vars are extra placeholder values available to every command.
	Vars map[string]string

	Log    *logging.Logger
	Stdout io.Writer
	Stderr io.Writer
}

// NewRunner creates a Runner with outputs wired to the process streams.
func NewRunner(baseDir string, log *logging.Logger) *Runner {
	return &Runner{
		BaseDir: baseDir,
		EnvRoot: ".krait",
		Log:     log,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// EnvDir returns the directory for a named environment.
func (r *Runner) EnvDir(name string) string {
	root := r.EnvRoot
	if !filepath.IsAbs(root) {
		root = filepath.Join(r.BaseDir, root)
	}
	return filepath.Join(root, name)
}

// Run provisions env's directory, installs its dependencies when needed and
// executes its command chain in declared order.
//
// The returned int is the exit status of the run: zero on success, otherwise
// the first failing command's exit code, surfaced unchanged. A non-nil error
// reports infrastructure failures (spawn, filesystem), not command failures.
func (r *Runner) Run(ctx context.Context, env Environment, posargs []string) (int, error) {
	if env.Name == "" {
		return 0, fmt.Errorf("environment has no name")
	}
	if len(env.Commands) == 0 {
		return 0, fmt.Errorf("environment %q has no commands", env.Name)
	}

	if env.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, env.Timeout)
		defer cancel()
	}

	envDir := r.EnvDir(env.Name)
	code, err := r.ensure(ctx, envDir, env)
	if err != nil || code != 0 {
		return code, err
	}

	sub := r.substitution(env, envDir, posargs)
	setEnv := r.commandEnv(env, envDir)

	for _, command := range env.Commands {
		expanded := sub.Expand(command)
		r.Log.Debugw("running command", "env", env.Name, "command", expanded)
		res, err := runShell(ctx, r.BaseDir, expanded, setEnv, env.PassEnv, r.Stdout, r.Stderr)
		if err != nil {
			return 0, err
		}
		if res.ExitCode != 0 {
			r.Log.Debugw("command failed", "env", env.Name, "exit", res.ExitCode)
			return res.ExitCode, nil
		}
	}
	return 0, nil
}

// ensure creates or reuses the environment directory. A directory is reused
// only while its stored fingerprint matches the current dependency state;
// otherwise it is recreated and dependencies reinstalled.
func (r *Runner) ensure(ctx context.Context, envDir string, env Environment) (int, error) {
	want := ComputeFingerprint(r.InstallCommand, env.Deps)

	stored, err := os.ReadFile(filepath.Join(envDir, fingerprintFile))
	if err == nil && Fingerprint(strings.TrimSpace(string(stored))) == want {
		r.Log.Debugw("reusing environment", "env", env.Name, "dir", envDir)
		return 0, nil
	}

	if err := os.RemoveAll(envDir); err != nil {
		return 0, fmt.Errorf("recreating %s: %w", envDir, err)
	}
	if err := os.MkdirAll(envDir, 0o755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", envDir, err)
	}

	if len(env.Deps) > 0 {
		code, err := r.install(ctx, envDir, env)
		if err != nil || code != 0 {
			return code, err
		}
	}

	if err := fsutil.AtomicWriteFile(filepath.Join(envDir, fingerprintFile), []byte(want.String()+"\n"), 0o644); err != nil {
		return 0, fmt.Errorf("writing fingerprint: %w", err)
	}
	return 0, nil
}

func (r *Runner) install(ctx context.Context, envDir string, env Environment) (int, error) {
	if r.InstallCommand == "" {
		return 0, fmt.Errorf("environment %q declares deps but no install command is configured", env.Name)
	}
	sub := r.substitution(env, envDir, nil)
	sub.Vars["packages"] = strings.Join(env.Deps, " ")
	command := sub.Expand(r.InstallCommand)

	r.Log.Infow("installing dependencies", "env", env.Name, "deps", env.Deps)
	res, err := runShell(ctx, r.BaseDir, command, r.commandEnv(env, envDir), env.PassEnv, r.Stdout, r.Stderr)
	if err != nil {
		return 0, err
	}
	return res.ExitCode, nil
}

// InstallInto recreates dir from scratch and installs deps into it. Used by
// the dev-environment task; unlike Run it never reuses an existing
// directory.
func (r *Runner) InstallInto(ctx context.Context, dir string, deps []string) (int, error) {
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(r.BaseDir, dir)
	}
	if err := os.RemoveAll(dir); err != nil {
		return 0, fmt.Errorf("recreating %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", dir, err)
	}
	if len(deps) == 0 {
		return 0, nil
	}
	env := Environment{Name: filepath.Base(dir), Deps: deps}
	return r.install(ctx, dir, env)
}

func (r *Runner) substitution(env Environment, envDir string, posargs []string) Substitution {
	vars := map[string]string{
		"envname": env.Name,
		"envdir":  envDir,
		"basedir": r.BaseDir,
	}
	for k, v := range r.Vars {
		vars[k] = v
	}
	return Substitution{
		Posargs:        posargs,
		DefaultPosargs: r.DefaultPosargs,
		Vars:           vars,
	}
}

func (r *Runner) commandEnv(env Environment, envDir string) map[string]string {
	setEnv := map[string]string{
		"KRAIT_ENV_NAME": env.Name,
		"KRAIT_ENV_DIR":  envDir,
	}
	for k, v := range env.SetEnv {
		setEnv[k] = v
	}
	return setEnv
}
