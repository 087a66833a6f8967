// Package task dispatches krait's built-in tasks and named environments.
//
// A task is an ordered sequence of steps; a step either runs one
// environment, runs the whole test matrix, or performs a filesystem action
// like clean. Steps run strictly in order and the first non-zero exit
// status stops the task.
package task

import (
	"context"
	"time"

	"github.com/wtimoney/krait/internal/config"
	"github.com/wtimoney/krait/internal/envrun"
	"github.com/wtimoney/krait/internal/logging"
	"github.com/wtimoney/krait/internal/report"
)

// Built-in task names.
const (
	TaskAll       = "all"
	TaskClean     = "clean"
	TaskTest      = "test"
	TaskFlake8    = "flake8"
	TaskPreCommit = "pre-commit"
	TaskDev       = ".dev"
)

// Registry resolves task names and runs them.
type Registry struct {
	Cfg     *config.Config
	Runner  *envrun.Runner
	Summary *report.Summary
	Log     *logging.Logger
}

// NewRegistry wires a registry over a loaded configuration.
func NewRegistry(cfg *config.Config, runner *envrun.Runner, log *logging.Logger) *Registry {
	return &Registry{
		Cfg:     cfg,
		Runner:  runner,
		Summary: report.NewSummary(),
		Log:     log,
	}
}

// Invoke runs the named task and returns its exit status. A name that is
// not a built-in task selects the environment of that name; a name that is
// neither is a configuration error.
//
// The int result mirrors the task's first failing command, unchanged. A
// non-nil error reports configuration or infrastructure problems.
func (r *Registry) Invoke(ctx context.Context, name string, posargs []string) (int, error) {
	switch name {
	case TaskAll:
		return r.runAll(ctx, posargs)
	case TaskClean:
		return 0, Clean(r.Cfg.BaseDir, r.Cfg.Clean, r.Log)
	case TaskTest:
		return r.runMatrix(ctx, posargs)
	case TaskFlake8, TaskPreCommit:
		return r.runEnv(ctx, name, posargs)
	case TaskDev:
		return r.runDev(ctx)
	default:
		if _, ok := r.Cfg.Envs[name]; ok {
			return r.runEnv(ctx, name, posargs)
		}
		return 0, config.Errorf("unknown task or environment %q", name)
	}
}

// runAll is the test matrix, flake8 and pre-commit in order, stopping at
// the first failure. It does not clean first, so environment reuse applies.
func (r *Registry) runAll(ctx context.Context, posargs []string) (int, error) {
	code, err := r.runMatrix(ctx, posargs)
	if err != nil || code != 0 {
		return code, err
	}
	code, err = r.runEnv(ctx, TaskFlake8, nil)
	if err != nil || code != 0 {
		return code, err
	}
	return r.runEnv(ctx, TaskPreCommit, nil)
}

// runMatrix runs every envlist environment in declared order. Every
// environment runs even when an earlier one fails; the result is the first
// failing environment's exit status.
func (r *Registry) runMatrix(ctx context.Context, posargs []string) (int, error) {
	first := 0
	for _, name := range r.Cfg.EnvList {
		code, err := r.runEnv(ctx, name, posargs)
		if err != nil {
			return 0, err
		}
		if code != 0 && first == 0 {
			first = code
		}
	}
	return first, nil
}

func (r *Registry) runEnv(ctx context.Context, name string, posargs []string) (int, error) {
	env, err := r.Cfg.Environment(name)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	code, err := r.Runner.Run(ctx, env, posargs)
	if err != nil {
		return 0, err
	}
	r.Summary.Record(report.Result{
		Env:      name,
		ExitCode: code,
		Duration: time.Since(start),
	})
	return code, nil
}

// runDev recreates the development environment from scratch. An existing
// directory is discarded, so a rerun always succeeds on the same footing
// as the first run.
func (r *Registry) runDev(ctx context.Context) (int, error) {
	r.Log.Infow("creating development environment", "dir", r.Cfg.Dev.Dir)
	return r.Runner.InstallInto(ctx, r.Cfg.Dev.Dir, r.Cfg.Dev.Deps)
}
