package cli

import (
	"context"
	"errors"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"

	"github.com/wtimoney/krait/internal/config"
	"github.com/wtimoney/krait/internal/envrun"
	"github.com/wtimoney/krait/internal/logging"
	"github.com/wtimoney/krait/internal/task"
)

// Execute runs one invocation end to end: load configuration, wire the
// environment runner, dispatch the target and print the summary.
//
// The returned int is the process exit code. Failing environment commands
// surface their own exit code; krait's failure modes use the Exit*
// constants. A non-nil error carries the message for stderr.
func Execute(ctx context.Context, inv Invocation, stdout, stderr io.Writer) (int, error) {
	level := zapcore.InfoLevel
	switch {
	case inv.Verbose:
		level = zapcore.DebugLevel
	case inv.Quiet:
		level = zapcore.ErrorLevel
	}
	log, err := logging.New(level)
	if err != nil {
		return ExitInternalError, err
	}
	defer log.Sync()

	runID := uuid.NewString()
	log.Debugw("starting run", "run_id", runID, "target", inv.Target, "posargs", inv.Posargs)

	cfg, err := config.Load(inv.ConfigPath, inv.BaseDir)
	if err != nil {
		return ExitConfigError, err
	}

	runner := envrun.NewRunner(cfg.BaseDir, log)
	runner.EnvRoot = cfg.EnvRoot
	runner.InstallCommand = cfg.InstallCommand
	runner.DefaultPosargs = cfg.DefaultPosargs
	runner.Vars = map[string]string{"lint_flags": cfg.Lint.Flags()}
	runner.Stdout = stdout
	runner.Stderr = stderr

	reg := task.NewRegistry(cfg, runner, log)
	code, invokeErr := reg.Invoke(ctx, inv.Target, inv.Posargs)

	if !inv.Quiet {
		if err := reg.Summary.Write(stdout); err != nil {
			log.Errorw("writing summary", "error", err)
		}
	}

	if invokeErr != nil {
		var ce *config.Error
		if errors.As(invokeErr, &ce) {
			return ExitConfigError, invokeErr
		}
		return ExitInternalError, invokeErr
	}
	return code, nil
}
