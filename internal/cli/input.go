package cli

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Semantic exit codes. Environment command failures are surfaced with the
// command's own exit code instead; these cover krait's own failure modes.
const (
	ExitSuccess           = 0
	ExitInvalidInvocation = 2
	ExitConfigError       = 3
	ExitInternalError     = 4
)

// Invocation is the canonicalized description of one krait run: a target
// (task or environment name) plus the positional arguments forwarded to
// the {posargs} placeholder.
type Invocation struct {
	// ConfigPath overrides the default krait.ini lookup when non-empty.
	ConfigPath string

	// BaseDir is the absolute project root.
	BaseDir string

	// Target is the task or environment to run.
	Target string

	// Posargs are forwarded to commands via {posargs}.
	Posargs []string

	Verbose bool
	Quiet   bool
}

// DefaultTarget runs when no positional argument is given.
const DefaultTarget = "all"

type InvocationError struct {
	Message string
}

func (e *InvocationError) Error() string {
	if e == nil {
		return ""
	}
	return e.Message
}

func invalidInvocationf(format string, args ...any) error {
	return &InvocationError{Message: fmt.Sprintf(format, args...)}
}

// ParseInvocation parses command-line arguments into a canonical
// Invocation. The first positional argument selects the target; everything
// after it becomes posargs.
func ParseInvocation(args []string) (Invocation, error) {
	fs := flag.NewFlagSet("krait", flag.ContinueOnError)
	fs.SetOutput(io.Discard) // parsing errors are returned, not printed

	var configPath string
	var baseDir string
	var verbose bool
	var quiet bool

	fs.StringVar(&configPath, "c", "", "Configuration file (default: krait.ini in the base directory).")
	fs.StringVar(&baseDir, "C", "", "Project base directory (default: current directory).")
	fs.BoolVar(&verbose, "v", false, "Verbose logging.")
	fs.BoolVar(&quiet, "q", false, "Suppress krait's own output.")

	if err := fs.Parse(args); err != nil {
		return Invocation{}, invalidInvocationf("%v", err)
	}
	if verbose && quiet {
		return Invocation{}, invalidInvocationf("-v and -q are mutually exclusive")
	}

	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return Invocation{}, fmt.Errorf("resolving working directory: %w", err)
		}
		baseDir = wd
	}
	baseDir, err := filepath.Abs(baseDir)
	if err != nil {
		return Invocation{}, invalidInvocationf("base directory: %v", err)
	}

	inv := Invocation{
		ConfigPath: configPath,
		BaseDir:    baseDir,
		Target:     DefaultTarget,
		Verbose:    verbose,
		Quiet:      quiet,
	}
	if rest := fs.Args(); len(rest) > 0 {
		inv.Target = rest[0]
		inv.Posargs = rest[1:]
	}
	return inv, nil
}
