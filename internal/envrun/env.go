// Package envrun creates isolated environments and runs their command
// chains with fail-fast exit-code propagation.
package envrun

import "time"

// Environment is a named, isolated execution context: a dependency list to
// install into its directory and an ordered command chain to run.
type Environment struct {
	// Name identifies the environment; it is also the directory name under
	// the environment root.
	Name string

	// Deps are the packages installed into the environment before any
	// command runs.
	Deps []string

	// Commands is the ordered shell command chain. Execution stops at the
	// first non-zero exit.
	Commands []string

	// PassEnv lists host environment variables forwarded to commands.
	// Everything else from the host environment is withheld.
	PassEnv []string

	// SetEnv holds variables set explicitly for commands.
	SetEnv map[string]string

	// Timeout bounds each run of the full command chain. Zero means no
	// limit.
	Timeout time.Duration
}
