package cli

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wtimoney/krait/internal/config"
)

func TestParseInvocation_Defaults(t *testing.T) {
	inv, err := ParseInvocation(nil)
	if err != nil {
		t.Fatal(err)
	}
	if inv.Target != DefaultTarget {
		t.Errorf("target = %q, want %q", inv.Target, DefaultTarget)
	}
	if len(inv.Posargs) != 0 {
		t.Errorf("posargs = %v", inv.Posargs)
	}
	if !filepath.IsAbs(inv.BaseDir) {
		t.Errorf("base dir %q is not absolute", inv.BaseDir)
	}
}

func TestParseInvocation_TargetAndPosargs(t *testing.T) {
	inv, err := ParseInvocation([]string{"-v", "py35", "tests/test_api.py", "-x"})
	if err != nil {
		t.Fatal(err)
	}
	if inv.Target != "py35" {
		t.Errorf("target = %q", inv.Target)
	}
	if got := strings.Join(inv.Posargs, " "); got != "tests/test_api.py -x" {
		t.Errorf("posargs = %q", got)
	}
	if !inv.Verbose {
		t.Error("verbose flag not set")
	}
}

func TestParseInvocation_Errors(t *testing.T) {
	for _, args := range [][]string{
		{"-nope"},
		{"-v", "-q"},
	} {
		_, err := ParseInvocation(args)
		if err == nil {
			t.Fatalf("ParseInvocation(%v): expected error", args)
		}
		var invErr *InvocationError
		if !errors.As(err, &invErr) {
			t.Errorf("ParseInvocation(%v): got %T, want InvocationError", args, err)
		}
	}
}

func writeProject(t *testing.T, configContents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultFileName)
	if err := os.WriteFile(path, []byte(configContents), 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestExecute_RunsEnvironmentWithDefaultPosargs(t *testing.T) {
	dir := writeProject(t, `
[krait]
envlist = unit

[env:unit]
commands = echo {posargs} > out.txt
`)
	var stdout, stderr strings.Builder
	inv := Invocation{BaseDir: dir, Target: "unit"}
	code, err := Execute(context.Background(), inv, &stdout, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	if code != ExitSuccess {
		t.Fatalf("exit = %d", code)
	}
	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(string(data)); got != "tests" {
		t.Errorf("posargs = %q, want default %q", got, "tests")
	}
	if !strings.Contains(stdout.String(), "unit: ok") {
		t.Errorf("summary missing from stdout: %q", stdout.String())
	}
}

func TestExecute_CommandExitCodeSurfacesUnchanged(t *testing.T) {
	dir := writeProject(t, `
[krait]
envlist = unit

[env:unit]
commands = exit 5
`)
	var stdout, stderr strings.Builder
	inv := Invocation{BaseDir: dir, Target: "unit", Quiet: true}
	code, err := Execute(context.Background(), inv, &stdout, &stderr)
	if err != nil {
		t.Fatal(err)
	}
	if code != 5 {
		t.Errorf("exit = %d, want 5", code)
	}
	if stdout.String() != "" {
		t.Errorf("quiet run wrote to stdout: %q", stdout.String())
	}
}

func TestExecute_ConfigErrorExitCode(t *testing.T) {
	dir := writeProject(t, `
[krait]
envlist = ghost

[env:real]
commands = true
`)
	var stdout, stderr strings.Builder
	inv := Invocation{BaseDir: dir, Target: "test", Quiet: true}
	code, err := Execute(context.Background(), inv, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected configuration error")
	}
	if code != ExitConfigError {
		t.Errorf("exit = %d, want %d", code, ExitConfigError)
	}
}

func TestExecute_UnknownTargetIsConfigError(t *testing.T) {
	dir := writeProject(t, `
[krait]
envlist = unit

[env:unit]
commands = true
`)
	var stdout, stderr strings.Builder
	inv := Invocation{BaseDir: dir, Target: "bogus", Quiet: true}
	code, err := Execute(context.Background(), inv, &stdout, &stderr)
	if err == nil {
		t.Fatal("expected error for unknown target")
	}
	if code != ExitConfigError {
		t.Errorf("exit = %d, want %d", code, ExitConfigError)
	}
}
