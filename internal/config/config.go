// Package config loads krait's project configuration.
//
// Configuration lives in a sectioned key-value file, krait.ini by default:
// a [krait] section for global settings, one [env:NAME] section per
// environment, and [lint], [clean] and [dev] sections for the built-in
// tasks. A missing file selects the built-in defaults.
//
// Command lists separate entries with newlines or semicolons. The file
// format treats an unquoted ";" or "#" as the start of a comment, so values
// holding multiple commands must be double-quoted. Section and key names
// are case-insensitive: [env:Py35] declares the environment "py35", and
// targets are addressed by the lowercased name.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/viper"

	"github.com/wtimoney/krait/check"
	"github.com/wtimoney/krait/durations"
	"github.com/wtimoney/krait/internal/envrun"
)

// DefaultFileName is looked up in the project base directory when no config
// path is given.
const DefaultFileName = "krait.ini"

const envSectionPrefix = "env:"

// Error reports an invalid or inconsistent configuration.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Errorf builds a configuration Error.
func Errorf(format string, args ...any) *Error {
	return &Error{Message: fmt.Sprintf(format, args...)}
}

// Config is the fully resolved project configuration.
type Config struct {
	// BaseDir is the project root all relative paths resolve against.
	BaseDir string

	// EnvRoot is the directory holding environment directories.
	EnvRoot string

	// EnvList is the ordered matrix run by the test task.
	EnvList []string

	// Envs holds every declared environment, including pseudo-environments
	// not in the matrix.
	Envs map[string]envrun.Environment

	// DefaultPosargs substitutes {posargs} when the CLI passes no extra
	// arguments.
	DefaultPosargs []string

	// InstallCommand is the dependency-install template; {packages} is
	// replaced with the environment's dependency list.
	InstallCommand string

	Lint  LintConfig
	Clean CleanConfig
	Dev   DevConfig
}

// LintConfig carries the lint tool's inline options, exposed to commands as
// the {lint_flags} placeholder.
type LintConfig struct {
	Ignore        []string
	MaxLineLength int
	ShowSource    bool
}

// Flags renders the lint options as command-line flags.
func (l LintConfig) Flags() string {
	var parts []string
	if len(l.Ignore) > 0 {
		parts = append(parts, "--ignore="+strings.Join(l.Ignore, ","))
	}
	if l.MaxLineLength > 0 {
		parts = append(parts, fmt.Sprintf("--max-line-length=%d", l.MaxLineLength))
	}
	if l.ShowSource {
		parts = append(parts, "--show-source")
	}
	return strings.Join(parts, " ")
}

// CleanConfig lists what the clean task removes: whole directories, and
// file/directory name patterns deleted recursively.
type CleanConfig struct {
	Dirs     []string
	Patterns []string
}

// DevConfig describes the development environment created by the .dev task.
type DevConfig struct {
	Dir  string
	Deps []string
}

// Default returns the built-in configuration for a project with no
// krait.ini.
func Default(baseDir string) *Config {
	cfg := &Config{
		BaseDir:        baseDir,
		EnvRoot:        ".krait",
		EnvList:        []string{"py27", "py35", "pypy"},
		DefaultPosargs: []string{"tests"},
		InstallCommand: "pip install {packages}",
		Envs:           make(map[string]envrun.Environment),
		Lint: LintConfig{
			Ignore:        []string{"E121", "E123", "E226"},
			MaxLineLength: 110,
			ShowSource:    true,
		},
		Clean: CleanConfig{
			Dirs:     []string{"build", "dist", ".krait"},
			Patterns: []string{"*.pyc", "*.pyo", "__pycache__", "*.egg-info"},
		},
		Dev: DevConfig{
			Dir:  filepath.Join(".krait", "dev"),
			Deps: []string{"pytest", "flake8", "pre-commit"},
		},
	}
	for _, name := range cfg.EnvList {
		cfg.Envs[name] = envrun.Environment{
			Name:     name,
			Deps:     []string{"pytest"},
			Commands: []string{"pytest {posargs}"},
		}
	}
	cfg.Envs["flake8"] = envrun.Environment{
		Name:     "flake8",
		Deps:     []string{"flake8"},
		Commands: []string{"flake8 {lint_flags} ."},
	}
	cfg.Envs["pre-commit"] = envrun.Environment{
		Name:     "pre-commit",
		Deps:     []string{"pre-commit"},
		Commands: []string{"pre-commit run --all-files"},
	}
	return cfg
}

// Load reads the configuration file at path. An empty path selects
// krait.ini under baseDir; if that does not exist the defaults are
// returned.
func Load(path, baseDir string) (*Config, error) {
	if path == "" {
		candidate := filepath.Join(baseDir, DefaultFileName)
		if _, err := os.Stat(candidate); err != nil {
			return Default(baseDir), nil
		}
		path = candidate
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("ini")
	if err := v.ReadInConfig(); err != nil {
		return nil, Errorf("reading config %s: %v", path, err)
	}

	defaults := Default(baseDir)
	cfg := &Config{
		BaseDir:        baseDir,
		EnvRoot:        stringOr(v, "krait.env_root", defaults.EnvRoot),
		InstallCommand: stringOr(v, "krait.install_command", defaults.InstallCommand),
		Lint:           defaults.Lint,
		Clean:          defaults.Clean,
		Dev:            defaults.Dev,
	}

	if raw := v.GetString("krait.default_posargs"); raw != "" {
		cfg.DefaultPosargs = splitList(raw)
	} else {
		cfg.DefaultPosargs = defaults.DefaultPosargs
	}

	envs, err := loadEnvs(v)
	if err != nil {
		return nil, err
	}
	declared := len(envs) > 0
	if !declared {
		envs = defaults.Envs
	}
	// The lint and hook pseudo-environments come from the defaults unless
	// the file redefines them, so the all task works against configs that
	// declare only test environments.
	for _, name := range []string{"flake8", "pre-commit"} {
		if _, ok := envs[name]; !ok {
			envs[name] = defaults.Envs[name]
		}
	}
	cfg.Envs = envs

	switch raw := v.GetString("krait.envlist"); {
	case raw != "":
		cfg.EnvList = splitList(raw)
	case declared:
		// No explicit matrix: every declared non-pseudo environment, sorted.
		cfg.EnvList = declaredEnvNames(envs)
	default:
		cfg.EnvList = defaults.EnvList
	}

	if raw := v.GetString("lint.ignore"); raw != "" {
		cfg.Lint.Ignore = splitList(raw)
	}
	if v.IsSet("lint.max_line_length") {
		cfg.Lint.MaxLineLength = v.GetInt("lint.max_line_length")
	}
	if v.IsSet("lint.show_source") {
		cfg.Lint.ShowSource = v.GetBool("lint.show_source")
	}

	if raw := v.GetString("clean.dirs"); raw != "" {
		cfg.Clean.Dirs = splitList(raw)
	}
	if raw := v.GetString("clean.patterns"); raw != "" {
		cfg.Clean.Patterns = splitList(raw)
	}

	if raw := v.GetString("dev.dir"); raw != "" {
		cfg.Dev.Dir = raw
	}
	if raw := v.GetString("dev.deps"); raw != "" {
		cfg.Dev.Deps = splitList(raw)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if err := check.NonEmpty(c.EnvRoot, "env_root"); err != nil {
		return &Error{Message: err.Error()}
	}
	if len(c.EnvList) == 0 {
		return Errorf("envlist is empty")
	}
	for _, name := range c.EnvList {
		env, ok := c.Envs[name]
		if !ok {
			return Errorf("envlist references undeclared environment %q", name)
		}
		if len(env.Commands) == 0 {
			return Errorf("environment %q has no commands", name)
		}
	}
	return nil
}

// Environment returns the named environment or a configuration error.
func (c *Config) Environment(name string) (envrun.Environment, error) {
	env, ok := c.Envs[name]
	if !ok {
		return envrun.Environment{}, Errorf("unknown environment %q", name)
	}
	return env, nil
}

func loadEnvs(v *viper.Viper) (map[string]envrun.Environment, error) {
	names := map[string]bool{}
	for _, key := range v.AllKeys() {
		if !strings.HasPrefix(key, envSectionPrefix) {
			continue
		}
		rest := key[len(envSectionPrefix):]
		name, _, ok := strings.Cut(rest, ".")
		if !ok || name == "" {
			return nil, Errorf("malformed environment section key %q", key)
		}
		names[name] = true
	}

	envs := make(map[string]envrun.Environment, len(names))
	for name := range names {
		section := envSectionPrefix + name
		env := envrun.Environment{Name: name}
		env.Deps = splitList(v.GetString(section + ".deps"))
		env.Commands = splitCommands(v.GetString(section + ".commands"))
		env.PassEnv = splitList(v.GetString(section + ".passenv"))

		if raw := v.GetString(section + ".setenv"); raw != "" {
			setEnv := make(map[string]string)
			for _, pair := range splitCommands(raw) {
				k, val, ok := strings.Cut(pair, "=")
				if !ok {
					return nil, Errorf("environment %q: malformed setenv entry %q", name, pair)
				}
				setEnv[strings.TrimSpace(k)] = strings.TrimSpace(val)
			}
			env.SetEnv = setEnv
		}

		if raw := v.GetString(section + ".timeout"); raw != "" {
			d, err := durations.Parse(raw)
			if err != nil {
				return nil, Errorf("environment %q: %v", name, err)
			}
			if d < 0 {
				return nil, Errorf("environment %q: negative timeout %q", name, raw)
			}
			env.Timeout = d
		}

		envs[name] = env
	}
	return envs, nil
}

// splitList splits on commas and whitespace, dropping empty entries.
func splitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	return fields
}

// splitCommands splits an ordered command list on newlines and semicolons.
func splitCommands(raw string) []string {
	var out []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool {
		return r == '\n' || r == ';'
	}) {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func declaredEnvNames(envs map[string]envrun.Environment) []string {
	var names []string
	for name := range envs {
		if name == "flake8" || name == "pre-commit" {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func stringOr(v *viper.Viper, key, fallback string) string {
	if s := v.GetString(key); s != "" {
		return s
	}
	return fallback
}
