package envrun

import (
	"regexp"
	"strings"
)

// posargsRE matches {posargs} with an optional inline fallback,
// e.g. {posargs:tests}.
var posargsRE = regexp.MustCompile(`\{posargs(?::([^}]*))?\}`)

// Substitution holds the values available to command placeholders.
type Substitution struct {
	// Posargs are the extra CLI arguments, if any were given.
	Posargs []string

	// DefaultPosargs is used when Posargs is empty and the placeholder
	// carries no inline fallback.
	DefaultPosargs []string

	// Vars maps the remaining placeholder names ({envname}, {envdir},
	// {basedir}, {packages}, {lint_flags}) to their values.
	Vars map[string]string
}

// Expand substitutes every placeholder in command.
//
// {posargs} resolution order: explicit CLI arguments, then the inline
// fallback, then the configured default.
func (s Substitution) Expand(command string) string {
	out := posargsRE.ReplaceAllStringFunc(command, func(m string) string {
		if len(s.Posargs) > 0 {
			return strings.Join(s.Posargs, " ")
		}
		sub := posargsRE.FindStringSubmatch(m)
		if sub[1] != "" {
			return sub[1]
		}
		return strings.Join(s.DefaultPosargs, " ")
	})
	for name, value := range s.Vars {
		out = strings.ReplaceAll(out, "{"+name+"}", value)
	}
	return out
}
