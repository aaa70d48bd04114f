// Package flagx lets several config layers read their own flags from one
// command line without tripping over each other's unknown flags.
package flagx

import (
	"flag"
	"io"
	"strings"
)

// FilterArgs keeps only the allowed flags (and their values) from args.
// Both "-f value" and "-f=value" forms are recognised; a following token that
// starts with "-" is never taken as a value.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if _, keep := allowed[name]; keep {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, keep := allowed[arg]; !keep {
			continue
		}
		filtered = append(filtered, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			filtered = append(filtered, args[i+1])
			i++
		}
	}

	return filtered
}

// lookupString parses a single string flag known by several names.
func lookupString(args []string, names ...string) string {
	allowed := make([]string, 0, len(names))
	for _, n := range names {
		allowed = append(allowed, "-"+n, "--"+n)
	}

	var value string
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	for _, n := range names {
		fs.StringVar(&value, n, "", "")
	}
	_ = fs.Parse(FilterArgs(args, allowed))

	return value
}

// ConfigFile returns the path given with -c/-config, or "".
func ConfigFile(args []string) string {
	return lookupString(args, "c", "config")
}

// EnvFile returns the dotenv path given with -env, or "".
func EnvFile(args []string) string {
	return lookupString(args, "env")
}
