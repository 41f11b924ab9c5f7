package lenscli

import (
	"strings"

	"github.com/spf13/cobra"
)

// RewriteArgsForImplicitRefs lets `asmlens main.asm:12:5` mean
// `asmlens refs main.asm:12:5`: a first positional argument shaped like a
// target selects the refs command. Anything else is left for cobra.
func RewriteArgsForImplicitRefs(root *cobra.Command, args []string) []string {
	if root == nil || len(args) == 0 {
		return args
	}

	first, ok := firstPositionalArgAfterFlags(args)
	if !ok {
		return args
	}
	if knownTopLevelCommands(root)[strings.TrimSpace(first)] {
		return args
	}
	if !looksLikeTarget(first) {
		return args
	}

	return append([]string{"refs"}, args...)
}

func knownTopLevelCommands(root *cobra.Command) map[string]bool {
	known := map[string]bool{
		"help":       true,
		"completion": true,
	}

	if root == nil {
		return known
	}

	for _, c := range root.Commands() {
		if c == nil {
			continue
		}
		known[c.Name()] = true
		for _, a := range c.Aliases {
			known[a] = true
		}
	}

	return known
}

func firstPositionalArgAfterFlags(args []string) (string, bool) {
	skipNext := false
	positionalOnly := false

	for i := 0; i < len(args); i++ {
		a := strings.TrimSpace(args[i])
		if a == "" {
			continue
		}
		if skipNext {
			skipNext = false
			continue
		}

		if a == "--" {
			positionalOnly = true
			continue
		}

		if positionalOnly {
			return a, true
		}

		if strings.HasPrefix(a, "--") {
			if strings.Contains(a, "=") {
				continue
			}

			// --explain takes its optional value only as --explain=json,
			// so a bare --explain never swallows the next argument.
			switch strings.TrimPrefix(a, "--") {
			case "root", "language", "glob", "exclude", "jobs", "context":
				skipNext = true
			}
			continue
		}

		if strings.HasPrefix(a, "-") && a != "-" {
			// Handle value-taking short flags: -C/-g/-x/-j/-c
			if len(a) == 2 {
				switch a[1] {
				case 'C', 'g', 'x', 'j', 'c':
					skipNext = true
				}
				continue
			}

			// Inline values, e.g. -Cproj / -C=proj / -c2
			continue
		}

		return a, true
	}

	return "", false
}
