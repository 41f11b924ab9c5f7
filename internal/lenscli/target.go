package lenscli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

// parseTarget splits a human 1-based "file:line:col" argument into a path
// and a 0-based position. The column defaults to 1 when omitted.
func parseTarget(arg string) (string, model.Pos, error) {
	arg = strings.TrimSpace(arg)

	i := strings.LastIndex(arg, ":")
	if i <= 0 {
		return "", model.Pos{}, fmt.Errorf("target %q must be file:line[:col]", arg)
	}
	last, err := strconv.Atoi(arg[i+1:])
	if err != nil || last < 1 {
		return "", model.Pos{}, fmt.Errorf("target %q must be file:line[:col] with 1-based numbers", arg)
	}

	j := strings.LastIndex(arg[:i], ":")
	if j > 0 {
		if line, err := strconv.Atoi(arg[j+1 : i]); err == nil {
			if line < 1 {
				return "", model.Pos{}, fmt.Errorf("target %q must be file:line[:col] with 1-based numbers", arg)
			}
			return arg[:j], model.Pos{Line: line - 1, Col: last - 1}, nil
		}
	}

	return arg[:i], model.Pos{Line: last - 1, Col: 0}, nil
}

// looksLikeTarget reports whether arg has the file:line[:col] shape, so a
// bare target can be routed to the refs command.
func looksLikeTarget(arg string) bool {
	_, _, err := parseTarget(arg)
	return err == nil
}
