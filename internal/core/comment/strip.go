// Package comment blanks assembly comments out of source lines while
// keeping every remaining byte at its original column.
package comment

// Stripper replaces comment text with spaces, byte for byte, so that
// column numbers computed on the stripped text are valid for the original.
// Block comments carry state across lines, so a Stripper must see the lines
// of one file in order. Strings are left intact; the stripper only tracks
// them so that a ';' or '//' inside quotes does not open a comment.
type Stripper struct {
	inBlock bool
}

// Line strips one line and advances the block-comment state.
func (s *Stripper) Line(line string) string {
	n := len(line)
	buf := []byte(line)
	i := 0

	if s.inBlock {
		j := indexFrom(line, 0, "*/")
		if j < 0 {
			blank(buf, 0, n)
			return string(buf)
		}
		blank(buf, 0, j+2)
		s.inBlock = false
		i = j + 2
	}

	for i < n {
		c := line[i]
		switch {
		case c == '"':
			i = skipString(line, i, '"')
		case c == '\'' && !precededByWord(line, i):
			// A quote glued to a word char is a shadow-register suffix
			// (ex af,af') rather than a char literal.
			i = skipString(line, i, '\'')
		case c == ';':
			blank(buf, i, n)
			return string(buf)
		case c == '/' && i+1 < n && line[i+1] == '/':
			blank(buf, i, n)
			return string(buf)
		case c == '/' && i+1 < n && line[i+1] == '*':
			j := indexFrom(line, i+2, "*/")
			if j < 0 {
				blank(buf, i, n)
				s.inBlock = true
				return string(buf)
			}
			blank(buf, i, j+2)
			i = j + 2
		default:
			i++
		}
	}
	return string(buf)
}

// StripLines strips a whole file with a fresh Stripper.
func StripLines(lines []string) []string {
	s := &Stripper{}
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = s.Line(line)
	}
	return out
}

func blank(buf []byte, from, to int) {
	for i := from; i < to; i++ {
		buf[i] = ' '
	}
}

func indexFrom(s string, from int, sub string) int {
	for i := from; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}

// skipString returns the index just past the closing delimiter, honoring
// backslash escapes. An unterminated string runs to end of line.
func skipString(line string, open int, delim byte) int {
	for i := open + 1; i < len(line); i++ {
		if line[i] == '\\' {
			i++
			continue
		}
		if line[i] == delim {
			return i + 1
		}
	}
	return len(line)
}

func precededByWord(line string, i int) bool {
	if i == 0 {
		return false
	}
	c := line[i-1]
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
