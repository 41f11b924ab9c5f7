// Package scope resolves the MODULE/STRUCT nesting context of a source
// position without parsing: a linear scan over comment-stripped lines.
package scope

import (
	"regexp"
	"strings"

	"github.com/CoolSpy3/asm-code-lens/internal/core/comment"
)

var (
	openRe  = regexp.MustCompile(`(?i)^\s*(module|struct)\s+([a-z_][\w.]*)`)
	closeRe = regexp.MustCompile(`(?i)^\s*(?:endmodule|endstruct)\b`)
)

// Event is a module or struct boundary. Kind is "module" or "struct" and is
// only set on opens.
type Event struct {
	Line int
	Open bool
	Kind string
	Name string
}

// Events scans stripped lines for block boundaries. Close events do not name
// what they close; the resolver pops blindly, so unbalanced files degrade
// the same way the scan itself does: an extra close is ignored at the
// bottom, a missing close leaves the block open to end of file.
func Events(stripped []string) []Event {
	var evs []Event
	for i, line := range stripped {
		if m := openRe.FindStringSubmatch(line); m != nil {
			evs = append(evs, Event{Line: i, Open: true, Kind: strings.ToLower(m[1]), Name: m[2]})
			continue
		}
		if closeRe.MatchString(line) {
			evs = append(evs, Event{Line: i})
		}
	}
	return evs
}

// ModuleAt replays events strictly before line n and returns the dotted
// module path open at that point, "" at top level.
func ModuleAt(events []Event, n int) string {
	var stack []string
	for _, ev := range events {
		if ev.Line >= n {
			break
		}
		if ev.Open {
			stack = append(stack, ev.Name)
		} else if len(stack) > 0 {
			stack = stack[:len(stack)-1]
		}
	}
	return strings.Join(stack, ".")
}

func isLabelByte(c byte) bool {
	return c == '_' || c == '.' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// LabelAt extends left and right from col over label characters and returns
// the full dotted label, "" when the position is not on one. A cursor
// sitting just past the last character still hits the label.
func LabelAt(line string, col int) string {
	if col < 0 {
		return ""
	}
	if col > len(line) {
		col = len(line)
	}
	if col == len(line) || !isLabelByte(line[col]) {
		if col == 0 || !isLabelByte(line[col-1]) {
			return ""
		}
		col--
	}
	start, end := col, col+1
	for start > 0 && isLabelByte(line[start-1]) {
		start--
	}
	for end < len(line) && isLabelByte(line[end]) {
		end++
	}
	return line[start:end]
}

// Info is the per-file scope data the reducer caches: the stripped lines
// and their boundary events, built from a single read of the file.
type Info struct {
	Lines  []string
	Events []Event
}

// NewInfo strips raw lines and precomputes their events.
func NewInfo(raw []string) *Info {
	stripped := comment.StripLines(raw)
	return &Info{Lines: stripped, Events: Events(stripped)}
}

// ModuleAt resolves the module path containing line n.
func (fi *Info) ModuleAt(n int) string {
	if fi == nil {
		return ""
	}
	return ModuleAt(fi.Events, n)
}

// LabelAt resolves the label under (line, col) together with its
// module-qualified form. moduleLabel equals label at top level.
func (fi *Info) LabelAt(line, col int) (label, moduleLabel string) {
	if fi == nil || line < 0 || line >= len(fi.Lines) {
		return "", ""
	}
	label = LabelAt(fi.Lines[line], col)
	if label == "" {
		return "", ""
	}
	moduleLabel = label
	if mod := fi.ModuleAt(line); mod != "" {
		moduleLabel = mod + "." + label
	}
	return label, moduleLabel
}
