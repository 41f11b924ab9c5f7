// Package unit computes display ranges around a line: context windows,
// enclosing MODULE/STRUCT blocks, blank-line paragraphs.
package unit

import (
	"strings"

	"github.com/CoolSpy3/asm-code-lens/internal/core/scope"
)

// LineRange widens line by context lines each way, clamped to [0, total).
// Lines are 0-based; the end is inclusive.
func LineRange(total, line, context int) (start, end int) {
	if total <= 0 {
		return 0, 0
	}
	line = clamp(line, 0, total-1)
	if context < 0 {
		context = 0
	}
	start = line - context
	end = line + context
	if start < 0 {
		start = 0
	}
	if end > total-1 {
		end = total - 1
	}
	return start, end
}

// ModuleBlock returns the smallest MODULE or STRUCT block containing line.
// An unclosed block runs to the last line.
func ModuleBlock(events []scope.Event, total, line int) (start, end int, ok bool) {
	type pair struct{ open, close int }
	var stack []int
	var pairs []pair
	for _, ev := range events {
		if ev.Open {
			stack = append(stack, ev.Line)
			continue
		}
		if len(stack) > 0 {
			pairs = append(pairs, pair{open: stack[len(stack)-1], close: ev.Line})
			stack = stack[:len(stack)-1]
		}
	}
	for _, open := range stack {
		pairs = append(pairs, pair{open: open, close: total - 1})
	}

	best := -1
	for i, p := range pairs {
		if p.open > line || line > p.close {
			continue
		}
		if best == -1 || p.close-p.open < pairs[best].close-pairs[best].open {
			best = i
		}
	}
	if best == -1 {
		return 0, 0, false
	}
	return pairs[best].open, pairs[best].close, true
}

// Paragraph returns the contiguous run of non-blank lines around line.
func Paragraph(lines []string, line int) (start, end int, ok bool) {
	if len(lines) == 0 {
		return 0, 0, false
	}
	line = clamp(line, 0, len(lines)-1)
	if isBlank(lines[line]) {
		return 0, 0, false
	}
	start = line
	for start > 0 && !isBlank(lines[start-1]) {
		start--
	}
	end = line
	for end+1 < len(lines) && !isBlank(lines[end+1]) {
		end++
	}
	return start, end, true
}

// Block picks the display block for line: the enclosing module if there is
// one, else the paragraph, else the line alone.
func Block(lines []string, events []scope.Event, line int) (start, end int) {
	if s, e, ok := ModuleBlock(events, len(lines), line); ok {
		return s, e
	}
	if s, e, ok := Paragraph(lines, line); ok {
		return s, e
	}
	return LineRange(len(lines), line, 0)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
