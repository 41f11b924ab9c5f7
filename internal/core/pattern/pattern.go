// Package pattern compiles the search regexes the engine scans with.
//
// Scan patterns follow one convention: every capturing group matches prefix
// context that is consumed but is not part of the symbol. Scanners shift the
// match start forward by the summed length of all non-empty groups to get
// the symbol's real column. Groups never nest.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/CoolSpy3/asm-code-lens/internal/core/cache"
)

// Pattern is a compiled scan regex plus its cache key.
type Pattern struct {
	Name string
	Re   *regexp.Regexp
}

var compiled = cache.NewLRU[*Pattern](512)

func compile(key, expr string) (*Pattern, error) {
	if p, ok := compiled.Get(key); ok {
		return p, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", key, err)
	}
	p := &Pattern{Name: key, Re: re}
	compiled.Put(key, p)
	return p, nil
}

// Reference matches any word-delimited occurrence of symbol anywhere on a
// line. The lazy prefix group makes repeated scanning return every
// occurrence with its column.
func Reference(symbol string) (*Pattern, error) {
	sym := strings.TrimSpace(symbol)
	if sym == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	return compile("ref:"+sym, `(?i)(.*?)\b`+regexp.QuoteMeta(sym)+`\b`)
}

// LabelColon matches a colon-terminated label definition, possibly indented.
func LabelColon(symbol string) (*Pattern, error) {
	sym := strings.TrimSpace(symbol)
	if sym == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	return compile("label-colon:"+sym, `(?i)^(\s*)`+regexp.QuoteMeta(sym)+`:`)
}

// LabelPlain matches a column-zero label without a colon. The empty group
// keeps the prefix-group arithmetic uniform. Callers that must exclude
// dotted continuations or colon forms filter on the character after the
// match (RE2 has no lookahead).
func LabelPlain(symbol string) (*Pattern, error) {
	sym := strings.TrimSpace(symbol)
	if sym == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	return compile("label-plain:"+sym, `(?i)^()`+regexp.QuoteMeta(sym)+`\b`)
}

// ModuleDef matches a MODULE or STRUCT header naming symbol. The keyword
// sits inside the second group so the whole consumed prefix is group text.
func ModuleDef(symbol string) (*Pattern, error) {
	sym := strings.TrimSpace(symbol)
	if sym == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	return compile("module-def:"+sym, `(?i)^(\s*)((?:module|struct)\s+)`+regexp.QuoteMeta(sym)+`\b`)
}

// MacroDef matches a MACRO header naming symbol.
func MacroDef(symbol string) (*Pattern, error) {
	sym := strings.TrimSpace(symbol)
	if sym == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	return compile("macro-def:"+sym, `(?i)^(\s*)(macro\s+)`+regexp.QuoteMeta(sym)+`\b`)
}

// Definitions returns every definition form for symbol, in the order the
// definition search unions them.
func Definitions(symbol string) ([]*Pattern, error) {
	colon, err := LabelColon(symbol)
	if err != nil {
		return nil, err
	}
	plain, err := LabelPlain(symbol)
	if err != nil {
		return nil, err
	}
	mod, err := ModuleDef(symbol)
	if err != nil {
		return nil, err
	}
	mac, err := MacroDef(symbol)
	if err != nil {
		return nil, err
	}
	return []*Pattern{colon, plain, mod, mac}, nil
}

// IncludeDirective marks lines the rename applicator must not touch: the
// quoted path of an include can contain the symbol text.
var IncludeDirective = regexp.MustCompile(`(?i)^\s*include\s`)
