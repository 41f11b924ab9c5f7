package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/CoolSpy3/asm-code-lens/internal/core/cache"
)

var fuzzyCache = cache.NewLRU[*regexp.Regexp](512)

// Fuzzy builds the loose matcher for a dotted label: the module prefix up to
// the last dot stays literal, every character of the trailing segment may be
// followed by extra word characters. "sound.ini" matches "sound.init" and
// "sound.initial" but not "sound.ni" or "audio.init". Anchored at the start,
// case-insensitive, open at the end.
func Fuzzy(label string) (*regexp.Regexp, error) {
	l := strings.TrimSpace(label)
	if l == "" {
		return nil, fmt.Errorf("label is required")
	}
	if re, ok := fuzzyCache.Get(l); ok {
		return re, nil
	}

	re, err := regexp.Compile(`(?i)^` + fuzzyBody(l))
	if err != nil {
		return nil, fmt.Errorf("compile fuzzy %q: %w", l, err)
	}
	fuzzyCache.Put(l, re)
	return re, nil
}

// ReferenceLoose is the scan-side fuzzy form: a word-delimited occurrence
// of the label's characters in order, any word characters in between. Used
// when a search runs in loose mode and the reducer validates with Fuzzy.
func ReferenceLoose(symbol string) (*Pattern, error) {
	sym := strings.TrimSpace(symbol)
	if sym == "" {
		return nil, fmt.Errorf("symbol is required")
	}
	return compile("ref-loose:"+sym, `(?i)(.*?)\b`+fuzzyBody(sym))
}

// fuzzyBody keeps the module prefix up to the last dot literal and
// interleaves the trailing segment's characters with \w*.
func fuzzyBody(label string) string {
	prefix, tail := "", label
	if k := strings.LastIndex(label, "."); k >= 0 {
		prefix = regexp.QuoteMeta(label[:k+1])
		tail = label[k+1:]
	}

	var b strings.Builder
	b.Grow(len(label)*4 + 8)
	b.WriteString(prefix)
	for _, r := range tail {
		b.WriteString(regexp.QuoteMeta(string(r)))
		b.WriteString(`\w*`)
	}
	return b.String()
}
