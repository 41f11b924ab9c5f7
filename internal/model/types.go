package model

// Pos is a 0-based (line, column) position inside a document.
type Pos struct {
	Line int `json:"line"`
	Col  int `json:"col"`
}

// Range spans [Start, End) on a single line. End.Line always equals
// Start.Line for locations produced by the grep engine.
type Range struct {
	Start Pos `json:"start"`
	End   Pos `json:"end"`
}

// Location is one symbol occurrence. Path is relative to the search root
// with forward slashes. Symbol holds the matched text as written; Label and
// ModuleLabel are filled in by the reducer (empty on raw grep output).
// FileHash is the xxhash of the file content the match was scanned from,
// 0 when the match came from a live buffer.
type Location struct {
	Path        string `json:"path"`
	Range       Range  `json:"range"`
	LineText    string `json:"lineText,omitempty"`
	Symbol      string `json:"symbol,omitempty"`
	Label       string `json:"label,omitempty"`
	ModuleLabel string `json:"moduleLabel,omitempty"`
	FileHash    uint64 `json:"-"`
}

// TextEdit replaces Range with NewText. Edits returned to an editor host are
// grouped per path and ordered last-to-first so they can be applied in order.
type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

// Symbol kinds reported by the outline operation.
const (
	KindLabel  = "label"
	KindModule = "module"
	KindStruct = "struct"
	KindMacro  = "macro"
)

// DocSymbol is one outline entry: a label definition or a module/struct
// block, with its fully qualified dotted name.
type DocSymbol struct {
	Kind      string `json:"kind"`
	Name      string `json:"name"`
	Qualified string `json:"qualified"`
	Range     Range  `json:"range"`
}

// Lens pairs a definition with the number of references that resolve to it.
type Lens struct {
	Location Location `json:"location"`
	Count    int      `json:"count"`
}
