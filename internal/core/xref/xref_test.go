package xref

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/CoolSpy3/asm-code-lens/internal/core/scope"
	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

// audioProject writes the two-file fixture most tests share: a module with a
// bare label plus an intra-module reference, and a second file referencing
// the label by its qualified name.
func audioProject(t *testing.T) *Engine {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "audio.asm", "    MODULE audio\ninit:\n    ld a,1\n    call init\n    ENDMODULE\n")
	writeFile(t, dir, "main.asm", "    call audio.init\nstart:\n    jp start\n")
	return &Engine{Root: dir, Include: []string{"**/*.asm"}}
}

func TestRefsFromDefinition(t *testing.T) {
	e := audioProject(t)

	refs, err := e.Refs(context.Background(), "audio.asm", model.Pos{Line: 1, Col: 0}, RefOptions{})
	if err != nil {
		t.Fatalf("Refs: %v", err)
	}
	if len(refs) != 2 {
		t.Fatalf("got %d refs, want 2: %+v", len(refs), refs)
	}

	if refs[0].Path != "audio.asm" || refs[0].Range.Start != (model.Pos{Line: 3, Col: 9}) {
		t.Fatalf("first ref = %+v", refs[0])
	}
	if refs[0].Label != "init" || refs[0].ModuleLabel != "audio.init" {
		t.Fatalf("first ref identity = %q / %q", refs[0].Label, refs[0].ModuleLabel)
	}

	if refs[1].Path != "main.asm" || refs[1].Range.Start != (model.Pos{Line: 0, Col: 15}) {
		t.Fatalf("second ref = %+v", refs[1])
	}
	if refs[1].Label != "audio.init" || refs[1].ModuleLabel != "audio.init" {
		t.Fatalf("second ref identity = %q / %q", refs[1].Label, refs[1].ModuleLabel)
	}
}

func TestRefsIncludeSelf(t *testing.T) {
	e := audioProject(t)

	refs, err := e.Refs(context.Background(), "audio.asm", model.Pos{Line: 1, Col: 0}, RefOptions{IncludeSelf: true})
	if err != nil {
		t.Fatalf("Refs: %v", err)
	}
	if len(refs) != 3 {
		t.Fatalf("got %d refs, want 3: %+v", len(refs), refs)
	}
	if refs[0].Path != "audio.asm" || refs[0].Range.Start != (model.Pos{Line: 1, Col: 0}) {
		t.Fatalf("own definition missing, first = %+v", refs[0])
	}
}

func TestRefsNoSymbol(t *testing.T) {
	e := audioProject(t)

	if _, err := e.Refs(context.Background(), "audio.asm", model.Pos{Line: 2, Col: 0}, RefOptions{}); err == nil {
		t.Fatal("expected an error for a position with no symbol")
	}
}

func TestDefsFromQualifiedReference(t *testing.T) {
	e := audioProject(t)

	// Cursor on "audio.init" in main.asm.
	defs, err := e.Defs(context.Background(), "main.asm", model.Pos{Line: 0, Col: 9}, nil)
	if err != nil {
		t.Fatalf("Defs: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("got %d defs, want 1: %+v", len(defs), defs)
	}
	d := defs[0]
	if d.Path != "audio.asm" || d.Range.Start != (model.Pos{Line: 1, Col: 0}) {
		t.Fatalf("def = %+v", d)
	}
	if d.Label != "init" || d.ModuleLabel != "audio.init" {
		t.Fatalf("def identity = %q / %q", d.Label, d.ModuleLabel)
	}
}

func TestDefsFromBareReference(t *testing.T) {
	e := audioProject(t)

	// Cursor on the bare "init" in "call init" inside the module.
	defs, err := e.Defs(context.Background(), "audio.asm", model.Pos{Line: 3, Col: 9}, nil)
	if err != nil {
		t.Fatalf("Defs: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("got %d defs, want 1: %+v", len(defs), defs)
	}
	if defs[0].Path != "audio.asm" || defs[0].Range.Start != (model.Pos{Line: 1, Col: 0}) {
		t.Fatalf("def = %+v", defs[0])
	}
}

func TestRenameAcrossSpellings(t *testing.T) {
	e := audioProject(t)

	res, locs, err := e.Rename(context.Background(), "audio.asm", model.Pos{Line: 1, Col: 0}, "boot", RenameOptions{})
	if err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if len(locs) != 3 {
		t.Fatalf("got %d locations, want 3: %+v", len(locs), locs)
	}
	if len(res.Rewritten) != 2 {
		t.Fatalf("rewritten = %v", res.Rewritten)
	}

	b, err := os.ReadFile(filepath.Join(e.Root, "audio.asm"))
	if err != nil {
		t.Fatal(err)
	}
	want := "    MODULE audio\nboot:\n    ld a,1\n    call boot\n    ENDMODULE\n"
	if string(b) != want {
		t.Fatalf("audio.asm:\n%q\nwant:\n%q", b, want)
	}

	b, err = os.ReadFile(filepath.Join(e.Root, "main.asm"))
	if err != nil {
		t.Fatal(err)
	}
	want = "    call audio.boot\nstart:\n    jp start\n"
	if string(b) != want {
		t.Fatalf("main.asm:\n%q\nwant:\n%q", b, want)
	}
}

func TestSymbolsOutline(t *testing.T) {
	dir := t.TempDir()
	content := "    MODULE audio\n" +
		"init:\n" +
		"    MACRO beep\n" +
		"    ENDM\n" +
		"        STRUCT frame\n" +
		"size:\n" +
		"        ENDSTRUCT\n" +
		"    ENDMODULE\n" +
		"buffer  defb 0\n" +
		"; done\n"
	writeFile(t, dir, "outline.asm", content)
	e := &Engine{Root: dir}

	syms, err := e.Symbols("outline.asm", nil)
	if err != nil {
		t.Fatalf("Symbols: %v", err)
	}

	want := []model.DocSymbol{
		{Kind: "module", Name: "audio", Qualified: "audio",
			Range: model.Range{Start: model.Pos{Line: 0, Col: 0}, End: model.Pos{Line: 7, Col: 13}}},
		{Kind: "label", Name: "init", Qualified: "audio.init",
			Range: model.Range{Start: model.Pos{Line: 1, Col: 0}, End: model.Pos{Line: 1, Col: 4}}},
		{Kind: "macro", Name: "beep", Qualified: "audio.beep",
			Range: model.Range{Start: model.Pos{Line: 2, Col: 10}, End: model.Pos{Line: 2, Col: 14}}},
		{Kind: "struct", Name: "frame", Qualified: "audio.frame",
			Range: model.Range{Start: model.Pos{Line: 4, Col: 0}, End: model.Pos{Line: 6, Col: 17}}},
		{Kind: "label", Name: "size", Qualified: "audio.frame.size",
			Range: model.Range{Start: model.Pos{Line: 5, Col: 0}, End: model.Pos{Line: 5, Col: 4}}},
		{Kind: "label", Name: "buffer", Qualified: "buffer",
			Range: model.Range{Start: model.Pos{Line: 8, Col: 0}, End: model.Pos{Line: 8, Col: 6}}},
	}
	if len(syms) != len(want) {
		t.Fatalf("got %d symbols, want %d: %+v", len(syms), len(want), syms)
	}
	for i := range want {
		if syms[i] != want[i] {
			t.Fatalf("symbol %d = %+v, want %+v", i, syms[i], want[i])
		}
	}
}

func TestSymbolsUnclosedModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "lost.asm", "MODULE lost\nx:\n")
	e := &Engine{Root: dir}

	syms, err := e.Symbols("lost.asm", nil)
	if err != nil {
		t.Fatalf("Symbols: %v", err)
	}
	if len(syms) != 2 {
		t.Fatalf("got %d symbols: %+v", len(syms), syms)
	}
	if syms[0].Range.End.Line != 2 {
		t.Fatalf("unclosed module should extend to the last line, got %+v", syms[0].Range)
	}
	if syms[1].Qualified != "lost.x" {
		t.Fatalf("label qualified = %q", syms[1].Qualified)
	}
}

func TestLensCounts(t *testing.T) {
	e := audioProject(t)

	lenses, err := e.Lens(context.Background(), "audio.asm", nil)
	if err != nil {
		t.Fatalf("Lens: %v", err)
	}
	if len(lenses) != 2 {
		t.Fatalf("got %d lenses: %+v", len(lenses), lenses)
	}

	if lenses[0].Location.Symbol != "audio" || lenses[0].Count != 0 {
		t.Fatalf("module lens = %+v", lenses[0])
	}
	if lenses[1].Location.Symbol != "init" || lenses[1].Count != 2 {
		t.Fatalf("label lens = %+v", lenses[1])
	}
	if lenses[1].Location.Range.Start != (model.Pos{Line: 1, Col: 0}) {
		t.Fatalf("label lens position = %+v", lenses[1].Location.Range)
	}
	if lenses[1].Location.ModuleLabel != "audio.init" {
		t.Fatalf("label lens identity = %q", lenses[1].Location.ModuleLabel)
	}
}

func TestLabelsProjectWide(t *testing.T) {
	e := audioProject(t)

	defs, err := e.Labels(context.Background(), nil)
	if err != nil {
		t.Fatalf("Labels: %v", err)
	}
	want := []Def{
		{Kind: "module", Name: "audio", Qualified: "audio", Path: "audio.asm", Line: 0, Col: 11},
		{Kind: "label", Name: "init", Qualified: "audio.init", Path: "audio.asm", Line: 1, Col: 0},
		{Kind: "label", Name: "start", Qualified: "start", Path: "main.asm", Line: 1, Col: 0},
	}
	if len(defs) != len(want) {
		t.Fatalf("got %d defs, want %d: %+v", len(defs), len(want), defs)
	}
	for i := range want {
		if defs[i] != want[i] {
			t.Fatalf("def %d = %+v, want %+v", i, defs[i], want[i])
		}
	}
}

func TestRelNormalization(t *testing.T) {
	root := t.TempDir()
	e := &Engine{Root: root}

	if got := e.Rel("a/b.asm"); got != "a/b.asm" {
		t.Fatalf("relative stays relative: %q", got)
	}
	if got := e.Rel(filepath.Join(root, "a", "b.asm")); got != "a/b.asm" {
		t.Fatalf("absolute inside root: %q", got)
	}
	outside := filepath.Join(filepath.Dir(root), "elsewhere.asm")
	if got := e.Rel(outside); got != outside {
		t.Fatalf("absolute outside root should stay absolute: %q", got)
	}
}

func TestDefSitesSkipsDirectivesAndComments(t *testing.T) {
	info := scope.NewInfo([]string{
		"ENDMODULE",
		"include \"other.asm\"",
		"; label:",
		"real:",
		"    trailer: ; colon label with indent",
	})
	sites := defSites(info)
	if len(sites) != 2 {
		t.Fatalf("got %d sites: %+v", len(sites), sites)
	}
	if sites[0].name != "real" || sites[0].line != 3 {
		t.Fatalf("first site = %+v", sites[0])
	}
	if sites[1].name != "trailer" || sites[1].line != 4 || sites[1].col != 4 {
		t.Fatalf("second site = %+v", sites[1])
	}
}
