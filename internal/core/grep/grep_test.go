package grep

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CoolSpy3/asm-code-lens/internal/core/docstore"
	"github.com/CoolSpy3/asm-code-lens/internal/core/pattern"
)

func mustRef(t *testing.T, sym string) *pattern.Pattern {
	t.Helper()
	p, err := pattern.Reference(sym)
	if err != nil {
		t.Fatalf("Reference(%q): %v", sym, err)
	}
	return p
}

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestScanLinesColumnsAndSymbols(t *testing.T) {
	locs := ScanLines(mustRef(t, "init"), "main.asm", []string{
		"MODULE audio",
		"init:",
		"\tld a,5",
		"\tcall init",
		"ENDMODULE",
		"\tjp audio.init ; init",
	})
	if len(locs) != 3 {
		t.Fatalf("got %d locations: %+v", len(locs), locs)
	}

	l := locs[0]
	if l.Range.Start.Line != 1 || l.Range.Start.Col != 0 || l.Range.End.Col != 4 {
		t.Fatalf("loc0 range = %+v", l.Range)
	}
	if l.Symbol != "init" || l.LineText != "init:" {
		t.Fatalf("loc0 = %+v", l)
	}

	l = locs[1]
	if l.Range.Start.Line != 3 || l.Range.Start.Col != 6 {
		t.Fatalf("loc1 range = %+v", l.Range)
	}

	l = locs[2]
	if l.Range.Start.Line != 5 || l.Range.Start.Col != 10 || l.Range.End.Col != 14 {
		t.Fatalf("loc2 range = %+v", l.Range)
	}
	if l.LineText != "\tjp audio.init ; init" {
		t.Fatalf("loc2 keeps original line text, got %q", l.LineText)
	}
}

func TestScanLinesTwoMatchesPerLine(t *testing.T) {
	locs := ScanLines(mustRef(t, "init"), "x.asm", []string{"\tld hl,init+init"})
	if len(locs) != 2 {
		t.Fatalf("got %d locations", len(locs))
	}
	if locs[0].Range.Start.Col != 7 || locs[1].Range.Start.Col != 12 {
		t.Fatalf("cols = %d, %d", locs[0].Range.Start.Col, locs[1].Range.Start.Col)
	}
}

func TestScanLinesIgnoresCommentText(t *testing.T) {
	locs := ScanLines(mustRef(t, "init"), "x.asm", []string{
		"; init is called at boot",
		"/* init */",
		"\tcall init ; init again",
	})
	if len(locs) != 1 {
		t.Fatalf("got %d locations: %+v", len(locs), locs)
	}
	if locs[0].Range.Start.Line != 2 || locs[0].Range.Start.Col != 6 {
		t.Fatalf("range = %+v", locs[0].Range)
	}
}

func TestScanLinesPrefixGroupShift(t *testing.T) {
	p, err := pattern.ModuleDef("audio")
	if err != nil {
		t.Fatal(err)
	}
	locs := ScanLines(p, "x.asm", []string{"  MODULE audio"})
	if len(locs) != 1 {
		t.Fatalf("got %d locations", len(locs))
	}
	if locs[0].Range.Start.Col != 9 || locs[0].Range.End.Col != 14 {
		t.Fatalf("range = %+v", locs[0].Range)
	}
	if locs[0].Symbol != "audio" {
		t.Fatalf("symbol = %q", locs[0].Symbol)
	}
}

func TestGrepAcrossFilesSortedOrder(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "b.asm", "\tcall init\n")
	writeFile(t, root, "a.asm", "init:\n")
	writeFile(t, root, "sub/c.asm", "\tjp init\n")

	locs, err := Grep(context.Background(), mustRef(t, "init"), Options{
		Root:    root,
		Include: []string{"**/*.asm"},
	})
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if len(locs) != 3 {
		t.Fatalf("got %d locations", len(locs))
	}
	if locs[0].Path != "a.asm" || locs[1].Path != "b.asm" || locs[2].Path != "sub/c.asm" {
		t.Fatalf("order = %s, %s, %s", locs[0].Path, locs[1].Path, locs[2].Path)
	}
	for _, l := range locs {
		if l.FileHash == 0 {
			t.Fatalf("disk scan must record a content hash: %+v", l)
		}
	}
}

func TestGrepPrefersDirtyBuffer(t *testing.T) {
	root := t.TempDir()
	abs := writeFile(t, root, "main.asm", "\tcall disk_init\n")

	docs := docstore.NewStore()
	docs.Open(abs, "asm-collection", "\tcall disk_init\n", 1)
	docs.Change(abs, "\tcall init\n", 2)

	opts := Options{
		Root:       root,
		Include:    []string{"**/*.asm"},
		LanguageID: "asm-collection",
		Docs:       docs,
	}
	locs, err := Grep(context.Background(), mustRef(t, "init"), opts)
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if len(locs) != 1 || locs[0].Range.Start.Col != 6 {
		t.Fatalf("locs = %+v", locs)
	}
	if locs[0].FileHash != 0 {
		t.Fatalf("live-buffer match must not carry a disk hash")
	}

	// A clean buffer reads the same as disk, so the disk content wins again.
	docs.MarkSaved(abs)
	locs, err = Grep(context.Background(), mustRef(t, "init"), opts)
	if err != nil {
		t.Fatalf("Grep after save: %v", err)
	}
	if len(locs) != 0 {
		t.Fatalf("expected disk content scan, got %+v", locs)
	}
}

func TestGrepDirtyBufferLanguageMismatch(t *testing.T) {
	root := t.TempDir()
	abs := writeFile(t, root, "main.asm", "nothing here\n")

	docs := docstore.NewStore()
	docs.Open(abs, "asm-list-file", "nothing\n", 1)
	docs.Change(abs, "\tcall init\n", 2)

	locs, err := Grep(context.Background(), mustRef(t, "init"), Options{
		Root:       root,
		Include:    []string{"**/*.asm"},
		LanguageID: "asm-collection",
		Docs:       docs,
	})
	if err != nil {
		t.Fatalf("Grep: %v", err)
	}
	if len(locs) != 0 {
		t.Fatalf("wrong-language buffer must not be scanned: %+v", locs)
	}
}

func TestGrepPartialResultsOnReadError(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.asm", "init:\n")
	if err := os.Symlink(filepath.Join(root, "missing"), filepath.Join(root, "ghost.asm")); err != nil {
		t.Skipf("symlink: %v", err)
	}

	locs, err := Grep(context.Background(), mustRef(t, "init"), Options{
		Root:    root,
		Include: []string{"**/*.asm"},
		Jobs:    1,
	})
	if err == nil {
		t.Fatal("expected read error")
	}
	if !strings.Contains(err.Error(), "ghost.asm") {
		t.Fatalf("err = %v", err)
	}
	if len(locs) != 1 || locs[0].Path != "a.asm" {
		t.Fatalf("expected the completed file's results, got %+v", locs)
	}
}

func TestMultipleDedupesAcrossPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.asm", "init:\n\tcall init\n")

	pats, err := pattern.Definitions("init")
	if err != nil {
		t.Fatal(err)
	}
	locs, err := Multiple(context.Background(), pats, Options{
		Root:    root,
		Include: []string{"**/*.asm"},
	})
	if err != nil {
		t.Fatalf("Multiple: %v", err)
	}
	if len(locs) != 1 {
		t.Fatalf("colon and plain forms must collapse, got %+v", locs)
	}
	if locs[0].Range.Start.Line != 0 || locs[0].Range.Start.Col != 0 {
		t.Fatalf("range = %+v", locs[0].Range)
	}
}

func TestWithin(t *testing.T) {
	root := filepath.Join(string(filepath.Separator), "proj", "src")
	if !within(root, filepath.Join(root, "a.asm")) {
		t.Fatal("child must be within root")
	}
	if within(root, filepath.Join(string(filepath.Separator), "proj", "other", "a.asm")) {
		t.Fatal("sibling must not be within root")
	}
	if within(root, filepath.Dir(root)) {
		t.Fatal("parent must not be within root")
	}
}
