package pattern

import "testing"

func TestReferenceWordDelimited(t *testing.T) {
	p, err := Reference("init")
	if err != nil {
		t.Fatalf("Reference: %v", err)
	}
	for _, line := range []string{"\tjp init", "init:", "\tcall audio.init", "init"} {
		if !p.Re.MatchString(line) {
			t.Fatalf("expected match in %q", line)
		}
	}
	for _, line := range []string{"\tjp initialize", "\tjp reinit", "in it"} {
		if p.Re.MatchString(line) {
			t.Fatalf("unexpected match in %q", line)
		}
	}
}

func TestReferenceCaseInsensitive(t *testing.T) {
	p, err := Reference("Init")
	if err != nil {
		t.Fatalf("Reference: %v", err)
	}
	if !p.Re.MatchString("\tjp INIT") || !p.Re.MatchString("\tjp init") {
		t.Fatal("expected case-insensitive match")
	}
}

func TestReferenceEscapesDots(t *testing.T) {
	p, err := Reference("audio.init")
	if err != nil {
		t.Fatalf("Reference: %v", err)
	}
	if !p.Re.MatchString("\tcall audio.init") {
		t.Fatal("expected dotted match")
	}
	if p.Re.MatchString("\tcall audioXinit") {
		t.Fatal("dot must not act as wildcard")
	}
}

func TestReferenceRequiresSymbol(t *testing.T) {
	if _, err := Reference("  "); err == nil {
		t.Fatal("expected error for blank symbol")
	}
}

func TestLabelColon(t *testing.T) {
	p, err := LabelColon("init")
	if err != nil {
		t.Fatalf("LabelColon: %v", err)
	}
	if !p.Re.MatchString("init:") || !p.Re.MatchString("  init:") {
		t.Fatal("expected label definition match")
	}
	if p.Re.MatchString("myinit:") || p.Re.MatchString("init") {
		t.Fatal("unexpected match")
	}
}

func TestLabelPlain(t *testing.T) {
	p, err := LabelPlain("init")
	if err != nil {
		t.Fatalf("LabelPlain: %v", err)
	}
	if !p.Re.MatchString("init equ 5") {
		t.Fatal("expected column-zero match")
	}
	if p.Re.MatchString("  init") {
		t.Fatal("indented text is not a plain label")
	}
}

func TestModuleDef(t *testing.T) {
	p, err := ModuleDef("audio")
	if err != nil {
		t.Fatalf("ModuleDef: %v", err)
	}
	for _, line := range []string{"MODULE audio", "  module audio", "\tSTRUCT audio"} {
		if !p.Re.MatchString(line) {
			t.Fatalf("expected match in %q", line)
		}
	}
	if p.Re.MatchString("MODULE audiomixer") {
		t.Fatal("name must be word-delimited")
	}
}

func TestDefinitionsOrder(t *testing.T) {
	pats, err := Definitions("init")
	if err != nil {
		t.Fatalf("Definitions: %v", err)
	}
	if len(pats) != 4 {
		t.Fatalf("got %d patterns", len(pats))
	}
	want := []string{"label-colon:init", "label-plain:init", "module-def:init", "macro-def:init"}
	for i, p := range pats {
		if p.Name != want[i] {
			t.Fatalf("pattern %d: got %s want %s", i, p.Name, want[i])
		}
	}
}

func TestCompileMemoized(t *testing.T) {
	a, err := Reference("memoized")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Reference("memoized")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("expected cached pattern pointer")
	}
}

func TestIncludeDirective(t *testing.T) {
	for _, line := range []string{`INCLUDE "init.asm"`, `  include "sub/init.inc"`} {
		if !IncludeDirective.MatchString(line) {
			t.Fatalf("expected include match in %q", line)
		}
	}
	if IncludeDirective.MatchString("\tcall include_handler") {
		t.Fatal("include must be a directive at line start")
	}
}
