package lenscli

import "testing"

func TestParseTarget(t *testing.T) {
	cases := []struct {
		arg  string
		path string
		line int
		col  int
	}{
		{"main.asm:12:5", "main.asm", 11, 4},
		{"main.asm:12", "main.asm", 11, 0},
		{"src/boot.asm:1:1", "src/boot.asm", 0, 0},
		{"  main.asm:3:2  ", "main.asm", 2, 1},
	}
	for _, c := range cases {
		path, pos, err := parseTarget(c.arg)
		if err != nil {
			t.Fatalf("parseTarget(%q): %v", c.arg, err)
		}
		if path != c.path || pos.Line != c.line || pos.Col != c.col {
			t.Fatalf("parseTarget(%q)=%q,%+v", c.arg, path, pos)
		}
	}
}

func TestParseTargetErrors(t *testing.T) {
	for _, arg := range []string{
		"main.asm",
		"main.asm:0:1",
		"main.asm:3:0",
		"refs",
		":5",
		"a:b",
		"",
	} {
		if _, _, err := parseTarget(arg); err == nil {
			t.Fatalf("parseTarget(%q): expected error", arg)
		}
	}
}

func TestLooksLikeTarget(t *testing.T) {
	if !looksLikeTarget("x.asm:3") || !looksLikeTarget("x.asm:3:7") {
		t.Fatal("targets not recognized")
	}
	if looksLikeTarget("rename") || looksLikeTarget("x.asm") {
		t.Fatal("non-targets recognized")
	}
}
