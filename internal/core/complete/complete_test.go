package complete

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CoolSpy3/asm-code-lens/internal/core/xref"
	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, rel), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestCompleteTopLevel(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "audio.asm", "    MODULE audio\ninit:\ninitialize:\n    ENDMODULE\n")
	writeFile(t, dir, "typing.asm", "start:\n    call ini\n")
	eng := &xref.Engine{Root: dir}

	items, err := Complete(context.Background(), eng, "typing.asm", model.Pos{Line: 1, Col: 12}, Options{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	if items[0].Insert != "audio.init" || items[0].Label != "init" || items[0].Kind != "label" {
		t.Fatalf("first item = %+v", items[0])
	}
	if items[1].Insert != "audio.initialize" {
		t.Fatalf("second item = %+v", items[1])
	}
}

func TestCompleteInsideModuleInsertsBareName(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "audio.asm", "    MODULE audio\ninit:\ninitialize:\n    call ini\n    ENDMODULE\n")
	eng := &xref.Engine{Root: dir}

	items, err := Complete(context.Background(), eng, "audio.asm", model.Pos{Line: 3, Col: 12}, Options{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	if items[0].Insert != "init" || items[0].Qualified != "audio.init" {
		t.Fatalf("first item = %+v", items[0])
	}
	if items[1].Insert != "initialize" {
		t.Fatalf("second item = %+v", items[1])
	}
}

func TestCompleteDottedFragment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "audio.asm", "    MODULE audio\ninit:\ninitialize:\n    ENDMODULE\n")
	writeFile(t, dir, "other.asm", "inject:\n")
	writeFile(t, dir, "typing.asm", "    call audio.ini\n")
	eng := &xref.Engine{Root: dir}

	items, err := Complete(context.Background(), eng, "typing.asm", model.Pos{Line: 0, Col: 18}, Options{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items: %+v", len(items), items)
	}
	if items[0].Insert != "audio.init" || items[1].Insert != "audio.initialize" {
		t.Fatalf("items = %+v", items)
	}
}

func TestCompleteLimit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "audio.asm", "    MODULE audio\ninit:\ninitialize:\n    ENDMODULE\n")
	writeFile(t, dir, "typing.asm", "    call ini\n")
	eng := &xref.Engine{Root: dir}

	items, err := Complete(context.Background(), eng, "typing.asm", model.Pos{Line: 0, Col: 12}, Options{Limit: 1})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(items) != 1 || items[0].Insert != "audio.init" {
		t.Fatalf("items = %+v", items)
	}
}

func TestCompleteNoFragment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "typing.asm", "start:\n\n    call ini\n")
	eng := &xref.Engine{Root: dir}

	if _, err := Complete(context.Background(), eng, "typing.asm", model.Pos{Line: 1, Col: 0}, Options{}); err == nil {
		t.Fatal("expected an error on an empty line")
	}
}

func TestWithSessionNarrowsInsteadOfRescanning(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.asm", "init:\n")
	writeFile(t, dir, "typing.asm", "    call in\n")
	eng := &xref.Engine{Root: dir}
	sess := NewSessionStore(SessionOptions{})
	ctx := context.Background()

	items, err := WithSession(ctx, sess, "k", eng, "typing.asm", model.Pos{Line: 0, Col: 11}, Options{})
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if len(items) != 1 || items[0].Insert != "init" {
		t.Fatalf("first call items = %+v", items)
	}

	// A new matching label appears on disk and the fragment is extended.
	// The narrowed session predates b.asm, so it must not show up.
	writeFile(t, dir, "b.asm", "inix:\n")
	writeFile(t, dir, "typing.asm", "    call ini\n")

	items, err = WithSession(ctx, sess, "k", eng, "typing.asm", model.Pos{Line: 0, Col: 12}, Options{})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(items) != 1 || items[0].Insert != "init" {
		t.Fatalf("narrowed call items = %+v", items)
	}

	// A different key has no session and rescans.
	items, err = WithSession(ctx, sess, "other", eng, "typing.asm", model.Pos{Line: 0, Col: 12}, Options{})
	if err != nil {
		t.Fatalf("third call: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("fresh key items = %+v", items)
	}
}

func TestWithSessionExpires(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.asm", "init:\n")
	writeFile(t, dir, "typing.asm", "    call in\n")
	eng := &xref.Engine{Root: dir}
	sess := NewSessionStore(SessionOptions{TTL: time.Millisecond})
	ctx := context.Background()

	if _, err := WithSession(ctx, sess, "k", eng, "typing.asm", model.Pos{Line: 0, Col: 11}, Options{}); err != nil {
		t.Fatalf("first call: %v", err)
	}

	writeFile(t, dir, "b.asm", "inix:\n")
	writeFile(t, dir, "typing.asm", "    call ini\n")
	time.Sleep(10 * time.Millisecond)

	items, err := WithSession(ctx, sess, "k", eng, "typing.asm", model.Pos{Line: 0, Col: 12}, Options{})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expired session should rescan, items = %+v", items)
	}
}

func TestWithSessionUnrelatedFragmentRescans(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.asm", "init:\n")
	writeFile(t, dir, "c.asm", "start:\n")
	writeFile(t, dir, "typing.asm", "    call in\n")
	eng := &xref.Engine{Root: dir}
	sess := NewSessionStore(SessionOptions{})
	ctx := context.Background()

	if _, err := WithSession(ctx, sess, "k", eng, "typing.asm", model.Pos{Line: 0, Col: 11}, Options{}); err != nil {
		t.Fatalf("first call: %v", err)
	}

	writeFile(t, dir, "typing.asm", "    call st\n")
	items, err := WithSession(ctx, sess, "k", eng, "typing.asm", model.Pos{Line: 0, Col: 11}, Options{})
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if len(items) != 1 || items[0].Insert != "start" {
		t.Fatalf("unrelated fragment items = %+v", items)
	}
}

func TestSessionClear(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.asm", "init:\n")
	writeFile(t, dir, "typing.asm", "    call in\n")
	eng := &xref.Engine{Root: dir}
	sess := NewSessionStore(SessionOptions{})
	ctx := context.Background()

	if _, err := WithSession(ctx, sess, "ws=1|doc=x", eng, "typing.asm", model.Pos{Line: 0, Col: 11}, Options{}); err != nil {
		t.Fatal(err)
	}

	sess.Clear("ws=2|")
	sess.mu.Lock()
	n := len(sess.m)
	sess.mu.Unlock()
	if n != 1 {
		t.Fatalf("unrelated clear removed sessions, n = %d", n)
	}

	sess.Clear("ws=1|")
	sess.mu.Lock()
	n = len(sess.m)
	sess.mu.Unlock()
	if n != 0 {
		t.Fatalf("clear left %d sessions", n)
	}
}

func TestWithNilSessionStore(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.asm", "init:\n")
	writeFile(t, dir, "typing.asm", "    call in\n")
	eng := &xref.Engine{Root: dir}

	items, err := WithSession(context.Background(), nil, "k", eng, "typing.asm", model.Pos{Line: 0, Col: 11}, Options{})
	if err != nil {
		t.Fatalf("WithSession(nil): %v", err)
	}
	if len(items) != 1 || items[0].Insert != "init" {
		t.Fatalf("items = %+v", items)
	}
}
