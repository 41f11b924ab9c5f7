package lensd

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"
)

func startTestServer(t *testing.T) (string, func()) {
	t.Helper()

	s := NewServer(Options{Listen: "127.0.0.1:0"})
	go func() { _ = s.Run() }()
	addr := waitAddr(t, s, time.Second)
	cleanup := func() { _ = s.Close() }
	return addr, cleanup
}

func sendRawRequest(t *testing.T, addr string, raw string) Response {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	if _, err := w.WriteString(raw + "\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	line, err := ReadFrame(r)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return resp
}

func wantRPCError(t *testing.T, err error, code int) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected rpc error %d, got nil", code)
	}
	rpcErr, ok := err.(*RPCError)
	if !ok || rpcErr.Code != code {
		t.Fatalf("expected %d, got=%T %+v", code, err, err)
	}
}

func TestRPC_ValidationErrors(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	wantRPCError(t, c.call("workspace.add", "bad", nil), -32602)
	wantRPCError(t, c.call("refs.find", RefsParams{WorkspaceID: "", Path: "a.asm"}, nil), -32602)
	wantRPCError(t, c.call("refs.find", RefsParams{WorkspaceID: "x", Path: ""}, nil), -32602)
	wantRPCError(t, c.call("rename.apply", RenameParams{WorkspaceID: "x", Path: "a.asm", NewName: ""}, nil), -32602)
	wantRPCError(t, c.call("doc.open", DocOpenParams{WorkspaceID: "x", Path: ""}, nil), -32602)
	wantRPCError(t, c.call("labels", LabelsParams{WorkspaceID: ""}, nil), -32602)
	wantRPCError(t, c.call("watch.start", WatchStartParams{WorkspaceID: ""}, nil), -32602)
}

func TestRPC_MethodNotFound(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	wantRPCError(t, c.call("no.such.method", nil, nil), -32601)
}

func TestRPC_InvalidJSONRPCVersion(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	resp := sendRawRequest(t, addr, `{"jsonrpc":"1.0","method":"ping","id":1}`)
	if resp.Error == nil || resp.Error.Code != -32600 {
		t.Fatalf("expected -32600, got=%+v", resp.Error)
	}
}

func TestRPC_ParseError(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	resp := sendRawRequest(t, addr, `{nope`)
	if resp.Error == nil || resp.Error.Code != -32700 {
		t.Fatalf("expected -32700, got=%+v", resp.Error)
	}
	if string(resp.ID) != "null" {
		t.Fatalf("parse error id=%s", string(resp.ID))
	}
}

func TestRPC_WorkspaceNotFound(t *testing.T) {
	addr, cleanup := startTestServer(t)
	defer cleanup()

	c, err := Dial(addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })

	wantRPCError(t, c.call("refs.find", RefsParams{WorkspaceID: "missing", Path: "a.asm"}, nil), -32000)
	wantRPCError(t, c.call("doc.open", DocOpenParams{WorkspaceID: "missing", Path: "a.asm"}, nil), -32000)
	wantRPCError(t, c.call("complete", CompleteParams{WorkspaceID: "missing", Path: "a.asm"}, nil), -32000)
	wantRPCError(t, c.call("watch.status", WatchStatusParams{WorkspaceID: "missing"}, nil), -32000)
	wantRPCError(t, c.call("workspace.remove", WorkspaceRemoveParams{WorkspaceID: "missing"}, nil), -32000)
}
