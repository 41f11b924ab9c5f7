// Package lensd is the editor-facing daemon: JSON-RPC 2.0 over
// newline-delimited JSON on TCP. Hosts register workspaces, sync open
// buffers, and run the cross-reference operations against the live state.
package lensd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/CoolSpy3/asm-code-lens/internal/version"
)

type Options struct {
	Listen string
}

type Server struct {
	opts Options
	h    *Handlers

	mu        sync.Mutex
	listener  net.Listener
	closeOnce sync.Once
	closed    chan struct{}
}

func NewServer(opts Options) *Server {
	if opts.Listen == "" {
		opts.Listen = "127.0.0.1:5367"
	}
	return &Server{
		opts:   opts,
		h:      NewHandlers(),
		closed: make(chan struct{}),
	}
}

func (s *Server) Addr() string {
	if s == nil {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) Run() error {
	if s == nil {
		return fmt.Errorf("server is nil")
	}

	ln, err := net.Listen("tcp", s.opts.Listen)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() {
				return nil
			}
			return err
		}
		go s.handleConn(conn)
	}
}

func (s *Server) Close() error {
	if s == nil {
		return nil
	}

	s.closeOnce.Do(func() { close(s.closed) })

	s.mu.Lock()
	ln := s.listener
	s.listener = nil
	s.mu.Unlock()

	if ln == nil {
		return nil
	}
	return ln.Close()
}

func (s *Server) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	defer func() { _ = w.Flush() }()

	for {
		line, err := ReadFrame(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			return
		}

		var req Request
		if err := json.Unmarshal(line, &req); err != nil {
			_ = WriteFrame(w, Response{
				JSONRPC: "2.0",
				ID:      json.RawMessage("null"),
				Error:   &ErrorObject{Code: -32700, Message: "parse error"},
			})
			_ = w.Flush()
			continue
		}

		if len(req.ID) == 0 {
			// Notification: no response.
			_ = s.dispatch(req)
			continue
		}

		resp := s.dispatch(req)
		_ = WriteFrame(w, resp)
		_ = w.Flush()
	}
}

func (s *Server) dispatch(req Request) Response {
	resp := Response{
		JSONRPC: "2.0",
		ID:      req.ID,
	}

	if req.JSONRPC != "" && req.JSONRPC != "2.0" {
		resp.Error = &ErrorObject{Code: -32600, Message: "invalid jsonrpc version"}
		return resp
	}

	ctx := context.Background()

	switch req.Method {
	case "ping":
		resp.Result = "pong"
	case "version":
		resp.Result = version.String()
	case "workspace.add":
		var p WorkspaceAddParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		wsid, err := s.h.WorkspaceAdd(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = wsid
	case "workspace.remove":
		var p WorkspaceRemoveParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		ok, err := s.h.WorkspaceRemove(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = ok
	case "doc.open":
		var p DocOpenParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		if strings.TrimSpace(p.Path) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "path is required"}
			return resp
		}
		ok, err := s.h.DocOpen(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = ok
	case "doc.change":
		var p DocChangeParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		if strings.TrimSpace(p.Path) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "path is required"}
			return resp
		}
		ok, err := s.h.DocChange(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = ok
	case "doc.save":
		var p DocSaveParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		if strings.TrimSpace(p.Path) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "path is required"}
			return resp
		}
		ok, err := s.h.DocSave(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = ok
	case "doc.close":
		var p DocCloseParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		if strings.TrimSpace(p.Path) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "path is required"}
			return resp
		}
		ok, err := s.h.DocClose(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = ok
	case "refs.find":
		var p RefsParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		if strings.TrimSpace(p.Path) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "path is required"}
			return resp
		}
		locs, err := s.h.Refs(ctx, p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = locs
	case "defs.find":
		var p DefsParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		if strings.TrimSpace(p.Path) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "path is required"}
			return resp
		}
		locs, err := s.h.Defs(ctx, p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = locs
	case "rename.apply":
		var p RenameParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		if strings.TrimSpace(p.Path) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "path is required"}
			return resp
		}
		if strings.TrimSpace(p.NewName) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "new_name is required"}
			return resp
		}
		res, err := s.h.Rename(ctx, p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = res
	case "complete":
		var p CompleteParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		if strings.TrimSpace(p.Path) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "path is required"}
			return resp
		}
		items, err := s.h.Complete(ctx, p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = items
	case "symbols":
		var p SymbolsParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		if strings.TrimSpace(p.Path) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "path is required"}
			return resp
		}
		syms, err := s.h.Symbols(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = syms
	case "lens":
		var p LensParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		if strings.TrimSpace(p.Path) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "path is required"}
			return resp
		}
		lenses, err := s.h.Lens(ctx, p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = lenses
	case "labels":
		var p LabelsParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		defs, err := s.h.Labels(ctx, p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = defs
	case "watch.start":
		var p WatchStartParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		st, err := s.h.WatchStart(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = st
	case "watch.stop":
		var p WatchStopParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		st, err := s.h.WatchStop(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = st
	case "watch.status":
		var p WatchStatusParams
		if len(req.Params) > 0 {
			if err := json.Unmarshal(req.Params, &p); err != nil {
				resp.Error = &ErrorObject{Code: -32602, Message: "invalid params"}
				return resp
			}
		}
		if strings.TrimSpace(p.WorkspaceID) == "" {
			resp.Error = &ErrorObject{Code: -32602, Message: "workspace_id is required"}
			return resp
		}
		st, err := s.h.WatchStatus(p)
		if err != nil {
			resp.Error = &ErrorObject{Code: -32000, Message: err.Error()}
			return resp
		}
		resp.Result = st
	default:
		resp.Error = &ErrorObject{Code: -32601, Message: "method not found"}
	}

	return resp
}
