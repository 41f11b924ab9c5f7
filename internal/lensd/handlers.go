package lensd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CoolSpy3/asm-code-lens/internal/config"
	"github.com/CoolSpy3/asm-code-lens/internal/core/complete"
	"github.com/CoolSpy3/asm-code-lens/internal/core/docstore"
	"github.com/CoolSpy3/asm-code-lens/internal/core/walk"
	"github.com/CoolSpy3/asm-code-lens/internal/core/watch"
	"github.com/CoolSpy3/asm-code-lens/internal/core/xref"
	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

// workspace is one registered root: its resolved settings, the buffers the
// host has open, and the engine bound to both. settings, docs and eng are
// fixed at creation; watcher is guarded by the Handlers mutex.
type workspace struct {
	settings config.Settings
	docs     *docstore.Store
	eng      *xref.Engine
	watcher  *watch.Watcher
}

// abs resolves a host path the same way the scans do, so buffer lookups and
// scan results agree on the key.
func (ws *workspace) abs(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Clean(filepath.Join(ws.settings.Root, filepath.FromSlash(path)))
}

type Handlers struct {
	mu         sync.RWMutex
	workspaces map[string]*workspace
	sessions   *complete.SessionStore
}

func NewHandlers() *Handlers {
	return &Handlers{
		workspaces: map[string]*workspace{},
		sessions:   complete.NewSessionStore(complete.SessionOptions{TTL: 30 * time.Second}),
	}
}

// sessionScope prefixes every completion session key of one workspace, so a
// workspace's sessions can be dropped together.
func sessionScope(workspaceID string) string {
	return "ws=" + workspaceID + "|"
}

func (h *Handlers) WorkspaceAdd(p WorkspaceAddParams) (string, error) {
	if h == nil {
		return "", fmt.Errorf("handlers is nil")
	}
	root := strings.TrimSpace(p.Root)
	if root == "" {
		return "", fmt.Errorf("root is required")
	}

	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	rootAbs = filepath.Clean(rootAbs)

	st, err := os.Stat(rootAbs)
	if err != nil {
		return "", err
	}
	if !st.IsDir() {
		return "", fmt.Errorf("root is not a directory")
	}

	// The root's own config file is the base layer; params override it.
	var layers []config.File
	if path := config.Find(rootAbs); path != "" {
		base, err := config.Load(path)
		if err != nil {
			return "", err
		}
		layers = append(layers, base)
	}
	layers = append(layers, p.overrides())
	settings, err := config.Resolve(rootAbs, layers...)
	if err != nil {
		return "", err
	}

	docs := docstore.NewStore()
	ws := &workspace{
		settings: settings,
		docs:     docs,
		eng: &xref.Engine{
			Root:       settings.Root,
			Include:    settings.Include,
			Exclude:    settings.Exclude,
			ScanAll:    settings.ScanAll,
			LanguageID: settings.LanguageID,
			Docs:       docs,
			Jobs:       settings.Jobs,
		},
	}

	wsid := uuid.NewString()
	h.mu.Lock()
	h.workspaces[wsid] = ws
	h.mu.Unlock()

	return wsid, nil
}

func (p WorkspaceAddParams) overrides() config.File {
	var f config.File
	if v := strings.TrimSpace(p.LanguageID); v != "" {
		f.LanguageID = &v
	}
	f.Include = p.Include
	f.Exclude = p.Exclude
	f.ScanAll = p.ScanAll
	f.EnableRenaming = p.EnableRenaming
	f.VerifyWrites = p.VerifyWrites
	f.Jobs = p.Jobs
	return f
}

func (h *Handlers) WorkspaceRemove(p WorkspaceRemoveParams) (bool, error) {
	if h == nil {
		return false, fmt.Errorf("handlers is nil")
	}
	wsid := strings.TrimSpace(p.WorkspaceID)

	h.mu.Lock()
	ws, ok := h.workspaces[wsid]
	if ok {
		delete(h.workspaces, wsid)
	}
	h.mu.Unlock()

	if !ok {
		return false, fmt.Errorf("workspace not found")
	}
	if ws.watcher != nil {
		_ = ws.watcher.Close()
	}
	h.sessions.Clear(sessionScope(wsid))
	return true, nil
}

func (h *Handlers) DocOpen(p DocOpenParams) (bool, error) {
	ws, ok := h.getWorkspace(p.WorkspaceID)
	if !ok {
		return false, fmt.Errorf("workspace not found")
	}
	lang := strings.TrimSpace(p.LanguageID)
	if lang == "" {
		lang = ws.settings.LanguageID
	}
	ws.docs.Open(ws.abs(p.Path), lang, p.Text, p.Version)
	h.sessions.Clear(sessionScope(strings.TrimSpace(p.WorkspaceID)))
	return true, nil
}

func (h *Handlers) DocChange(p DocChangeParams) (bool, error) {
	ws, ok := h.getWorkspace(p.WorkspaceID)
	if !ok {
		return false, fmt.Errorf("workspace not found")
	}
	if _, ok := ws.docs.Change(ws.abs(p.Path), p.Text, p.Version); !ok {
		return false, fmt.Errorf("document not open: %s", p.Path)
	}
	h.sessions.Clear(sessionScope(strings.TrimSpace(p.WorkspaceID)))
	return true, nil
}

func (h *Handlers) DocSave(p DocSaveParams) (bool, error) {
	ws, ok := h.getWorkspace(p.WorkspaceID)
	if !ok {
		return false, fmt.Errorf("workspace not found")
	}
	if !ws.docs.MarkSaved(ws.abs(p.Path)) {
		return false, fmt.Errorf("document not open: %s", p.Path)
	}
	return true, nil
}

// DocClose tolerates paths that were never opened; hosts may close a
// buffer they never announced.
func (h *Handlers) DocClose(p DocCloseParams) (bool, error) {
	ws, ok := h.getWorkspace(p.WorkspaceID)
	if !ok {
		return false, fmt.Errorf("workspace not found")
	}
	closed := ws.docs.Close(ws.abs(p.Path))
	if closed {
		h.sessions.Clear(sessionScope(strings.TrimSpace(p.WorkspaceID)))
	}
	return closed, nil
}

func (h *Handlers) Refs(ctx context.Context, p RefsParams) ([]model.Location, error) {
	ws, ok := h.getWorkspace(p.WorkspaceID)
	if !ok {
		return nil, fmt.Errorf("workspace not found")
	}
	return ws.eng.Refs(ctx, p.Path, model.Pos{Line: p.Line, Col: p.Col}, xref.RefOptions{
		Loose:       p.Loose,
		IncludeSelf: p.IncludeSelf,
	})
}

func (h *Handlers) Defs(ctx context.Context, p DefsParams) ([]model.Location, error) {
	ws, ok := h.getWorkspace(p.WorkspaceID)
	if !ok {
		return nil, fmt.Errorf("workspace not found")
	}
	return ws.eng.Defs(ctx, p.Path, model.Pos{Line: p.Line, Col: p.Col}, nil)
}

func (h *Handlers) Rename(ctx context.Context, p RenameParams) (*RenameResult, error) {
	ws, ok := h.getWorkspace(p.WorkspaceID)
	if !ok {
		return nil, fmt.Errorf("workspace not found")
	}
	if !ws.settings.EnableRenaming {
		return nil, fmt.Errorf("renaming is disabled; set enable_renaming in the project config")
	}
	res, locs, err := ws.eng.Rename(ctx, p.Path, model.Pos{Line: p.Line, Col: p.Col}, p.NewName, xref.RenameOptions{
		Verify: ws.settings.VerifyWrites,
	})
	if err != nil {
		return nil, err
	}
	out := &RenameResult{Locations: locs}
	if res != nil {
		out.HostEdits = res.HostEdits
		out.Rewritten = res.Rewritten
		out.Skipped = res.Skipped
	}
	return out, nil
}

func (h *Handlers) Complete(ctx context.Context, p CompleteParams) ([]complete.Item, error) {
	ws, ok := h.getWorkspace(p.WorkspaceID)
	if !ok {
		return nil, fmt.Errorf("workspace not found")
	}
	// One session per document line: successive keystrokes on the line
	// narrow the previous harvest instead of rescanning.
	wsid := strings.TrimSpace(p.WorkspaceID)
	key := fmt.Sprintf("%s%s:%d", sessionScope(wsid), ws.eng.Rel(p.Path), p.Line)
	return complete.WithSession(ctx, h.sessions, key, ws.eng, p.Path, model.Pos{Line: p.Line, Col: p.Col}, complete.Options{
		Limit: p.Limit,
	})
}

func (h *Handlers) Symbols(p SymbolsParams) ([]model.DocSymbol, error) {
	ws, ok := h.getWorkspace(p.WorkspaceID)
	if !ok {
		return nil, fmt.Errorf("workspace not found")
	}
	return ws.eng.Symbols(p.Path, nil)
}

func (h *Handlers) Lens(ctx context.Context, p LensParams) ([]model.Lens, error) {
	ws, ok := h.getWorkspace(p.WorkspaceID)
	if !ok {
		return nil, fmt.Errorf("workspace not found")
	}
	return ws.eng.Lens(ctx, p.Path, nil)
}

func (h *Handlers) Labels(ctx context.Context, p LabelsParams) ([]xref.Def, error) {
	ws, ok := h.getWorkspace(p.WorkspaceID)
	if !ok {
		return nil, fmt.Errorf("workspace not found")
	}
	return ws.eng.Labels(ctx, nil)
}

// WatchStart begins watching the workspace root. The scans read live state
// on every call, so the watcher's job is cache hygiene: a burst of disk
// changes drops the workspace's completion sessions. Starting an already
// watched workspace is a no-op.
func (h *Handlers) WatchStart(p WatchStartParams) (WatchStatusResult, error) {
	if h == nil {
		return WatchStatusResult{}, fmt.Errorf("handlers is nil")
	}
	wsid := strings.TrimSpace(p.WorkspaceID)

	h.mu.Lock()
	defer h.mu.Unlock()
	ws, ok := h.workspaces[wsid]
	if !ok {
		return WatchStatusResult{}, fmt.Errorf("workspace not found")
	}
	if ws.watcher != nil {
		return WatchStatusResult{Running: true}, nil
	}

	w, err := watch.New(ws.settings.Root, watch.Options{
		Scan: walk.Options{
			IncludeGlobs: ws.settings.Include,
			ExcludeGlobs: ws.settings.Exclude,
			ScanAll:      ws.settings.ScanAll,
		},
		OnChange:         func([]string) { h.sessions.Clear(sessionScope(wsid)) },
		Debounce:         time.Duration(p.DebounceMS) * time.Millisecond,
		AdaptiveDebounce: p.Adaptive,
	})
	if err != nil {
		return WatchStatusResult{}, err
	}
	ws.watcher = w
	go func() { _ = w.Run(context.Background()) }()

	return WatchStatusResult{Running: true}, nil
}

func (h *Handlers) WatchStop(p WatchStopParams) (WatchStatusResult, error) {
	if h == nil {
		return WatchStatusResult{}, fmt.Errorf("handlers is nil")
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	ws, ok := h.workspaces[strings.TrimSpace(p.WorkspaceID)]
	if !ok {
		return WatchStatusResult{}, fmt.Errorf("workspace not found")
	}
	if ws.watcher != nil {
		_ = ws.watcher.Close()
		ws.watcher = nil
	}
	return WatchStatusResult{Running: false}, nil
}

func (h *Handlers) WatchStatus(p WatchStatusParams) (WatchStatusResult, error) {
	if h == nil {
		return WatchStatusResult{}, fmt.Errorf("handlers is nil")
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	ws, ok := h.workspaces[strings.TrimSpace(p.WorkspaceID)]
	if !ok {
		return WatchStatusResult{}, fmt.Errorf("workspace not found")
	}
	return WatchStatusResult{Running: ws.watcher != nil}, nil
}

func (h *Handlers) getWorkspace(workspaceID string) (*workspace, bool) {
	if h == nil {
		return nil, false
	}
	h.mu.RLock()
	ws, ok := h.workspaces[strings.TrimSpace(workspaceID)]
	h.mu.RUnlock()
	return ws, ok
}
