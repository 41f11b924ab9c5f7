package lensd

import (
	"encoding/json"

	"github.com/CoolSpy3/asm-code-lens/internal/core/rename"
	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  any             `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// WorkspaceAddParams registers a project root. The optional fields override
// the root's own config file, keyed the same way the file is.
type WorkspaceAddParams struct {
	Root           string   `json:"root"`
	LanguageID     string   `json:"language_id,omitempty"`
	Include        []string `json:"include,omitempty"`
	Exclude        []string `json:"exclude,omitempty"`
	ScanAll        *bool    `json:"scan_all,omitempty"`
	EnableRenaming *bool    `json:"enable_renaming,omitempty"`
	VerifyWrites   *bool    `json:"verify_writes,omitempty"`
	Jobs           *int     `json:"jobs,omitempty"`
}

type WorkspaceRemoveParams struct {
	WorkspaceID string `json:"workspace_id"`
}

type DocOpenParams struct {
	WorkspaceID string `json:"workspace_id"`
	Path        string `json:"path"`
	LanguageID  string `json:"language_id,omitempty"`
	Text        string `json:"text"`
	Version     int    `json:"version,omitempty"`
}

type DocChangeParams struct {
	WorkspaceID string `json:"workspace_id"`
	Path        string `json:"path"`
	Text        string `json:"text"`
	Version     int    `json:"version,omitempty"`
}

type DocSaveParams struct {
	WorkspaceID string `json:"workspace_id"`
	Path        string `json:"path"`
}

type DocCloseParams struct {
	WorkspaceID string `json:"workspace_id"`
	Path        string `json:"path"`
}

type RefsParams struct {
	WorkspaceID string `json:"workspace_id"`
	Path        string `json:"path"`
	Line        int    `json:"line"`
	Col         int    `json:"col"`
	Loose       bool   `json:"loose,omitempty"`
	IncludeSelf bool   `json:"include_self,omitempty"`
}

type DefsParams struct {
	WorkspaceID string `json:"workspace_id"`
	Path        string `json:"path"`
	Line        int    `json:"line"`
	Col         int    `json:"col"`
}

type RenameParams struct {
	WorkspaceID string `json:"workspace_id"`
	Path        string `json:"path"`
	Line        int    `json:"line"`
	Col         int    `json:"col"`
	NewName     string `json:"new_name"`
}

// RenameResult is the applied rename plus the full location set it came
// from, so the host can show what changed where.
type RenameResult struct {
	HostEdits map[string][]model.TextEdit `json:"hostEdits,omitempty"`
	Rewritten []string                    `json:"rewritten,omitempty"`
	Skipped   []rename.Skip               `json:"skipped,omitempty"`
	Locations []model.Location            `json:"locations,omitempty"`
}

type CompleteParams struct {
	WorkspaceID string `json:"workspace_id"`
	Path        string `json:"path"`
	Line        int    `json:"line"`
	Col         int    `json:"col"`
	Limit       int    `json:"limit,omitempty"`
}

type SymbolsParams struct {
	WorkspaceID string `json:"workspace_id"`
	Path        string `json:"path"`
}

type LensParams struct {
	WorkspaceID string `json:"workspace_id"`
	Path        string `json:"path"`
}

type LabelsParams struct {
	WorkspaceID string `json:"workspace_id"`
}

type WatchStartParams struct {
	WorkspaceID string `json:"workspace_id"`
	DebounceMS  int    `json:"debounce_ms,omitempty"`
	Adaptive    bool   `json:"adaptive,omitempty"`
}

type WatchStopParams struct {
	WorkspaceID string `json:"workspace_id"`
}

type WatchStatusParams struct {
	WorkspaceID string `json:"workspace_id"`
}

type WatchStatusResult struct {
	Running bool `json:"running"`
}
