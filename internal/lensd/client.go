package lensd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"github.com/CoolSpy3/asm-code-lens/internal/core/complete"
	"github.com/CoolSpy3/asm-code-lens/internal/core/xref"
	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

type RPCError struct {
	Code    int
	Message string
}

func (e *RPCError) Error() string { return fmt.Sprintf("rpc error (%d): %s", e.Code, e.Message) }

// Client is a minimal synchronous client: one request in flight at a time.
type Client struct {
	conn   net.Conn
	r      *bufio.Reader
	w      *bufio.Writer
	nextID int64
}

func Dial(addr string) (*Client, error) {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return nil, err
	}
	return &Client{
		conn: conn,
		r:    bufio.NewReader(conn),
		w:    bufio.NewWriter(conn),
	}, nil
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

type rawResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

func (c *Client) call(method string, params any, out any) error {
	if c == nil || c.conn == nil {
		return fmt.Errorf("client is nil")
	}
	id := atomic.AddInt64(&c.nextID, 1)
	req := Request{JSONRPC: "2.0", Method: method, ID: json.RawMessage(fmt.Sprintf("%d", id))}
	if params != nil {
		b, err := json.Marshal(params)
		if err != nil {
			return err
		}
		req.Params = b
	}

	if err := WriteFrame(c.w, req); err != nil {
		return err
	}
	if err := c.w.Flush(); err != nil {
		return err
	}

	line, err := ReadFrame(c.r)
	if err != nil {
		return err
	}
	var resp rawResponse
	if err := json.Unmarshal(line, &resp); err != nil {
		return err
	}
	if resp.Error != nil {
		return &RPCError{Code: resp.Error.Code, Message: resp.Error.Message}
	}
	if out == nil || len(resp.Result) == 0 {
		return nil
	}
	return json.Unmarshal(resp.Result, out)
}

func (c *Client) Ping() error {
	var out string
	if err := c.call("ping", nil, &out); err != nil {
		return err
	}
	if out != "pong" {
		return fmt.Errorf("unexpected ping result: %q", out)
	}
	return nil
}

func (c *Client) Version() (string, error) {
	var out string
	if err := c.call("version", nil, &out); err != nil {
		return "", err
	}
	return out, nil
}

func (c *Client) WorkspaceAdd(p WorkspaceAddParams) (string, error) {
	var out string
	if err := c.call("workspace.add", p, &out); err != nil {
		return "", err
	}
	return out, nil
}

func (c *Client) WorkspaceRemove(p WorkspaceRemoveParams) (bool, error) {
	var out bool
	if err := c.call("workspace.remove", p, &out); err != nil {
		return false, err
	}
	return out, nil
}

func (c *Client) DocOpen(p DocOpenParams) error {
	return c.call("doc.open", p, nil)
}

func (c *Client) DocChange(p DocChangeParams) error {
	return c.call("doc.change", p, nil)
}

func (c *Client) DocSave(p DocSaveParams) error {
	return c.call("doc.save", p, nil)
}

func (c *Client) DocClose(p DocCloseParams) (bool, error) {
	var out bool
	if err := c.call("doc.close", p, &out); err != nil {
		return false, err
	}
	return out, nil
}

func (c *Client) Refs(p RefsParams) ([]model.Location, error) {
	var out []model.Location
	if err := c.call("refs.find", p, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Defs(p DefsParams) ([]model.Location, error) {
	var out []model.Location
	if err := c.call("defs.find", p, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Rename(p RenameParams) (*RenameResult, error) {
	var out RenameResult
	if err := c.call("rename.apply", p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Complete(p CompleteParams) ([]complete.Item, error) {
	var out []complete.Item
	if err := c.call("complete", p, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Symbols(p SymbolsParams) ([]model.DocSymbol, error) {
	var out []model.DocSymbol
	if err := c.call("symbols", p, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Lens(p LensParams) ([]model.Lens, error) {
	var out []model.Lens
	if err := c.call("lens", p, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Labels(p LabelsParams) ([]xref.Def, error) {
	var out []xref.Def
	if err := c.call("labels", p, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) WatchStart(p WatchStartParams) (WatchStatusResult, error) {
	var out WatchStatusResult
	if err := c.call("watch.start", p, &out); err != nil {
		return WatchStatusResult{}, err
	}
	return out, nil
}

func (c *Client) WatchStop(p WatchStopParams) (WatchStatusResult, error) {
	var out WatchStatusResult
	if err := c.call("watch.stop", p, &out); err != nil {
		return WatchStatusResult{}, err
	}
	return out, nil
}

func (c *Client) WatchStatus(p WatchStatusParams) (WatchStatusResult, error) {
	var out WatchStatusResult
	if err := c.call("watch.status", p, &out); err != nil {
		return WatchStatusResult{}, err
	}
	return out, nil
}
