package lenscli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// ExplainCollector gathers the counters and phase timings the engine reports
// during one operation. A nil collector is safe to call; every method is a
// no-op on it, so commands can pass the collector through unconditionally.
type ExplainCollector struct {
	mu      sync.Mutex
	format  string
	kv      map[string]any
	timings map[string]time.Duration
}

// NewExplainCollector returns a collector that renders as format, "text" or
// "json". An empty format means text.
func NewExplainCollector(format string) *ExplainCollector {
	format = strings.TrimSpace(format)
	if format == "" {
		format = "text"
	}
	return &ExplainCollector{
		format:  format,
		kv:      map[string]any{},
		timings: map[string]time.Duration{},
	}
}

func (e *ExplainCollector) KV(key string, value any) {
	if e == nil {
		return
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return
	}
	e.mu.Lock()
	e.kv[key] = value
	e.mu.Unlock()
}

func (e *ExplainCollector) Timer(name string) func() {
	if e == nil {
		return func() {}
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return func() {}
	}
	start := time.Now()
	return func() {
		d := time.Since(start)
		e.mu.Lock()
		e.timings[name] += d
		e.mu.Unlock()
	}
}

// Snapshot copies the collected values. Timings appear under "timings_ms"
// keyed by phase name.
func (e *ExplainCollector) Snapshot() map[string]any {
	if e == nil {
		return map[string]any{}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]any, len(e.kv)+1)
	for k, v := range e.kv {
		out[k] = v
	}
	if len(e.timings) > 0 {
		tm := make(map[string]int64, len(e.timings))
		for k, d := range e.timings {
			tm[k] = d.Milliseconds()
		}
		out["timings_ms"] = tm
	}
	return out
}

// Emit writes the collected report to w in the collector's format.
func (e *ExplainCollector) Emit(w io.Writer) error {
	if e == nil || w == nil {
		return nil
	}

	snap := e.Snapshot()

	if e.format == "json" {
		b, err := json.Marshal(snap)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(b))
		return err
	}

	_, _ = fmt.Fprintln(w, "explain:")

	keys := make([]string, 0, len(snap))
	for k := range snap {
		if k == "timings_ms" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		_, _ = fmt.Fprintf(w, "  %s: %v\n", k, snap[k])
	}

	tm, _ := snap["timings_ms"].(map[string]int64)
	if len(tm) == 0 {
		return nil
	}
	names := make([]string, 0, len(tm))
	for k := range tm {
		names = append(names, k)
	}
	sort.Strings(names)
	for _, name := range names {
		_, _ = fmt.Fprintf(w, "  %s_ms: %d\n", name, tm[name])
	}
	return nil
}
