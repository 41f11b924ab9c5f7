package complete

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/CoolSpy3/asm-code-lens/internal/core/xref"
	"github.com/CoolSpy3/asm-code-lens/internal/model"
)

type SessionOptions struct {
	TTL           time.Duration
	MinPrefixLen  int
	MaxCandidates int
}

type session struct {
	lastPrefix string
	candidates []xref.Def
	updatedAt  time.Time
}

// SessionStore remembers the candidate set of recent completions so that the
// next keystroke narrows it instead of rescanning the project. Entries
// expire after TTL.
type SessionStore struct {
	mu sync.Mutex

	ttl           time.Duration
	minPrefixLen  int
	maxCandidates int

	m map[string]*session
}

func NewSessionStore(opts SessionOptions) *SessionStore {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	minPrefixLen := opts.MinPrefixLen
	if minPrefixLen <= 0 {
		minPrefixLen = 2
	}
	maxCandidates := opts.MaxCandidates
	if maxCandidates <= 0 {
		maxCandidates = 2000
	}
	return &SessionStore{
		ttl:           ttl,
		minPrefixLen:  minPrefixLen,
		maxCandidates: maxCandidates,
		m:             map[string]*session{},
	}
}

// Clear drops every session whose key starts with prefix. The daemon clears
// "ws=<id>|" when a workspace goes away.
func (s *SessionStore) Clear(prefix string) {
	if s == nil || prefix == "" {
		return
	}
	s.mu.Lock()
	for k := range s.m {
		if strings.HasPrefix(k, prefix) {
			delete(s.m, k)
		}
	}
	s.mu.Unlock()
}

// WithSession behaves like Complete but reuses the previous harvest under
// key when the new fragment extends the previous one. Everything else,
// expiry included, falls back to a fresh project scan.
func WithSession(ctx context.Context, sess *SessionStore, key string, eng *xref.Engine, path string, pos model.Pos, opts Options) ([]Item, error) {
	if sess == nil {
		return Complete(ctx, eng, path, pos, opts)
	}

	prefix, module, err := prefixAt(eng, path, pos)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var cands []xref.Def
	hit := false

	sess.mu.Lock()
	ses := sess.m[key]
	if ses != nil && now.Sub(ses.updatedAt) > sess.ttl {
		delete(sess.m, key)
		ses = nil
	}
	if ses != nil && isPrefixExtension(ses.lastPrefix, prefix, sess.minPrefixLen) && len(ses.candidates) > 0 {
		cands = append([]xref.Def(nil), ses.candidates...)
		hit = true
	}
	sess.mu.Unlock()

	var derr error
	if !hit {
		cands, derr = eng.Labels(ctx, opts.Explain)
	}

	narrowed, err := narrowDefs(cands, prefix)
	if err != nil {
		return nil, err
	}
	if sess.maxCandidates > 0 && len(narrowed) > sess.maxCandidates {
		narrowed = narrowed[:sess.maxCandidates]
	}

	sess.mu.Lock()
	ses = sess.m[key]
	if ses == nil {
		ses = &session{}
		sess.m[key] = ses
	}
	ses.lastPrefix = prefix
	ses.candidates = narrowed
	ses.updatedAt = now
	sess.mu.Unlock()

	if opts.Explain != nil {
		opts.Explain.KV("complete.session_hit", hit)
		opts.Explain.KV("complete.candidates", len(narrowed))
	}

	items, err := buildItems(narrowed, module, opts.Limit)
	if err != nil {
		return nil, err
	}
	return items, derr
}
