// Package watch re-runs work when project files change on disk. Filesystem
// events are filtered through the same include and exclude set the scans
// use, then coalesced per path so an editor save burst triggers one re-run
// instead of dozens.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/CoolSpy3/asm-code-lens/internal/core/walk"
)

type Options struct {
	// Scan selects which files are worth a re-run; it should mirror the
	// include and exclude set of the scans themselves.
	Scan walk.Options
	// OnChange receives the sorted root-relative paths of each coalesced
	// burst.
	OnChange func(paths []string)

	Debounce         time.Duration
	AdaptiveDebounce bool
	DebounceMin      time.Duration
	DebounceMax      time.Duration
}

type Watcher struct {
	rootAbs   string
	filter    *walk.Filter
	debouncer *Debouncer
	debounce  time.Duration

	fsw       *fsnotify.Watcher
	closeOnce sync.Once
	closed    chan struct{}
}

func New(root string, opts Options) (*Watcher, error) {
	if opts.OnChange == nil {
		return nil, fmt.Errorf("OnChange is required")
	}
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	rootAbs = filepath.Clean(rootAbs)
	if strings.TrimSpace(rootAbs) == "" {
		return nil, fmt.Errorf("root is required")
	}

	filter, err := walk.NewFilter(rootAbs, opts.Scan)
	if err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	minDelay := opts.DebounceMin
	if minDelay <= 0 {
		minDelay = 50 * time.Millisecond
	}
	maxDelay := opts.DebounceMax
	if maxDelay <= 0 {
		maxDelay = 500 * time.Millisecond
	}
	if maxDelay < minDelay {
		maxDelay = minDelay
	}

	w := &Watcher{
		rootAbs:   rootAbs,
		filter:    filter,
		debouncer: NewDebouncer(debounce, opts.OnChange),
		debounce:  debounce,
		fsw:       fsw,
		closed:    make(chan struct{}),
	}
	if opts.AdaptiveDebounce {
		w.debouncer.SetDelayFunc(func(pending int) time.Duration {
			switch {
			case pending <= 10:
				return minDelay
			case pending <= 100:
				return minDelay * 2
			case pending <= 500:
				return minDelay * 4
			default:
				return maxDelay
			}
		})
	}

	if err := w.addExistingDirs(); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return w, nil
}

func (w *Watcher) Debounce() time.Duration {
	if w == nil {
		return 0
	}
	return w.debounce
}

func (w *Watcher) Close() error {
	if w == nil {
		return nil
	}
	w.closeOnce.Do(func() {
		close(w.closed)
		w.debouncer.Stop()
	})
	if w.fsw == nil {
		return nil
	}
	return w.fsw.Close()
}

// Run consumes filesystem events until the context ends, the watcher is
// closed, or the event source fails.
func (w *Watcher) Run(ctx context.Context) error {
	if w == nil || w.fsw == nil {
		return fmt.Errorf("watcher is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.closed:
			return nil
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

func (w *Watcher) addExistingDirs() error {
	return filepath.WalkDir(w.rootAbs, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p == w.rootAbs {
			return w.fsw.Add(p)
		}

		rel, err := filepath.Rel(w.rootAbs, p)
		if err != nil {
			return err
		}
		if !w.filter.ShouldInclude(filepath.ToSlash(rel), true) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}

func (w *Watcher) handleEvent(ev fsnotify.Event) {
	rel, ok := w.toRel(ev.Name)
	if !ok {
		return
	}

	// A created or renamed-in directory needs its own watch before the
	// files inside it produce events.
	if ev.Op&(fsnotify.Create|fsnotify.Rename) != 0 {
		if st, err := os.Stat(ev.Name); err == nil && st.IsDir() {
			_ = w.addDirRecursive(ev.Name)
			return
		}
	}

	if !w.filter.ShouldInclude(rel, false) {
		return
	}
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) != 0 {
		w.debouncer.Push(rel)
	}
}

func (w *Watcher) toRel(abs string) (string, bool) {
	if strings.TrimSpace(abs) == "" {
		return "", false
	}
	abs = filepath.Clean(abs)
	rel, err := filepath.Rel(w.rootAbs, abs)
	if err != nil {
		return "", false
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *Watcher) addDirRecursive(absDir string) error {
	absDir = filepath.Clean(absDir)
	return filepath.WalkDir(absDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		rel, ok := w.toRel(p)
		if !ok {
			return nil
		}
		if !w.filter.ShouldInclude(rel, true) {
			return filepath.SkipDir
		}
		return w.fsw.Add(p)
	})
}
