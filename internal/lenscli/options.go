package lenscli

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/CoolSpy3/asm-code-lens/internal/config"
	"github.com/CoolSpy3/asm-code-lens/internal/core/xref"
)

// Options are the persistent flags shared by every command. Command-local
// flags (--loose, --limit, --yes) live with their commands.
type Options struct {
	Root         string
	LanguageID   string
	IncludeGlobs []string
	ExcludeGlobs []string
	ScanAll      bool
	Jobs         int

	ContextLines int
	VimLines     bool
	Jsonl        bool
	Show         bool
	Explain      string
	Watch        bool
}

func (o *Options) Prepare() error {
	o.normalize()

	if o.ContextLines < 0 {
		return fmt.Errorf("context lines must be >= 0")
	}
	if o.Jobs < 0 {
		return fmt.Errorf("jobs must be >= 0")
	}

	switch o.LanguageID {
	case "", config.LangCollection, config.LangListFile:
	default:
		return fmt.Errorf("invalid --language %q (expected: %s|%s)", o.LanguageID, config.LangCollection, config.LangListFile)
	}

	switch o.Explain {
	case "", "text", "json":
	default:
		return fmt.Errorf("invalid --explain %q (expected: text|json)", o.Explain)
	}

	return nil
}

func (o *Options) normalize() {
	o.Root = strings.TrimSpace(o.Root)
	if o.Root == "" {
		o.Root = "."
	}
	o.LanguageID = strings.TrimSpace(o.LanguageID)
	o.Explain = strings.TrimSpace(o.Explain)
}

// overlay turns the flags the user set into a config layer that wins over
// the project file. Zero values stay unset so the file's choices survive.
func (o *Options) overlay() config.File {
	var f config.File
	if v := o.LanguageID; v != "" {
		f.LanguageID = &v
	}
	if len(o.IncludeGlobs) > 0 {
		f.Include = o.IncludeGlobs
	}
	if len(o.ExcludeGlobs) > 0 {
		f.Exclude = o.ExcludeGlobs
	}
	if o.ScanAll {
		t := true
		f.ScanAll = &t
	}
	if o.Jobs > 0 {
		j := o.Jobs
		f.Jobs = &j
	}
	return f
}

// engineFrom resolves the project settings under --root and binds an engine
// to them. The CLI never carries live buffers, so Docs stays nil.
func engineFrom(opts *Options) (*xref.Engine, config.Settings, error) {
	abs, err := filepath.Abs(opts.Root)
	if err != nil {
		return nil, config.Settings{}, err
	}

	var layers []config.File
	if path := config.Find(abs); path != "" {
		base, err := config.Load(path)
		if err != nil {
			return nil, config.Settings{}, err
		}
		layers = append(layers, base)
	}
	layers = append(layers, opts.overlay())

	settings, err := config.Resolve(abs, layers...)
	if err != nil {
		return nil, config.Settings{}, err
	}

	eng := &xref.Engine{
		Root:       settings.Root,
		Include:    settings.Include,
		Exclude:    settings.Exclude,
		ScanAll:    settings.ScanAll,
		LanguageID: settings.LanguageID,
		Jobs:       settings.Jobs,
	}
	return eng, settings, nil
}

type optionsKey struct{}

func optionsFrom(cmd *cobra.Command) *Options {
	if cmd == nil {
		return nil
	}
	root := cmd.Root()
	if root == nil {
		root = cmd
	}
	v := root.Context().Value(optionsKey{})
	opts, _ := v.(*Options)
	return opts
}

func withOptionsContext(cmd *cobra.Command, opts *Options) {
	cmd.SetContext(context.WithValue(context.Background(), optionsKey{}, opts))
}

type testModeKey struct{}

// isTestMode reports whether the command runs under ExecuteForTest, which
// parses and validates flags without executing the operation.
func isTestMode(cmd *cobra.Command) bool {
	if cmd == nil {
		return false
	}
	root := cmd.Root()
	if root == nil {
		root = cmd
	}
	on, _ := root.Context().Value(testModeKey{}).(bool)
	return on
}

func bindFlags(cmd *cobra.Command, opts *Options) {
	cmd.PersistentFlags().StringVarP(&opts.Root, "root", "C", opts.Root, "project root to scan")
	cmd.PersistentFlags().StringVar(&opts.LanguageID, "language", opts.LanguageID, "language id: asm-collection|asm-list-file")
	cmd.PersistentFlags().StringSliceVarP(&opts.IncludeGlobs, "glob", "g", nil, "only scan these files (can repeat)")
	cmd.PersistentFlags().StringSliceVarP(&opts.ExcludeGlobs, "exclude", "x", nil, "exclude these files (comma separated list: -x *.list,*.lst)")
	cmd.PersistentFlags().BoolVarP(&opts.ScanAll, "all", "A", opts.ScanAll, "scan files .gitignore would hide")
	cmd.PersistentFlags().IntVarP(&opts.Jobs, "jobs", "j", opts.Jobs, "number of parallel scan workers (default: all CPUs)")

	cmd.PersistentFlags().IntVarP(&opts.ContextLines, "context", "c", opts.ContextLines, "lines of context around a match with --show; 0 shows the enclosing block")
	cmd.PersistentFlags().BoolVarP(&opts.VimLines, "vim-lines", "L", opts.VimLines, "vim friendly lines")
	cmd.PersistentFlags().BoolVar(&opts.Jsonl, "jsonl", opts.Jsonl, "output as JSONL")
	cmd.PersistentFlags().BoolVar(&opts.Show, "show", opts.Show, "print source context around each result")
	cmd.PersistentFlags().StringVar(&opts.Explain, "explain", opts.Explain, "print explain info to stderr (text|json)")
	if f := cmd.PersistentFlags().Lookup("explain"); f != nil {
		f.NoOptDefVal = "text"
	}
	cmd.PersistentFlags().BoolVarP(&opts.Watch, "watch", "w", opts.Watch, "re-run when project files change")
}

func ExecuteForTest(cmd *cobra.Command) (string, Options, error) {
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetContext(context.WithValue(cmd.Context(), testModeKey{}, true))

	err := cmd.Execute()

	opts := optionsFrom(cmd)
	if opts == nil {
		return out.String(), Options{}, err
	}
	opts.normalize()

	return out.String(), *opts, err
}

func newDefaultOptions() *Options {
	return &Options{
		Root:         ".",
		ContextLines: 1,
	}
}
