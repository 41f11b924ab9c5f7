// Package config resolves project settings: which files belong to the
// project, the language id they are scanned as, and whether renames may
// touch the disk.
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// The two language ids the scanners know.
const (
	LangCollection = "asm-collection"
	LangListFile   = "asm-list-file"
)

// DefaultInclude maps a language id to the include globs used when the
// project does not set its own. Unknown ids map to nil.
func DefaultInclude(languageID string) []string {
	switch languageID {
	case LangCollection:
		return []string{"**/*.{asm,s,inc,a80,z80}"}
	case LangListFile:
		return []string{"**/*.{list,lst}"}
	default:
		return nil
	}
}

// File is the raw shape of a project config file. Pointer fields tell a set
// value apart from an absent one, so flag overrides can layer on top.
type File struct {
	Root           *string  `toml:"root" yaml:"root" json:"root"`
	LanguageID     *string  `toml:"language_id" yaml:"language_id" json:"language_id"`
	Include        []string `toml:"include" yaml:"include" json:"include"`
	Exclude        []string `toml:"exclude" yaml:"exclude" json:"exclude"`
	ScanAll        *bool    `toml:"scan_all" yaml:"scan_all" json:"scan_all"`
	EnableRenaming *bool    `toml:"enable_renaming" yaml:"enable_renaming" json:"enable_renaming"`
	VerifyWrites   *bool    `toml:"verify_writes" yaml:"verify_writes" json:"verify_writes"`
	Jobs           *int     `toml:"jobs" yaml:"jobs" json:"jobs"`
}

// Settings is the resolved configuration. Root is absolute and always ends
// with the path separator.
type Settings struct {
	Root           string
	LanguageID     string
	Include        []string
	Exclude        []string
	ScanAll        bool
	EnableRenaming bool
	VerifyWrites   bool
	Jobs           int
}

var candidates = []string{
	".asmlens.toml",
	".asmlens.yaml",
	".asmlens.yml",
	".asmlens.json",
}

// Find returns the path of the project config file directly under root, ""
// when there is none.
func Find(root string) string {
	for _, name := range candidates {
		p := filepath.Join(root, name)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p
		}
	}
	return ""
}

// Load reads and decodes one config file, picking the decoder by extension.
// Unknown keys are errors in every format.
func Load(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return File{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
			return File{}, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&f); err != nil {
			return File{}, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return File{}, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return f, nil
}

// Resolve builds Settings from defaults and the given layers, applied in
// order; later layers win. A layer's Root is taken relative to the original
// root when it is not absolute.
func Resolve(root string, layers ...File) (Settings, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return Settings{}, err
	}
	s := Settings{
		Root:       withTrailingSep(filepath.Clean(abs)),
		LanguageID: LangCollection,
	}

	for _, f := range layers {
		if f.Root != nil {
			r := strings.TrimSpace(*f.Root)
			if r != "" {
				if !filepath.IsAbs(r) {
					r = filepath.Join(abs, r)
				}
				s.Root = withTrailingSep(filepath.Clean(r))
			}
		}
		if f.LanguageID != nil {
			s.LanguageID = strings.TrimSpace(*f.LanguageID)
		}
		if f.Include != nil {
			s.Include = trimList(f.Include)
		}
		if f.Exclude != nil {
			s.Exclude = trimList(f.Exclude)
		}
		if f.ScanAll != nil {
			s.ScanAll = *f.ScanAll
		}
		if f.EnableRenaming != nil {
			s.EnableRenaming = *f.EnableRenaming
		}
		if f.VerifyWrites != nil {
			s.VerifyWrites = *f.VerifyWrites
		}
		if f.Jobs != nil {
			s.Jobs = *f.Jobs
		}
	}

	if s.LanguageID != LangCollection && s.LanguageID != LangListFile {
		return Settings{}, fmt.Errorf("unknown language id %q", s.LanguageID)
	}
	if s.Jobs < 0 {
		return Settings{}, fmt.Errorf("jobs must be >= 0")
	}
	if len(s.Include) == 0 {
		s.Include = DefaultInclude(s.LanguageID)
	}
	return s, nil
}

func withTrailingSep(p string) string {
	sep := string(os.PathSeparator)
	if !strings.HasSuffix(p, sep) {
		return p + sep
	}
	return p
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
