package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
)

type Source struct {
	Kind   SourceKind
	Name   string // for defaults
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // YAML-path -> last writer source (file only)
	Files   []string          // all loaded files, in load order
}

// ConfigPathEnv overrides the default config location.
const ConfigPathEnv = "XOVERVIEW_CONFIG"

func DefaultConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(ConfigPathEnv)); p != "" {
		return expandHome(p)
	}
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "xoverview", "config.yaml"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "xoverview", "config.yaml"), nil
}

// Load reads the merged configuration from the standard location and returns an
// effective config ready for use.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources loads config and returns file-level sources for introspection.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path and its includes. A missing file yields the
// defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	l := &loader{
		seen:    make(map[string]bool),
		sources: make(map[string]Source),
	}
	if _, err := os.Stat(path); err == nil {
		if err := l.load(path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	cfg, err := BuildEffectiveConfig(l.raw)
	if err != nil {
		return nil, withSource(err, l.sources)
	}
	if err := cfg.Validate(); err != nil {
		return nil, withSource(err, l.sources)
	}
	return &LoadResult{
		Config:  cfg,
		Sources: l.sources,
		Files:   l.files,
	}, nil
}

// loader merges a config file and its includes depth-first. A file's
// includes are applied before the file itself, so the including file wins.
type loader struct {
	seen    map[string]bool
	chain   []string
	raw     RawConfig
	sources map[string]Source
	files   []string
}

func (l *loader) load(path string) error {
	file, err := canonicalPath(path)
	if err != nil {
		return err
	}
	if slices.Contains(l.chain, file) {
		return fmt.Errorf("include cycle detected: %s -> %s", strings.Join(l.chain, " -> "), file)
	}
	if l.seen[file] {
		return nil
	}
	l.seen[file] = true

	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("%s: failed to read: %w", file, err)
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}
	var raw RawConfig
	if err := decodeStrict(data, &raw); err != nil {
		return fmt.Errorf("%s: %w", file, err)
	}
	sc := scanDocument(&doc, file)

	l.chain = append(l.chain, file)
	for _, inc := range sc.includes {
		paths, err := expandInclude(file, inc.value)
		if err != nil {
			return fmt.Errorf("%s:%d:%d: include %q: %w", inc.at.File, inc.at.Line, inc.at.Column, inc.value, err)
		}
		for _, p := range paths {
			if err := l.load(p); err != nil {
				return err
			}
		}
	}
	l.chain = l.chain[:len(l.chain)-1]

	l.raw = l.raw.merge(raw)
	maps.Copy(l.sources, sc.sources)
	l.files = append(l.files, file)
	return nil
}

func decodeStrict(data []byte, out any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// canonicalPath makes path absolute and resolves symlinks when it can.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}

// expandInclude resolves an include relative to the file naming it. A
// directory expands to its *.yaml and *.yml files in name order.
func expandInclude(from, include string) ([]string, error) {
	if include == "" {
		return nil, errors.New("path is empty")
	}
	path, err := expandHome(include)
	if err != nil {
		return nil, err
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(filepath.Dir(from), path)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, ent := range entries {
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".yaml", ".yml":
			if !ent.IsDir() {
				files = append(files, filepath.Join(path, ent.Name()))
			}
		}
	}
	sort.Strings(files)
	return files, nil
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

type include struct {
	value string
	at    Source
}

// scan is what one pass over a YAML document finds: the position of every
// key path and the include entries.
type scan struct {
	sources  map[string]Source
	includes []include
}

func scanDocument(doc *yaml.Node, file string) scan {
	sc := scan{sources: make(map[string]Source)}
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.MappingNode {
		return sc
	}
	sc.walk(root, file, "")

	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "include" {
			continue
		}
		val := root.Content[i+1]
		items := []*yaml.Node{val}
		if val.Kind == yaml.SequenceNode {
			items = val.Content
		}
		for _, item := range items {
			if item.Kind == yaml.ScalarNode {
				sc.includes = append(sc.includes, include{value: item.Value, at: nodeSource(file, item)})
			}
		}
	}
	return sc
}

// walk records a Source for every mapping key below node, keyed by its
// dotted path. Sequences are recorded as a whole.
func (sc scan) walk(node *yaml.Node, file, prefix string) {
	if node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		path := node.Content[i].Value
		if prefix != "" {
			path = prefix + "." + path
		}
		val := node.Content[i+1]
		sc.sources[path] = nodeSource(file, val)
		sc.walk(val, file, path)
	}
}

func nodeSource(file string, n *yaml.Node) Source {
	return Source{Kind: SourceFile, File: file, Line: n.Line, Column: n.Column}
}

// withSource fills in where a failing key was set, when it came from a file.
func withSource(err error, sources map[string]Source) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := sources[verr.Path]; ok {
		verr.Source = src
	}
	return err
}
